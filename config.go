package ripple

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// validate is the shared validator instance.
var validate = validator.New()

// Codec decodes configuration documents.
type Codec interface {
	// Unmarshal deserializes bytes into a value.
	Unmarshal(data []byte, v any) error

	// ContentType returns the MIME type for observability and debugging.
	ContentType() string
}

// JSONCodec decodes JSON documents.
type JSONCodec struct{}

// Unmarshal deserializes JSON bytes into v.
func (JSONCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// ContentType returns the JSON MIME type.
func (JSONCodec) ContentType() string {
	return "application/json"
}

// YAMLCodec decodes YAML documents.
type YAMLCodec struct{}

// Unmarshal deserializes YAML bytes into v.
func (YAMLCodec) Unmarshal(data []byte, v any) error {
	return yaml.Unmarshal(data, v)
}

// ContentType returns the YAML MIME type.
func (YAMLCodec) ContentType() string {
	return "application/x-yaml"
}

var (
	_ Codec = JSONCodec{}
	_ Codec = YAMLCodec{}
)

// Config is the declarative form of a graph's options.
//
//	default_debounce_ms: 250
//	error_history: 64
type Config struct {
	// DefaultDebounceMS is the delay in milliseconds used by WithDebounce(0).
	// Zero keeps DefaultDebounce.
	DefaultDebounceMS int `json:"default_debounce_ms" yaml:"default_debounce_ms" validate:"min=0,max=3600000"`

	// ErrorHistory is the number of failures kept. Nil keeps
	// DefaultErrorHistory; zero disables the history.
	ErrorHistory *int `json:"error_history" yaml:"error_history" validate:"omitempty,min=0,max=65536"`
}

// LoadConfig decodes data with codec and validates the result.
func LoadConfig(data []byte, codec Codec) (Config, error) {
	var cfg Config
	if err := codec.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode %s config: %w", codec.ContentType(), err)
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Options converts the configuration into graph options.
func (c Config) Options() []Option {
	var opts []Option
	if c.DefaultDebounceMS > 0 {
		opts = append(opts, WithDefaultDebounce(time.Duration(c.DefaultDebounceMS)*time.Millisecond))
	}
	if c.ErrorHistory != nil {
		opts = append(opts, WithErrorHistory(*c.ErrorHistory))
	}
	return opts
}
