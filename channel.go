package ripple

import (
	"fmt"
	"reflect"
)

// Channel identifies a subset of a source object's observable state.
// Any comparable value works; strings are the common choice.
type Channel = any

type allChannel struct{}

func (allChannel) String() string { return "all" }

// All is the reserved channel standing for the whole object. Operations
// given a plain object instead of a Source use All.
var All Channel = allChannel{}

// Source names a (source object, channel) pair.
type Source struct {
	Object  any
	Channel Channel
}

// On returns the Source for obj restricted to channel.
//
//	g.Fire(ctx, ripple.On(panel, "size"), 10, 20)
func On(obj any, channel Channel) Source {
	return Source{Object: obj, Channel: channel}
}

// Dependency is passed to DependencyHandler targets to say which
// (source, channel) pair changed.
type Dependency struct {
	Source  any
	Channel Channel
}

// normalize splits src into its object and channel. A nil channel means All.
func normalize(src any) (any, Channel, error) {
	obj, channel := src, All
	switch s := src.(type) {
	case Source:
		obj, channel = s.Object, s.Channel
	case *Source:
		if s == nil {
			return nil, nil, ErrNilObject
		}
		obj, channel = s.Object, s.Channel
	}
	if channel == nil {
		channel = All
	}

	if err := checkObject(obj); err != nil {
		return nil, nil, err
	}
	if !reflect.TypeOf(channel).Comparable() {
		return nil, nil, fmt.Errorf("%w: channel of type %T", ErrNotComparable, channel)
	}
	return obj, channel, nil
}

// checkObject rejects values that cannot serve as a registry key.
func checkObject(obj any) error {
	if obj == nil {
		return ErrNilObject
	}
	rv := reflect.ValueOf(obj)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.Slice, reflect.Interface:
		if rv.IsNil() {
			return ErrNilObject
		}
	}
	if !rv.Type().Comparable() {
		return fmt.Errorf("%w: object of type %T", ErrNotComparable, obj)
	}
	return nil
}

// describe renders an object for signals and error messages without
// inspecting its contents.
func describe(v any) string {
	if v == nil {
		return "<nil>"
	}
	if reflect.ValueOf(v).Kind() == reflect.Pointer {
		return fmt.Sprintf("%T@%p", v, v)
	}
	return fmt.Sprintf("%T(%v)", v, v)
}

func describeChannel(channel Channel) string {
	if s, ok := channel.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(channel)
}
