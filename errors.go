package ripple

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNilObject is returned when a nil value is used as a source or target.
	ErrNilObject = errors.New("ripple: nil object")

	// ErrNotComparable is returned when an object or channel cannot be used
	// as a map key.
	ErrNotComparable = errors.New("ripple: value is not comparable")

	// ErrDestroyed is the panic value wrapped when a destroyed ChannelNode
	// is used.
	ErrDestroyed = errors.New("ripple: channel node destroyed")
)

// ProtocolError reports an End with no matching Begin.
type ProtocolError struct {
	Source  any
	Channel Channel
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("ripple: unmatched end for %s on channel %s",
		describe(e.Source), describeChannel(e.Channel))
}

// AmbiguousFactoryWarning reports that more than one registered factory
// matched a new ChannelNode. The first registered factory was used.
type AmbiguousFactoryWarning struct {
	Source    any
	Channel   Channel
	Factories []string
}

func (w *AmbiguousFactoryWarning) Error() string {
	return fmt.Sprintf("ripple: %d factories match %s on channel %s (%s); using %s",
		len(w.Factories), describe(w.Source), describeChannel(w.Channel),
		strings.Join(w.Factories, ", "), w.Factories[0])
}

// PropagationError wraps an error returned by a target's action.
type PropagationError struct {
	Source  any
	Channel Channel
	Target  any
	Err     error
}

func (e *PropagationError) Error() string {
	return fmt.Sprintf("ripple: propagating %s on channel %s to %s: %v",
		describe(e.Source), describeChannel(e.Channel), describe(e.Target), e.Err)
}

func (e *PropagationError) Unwrap() error {
	return e.Err
}
