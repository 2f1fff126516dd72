// Package bag provides a cleanup aggregator: a Bag collects release actions
// and runs each of them exactly once when the bag is disposed.
//
// A Bag accepts plain functions and any value exposing a recognized cleanup
// method:
//
//	var b bag.Bag
//	if err := b.Add(conn, cancel, ticker.Stop); err != nil {
//	    return err
//	}
//	defer b.Dispose()
//
// Actions run in registration order. Actions registered while the bag is
// disposing are run by the same Dispose call.
package bag

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"sync"
)

// Disposer is implemented by resources released through Dispose.
type Disposer interface {
	Dispose()
}

// Destroyer is implemented by resources released through Destroy.
type Destroyer interface {
	Destroy()
}

// InvalidResourceError reports an item with no recognized cleanup capability.
type InvalidResourceError struct {
	Item any
}

func (e *InvalidResourceError) Error() string {
	return fmt.Sprintf("bag: %T is not a function and has no Close, Dispose or Destroy method", e.Item)
}

// Bag is a re-entrant collection of cleanup actions.
// The zero value is ready to use.
type Bag struct {
	mu      sync.Mutex
	actions []func() error
}

// New creates a Bag holding the given items. See Add for accepted items.
func New(items ...any) (*Bag, error) {
	b := &Bag{}
	if err := b.Add(items...); err != nil {
		return nil, err
	}
	return b, nil
}

// Add registers cleanup items. Each item may be a func() or func() error
// (named function types included), an io.Closer, a Disposer, a Destroyer, a
// slice of such items, or nil (ignored).
// Any other item fails with *InvalidResourceError and nothing from the call
// is registered.
func (b *Bag) Add(items ...any) error {
	actions := make([]func() error, 0, len(items))
	for _, item := range items {
		var err error
		actions, err = appendAction(actions, item)
		if err != nil {
			return err
		}
	}

	b.mu.Lock()
	b.actions = append(b.actions, actions...)
	b.mu.Unlock()
	return nil
}

// Len returns the number of registered actions not yet run.
func (b *Bag) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.actions)
}

// Dispose runs every registered action once, oldest first, and empties the
// bag. Errors returned by actions are joined; a failing action does not stop
// the remaining ones. Calling Dispose on an empty bag is a no-op.
func (b *Bag) Dispose() error {
	var errs []error
	for {
		b.mu.Lock()
		if len(b.actions) == 0 {
			b.actions = nil
			b.mu.Unlock()
			break
		}
		next := b.actions[0]
		b.actions[0] = nil
		b.actions = b.actions[1:]
		b.mu.Unlock()

		if err := next(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func appendAction(actions []func() error, item any) ([]func() error, error) {
	// Typed nil pointers carry no resource.
	if rv := reflect.ValueOf(item); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return actions, nil
	}

	switch v := item.(type) {
	case nil:
		return actions, nil
	case func():
		if v == nil {
			return actions, nil
		}
		return append(actions, func() error { v(); return nil }), nil
	case func() error:
		if v == nil {
			return actions, nil
		}
		return append(actions, v), nil
	case io.Closer:
		return append(actions, v.Close), nil
	case Disposer:
		return append(actions, func() error { v.Dispose(); return nil }), nil
	case Destroyer:
		return append(actions, func() error { v.Destroy(); return nil }), nil
	case []any:
		for _, nested := range v {
			var err error
			if actions, err = appendAction(actions, nested); err != nil {
				return nil, err
			}
		}
		return actions, nil
	}
	if fn, ok := funcAction(item); ok {
		if fn == nil {
			return actions, nil
		}
		return append(actions, fn), nil
	}
	return nil, &InvalidResourceError{Item: item}
}

var errorType = reflect.TypeFor[error]()

// funcAction converts named function types such as context.CancelFunc. A nil
// function yields a nil action.
func funcAction(item any) (func() error, bool) {
	rv := reflect.ValueOf(item)
	if rv.Kind() != reflect.Func {
		return nil, false
	}
	t := rv.Type()
	if t.NumIn() != 0 || t.NumOut() > 1 || (t.NumOut() == 1 && t.Out(0) != errorType) {
		return nil, false
	}
	if rv.IsNil() {
		return nil, true
	}
	return func() error {
		out := rv.Call(nil)
		if len(out) == 1 && !out[0].IsNil() {
			return out[0].Interface().(error)
		}
		return nil
	}, true
}

// DisposeMembers releases every exported field of the struct
// pointed to by v whose value is an io.Closer, a Disposer or a Destroyer.
// Fields holding other values are skipped. v must be a non-nil struct
// pointer.
func DisposeMembers(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("bag: DisposeMembers needs a non-nil struct pointer, got %T", v)
	}

	var b Bag
	elem := rv.Elem()
	for i := 0; i < elem.NumField(); i++ {
		field := elem.Field(i)
		if !field.CanInterface() {
			continue
		}
		switch field.Kind() {
		case reflect.Pointer, reflect.Interface:
			if field.IsNil() {
				continue
			}
		default:
			continue
		}
		switch member := field.Interface().(type) {
		case io.Closer, Disposer, Destroyer:
			if err := b.Add(member); err != nil {
				return err
			}
		}
	}
	return b.Dispose()
}
