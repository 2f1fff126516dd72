package ripple

import "context"

// Action is invoked when a relationship's source fires. args are the values
// passed to Fire or End.
type Action func(ctx context.Context, args ...any) error

// DependencyHandler is the generic handler a target implements to react to
// any dependency it was added with.
type DependencyHandler interface {
	OnDependencyChanged(ctx context.Context, dep Dependency, args ...any) error
}

// MethodProvider is implemented by targets that expose named handlers. The
// default action asks for the ChannelNode's declared method first. A nil
// result means the target has no such handler.
type MethodProvider interface {
	DependencyMethod(name string) Action
}

// Methods is a registration table of named handlers. Embed it in a target
// to satisfy MethodProvider.
//
//	type Panel struct {
//	    ripple.Methods
//	}
//
//	p := &Panel{}
//	p.Methods = ripple.Methods{"OnSizeChanged": p.onSizeChanged}
type Methods map[string]Action

// DependencyMethod returns the handler registered under name.
func (m Methods) DependencyMethod(name string) Action {
	return m[name]
}

var _ MethodProvider = Methods(nil)
