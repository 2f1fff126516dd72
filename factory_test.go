package ripple

import (
	"context"
	"errors"
	"slices"
	"testing"
)

type widget struct {
	Methods
	got []any
}

func TestFactory_FirstMatchWinsAndWarns(t *testing.T) {
	ctx := context.Background()
	g := New()

	g.RegisterFactory(Factory{
		ID:     "first",
		Match:  func(any, Channel) bool { return true },
		Method: "OnFirst",
	})
	g.RegisterFactory(Factory{
		ID:     "second",
		Match:  func(any, Channel) bool { return true },
		Method: "OnSecond",
	})

	a := &node{}
	cn, err := g.Add(ctx, a, &recorder{})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if cn.Method() != "OnFirst" {
		t.Errorf("expected first factory applied, got method %q", cn.Method())
	}

	failures := g.Failures()
	if len(failures) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(failures))
	}
	var warning *AmbiguousFactoryWarning
	if !errors.As(failures[0].Err, &warning) {
		t.Fatalf("expected AmbiguousFactoryWarning, got %v", failures[0].Err)
	}
	if !slices.Equal(warning.Factories, []string{"first", "second"}) {
		t.Errorf("expected factories [first second], got %v", warning.Factories)
	}
	if warning.Source != a || warning.Channel != All {
		t.Errorf("expected warning naming (a, All), got %+v", warning)
	}
}

func TestFactory_ConfiguresOnlyNewNodes(t *testing.T) {
	ctx := context.Background()
	g := New()

	configured := 0
	g.RegisterFactory(Factory{
		ID:    "counting",
		Match: func(any, Channel) bool { return true },
		Setup: func(*ChannelNode) { configured++ },
	})

	a := &node{}
	for i := 0; i < 3; i++ {
		if _, err := g.Add(ctx, a, &recorder{}); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}
	if configured != 1 {
		t.Errorf("expected factory applied once, got %d", configured)
	}
	if len(g.Failures()) != 0 {
		t.Errorf("expected no warnings for a single match, got %v", g.Failures())
	}
}

func TestFactory_SetupCanAttachResources(t *testing.T) {
	ctx := context.Background()
	g := New()

	released := false
	g.RegisterFactory(Factory{
		ID:    "resource",
		Match: func(any, Channel) bool { return true },
		Setup: func(n *ChannelNode) {
			_ = n.Resources().Add(func() { released = true })
		},
	})

	a, b := &node{}, &recorder{}
	if _, err := g.Add(ctx, a, b); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := g.Remove(ctx, a, b); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if !released {
		t.Error("expected factory resource released with the node")
	}
}

func TestForType_MatchesTypeAndChannels(t *testing.T) {
	f := ForType[*widget]("OnWidget", "size", "pos")

	if f.Name() != "*ripple.widget" {
		t.Errorf("expected name '*ripple.widget', got %q", f.Name())
	}

	tests := []struct {
		name    string
		source  any
		channel Channel
		want    bool
	}{
		{"listed channel", &widget{}, "size", true},
		{"second listed channel", &widget{}, "pos", true},
		{"unlisted channel", &widget{}, "color", false},
		{"all channel", &widget{}, All, false},
		{"other type", &node{}, "size", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Matches(tt.source, tt.channel); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestForType_AnyChannel(t *testing.T) {
	f := ForType[*widget]("OnWidget")
	if !f.Matches(&widget{}, All) || !f.Matches(&widget{}, 42) {
		t.Error("expected every channel to match without a channel list")
	}
}

func TestFactory_NilMatchNeverMatches(t *testing.T) {
	if (Factory{ID: "empty"}).Matches(&node{}, All) {
		t.Error("expected factory without Match to match nothing")
	}
}

func TestFactory_DeclaredMethodRoutesToWidget(t *testing.T) {
	ctx := context.Background()
	g := New()
	g.RegisterFactory(ForType[*node]("OnNodeChanged"))

	a := &node{}
	w := &widget{}
	w.Methods = Methods{
		"OnNodeChanged": func(_ context.Context, args ...any) error {
			w.got = args
			return nil
		},
	}

	if _, err := g.Add(ctx, a, w); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := g.Fire(ctx, a, "x"); err != nil {
		t.Fatalf("Fire failed: %v", err)
	}
	if len(w.got) != 1 || w.got[0] != "x" {
		t.Errorf("expected OnNodeChanged(x), got %v", w.got)
	}
}
