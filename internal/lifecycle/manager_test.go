package lifecycle

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestCloseRunsInLIFOOrder(t *testing.T) {
	m := NewManager(zerolog.Nop())
	var order []string

	m.RegisterFunc("first", func() error {
		order = append(order, "first")
		return nil
	})
	m.RegisterFunc("second", func() error {
		order = append(order, "second")
		return nil
	})
	m.RegisterFunc("third", func() error {
		order = append(order, "third")
		return nil
	})

	if err := m.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"third", "second", "first"}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
}

func TestCloseAggregatesErrorsButClosesAll(t *testing.T) {
	m := NewManager(zerolog.Nop())
	closed := make(map[string]bool)

	m.RegisterFunc("a", func() error {
		closed["a"] = true
		return errors.New("a failed")
	})
	m.RegisterFunc("b", func() error {
		closed["b"] = true
		return errors.New("b failed")
	})

	err := m.Close()
	if err == nil {
		t.Fatal("expected an error")
	}
	if !closed["a"] || !closed["b"] {
		t.Fatalf("expected both resources closed: %+v", closed)
	}
}

func TestCloseWithNoResourcesIsNoop(t *testing.T) {
	m := NewManager(zerolog.Nop())
	if err := m.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
