package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBackend struct{ name string }

func (b stubBackend) Name() string { return b.name }

func (b stubBackend) Execute(context.Context, Request) (Result, error) { return Result{}, nil }

type stubModule struct{ names []string }

func (m stubModule) Register(r *Registry) {
	for _, n := range m.names {
		r.Register(stubBackend{name: n})
	}
}

func TestRegistry(t *testing.T) {
	r := New(stubModule{names: []string{"print", "http"}})
	assert.Equal(t, []string{"http", "print"}, r.Names())

	b, err := r.Backend(context.Background(), "print")
	require.NoError(t, err)
	assert.Equal(t, "print", b.Name())

	_, err = r.Backend(context.Background(), "grpc")
	assert.ErrorContains(t, err, `no backend named "grpc" (available: [http print])`)
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	r := New()
	r.Register(stubBackend{name: "print"})
	assert.PanicsWithValue(t, "backend with name 'print' already registered", func() {
		r.Register(stubBackend{name: "print"})
	})
}
