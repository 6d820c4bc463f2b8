package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/clickflow/internal/runtime/event"
)

func TestSourceRegistryBuild(t *testing.T) {
	rec := &recorder{}
	sources := NewSourceRegistry()
	sources.Register("billing", func(r *Registry) error {
		r.Register(event.KindTaskCreated, appender(rec, "billing", nil))
		return nil
	})
	sources.Register("audit", func(r *Registry) error {
		r.Register(event.KindTaskCreated, appender(rec, "audit", nil))
		return nil
	})

	reg, err := sources.Build([]string{"billing", "audit"})
	require.NoError(t, err)
	require.NotNil(t, reg)
	assert.True(t, reg.Frozen())
	assert.Equal(t, 2, reg.Len())

	// Source order defines handler order.
	reg.Dispatch(context.Background(), taskEvent(t, event.KindTaskCreated))
	assert.Equal(t, []string{"billing", "audit"}, rec.snapshot())
}

func TestSourceRegistryBuildOrderMatters(t *testing.T) {
	rec := &recorder{}
	sources := NewSourceRegistry()
	sources.Register("a", func(r *Registry) error {
		r.Register(event.KindTaskCreated, appender(rec, "a", nil))
		return nil
	})
	sources.Register("b", func(r *Registry) error {
		r.Register(event.KindTaskCreated, appender(rec, "b", nil))
		return nil
	})

	reg, err := sources.Build([]string{"b", "a"})
	require.NoError(t, err)

	reg.Dispatch(context.Background(), taskEvent(t, event.KindTaskCreated))
	assert.Equal(t, []string{"b", "a"}, rec.snapshot())
}

func TestBuildUnknownSourceIsFatal(t *testing.T) {
	sources := NewSourceRegistry()
	sources.Register("known", func(r *Registry) error { return nil })

	reg, err := sources.Build([]string{"known", "missing"})
	assert.Nil(t, reg)
	require.Error(t, err)

	var discErr *DiscoveryError
	require.ErrorAs(t, err, &discErr)
	assert.Equal(t, "missing", discErr.Source)
	assert.ErrorIs(t, err, ErrUnknownSource)
	assert.Contains(t, err.Error(), `handler source missing`)
}

func TestBuildFailingSourceIsFatal(t *testing.T) {
	boom := errors.New("db not reachable")
	sources := NewSourceRegistry()
	sources.Register("good", func(r *Registry) error {
		r.Register(event.KindTaskCreated, appender(&recorder{}, "x", nil))
		return nil
	})
	sources.Register("bad", func(r *Registry) error { return boom })

	reg, err := sources.Build([]string{"good", "bad"})
	assert.Nil(t, reg)
	require.Error(t, err)

	var discErr *DiscoveryError
	require.ErrorAs(t, err, &discErr)
	assert.Equal(t, "bad", discErr.Source)
	assert.ErrorIs(t, err, boom)
}

func TestBuildEmptyNamesGivesEmptyFrozenRegistry(t *testing.T) {
	reg, err := NewSourceRegistry().Build(nil)
	require.NoError(t, err)
	assert.True(t, reg.Frozen())
	assert.Equal(t, 0, reg.Len())
}

func TestSourceRegistryNamesSorted(t *testing.T) {
	sources := NewSourceRegistry()
	sources.Register("zeta", func(r *Registry) error { return nil })
	sources.Register("alpha", func(r *Registry) error { return nil })

	assert.Equal(t, []string{"alpha", "zeta"}, sources.Names())
	assert.True(t, sources.Has("alpha"))
	assert.False(t, sources.Has("beta"))
}

func TestDefaultSourceHelpers(t *testing.T) {
	// Unique name so parallel packages sharing the default registry cannot
	// collide.
	const name = "sources-test-default-helpers"

	RegisterSource(name, func(r *Registry) error {
		r.Register(event.KindListDeleted, appender(&recorder{}, "x", nil))
		return nil
	})

	assert.Contains(t, SourceNames(), name)

	reg, err := BuildRegistry([]string{name})
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())
}
