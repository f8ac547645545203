package cron

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryKeepsOrderAndSkipsNil(t *testing.T) {
	jobA := &testJob{name: "purchase-expiry"}
	jobB := &testJob{name: "event-finalize"}
	registry := NewRegistry(jobA, nil)
	assert.Error(t, registry.Register(nil))
	require.NoError(t, registry.Register(jobB))

	jobs := registry.Jobs()
	require.Len(t, jobs, 2)
	assert.Same(t, jobA, jobs[0])
	assert.Same(t, jobB, jobs[1])

	jobs[0] = nil
	assert.NotNil(t, registry.Jobs()[0])
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	registry := NewRegistry(&testJob{name: "outbox-retention"})
	err := registry.Register(&testJob{name: "outbox-retention"})
	assert.ErrorContains(t, err, "already registered")
	assert.Len(t, registry.Jobs(), 1)

	seeded := NewRegistry(&testJob{name: "a"}, &testJob{name: "a"})
	assert.Len(t, seeded.Jobs(), 1)
}
