package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureEmitter struct {
	seen []Event
}

func (c *captureEmitter) Emit(_ context.Context, ev Event) {
	c.seen = append(c.seen, ev)
}

func TestNew(t *testing.T) {
	ev := New(TypeAlertCreated, map[string]string{"id": "a-1"})
	assert.Equal(t, TypeAlertCreated, ev.Type)
	assert.False(t, ev.OccurredAt.IsZero())
	require.NotNil(t, ev.Payload)
}

func TestMulti_FansOut(t *testing.T) {
	a := &captureEmitter{}
	b := &captureEmitter{}
	m := Multi{a, b, Nop{}}

	m.Emit(context.Background(), New(TypeTaskCreated, nil))
	m.Emit(context.Background(), New(TypeVerificationCompleted, nil))

	require.Len(t, a.seen, 2)
	require.Len(t, b.seen, 2)
	assert.Equal(t, TypeTaskCreated, a.seen[0].Type)
	assert.Equal(t, TypeVerificationCompleted, b.seen[1].Type)
}
