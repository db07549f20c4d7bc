package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestMemoryBus_FiltersByTable(t *testing.T) {
	bus := NewMemoryBus()
	defer bus.Close()

	var rounds, all []Change
	bus.Subscribe([]string{TableRounds}, func(c Change) { rounds = append(rounds, c) })
	bus.Subscribe(nil, func(c Change) { all = append(all, c) })

	require.NoError(t, bus.Publish(context.Background(),
		NewChange(TableRounds, OpUpdate, "r1"),
		NewChange(TableCircles, OpInsert, "c1"),
	))

	require.Len(t, rounds, 1)
	assert.Equal(t, "r1", rounds[0].ID)
	assert.Len(t, all, 2)
}

func TestMemoryBus_Unsubscribe(t *testing.T) {
	bus := NewMemoryBus()
	defer bus.Close()

	calls := 0
	cancel := bus.Subscribe(nil, func(Change) { calls++ })
	require.NoError(t, bus.Publish(context.Background(), NewChange(TableMembers, OpInsert, "m1")))
	cancel()
	require.NoError(t, bus.Publish(context.Background(), NewChange(TableMembers, OpInsert, "m2")))
	assert.Equal(t, 1, calls)
}

func TestMemoryBus_ClosedIsSilent(t *testing.T) {
	bus := NewMemoryBus()
	calls := 0
	bus.Subscribe(nil, func(Change) { calls++ })
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Publish(context.Background(), NewChange(TableMembers, OpInsert, "m1")))
	assert.Zero(t, calls)
}

func TestMemoryBus_CancelledContext(t *testing.T) {
	bus := NewMemoryBus()
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := bus.Publish(ctx, NewChange(TableMembers, OpInsert, "m1"))
	assert.ErrorIs(t, err, context.Canceled)
}
