package syncer

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func waitOutbox(t *testing.T, o *Outbox) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, o.Wait(ctx))
}

func TestOutboxDeliversWithoutBlockingCaller(t *testing.T) {
	o := NewOutbox(8, 1, 0, time.Second, zap.NewNop())
	o.Start(1)
	defer o.Stop(context.Background())

	release := make(chan struct{})
	var delivered atomic.Int32
	ok := o.Enqueue(Write{Entity: "contact", Op: "upsert", ID: "c1", Send: func(context.Context) error {
		<-release
		delivered.Add(1)
		return nil
	}})

	require.True(t, ok)
	assert.Equal(t, 1, o.Pending())
	close(release)

	waitOutbox(t, o)
	assert.Equal(t, int32(1), delivered.Load())
	assert.Zero(t, o.Failed())
}

func TestOutboxRetriesWithBackoff(t *testing.T) {
	o := NewOutbox(8, 3, time.Millisecond, time.Second, zap.NewNop())
	o.Start(1)
	defer o.Stop(context.Background())

	var calls atomic.Int32
	o.Enqueue(Write{Entity: "contact", Op: "upsert", ID: "c1", Send: func(context.Context) error {
		if calls.Add(1) < 3 {
			return errors.New("remote down")
		}
		return nil
	}})

	waitOutbox(t, o)
	assert.Equal(t, int32(3), calls.Load())
	assert.Zero(t, o.Failed())
}

func TestOutboxGivesUpAndCountsFailure(t *testing.T) {
	o := NewOutbox(8, 1, time.Millisecond, time.Second, zap.NewNop())
	o.Start(1)
	defer o.Stop(context.Background())

	var calls atomic.Int32
	o.Enqueue(Write{Entity: "timeoff", Op: "delete", ID: "t1", Send: func(context.Context) error {
		calls.Add(1)
		return errors.New("remote down")
	}})

	waitOutbox(t, o)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, o.Failed())
}

func TestOutboxDropsWhenFull(t *testing.T) {
	o := NewOutbox(1, 1, 0, time.Second, zap.NewNop())

	noop := func(context.Context) error { return nil }
	assert.True(t, o.Enqueue(Write{ID: "a", Send: noop}))
	assert.False(t, o.Enqueue(Write{ID: "b", Send: noop}))
	assert.Equal(t, 1, o.Failed())

	o.Start(1)
	waitOutbox(t, o)
	o.Stop(context.Background())

	assert.False(t, o.Enqueue(Write{ID: "c", Send: noop}))
}

func TestOutboxStopDrainsQueue(t *testing.T) {
	o := NewOutbox(8, 1, 0, time.Second, zap.NewNop())

	var delivered atomic.Int32
	for i := 0; i < 5; i++ {
		o.Enqueue(Write{Send: func(context.Context) error {
			delivered.Add(1)
			return nil
		}})
	}
	o.Start(2)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	o.Stop(ctx)

	assert.Equal(t, int32(5), delivered.Load())
	assert.Zero(t, o.Pending())
}
