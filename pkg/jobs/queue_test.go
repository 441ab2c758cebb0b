package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	done := make(chan string, 3)
	q := NewQueue("test", func(_ context.Context, j Job) error {
		done <- j.ID
		return nil
	}, Config{Workers: 2})
	q.Start(context.Background())
	defer q.Stop()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Enqueue(context.Background(), Job{ID: id}))
	}

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		select {
		case id := <-done:
			seen[id] = true
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for jobs")
		}
	}
	assert.Len(t, seen, 3)
}

func TestQueueRetriesUntilSuccess(t *testing.T) {
	var calls int32
	done := make(chan int, 1)
	q := NewQueue("retry", func(_ context.Context, j Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("smtp down")
		}
		done <- j.Attempt
		return nil
	}, Config{MaxRetries: 3, RetryDelay: 5 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(context.Background(), Job{ID: "mail"}))

	select {
	case attempt := <-done:
		assert.Equal(t, 2, attempt)
	case <-time.After(2 * time.Second):
		t.Fatal("job never succeeded")
	}
}

func TestEnqueueRequiresRunningQueue(t *testing.T) {
	q := NewQueue("idle", func(context.Context, Job) error { return nil }, Config{})
	err := q.Enqueue(context.Background(), Job{ID: "x"})
	assert.ErrorIs(t, err, ErrNotRunning)

	q.Start(context.Background())
	q.Stop()
	assert.ErrorIs(t, q.Enqueue(context.Background(), Job{ID: "y"}), ErrNotRunning)
}
