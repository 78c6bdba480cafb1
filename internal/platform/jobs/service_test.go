package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestQueuedJobRuns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	svc := New(nil, 4)
	svc.Start(ctx)

	done := make(chan string, 1)
	require.True(t, svc.Enqueue(JobRosterArchive, "1", func(context.Context) error {
		done <- "ran"
		return nil
	}))

	select {
	case got := <-done:
		assert.Equal(t, "ran", got)
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}
	cancel()
	svc.Wait()
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	svc := New(zap.New(core), 1)
	noop := func(context.Context) error { return nil }

	assert.True(t, svc.Enqueue(JobRosterArchive, "1", noop))
	assert.False(t, svc.Enqueue(JobRosterArchive, "2", noop))
	assert.Equal(t, 1, logs.FilterMessage("job queue full").Len())
}

func TestRunNowReturnsError(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	svc := New(zap.New(core), 1)

	err := svc.RunNow(context.Background(), JobRosterArchive, "1", func(context.Context) error {
		return errors.New("disk full")
	})
	require.EqualError(t, err, "disk full")
	assert.Equal(t, 1, logs.FilterMessage("job run failed").Len())
}

func TestShutdownDrainsQueuedJobs(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	svc := New(zap.New(core), 4)

	var ran []string
	for _, key := range []string{"1", "2"} {
		require.True(t, svc.Enqueue(JobRosterArchive, key, func(ctx context.Context) error {
			assert.NoError(t, ctx.Err())
			ran = append(ran, key)
			return nil
		}))
	}

	// cancelled before the worker starts, so both jobs are still queued
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc.Start(ctx)
	svc.Wait()

	assert.Len(t, ran, 2)
	assert.Equal(t, 1, logs.FilterMessage("job queue drained").Len())
}
