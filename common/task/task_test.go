package task_test

import (
	"context"
	"testing"
	"time"

	E "github.com/strombase/strom/common/exceptions"
	"github.com/strombase/strom/common/task"

	"github.com/stretchr/testify/require"
)

func TestGroupRun(t *testing.T) {
	t.Parallel()
	var group task.Group
	group.Append("first", func(ctx context.Context) error {
		return nil
	})
	group.Append("second", func(ctx context.Context) error {
		return nil
	})
	require.NoError(t, group.Run(context.Background()))
}

func TestGroupError(t *testing.T) {
	t.Parallel()
	errPing := E.New("ping failed")
	var group task.Group
	group.Append("ping", func(ctx context.Context) error {
		return errPing
	})
	group.Append0(func(ctx context.Context) error {
		return nil
	})
	err := group.Run(context.Background())
	require.ErrorIs(t, err, errPing)
	require.Contains(t, err.Error(), "ping")
}

func TestGroupFastFail(t *testing.T) {
	t.Parallel()
	errServer := E.New("server exited")
	var group task.Group
	group.Append("server", func(ctx context.Context) error {
		return errServer
	})
	group.Append("client", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	group.FastFail()
	err := group.Run(context.Background())
	require.ErrorIs(t, err, errServer)
	require.NotErrorIs(t, err, context.Canceled)
}

func TestGroupCleanup(t *testing.T) {
	t.Parallel()
	cleaned := make(chan struct{})
	var group task.Group
	group.Append0(func(ctx context.Context) error {
		return nil
	})
	group.Cleanup(func() {
		close(cleaned)
	})
	require.NoError(t, group.Run(context.Background()))
	select {
	case <-cleaned:
	default:
		t.Fatal("cleanup not called")
	}
}

func TestGroupContextCancel(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	var group task.Group
	group.Append0(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := group.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestGroupErrorThenCancel(t *testing.T) {
	t.Parallel()
	errPing := E.New("ping failed")
	ctx, cancel := context.WithCancel(context.Background())
	var group task.Group
	group.Append("ping", func(ctx context.Context) error {
		return errPing
	})
	group.Append("hold", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	// the error recorded before the cancellation must survive it
	err := group.Run(ctx)
	require.ErrorIs(t, err, errPing)
}