package common_test

import (
	"context"
	"io"
	"testing"

	"github.com/strombase/strom/common"

	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	t.Parallel()
	require.Equal(t, io.EOF, common.Error(0, io.EOF))
	require.NoError(t, common.Error(42, nil))
}

func TestDone(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	require.False(t, common.Done(ctx))
	cancel()
	require.True(t, common.Done(ctx))
}

func TestAll(t *testing.T) {
	t.Parallel()
	require.True(t, common.All([]int{2, 4, 6}, func(it int) bool { return it%2 == 0 }))
	require.False(t, common.All([]int{2, 3}, func(it int) bool { return it%2 == 0 }))
}
