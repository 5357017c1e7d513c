package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTake(t *testing.T) {
	s, err := Take(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, "/", s.DiskPath)
	assert.False(t, s.TakenAt.IsZero())
	if len(s.Errors) == 0 {
		assert.Positive(t, s.Memory.Total)
		assert.Positive(t, s.Disk.Total)
		assert.Positive(t, s.CPUCores)
	}
}

func TestTakeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Take(ctx, "/")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBytes(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
		{3 << 30, "3.0 GiB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Bytes(tt.in))
	}
}

func TestDuration(t *testing.T) {
	assert.Equal(t, "0h 5m", Duration(5*time.Minute+30*time.Second))
	assert.Equal(t, "3h 0m", Duration(3*time.Hour))
	assert.Equal(t, "2d 1h 7m", Duration(49*time.Hour+7*time.Minute))
}
