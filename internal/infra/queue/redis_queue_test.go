package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_EmptyAddrReturnsNoop(t *testing.T) {
	q := New("")
	_, ok := q.(NoopQueue)
	assert.True(t, ok)
}

func TestNoopQueue_PushAndPopAreInert(t *testing.T) {
	q := NoopQueue{}
	ctx := context.Background()

	require.NoError(t, q.Push(ctx, EmbeddingJobs, map[string]string{"photo_id": "abc"}))
	require.NoError(t, q.PriorityPush(ctx, DriveSyncJobs, map[string]string{"job_id": "xyz"}))

	payload, ok, err := q.Pop(ctx, EmbeddingJobs, time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, payload)

	length, err := q.Length(ctx, EmbeddingJobs)
	require.NoError(t, err)
	assert.Zero(t, length)
}
