package drivesync

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validJobInput() NewJobInput {
	return NewJobInput{OwnerID: uuid.New(), FolderID: "folder-1", BatchSize: 50}
}

func TestNewJob_Valid(t *testing.T) {
	j, err := NewJob(validJobInput())

	require.NoError(t, err)
	assert.Equal(t, JobStatusQueued, j.Status())
	assert.Equal(t, 0, j.Attempts())
	assert.Equal(t, defaultMaxAttempts, j.MaxAttempts())
}

func TestNewJob_ClampsBatchSize(t *testing.T) {
	in := validJobInput()
	in.BatchSize = 500
	j, err := NewJob(in)

	require.NoError(t, err)
	assert.Equal(t, maxBatchSize, j.BatchSize())
}

func TestNewJob_RejectsEmptyFolder(t *testing.T) {
	in := validJobInput()
	in.FolderID = ""
	_, err := NewJob(in)
	assert.Error(t, err)
}

func TestJob_StartTransitionsAndIncrementsAttempts(t *testing.T) {
	j, _ := NewJob(validJobInput())

	err := j.Start(time.Now())

	require.NoError(t, err)
	assert.Equal(t, JobStatusRunning, j.Status())
	assert.Equal(t, 1, j.Attempts())
	assert.NotNil(t, j.StartedAt())
}

func TestJob_StartRejectsFromCompleted(t *testing.T) {
	j, _ := NewJob(validJobInput())
	require.NoError(t, j.Start(time.Now()))
	require.NoError(t, j.Complete(time.Now()))

	err := j.Start(time.Now())

	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestJob_FailThenRetryable(t *testing.T) {
	j, _ := NewJob(validJobInput())
	require.NoError(t, j.Start(time.Now()))
	require.NoError(t, j.Fail("boom", time.Now()))

	assert.Equal(t, JobStatusFailed, j.Status())
	assert.True(t, j.CanRetry())

	require.NoError(t, j.Start(time.Now()))
	assert.Equal(t, 2, j.Attempts())
}

func TestJob_FailExhaustsRetriesAfterMaxAttempts(t *testing.T) {
	j, _ := NewJob(validJobInput())
	for i := 0; i < j.MaxAttempts(); i++ {
		require.NoError(t, j.Start(time.Now()))
		require.NoError(t, j.Fail("boom", time.Now()))
	}

	assert.False(t, j.CanRetry())
}

func TestJob_CancelFromQueued(t *testing.T) {
	j, _ := NewJob(validJobInput())

	err := j.Cancel("superseded", time.Now())

	require.NoError(t, err)
	assert.Equal(t, JobStatusCancelled, j.Status())
}

func TestJob_ApplyBatchResult(t *testing.T) {
	j, _ := NewJob(validJobInput())

	j.ApplyBatchResult(3, 1, 2)
	j.ApplyBatchResult(2, 0, 0)

	assert.Equal(t, 5, j.Uploaded())
	assert.Equal(t, 1, j.Skipped())
	assert.Equal(t, 2, j.Failed())
	assert.Equal(t, 8, j.Processed())
}

func TestFile_CompletionMarker(t *testing.T) {
	f, err := NewFile(uuid.New(), "zip-1", CompletionMarkerEntryID)
	require.NoError(t, err)

	assert.False(t, f.IsCompletionMarker())

	f.MarkCompleted(3, time.Now())
	assert.True(t, f.IsCompletionMarker())
}

func TestFile_MarkFailed(t *testing.T) {
	f, _ := NewFile(uuid.New(), "file-1", "")

	f.MarkFailed("decode error", 2)

	assert.Equal(t, FileStateFailed, f.State())
	require.NotNil(t, f.Error())
	assert.Equal(t, "decode error", *f.Error())
}

func TestCheckpoint_Advance(t *testing.T) {
	c, err := NewCheckpoint(uuid.New())
	require.NoError(t, err)

	c.Advance(4, "file-42")

	assert.Equal(t, 4, c.LastBatchNo())
	assert.Equal(t, "file-42", c.LastSuccessKey())
}
