package fcm_test

import (
	"errors"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinywideclouds/go-push-actions/pkg/fcm"
)

func TestClassifyError(t *testing.T) {
	t.Run("Nil error is no error", func(t *testing.T) {
		assert.Equal(t, fcm.ErrorNone, fcm.ClassifyError(nil))
	})

	// Mocking the SDK's internal error types is brittle; the specific
	// IsRegistrationTokenNotRegistered paths are covered by integration
	// tests against a real project.
	t.Run("Unrecognized error maps to unknown", func(t *testing.T) {
		assert.Equal(t, fcm.ErrorUnknown, fcm.ClassifyError(errors.New("network down")))
	})
}

func TestResultFromSend(t *testing.T) {
	t.Run("Success carries the message id", func(t *testing.T) {
		result := fcm.ResultFromSend("projects/p/messages/1", nil)
		assert.True(t, result.Success)
		assert.Equal(t, "projects/p/messages/1", result.MessageID)
		assert.Equal(t, fcm.ErrorNone, result.ErrorKind)
	})

	t.Run("Failure carries kind and detail", func(t *testing.T) {
		result := fcm.ResultFromSend("", errors.New("boom"))
		assert.False(t, result.Success)
		assert.Empty(t, result.MessageID)
		assert.Equal(t, fcm.ErrorUnknown, result.ErrorKind)
		assert.Equal(t, "boom", result.ErrorDetail)
	})
}

func TestBatchResultFromResponse(t *testing.T) {
	t.Run("Preserves positional alignment", func(t *testing.T) {
		br := &messaging.BatchResponse{
			// Summary fields deliberately wrong; counts must come from the
			// per-item results.
			SuccessCount: 99,
			FailureCount: 99,
			Responses: []*messaging.SendResponse{
				{Success: false, Error: errors.New("bad token")},
				{Success: true, MessageID: "id2"},
				{Success: false, Error: errors.New("bad token again")},
			},
		}

		result := fcm.BatchResultFromResponse(br)

		require.Len(t, result.Results, 3)
		assert.False(t, result.Results[0].Success)
		assert.True(t, result.Results[1].Success)
		assert.Equal(t, "id2", result.Results[1].MessageID)
		assert.False(t, result.Results[2].Success)

		assert.Equal(t, 1, result.SuccessCount)
		assert.Equal(t, 2, result.FailureCount)
	})

	t.Run("Nil response yields empty result", func(t *testing.T) {
		result := fcm.BatchResultFromResponse(nil)
		assert.Empty(t, result.Results)
		assert.Zero(t, result.SuccessCount)
		assert.Zero(t, result.FailureCount)
	})
}

func TestTopicResultFromResponse(t *testing.T) {
	tr := &messaging.TopicManagementResponse{
		SuccessCount: 2,
		FailureCount: 1,
		Errors: []*messaging.ErrorInfo{
			{Index: 1, Reason: "INVALID_ARGUMENT"},
		},
	}

	result := fcm.TopicResultFromResponse(tr)

	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 1, result.FailureCount)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 1, result.Errors[0].Index)
	assert.Equal(t, "INVALID_ARGUMENT", result.Errors[0].Reason)
}
