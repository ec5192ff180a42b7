package fcm_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinywideclouds/go-push-actions/pkg/fcm"
)

func TestMessageValidate_RecipientCardinality(t *testing.T) {
	t.Run("Valid - single token", func(t *testing.T) {
		msg := &fcm.Message{Token: "device-1"}
		assert.NoError(t, msg.Validate())
	})

	t.Run("Valid - single topic", func(t *testing.T) {
		msg := &fcm.Message{Topic: "news"}
		assert.NoError(t, msg.Validate())
	})

	t.Run("Valid - single condition", func(t *testing.T) {
		msg := &fcm.Message{Condition: "'news' in topics"}
		assert.NoError(t, msg.Validate())
	})

	t.Run("Invalid - no recipient", func(t *testing.T) {
		msg := &fcm.Message{Data: map[string]string{"k": "v"}}
		err := msg.Validate()
		require.Error(t, err)

		var vErr *fcm.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "recipient", vErr.Field)
	})

	t.Run("Invalid - token and topic together", func(t *testing.T) {
		msg := &fcm.Message{Token: "device-1", Topic: "news"}
		assert.Error(t, msg.Validate())
	})

	t.Run("Invalid - bad webpush direction", func(t *testing.T) {
		msg := &fcm.Message{
			Token: "device-1",
			Webpush: &fcm.WebpushConfig{
				Notification: &fcm.WebpushNotification{Direction: "up"},
			},
		}
		err := msg.Validate()
		require.Error(t, err)

		var vErr *fcm.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "direction", vErr.Field)
	})
}

func TestMulticastMessageValidate_Bounds(t *testing.T) {
	t.Run("Valid - one token", func(t *testing.T) {
		msg := &fcm.MulticastMessage{Tokens: []string{"t1"}}
		assert.NoError(t, msg.Validate())
	})

	t.Run("Invalid - empty token list", func(t *testing.T) {
		msg := &fcm.MulticastMessage{}
		assert.Error(t, msg.Validate())
	})

	t.Run("Invalid - over the batch ceiling", func(t *testing.T) {
		tokens := make([]string, fcm.MaxMulticastTokens+1)
		for i := range tokens {
			tokens[i] = "t"
		}
		msg := &fcm.MulticastMessage{Tokens: tokens}
		err := msg.Validate()
		require.Error(t, err)

		var vErr *fcm.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "tokens", vErr.Field)
	})

	t.Run("Valid - exactly at the ceiling", func(t *testing.T) {
		tokens := make([]string, fcm.MaxMulticastTokens)
		for i := range tokens {
			tokens[i] = "t"
		}
		msg := &fcm.MulticastMessage{Tokens: tokens}
		assert.NoError(t, msg.Validate())
	})
}

func TestCoerceData(t *testing.T) {
	t.Run("Mixed scalar types become strings", func(t *testing.T) {
		in := map[string]any{
			"count":  3,
			"ok":     true,
			"name":   "alice",
			"ratio":  0.5,
			"offset": int64(9000000000),
		}
		out := fcm.CoerceData(in)

		assert.Equal(t, map[string]string{
			"count":  "3",
			"ok":     "true",
			"name":   "alice",
			"ratio":  "0.5",
			"offset": "9000000000",
		}, out)
	})

	t.Run("Stringer values use their String form", func(t *testing.T) {
		u, _ := url.Parse("https://example.com/a")
		out := fcm.CoerceData(map[string]any{"link": u})
		assert.Equal(t, map[string]string{"link": "https://example.com/a"}, out)
	})

	t.Run("Unrepresentable values are dropped", func(t *testing.T) {
		out := fcm.CoerceData(map[string]any{
			"keep": "yes",
			"drop": []string{"not", "a", "scalar"},
		})
		assert.Equal(t, map[string]string{"keep": "yes"}, out)
	})

	t.Run("Empty input returns nil", func(t *testing.T) {
		assert.Nil(t, fcm.CoerceData(nil))
		assert.Nil(t, fcm.CoerceData(map[string]any{}))
	})
}

func TestSimpleMessage_Expansion(t *testing.T) {
	simple := fcm.Simple{
		Title: "Build finished",
		Body:  "All checks passed",
		Token: "device-7",
		Link:  "https://ci.example.com/runs/42",
		Data:  map[string]string{"run": "42"},
		Actions: []fcm.WebpushNotificationAction{
			{Action: "open_run", Title: "Open"},
		},
		RequireInteraction: true,
	}

	msg := simple.Message()
	require.NoError(t, msg.Validate())

	assert.Equal(t, "device-7", msg.Token)
	assert.Equal(t, map[string]string{"run": "42"}, msg.Data)

	require.NotNil(t, msg.Webpush)
	require.NotNil(t, msg.Webpush.Notification)
	assert.Equal(t, "Build finished", msg.Webpush.Notification.Title)
	assert.Equal(t, "All checks passed", msg.Webpush.Notification.Body)
	assert.True(t, msg.Webpush.Notification.RequireInteraction)
	require.Len(t, msg.Webpush.Notification.Actions, 1)
	assert.Equal(t, "open_run", msg.Webpush.Notification.Actions[0].Action)

	require.NotNil(t, msg.Webpush.FCMOptions)
	assert.Equal(t, "https://ci.example.com/runs/42", msg.Webpush.FCMOptions.Link)
}
