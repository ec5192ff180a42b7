// Package fcm contains the public message and response models for Firebase
// Cloud Messaging sends: outbound message envelopes, webpush notification
// content, and the normalized per-recipient results returned by the sender.
package fcm

import (
	"fmt"
	"strconv"
)

// MaxMulticastTokens is the provider-imposed ceiling on recipients per
// multicast call. Oversized batches are rejected before any network call.
const MaxMulticastTokens = 500

// ValidationError reports an invalid message field. It is always raised
// before any provider call is attempted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// WebpushNotificationAction is a single action button on a webpush
// notification. Action is the name the click handler resolves at click time.
type WebpushNotificationAction struct {
	Action string `json:"action"`
	Title  string `json:"title"`
	Icon   string `json:"icon,omitempty"`
}

// WebpushNotification describes the rendered notification content and
// behavior for webpush delivery.
type WebpushNotification struct {
	Title              string                      `json:"title,omitempty"`
	Body               string                      `json:"body,omitempty"`
	Icon               string                      `json:"icon,omitempty"`
	Actions            []WebpushNotificationAction `json:"actions,omitempty"`
	Badge              string                      `json:"badge,omitempty"`
	Data               map[string]any              `json:"data,omitempty"`
	Direction          string                      `json:"direction,omitempty"`
	Image              string                      `json:"image,omitempty"`
	Language           string                      `json:"language,omitempty"`
	Renotify           bool                        `json:"renotify,omitempty"`
	RequireInteraction bool                        `json:"require_interaction,omitempty"`
	Silent             bool                        `json:"silent,omitempty"`
	Tag                string                      `json:"tag,omitempty"`
	TimestampMillis    *int64                      `json:"timestamp_millis,omitempty"`
	Vibrate            []int                       `json:"vibrate,omitempty"`
	CustomData         map[string]any              `json:"custom_data,omitempty"`
}

// Validate checks the closed direction set ("auto", "ltr", "rtl").
func (n *WebpushNotification) Validate() error {
	switch n.Direction {
	case "", "auto", "ltr", "rtl":
		return nil
	default:
		return &ValidationError{Field: "direction", Reason: `must be one of "auto", "ltr", "rtl"`}
	}
}

// WebpushFCMOptions carries webpush-specific FCM options, currently the link
// opened when the user clicks the notification body.
type WebpushFCMOptions struct {
	Link string `json:"link,omitempty"`
}

// WebpushConfig is the webpush transport configuration for a message.
type WebpushConfig struct {
	Headers      map[string]string    `json:"headers,omitempty"`
	Data         map[string]string    `json:"data,omitempty"`
	Notification *WebpushNotification `json:"notification,omitempty"`
	FCMOptions   *WebpushFCMOptions   `json:"fcm_options,omitempty"`
}

// Message is a single outbound notification/data message. Exactly one of
// Token, Topic and Condition must be set.
type Message struct {
	Data       map[string]string  `json:"data,omitempty"`
	Webpush    *WebpushConfig     `json:"webpush,omitempty"`
	FCMOptions *WebpushFCMOptions `json:"fcm_options,omitempty"`
	Token      string             `json:"token,omitempty"`
	Topic      string             `json:"topic,omitempty"`
	Condition  string             `json:"condition,omitempty"`
}

// Validate enforces recipient cardinality: exactly one of token, topic or
// condition.
func (m *Message) Validate() error {
	set := 0
	for _, recipient := range []string{m.Token, m.Topic, m.Condition} {
		if recipient != "" {
			set++
		}
	}
	if set != 1 {
		return &ValidationError{
			Field:  "recipient",
			Reason: "exactly one of token, topic or condition must be set",
		}
	}
	if m.Webpush != nil && m.Webpush.Notification != nil {
		return m.Webpush.Notification.Validate()
	}
	return nil
}

// MulticastMessage is a Message fanned out to many registration tokens in a
// single provider call.
type MulticastMessage struct {
	Data       map[string]string  `json:"data,omitempty"`
	Webpush    *WebpushConfig     `json:"webpush,omitempty"`
	FCMOptions *WebpushFCMOptions `json:"fcm_options,omitempty"`
	Tokens     []string           `json:"tokens"`
}

// Validate enforces the 1..MaxMulticastTokens batch bounds before any send.
func (m *MulticastMessage) Validate() error {
	if len(m.Tokens) == 0 {
		return &ValidationError{Field: "tokens", Reason: "at least one token is required"}
	}
	if len(m.Tokens) > MaxMulticastTokens {
		return &ValidationError{
			Field:  "tokens",
			Reason: fmt.Sprintf("at most %d tokens per multicast, got %d", MaxMulticastTokens, len(m.Tokens)),
		}
	}
	if m.Webpush != nil && m.Webpush.Notification != nil {
		return m.Webpush.Notification.Validate()
	}
	return nil
}

// CoerceData converts a loosely typed payload into the string-valued data map
// FCM requires. Booleans become "true"/"false", numbers become decimal text,
// and values that have no sensible string form are dropped.
func CoerceData(data map[string]any) map[string]string {
	if len(data) == 0 {
		return nil
	}
	out := make(map[string]string, len(data))
	for key, value := range data {
		switch v := value.(type) {
		case string:
			out[key] = v
		case bool:
			out[key] = strconv.FormatBool(v)
		case int:
			out[key] = strconv.Itoa(v)
		case int32:
			out[key] = strconv.FormatInt(int64(v), 10)
		case int64:
			out[key] = strconv.FormatInt(v, 10)
		case float32:
			out[key] = strconv.FormatFloat(float64(v), 'f', -1, 32)
		case float64:
			out[key] = strconv.FormatFloat(v, 'f', -1, 64)
		case fmt.Stringer:
			out[key] = v.String()
		}
	}
	return out
}

// Simple bundles the common notification fields into one flat declaration and
// expands to a full Message. It mirrors the typical "title, body, link and a
// few buttons" send without requiring the caller to assemble the nested
// webpush structures.
type Simple struct {
	Title              string
	Body               string
	Token              string
	Topic              string
	Condition          string
	Data               map[string]string
	CustomData         map[string]any
	Headers            map[string]string
	Icon               string
	Image              string
	Badge              string
	Link               string
	Actions            []WebpushNotificationAction
	Direction          string
	Language           string
	Renotify           bool
	RequireInteraction bool
	Silent             bool
	Tag                string
	TimestampMillis    *int64
	Vibrate            []int
}

// Message expands the flat declaration into the explicit envelope.
func (s Simple) Message() *Message {
	notification := &WebpushNotification{
		Title:              s.Title,
		Body:               s.Body,
		Icon:               s.Icon,
		Actions:            s.Actions,
		Badge:              s.Badge,
		Direction:          s.Direction,
		Image:              s.Image,
		Language:           s.Language,
		Renotify:           s.Renotify,
		RequireInteraction: s.RequireInteraction,
		Silent:             s.Silent,
		Tag:                s.Tag,
		TimestampMillis:    s.TimestampMillis,
		Vibrate:            s.Vibrate,
		CustomData:         s.CustomData,
	}
	webpush := &WebpushConfig{
		Headers:      s.Headers,
		Notification: notification,
	}
	if s.Link != "" {
		webpush.FCMOptions = &WebpushFCMOptions{Link: s.Link}
	}
	return &Message{
		Data:      s.Data,
		Webpush:   webpush,
		Token:     s.Token,
		Topic:     s.Topic,
		Condition: s.Condition,
	}
}
