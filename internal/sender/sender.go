// Package sender wraps the Firebase Admin messaging client: it validates and
// compiles public message envelopes, performs the provider calls, and
// normalizes every per-recipient outcome into the response model.
package sender

import (
	"context"
	"fmt"
	"log/slog"

	"firebase.google.com/go/v4/messaging"

	"github.com/tinywideclouds/go-push-actions/pkg/fcm"
)

// MessagingClient defines the subset of the Firebase Messaging API we use.
// This interface allows us to mock the client for unit testing; the concrete
// *messaging.Client satisfies it as-is.
type MessagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
	SendDryRun(ctx context.Context, message *messaging.Message) (string, error)
	SendEach(ctx context.Context, messages []*messaging.Message) (*messaging.BatchResponse, error)
	SendEachDryRun(ctx context.Context, messages []*messaging.Message) (*messaging.BatchResponse, error)
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
	SendEachForMulticastDryRun(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
	SubscribeToTopic(ctx context.Context, tokens []string, topic string) (*messaging.TopicManagementResponse, error)
	UnsubscribeFromTopic(ctx context.Context, tokens []string, topic string) (*messaging.TopicManagementResponse, error)
}

type Sender struct {
	client MessagingClient
	logger *slog.Logger
}

func NewSender(client MessagingClient, logger *slog.Logger) *Sender {
	return &Sender{
		client: client,
		logger: logger.With("component", "FCMSender"),
	}
}

// Send delivers one message. Provider failures are normalized into the
// returned SendResult; the error return is reserved for validation.
func (s *Sender) Send(ctx context.Context, msg *fcm.Message, dryRun bool) (fcm.SendResult, error) {
	if err := msg.Validate(); err != nil {
		return fcm.SendResult{}, err
	}

	compiled := compileMessage(msg)
	var id string
	var err error
	if dryRun {
		id, err = s.client.SendDryRun(ctx, compiled)
	} else {
		id, err = s.client.Send(ctx, compiled)
	}

	result := fcm.ResultFromSend(id, err)
	if result.Success {
		s.logger.Info("message sent", "message_id", result.MessageID, "dry_run", dryRun)
	} else {
		s.logger.Warn("message send failed", "error_kind", result.ErrorKind, "detail", result.ErrorDetail)
	}
	return result, nil
}

// SendAll delivers a batch of messages in one provider call. The returned
// BatchResult is positionally aligned with the input; one failed message
// never aborts its siblings.
func (s *Sender) SendAll(ctx context.Context, msgs []*fcm.Message, dryRun bool) (fcm.BatchResult, error) {
	if len(msgs) == 0 {
		return fcm.BatchResult{}, &fcm.ValidationError{Field: "messages", Reason: "at least one message is required"}
	}
	compiled := make([]*messaging.Message, 0, len(msgs))
	for i, msg := range msgs {
		if err := msg.Validate(); err != nil {
			return fcm.BatchResult{}, fmt.Errorf("message %d: %w", i, err)
		}
		compiled = append(compiled, compileMessage(msg))
	}

	var br *messaging.BatchResponse
	var err error
	if dryRun {
		br, err = s.client.SendEachDryRun(ctx, compiled)
	} else {
		br, err = s.client.SendEach(ctx, compiled)
	}
	if err != nil {
		return fcm.BatchResult{}, fmt.Errorf("fcm batch send failed: %w", err)
	}

	result := fcm.BatchResultFromResponse(br)
	s.logger.Info("batch sent", "success", result.SuccessCount, "failure", result.FailureCount, "dry_run", dryRun)
	return result, nil
}

// SendMulticast fans one message out to up to MaxMulticastTokens recipients.
// Batch bounds are enforced before any network call.
func (s *Sender) SendMulticast(ctx context.Context, msg *fcm.MulticastMessage, dryRun bool) (fcm.BatchResult, error) {
	if err := msg.Validate(); err != nil {
		return fcm.BatchResult{}, err
	}

	compiled := compileMulticast(msg)
	var br *messaging.BatchResponse
	var err error
	if dryRun {
		br, err = s.client.SendEachForMulticastDryRun(ctx, compiled)
	} else {
		br, err = s.client.SendEachForMulticast(ctx, compiled)
	}
	if err != nil {
		return fcm.BatchResult{}, fmt.Errorf("fcm multicast send failed: %w", err)
	}

	result := fcm.BatchResultFromResponse(br)
	s.logger.Info("multicast sent",
		"recipients", len(msg.Tokens),
		"success", result.SuccessCount,
		"failure", result.FailureCount,
		"dry_run", dryRun,
	)
	return result, nil
}

// SubscribeToTopic subscribes the tokens to a topic.
func (s *Sender) SubscribeToTopic(ctx context.Context, topic string, tokens []string) (fcm.TopicResult, error) {
	if topic == "" {
		return fcm.TopicResult{}, &fcm.ValidationError{Field: "topic", Reason: "topic is required"}
	}
	if len(tokens) == 0 {
		return fcm.TopicResult{}, &fcm.ValidationError{Field: "tokens", Reason: "at least one token is required"}
	}
	tr, err := s.client.SubscribeToTopic(ctx, tokens, topic)
	if err != nil {
		return fcm.TopicResult{}, fmt.Errorf("fcm topic subscribe failed: %w", err)
	}
	result := fcm.TopicResultFromResponse(tr)
	s.logger.Info("topic subscription complete", "topic", topic, "success", result.SuccessCount, "failure", result.FailureCount)
	return result, nil
}

// UnsubscribeFromTopic removes the tokens from a topic.
func (s *Sender) UnsubscribeFromTopic(ctx context.Context, topic string, tokens []string) (fcm.TopicResult, error) {
	if topic == "" {
		return fcm.TopicResult{}, &fcm.ValidationError{Field: "topic", Reason: "topic is required"}
	}
	if len(tokens) == 0 {
		return fcm.TopicResult{}, &fcm.ValidationError{Field: "tokens", Reason: "at least one token is required"}
	}
	tr, err := s.client.UnsubscribeFromTopic(ctx, tokens, topic)
	if err != nil {
		return fcm.TopicResult{}, fmt.Errorf("fcm topic unsubscribe failed: %w", err)
	}
	result := fcm.TopicResultFromResponse(tr)
	s.logger.Info("topic unsubscription complete", "topic", topic, "success", result.SuccessCount, "failure", result.FailureCount)
	return result, nil
}
