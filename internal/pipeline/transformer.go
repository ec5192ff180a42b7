// Package pipeline contains the core message processing components for the
// send side: it turns raw Pub/Sub payloads into validated send requests and
// hands them to the sender.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"

	"github.com/tinywideclouds/go-push-actions/pkg/fcm"
)

// SendRequest is the payload published to the ingestion topic. Exactly one
// of Message and Multicast is set.
type SendRequest struct {
	Message   *fcm.Message          `json:"message,omitempty"`
	Multicast *fcm.MulticastMessage `json:"multicast,omitempty"`
	DryRun    bool                  `json:"dry_run,omitempty"`
}

// SendRequestTransformer is a dataflow Transformer that safely unmarshals a
// raw payload into a SendRequest. Malformed payloads are skipped so the
// StreamingService can route them to the DLQ instead of looping on them.
func SendRequestTransformer(
	_ context.Context,
	msg *messagepipeline.Message,
) (*SendRequest, bool, error) {
	var req SendRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return nil, true, fmt.Errorf("failed to unmarshal send request from message %s: %w", msg.ID, err)
	}
	if req.Message == nil && req.Multicast == nil {
		return nil, true, fmt.Errorf("send request %s names neither a message nor a multicast", msg.ID)
	}
	if req.Message != nil && req.Multicast != nil {
		return nil, true, fmt.Errorf("send request %s names both a message and a multicast", msg.ID)
	}
	return &req, false, nil
}
