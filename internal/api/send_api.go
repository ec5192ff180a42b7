// Package api exposes the HTTP surface of the send side: message sends,
// multicast fan-out and topic management.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"log/slog"

	"github.com/google/uuid"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
	"github.com/tinywideclouds/go-microservice-base/pkg/response"

	"github.com/tinywideclouds/go-push-actions/pkg/fcm"
)

// MessageSender is the subset of the sender the API depends on, narrowed for
// mockability.
type MessageSender interface {
	Send(ctx context.Context, msg *fcm.Message, dryRun bool) (fcm.SendResult, error)
	SendAll(ctx context.Context, msgs []*fcm.Message, dryRun bool) (fcm.BatchResult, error)
	SendMulticast(ctx context.Context, msg *fcm.MulticastMessage, dryRun bool) (fcm.BatchResult, error)
	SubscribeToTopic(ctx context.Context, topic string, tokens []string) (fcm.TopicResult, error)
	UnsubscribeFromTopic(ctx context.Context, topic string, tokens []string) (fcm.TopicResult, error)
}

type SendAPI struct {
	Sender MessageSender
	Logger *slog.Logger
}

func NewSendAPI(sender MessageSender, logger *slog.Logger) *SendAPI {
	return &SendAPI{
		Sender: sender,
		Logger: logger,
	}
}

type SendRequest struct {
	Message *fcm.Message `json:"message"`
	DryRun  bool         `json:"dry_run,omitempty"`
}

type BatchRequest struct {
	Messages []*fcm.Message `json:"messages"`
	DryRun   bool           `json:"dry_run,omitempty"`
}

type MulticastRequest struct {
	Message *fcm.MulticastMessage `json:"message"`
	DryRun  bool                  `json:"dry_run,omitempty"`
}

type TopicRequest struct {
	Topic  string   `json:"topic"`
	Tokens []string `json:"tokens"`
}

// Send handles POST /api/v1/send.
func (api *SendAPI) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := middleware.GetUserHandleFromContext(ctx); !ok {
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	logger := api.Logger.With("request_id", uuid.NewString())

	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Message == nil {
		response.WriteJSONError(w, http.StatusBadRequest, "missing message")
		return
	}

	result, err := api.Sender.Send(ctx, req.Message, req.DryRun)
	if err != nil {
		api.writeSendError(w, logger, err)
		return
	}
	writeJSON(w, result)
}

// SendBatch handles POST /api/v1/send/batch. Unlike multicast, each message
// carries its own recipient and payload.
func (api *SendAPI) SendBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := middleware.GetUserHandleFromContext(ctx); !ok {
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	logger := api.Logger.With("request_id", uuid.NewString())

	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if len(req.Messages) == 0 {
		response.WriteJSONError(w, http.StatusBadRequest, "missing messages")
		return
	}

	result, err := api.Sender.SendAll(ctx, req.Messages, req.DryRun)
	if err != nil {
		api.writeSendError(w, logger, err)
		return
	}
	writeJSON(w, result)
}

// SendMulticast handles POST /api/v1/send/multicast.
func (api *SendAPI) SendMulticast(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := middleware.GetUserHandleFromContext(ctx); !ok {
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	logger := api.Logger.With("request_id", uuid.NewString())

	var req MulticastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Message == nil {
		response.WriteJSONError(w, http.StatusBadRequest, "missing message")
		return
	}

	result, err := api.Sender.SendMulticast(ctx, req.Message, req.DryRun)
	if err != nil {
		api.writeSendError(w, logger, err)
		return
	}
	writeJSON(w, result)
}

// SubscribeToTopic handles POST /api/v1/topics/subscribe.
func (api *SendAPI) SubscribeToTopic(w http.ResponseWriter, r *http.Request) {
	api.handleTopic(w, r, api.Sender.SubscribeToTopic)
}

// UnsubscribeFromTopic handles POST /api/v1/topics/unsubscribe.
func (api *SendAPI) UnsubscribeFromTopic(w http.ResponseWriter, r *http.Request) {
	api.handleTopic(w, r, api.Sender.UnsubscribeFromTopic)
}

func (api *SendAPI) handleTopic(w http.ResponseWriter, r *http.Request, call func(context.Context, string, []string) (fcm.TopicResult, error)) {
	ctx := r.Context()
	if _, ok := middleware.GetUserHandleFromContext(ctx); !ok {
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	logger := api.Logger.With("request_id", uuid.NewString())

	var req TopicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}

	result, err := call(ctx, req.Topic, req.Tokens)
	if err != nil {
		api.writeSendError(w, logger, err)
		return
	}
	writeJSON(w, result)
}

// writeSendError maps validation failures to 400 and everything else to 500.
func (api *SendAPI) writeSendError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var vErr *fcm.ValidationError
	if errors.As(err, &vErr) {
		logger.Warn("rejecting invalid send request", "err", err)
		response.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	logger.Error("send failed", "err", err)
	response.WriteJSONError(w, http.StatusInternalServerError, "send failed")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
