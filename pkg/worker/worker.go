// Package worker implements the background execution context: it owns the
// action registry, consumes the cross-context channel, renders incoming push
// deliveries and resolves notification clicks into exactly one of an
// authenticated POST or a window-open request.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/tinywideclouds/go-push-actions/pkg/action"
)

// DefaultAPIPathMarker is the path segment identifying the hosting
// application's API namespace. A descriptor URL containing it is dispatched
// as an API action; anything else is a navigation action.
const DefaultAPIPathMarker = "/_/api"

const defaultTitle = "New Message"

// ChannelMessageError reports a malformed cross-context message. It is
// caught at the channel boundary, logged, and the message dropped; it never
// terminates the worker's event loop.
type ChannelMessageError struct {
	Reason string
}

func (e *ChannelMessageError) Error() string {
	return "channel message error: " + e.Reason
}

// Event is one unit of work for the worker's single event queue.
type Event interface {
	isEvent()
}

// ChannelMessage carries one raw wire envelope from a foreground context.
// The channel is same-origin and trusted; the payload is still validated
// before any field access.
type ChannelMessage struct {
	Payload []byte
}

// ClickEvent is the host platform's report of a user interacting with a
// rendered notification, either an action button or the notification body.
type ClickEvent struct {
	Action         string
	MessageID      string
	SenderID       string
	NotificationID string
}

// PushDelivery is the payload handed to the background context by the push
// subsystem when a message arrives while no page is in the foreground.
type PushDelivery struct {
	Data         map[string]string
	Notification map[string]any
}

func (ChannelMessage) isEvent() {}
func (ClickEvent) isEvent()     {}
func (PushDelivery) isEvent()   {}

// Platform is the host environment the worker produces effects through:
// showing and dismissing notifications and opening or focusing windows.
type Platform interface {
	ShowNotification(ctx context.Context, title string, options map[string]any) error
	OpenWindow(ctx context.Context, url string) error
	CloseNotification(ctx context.Context, id string) error
}

// Config carries the worker's construction parameters.
type Config struct {
	// Origin is the background context's own origin, used to resolve
	// relative navigation URLs.
	Origin string
	// APIPathMarker overrides DefaultAPIPathMarker when set.
	APIPathMarker string
	// InitMessaging initializes the underlying push subsystem the first
	// time a config push arrives. Optional; repeat pushes are no-ops.
	InitMessaging func(action.FirebaseConfig) error
	// HTTPClient issues the API-action POSTs. Defaults to a plain client.
	HTTPClient *http.Client
	// QueueSize bounds the event queue. Defaults to 64.
	QueueSize int
}

// Worker is the background context. One goroutine runs the event loop; all
// state (the registry, the init guard) is confined to that goroutine.
type Worker struct {
	registry      *Registry
	platform      Platform
	events        chan Event
	done          chan struct{}
	httpClient    *http.Client
	origin        *url.URL
	apiMarker     string
	initMessaging func(action.FirebaseConfig) error
	initialized   bool
	logger        *slog.Logger
}

// New constructs a worker with an empty registry.
func New(cfg Config, platform Platform, logger *slog.Logger) (*Worker, error) {
	if platform == nil {
		return nil, errors.New("worker: platform is required")
	}
	origin, err := url.Parse(cfg.Origin)
	if err != nil || origin.Scheme == "" || origin.Host == "" {
		return nil, fmt.Errorf("worker: invalid origin %q", cfg.Origin)
	}
	marker := cfg.APIPathMarker
	if marker == "" {
		marker = DefaultAPIPathMarker
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Worker{
		registry:      NewRegistry(),
		platform:      platform,
		events:        make(chan Event, queueSize),
		done:          make(chan struct{}),
		httpClient:    httpClient,
		origin:        origin,
		apiMarker:     marker,
		initMessaging: cfg.InitMessaging,
		logger:        logger.With("component", "ActionWorker"),
	}, nil
}

// Post delivers one wire envelope into the event queue. It is the receiving
// end of the cross-context channel: envelopes from a single sender are
// processed in the order they were posted.
func (w *Worker) Post(env action.Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encoding channel message: %w", err)
	}
	return w.Enqueue(ChannelMessage{Payload: payload})
}

// Enqueue hands any event (channel message, click, push delivery) to the
// event loop. It fails only once the worker has shut down.
func (w *Worker) Enqueue(evt Event) error {
	select {
	case <-w.done:
		return errors.New("worker: stopped")
	case w.events <- evt:
		return nil
	}
}

// Run processes events one at a time to completion until ctx is cancelled.
// The event in flight is finished before Run returns, which is what keeps a
// dispatch's POST or window-open alive until it settles.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)
	w.logger.Info("worker started", "origin", w.origin.String())
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker stopping")
			return
		case evt := <-w.events:
			w.handle(ctx, evt)
		}
	}
}

func (w *Worker) handle(ctx context.Context, evt Event) {
	switch e := evt.(type) {
	case ChannelMessage:
		w.handleChannelMessage(e)
	case ClickEvent:
		w.handleClick(ctx, e)
	case PushDelivery:
		w.handlePush(ctx, e)
	default:
		w.logger.Warn("dropping event of unknown type", "event", fmt.Sprintf("%T", evt))
	}
}

// handleChannelMessage decodes and validates one wire envelope. Malformed
// messages are logged and dropped so a single corrupted registration cannot
// break delivery of every other action.
func (w *Worker) handleChannelMessage(msg ChannelMessage) {
	var env action.Envelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		w.logger.Warn("dropping malformed channel message", "err", &ChannelMessageError{Reason: err.Error()})
		return
	}

	switch env.Type {
	case action.TypeSetConfig:
		w.handleSetConfig(env)
	case action.TypeRegisterAction:
		desc, err := descriptorFromEnvelope(env)
		if err != nil {
			w.logger.Warn("dropping invalid action registration", "err", err)
			return
		}
		w.registry.Upsert(desc)
		w.logger.Debug("action registered", "action", desc.Name, "url", desc.URL)
	default:
		w.logger.Warn("dropping channel message", "err", &ChannelMessageError{
			Reason: fmt.Sprintf("unknown message type %q", env.Type),
		})
	}
}

// handleSetConfig initializes the push subsystem exactly once. Config pushes
// arrive once per page load, so repeats are the normal case, not an error.
func (w *Worker) handleSetConfig(env action.Envelope) {
	if env.FirebaseConfig == nil {
		w.logger.Warn("dropping config push", "err", &ChannelMessageError{Reason: "missing firebaseConfig"})
		return
	}
	if err := env.FirebaseConfig.Validate(); err != nil {
		w.logger.Warn("dropping config push", "err", &ChannelMessageError{Reason: err.Error()})
		return
	}
	if w.initialized {
		w.logger.Debug("push subsystem already initialized, ignoring config push")
		return
	}
	if w.initMessaging != nil {
		if err := w.initMessaging(*env.FirebaseConfig); err != nil {
			w.logger.Error("push subsystem initialization failed", "err", err)
			return
		}
	}
	w.initialized = true
	w.logger.Info("push subsystem initialized", "project_id", env.FirebaseConfig.ProjectID)
}

// handlePush renders one incoming background delivery. Title falls back from
// the data payload to the notification payload to a fixed default; the
// displayed options are the union of both payloads with data winning.
func (w *Worker) handlePush(ctx context.Context, evt PushDelivery) {
	title := evt.Data["title"]
	if title == "" {
		if t, ok := evt.Notification["title"].(string); ok {
			title = t
		}
	}
	if title == "" {
		title = defaultTitle
	}

	options := make(map[string]any, len(evt.Notification)+len(evt.Data))
	for key, value := range evt.Notification {
		options[key] = value
	}
	for key, value := range evt.Data {
		options[key] = value
	}
	delete(options, "title")

	if err := w.platform.ShowNotification(ctx, title, options); err != nil {
		w.logger.Error("failed to show notification", "title", title, "err", err)
	}
}

func descriptorFromEnvelope(env action.Envelope) (action.Descriptor, error) {
	if env.ActionName == "" {
		return action.Descriptor{}, &ChannelMessageError{Reason: "registration missing actionName"}
	}
	if env.FullURL == "" {
		return action.Descriptor{}, &ChannelMessageError{Reason: fmt.Sprintf("registration for %q missing fullUrl", env.ActionName)}
	}
	return action.Descriptor{
		Name:      env.ActionName,
		URL:       env.FullURL,
		Params:    env.Params,
		Body:      env.Data,
		AuthToken: env.AuthKey,
	}, nil
}
