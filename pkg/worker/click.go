package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// handleClick resolves one notification click. The worker consumes the event
// outright, so the host's default click handling never runs. Whatever
// happens in between, the notification is dismissed as the terminal step.
func (w *Worker) handleClick(ctx context.Context, evt ClickEvent) {
	defer func() {
		if err := w.platform.CloseNotification(ctx, evt.NotificationID); err != nil {
			w.logger.Warn("failed to close notification", "notification_id", evt.NotificationID, "err", err)
		}
	}()

	desc, found := w.registry.Lookup(evt.Action)
	if !found {
		// Stale notifications can reference actions registered by a page
		// that has since reloaded.
		w.logger.Info("no action registered for click", "action", evt.Action)
		return
	}

	if strings.Contains(desc.URL, w.apiMarker) {
		w.postAction(ctx, desc.Name, desc.URL, desc.Params, desc.Body, desc.AuthToken, evt)
		return
	}
	w.openWindow(ctx, desc.Name, desc.URL)
}

// postAction issues the single POST for an API-classified action. Failures
// are logged and never retried: there is no user-facing surface left to
// report to once the notification is gone.
func (w *Worker) postAction(ctx context.Context, name, rawURL string, params map[string]string, body map[string]any, authToken string, evt ClickEvent) {
	target, err := url.Parse(rawURL)
	if err != nil {
		w.logger.Error("action URL unparseable", "action", name, "url", rawURL, "err", err)
		return
	}

	if len(params) > 0 {
		query := target.Query()
		keys := make([]string, 0, len(params))
		for key := range params {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			query.Set(key, params[key])
		}
		target.RawQuery = query.Encode()
	}

	payload := make(map[string]any, len(body)+2)
	for key, value := range body {
		payload[key] = value
	}
	// The injected identifiers win on collision so every API call stays
	// traceable to the message that produced it.
	payload["fcmMessageId"] = evt.MessageID
	payload["from"] = evt.SenderID

	encoded, err := json.Marshal(payload)
	if err != nil {
		w.logger.Error("action body unserializable", "action", name, "err", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), bytes.NewReader(encoded))
	if err != nil {
		w.logger.Error("building action request failed", "action", name, "err", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		w.logger.Error("action POST failed", "action", name, "url", target.String(), "err", err)
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		w.logger.Warn("action POST rejected", "action", name, "status", resp.StatusCode)
		return
	}
	w.logger.Debug("action POST delivered", "action", name, "status", resp.StatusCode)
}

// openWindow requests one window-open for a navigation-classified action,
// resolving relative URLs against the worker's own origin.
func (w *Worker) openWindow(ctx context.Context, name, rawURL string) {
	target, err := url.Parse(rawURL)
	if err != nil {
		w.logger.Error("action URL unparseable", "action", name, "url", rawURL, "err", err)
		return
	}
	resolved := w.origin.ResolveReference(target)
	if err := w.platform.OpenWindow(ctx, resolved.String()); err != nil {
		w.logger.Error("window open failed", "action", name, "url", resolved.String(), "err", err)
		return
	}
	w.logger.Debug("window opened", "action", name, "url", resolved.String())
}
