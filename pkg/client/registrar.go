// Package client is the foreground side of the action-routing protocol: it
// resolves action declarations against the hosting application's origins and
// ships them, along with the Firebase config, over the cross-context channel
// to the background worker.
package client

import (
	"fmt"
	"log/slog"

	"github.com/tinywideclouds/go-push-actions/pkg/action"
)

// MessageSender is the sending end of the cross-context channel. The
// background worker satisfies it directly; a remote transport can stand in
// for tests or out-of-process setups.
type MessageSender interface {
	Post(env action.Envelope) error
}

// Registrar pushes configuration and action registrations from a foreground
// context into the background worker. It performs no network I/O itself.
type Registrar struct {
	sender  MessageSender
	origins action.OriginResolver
	logger  *slog.Logger
}

// NewRegistrar binds a registrar to a channel and an origin resolver.
func NewRegistrar(sender MessageSender, origins action.OriginResolver, logger *slog.Logger) *Registrar {
	return &Registrar{
		sender:  sender,
		origins: origins,
		logger:  logger.With("component", "ActionRegistrar"),
	}
}

// SendConfig validates and pushes the Firebase config. Sending it again
// after the worker has initialized is harmless; the worker ignores repeats.
func (r *Registrar) SendConfig(cfg action.FirebaseConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := r.sender.Post(action.Envelope{Type: action.TypeSetConfig, FirebaseConfig: &cfg}); err != nil {
		return fmt.Errorf("posting firebase config: %w", err)
	}
	r.logger.Debug("firebase config sent", "project_id", cfg.ProjectID)
	return nil
}

// RegisterAction resolves one action map and posts its registration.
func (r *Registrar) RegisterAction(m action.Map) error {
	env, err := m.RegistrationEnvelope(r.origins)
	if err != nil {
		return err
	}
	if err := r.sender.Post(env); err != nil {
		return fmt.Errorf("posting registration for %q: %w", m.Name, err)
	}
	r.logger.Debug("action map sent", "action", m.Name, "url", env.FullURL)
	return nil
}

// RegisterAll registers every map, logging and skipping the ones that fail:
// one bad declaration must not keep the rest from reaching the worker.
func (r *Registrar) RegisterAll(maps []action.Map) {
	for _, m := range maps {
		if err := r.RegisterAction(m); err != nil {
			r.logger.Error("failed to register action", "action", m.Name, "err", err)
		}
	}
}
