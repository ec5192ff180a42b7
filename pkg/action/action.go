// Package action defines the vocabulary shared between the foreground and
// background contexts: action descriptors, the Firebase web config, and the
// wire protocol carried over the cross-context channel.
package action

import (
	"fmt"
	"strings"
)

// ConfigurationError reports a missing required field in an action or config
// declaration. It is fatal to the single call that raised it and is never
// silently defaulted.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// Descriptor is a fully resolved action held in the background registry.
// URL is always absolute; Params become query-string pairs and Body is merged
// into the POST body when the action is dispatched as an API call.
type Descriptor struct {
	Name      string
	URL       string
	Params    map[string]string
	Body      map[string]any
	AuthToken string
}

// FirebaseConfig is the web app configuration pushed to the background
// context before the push subsystem is initialized. Field names follow the
// Firebase JS casing on the wire.
type FirebaseConfig struct {
	APIKey            string `json:"apiKey"`
	AuthDomain        string `json:"authDomain"`
	ProjectID         string `json:"projectId"`
	StorageBucket     string `json:"storageBucket"`
	MessagingSenderID string `json:"messagingSenderId"`
	AppID             string `json:"appId"`
	MeasurementID     string `json:"measurementId,omitempty"`
}

// Validate checks the required fields. MeasurementID is optional.
func (c FirebaseConfig) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"apiKey", c.APIKey},
		{"authDomain", c.AuthDomain},
		{"projectId", c.ProjectID},
		{"storageBucket", c.StorageBucket},
		{"messagingSenderId", c.MessagingSenderID},
		{"appId", c.AppID},
	}
	for _, field := range required {
		if field.value == "" {
			return &ConfigurationError{Reason: field.name + " is required"}
		}
	}
	return nil
}

// OriginResolver supplies the hosting application's origins. It is an
// external collaborator: the application framework knows where its API and
// its static pages live.
type OriginResolver interface {
	// APIOrigin returns the origin serving the application's API namespace.
	APIOrigin() string
	// AppOrigin returns the origin serving the application's pages.
	AppOrigin() string
}

// Map is a foreground-side action declaration: a name bound to either an
// application endpoint or an explicit full URL, plus the request material the
// background context needs at click time.
type Map struct {
	Name          string
	Endpoint      string
	FullURL       string
	Params        map[string]string
	Body          map[string]any
	AuthKey       string
	IsAPIEndpoint bool
}

// ResolveURL returns the absolute URL for the action. An explicit FullURL
// always wins. An Endpoint that already carries a scheme is returned
// unchanged; otherwise it is joined to the API origin or the app origin
// depending on IsAPIEndpoint.
func (m Map) ResolveURL(origins OriginResolver) (string, error) {
	if m.FullURL != "" {
		return m.FullURL, nil
	}
	if m.Endpoint == "" {
		return "", &ConfigurationError{
			Reason: fmt.Sprintf("action %q needs an endpoint or a full URL", m.Name),
		}
	}
	if strings.HasPrefix(m.Endpoint, "http://") || strings.HasPrefix(m.Endpoint, "https://") {
		return m.Endpoint, nil
	}
	base := origins.AppOrigin()
	if m.IsAPIEndpoint {
		base = origins.APIOrigin()
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(m.Endpoint, "/"), nil
}

// RegistrationEnvelope resolves the action's URL and serializes the map into
// the wire message the background context consumes. It is a pure transform;
// the caller is responsible for transmission.
func (m Map) RegistrationEnvelope(origins OriginResolver) (Envelope, error) {
	if m.Name == "" {
		return Envelope{}, &ConfigurationError{Reason: "action name is required"}
	}
	resolved, err := m.ResolveURL(origins)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		Type:       TypeRegisterAction,
		ActionName: m.Name,
		FullURL:    resolved,
		Params:     m.Params,
		Data:       m.Body,
		AuthKey:    m.AuthKey,
	}, nil
}
