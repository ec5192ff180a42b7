package action

// Message kinds carried foreground -> background over the cross-context
// channel. The channel is one-way and ordered per sender.
const (
	TypeSetConfig      = "SET_FIREBASE_CONFIG"
	TypeRegisterAction = "ADD_ACTION_MAP"
)

// Envelope is the tagged union for the two wire-message kinds. Exactly one
// payload group is populated, selected by Type; receivers must validate the
// envelope before touching payload fields.
type Envelope struct {
	Type string `json:"type"`

	// TypeSetConfig payload.
	FirebaseConfig *FirebaseConfig `json:"firebaseConfig,omitempty"`

	// TypeRegisterAction payload.
	ActionName string            `json:"actionName,omitempty"`
	FullURL    string            `json:"fullUrl,omitempty"`
	Params     map[string]string `json:"params,omitempty"`
	Data       map[string]any    `json:"data,omitempty"`
	AuthKey    string            `json:"authKey,omitempty"`
}
