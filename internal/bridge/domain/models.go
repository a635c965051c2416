package domain

// CallRequest is one inbound call-initiation request. Created per HTTP
// request, consumed once, never persisted.
type CallRequest struct {
	ClientName  string
	PhoneNumber string
	UserType    string
}

// DefaultUserType is assumed when the caller does not supply one.
const DefaultUserType = "non-VIP"

// SessionConfig is the payload describing one hosted voice-agent session.
// Built fresh per call and sent once to the voice provider.
type SessionConfig struct {
	ScriptText   string
	Model        string
	Voice        string
	Temperature  float64
	FirstSpeaker string
	Tools        []ToolDeclaration
}

// ToolDeclaration describes one capability the voice agent may invoke
// mid-call. Exactly one of CallbackURL (this service) or PassThroughURL
// (a third party the provider calls directly) is set.
type ToolDeclaration struct {
	Name           string
	Description    string
	Parameters     []ToolParameter
	CallbackURL    string
	PassThroughURL string
	Method         string
	// Headers are sent by the voice provider on every tool invocation,
	// e.g. the callback bearer token.
	Headers map[string]string
}

// ToolParameter is one named parameter in a tool's schema.
type ToolParameter struct {
	Name        string
	Type        string
	Description string
	Required    bool
}

// VoiceSession is the provider-side session a telephony call bridges into.
type VoiceSession struct {
	ID      string
	JoinURL string
}

// CrmContact is a CRM record looked up (or created) by phone number.
// Tags are additive; there is no removal path.
type CrmContact struct {
	ID    string
	Phone string
	Tags  []string
}
