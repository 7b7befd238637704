package risk

// PolicyAction is the scoring service's recommended action for an event.
type PolicyAction string

const (
	ActionAllow     PolicyAction = "allow"
	ActionChallenge PolicyAction = "challenge"
	ActionDeny      PolicyAction = "deny"
)

// Policy is the policy block of a scoring response. ID, RevisionID and Name
// identify the matched policy on the scoring service's side and are
// pass-through diagnostics.
type Policy struct {
	Action     string `json:"action"`
	ID         string `json:"id,omitempty"`
	RevisionID string `json:"revision_id,omitempty"`
	Name       string `json:"name,omitempty"`
}

// Verdict is a scoring API response. Risk, Signals and Metadata are opaque
// diagnostic data: the core never interprets them beyond stashing them for
// the surrounding application. A Verdict lives for one request cycle and is
// never persisted.
type Verdict struct {
	Policy   Policy         `json:"policy"`
	Risk     float64        `json:"risk,omitempty"`
	Signals  map[string]any `json:"signals,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Action returns the policy action, mapping unrecognized or absent actions to
// ActionAllow so that new upstream actions never block authentication.
func (v *Verdict) Action() PolicyAction {
	if v == nil {
		return ActionAllow
	}
	switch PolicyAction(v.Policy.Action) {
	case ActionChallenge:
		return ActionChallenge
	case ActionDeny:
		return ActionDeny
	default:
		return ActionAllow
	}
}
