package risk

import "time"

// Principal is the acting user entity a lifecycle event concerns. The auth
// model implements it; every method is read-only.
//
// DisplayName may return "" when the model has no human-readable name; the
// payload builders then omit the name field. Traits carries additional
// attributes shown on the scoring dashboard and may be nil.
type Principal interface {
	PrincipalID() string
	Email() string
	DisplayName() string
	Traits() map[string]any
	RegisteredAt() time.Time
}
