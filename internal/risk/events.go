package risk

// Event identifies an authentication lifecycle event on the scoring wire.
// The sigil prefix is part of the wire vocabulary and must be sent as-is.
type Event string

const (
	EventLogin                  Event = "$login"
	EventRegistration           Event = "$registration"
	EventProfileUpdate          Event = "$profile_update"
	EventPasswordResetRequested Event = "$password_reset_requested"
)

// Status tags the outcome of the event being reported.
// Risk calls always carry StatusSucceeded or StatusAttempted: they gate an
// action whose definitive outcome is not known yet. Log calls carry the
// actual outcome. Filter calls omit the status except on failure paths.
type Status string

const (
	StatusSucceeded Status = "$succeeded"
	StatusFailed    Status = "$failed"
	StatusAttempted Status = "$attempted"
)

// Operation names the scoring API method a payload is destined for.
// Hooks receive it so one hook can instrument all three operations.
type Operation string

const (
	OpFilter Operation = "filter"
	OpRisk   Operation = "risk"
	OpLog    Operation = "log"
)
