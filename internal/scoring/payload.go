package scoring

import (
	"net/http"
	"strings"
	"time"

	"github.com/mssola/useragent"

	"riskgate/internal/risk"
)

// registeredAtLayout is UTC ISO-8601 with exactly millisecond precision, the
// only time format the scoring API accepts for user.registered_at.
const registeredAtLayout = "2006-01-02T15:04:05.000Z"

// UserPayload is the user block of a scoring payload. Absent optional fields
// are omitted rather than sent as null or empty.
type UserPayload struct {
	ID           string         `json:"id,omitempty"`
	Email        string         `json:"email,omitempty"`
	RegisteredAt string         `json:"registered_at,omitempty"`
	Traits       map[string]any `json:"traits,omitempty"`
	Name         string         `json:"name,omitempty"`
}

// Device is a coarse device summary derived from the User-Agent header.
type Device struct {
	Browser  string `json:"browser,omitempty"`
	OS       string `json:"os,omitempty"`
	Platform string `json:"platform,omitempty"`
}

// RequestInfo is the context block describing the inbound request. The
// legacy headers/ip/library fields are intentionally absent: the current
// endpoints reject them.
type RequestInfo struct {
	UserAgent string  `json:"user_agent,omitempty"`
	Locale    string  `json:"locale,omitempty"`
	Device    *Device `json:"device,omitempty"`
}

// Payload is the wire shape shared by the filter, risk, and log operations.
// Before-hooks may mutate it in place prior to transmission.
type Payload struct {
	Event        risk.Event  `json:"event"`
	Status       risk.Status `json:"status,omitempty"`
	User         UserPayload `json:"user"`
	RequestToken string      `json:"request_token,omitempty"`
	Context      RequestInfo `json:"context"`
}

// BuildFilterPayload builds the payload for a pre-action filter call, where
// identity is not yet confirmed: only the email (possibly form-derived) is
// reported. status is optional and only set on failure paths.
func BuildFilterPayload(event risk.Event, status risk.Status, rc *risk.Context) *Payload {
	return &Payload{
		Event:        event,
		Status:       status,
		User:         UserPayload{Email: rc.Email()},
		RequestToken: rc.RequestToken(),
		Context:      NewRequestInfo(rc.Request()),
	}
}

// BuildRiskPayload builds the payload for a synchronous risk call. An empty
// status defaults to StatusSucceeded: the authentication step succeeded and
// risk is assessed before the session is finalized. The display name is
// included only when the principal exposes one.
func BuildRiskPayload(event risk.Event, status risk.Status, rc *risk.Context) *Payload {
	if status == "" {
		status = risk.StatusSucceeded
	}
	return &Payload{
		Event:  event,
		Status: status,
		User: UserPayload{
			ID:           rc.PrincipalID(),
			Email:        rc.Email(),
			RegisteredAt: formatRegisteredAt(rc.RegisteredAt()),
			Traits:       rc.Traits(),
			Name:         rc.DisplayName(),
		},
		RequestToken: rc.RequestToken(),
		Context:      NewRequestInfo(rc.Request()),
	}
}

// BuildLogPayload builds the payload for a fire-and-forget audit call.
// registered_at and the request token are optional here, but when sent they
// must be valid, so they are only included when present.
func BuildLogPayload(event risk.Event, status risk.Status, rc *risk.Context) *Payload {
	return &Payload{
		Event:  event,
		Status: status,
		User: UserPayload{
			ID:           rc.PrincipalID(),
			Email:        rc.Email(),
			RegisteredAt: formatRegisteredAt(rc.RegisteredAt()),
			Traits:       rc.Traits(),
		},
		RequestToken: rc.RequestToken(),
		Context:      NewRequestInfo(rc.Request()),
	}
}

// NewRequestInfo derives the request context block from the raw request.
func NewRequestInfo(r *http.Request) RequestInfo {
	info := RequestInfo{
		UserAgent: r.UserAgent(),
		Locale:    r.Header.Get("Accept-Language"),
	}
	if info.UserAgent != "" {
		info.Device = deviceSummary(info.UserAgent)
	}
	return info
}

func deviceSummary(uaString string) *Device {
	ua := useragent.New(uaString)
	browser, _ := ua.Browser()

	platform := "desktop"
	if ua.Mobile() {
		platform = "mobile"
	}

	return &Device{
		Browser:  strings.ToLower(strings.TrimSpace(browser)),
		OS:       strings.ToLower(strings.TrimSpace(ua.OS())),
		Platform: platform,
	}
}

func formatRegisteredAt(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(registeredAtLayout)
}
