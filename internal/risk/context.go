package risk

import (
	"net/http"
	"time"
)

// RequestTokenField is the reserved form field carrying the anti-fraud token
// generated by the embedded browser script.
const RequestTokenField = "riskgate_request_token"

// SessionTerminator invalidates the framework session for a scope and aborts
// the in-flight authentication pipeline. The auth session layer implements it.
type SessionTerminator interface {
	Terminate(w http.ResponseWriter, r *http.Request, scope string)
}

// Context is an immutable per-request snapshot of the inbound request, the
// acting principal (if resolved), and the authentication scope. It is built
// fresh at the start of each lifecycle moment, discarded with the request,
// and never persisted. It never mutates the underlying request or principal.
type Context struct {
	req        *http.Request
	scope      string
	principal  Principal
	terminator SessionTerminator

	// lazily derived, cached per instance
	token      string
	tokenDone  bool
	email      string
	emailDone  bool
}

// ContextOption configures a Context at construction time.
type ContextOption func(*Context)

// WithTerminator wires the session terminator used by TerminateSession.
// Without it, TerminateSession only tags the request-scoped store.
func WithTerminator(t SessionTerminator) ContextOption {
	return func(c *Context) {
		c.terminator = t
	}
}

// NewContext snapshots the request for one lifecycle moment. principal may be
// nil (e.g. a failed login before identity resolution).
func NewContext(r *http.Request, scope string, principal Principal, opts ...ContextOption) *Context {
	c := &Context{req: r, scope: scope, principal: principal}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Request returns the raw inbound request. Read-only by contract.
func (c *Context) Request() *http.Request { return c.req }

// Scope returns the authentication realm this event concerns ("user",
// "admin", ...). May be empty.
func (c *Context) Scope() string { return c.scope }

// Principal returns the acting user entity, or nil if not resolved.
func (c *Context) Principal() Principal { return c.principal }

// RequestToken returns the client-supplied anti-fraud token from the
// submitted form, or "" if absent.
func (c *Context) RequestToken() string {
	if !c.tokenDone {
		c.token = c.req.PostFormValue(RequestTokenField)
		c.tokenDone = true
	}
	return c.token
}

// Email returns the principal's email when a principal is present. Otherwise
// it falls back to the scope-namespaced email form field (e.g. "user[email]"),
// which is how failed logins still report the submitted address.
func (c *Context) Email() string {
	if c.principal != nil {
		return c.principal.Email()
	}
	if !c.emailDone {
		if c.scope != "" {
			c.email = c.req.PostFormValue(c.scope + "[email]")
		}
		c.emailDone = true
	}
	return c.email
}

// PrincipalID returns the principal's scoring identifier, or "" without one.
func (c *Context) PrincipalID() string {
	if c.principal == nil {
		return ""
	}
	return c.principal.PrincipalID()
}

// DisplayName returns the principal's human-readable name, or "".
func (c *Context) DisplayName() string {
	if c.principal == nil {
		return ""
	}
	return c.principal.DisplayName()
}

// Traits returns the principal's additional traits. Never nil.
func (c *Context) Traits() map[string]any {
	if c.principal == nil {
		return map[string]any{}
	}
	if t := c.principal.Traits(); t != nil {
		return t
	}
	return map[string]any{}
}

// RegisteredAt returns the principal's registration time, or the zero time.
func (c *Context) RegisteredAt() time.Time {
	if c.principal == nil {
		return time.Time{}
	}
	return c.principal.RegisteredAt()
}

// TerminateSession invalidates the current session for this scope and tags
// the request-scoped store so the authentication-failure path does not score
// this termination as a user-caused login failure. Any enforcement-triggered
// termination must carry this tag: both routes pass through the same
// low-level failure notification, and scoring it twice would loop.
func (c *Context) TerminateSession(w http.ResponseWriter) {
	StoreFrom(c.req.Context()).MarkEnforcementTermination()
	if c.terminator != nil {
		c.terminator.Terminate(w, c.req, c.scope)
	}
}
