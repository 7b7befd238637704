package bindings

// Hooks is the per-authentication-model table of lifecycle moments this
// middleware participates in. It is set at model-definition time and read on
// every lifecycle event, before any request context is built.
type Hooks struct {
	BeforeRegistration        bool
	AfterLogin                bool
	AfterPasswordResetRequest bool
	ProfileUpdate             bool
}

// AllEnabled is the default hook table for a scope that opts in.
func AllEnabled() Hooks {
	return Hooks{
		BeforeRegistration:        true,
		AfterLogin:                true,
		AfterPasswordResetRequest: true,
		ProfileUpdate:             true,
	}
}

// HookConfig maps an authentication scope ("user", "admin", ...) to its hook
// table. Scopes absent from the map did not opt in: all hooks disabled.
type HookConfig map[string]Hooks

// For returns the hook table for a scope, zero-valued for unknown scopes.
func (c HookConfig) For(scope string) Hooks {
	return c[scope]
}
