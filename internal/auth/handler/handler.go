// Package handler exposes the form-based authentication endpoints of the
// reference app and is where the risk bindings meet the framework's control
// flow: each handler invokes its lifecycle binding at the moment the
// middleware contract prescribes and applies the returned decision.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"riskgate/internal/auth/models"
	"riskgate/internal/auth/session"
	"riskgate/internal/bindings"
	"riskgate/internal/policy"
	"riskgate/internal/risk"
	"riskgate/internal/sentinel"
)

const minPasswordLength = 8

// UserStore defines the persistence interface for user data.
// Error Contract: Find methods return sentinel.ErrNotFound when no user
// matches; Save returns sentinel.ErrConflict on duplicate emails.
type UserStore interface {
	Save(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// Handler handles signup, login, password reset, and profile update for one
// authentication scope.
type Handler struct {
	users    UserStore
	sessions *session.Manager
	riskgate *bindings.Bindings
	scope    string
	logger   *slog.Logger
}

// New creates a Handler for the given scope.
func New(users UserStore, sessions *session.Manager, riskgate *bindings.Bindings, scope string, logger *slog.Logger) *Handler {
	return &Handler{
		users:    users,
		sessions: sessions,
		riskgate: riskgate,
		scope:    scope,
		logger:   logger,
	}
}

// Register registers the auth routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/signup", h.HandleSignup)
	r.Post("/login", h.HandleLogin)
	r.Post("/logout", h.HandleLogout)
	r.Post("/password", h.HandlePasswordResetRequest)
	r.Post("/profile", h.HandleProfileUpdate)
}

// HandleSignup implements POST /signup. The registration is screened before
// it executes; a blocked attempt never creates an account and sees only a
// generic message.
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	email := h.formValue(r, "email")
	password := h.formValue(r, "password")
	name := h.formValue(r, "name")

	if email == "" || len(password) < minPasswordLength {
		setAlert(w, "Email and a password of at least 8 characters are required.")
		h.redirect(w, r, "/signup")
		return
	}

	decision, err := h.riskgate.BeforeRegistration(r, h.scope)
	if err != nil {
		h.internalError(w, r, "registration screening", err)
		return
	}
	if decision.Blocks() {
		setAlert(w, decision.Reason)
		h.redirect(w, r, "/login")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		h.internalError(w, r, "hash password", err)
		return
	}

	u := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.users.Save(r.Context(), u); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			setAlert(w, "Email is already taken.")
			h.redirect(w, r, "/signup")
			return
		}
		h.internalError(w, r, "save user", err)
		return
	}

	if err := h.sessions.Issue(w, h.scope, u.ID); err != nil {
		h.internalError(w, r, "issue session", err)
		return
	}
	setNotice(w, "Welcome! You have signed up successfully.")
	h.redirect(w, r, "/")
}

// HandleLogin implements POST /login. Risk is assessed after credential
// verification succeeds and before the session cookie is issued; a deny
// leaves the user indistinguishable from a failed password attempt.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	email := h.formValue(r, "email")
	password := h.formValue(r, "password")

	u, err := h.users.FindByEmail(r.Context(), email)
	if err != nil || bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		h.riskgate.AfterLoginFailure(r, h.scope, true)
		setAlert(w, bindings.MsgLoginFailed)
		h.redirect(w, r, "/login")
		return
	}

	decision, err := h.riskgate.AfterLogin(w, r, h.scope, models.NewPrincipal(u))
	if err != nil {
		h.internalError(w, r, "login risk assessment", err)
		return
	}
	if decision.Kind == policy.KindTerminateSession {
		// high account-takeover risk: pretend the credentials were wrong
		setAlert(w, bindings.MsgLoginFailed)
		h.redirect(w, r, "/login")
		return
	}

	if err := h.sessions.Issue(w, h.scope, u.ID); err != nil {
		h.internalError(w, r, "issue session", err)
		return
	}
	if risk.ChallengeRequested(r.Context()) {
		// extension point: a step-up (MFA) flow would branch here
		w.Header().Set("X-Risk-Challenge", "true")
	}
	setNotice(w, "Signed in successfully.")
	h.redirect(w, r, "/")
}

// HandleLogout implements POST /logout.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w, h.scope)
	setNotice(w, "Signed out.")
	h.redirect(w, r, "/login")
}

// HandlePasswordResetRequest implements POST /password. The outcome is
// audited whatever it was, and the response never reveals whether the
// account exists.
func (h *Handler) HandlePasswordResetRequest(w http.ResponseWriter, r *http.Request) {
	email := h.formValue(r, "email")

	var principal risk.Principal
	u, err := h.users.FindByEmail(r.Context(), email)
	persisted := err == nil
	if persisted {
		principal = models.NewPrincipal(u)
		// a real app would deliver the reset link here
	}

	h.riskgate.AfterPasswordResetRequest(r, h.scope, principal, persisted)

	setNotice(w, "If your email address exists in our database, you will receive a password recovery link shortly.")
	h.redirect(w, r, "/login")
}

// HandleProfileUpdate implements POST /profile. Risk is assessed before the
// mutation; a deny terminates the session and skips the mutation and its
// audit entirely. Otherwise the attempt is audited with its actual outcome.
func (h *Handler) HandleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	userID, err := h.sessions.Authenticate(r, h.scope)
	if err != nil {
		setAlert(w, "You need to sign in before continuing.")
		h.redirect(w, r, "/login")
		return
	}
	u, err := h.users.FindByID(r.Context(), userID)
	if err != nil {
		h.sessions.Clear(w, h.scope)
		setAlert(w, "You need to sign in before continuing.")
		h.redirect(w, r, "/login")
		return
	}

	decision, rc, err := h.riskgate.BeforeProfileUpdate(w, r, h.scope, models.NewPrincipal(u))
	if err != nil {
		h.internalError(w, r, "profile update risk assessment", err)
		return
	}
	if decision.Kind == policy.KindTerminateSession {
		setAlert(w, "Your session has expired. Please sign in again.")
		h.redirect(w, r, "/login")
		return
	}

	succeeded := h.applyProfileUpdate(r, u)
	h.riskgate.AfterProfileUpdate(r.Context(), rc, succeeded)

	if !succeeded {
		setAlert(w, "Profile could not be updated.")
		h.redirect(w, r, "/profile")
		return
	}
	setNotice(w, "Profile updated.")
	h.redirect(w, r, "/")
}

// applyProfileUpdate mutates the user from the submitted fields and reports
// whether the update was valid and saved.
func (h *Handler) applyProfileUpdate(r *http.Request, u *models.User) bool {
	if name := h.formValue(r, "name"); name != "" {
		u.Name = name
	}
	if email := h.formValue(r, "email"); email != "" {
		u.Email = email
	}
	if password := h.formValue(r, "password"); password != "" {
		if len(password) < minPasswordLength {
			return false
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return false
		}
		u.PasswordHash = hash
	}

	if err := h.users.Save(r.Context(), u); err != nil {
		h.logger.WarnContext(r.Context(), "profile update rejected",
			"user_id", u.ID.String(),
			"error", err,
		)
		return false
	}
	return true
}

// formValue reads a scope-namespaced form field, e.g. "user[email]".
func (h *Handler) formValue(r *http.Request, field string) string {
	return r.PostFormValue(h.scope + "[" + field + "]")
}

func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.ErrorContext(r.Context(), op+" failed", "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
