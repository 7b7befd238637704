package handler_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"riskgate/internal/auth/handler"
	"riskgate/internal/auth/models"
	"riskgate/internal/auth/session"
	"riskgate/internal/auth/store/user"
	"riskgate/internal/bindings"
	"riskgate/internal/platform/middleware"
	"riskgate/internal/policy"
	"riskgate/internal/risk"
	"riskgate/internal/sentinel"
	dErrors "riskgate/pkg/domain-errors"
)

const (
	testScope    = "user"
	testEmail    = "anna@example.com"
	testPassword = "correct-horse-battery"
)

type scoringCall struct {
	op     risk.Operation
	event  risk.Event
	status risk.Status
	email  string
}

// fakeGateway is a scripted scoring gateway: every call records itself and
// returns the configured verdict and error.
type fakeGateway struct {
	verdict *risk.Verdict
	err     error
	calls   []scoringCall
}

func (g *fakeGateway) record(op risk.Operation, event risk.Event, status risk.Status, rc *risk.Context) {
	g.calls = append(g.calls, scoringCall{op: op, event: event, status: status, email: rc.Email()})
}

func (g *fakeGateway) Filter(_ context.Context, event risk.Event, status risk.Status, rc *risk.Context) (*risk.Verdict, error) {
	g.record(risk.OpFilter, event, status, rc)
	return g.verdict, g.err
}

func (g *fakeGateway) Risk(_ context.Context, event risk.Event, status risk.Status, rc *risk.Context) (*risk.Verdict, error) {
	g.record(risk.OpRisk, event, status, rc)
	return g.verdict, g.err
}

func (g *fakeGateway) Log(_ context.Context, event risk.Event, status risk.Status, rc *risk.Context) (*risk.Verdict, error) {
	g.record(risk.OpLog, event, status, rc)
	return g.verdict, g.err
}

func verdictWith(action risk.PolicyAction) *risk.Verdict {
	return &risk.Verdict{Policy: risk.Policy{Action: string(action)}}
}

type HandlerSuite struct {
	suite.Suite

	gateway  *fakeGateway
	users    *user.MemoryStore
	sessions *session.Manager
	router   chi.Router
	seeded   *models.User
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.gateway = &fakeGateway{verdict: verdictWith(risk.ActionAllow)}
	s.configure(false, bindings.HookConfig{testScope: bindings.AllEnabled()})
}

// configure rebuilds the stack with the given enforcement mode and hooks,
// keeping the already-scripted gateway.
func (s *HandlerSuite) configure(monitoring bool, hooks bindings.HookConfig) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.users = user.NewMemoryStore()
	s.sessions = session.NewManager("handler-test-signing-key")
	s.seeded = s.seedUser(testEmail, testPassword)

	enforcer := policy.New(monitoring, policy.WithLogger(logger))
	b := bindings.New(s.gateway, enforcer, hooks,
		bindings.WithTerminator(s.sessions),
		bindings.WithLogger(logger),
	)

	r := chi.NewRouter()
	r.Use(middleware.RiskEvaluation)
	handler.New(s.users, s.sessions, b, testScope, logger).Register(r)
	s.router = r
}

func (s *HandlerSuite) seedUser(email, password string) *models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	s.Require().NoError(err)
	u := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Name:         "Anna",
		CreatedAt:    time.Now().UTC(),
	}
	s.Require().NoError(s.users.Save(context.Background(), u))
	return u
}

func (s *HandlerSuite) postForm(path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func loginForm(email, password string) url.Values {
	return url.Values{
		testScope + "[email]":    {email},
		testScope + "[password]": {password},
	}
}

// sessionCookie returns the live session cookie from a response, nil when the
// response did not establish (or explicitly cleared) the session.
func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == testScope+"_session" && c.Value != "" && c.MaxAge > 0 {
			return c
		}
	}
	return nil
}

func flash(rec *httptest.ResponseRecorder, name string) string {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			msg, err := url.QueryUnescape(c.Value)
			if err != nil {
				return ""
			}
			return msg
		}
	}
	return ""
}

func (s *HandlerSuite) TestLoginAllowedEstablishesSession() {
	rec := s.postForm("/login", loginForm(testEmail, testPassword))

	s.Equal(http.StatusSeeOther, rec.Code)
	s.Equal("/", rec.Header().Get("Location"))
	s.NotNil(sessionCookie(rec))
	s.Empty(rec.Header().Get("X-Risk-Challenge"))

	s.Require().Len(s.gateway.calls, 1)
	call := s.gateway.calls[0]
	s.Equal(risk.OpRisk, call.op)
	s.Equal(risk.EventLogin, call.event)
	s.Equal(testEmail, call.email)
}

func (s *HandlerSuite) TestLoginDeniedLooksLikeBadCredentials() {
	s.gateway.verdict = verdictWith(risk.ActionDeny)

	rec := s.postForm("/login", loginForm(testEmail, testPassword))

	s.Equal(http.StatusSeeOther, rec.Code)
	s.Equal("/login", rec.Header().Get("Location"))
	s.Nil(sessionCookie(rec))
	s.Equal(bindings.MsgLoginFailed, flash(rec, "flash_alert"))

	// the enforcement termination must not be re-scored as a user failure
	s.Require().Len(s.gateway.calls, 1)
	s.Equal(risk.OpRisk, s.gateway.calls[0].op)
}

func (s *HandlerSuite) TestLoginDeniedInMonitoringModeEstablishesSession() {
	s.gateway.verdict = verdictWith(risk.ActionDeny)
	s.configure(true, bindings.HookConfig{testScope: bindings.AllEnabled()})

	rec := s.postForm("/login", loginForm(testEmail, testPassword))

	s.Equal("/", rec.Header().Get("Location"))
	s.NotNil(sessionCookie(rec))
}

func (s *HandlerSuite) TestLoginChallengeEstablishesSessionAndFlags() {
	s.gateway.verdict = verdictWith(risk.ActionChallenge)

	rec := s.postForm("/login", loginForm(testEmail, testPassword))

	s.NotNil(sessionCookie(rec))
	s.Equal("true", rec.Header().Get("X-Risk-Challenge"))
}

func (s *HandlerSuite) TestLoginFailsOpenOnScoringOutage() {
	s.gateway.verdict = nil
	s.gateway.err = dErrors.New(dErrors.CodeServiceError, "scoring api unavailable")

	rec := s.postForm("/login", loginForm(testEmail, testPassword))

	s.Equal("/", rec.Header().Get("Location"))
	s.NotNil(sessionCookie(rec))
}

func (s *HandlerSuite) TestLoginUnknownEmailReportsFailureWithSubmittedEmail() {
	rec := s.postForm("/login", loginForm("nobody@example.com", "whatever-pass"))

	s.Equal("/login", rec.Header().Get("Location"))
	s.Nil(sessionCookie(rec))
	s.Equal(bindings.MsgLoginFailed, flash(rec, "flash_alert"))

	s.Require().Len(s.gateway.calls, 1)
	call := s.gateway.calls[0]
	s.Equal(risk.OpFilter, call.op)
	s.Equal(risk.EventLogin, call.event)
	s.Equal(risk.StatusFailed, call.status)
	s.Equal("nobody@example.com", call.email)
}

func (s *HandlerSuite) TestLoginWrongPasswordReportsFailure() {
	rec := s.postForm("/login", loginForm(testEmail, "not-the-password"))

	s.Nil(sessionCookie(rec))
	s.Require().Len(s.gateway.calls, 1)
	s.Equal(risk.OpFilter, s.gateway.calls[0].op)
	s.Equal(risk.StatusFailed, s.gateway.calls[0].status)
}

func (s *HandlerSuite) TestSignupAllowedCreatesUserAndSession() {
	form := url.Values{
		testScope + "[email]":    {"new@example.com"},
		testScope + "[password]": {"a-long-password"},
		testScope + "[name]":     {"New User"},
	}
	rec := s.postForm("/signup", form)

	s.Equal("/", rec.Header().Get("Location"))
	s.NotNil(sessionCookie(rec))

	u, err := s.users.FindByEmail(context.Background(), "new@example.com")
	s.Require().NoError(err)
	s.Equal("New User", u.Name)

	s.Require().Len(s.gateway.calls, 1)
	s.Equal(risk.OpFilter, s.gateway.calls[0].op)
	s.Equal(risk.EventRegistration, s.gateway.calls[0].event)
}

func (s *HandlerSuite) TestSignupMissingTokenRejectedWhenEnforcing() {
	s.gateway.verdict = nil
	s.gateway.err = dErrors.New(dErrors.CodeInvalidRequestToken, "invalid request token")

	form := url.Values{
		testScope + "[email]":    {"new@example.com"},
		testScope + "[password]": {"a-long-password"},
	}
	rec := s.postForm("/signup", form)

	s.Equal("/login", rec.Header().Get("Location"))
	s.Nil(sessionCookie(rec))
	s.Equal(bindings.MsgRegistrationBlocked, flash(rec, "flash_alert"))

	_, err := s.users.FindByEmail(context.Background(), "new@example.com")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *HandlerSuite) TestSignupMissingTokenProceedsWhenMonitoring() {
	s.gateway.err = dErrors.New(dErrors.CodeInvalidRequestToken, "invalid request token")
	s.configure(true, bindings.HookConfig{testScope: bindings.AllEnabled()})

	form := url.Values{
		testScope + "[email]":    {"new@example.com"},
		testScope + "[password]": {"a-long-password"},
	}
	rec := s.postForm("/signup", form)

	s.Equal("/", rec.Header().Get("Location"))
	_, err := s.users.FindByEmail(context.Background(), "new@example.com")
	s.NoError(err)
}

func (s *HandlerSuite) TestSignupDeniedShowsGenericMessage() {
	s.gateway.verdict = verdictWith(risk.ActionDeny)

	form := url.Values{
		testScope + "[email]":    {"new@example.com"},
		testScope + "[password]": {"a-long-password"},
	}
	rec := s.postForm("/signup", form)

	s.Equal(bindings.MsgRegistrationBlocked, flash(rec, "flash_alert"))
	_, err := s.users.FindByEmail(context.Background(), "new@example.com")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *HandlerSuite) TestHookErrorSurfacesAsInternalError() {
	s.gateway.err = errors.New("instrumentation hook exploded")

	form := url.Values{
		testScope + "[email]":    {"new@example.com"},
		testScope + "[password]": {"a-long-password"},
	}
	rec := s.postForm("/signup", form)

	s.Equal(http.StatusInternalServerError, rec.Code)
	_, err := s.users.FindByEmail(context.Background(), "new@example.com")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *HandlerSuite) TestDisabledHooksMakeNoScoringCalls() {
	s.configure(false, bindings.HookConfig{})

	rec := s.postForm("/login", loginForm(testEmail, testPassword))

	s.Equal("/", rec.Header().Get("Location"))
	s.NotNil(sessionCookie(rec))
	s.Empty(s.gateway.calls)
}

func (s *HandlerSuite) TestPasswordResetForExistingAccount() {
	rec := s.postForm("/password", url.Values{testScope + "[email]": {testEmail}})

	s.Equal("/login", rec.Header().Get("Location"))
	s.Require().Len(s.gateway.calls, 1)
	call := s.gateway.calls[0]
	s.Equal(risk.OpLog, call.op)
	s.Equal(risk.EventPasswordResetRequested, call.event)
	s.Equal(risk.StatusSucceeded, call.status)
	s.Equal(testEmail, call.email)
}

func (s *HandlerSuite) TestPasswordResetForUnknownAccount() {
	rec := s.postForm("/password", url.Values{testScope + "[email]": {"ghost@example.com"}})

	// same response either way, only the audit status differs
	s.Equal("/login", rec.Header().Get("Location"))
	s.Require().Len(s.gateway.calls, 1)
	s.Equal(risk.StatusFailed, s.gateway.calls[0].status)
	s.Equal("ghost@example.com", s.gateway.calls[0].email)
}

func (s *HandlerSuite) login() *http.Cookie {
	rec := s.postForm("/login", loginForm(testEmail, testPassword))
	cookie := sessionCookie(rec)
	s.Require().NotNil(cookie)
	s.gateway.calls = nil
	return cookie
}

func (s *HandlerSuite) TestProfileUpdateAllowedMutatesAndAudits() {
	cookie := s.login()

	form := url.Values{testScope + "[name]": {"Renamed"}}
	rec := s.postForm("/profile", form, cookie)

	s.Equal("/", rec.Header().Get("Location"))

	u, err := s.users.FindByID(context.Background(), s.seeded.ID)
	s.Require().NoError(err)
	s.Equal("Renamed", u.Name)

	s.Require().Len(s.gateway.calls, 2)
	s.Equal(risk.OpRisk, s.gateway.calls[0].op)
	s.Equal(risk.EventProfileUpdate, s.gateway.calls[0].event)
	s.Equal(risk.StatusAttempted, s.gateway.calls[0].status)
	s.Equal(risk.OpLog, s.gateway.calls[1].op)
	s.Equal(risk.StatusSucceeded, s.gateway.calls[1].status)
}

func (s *HandlerSuite) TestProfileUpdateValidationFailureAuditsFailed() {
	cookie := s.login()

	form := url.Values{testScope + "[password]": {"short"}}
	rec := s.postForm("/profile", form, cookie)

	s.Equal("/profile", rec.Header().Get("Location"))
	s.Require().Len(s.gateway.calls, 2)
	s.Equal(risk.OpLog, s.gateway.calls[1].op)
	s.Equal(risk.StatusFailed, s.gateway.calls[1].status)
}

func (s *HandlerSuite) TestProfileUpdateDeniedTerminatesAndSkipsMutation() {
	cookie := s.login()
	s.gateway.verdict = verdictWith(risk.ActionDeny)

	form := url.Values{testScope + "[name]": {"Hijacked"}}
	rec := s.postForm("/profile", form, cookie)

	s.Equal("/login", rec.Header().Get("Location"))

	u, err := s.users.FindByID(context.Background(), s.seeded.ID)
	s.Require().NoError(err)
	s.Equal("Anna", u.Name)

	// the audit call is skipped along with the mutation
	s.Require().Len(s.gateway.calls, 1)
	s.Equal(risk.OpRisk, s.gateway.calls[0].op)

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == testScope+"_session" && c.MaxAge < 0 {
			cleared = true
		}
	}
	s.True(cleared)
}

func (s *HandlerSuite) TestProfileUpdateWithoutSessionRedirectsToLogin() {
	rec := s.postForm("/profile", url.Values{testScope + "[name]": {"Nope"}})

	s.Equal("/login", rec.Header().Get("Location"))
	s.Empty(s.gateway.calls)
}
