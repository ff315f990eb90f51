package login

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	errorsfeature "github.com/easywish/launchpad/internal/app/features/errors"
	"github.com/easywish/launchpad/internal/app/store/audit"
	loginstore "github.com/easywish/launchpad/internal/app/store/logins"
	"github.com/easywish/launchpad/internal/app/store/ratelimit"
	userstore "github.com/easywish/launchpad/internal/app/store/users"
	"github.com/easywish/launchpad/internal/app/system/auditlog"
	"github.com/easywish/launchpad/internal/app/system/auth"
	"github.com/easywish/launchpad/internal/app/system/identifier"
	"github.com/easywish/launchpad/internal/app/system/identity"
	"github.com/easywish/launchpad/internal/testutil"
)

const testSessionKey = "0123456789abcdef0123456789abcdef"

type handlerDeps struct {
	handler    http.Handler
	accounts   *userstore.Store
	logins     *loginstore.Store
	identity   *identity.Service
	sessionMgr *auth.SessionManager
}

func setupHandler(t *testing.T, db *mongo.Database, rateLimits *ratelimit.Store, registrationEnabled bool) handlerDeps {
	t.Helper()
	testutil.MustBootTemplates(t)

	logger := zap.NewNop()
	sessionMgr, err := auth.NewSessionManager(testSessionKey, "launchpad-session", "", 24*time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager() error = %v", err)
	}

	accounts := userstore.New(db)
	identitySvc := identity.New(accounts, logger)
	logins := loginstore.New(db)
	auditLogger := auditlog.New(audit.New(db), logger, auditlog.Config{Auth: "db", Admin: "db"})

	h := NewHandler(
		identitySvc,
		identifier.New(""),
		logins,
		rateLimits,
		sessionMgr,
		errorsfeature.NewErrorLogger(logger),
		auditLogger,
		registrationEnabled,
		logger,
	)
	return handlerDeps{
		handler:    Routes(h, sessionMgr),
		accounts:   accounts,
		logins:     logins,
		identity:   identitySvc,
		sessionMgr: sessionMgr,
	}
}

func postLogin(deps handlerDeps, identifier, password string) *testutil.ResponseRecorder {
	form := url.Values{}
	form.Set("identifier", identifier)
	form.Set("password", password)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = testutil.WithCSRFToken(req)

	rec := testutil.NewRecorder()
	deps.handler.ServeHTTP(rec, req)
	return rec
}

func TestShowLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	deps := setupHandler(t, db, nil, true)

	req := testutil.WithCSRFToken(httptest.NewRequest(http.MethodGet, "/", nil))
	rec := testutil.NewRecorder()
	deps.handler.ServeHTTP(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Sign In")
	rec.AssertContains(t, `name="identifier"`)
	rec.AssertContains(t, `name="password"`)
}

func TestHandleLogin_FirstUseCreatesAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	deps := setupHandler(t, db, nil, true)

	rec := postLogin(deps, "newuser@example.com", "hunter22")
	rec.AssertRedirect(t, "/submit?welcome=1")

	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := deps.accounts.GetByEmail(ctx, "newuser@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if u == nil {
		t.Fatal("account was not created on first use")
	}

	activity, err := deps.logins.GetByUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByUser() error = %v", err)
	}
	if activity == nil {
		t.Fatal("login activity was not recorded on first sign-in")
	}
	if activity.IdentifierType != "email" {
		t.Errorf("IdentifierType = %q, want email", activity.IdentifierType)
	}
}

func TestHandleLogin_PhoneIdentifier(t *testing.T) {
	db := testutil.SetupTestDB(t)
	deps := setupHandler(t, db, nil, true)

	rec := postLogin(deps, "15551234567", "hunter22")
	rec.AssertRedirect(t, "/submit?welcome=1")

	ctx, cancel := testutil.TestContext()
	defer cancel()

	// The account is stored under the synthetic email credential.
	u, err := deps.accounts.GetByEmail(ctx, "15551234567"+identifier.DefaultPhoneDomain)
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if u == nil {
		t.Fatal("account was not created for phone-style identifier")
	}

	activity, err := deps.logins.GetByUser(ctx, u.ID)
	if err != nil || activity == nil {
		t.Fatalf("GetByUser() = %v, %v", activity, err)
	}
	if activity.Identifier != "15551234567" {
		t.Errorf("Identifier = %q, want the raw digits the user typed", activity.Identifier)
	}
	if activity.IdentifierType != "phone" {
		t.Errorf("IdentifierType = %q, want phone", activity.IdentifierType)
	}
}

func TestHandleLogin_FirstUseWithReturnURL(t *testing.T) {
	db := testutil.SetupTestDB(t)
	deps := setupHandler(t, db, nil, true)

	form := url.Values{}
	form.Set("identifier", "newuser@example.com")
	form.Set("password", "hunter22")
	form.Set("return", "/admin")

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = testutil.WithCSRFToken(req)

	rec := testutil.NewRecorder()
	deps.handler.ServeHTTP(rec, req)

	// The welcome flag rides along even when the caller asked for a
	// different landing page.
	rec.AssertRedirect(t, "/admin?welcome=1")
}

func TestHandleLogin_ReturningUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	deps := setupHandler(t, db, nil, true)

	ctx := context.Background()
	if _, err := deps.identity.CreateAccount(ctx, "user@example.com", "hunter22"); err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}

	rec := postLogin(deps, "user@example.com", "hunter22")
	rec.AssertRedirect(t, "/submit")
}

func TestHandleLogin_WrongPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	deps := setupHandler(t, db, nil, true)

	ctx := context.Background()
	if _, err := deps.identity.CreateAccount(ctx, "user@example.com", "hunter22"); err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}

	rec := postLogin(deps, "user@example.com", "wrong-password")
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Wrong password. An account with this identifier already exists.")
}

func TestHandleLogin_BadIdentifier(t *testing.T) {
	db := testutil.SetupTestDB(t)
	deps := setupHandler(t, db, nil, true)

	rec := postLogin(deps, "not an email or number", "hunter22")
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Enter a valid email address or an all-digit phone number.")
}

func TestHandleLogin_WeakPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	deps := setupHandler(t, db, nil, true)

	rec := postLogin(deps, "newuser@example.com", "abc")
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Password must be at least 6 characters")

	ctx, cancel := testutil.TestContext()
	defer cancel()
	u, err := deps.accounts.GetByEmail(ctx, "newuser@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if u != nil {
		t.Error("account was created despite weak password")
	}
}

func TestHandleLogin_DisabledAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	deps := setupHandler(t, db, nil, true)

	ctx := context.Background()
	u, err := deps.identity.CreateAccount(ctx, "user@example.com", "hunter22")
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	if err := deps.accounts.UpdateStatus(ctx, u.ID, "disabled"); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}

	rec := postLogin(deps, "user@example.com", "hunter22")
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Account is disabled.")
}

func TestHandleLogin_RegistrationDisabled(t *testing.T) {
	db := testutil.SetupTestDB(t)
	deps := setupHandler(t, db, nil, false)

	rec := postLogin(deps, "newuser@example.com", "hunter22")
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "No account found for this identifier.")
}

func TestHandleLogin_RateLimited(t *testing.T) {
	db := testutil.SetupTestDB(t)
	rateLimits := ratelimit.New(db, 2, 15*time.Minute, 15*time.Minute)
	deps := setupHandler(t, db, rateLimits, true)

	ctx := context.Background()
	if _, err := deps.identity.CreateAccount(ctx, "user@example.com", "hunter22"); err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}

	postLogin(deps, "user@example.com", "wrong-1")
	postLogin(deps, "user@example.com", "wrong-2")

	// The account is locked; even the correct password is rejected until
	// the lockout expires.
	rec := postLogin(deps, "user@example.com", "hunter22")
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Too many failed login attempts.")
}

func TestHandleLogin_RateLimitClearsOnSuccess(t *testing.T) {
	db := testutil.SetupTestDB(t)
	rateLimits := ratelimit.New(db, 3, 15*time.Minute, 15*time.Minute)
	deps := setupHandler(t, db, rateLimits, true)

	ctx := context.Background()
	if _, err := deps.identity.CreateAccount(ctx, "user@example.com", "hunter22"); err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}

	postLogin(deps, "user@example.com", "wrong-1")
	postLogin(deps, "user@example.com", "wrong-2")

	rec := postLogin(deps, "user@example.com", "hunter22")
	rec.AssertRedirect(t, "/submit")

	allowed, remaining, _ := rateLimits.CheckAllowed(ctx, "user@example.com")
	if !allowed || remaining != 3 {
		t.Errorf("CheckAllowed() after success = (%v, %d), want (true, 3)", allowed, remaining)
	}
}
