package submission

import (
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
	submissionstore "github.com/easywish/launchpad/internal/app/store/submissions"
	"github.com/easywish/launchpad/internal/app/system/auditlog"
	"github.com/easywish/launchpad/internal/app/system/auth"
	"github.com/easywish/launchpad/internal/domain/models"
	"github.com/easywish/launchpad/internal/testutil"
)

func setupHandler(t *testing.T, db *mongo.Database) (http.Handler, *submissionstore.Store) {
	t.Helper()
	testutil.MustBootTemplates(t)

	logger := zap.NewNop()
	sessionMgr, err := auth.NewSessionManager("0123456789abcdef0123456789abcdef", "launchpad-session", "", 24*time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager() error = %v", err)
	}

	store := submissionstore.New(db)
	auditLogger := auditlog.New(audit.New(db), logger, auditlog.Config{Auth: "db", Admin: "db"})
	h := NewHandler(store, errorsfeature.NewErrorLogger(logger), auditLogger, logger)
	return Routes(h, sessionMgr), store
}

func postSubmission(handler http.Handler, user testutil.TestUser, gameName, uid, level string) *testutil.ResponseRecorder {
	form := url.Values{}
	form.Set("game_name", gameName)
	form.Set("uid", uid)
	form.Set("level", level)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = testutil.WithCSRFToken(testutil.WithUser(req, user))

	rec := testutil.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestShowForm_RequiresSignIn(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler, _ := setupHandler(t, db)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "text/html")
	rec := testutil.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want redirect to login", rec.Code)
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/login") {
		t.Errorf("Location = %q, want /login redirect", loc)
	}
}

func TestShowForm(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler, _ := setupHandler(t, db)

	req := testutil.NewAuthenticatedRequestWithCSRF(http.MethodGet, "/", testutil.RegularUser())
	rec := testutil.NewRecorder()
	handler.ServeHTTP(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Submit Profile")
	rec.AssertContains(t, `name="game_name"`)
	rec.AssertContains(t, `name="uid"`)
	rec.AssertContains(t, `name="level"`)
}

func TestShowForm_WelcomeNotice(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler, _ := setupHandler(t, db)

	req := testutil.NewAuthenticatedRequestWithCSRF(http.MethodGet, "/?welcome=1", testutil.RegularUser())
	rec := testutil.NewRecorder()
	handler.ServeHTTP(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Account created. Welcome!")
}

func TestHandleSubmit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler, store := setupHandler(t, db)
	user := testutil.RegularUser()

	rec := postSubmission(handler, user, "Westward Journey", "1234567", "70")
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Submission received. Reference: ")

	ctx, cancel := testutil.TestContext()
	defer cancel()

	sessionUser := &auth.SessionUser{ID: user.ID}
	subs, err := store.GetByUser(ctx, sessionUser.UserID(), 0)
	if err != nil {
		t.Fatalf("GetByUser() error = %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("GetByUser() returned %d submissions, want 1", len(subs))
	}
	sub := subs[0]
	if sub.GameName != "Westward Journey" || sub.UID != "1234567" || sub.Level != "70" {
		t.Errorf("stored submission mismatch: %+v", sub)
	}
	if sub.Status != models.SubmissionPending {
		t.Errorf("Status = %q, want %q", sub.Status, models.SubmissionPending)
	}
	if sub.UserEmail != user.Email {
		t.Errorf("UserEmail = %q, want the session email %q", sub.UserEmail, user.Email)
	}
	if sub.Reference == "" {
		t.Error("Reference is empty")
	}
}

func TestHandleSubmit_InvalidLevel(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler, store := setupHandler(t, db)
	user := testutil.RegularUser()

	rec := postSubmission(handler, user, "Westward Journey", "1234567", "7a")
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Level must contain only digits.")

	ctx, cancel := testutil.TestContext()
	defer cancel()
	sessionUser := &auth.SessionUser{ID: user.ID}
	subs, err := store.GetByUser(ctx, sessionUser.UserID(), 0)
	if err != nil {
		t.Fatalf("GetByUser() error = %v", err)
	}
	if len(subs) != 0 {
		t.Errorf("invalid input was stored: %+v", subs)
	}
}

func TestHandleSubmit_AlphanumericUID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler, store := setupHandler(t, db)
	user := testutil.RegularUser()

	// UIDs only have to be non-empty; some games issue alphanumeric IDs.
	rec := postSubmission(handler, user, "Westward Journey", "AB12CD34", "70")
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Submission received. Reference: ")

	ctx, cancel := testutil.TestContext()
	defer cancel()
	sessionUser := &auth.SessionUser{ID: user.ID}
	subs, err := store.GetByUser(ctx, sessionUser.UserID(), 0)
	if err != nil || len(subs) != 1 {
		t.Fatalf("GetByUser() = %v, %v", subs, err)
	}
	if subs[0].UID != "AB12CD34" {
		t.Errorf("UID = %q, want AB12CD34", subs[0].UID)
	}
}

func TestHandleSubmit_MissingGameName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler, _ := setupHandler(t, db)

	rec := postSubmission(handler, testutil.RegularUser(), "", "1234567", "70")
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Game name is required.")
}

func TestHandleSubmit_SanitizesGameName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler, store := setupHandler(t, db)
	user := testutil.RegularUser()

	rec := postSubmission(handler, user, `Game <script>alert("x")</script>`, "1234567", "70")
	rec.AssertStatus(t, http.StatusOK)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	sessionUser := &auth.SessionUser{ID: user.ID}
	subs, err := store.GetByUser(ctx, sessionUser.UserID(), 0)
	if err != nil || len(subs) != 1 {
		t.Fatalf("GetByUser() = %v, %v", subs, err)
	}
	if strings.Contains(subs[0].GameName, "<script>") {
		t.Errorf("GameName still contains markup: %q", subs[0].GameName)
	}
}

func TestShowForm_History(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler, _ := setupHandler(t, db)
	user := testutil.RegularUser()

	postSubmission(handler, user, "First Game", "100", "10")
	postSubmission(handler, user, "Second Game", "200", "20")

	req := testutil.NewAuthenticatedRequestWithCSRF(http.MethodGet, "/", user)
	rec := testutil.NewRecorder()
	handler.ServeHTTP(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "First Game")
	rec.AssertContains(t, "Second Game")
}
