package admin

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	errorsfeature "github.com/easywish/launchpad/internal/app/features/errors"
	"github.com/easywish/launchpad/internal/app/store/audit"
	loginstore "github.com/easywish/launchpad/internal/app/store/logins"
	submissionstore "github.com/easywish/launchpad/internal/app/store/submissions"
	"github.com/easywish/launchpad/internal/app/system/auditlog"
	"github.com/easywish/launchpad/internal/app/system/auth"
	"github.com/easywish/launchpad/internal/domain/models"
	"github.com/easywish/launchpad/internal/testutil"
)

type testDeps struct {
	handler     http.Handler
	submissions *submissionstore.Store
	logins      *loginstore.Store
}

func setupHandler(t *testing.T, db *mongo.Database) testDeps {
	t.Helper()
	testutil.MustBootTemplates(t)

	logger := zap.NewNop()
	sessionMgr, err := auth.NewSessionManager("0123456789abcdef0123456789abcdef", "launchpad-session", "", 24*time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager() error = %v", err)
	}

	submissions := submissionstore.New(db)
	logins := loginstore.New(db)
	auditLogger := auditlog.New(audit.New(db), logger, auditlog.Config{Auth: "db", Admin: "db"})
	h := NewHandler(submissions, logins, errorsfeature.NewErrorLogger(logger), auditLogger, logger)

	return testDeps{
		handler:     Routes(h, sessionMgr),
		submissions: submissions,
		logins:      logins,
	}
}

func (d testDeps) get(user testutil.TestUser, target string) *testutil.ResponseRecorder {
	req := testutil.NewAuthenticatedRequestWithCSRF(http.MethodGet, target, user)
	rec := testutil.NewRecorder()
	d.handler.ServeHTTP(rec, req)
	return rec
}

func (d testDeps) post(user testutil.TestUser, target string) *testutil.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, nil)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = testutil.WithCSRFToken(testutil.WithUser(req, user))
	rec := testutil.NewRecorder()
	d.handler.ServeHTTP(rec, req)
	return rec
}

func seedSubmission(t *testing.T, store *submissionstore.Store, gameName string) *models.Submission {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sub, err := store.Create(ctx, &models.Submission{
		UserID:    primitive.NewObjectID().Hex(),
		UserEmail: "user@example.com",
		GameName:  gameName,
		UID:       "1234567",
		Level:     "70",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return sub
}

func seedLogin(t *testing.T, store *loginstore.Store) *models.LoginActivity {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	if _, err := store.RecordOnce(ctx, models.LoginActivity{
		UserID:         userID.Hex(),
		Identifier:     "15551234567",
		IdentifierType: models.IdentifierPhone,
		Email:          "15551234567@phone.facebook.login",
		LoggedInAt:     time.Now().UTC(),
	}); err != nil {
		t.Fatalf("RecordOnce() error = %v", err)
	}
	rec, err := store.GetByUser(ctx, userID)
	if err != nil || rec == nil {
		t.Fatalf("GetByUser() = %v, %v", rec, err)
	}
	return rec
}

func TestRoutes_RequireAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	deps := setupHandler(t, db)

	// Regular users get bounced to /forbidden.
	req := testutil.NewAuthenticatedRequestWithCSRF(http.MethodGet, "/", testutil.RegularUser())
	req.Header.Set("Accept", "text/html")
	rec := testutil.NewRecorder()
	deps.handler.ServeHTTP(rec, req)
	rec.AssertRedirect(t, "/forbidden")

	// Anonymous requests get bounced to the sign-in page.
	anon := httptest.NewRequest(http.MethodGet, "/", nil)
	anon.Header.Set("Accept", "text/html")
	rec = testutil.NewRecorder()
	deps.handler.ServeHTTP(rec, anon)
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/login") {
		t.Errorf("Location = %q, want /login redirect", loc)
	}
}

func TestDashboard(t *testing.T) {
	db := testutil.SetupTestDB(t)
	deps := setupHandler(t, db)

	seedSubmission(t, deps.submissions, "Westward Journey")
	seedLogin(t, deps.logins)

	rec := deps.get(testutil.AdminUser(), "/")
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Submissions")
	rec.AssertContains(t, "Login Records")
}

func TestListSubmissions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	deps := setupHandler(t, db)

	seedSubmission(t, deps.submissions, "First Game")
	seedSubmission(t, deps.submissions, "Second Game")

	rec := deps.get(testutil.AdminUser(), "/submissions")
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "First Game")
	rec.AssertContains(t, "Second Game")
}

func TestListSubmissions_Pagination(t *testing.T) {
	db := testutil.SetupTestDB(t)
	deps := setupHandler(t, db)

	for i := 0; i < pageSize+3; i++ {
		seedSubmission(t, deps.submissions, fmt.Sprintf("Game %02d", i))
		// Keep submitted_at distinct so page boundaries are deterministic.
		time.Sleep(2 * time.Millisecond)
	}

	rec := deps.get(testutil.AdminUser(), "/submissions")
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, fmt.Sprintf("of %d", pageSize+3))

	rec = deps.get(testutil.AdminUser(), "/submissions?page=2")
	rec.AssertStatus(t, http.StatusOK)
	// Page two holds the three oldest entries.
	rec.AssertContains(t, "Game 00")
	rec.AssertContains(t, "Game 01")
	rec.AssertContains(t, "Game 02")
}

func TestSubmissionDeleteModal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	deps := setupHandler(t, db)

	sub := seedSubmission(t, deps.submissions, "Westward Journey")

	rec := deps.get(testutil.AdminUser(), "/submissions/"+sub.ID.Hex()+"/delete_modal")
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Westward Journey")
	rec.AssertContains(t, "/submissions/"+sub.ID.Hex()+"/delete")
}

func TestDeleteSubmission(t *testing.T) {
	db := testutil.SetupTestDB(t)
	deps := setupHandler(t, db)

	sub := seedSubmission(t, deps.submissions, "Westward Journey")

	rec := deps.post(testutil.AdminUser(), "/submissions/"+sub.ID.Hex()+"/delete")
	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "/admin/submissions?deleted=1") {
		t.Fatalf("Location = %q, want /admin/submissions?deleted=1 redirect", loc)
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	got, err := deps.submissions.GetByID(ctx, sub.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got != nil {
		t.Error("submission still exists after delete")
	}

	// Following the redirect shows a notice naming the deleted record.
	list := deps.get(testutil.AdminUser(), loc)
	list.AssertStatus(t, http.StatusOK)
	list.AssertContains(t, "Deleted submission: Westward Journey (UID 1234567, level 70) by user@example.com.")
}

func TestDeleteSubmission_BadID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	deps := setupHandler(t, db)

	rec := deps.post(testutil.AdminUser(), "/submissions/not-a-hex-id/delete")
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestDeleteSubmission_Missing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	deps := setupHandler(t, db)

	// Deleting an already-deleted record is not an error.
	rec := deps.post(testutil.AdminUser(), "/submissions/"+primitive.NewObjectID().Hex()+"/delete")
	rec.AssertRedirect(t, "/admin/submissions?deleted=1")
}

func TestListLogins(t *testing.T) {
	db := testutil.SetupTestDB(t)
	deps := setupHandler(t, db)

	seedLogin(t, deps.logins)

	rec := deps.get(testutil.AdminUser(), "/logins")
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "15551234567")
}

func TestDeleteLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	deps := setupHandler(t, db)

	login := seedLogin(t, deps.logins)

	rec := deps.post(testutil.AdminUser(), "/logins/"+login.ID.Hex()+"/delete")
	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "/admin/logins?deleted=1") {
		t.Fatalf("Location = %q, want /admin/logins?deleted=1 redirect", loc)
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	got, err := deps.logins.GetByID(ctx, login.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got != nil {
		t.Error("login record still exists after delete")
	}

	// Following the redirect shows a notice naming the deleted identifier.
	list := deps.get(testutil.AdminUser(), loc)
	list.AssertStatus(t, http.StatusOK)
	list.AssertContains(t, "Deleted login record: 15551234567 (phone)")
}

func TestPaginate(t *testing.T) {
	pg := paginate(1, 45, pageSize)
	if pg.TotalPages != 3 {
		t.Errorf("TotalPages = %d, want 3", pg.TotalPages)
	}
	if pg.HasPrev {
		t.Error("HasPrev = true on page 1")
	}
	if !pg.HasNext {
		t.Error("HasNext = false with more pages remaining")
	}
	if pg.RangeStart != 1 || pg.RangeEnd != pageSize {
		t.Errorf("range = %d-%d, want 1-%d", pg.RangeStart, pg.RangeEnd, pageSize)
	}

	pg = paginate(3, 45, 5)
	if pg.HasNext {
		t.Error("HasNext = true on the last page")
	}
	if !pg.HasPrev {
		t.Error("HasPrev = false on page 3")
	}
	if pg.RangeStart != 41 || pg.RangeEnd != 45 {
		t.Errorf("range = %d-%d, want 41-45", pg.RangeStart, pg.RangeEnd)
	}

	pg = paginate(1, 0, 0)
	if pg.TotalPages != 1 {
		t.Errorf("TotalPages with no rows = %d, want 1", pg.TotalPages)
	}
}
