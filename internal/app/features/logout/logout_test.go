package logout

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/easywish/launchpad/internal/app/store/audit"
	"github.com/easywish/launchpad/internal/app/system/auditlog"
	"github.com/easywish/launchpad/internal/app/system/auth"
	"github.com/easywish/launchpad/internal/testutil"
)

func setupHandler(t *testing.T) http.Handler {
	t.Helper()
	db := testutil.SetupTestDB(t)

	logger := zap.NewNop()
	sessionMgr, err := auth.NewSessionManager("0123456789abcdef0123456789abcdef", "launchpad-session", "", 24*time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager() error = %v", err)
	}
	auditLogger := auditlog.New(audit.New(db), logger, auditlog.Config{Auth: "db", Admin: "db"})
	h := NewHandler(sessionMgr, auditLogger, logger)
	return Routes(h, sessionMgr)
}

func TestHandleLogout(t *testing.T) {
	handler := setupHandler(t)

	req := testutil.NewAuthenticatedRequest(http.MethodPost, "/", testutil.RegularUser())
	rec := testutil.NewRecorder()
	handler.ServeHTTP(rec, req)

	rec.AssertRedirect(t, "/")

	// The session cookie is expired on the way out.
	for _, c := range rec.Result().Cookies() {
		if c.Name == "launchpad-session" && c.MaxAge != -1 {
			t.Errorf("session cookie MaxAge = %d, want -1", c.MaxAge)
		}
	}
}

func TestHandleLogout_RequiresSignIn(t *testing.T) {
	handler := setupHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := testutil.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d for anonymous logout", rec.Code, http.StatusUnauthorized)
	}
}
