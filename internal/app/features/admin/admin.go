// internal/app/features/admin/admin.go
package admin

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies an account
//   - Identifier: the raw string the user typed to sign in (email or digits)

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dalemusser/waffle/pantry/templates"
	errorsfeature "github.com/easywish/launchpad/internal/app/features/errors"
	loginstore "github.com/easywish/launchpad/internal/app/store/logins"
	submissionstore "github.com/easywish/launchpad/internal/app/store/submissions"
	"github.com/easywish/launchpad/internal/app/system/auditlog"
	"github.com/easywish/launchpad/internal/app/system/auth"
	"github.com/easywish/launchpad/internal/app/system/viewdata"
	"github.com/easywish/launchpad/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const pageSize = 20

// Handler provides review handlers for submissions and login activity.
type Handler struct {
	submissionStore *submissionstore.Store
	loginStore      *loginstore.Store
	errLog          *errorsfeature.ErrorLogger
	auditLogger     *auditlog.Logger
	logger          *zap.Logger
}

// NewHandler creates a new admin Handler.
func NewHandler(
	submissionStore *submissionstore.Store,
	loginStore *loginstore.Store,
	errLog *errorsfeature.ErrorLogger,
	auditLogger *auditlog.Logger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		submissionStore: submissionStore,
		loginStore:      loginStore,
		errLog:          errLog,
		auditLogger:     auditLogger,
		logger:          logger,
	}
}

// Routes returns a chi.Router with admin routes mounted.
// All routes require the admin role.
func Routes(h *Handler, sessionMgr *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Use(sessionMgr.RequireRole("admin"))

	r.Get("/", h.dashboard)

	r.Get("/submissions", h.listSubmissions)
	r.Get("/submissions/{id}/delete_modal", h.submissionDeleteModal)
	r.Post("/submissions/{id}/delete", h.deleteSubmission)

	r.Get("/logins", h.listLogins)
	r.Get("/logins/{id}/delete_modal", h.loginDeleteModal)
	r.Post("/logins/{id}/delete", h.deleteLogin)

	return r
}

// Pagination captures page math shared by the two list views.
type Pagination struct {
	Page       int
	PrevPage   int
	NextPage   int
	Total      int64
	TotalPages int
	RangeStart int
	RangeEnd   int
	HasPrev    bool
	HasNext    bool
}

func paginate(page int, total int64, got int) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}
	offset := (page - 1) * pageSize

	rangeStart := offset + 1
	rangeEnd := offset + got
	if total == 0 {
		rangeStart = 0
		rangeEnd = 0
	}

	return Pagination{
		Page:       page,
		PrevPage:   page - 1,
		NextPage:   page + 1,
		Total:      total,
		TotalPages: totalPages,
		RangeStart: rangeStart,
		RangeEnd:   rangeEnd,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
	}
}

// withDeletedNotice marks the redirect target so the list page shows a
// deletion notice naming the removed record.
func withDeletedNotice(target, summary string) string {
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	target += sep + "deleted=1"
	if summary != "" {
		target += "&deleted_summary=" + url.QueryEscape(summary)
	}
	return target
}

func parsePage(r *http.Request) int {
	page := 1
	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}
	return page
}

// DashboardVM is the view model for the admin landing page.
type DashboardVM struct {
	viewdata.BaseVM
	SubmissionCount int64
	LoginCount      int64
}

// dashboard shows record counts and links to the two lists.
func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	subCount, err := h.submissionStore.Count(r.Context())
	if err != nil {
		h.errLog.Log(r, "failed to count submissions", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	loginCount, err := h.loginStore.Count(r.Context())
	if err != nil {
		h.errLog.Log(r, "failed to count login records", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	vm := DashboardVM{
		BaseVM:          viewdata.New(r),
		SubmissionCount: subCount,
		LoginCount:      loginCount,
	}
	vm.Title = "Admin"

	templates.Render(w, r, "admin/dashboard", vm)
}

// SubmissionListVM is the view model for the submissions list.
type SubmissionListVM struct {
	viewdata.BaseVM
	Pagination
	Rows []models.Submission
}

// listSubmissions displays all submissions newest-first with pagination.
func (h *Handler) listSubmissions(w http.ResponseWriter, r *http.Request) {
	page := parsePage(r)

	total, err := h.submissionStore.Count(r.Context())
	if err != nil {
		h.errLog.Log(r, "failed to count submissions", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	pg := paginate(page, total, 0)
	offset := int64(pg.Page-1) * pageSize

	rows, err := h.submissionStore.ListAll(r.Context(), offset, pageSize)
	if err != nil {
		h.errLog.Log(r, "failed to list submissions", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	vm := SubmissionListVM{
		BaseVM:     viewdata.New(r),
		Pagination: paginate(pg.Page, total, len(rows)),
		Rows:       rows,
	}
	vm.Title = "Submissions"
	if r.URL.Query().Get("deleted") == "1" {
		msg := "Submission deleted."
		if s := r.URL.Query().Get("deleted_summary"); s != "" {
			msg = "Deleted submission: " + s + "."
		}
		vm.BaseVM = vm.BaseVM.WithNotice("success", msg)
	}

	templates.Render(w, r, "admin/submissions", vm)
}

// DeleteModalVM is the view model for the delete confirmation modal.
type DeleteModalVM struct {
	ID        string
	Kind      string // submission, login
	Summary   string
	Detail    string
	ActionURL string
	ReturnURL string
	CSRFToken string
}

// submissionDeleteModal renders the confirm-delete modal for one submission.
func (h *Handler) submissionDeleteModal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	sub, err := h.submissionStore.GetByID(r.Context(), objID)
	if err != nil {
		h.errLog.Log(r, "failed to get submission", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if sub == nil {
		http.NotFound(w, r)
		return
	}

	vm := DeleteModalVM{
		ID:        id,
		Kind:      "submission",
		Summary:   sub.GameName + " (UID " + sub.UID + ", level " + sub.Level + ")",
		Detail:    "Submitted by " + sub.UserEmail,
		ActionURL: "/admin/submissions/" + id + "/delete",
		ReturnURL: r.URL.Query().Get("return"),
		CSRFToken: csrf.Token(r),
	}

	templates.RenderSnippet(w, "admin/delete_modal", vm)
}

// deleteSubmission removes a submission after confirmation.
func (h *Handler) deleteSubmission(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)

	id := chi.URLParam(r, "id")
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	returnURL := "/admin/submissions"
	if ret := r.FormValue("return"); ret != "" {
		returnURL = ret
	}

	// Fetch first so the audit entry carries the reference code and the
	// notice can name what was removed.
	sub, err := h.submissionStore.GetByID(r.Context(), objID)
	if err != nil {
		h.errLog.Log(r, "failed to get submission for delete", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if sub == nil {
		http.Redirect(w, r, withDeletedNotice(returnURL, ""), http.StatusSeeOther)
		return
	}

	if _, err := h.submissionStore.Delete(r.Context(), objID); err != nil {
		h.errLog.Log(r, "failed to delete submission", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.auditLogger.SubmissionDeleted(r.Context(), r, actor.UserID(), sub.Reference)

	summary := sub.GameName + " (UID " + sub.UID + ", level " + sub.Level + ") by " + sub.UserEmail
	http.Redirect(w, r, withDeletedNotice(returnURL, summary), http.StatusSeeOther)
}

// LoginListVM is the view model for the login-activity list.
type LoginListVM struct {
	viewdata.BaseVM
	Pagination
	Rows []models.LoginActivity
}

// listLogins displays login-activity records newest-first with pagination.
func (h *Handler) listLogins(w http.ResponseWriter, r *http.Request) {
	page := parsePage(r)

	total, err := h.loginStore.Count(r.Context())
	if err != nil {
		h.errLog.Log(r, "failed to count login records", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	pg := paginate(page, total, 0)
	offset := int64(pg.Page-1) * pageSize

	rows, err := h.loginStore.ListAll(r.Context(), offset, pageSize)
	if err != nil {
		h.errLog.Log(r, "failed to list login records", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	vm := LoginListVM{
		BaseVM:     viewdata.New(r),
		Pagination: paginate(pg.Page, total, len(rows)),
		Rows:       rows,
	}
	vm.Title = "Login Activity"
	if r.URL.Query().Get("deleted") == "1" {
		msg := "Login record deleted."
		if s := r.URL.Query().Get("deleted_summary"); s != "" {
			msg = "Deleted login record: " + s + "."
		}
		msg += " The account signs in again as usual; a fresh record is made on its next login."
		vm.BaseVM = vm.BaseVM.WithNotice("success", msg)
	}

	templates.Render(w, r, "admin/logins", vm)
}

// loginDeleteModal renders the confirm-delete modal for one login record.
func (h *Handler) loginDeleteModal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	rec, err := h.loginStore.GetByID(r.Context(), objID)
	if err != nil {
		h.errLog.Log(r, "failed to get login record", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if rec == nil {
		http.NotFound(w, r)
		return
	}

	vm := DeleteModalVM{
		ID:        id,
		Kind:      "login",
		Summary:   rec.Identifier + " (" + rec.IdentifierType + ")",
		Detail:    "First signed in " + rec.LoggedInAt.Format("Jan 2, 2006 15:04 MST"),
		ActionURL: "/admin/logins/" + id + "/delete",
		ReturnURL: r.URL.Query().Get("return"),
		CSRFToken: csrf.Token(r),
	}

	templates.RenderSnippet(w, "admin/delete_modal", vm)
}

// deleteLogin removes a login-activity record after confirmation. Deleting a
// record does not touch the account; the next sign-in recreates it.
func (h *Handler) deleteLogin(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)

	id := chi.URLParam(r, "id")
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	returnURL := "/admin/logins"
	if ret := r.FormValue("return"); ret != "" {
		returnURL = ret
	}

	// Fetch first so the notice can name the identifier being removed.
	rec, err := h.loginStore.GetByID(r.Context(), objID)
	if err != nil {
		h.errLog.Log(r, "failed to get login record for delete", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if rec == nil {
		http.Redirect(w, r, withDeletedNotice(returnURL, ""), http.StatusSeeOther)
		return
	}

	if _, err := h.loginStore.Delete(r.Context(), objID); err != nil {
		h.errLog.Log(r, "failed to delete login record", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.auditLogger.LoginRecordDeleted(r.Context(), r, actor.UserID(), id)

	summary := rec.Identifier + " (" + rec.IdentifierType + ") for " + rec.Email
	http.Redirect(w, r, withDeletedNotice(returnURL, summary), http.StatusSeeOther)
}
