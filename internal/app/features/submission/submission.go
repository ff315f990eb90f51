// internal/app/features/submission/submission.go
package submission

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies an account

import (
	"net/http"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	errorsfeature "github.com/easywish/launchpad/internal/app/features/errors"
	submissionstore "github.com/easywish/launchpad/internal/app/store/submissions"
	"github.com/easywish/launchpad/internal/app/system/auditlog"
	"github.com/easywish/launchpad/internal/app/system/auth"
	"github.com/easywish/launchpad/internal/app/system/authz"
	"github.com/easywish/launchpad/internal/app/system/htmlsanitize"
	"github.com/easywish/launchpad/internal/app/system/inputval"
	"github.com/easywish/launchpad/internal/app/system/viewdata"
	"github.com/easywish/launchpad/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// historyLimit caps the number of past submissions shown on the form page.
const historyLimit = 20

// Handler provides gaming-profile submission handlers.
type Handler struct {
	store       *submissionstore.Store
	errLog      *errorsfeature.ErrorLogger
	auditLogger *auditlog.Logger
	logger      *zap.Logger
}

// NewHandler creates a new submission Handler.
func NewHandler(
	store *submissionstore.Store,
	errLog *errorsfeature.ErrorLogger,
	auditLogger *auditlog.Logger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		store:       store,
		errLog:      errLog,
		auditLogger: auditLogger,
		logger:      logger,
	}
}

// SubmitVM is the view model for the submission page.
type SubmitVM struct {
	viewdata.BaseVM
	Error       string
	GameName    string
	UID         string
	Level       string
	Reference   string // set after a successful submission
	Submissions []models.Submission
}

// submitInput is the submission form. Identity fields come from the session,
// never from the form.
type submitInput struct {
	GameName string `json:"game_name" validate:"required,max=100" label:"Game name"`
	UID      string `json:"uid" validate:"required,max=32" label:"Game UID"`
	Level    string `json:"level" validate:"required,digits,max=4" label:"Level"`
}

// Routes returns a chi.Router with submission routes mounted.
// All routes require a signed-in user.
func Routes(h *Handler, sessionMgr *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Use(sessionMgr.RequireSignedIn)
	r.Get("/", h.showForm)
	r.Post("/", h.handleSubmit)
	return r
}

func (h *Handler) buildVM(r *http.Request) SubmitVM {
	vm := SubmitVM{
		BaseVM: viewdata.New(r),
	}
	vm.Title = "Submit Profile"

	if query.Get(r, "welcome") == "1" {
		vm.BaseVM = vm.BaseVM.WithNotice("success", "Account created. Welcome!")
	}

	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		return vm
	}

	subs, err := h.store.GetByUser(r.Context(), userID, historyLimit)
	if err != nil {
		h.logger.Warn("failed to load submission history",
			zap.Error(err),
			zap.String("user_id", userID.Hex()))
		return vm
	}
	vm.Submissions = subs
	return vm
}

// showForm displays the submission form with the user's past submissions.
func (h *Handler) showForm(w http.ResponseWriter, r *http.Request) {
	vm := h.buildVM(r)
	templates.Render(w, r, "submission/index", vm)
}

// handleSubmit validates and stores a new submission.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.errLog.Log(r, "failed to parse form", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	user, ok := auth.CurrentUser(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	input := submitInput{
		GameName: htmlsanitize.PlainText(r.FormValue("game_name")),
		UID:      r.FormValue("uid"),
		Level:    r.FormValue("level"),
	}

	if result := inputval.Validate(input); result.HasErrors() {
		vm := h.buildVM(r)
		vm.Error = result.First()
		vm.GameName = input.GameName
		vm.UID = input.UID
		vm.Level = input.Level
		templates.Render(w, r, "submission/index", vm)
		return
	}

	sub := &models.Submission{
		UserID:    user.ID,
		UserEmail: user.Email,
		GameName:  input.GameName,
		UID:       input.UID,
		Level:     input.Level,
	}

	created, err := h.store.Create(r.Context(), sub)
	if err != nil {
		h.errLog.Log(r, "failed to store submission", err)
		vm := h.buildVM(r)
		vm.Error = "Service temporarily unavailable. Please try again."
		vm.GameName = input.GameName
		vm.UID = input.UID
		vm.Level = input.Level
		templates.Render(w, r, "submission/index", vm)
		return
	}

	h.auditLogger.SubmissionCreated(r.Context(), r, user.UserID(), created.Reference)

	vm := h.buildVM(r)
	vm.Reference = created.Reference
	vm.BaseVM = vm.BaseVM.WithNotice("success", "Submission received. Reference: "+created.Reference)
	templates.Render(w, r, "submission/index", vm)
}
