// internal/app/features/login/login.go
package login

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies an account
//   - Identifier: the raw string the user typed to sign in (email or digits)

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/urlutil"
	errorsfeature "github.com/easywish/launchpad/internal/app/features/errors"
	loginstore "github.com/easywish/launchpad/internal/app/store/logins"
	"github.com/easywish/launchpad/internal/app/store/ratelimit"
	"github.com/easywish/launchpad/internal/app/system/auditlog"
	"github.com/easywish/launchpad/internal/app/system/auth"
	"github.com/easywish/launchpad/internal/app/system/identifier"
	"github.com/easywish/launchpad/internal/app/system/identity"
	"github.com/easywish/launchpad/internal/app/system/inputval"
	"github.com/easywish/launchpad/internal/app/system/viewdata"
	"github.com/easywish/launchpad/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler provides sign-in handlers. A single form drives both sign-in and
// transparent first-use registration: an unknown identifier with a valid
// password becomes a new account.
type Handler struct {
	identitySvc         *identity.Service
	classifier          *identifier.Classifier
	loginStore          *loginstore.Store
	rateLimitStore      *ratelimit.Store // nil if rate limiting disabled
	sessionMgr          *auth.SessionManager
	errLog              *errorsfeature.ErrorLogger
	auditLogger         *auditlog.Logger
	registrationEnabled bool
	logger              *zap.Logger
}

// NewHandler creates a new login Handler.
// rateLimitStore can be nil to disable rate limiting.
func NewHandler(
	identitySvc *identity.Service,
	classifier *identifier.Classifier,
	loginStore *loginstore.Store,
	rateLimitStore *ratelimit.Store,
	sessionMgr *auth.SessionManager,
	errLog *errorsfeature.ErrorLogger,
	auditLogger *auditlog.Logger,
	registrationEnabled bool,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		identitySvc:         identitySvc,
		classifier:          classifier,
		loginStore:          loginStore,
		rateLimitStore:      rateLimitStore,
		sessionMgr:          sessionMgr,
		errLog:              errLog,
		auditLogger:         auditLogger,
		registrationEnabled: registrationEnabled,
		logger:              logger,
	}
}

// LoginVM is the view model for the login page.
type LoginVM struct {
	viewdata.BaseVM
	Error      string
	Identifier string
	ReturnURL  string
}

// loginInput is the sign-in form.
type loginInput struct {
	Identifier string `json:"identifier" validate:"required,max=254" label:"Email or phone number"`
	Password   string `json:"password" validate:"required,max=128" label:"Password"`
}

// Routes returns a chi.Router with login routes mounted.
func Routes(h *Handler, sessionMgr *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Use(sessionMgr.RedirectIfSignedIn("/submit"))
	r.Get("/", h.showLogin)
	r.Post("/", h.handleLogin)
	return r
}

// showLogin displays the sign-in page.
func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	vm := LoginVM{
		BaseVM:    viewdata.New(r),
		ReturnURL: query.Get(r, "return"),
	}
	vm.Title = "Sign In"

	templates.Render(w, r, "login/index", vm)
}

// renderError re-renders the sign-in page with an error message, preserving
// the typed identifier (never the password).
func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, msg, rawID, returnURL string) {
	vm := LoginVM{
		BaseVM:     viewdata.New(r),
		Error:      msg,
		Identifier: rawID,
		ReturnURL:  returnURL,
	}
	vm.Title = "Sign In"
	templates.Render(w, r, "login/index", vm)
}

// handleLogin processes the sign-in form: classify the identifier, verify the
// credential, and fall back to creating the account when none exists.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.errLog.Log(r, "failed to parse form", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	input := loginInput{
		Identifier: r.FormValue("identifier"),
		Password:   r.FormValue("password"),
	}
	returnURL := r.FormValue("return")

	if result := inputval.Validate(input); result.HasErrors() {
		h.renderError(w, r, result.First(), input.Identifier, returnURL)
		return
	}

	idType, credID, err := h.classifier.Classify(input.Identifier)
	if err != nil {
		h.auditLogger.LoginFailedBadIdentifier(r.Context(), r, input.Identifier)
		h.renderError(w, r, "Enter a valid email address or an all-digit phone number.", input.Identifier, returnURL)
		return
	}

	// Check rate limit before processing
	if h.rateLimitStore != nil {
		allowed, _, lockedUntil := h.rateLimitStore.CheckAllowed(r.Context(), credID)
		if !allowed {
			h.auditLogger.LoginRateLimited(r.Context(), r, input.Identifier)

			errorMsg := "Too many failed login attempts. Please try again later."
			if lockedUntil != nil {
				remaining := time.Until(*lockedUntil)
				if remaining > time.Minute {
					errorMsg = fmt.Sprintf("Too many failed login attempts. Please try again in %d minute(s).", int(remaining.Minutes())+1)
				} else {
					errorMsg = fmt.Sprintf("Too many failed login attempts. Please try again in %d second(s).", int(remaining.Seconds())+1)
				}
			}
			h.renderError(w, r, errorMsg, input.Identifier, returnURL)
			return
		}
	}

	user, err := h.identitySvc.VerifyCredential(r.Context(), credID, input.Password)
	switch {
	case err == nil:
		h.finishLogin(w, r, user, input.Identifier, string(idType), returnURL, false)
		return

	case errors.Is(err, identity.ErrNoAccount):
		h.handleFirstUse(w, r, credID, input, string(idType), returnURL)
		return

	case errors.Is(err, identity.ErrWrongPassword):
		if h.rateLimitStore != nil {
			h.rateLimitStore.RecordFailure(r.Context(), credID)
		}
		h.auditLogger.LoginFailedWrongPassword(r.Context(), r, user.ID, input.Identifier)
		h.renderError(w, r, "Wrong password. An account with this identifier already exists.", input.Identifier, returnURL)
		return

	case errors.Is(err, identity.ErrAccountDisabled):
		if h.rateLimitStore != nil {
			h.rateLimitStore.RecordFailure(r.Context(), credID)
		}
		h.auditLogger.LoginFailedUserDisabled(r.Context(), r, user.ID, input.Identifier)
		h.renderError(w, r, "Account is disabled.", input.Identifier, returnURL)
		return

	default:
		h.errLog.Log(r, "credential verification failed", err)
		h.renderError(w, r, "Service temporarily unavailable. Please try again.", input.Identifier, returnURL)
		return
	}
}

// handleFirstUse creates an account for an identifier that has never signed
// in. A concurrent registration for the same identifier loses the insert race
// and is treated as a failed sign-in against the winner's password.
func (h *Handler) handleFirstUse(w http.ResponseWriter, r *http.Request, credID string, input loginInput, idType, returnURL string) {
	if !h.registrationEnabled {
		h.auditLogger.LogAuthEvent(r, nil, "login_failed_registration_disabled", false, "registration disabled")
		h.renderError(w, r, "No account found for this identifier.", input.Identifier, returnURL)
		return
	}

	user, err := h.identitySvc.CreateAccount(r.Context(), credID, input.Password)
	switch {
	case err == nil:
		h.auditLogger.AccountCreated(r.Context(), r, user.ID, idType)
		h.finishLogin(w, r, user, input.Identifier, idType, returnURL, true)
		return

	case errors.Is(err, identity.ErrAccountExists):
		// Lost the race: someone registered this identifier between lookup
		// and insert. Their password wins.
		if h.rateLimitStore != nil {
			h.rateLimitStore.RecordFailure(r.Context(), credID)
		}
		h.auditLogger.LogAuthEvent(r, nil, "account_create_raced", false, "duplicate identifier")
		h.renderError(w, r, "Wrong password. An account with this identifier already exists.", input.Identifier, returnURL)
		return

	case errors.Is(err, identity.ErrWeakPassword):
		h.renderError(w, r, "Password must be at least 6 characters and not a common password.", input.Identifier, returnURL)
		return

	default:
		h.errLog.Log(r, "account creation failed", err)
		h.renderError(w, r, "Service temporarily unavailable. Please try again.", input.Identifier, returnURL)
		return
	}
}

// finishLogin establishes the session, records login activity, and redirects.
func (h *Handler) finishLogin(w http.ResponseWriter, r *http.Request, user *models.User, rawIdentifier, idType, returnURL string, created bool) {
	if h.rateLimitStore != nil {
		_ = h.rateLimitStore.ClearOnSuccess(r.Context(), user.Email)
	}

	if err := h.sessionMgr.CreateSession(w, r, user.ID, user.Email, user.Role, ""); err != nil {
		h.errLog.Log(r, "failed to create session", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	// First login for this account creates the activity record; repeat logins
	// are no-ops through the conditional insert.
	if _, err := h.loginStore.RecordOnceFrom(r.Context(), r, user.ID, rawIdentifier, idType, user.Email); err != nil {
		h.logger.Warn("failed to record login activity",
			zap.Error(err),
			zap.String("user_id", user.ID.Hex()))
	}

	h.auditLogger.LoginSuccess(r.Context(), r, user.ID, idType, rawIdentifier)

	target := urlutil.SafeReturn(returnURL, "", "/submit")
	if created {
		// Distinct landing for a freshly created account, whatever the target
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + "welcome=1"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
