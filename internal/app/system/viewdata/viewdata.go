// internal/app/system/viewdata/viewdata.go
package viewdata

import (
	"net/http"

	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/easywish/launchpad/internal/app/system/authz"
	"github.com/gorilla/csrf"
)

// SiteName is shown in page titles and headers.
const SiteName = "Launchpad"

// Notice is a one-shot banner message for the next rendered page.
type Notice struct {
	Kind    string // success, info, error
	Message string
}

// BaseVM contains common fields for all view models.
// Embed this struct in your feature-specific view models.
//
// Usage:
//
//	type myPageData struct {
//	    viewdata.BaseVM
//	    // page-specific fields...
//	}
type BaseVM struct {
	SiteName string

	// User context (from auth middleware)
	IsLoggedIn bool
	UserID     string
	Email      string
	Role       string

	// Page context
	Title       string
	BackURL     string
	CurrentPath string

	// Security
	CSRFToken string // CSRF token for forms (use in hidden input field)

	// One-shot banner, set by handlers when there is something to announce
	Notice *Notice
}

// NewBaseVM creates a fully populated BaseVM for a page.
//
// Parameters:
//   - r: the HTTP request
//   - title: the page title
//   - backDefault: default URL for the back button if none in request
func NewBaseVM(r *http.Request, title, backDefault string) BaseVM {
	role, email, userID, signedIn := authz.UserCtx(r)

	vm := BaseVM{
		SiteName:    SiteName,
		IsLoggedIn:  signedIn,
		Role:        role,
		Email:       email,
		Title:       title,
		BackURL:     httpnav.ResolveBackURL(r, backDefault),
		CurrentPath: httpnav.CurrentPath(r),
		CSRFToken:   csrf.Token(r),
	}
	if signedIn {
		vm.UserID = userID.Hex()
	}
	return vm
}

// New creates a BaseVM without a page title or back URL. Handlers set Title
// themselves before rendering.
func New(r *http.Request) BaseVM {
	role, email, userID, signedIn := authz.UserCtx(r)

	vm := BaseVM{
		SiteName:    SiteName,
		IsLoggedIn:  signedIn,
		Role:        role,
		Email:       email,
		CurrentPath: httpnav.CurrentPath(r),
		CSRFToken:   csrf.Token(r),
	}
	if signedIn {
		vm.UserID = userID.Hex()
	}
	return vm
}

// WithNotice returns a copy of vm carrying a banner message.
func (vm BaseVM) WithNotice(kind, message string) BaseVM {
	vm.Notice = &Notice{Kind: kind, Message: message}
	return vm
}
