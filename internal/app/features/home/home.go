// internal/app/features/home/home.go
package home

import (
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/easywish/launchpad/internal/app/system/viewdata"
	"github.com/go-chi/chi/v5"
)

// Handler provides the public landing page.
type Handler struct{}

// NewHandler creates a new home Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Routes returns a chi.Router with home routes mounted.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.index)
	return r
}

// HomeVM is the view model for the landing page.
type HomeVM struct {
	viewdata.BaseVM
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	vm := HomeVM{BaseVM: viewdata.New(r)}
	vm.Title = "Welcome"

	templates.Render(w, r, "home/index", vm)
}
