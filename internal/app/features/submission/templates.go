// internal/app/features/submission/templates.go
package submission

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "submission",
		FS:       templateFS,
		Patterns: []string{"templates/*.gohtml"},
	})
}
