// cmd/launchpad/main.go
package main

import (
	"context"

	"github.com/dalemusser/waffle/app"
	"github.com/easywish/launchpad/internal/app/bootstrap"
)

func main() {
	app.Run(context.Background(), bootstrap.Hooks)
}
