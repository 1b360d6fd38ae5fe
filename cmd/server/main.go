package main

import (
	appfx "payment-router/internal/fx"

	"go.uber.org/fx"
)

func main() {
	fx.New(
		appfx.CoreModules,
		appfx.ApplicationModules,
	).Run()
}
