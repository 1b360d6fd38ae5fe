package fx

import (
	"payment-router/internal/api/handlers"
	"payment-router/internal/api/middleware"

	"go.uber.org/fx"
)

// HandlersModule provides HTTP handlers and middleware
var HandlersModule = fx.Module("handlers",
	fx.Provide(
		middleware.NewErrorMiddleware,
		handlers.NewPaymentHandler,
	),
)
