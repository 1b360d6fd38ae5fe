package fx

import (
	"payment-router/internal/repository"

	"go.uber.org/fx"
)

// RepositoriesModule provides all data access repositories
var RepositoriesModule = fx.Module("repositories",
	fx.Provide(
		fx.Annotate(
			repository.NewPaymentIntentRepository,
			fx.As(new(repository.PaymentIntentRepository)),
		),

		fx.Annotate(
			repository.NewPaymentAttemptRepository,
			fx.As(new(repository.PaymentAttemptRepository)),
		),

		fx.Annotate(
			repository.NewGsmRepository,
			fx.As(new(repository.GsmRepository)),
		),

		fx.Annotate(
			repository.NewConfigRepository,
			fx.As(new(repository.ConfigRepository)),
		),
	),
)
