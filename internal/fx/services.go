package fx

import (
	"payment-router/internal/connector"
	"payment-router/internal/gsm"
	"payment-router/internal/metrics"
	"payment-router/internal/services"

	"go.uber.org/fx"
)

// ServicesModule provides the routing core: the gsm store, the connector
// dispatcher, the retry orchestrator and the payment service
var ServicesModule = fx.Module("services",
	fx.Provide(metrics.NewRegistry),
	fx.Provide(
		fx.Annotate(
			metrics.NewPrometheusCounters,
			fx.As(new(metrics.Counters)),
		),
	),
	fx.Provide(gsm.NewStore),
	fx.Provide(
		fx.Annotate(
			connector.NewHTTPDispatcher,
			fx.As(new(connector.Dispatcher)),
		),
	),
	fx.Provide(services.NewRetryOrchestrator),
	fx.Provide(
		fx.Annotate(
			services.NewPaymentService,
			fx.As(new(services.PaymentService)),
		),
	),
)
