package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ibitsola/Tekhnologia/internal/config"
	authsvc "github.com/ibitsola/Tekhnologia/internal/services/auth"
	catalogsvc "github.com/ibitsola/Tekhnologia/internal/services/catalog"
	downloadsvc "github.com/ibitsola/Tekhnologia/internal/services/downloads"
	ledgersvc "github.com/ibitsola/Tekhnologia/internal/services/ledger"
	paymentsvc "github.com/ibitsola/Tekhnologia/internal/services/payments"
	"github.com/ibitsola/Tekhnologia/internal/transport/http/handlers"
)

type Dependencies struct {
	CatalogService  *catalogsvc.Service
	PaymentService  *paymentsvc.Service
	DownloadService *downloadsvc.Service
	LedgerService   *ledgersvc.Service
	JWTManager      *authsvc.JWTManager
	Logger          *zap.Logger
	Config          config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	catalogHandler := handlers.NewCatalogHandler(deps.CatalogService)
	checkoutHandler := handlers.NewCheckoutHandler(deps.PaymentService)
	webhookHandler := handlers.NewWebhookHandler(deps.PaymentService)
	downloadHandler := handlers.NewDownloadHandler(deps.DownloadService)
	ledgerHandler := handlers.NewLedgerHandler(deps.LedgerService)

	authMW := AuthMiddleware(deps.JWTManager, deps.Logger)
	adminRoleMW := RequireRole("OWNER", "ADMIN")

	r.Get("/healthz", healthHandler.Get)

	r.Get("/resources", catalogHandler.List)
	r.Get("/resources/{id}", catalogHandler.Get)
	r.With(authMW).Post("/resources/{id}/checkout", checkoutHandler.Create)
	r.With(authMW).Get("/resources/{id}/download", downloadHandler.Get)

	r.Post("/payments/webhook", webhookHandler.Stripe)

	r.With(authMW).Get("/purchases/my", ledgerHandler.ListMine)

	r.Route("/admin", func(r chi.Router) {
		r.Use(authMW, adminRoleMW)
		r.Post("/resources", catalogHandler.Upload)
		r.Put("/resources/{id}", catalogHandler.Edit)
		r.Delete("/resources/{id}", catalogHandler.Delete)
		r.Get("/purchases", ledgerHandler.ListAll)
		r.Get("/purchases/paid", ledgerHandler.ListPaid)
		r.Post("/purchases/{id}/mark-paid", ledgerHandler.MarkPaid)
		r.Delete("/purchases/{id}", ledgerHandler.Delete)
		r.Get("/purchases/confirm-setup", ledgerHandler.ConfirmSetup)
	})
}
