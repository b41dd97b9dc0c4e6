package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/ndewijer/Finance-Ledger-Backend/internal/api/handlers"
	custommiddleware "github.com/ndewijer/Finance-Ledger-Backend/internal/api/middleware"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/config"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/service"
)

// Services bundles the services the router exposes.
type Services struct {
	System     *service.SystemService
	User       *service.UserService
	PF         *service.PFService
	MutualFund *service.MutualFundService
	NAV        *service.NAVService
	Gold       *service.GoldService
}

// NewRouter creates and configures the HTTP router
func NewRouter(svc Services, cfg *config.Config, logger logrus.FieldLogger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger(logger))
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	r.Route("/api", func(r chi.Router) {
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(svc.System)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/users", func(r chi.Router) {
			userHandler := handlers.NewUserHandler(svc.User)
			r.Get("/", userHandler.Users)
			r.Post("/", userHandler.CreateUser)
			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", userHandler.GetUser)
				r.Delete("/", userHandler.DeleteUser)
			})
		})

		r.Route("/pf", func(r chi.Router) {
			pfHandler := handlers.NewPFHandler(svc.PF)
			r.Get("/types", pfHandler.Types)
			r.Post("/types/seed", pfHandler.SeedTypes)

			r.Get("/interest", pfHandler.RatePeriods)
			r.Post("/interest", pfHandler.CreateRatePeriod)
			r.With(custommiddleware.ValidateUUIDMiddleware).Put("/interest/{uuid}", pfHandler.UpdateRatePeriod)
			r.With(custommiddleware.ValidateUUIDMiddleware).Delete("/interest/{uuid}", pfHandler.DeleteRatePeriod)

			r.Post("/accounts", pfHandler.CreateAccount)
			r.With(custommiddleware.ValidateUUIDMiddleware).Get("/accounts/user/{uuid}", pfHandler.AccountsByUser)
			r.Route("/accounts/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/entries", pfHandler.Entries)
				r.Post("/entries", pfHandler.AppendEntry)
				r.Delete("/entries", pfHandler.DeleteEntries)
				r.Post("/bulk-create", pfHandler.BulkCreate)
				r.Post("/recalculate", pfHandler.Recalculate)
			})
			r.With(custommiddleware.ValidateUUIDMiddleware).Put("/entries/{uuid}", pfHandler.UpdateEntry)
			r.Post("/recalculate-all", pfHandler.RecalculateAll)
		})

		mfHandler := handlers.NewMutualFundHandler(svc.MutualFund, svc.NAV)
		r.Route("/mutual-fund-metadata", func(r chi.Router) {
			r.Get("/", mfHandler.Funds)
			r.Post("/", mfHandler.CreateFund)
			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Put("/", mfHandler.UpdateFund)
				r.Delete("/", mfHandler.DeleteFund)
			})
		})

		r.Route("/mutual-funds", func(r chi.Router) {
			r.Post("/", mfHandler.CreateEntry)
			r.With(custommiddleware.ValidateUUIDMiddleware).Get("/user/{uuid}", mfHandler.EntriesByUser)
			r.Get("/nav", mfHandler.LookupNAV)
			r.Post("/nav/refresh", mfHandler.RefreshNAVs)
			r.Post("/backfill-units", mfHandler.BackfillUnits)
			r.Post("/recal", mfHandler.Reconcile)
			r.Post("/rematch", mfHandler.Rematch)
			r.Post("/force-null", mfHandler.ForceNull)
			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Put("/", mfHandler.UpdateEntry)
				r.Delete("/", mfHandler.DeleteEntry)
			})
		})

		r.Route("/gold", func(r chi.Router) {
			goldHandler := handlers.NewGoldHandler(svc.Gold)
			r.Get("/", goldHandler.Entries)
			r.Post("/", goldHandler.SaveEntry)
			r.Get("/price", goldHandler.LatestPrice)
			r.Post("/price", goldHandler.AddPrice)
			r.With(custommiddleware.ValidateUUIDMiddleware).Delete("/{uuid}", goldHandler.DeleteEntry)
		})
	})

	return r
}
