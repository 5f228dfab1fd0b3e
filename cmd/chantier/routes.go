package main

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	deleteorder "chantier-backend/http-server/orders/delete"
	getorders "chantier-backend/http-server/orders/get"
	saveorder "chantier-backend/http-server/orders/save"
	updateorder "chantier-backend/http-server/orders/update"
	deleteperiod "chantier-backend/http-server/progress/delete"
	exportperiod "chantier-backend/http-server/progress/export"
	getperiods "chantier-backend/http-server/progress/get"
	saveperiod "chantier-backend/http-server/progress/save"
	updateperiod "chantier-backend/http-server/progress/update"
	getproject "chantier-backend/http-server/projects/get"
	"chantier-backend/internal/config"
	"chantier-backend/internal/middleware/auth"
	"chantier-backend/internal/service/export"
	"chantier-backend/internal/service/ledger"
	"chantier-backend/internal/service/orders"
	"chantier-backend/internal/storage/sqlstore"
)

type services struct {
	projects            *ledger.Ledger
	subcontractors      *ledger.Ledger
	orders              *orders.Service
	projectSheets       *export.Service
	subcontractorSheets *export.Service
}

func routes(cfg config.Config, log *slog.Logger, store *sqlstore.Storage, svc services) *chi.Mux {
	router := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	router.Use(corsHandler.Handler)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Route("/api", func(r chi.Router) {
		r.Use(auth.BasicAuth(cfg.Accounts))

		r.Get("/projects/{projectID}", getproject.GetProject(log, store))

		// этапы выполнения по объекту
		r.Get("/projects/{projectID}/periods", getperiods.ListPeriods(log, svc.projects))
		r.Post("/projects/{projectID}/periods", saveperiod.AdvancePeriod(log, svc.projects))
		r.Get("/periods/{periodID}", getperiods.GetPeriod(log, svc.projects))
		r.Put("/periods/{periodID}", updateperiod.UpdatePeriod(log, svc.projects))
		r.Post("/periods/{periodID}/finalize", updateperiod.FinalizePeriod(log, svc.projects))
		r.Delete("/periods/{periodID}", deleteperiod.DeletePeriod(log, svc.projects))
		r.Get("/periods/{periodID}/export", exportperiod.ExportPeriod(log, svc.projectSheets))

		// то же самое для субподрядчиков
		r.Get("/projects/{projectID}/subcontractors/{subcontractorID}/periods", getperiods.ListSubcontractorPeriods(log, svc.subcontractors))
		r.Post("/projects/{projectID}/subcontractors/{subcontractorID}/periods", saveperiod.AdvancePeriod(log, svc.subcontractors))
		r.Get("/subcontractor-periods/{periodID}", getperiods.GetPeriod(log, svc.subcontractors))
		r.Put("/subcontractor-periods/{periodID}", updateperiod.UpdatePeriod(log, svc.subcontractors))
		r.Post("/subcontractor-periods/{periodID}/finalize", updateperiod.FinalizePeriod(log, svc.subcontractors))
		r.Delete("/subcontractor-periods/{periodID}", deleteperiod.DeletePeriod(log, svc.subcontractors))
		r.Get("/subcontractor-periods/{periodID}/export", exportperiod.ExportPeriod(log, svc.subcontractorSheets))

		// заказы, каждый пересчитывает бюджет объекта
		r.Get("/projects/{projectID}/orders", getorders.ListOrders(log, svc.orders))
		r.Post("/projects/{projectID}/orders", saveorder.CreateOrder(log, svc.orders))
		r.Put("/orders/{orderID}", updateorder.UpdateOrder(log, svc.orders))
		r.Delete("/orders/{orderID}", deleteorder.DeleteOrder(log, svc.orders))
	})

	return router
}
