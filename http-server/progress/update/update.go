package update

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"chantier-backend/http-server/response"
	"chantier-backend/internal/service/ledger"
	"chantier-backend/internal/storage"
)

type PeriodUpdater interface {
	Update(ctx context.Context, periodID int64, in ledger.UpdateInput) (*storage.Period, error)
	Finalize(ctx context.Context, periodID int64) (*storage.Period, error)
}

func UpdatePeriod(log *slog.Logger, updater PeriodUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.progress.UpdatePeriod"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		periodID, err := response.ID(r, "periodID")
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		var req ledger.UpdateInput
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", slog.String("error", err.Error()))
			response.BadRequest(w, r, "failed to decode request")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		period, err := updater.Update(ctx, periodID, req)
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		log.Info("period updated", slog.Int64("period_id", periodID))

		render.JSON(w, r, period)
	}
}

func FinalizePeriod(log *slog.Logger, updater PeriodUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.progress.FinalizePeriod"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		periodID, err := response.ID(r, "periodID")
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		period, err := updater.Finalize(ctx, periodID)
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		log.Info("period finalized", slog.Int64("period_id", periodID), slog.Int("sequence", period.Sequence))

		render.JSON(w, r, period)
	}
}
