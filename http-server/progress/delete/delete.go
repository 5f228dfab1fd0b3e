package delete

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"chantier-backend/http-server/response"
)

type PeriodDeleter interface {
	Delete(ctx context.Context, periodID int64) error
}

func DeletePeriod(log *slog.Logger, deleter PeriodDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.progress.DeletePeriod"

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

		if err := deleter.Delete(ctx, periodID); err != nil {
			response.Error(w, r, log, err)
			return
		}

		log.Info("period deleted", slog.Int64("period_id", periodID))

		render.JSON(w, r, response.OK())
	}
}
