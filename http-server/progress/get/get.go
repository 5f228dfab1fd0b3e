package get

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"chantier-backend/http-server/response"
	"chantier-backend/internal/storage"
)

type PeriodReader interface {
	List(ctx context.Context, owner storage.Owner) ([]*storage.Period, error)
	Get(ctx context.Context, periodID int64) (*storage.Period, error)
}

type SubcontractorPeriodReader interface {
	ListSubcontractor(ctx context.Context, owner storage.Owner) (*storage.SubcontractorPeriods, error)
}

// ListPeriods returns the project's periods, newest first.
func ListPeriods(log *slog.Logger, periods PeriodReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.progress.ListPeriods"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		projectID, err := response.ID(r, "projectID")
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		list, err := periods.List(ctx, storage.Owner{ProjectID: projectID})
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		render.JSON(w, r, list)
	}
}

// GetPeriod serves both ledgers; the reader decides which periods it knows.
func GetPeriod(log *slog.Logger, periods PeriodReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.progress.GetPeriod"

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

		period, err := periods.Get(ctx, periodID)
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		render.JSON(w, r, period)
	}
}

func ListSubcontractorPeriods(log *slog.Logger, periods SubcontractorPeriodReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.progress.ListSubcontractorPeriods"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		projectID, err := response.ID(r, "projectID")
		if err != nil {
			response.Error(w, r, log, err)
			return
		}
		subcontractorID, err := response.ID(r, "subcontractorID")
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		list, err := periods.ListSubcontractor(ctx, storage.Owner{ProjectID: projectID, SubcontractorID: subcontractorID})
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		render.JSON(w, r, list)
	}
}
