package save

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"chantier-backend/http-server/response"
	"chantier-backend/internal/middleware/auth"
	"chantier-backend/internal/service/ledger"
	"chantier-backend/internal/storage"
)

type PeriodAdvancer interface {
	Advance(ctx context.Context, owner storage.Owner, req ledger.AdvanceRequest) (*storage.Period, error)
}

type Request struct {
	ProjectPeriodID *int64 `json:"project_period_id,omitempty"`
}

// AdvancePeriod opens the next period of the project, or of the
// subcontractor when the route carries {subcontractorID}.
func AdvancePeriod(log *slog.Logger, advancer PeriodAdvancer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.progress.AdvancePeriod"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		projectID, err := response.ID(r, "projectID")
		if err != nil {
			response.Error(w, r, log, err)
			return
		}
		owner := storage.Owner{ProjectID: projectID}

		if chi.URLParam(r, "subcontractorID") != "" {
			if owner.SubcontractorID, err = response.ID(r, "subcontractorID"); err != nil {
				response.Error(w, r, log, err)
				return
			}
		}

		var req Request
		// тело необязательное
		if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
			log.Error("failed to decode request body", slog.String("error", err.Error()))
			response.BadRequest(w, r, "failed to decode request")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		period, err := advancer.Advance(ctx, owner, ledger.AdvanceRequest{
			Author:          auth.User(r.Context()),
			ProjectPeriodID: req.ProjectPeriodID,
		})
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		log.Info("period created",
			slog.Int64("project_id", owner.ProjectID),
			slog.Int64("subcontractor_id", owner.SubcontractorID),
			slog.Int("sequence", period.Sequence),
		)

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, period)
	}
}
