package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"chantier-backend/http-server/response"
	"chantier-backend/internal/errs"
	"chantier-backend/internal/storage"
)

type ProjectProvider interface {
	GetProject(ctx context.Context, id int64) (*storage.Project, error)
}

// GetProject returns the project with its derived budget.
func GetProject(log *slog.Logger, projects ProjectProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.projects.GetProject"

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

		project, err := projects.GetProject(ctx, projectID)
		if errors.Is(err, storage.ErrNotFound) {
			response.Error(w, r, log, errs.Wrap(errs.NotFound, err, "project not found"))
			return
		}
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		render.JSON(w, r, project)
	}
}
