package export

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"chantier-backend/http-server/response"
)

type PeriodSheet interface {
	PeriodSheet(ctx context.Context, periodID int64) ([]byte, string, error)
}

// ExportPeriod sends the period as an .xlsx attachment.
func ExportPeriod(log *slog.Logger, gen PeriodSheet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.progress.ExportPeriod"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		periodID, err := response.ID(r, "periodID")
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second) // на Excel чуть больше времени
		defer cancel()

		data, fileName, err := gen.PeriodSheet(ctx, periodID)
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="`+fileName+`"`)
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		if _, err := w.Write(data); err != nil {
			log.Error("failed to write export", slog.String("error", err.Error()))
		}
	}
}
