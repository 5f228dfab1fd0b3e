package update

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"chantier-backend/http-server/response"
	"chantier-backend/internal/service/orders"
	"chantier-backend/internal/storage"
)

type OrderUpdater interface {
	Update(ctx context.Context, orderID int64, in orders.Input) (*storage.Order, error)
}

func UpdateOrder(log *slog.Logger, updater OrderUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.orders.UpdateOrder"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		orderID, err := response.ID(r, "orderID")
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		var req orders.Input
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", slog.String("error", err.Error()))
			response.BadRequest(w, r, "failed to decode request")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		order, err := updater.Update(ctx, orderID, req)
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		log.Info("order updated", slog.Int64("order_id", orderID))

		render.JSON(w, r, order)
	}
}
