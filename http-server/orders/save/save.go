package save

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

type OrderCreator interface {
	Create(ctx context.Context, projectID int64, in orders.Input) (*storage.Order, error)
}

func CreateOrder(log *slog.Logger, creator OrderCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.orders.CreateOrder"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		projectID, err := response.ID(r, "projectID")
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

		order, err := creator.Create(ctx, projectID, req)
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		log.Info("order created", slog.Int64("order_id", order.ID), slog.String("number", order.Number))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, order)
	}
}
