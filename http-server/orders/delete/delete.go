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

type OrderDeleter interface {
	Delete(ctx context.Context, orderID int64) error
}

func DeleteOrder(log *slog.Logger, deleter OrderDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.orders.DeleteOrder"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		orderID, err := response.ID(r, "orderID")
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := deleter.Delete(ctx, orderID); err != nil {
			response.Error(w, r, log, err)
			return
		}

		log.Info("order deleted", slog.Int64("order_id", orderID))

		render.JSON(w, r, response.OK())
	}
}
