package get

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"chantier-backend/http-server/response"
	"chantier-backend/internal/storage"
)

type ResponseOrders struct {
	Orders []*storage.Order `json:"orders"`
	Status string           `json:"status"`
}

type OrderLister interface {
	List(ctx context.Context, projectID int64) ([]*storage.Order, error)
}

func ListOrders(log *slog.Logger, orders OrderLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.orders.ListOrders"

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

		list, err := orders.List(ctx, projectID)
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		render.JSON(w, r, ResponseOrders{
			Orders: list,
			Status: strconv.Itoa(http.StatusOK),
		})
	}
}
