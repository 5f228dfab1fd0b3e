package get

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chantier-backend/internal/storage"
)

type MockOrderLister struct {
	mock.Mock
}

func (m *MockOrderLister) List(ctx context.Context, projectID int64) ([]*storage.Order, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*storage.Order), args.Error(1)
}

func TestListOrders(t *testing.T) {
	lister := new(MockOrderLister)
	lister.On("List", mock.Anything, int64(4)).Return([]*storage.Order{
		{ID: 1, ProjectID: 4, Number: "CMD-1", Status: storage.OrderValidated},
		{ID: 2, ProjectID: 4, SubcontractorID: 3, Number: "ST-1", Status: storage.OrderDraft},
	}, nil)

	r := chi.NewRouter()
	r.Get("/api/projects/{projectID}/orders", ListOrders(slog.Default(), lister))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/projects/4/orders", nil))

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp ResponseOrders
	require.NoError(t, render.DecodeJSON(strings.NewReader(rr.Body.String()), &resp))
	assert.Equal(t, "200", resp.Status)
	require.Len(t, resp.Orders, 2)
	assert.Equal(t, int64(3), resp.Orders[1].SubcontractorID)
}
