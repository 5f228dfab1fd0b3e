package get

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"chantier-backend/internal/storage"
)

type MockProjectProvider struct {
	mock.Mock
}

func (m *MockProjectProvider) GetProject(ctx context.Context, id int64) (*storage.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Project), args.Error(1)
}

func TestGetProject(t *testing.T) {
	provider := new(MockProjectProvider)
	provider.On("GetProject", mock.Anything, int64(1)).
		Return(&storage.Project{ID: 1, Name: "Ecole Jules Ferry", Budget: decimal.RequireFromString("15400.50")}, nil)
	provider.On("GetProject", mock.Anything, int64(2)).
		Return(nil, fmt.Errorf("storage.sqlstore.GetProject: %w", storage.ErrNotFound))

	r := chi.NewRouter()
	r.Get("/api/projects/{projectID}", GetProject(slog.Default(), provider))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/projects/1", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"budget":"15400.5"`)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/projects/2", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "project not found")
}
