package export

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"chantier-backend/internal/errs"
)

type MockPeriodSheet struct {
	mock.Mock
}

func (m *MockPeriodSheet) PeriodSheet(ctx context.Context, periodID int64) ([]byte, string, error) {
	args := m.Called(ctx, periodID)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}

func TestExportPeriod(t *testing.T) {
	gen := new(MockPeriodSheet)
	gen.On("PeriodSheet", mock.Anything, int64(3)).Return([]byte("PK\x03\x04"), "situation_1_02.xlsx", nil)
	gen.On("PeriodSheet", mock.Anything, int64(4)).Return(nil, "", errs.E(errs.NotFound, "period 4 not found"))

	r := chi.NewRouter()
	r.Get("/api/periods/{periodID}/export", ExportPeriod(slog.Default(), gen))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/periods/3/export", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rr.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="situation_1_02.xlsx"`, rr.Header().Get("Content-Disposition"))
	assert.Equal(t, "PK\x03\x04", rr.Body.String())

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/periods/4/export", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	gen.AssertExpectations(t)
}
