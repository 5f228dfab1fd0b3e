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

	"chantier-backend/internal/errs"
	"chantier-backend/internal/storage"
)

type MockPeriodReader struct {
	mock.Mock
}

func (m *MockPeriodReader) List(ctx context.Context, owner storage.Owner) ([]*storage.Period, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*storage.Period), args.Error(1)
}

func (m *MockPeriodReader) Get(ctx context.Context, periodID int64) (*storage.Period, error) {
	args := m.Called(ctx, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Period), args.Error(1)
}

func (m *MockPeriodReader) ListSubcontractor(ctx context.Context, owner storage.Owner) (*storage.SubcontractorPeriods, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.SubcontractorPeriods), args.Error(1)
}

func newRouter(reader *MockPeriodReader) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/api/projects/{projectID}/periods", ListPeriods(slog.Default(), reader))
	r.Get("/api/periods/{periodID}", GetPeriod(slog.Default(), reader))
	r.Get("/api/projects/{projectID}/subcontractors/{subcontractorID}/periods", ListSubcontractorPeriods(slog.Default(), reader))
	return r
}

// Тест: список периодов, новые первыми
func TestListPeriods_Success(t *testing.T) {
	reader := new(MockPeriodReader)
	reader.On("List", mock.Anything, storage.Owner{ProjectID: 3}).Return([]*storage.Period{
		{ID: 2, Sequence: 2, State: storage.PeriodOpen},
		{ID: 1, Sequence: 1, State: storage.PeriodFinalized},
	}, nil)

	rr := httptest.NewRecorder()
	newRouter(reader).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/projects/3/periods", nil))

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp []storage.Period
	require.NoError(t, render.DecodeJSON(strings.NewReader(rr.Body.String()), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, 2, resp[0].Sequence)
	assert.Equal(t, storage.PeriodFinalized, resp[1].State)

	reader.AssertExpectations(t)
}

func TestListPeriods_InvalidProject(t *testing.T) {
	reader := new(MockPeriodReader)

	rr := httptest.NewRecorder()
	newRouter(reader).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/projects/0/periods", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	reader.AssertNotCalled(t, "List")
}

func TestGetPeriod(t *testing.T) {
	reader := new(MockPeriodReader)
	reader.On("Get", mock.Anything, int64(5)).Return(&storage.Period{ID: 5, Sequence: 1, Author: "marie"}, nil)
	reader.On("Get", mock.Anything, int64(6)).Return(nil, errs.E(errs.NotFound, "period 6 not found"))

	router := newRouter(reader)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/periods/5", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"author":"marie"`)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/periods/6", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "period 6 not found")
}

func TestListSubcontractorPeriods(t *testing.T) {
	reader := new(MockPeriodReader)
	reader.On("ListSubcontractor", mock.Anything, storage.Owner{ProjectID: 3, SubcontractorID: 8}).
		Return(&storage.SubcontractorPeriods{
			Subcontractor: &storage.Subcontractor{ID: 8, Name: "Electricité Martin"},
			Periods:       []*storage.Period{{ID: 11, Sequence: 1}},
		}, nil)

	rr := httptest.NewRecorder()
	newRouter(reader).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/projects/3/subcontractors/8/periods", nil))

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp storage.SubcontractorPeriods
	require.NoError(t, render.DecodeJSON(strings.NewReader(rr.Body.String()), &resp))
	require.NotNil(t, resp.Subcontractor)
	assert.Equal(t, "Electricité Martin", resp.Subcontractor.Name)
	assert.Len(t, resp.Periods, 1)
}
