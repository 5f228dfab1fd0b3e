package save

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

	"chantier-backend/http-server/response"
	"chantier-backend/internal/errs"
	"chantier-backend/internal/middleware/auth"
	"chantier-backend/internal/service/ledger"
	"chantier-backend/internal/storage"
)

type MockPeriodAdvancer struct {
	mock.Mock
}

func (m *MockPeriodAdvancer) Advance(ctx context.Context, owner storage.Owner, req ledger.AdvanceRequest) (*storage.Period, error) {
	args := m.Called(ctx, owner, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Period), args.Error(1)
}

func newRouter(advancer PeriodAdvancer) *chi.Mux {
	r := chi.NewRouter()
	h := AdvancePeriod(slog.Default(), advancer)
	r.Post("/api/projects/{projectID}/periods", h)
	r.Post("/api/projects/{projectID}/subcontractors/{subcontractorID}/periods", h)
	return r
}

func do(t *testing.T, router http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(auth.WithUser(req.Context(), "conducteur"))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

// Тест: период проекта создаётся, ответ 201
func TestAdvancePeriod_Project(t *testing.T) {
	advancer := new(MockPeriodAdvancer)
	advancer.On("Advance", mock.Anything, storage.Owner{ProjectID: 7}, ledger.AdvanceRequest{Author: "conducteur"}).
		Return(&storage.Period{ID: 31, Sequence: 3, State: storage.PeriodOpen}, nil)

	rr := do(t, newRouter(advancer), "/api/projects/7/periods", "")

	assert.Equal(t, http.StatusCreated, rr.Code)

	var resp storage.Period
	require.NoError(t, render.DecodeJSON(strings.NewReader(rr.Body.String()), &resp))
	assert.Equal(t, int64(31), resp.ID)
	assert.Equal(t, 3, resp.Sequence)

	advancer.AssertExpectations(t)
}

func TestAdvancePeriod_SubcontractorWithLink(t *testing.T) {
	advancer := new(MockPeriodAdvancer)
	advancer.On("Advance", mock.Anything, storage.Owner{ProjectID: 7, SubcontractorID: 4}, mock.MatchedBy(func(req ledger.AdvanceRequest) bool {
		return req.Author == "conducteur" && req.ProjectPeriodID != nil && *req.ProjectPeriodID == 31
	})).Return(&storage.Period{ID: 40, Sequence: 1}, nil)

	rr := do(t, newRouter(advancer), "/api/projects/7/subcontractors/4/periods", `{"project_period_id": 31}`)

	assert.Equal(t, http.StatusCreated, rr.Code)
	advancer.AssertExpectations(t)
}

// Тест: предыдущий период ещё открыт
func TestAdvancePeriod_PreviousNotFinalized(t *testing.T) {
	advancer := new(MockPeriodAdvancer)
	advancer.On("Advance", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errs.E(errs.PreconditionFailed, "previous period must be finalized first (period 2 is still open)"))

	rr := do(t, newRouter(advancer), "/api/projects/7/periods", "")

	assert.Equal(t, http.StatusConflict, rr.Code)

	var resp response.Response
	require.NoError(t, render.DecodeJSON(strings.NewReader(rr.Body.String()), &resp))
	assert.Equal(t, "409", resp.Status)
	assert.Contains(t, resp.Error, "previous period must be finalized first")
}

func TestAdvancePeriod_BadInput(t *testing.T) {
	advancer := new(MockPeriodAdvancer)
	router := newRouter(advancer)

	rr := do(t, router, "/api/projects/abc/periods", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, router, "/api/projects/7/periods", `{`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	advancer.AssertNotCalled(t, "Advance")
}

func TestAdvancePeriod_InternalErrorIsHidden(t *testing.T) {
	advancer := new(MockPeriodAdvancer)
	advancer.On("Advance", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errs.Wrap(errs.Internal, assert.AnError, "project ledger"))

	rr := do(t, newRouter(advancer), "/api/projects/7/periods", "")

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), assert.AnError.Error())
	assert.Contains(t, rr.Body.String(), "internal error")
}
