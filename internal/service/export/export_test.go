package export

import (
	"bytes"
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"chantier-backend/internal/errs"
	"chantier-backend/internal/storage"
)

type MockPeriodReader struct {
	mock.Mock
}

func (m *MockPeriodReader) Get(ctx context.Context, periodID int64) (*storage.Period, error) {
	args := m.Called(ctx, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Period), args.Error(1)
}

func progress(prev, cur, cum string) storage.Progress {
	return storage.Progress{
		Previous:   decimal.RequireFromString(prev),
		Current:    decimal.RequireFromString(cur),
		Cumulative: decimal.RequireFromString(cum),
	}
}

func samplePeriod() *storage.Period {
	return &storage.Period{
		ID:       12,
		Owner:    storage.Owner{ProjectID: 1},
		Sequence: 2,
		Author:   "marie",
		Comment:  "Pluie semaine 14",
		State:    storage.PeriodOpen,
		Project:  &storage.Project{ID: 1, Name: "Ecole Jules Ferry"},
		Lines: []storage.Line{{
			Article:     "GO-01",
			Description: "Gros oeuvre",
			Unit:        "u",
			UnitPrice:   decimal.NewFromInt(100),
			OrderedQty:  decimal.NewFromInt(10),
			Quantity:    progress("4", "3", "7"),
			Amount:      progress("400", "300", "700"),
		}},
		ChangeOrderLines: []storage.Line{{
			Description: "Reprise dalle",
			Unit:        "m2",
			UnitPrice:   decimal.RequireFromString("12.5"),
			Quantity:    progress("0", "2", "2"),
			Amount:      progress("0", "25", "25"),
		}},
		Totals: storage.PeriodTotals{
			Amount:          progress("400", "325", "725"),
			TaxRate:         decimal.RequireFromString("0.2"),
			CurrentTax:      decimal.NewFromInt(65),
			CurrentGross:    decimal.NewFromInt(390),
			CumulativeTax:   decimal.NewFromInt(145),
			CumulativeGross: decimal.NewFromInt(870),
		},
	}
}

// Тест: лист содержит строки заказа, доп. работы и итоги
func TestPeriodSheet(t *testing.T) {
	reader := new(MockPeriodReader)
	reader.On("Get", mock.Anything, int64(12)).Return(samplePeriod(), nil)

	data, name, err := New(reader).PeriodSheet(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, "situation_1_02.xlsx", name)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	sheet := "Situation 2"
	raw := excelize.Options{RawCellValue: true}
	get := func(c string) string {
		v, err := f.GetCellValue(sheet, c, raw)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "Ecole Jules Ferry - situation n°2", get("A1"))
	assert.Equal(t, "marie", get("B1"))
	assert.Equal(t, "Désignation", get("B3"))

	// строка 4: исходная строка заказа
	assert.Equal(t, "Gros oeuvre", get("B4"))
	assert.Equal(t, "4", get("G4"))
	assert.Equal(t, "3", get("H4"))
	assert.Equal(t, "7", get("I4"))
	assert.Equal(t, "700", get("L4"))

	assert.Equal(t, "Travaux supplémentaires", get("A5"))
	assert.Equal(t, "Reprise dalle", get("B6"))
	assert.Equal(t, "12.5", get("E6"))

	assert.Equal(t, "Total HT", get("B8"))
	assert.Equal(t, "725", get("L8"))
	assert.Equal(t, "TVA 20 %", get("B9"))
	assert.Equal(t, "65", get("K9"))
	assert.Equal(t, "Total TTC", get("B10"))
	assert.Equal(t, "870", get("L10"))
}

func TestPeriodSheet_Subcontractor(t *testing.T) {
	p := samplePeriod()
	p.Owner.SubcontractorID = 5
	p.ChangeOrderLines = nil

	reader := new(MockPeriodReader)
	reader.On("Get", mock.Anything, int64(12)).Return(p, nil)

	_, name, err := New(reader).PeriodSheet(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, "situation_1_st5_02.xlsx", name)
}

func TestPeriodSheet_NotFound(t *testing.T) {
	reader := new(MockPeriodReader)
	reader.On("Get", mock.Anything, int64(99)).Return(nil, errs.E(errs.NotFound, "period 99 not found"))

	_, _, err := New(reader).PeriodSheet(context.Background(), 99)
	assert.True(t, errs.Is(err, errs.NotFound))
}
