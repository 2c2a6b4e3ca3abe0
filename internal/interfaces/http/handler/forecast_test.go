package handler

import (
	"net/http"
	"testing"

	"github.com/hydrospark/backend/internal/domain/shared"
	"github.com/hydrospark/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForecastHandler(t *testing.T) {
	f := newAPI(t)
	id := f.seedCustomer(t, 1, testutil.Day(2024, 1, 1))
	f.seedReadings(t, id, testutil.Day(2024, 1, 1), repeat(10, 14)...)
	path := "/forecasts/customers/" + id.String()

	t.Run("forecast", func(t *testing.T) {
		w := testutil.PerformRequest(t, f.engine, "GET", path+"?days=7", nil)
		data := dataMap(t, testutil.AssertSuccessResponse(t, w, http.StatusOK))
		assert.Equal(t, "2024-01-15", data["start_date"])
		assert.EqualValues(t, 7, data["horizon_days"])
		assert.Len(t, data["daily"], 7)
		assert.InDelta(t, 70, data["total_predicted_usage"], 1e-6)
		// (25 + 30 + 50*3.5) * 0.9 winter + 20 fees
		assert.Equal(t, "227.00", data["predicted_total_amount"])

		charge := dataMap(t, data["charge"])
		assert.Equal(t, "winter", charge["season"])
		assert.Len(t, charge["tiers"], 3)
	})

	t.Run("defaults to thirty days", func(t *testing.T) {
		w := testutil.PerformRequest(t, f.engine, "GET", path, nil)
		assert.EqualValues(t, 30, dataMap(t, testutil.AssertSuccessResponse(t, w, http.StatusOK))["horizon_days"])
	})

	t.Run("horizon bounds", func(t *testing.T) {
		for _, q := range []string{"?days=0", "?days=-1", "?days=366", "?days=ten"} {
			w := testutil.PerformRequest(t, f.engine, "GET", path+q, nil)
			testutil.AssertErrorResponse(t, w, http.StatusBadRequest, shared.CodeValidation)
		}
	})

	t.Run("forecasted bill for next month", func(t *testing.T) {
		w := testutil.PerformRequest(t, f.engine, "GET", path+"/bill", nil)
		data := dataMap(t, testutil.AssertSuccessResponse(t, w, http.StatusOK))
		assert.EqualValues(t, 4, data["month"])
		assert.EqualValues(t, 2024, data["year"])
		assert.EqualValues(t, 30, data["days"])
		assert.InDelta(t, 300, data["predicted_usage"], 1e-6)
		assert.Equal(t, "1055.00", data["predicted_total_amount"])
	})

	t.Run("forecasted bill for a summer month", func(t *testing.T) {
		w := testutil.PerformRequest(t, f.engine, "GET", path+"/bill?month=7&year=2024", nil)
		data := dataMap(t, testutil.AssertSuccessResponse(t, w, http.StatusOK))
		assert.EqualValues(t, 31, data["days"])
		assert.Equal(t, "summer", dataMap(t, data["charge"])["season"])
	})

	t.Run("forecasted bill for an earlier month rolls into next year", func(t *testing.T) {
		w := testutil.PerformRequest(t, f.engine, "GET", path+"/bill?month=1", nil)
		data := dataMap(t, testutil.AssertSuccessResponse(t, w, http.StatusOK))
		assert.EqualValues(t, 1, data["month"])
		assert.EqualValues(t, 2025, data["year"])
	})

	t.Run("forecasted bill rejects month 13", func(t *testing.T) {
		w := testutil.PerformRequest(t, f.engine, "GET", path+"/bill?month=13", nil)
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, shared.CodeValidation)
	})

	t.Run("no history", func(t *testing.T) {
		empty := f.seedCustomer(t, 1, testutil.Day(2024, 1, 1))
		w := testutil.PerformRequest(t, f.engine, "GET", "/forecasts/customers/"+empty.String(), nil)
		testutil.AssertErrorResponse(t, w, http.StatusUnprocessableEntity, shared.CodeInsufficientData)
	})

	t.Run("unknown customer", func(t *testing.T) {
		w := testutil.PerformRequest(t, f.engine, "GET", "/forecasts/customers/"+testutil.NewTestUUID("nope").String()+"/bill", nil)
		require.Equal(t, http.StatusNotFound, w.Code)
		testutil.AssertErrorResponse(t, w, http.StatusNotFound, shared.CodeNotFound)
	})
}
