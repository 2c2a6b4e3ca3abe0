package handler

import (
	"net/http"
	"testing"

	"github.com/hydrospark/backend/internal/domain/shared"
	"github.com/hydrospark/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerHandler(t *testing.T) {
	f := newAPI(t)
	var id string

	t.Run("register", func(t *testing.T) {
		w := testutil.PerformRequest(t, f.engine, "POST", "/customers", map[string]interface{}{
			"name":          "Ridge Bakery",
			"address":       "4 Kiln St",
			"customer_type": "commercial",
			"cycle_number":  12,
			"business_name": "Ridge Bakery LLC",
		})
		data := dataMap(t, testutil.AssertSuccessResponse(t, w, http.StatusCreated))
		id = data["id"].(string)
		assert.Equal(t, "Ridge Bakery", data["name"])
		assert.Equal(t, "commercial", data["customer_type"])
		assert.EqualValues(t, 12, data["cycle_number"])
		assert.Equal(t, "Ridge Bakery LLC", data["business_name"])
	})

	t.Run("register rejects unknown type", func(t *testing.T) {
		w := testutil.PerformRequest(t, f.engine, "POST", "/customers", map[string]interface{}{
			"name": "X", "address": "Y", "customer_type": "industrial", "cycle_number": 1,
		})
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, shared.CodeValidation)
	})

	t.Run("register rejects cycle outside 1..28", func(t *testing.T) {
		w := testutil.PerformRequest(t, f.engine, "POST", "/customers", map[string]interface{}{
			"name": "X", "address": "Y", "customer_type": "residential", "cycle_number": 31,
		})
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, shared.CodeValidation)
	})

	t.Run("get and list", func(t *testing.T) {
		require.NotEmpty(t, id)
		w := testutil.PerformRequest(t, f.engine, "GET", "/customers/"+id, nil)
		assert.Equal(t, id, dataMap(t, testutil.AssertSuccessResponse(t, w, http.StatusOK))["id"])

		w = testutil.PerformRequest(t, f.engine, "GET", "/customers", nil)
		assert.Len(t, dataList(t, testutil.AssertSuccessResponse(t, w, http.StatusOK)), 1)
	})

	t.Run("get unknown", func(t *testing.T) {
		w := testutil.PerformRequest(t, f.engine, "GET", "/customers/"+testutil.NewTestUUID("ghost").String(), nil)
		testutil.AssertErrorResponse(t, w, http.StatusNotFound, shared.CodeNotFound)
	})

	t.Run("get malformed id", func(t *testing.T) {
		w := testutil.PerformRequest(t, f.engine, "GET", "/customers/42", nil)
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, shared.CodeValidation)
	})

	t.Run("change cycle before first bill", func(t *testing.T) {
		w := testutil.PerformRequest(t, f.engine, "PUT", "/customers/"+id+"/cycle", map[string]int{"cycle_number": 20})
		data := dataMap(t, testutil.AssertSuccessResponse(t, w, http.StatusOK))
		assert.EqualValues(t, 20, data["cycle_number"])
	})
}

func TestCustomerHandler_ChangeCycleAfterBilling(t *testing.T) {
	f := newAPI(t)
	id := f.seedCustomer(t, 1, testutil.Day(2024, 1, 10))
	f.seedReadings(t, id, testutil.Day(2024, 1, 1), repeat(1, 31)...)

	w := testutil.PerformRequest(t, f.engine, "POST", "/bills/generate", nil)
	testutil.AssertSuccessResponse(t, w, http.StatusOK)

	w = testutil.PerformRequest(t, f.engine, "PUT", "/customers/"+id.String()+"/cycle", map[string]int{"cycle_number": 5})
	testutil.AssertErrorResponse(t, w, http.StatusUnprocessableEntity, shared.CodeInvalidState)
}
