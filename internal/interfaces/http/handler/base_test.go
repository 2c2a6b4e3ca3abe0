package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hydrospark/backend/internal/domain/shared"
	"github.com/hydrospark/backend/internal/interfaces/http/dto"
	"github.com/hydrospark/backend/internal/interfaces/http/middleware"
	"github.com/hydrospark/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(method, path string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, nil)
	return c, w
}

func TestGetRequestID(t *testing.T) {
	t.Run("from context", func(t *testing.T) {
		c, _ := newTestContext("GET", "/")
		c.Set(middleware.RequestIDKey, "ctx-id")
		c.Request.Header.Set(middleware.RequestIDHeader, "header-id")
		assert.Equal(t, "ctx-id", getRequestID(c))
	})

	t.Run("from header", func(t *testing.T) {
		c, _ := newTestContext("GET", "/")
		c.Request.Header.Set(middleware.RequestIDHeader, "header-id")
		assert.Equal(t, "header-id", getRequestID(c))
	})

	t.Run("empty", func(t *testing.T) {
		c, _ := newTestContext("GET", "/")
		assert.Empty(t, getRequestID(c))
	})
}

func TestBaseHandler_Success(t *testing.T) {
	h := &BaseHandler{}

	t.Run("ok", func(t *testing.T) {
		c, w := newTestContext("GET", "/")
		h.Success(c, gin.H{"k": "v"})
		data := dataMap(t, testutil.AssertSuccessResponse(t, w, http.StatusOK))
		assert.Equal(t, "v", data["k"])
	})

	t.Run("created", func(t *testing.T) {
		c, w := newTestContext("POST", "/")
		h.Created(c, gin.H{"id": "1"})
		testutil.AssertSuccessResponse(t, w, http.StatusCreated)
	})
}

func TestBaseHandler_HandleError(t *testing.T) {
	h := &BaseHandler{}

	tests := []struct {
		code   string
		status int
	}{
		{shared.CodeNotFound, http.StatusNotFound},
		{shared.CodeInsufficientData, http.StatusUnprocessableEntity},
		{shared.CodeInvalidTransition, http.StatusConflict},
		{shared.CodeDuplicatePeriod, http.StatusConflict},
		{shared.CodeNoUsageData, http.StatusUnprocessableEntity},
		{shared.CodeTimeout, http.StatusGatewayTimeout},
		{shared.CodeValidation, http.StatusBadRequest},
		{shared.CodeDuplicateReading, http.StatusConflict},
		{shared.CodeAlreadyBilled, http.StatusConflict},
		{shared.CodeInvalidState, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			c, w := newTestContext("GET", "/")
			c.Set(middleware.RequestIDKey, "req-1")
			h.HandleError(c, shared.NewDomainError(tt.code, "something happened"))

			testutil.AssertErrorResponse(t, w, tt.status, tt.code)
			errMap := testutil.JSONResponse(t, w)["error"].(map[string]interface{})
			assert.Equal(t, "something happened", errMap["message"])
			assert.Equal(t, "req-1", errMap["request_id"])
		})
	}

	t.Run("wrapped domain error", func(t *testing.T) {
		c, w := newTestContext("GET", "/")
		h.HandleError(c, fmt.Errorf("loading bill: %w", shared.NewDomainError(shared.CodeNotFound, "Bill x not found")))
		testutil.AssertErrorResponse(t, w, http.StatusNotFound, shared.CodeNotFound)
	})

	t.Run("unknown error hides details", func(t *testing.T) {
		c, w := newTestContext("GET", "/")
		h.HandleError(c, errors.New("pq: connection refused"))

		testutil.AssertErrorResponse(t, w, http.StatusInternalServerError, dto.ErrCodeInternal)
		errMap := testutil.JSONResponse(t, w)["error"].(map[string]interface{})
		assert.Equal(t, "internal error", errMap["message"])
		assert.Len(t, c.Errors, 1)
	})

	t.Run("nil error writes nothing", func(t *testing.T) {
		c, w := newTestContext("GET", "/")
		h.HandleError(c, nil)
		assert.Equal(t, 0, w.Body.Len())
	})
}

func TestBaseHandler_ParseUUIDParam(t *testing.T) {
	h := &BaseHandler{}

	t.Run("valid", func(t *testing.T) {
		id := uuid.New()
		c, _ := newTestContext("GET", "/")
		c.Params = gin.Params{{Key: "id", Value: id.String()}}
		got, ok := h.ParseUUIDParam(c, "id")
		require.True(t, ok)
		assert.Equal(t, id, got)
	})

	t.Run("invalid", func(t *testing.T) {
		c, w := newTestContext("GET", "/")
		c.Params = gin.Params{{Key: "id", Value: "nope"}}
		_, ok := h.ParseUUIDParam(c, "id")
		assert.False(t, ok)
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, shared.CodeValidation)
	})
}

func TestBindingMessage(t *testing.T) {
	type req struct {
		Notes string `json:"notes" binding:"max=3"`
		Name  string `json:"name" binding:"required"`
	}

	engine := gin.New()
	h := &BaseHandler{}
	engine.POST("/", func(c *gin.Context) {
		var r req
		if h.BindJSON(c, &r) {
			h.Success(c, r)
		}
	})

	t.Run("reports the failing rule", func(t *testing.T) {
		w := testutil.PerformRequest(t, engine, "POST", "/", map[string]string{"notes": "long notes", "name": "a"})
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, shared.CodeValidation)
		errMap := testutil.JSONResponse(t, w)["error"].(map[string]interface{})
		assert.Equal(t, "Invalid Notes: failed max=3", errMap["message"])
	})

	t.Run("missing required field", func(t *testing.T) {
		w := testutil.PerformRequest(t, engine, "POST", "/", map[string]string{"notes": "ok"})
		errMap := testutil.JSONResponse(t, w)["error"].(map[string]interface{})
		assert.Equal(t, "Invalid Name: failed required", errMap["message"])
	})

	t.Run("malformed json", func(t *testing.T) {
		w := testutil.PerformRequest(t, engine, "POST", "/", "not an object")
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, shared.CodeValidation)
	})
}
