package httputil

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/ardhix/warehouse-ledger/internal/apperr"
)

func TestFailStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", apperr.Validation("supplier", "required"), http.StatusBadRequest},
		{"not found", fmt.Errorf("%w: SP-01", apperr.ErrNotFound), http.StatusNotFound},
		{"forbidden", apperr.ErrForbidden, http.StatusForbidden},
		{"already resolved", apperr.ErrAlreadyResolved, http.StatusConflict},
		{"conflict", apperr.ErrConflict, http.StatusConflict},
		{"insufficient stock", fmt.Errorf("%w: SP-01", apperr.ErrInsufficientStock), http.StatusUnprocessableEntity},
		{"invalid quantity", apperr.ErrInvalidQuantity, http.StatusUnprocessableEntity},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)

			Fail(c, tc.err)
			assert.Equal(t, tc.status, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestSuccessEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	Success(c, "OK", gin.H{"code": "SP-01"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"message":"OK"`)
	assert.Contains(t, rec.Body.String(), `"SP-01"`)
}
