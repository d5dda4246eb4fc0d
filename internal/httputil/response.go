package httputil

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ardhix/warehouse-ledger/internal/apperr"
)

func Success(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"data":    data,
	})
}

// Fail maps engine errors onto HTTP statuses and returns the error text
// verbatim so the UI can show a precise message.
func Fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case apperr.IsValidation(err):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, apperr.ErrAlreadyResolved), errors.Is(err, apperr.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, apperr.ErrInsufficientStock), errors.Is(err, apperr.ErrInvalidQuantity):
		status = http.StatusUnprocessableEntity
	}

	c.JSON(status, gin.H{
		"message": http.StatusText(status),
		"error":   err.Error(),
	})
}
