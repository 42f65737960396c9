package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/fusion"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestSendRunErrorClassifiesWrappedErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &FusionHandler{}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "held lock maps to conflict",
			err:        fusion.ErrLockHeld,
			wantStatus: http.StatusConflict,
			wantCode:   "CONFLICT",
		},
		{
			name:       "held lock survives the listing wrap",
			err:        fmt.Errorf("Failed to list accounts: %w", fusion.ErrLockHeld),
			wantStatus: http.StatusConflict,
			wantCode:   "CONFLICT",
		},
		{
			name:       "config error survives the listing wrap",
			err:        fmt.Errorf("Failed to list accounts: %w", &fusion.ConfigError{Detail: "no rules"}),
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "anything else is internal",
			err:        errors.New("connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			h.sendRunError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantCode)
		})
	}
}
