package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/mamadbah2/praya-stock/internal/repository"
	"github.com/mamadbah2/praya-stock/internal/service/auth"
	"github.com/mamadbah2/praya-stock/internal/service/ledger"
	"github.com/mamadbah2/praya-stock/internal/spreadsheet"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{ledger.ErrItemHasHistory, http.StatusConflict},
		{fmt.Errorf("get item: %w", repository.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("row 2: %w", ledger.ErrUnknownItemCode), http.StatusUnprocessableEntity},
		{ledger.ErrInsufficientStock, http.StatusUnprocessableEntity},
		{ledger.ErrMissingDetail, http.StatusBadRequest},
		{spreadsheet.ErrEmptySpreadsheet, http.StatusBadRequest},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthzReportsUnreachableStore(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name string
		ping error
		want int
	}{
		{"reachable", nil, http.StatusOK},
		{"unreachable", errors.New("no reachable servers"), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(pingFunc(func(context.Context) error { return tt.ping }), nil)
			r := gin.New()
			r.GET("/healthz", h.Healthz)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
