package handler_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/robalyx/verdict/internal/apperr"
	"github.com/robalyx/verdict/internal/rest/handler"
	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "validation", err: apperr.Validation("op", "bad"), want: http.StatusBadRequest},
		{name: "authorization", err: apperr.Authorization("op", "no"), want: http.StatusForbidden},
		{name: "not found", err: apperr.NotFound("op", "gone"), want: http.StatusNotFound},
		{name: "conflict", err: apperr.Conflict("op", "dup"), want: http.StatusConflict},
		{
			name: "payment processing",
			err:  apperr.New(apperr.KindPaymentProcessing, "op", "retry"),
			want: http.StatusServiceUnavailable,
		},
		{
			name: "pay protected",
			err:  apperr.New(apperr.KindPayProtected, "op", "protected"),
			want: http.StatusInternalServerError,
		},
		{
			name: "wrapped classified",
			err:  fmt.Errorf("outer: %w", apperr.Conflict("op", "dup")),
			want: http.StatusConflict,
		},
		{name: "unclassified", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, handler.StatusOf(tt.err))
		})
	}
}
