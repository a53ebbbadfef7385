package response

import (
	"errors"
	"fmt"
	"testing"

	"cmms-engine/internal/core/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", domain.ErrValidation, fiber.StatusBadRequest},
		{"insufficient stock", fmt.Errorf("reserve: %w", domain.ErrInsufficientStock), fiber.StatusBadRequest},
		{"unauthorized", domain.ErrUnauthorized, fiber.StatusForbidden},
		{"not found", domain.NotFound("work order", "wo-1"), fiber.StatusNotFound},
		{"invalid state", domain.ErrInvalidState, fiber.StatusConflict},
		{"conflict", domain.Conflict("part", "p-1"), fiber.StatusConflict},
		{"fiber error", fiber.ErrMethodNotAllowed, fiber.StatusMethodNotAllowed},
		{"unknown", errors.New("disk on fire"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}
