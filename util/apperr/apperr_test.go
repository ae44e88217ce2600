package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodeOf(t *testing.T) {
	require.Equal(t, CodeNotFound, CodeOf(NotFound("lease %d not found", 3)))
	require.Equal(t, CodeConflict, CodeOf(fmt.Errorf("approve: %w", Conflict("unit busy"))))
	require.Equal(t, Code(""), CodeOf(errors.New("plain")))
	require.Equal(t, Code(""), CodeOf(nil))
}

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("wrap: %w", InvalidState("only pending leases can be activated"))
	require.True(t, errors.Is(err, ErrInvalidState))
	require.False(t, errors.Is(err, ErrConflict))
	require.Equal(t, "only pending leases can be activated", errors.Unwrap(err).Error())
}
