package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndCheck(t *testing.T) {
	h, err := HashPassword("correct horse")
	require.NoError(t, err)
	require.NotEqual(t, "correct horse", h)
	require.True(t, Check(h, "correct horse"))
	require.False(t, Check(h, "battery staple"))
}
