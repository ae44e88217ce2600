package jwt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	tok, err := Issue("s3cret", 42, "ADMIN", "admin@example.com", 1)
	require.NoError(t, err)

	c, err := Parse("Bearer "+tok, "s3cret")
	require.NoError(t, err)
	id, err := c.UserID()
	require.NoError(t, err)
	require.Equal(t, int64(42), id)
	require.Equal(t, "ADMIN", c.Role)
	require.Equal(t, "admin@example.com", c.Email)
}

func TestParseRejects(t *testing.T) {
	tok, err := Issue("s3cret", 1, "USER", "u@example.com", 1)
	require.NoError(t, err)

	_, err = Parse(tok, "other")
	require.Error(t, err)

	_, err = Parse("Bearer ", "s3cret")
	require.Error(t, err)

	_, err = Parse("garbage", "s3cret")
	require.Error(t, err)
}
