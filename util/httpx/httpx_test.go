package httpx

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewAppliesDefaults(t *testing.T) {
	c := New(Options{})
	require.Equal(t, 10*time.Second, c.Timeout)
	tr := c.Transport.(*http.Transport)
	require.Equal(t, 20, tr.MaxConnsPerHost)
	require.Equal(t, 10, tr.MaxIdleConnsPerHost)
}

func TestNewKeepsOverrides(t *testing.T) {
	c := New(Options{Timeout: 3 * time.Second, MaxConnsPerHost: 4})
	require.Equal(t, 3*time.Second, c.Timeout)
	require.Equal(t, 4, c.Transport.(*http.Transport).MaxConnsPerHost)
}
