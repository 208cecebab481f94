package pkg

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadUserIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "83.12.53.65:2145"
	ip, err := ReadUserIP(r)
	require.NoError(t, err)
	assert.Equal(t, "83.12.53.65", ip)

	r = httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.5:1234"
	r.Header.Set("X-Real-Ip", "111.12.56.65")
	ip, err = ReadUserIP(r)
	require.NoError(t, err)
	assert.Equal(t, "111.12.56.65", ip)

	r = httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "127.0.0.1:51234"
	ip, err = ReadUserIP(r)
	require.NoError(t, err)
	assert.Equal(t, "localhost", ip)

	r = httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "not-an-ip"
	_, err = ReadUserIP(r)
	assert.Error(t, err)
}
