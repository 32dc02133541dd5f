package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListenAddr(t *testing.T) {
	addr, err := ListenAddr("8080")
	require.NoError(t, err)
	assert.Equal(t, ":8080", addr)

	addr, err = ListenAddr(":9000")
	require.NoError(t, err)
	assert.Equal(t, ":9000", addr)

	_, err = ListenAddr(" ")
	assert.Error(t, err)
}

func TestHostPort(t *testing.T) {
	hp, err := hostPort("https://jobs.example.com/api")
	require.NoError(t, err)
	assert.Equal(t, "jobs.example.com:443", hp)

	hp, err = hostPort("http://localhost:5000")
	require.NoError(t, err)
	assert.Equal(t, "localhost:5000", hp)

	_, err = hostPort("not a url")
	assert.Error(t, err)
}
