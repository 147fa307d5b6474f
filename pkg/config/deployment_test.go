package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDeploymentValid(t *testing.T) {
	data := []byte(`
cache:
  path: /var/lib/palisade/cache.db
  max_open_conns: 10
coordinator:
  token_ttl: 15m
timeouts:
  cache: 2s
  user: 1s
  resource: 1s
  policy: 2s
`)
	d, err := ParseDeployment(data)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/palisade/cache.db", d.Cache.Path)
	assert.Equal(t, 10, d.Cache.MaxOpenConns)
	assert.Equal(t, "15m0s", d.Coordinator.TokenTTL.String())
}

func TestParseDeploymentMissingCachePathFails(t *testing.T) {
	data := []byte(`
coordinator:
  token_ttl: 15m
`)
	_, err := ParseDeployment(data)
	require.Error(t, err)
}

func TestParseDeploymentRejectsMalformedYAML(t *testing.T) {
	_, err := ParseDeployment([]byte("not: valid: yaml: :::"))
	require.Error(t, err)
}
