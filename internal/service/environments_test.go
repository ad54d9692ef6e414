package service

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

const environmentsYAML = `environments:
  - name: Staging
    base_url: https://staging.example.com
  - name: production
    base_url: https://www.example.com
    agent_id: 3
`

func TestEnvironmentCatalog(t *testing.T) {
	t.Run("success - environments resolved by normalized name", func(t *testing.T) {
		catalog, err := ParseEnvironmentCatalog([]byte(environmentsYAML))
		assert.NoError(t, err)

		env, err := catalog.Resolve("staging")
		assert.NoError(t, err)
		assert.Equal(t, "https://staging.example.com", env.BaseURL)
		assert.Nil(t, env.AgentID)

		env, err = catalog.Resolve("STAGING")
		assert.NoError(t, err)
		assert.Equal(t, "Staging", env.Name)

		env, err = catalog.Resolve("production")
		assert.NoError(t, err)
		assert.NotNil(t, env.AgentID)
		assert.Equal(t, int64(3), *env.AgentID)
	})
	t.Run("failure - unknown environment", func(t *testing.T) {
		catalog, err := ParseEnvironmentCatalog([]byte(environmentsYAML))
		assert.NoError(t, err)

		_, err = catalog.Resolve("qa")

		var envErr ErrUnknownEnvironment
		assert.True(t, errors.As(err, &envErr))
		assert.Equal(t, "qa", envErr.Name)
	})
	t.Run("failure - invalid yaml", func(t *testing.T) {
		_, err := ParseEnvironmentCatalog([]byte("environments: {nope"))
		assert.Error(t, err)
	})
	t.Run("success - catalog loaded from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "environments.yaml")
		assert.NoError(t, os.WriteFile(path, []byte(environmentsYAML), 0o644))

		catalog, err := LoadEnvironmentCatalog(path)
		assert.NoError(t, err)
		_, err = catalog.Resolve("staging")
		assert.NoError(t, err)
	})
}
