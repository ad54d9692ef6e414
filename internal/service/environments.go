package service

import (
	"os"

	"github.com/goccy/go-yaml"
	"github.com/haatos/simple-qa/internal/util"
)

// Environment is a named target the authoring layer can request runs
// against. An optional agent binding routes its runs to a remote machine.
type Environment struct {
	Name    string `yaml:"name"`
	BaseURL string `yaml:"base_url"`
	AgentID *int64 `yaml:"agent_id"`
}

type environmentsFile struct {
	Environments []Environment `yaml:"environments"`
}

func LoadEnvironmentCatalog(path string) (*EnvironmentCatalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseEnvironmentCatalog(b)
}

func ParseEnvironmentCatalog(b []byte) (*EnvironmentCatalog, error) {
	ef := new(environmentsFile)
	if err := yaml.Unmarshal(b, ef); err != nil {
		return nil, err
	}
	c := &EnvironmentCatalog{envs: make(map[string]Environment)}
	for _, env := range ef.Environments {
		c.envs[util.RemoveNonAlphabetChars(env.Name)] = env
	}
	return c, nil
}

type EnvironmentCatalog struct {
	envs map[string]Environment
}

// Resolve looks an environment up by name, ignoring case and punctuation.
func (c *EnvironmentCatalog) Resolve(name string) (Environment, error) {
	env, ok := c.envs[util.RemoveNonAlphabetChars(name)]
	if !ok {
		return Environment{}, ErrUnknownEnvironment{Name: name}
	}
	return env, nil
}
