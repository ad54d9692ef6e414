package store

import (
	"context"
	"time"
)

// Agent is a remote machine test workers can be launched on over SSH.
type Agent struct {
	AgentID           int64
	Name              string
	Hostname          string
	Username          string
	Workspace         string
	Description       string
	SSHPrivateKeyHash *string
	CreatedOn         time.Time
}

type AgentStore interface {
	CreateAgent(context.Context, string, string, string, string, string, *string) (*Agent, error)
	ReadAgentByID(context.Context, int64) (*Agent, error)
	UpdateAgent(context.Context, int64, string, string, string, string, string) error
	DeleteAgent(context.Context, int64) error
	ListAgents(context.Context) ([]*Agent, error)
}
