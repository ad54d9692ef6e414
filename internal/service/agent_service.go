package service

import (
	"context"
	"fmt"

	"github.com/haatos/simple-qa/internal/security"
	"github.com/haatos/simple-qa/internal/store"
	"github.com/haatos/simple-qa/internal/util"
)

type AgentServicer interface {
	CreateAgent(context.Context, string, string, string, string, string, string) (*store.Agent, error)
	GetAgentByID(context.Context, int64) (*store.Agent, error)
	UpdateAgent(context.Context, int64, string, string, string, string, string) error
	DeleteAgent(context.Context, int64) error
	ListAgents(context.Context) ([]*store.Agent, error)
	TestAgentConnection(context.Context, int64) error
}

func NewAgentService(agentStore store.AgentStore, encrypter security.Encrypter) *AgentService {
	return &AgentService{agentStore: agentStore, encrypter: encrypter}
}

type AgentService struct {
	agentStore store.AgentStore
	encrypter  security.Encrypter
}

func (s *AgentService) CreateAgent(
	ctx context.Context,
	name, hostname, username, workspace, description, sshPrivateKey string,
) (*store.Agent, error) {
	var keyHash *string
	if sshPrivateKey != "" {
		keyHash = util.AsPtr(s.encrypter.EncryptAES(sshPrivateKey))
	}
	return s.agentStore.CreateAgent(
		ctx, name, hostname, username, workspace, description, keyHash,
	)
}

func (s *AgentService) GetAgentByID(ctx context.Context, id int64) (*store.Agent, error) {
	return s.agentStore.ReadAgentByID(ctx, id)
}

func (s *AgentService) UpdateAgent(
	ctx context.Context,
	id int64,
	name, hostname, username, workspace, description string,
) error {
	return s.agentStore.UpdateAgent(
		ctx, id, name, hostname, username, workspace, description,
	)
}

func (s *AgentService) DeleteAgent(ctx context.Context, id int64) error {
	return s.agentStore.DeleteAgent(ctx, id)
}

func (s *AgentService) ListAgents(ctx context.Context) ([]*store.Agent, error) {
	return s.agentStore.ListAgents(ctx)
}

// TestAgentConnection opens an SSH session on the agent and runs a no-op
// command.
func (s *AgentService) TestAgentConnection(ctx context.Context, id int64) error {
	a, err := s.agentStore.ReadAgentByID(ctx, id)
	if err != nil {
		return err
	}
	if a.SSHPrivateKeyHash == nil {
		return fmt.Errorf("agent %s has no credentials", a.Name)
	}
	privateKey, err := s.encrypter.DecryptAES(*a.SSHPrivateKeyHash)
	if err != nil {
		return err
	}

	client, err := connectSSH(a.Username, a.Hostname, privateKey)
	if err != nil {
		return err
	}
	defer client.Close()

	sess, err := client.NewSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	if _, err := sess.Output("echo ok"); err != nil {
		return err
	}
	return nil
}
