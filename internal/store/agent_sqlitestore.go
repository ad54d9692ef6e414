package store

import (
	"context"
	"database/sql"

	"github.com/georgysavva/scany/v2/sqlscan"
)

type AgentSQLiteStore struct {
	rdb, rwdb *sql.DB
}

func NewAgentSQLiteStore(rdb, rwdb *sql.DB) *AgentSQLiteStore {
	return &AgentSQLiteStore{rdb, rwdb}
}

func (store *AgentSQLiteStore) CreateAgent(
	ctx context.Context,
	name, hostname, username, workspace, description string,
	sshPrivateKeyHash *string,
) (*Agent, error) {
	a := &Agent{
		Name:              name,
		Hostname:          hostname,
		Username:          username,
		Workspace:         workspace,
		Description:       description,
		SSHPrivateKeyHash: sshPrivateKeyHash,
	}
	query := `insert into agents (
		name,
		hostname,
		username,
		workspace,
		description,
		ssh_private_key_hash
	)
	values ($1, $2, $3, $4, $5, $6)
	returning agent_id`
	err := sqlscan.Get(
		ctx, store.rwdb, a, query,
		a.Name,
		a.Hostname,
		a.Username,
		a.Workspace,
		a.Description,
		a.SSHPrivateKeyHash,
	)
	return a, err
}

func (store *AgentSQLiteStore) ReadAgentByID(ctx context.Context, id int64) (*Agent, error) {
	a := &Agent{AgentID: id}
	query := `select * from agents where agent_id = $1`
	err := sqlscan.Get(ctx, store.rdb, a, query, a.AgentID)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (store *AgentSQLiteStore) UpdateAgent(
	ctx context.Context,
	id int64,
	name, hostname, username, workspace, description string,
) error {
	query := `update agents
	set name = $1,
		hostname = $2,
		username = $3,
		workspace = $4,
		description = $5
	where agent_id = $6`
	_, err := store.rwdb.ExecContext(
		ctx, query,
		name,
		hostname,
		username,
		workspace,
		description,
		id,
	)
	return err
}

func (store *AgentSQLiteStore) DeleteAgent(ctx context.Context, id int64) error {
	query := "delete from agents where agent_id = $1"
	_, err := store.rwdb.ExecContext(ctx, query, id)
	return err
}

func (store *AgentSQLiteStore) ListAgents(ctx context.Context) ([]*Agent, error) {
	query := "select * from agents order by agent_id"
	agents := make([]*Agent, 0)
	err := sqlscan.Select(ctx, store.rdb, &agents, query)
	return agents, err
}
