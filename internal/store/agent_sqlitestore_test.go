package store

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"testing"

	"github.com/haatos/simple-qa/internal/util"
	"github.com/stretchr/testify/suite"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type agentSQLiteStoreSuite struct {
	agentStore *AgentSQLiteStore
	db         *sql.DB
	suite.Suite
}

func TestAgentSQLiteStore(t *testing.T) {
	suite.Run(t, new(agentSQLiteStoreSuite))
}

func (suite *agentSQLiteStoreSuite) SetupSuite() {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		log.Fatal(err)
	}
	suite.db = db
	_, err = db.Exec("PRAGMA foreign_keys = ON;")
	if err != nil {
		log.Fatal(err)
	}

	RunMigrations(db, "sqlite")

	suite.agentStore = NewAgentSQLiteStore(db, db)
}

func (suite *agentSQLiteStoreSuite) TearDownSuite() {
	_ = suite.db.Close()
}

func (suite *agentSQLiteStoreSuite) createAgent(name string) *Agent {
	a, err := suite.agentStore.CreateAgent(
		context.Background(),
		name,
		"host.example.com",
		"qa",
		"/home/qa/workspace",
		"test agent",
		util.AsPtr("encryptedkey"),
	)
	if err != nil {
		log.Fatal(err)
	}
	return a
}

func (suite *agentSQLiteStoreSuite) TestAgentSQLiteStore_CreateAgent() {
	suite.Run("success - agent created", func() {
		// act
		a := suite.createAgent("create agent")

		// assert
		suite.NotEqual(int64(0), a.AgentID)
		suite.Equal("create agent", a.Name)
		suite.Equal("host.example.com", a.Hostname)
		suite.Equal("qa", a.Username)
		suite.NotNil(a.SSHPrivateKeyHash)
	})
	suite.Run("failure - duplicate name rejected", func() {
		// arrange
		suite.createAgent("duplicate agent")

		// act
		_, err := suite.agentStore.CreateAgent(
			context.Background(),
			"duplicate agent", "other.example.com", "qa", "/tmp", "", nil,
		)

		// assert
		suite.Error(err)
		var sqErr *sqlite.Error
		suite.True(errors.As(err, &sqErr))
		suite.Equal(sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqErr.Code())
	})
}

func (suite *agentSQLiteStoreSuite) TestAgentSQLiteStore_ReadAgentByID() {
	suite.Run("success - agent found", func() {
		// arrange
		expected := suite.createAgent("read agent")

		// act
		a, err := suite.agentStore.ReadAgentByID(context.Background(), expected.AgentID)

		// assert
		suite.NoError(err)
		suite.Equal(expected.Name, a.Name)
		suite.Equal(expected.Hostname, a.Hostname)
		suite.Equal(expected.Workspace, a.Workspace)
	})
	suite.Run("failure - agent not found", func() {
		// act
		a, err := suite.agentStore.ReadAgentByID(context.Background(), 43241)

		// assert
		suite.Error(err)
		suite.True(errors.Is(err, sql.ErrNoRows))
		suite.Nil(a)
	})
}

func (suite *agentSQLiteStoreSuite) TestAgentSQLiteStore_UpdateAgent() {
	suite.Run("success - agent updated", func() {
		// arrange
		a := suite.createAgent("update agent")

		// act
		err := suite.agentStore.UpdateAgent(
			context.Background(),
			a.AgentID,
			"updated agent", "new.example.com", "runner", "/srv/qa", "moved",
		)

		// assert
		suite.NoError(err)
		updated, err := suite.agentStore.ReadAgentByID(context.Background(), a.AgentID)
		suite.NoError(err)
		suite.Equal("updated agent", updated.Name)
		suite.Equal("new.example.com", updated.Hostname)
		suite.Equal("runner", updated.Username)
		suite.Equal("/srv/qa", updated.Workspace)
		// credentials are not touched by a plain update
		suite.NotNil(updated.SSHPrivateKeyHash)
	})
}

func (suite *agentSQLiteStoreSuite) TestAgentSQLiteStore_DeleteAgent() {
	suite.Run("success - agent removed", func() {
		// arrange
		a := suite.createAgent("delete agent")

		// act
		err := suite.agentStore.DeleteAgent(context.Background(), a.AgentID)

		// assert
		suite.NoError(err)
		_, err = suite.agentStore.ReadAgentByID(context.Background(), a.AgentID)
		suite.True(errors.Is(err, sql.ErrNoRows))
	})
}

func (suite *agentSQLiteStoreSuite) TestAgentSQLiteStore_ListAgents() {
	suite.Run("success - created agents listed", func() {
		// arrange
		a := suite.createAgent("list agent")

		// act
		agents, err := suite.agentStore.ListAgents(context.Background())

		// assert
		suite.NoError(err)
		found := false
		for _, listed := range agents {
			if listed.AgentID == a.AgentID {
				found = true
			}
		}
		suite.True(found)
	})
}
