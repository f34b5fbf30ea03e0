//go:build integration

package introspect

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"

	"github.com/arwahdevops/dbcompare/internal/config"
	"github.com/arwahdevops/dbcompare/internal/db"
	"github.com/arwahdevops/dbcompare/internal/differ"
	"github.com/arwahdevops/dbcompare/internal/parser"
	"github.com/arwahdevops/dbcompare/internal/schema"
)

const (
	mysqlImage    = "mysql:8.0"
	postgresImage = "postgres:13-alpine"
)

type containerDB struct {
	container testcontainers.Container
	cfg       config.DatabaseConfig
	user      string
	password  string
}

func mustPortInt(t *testing.T, port nat.Port) int {
	t.Helper()
	p, err := strconv.Atoi(port.Port())
	require.NoError(t, err)
	return p
}

func startContainer(ctx context.Context, t *testing.T, req testcontainers.ContainerRequest, port nat.Port, dbName, user, password string) *containerDB {
	t.Helper()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mapped, err := container.MappedPort(ctx, port)
	require.NoError(t, err)

	return &containerDB{
		container: container,
		cfg:       config.DatabaseConfig{Host: host, Port: mustPortInt(t, mapped), DBName: dbName, SSLMode: "disable"},
		user:      user,
		password:  password,
	}
}

func connect(ctx context.Context, t *testing.T, d schema.Dialect, c *containerDB) *db.Connector {
	t.Helper()
	dsn, err := db.BuildDSN(d, c.cfg, c.user, c.password)
	require.NoError(t, err)
	conn, err := db.ConnectWithRetry(ctx, d, dsn, db.RetryOptions{MaxRetries: 5, RetryInterval: 2 * time.Second, Label: "left"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

const fixtureUsers = `CREATE TABLE users (
	id INT NOT NULL AUTO_INCREMENT,
	email VARCHAR(255) NOT NULL,
	name VARCHAR(100) DEFAULT NULL COMMENT 'display name',
	PRIMARY KEY (id),
	UNIQUE KEY uk_email (email),
	KEY idx_name (name)
)`

func TestIntrospectMySQL(t *testing.T) {
	ctx := context.Background()
	c := startContainer(ctx, t, testcontainers.ContainerRequest{
		Image:        mysqlImage,
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_DATABASE":      "introspect",
			"MYSQL_USER":          "tester",
			"MYSQL_PASSWORD":      "testerpass",
			"MYSQL_ROOT_PASSWORD": "rootpass",
		},
		WaitingFor: wait.ForListeningPort("3306/tcp").WithStartupTimeout(120 * time.Second),
	}, "3306/tcp", "introspect", "tester", "testerpass")

	conn := connect(ctx, t, schema.MySQL, c)
	require.NoError(t, conn.DB.Exec(fixtureUsers).Error)

	ddl, err := New(conn, zaptest.NewLogger(t)).FetchDDL(ctx)
	require.NoError(t, err)

	live, err := parser.Parse(ddl, schema.MySQL)
	require.NoError(t, err)
	require.Contains(t, live.Tables, "users")
	users := live.Tables["users"]
	assert.Equal(t, []string{"id", "email", "name"}, users.ColumnOrder)
	assert.Equal(t, schema.IndexUnique, users.Indexes["uk_email"].Kind)
	assert.Equal(t, schema.IndexKey, users.Indexes["idx_name"].Kind)

	// Re-introspecting an unchanged database yields no differences.
	again, err := New(conn, nil).FetchDDL(ctx)
	require.NoError(t, err)
	second, err := parser.Parse(again, schema.MySQL)
	require.NoError(t, err)
	assert.True(t, differ.Diff(live, second, false).IsEmpty())
}

func TestIntrospectPostgres(t *testing.T) {
	ctx := context.Background()
	c := startContainer(ctx, t, testcontainers.ContainerRequest{
		Image:        postgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "introspect",
			"POSTGRES_USER":     "tester",
			"POSTGRES_PASSWORD": "testerpass",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}, "5432/tcp", "introspect", "tester", "testerpass")

	conn := connect(ctx, t, schema.PostgreSQL, c)
	require.NoError(t, conn.DB.Exec(`CREATE TABLE orgs (id integer PRIMARY KEY)`).Error)
	require.NoError(t, conn.DB.Exec(`CREATE TABLE members (
		id serial PRIMARY KEY,
		org_id integer NOT NULL REFERENCES orgs(id) ON DELETE CASCADE,
		"Score" numeric(10,2) DEFAULT 0,
		CONSTRAINT members_org_unique UNIQUE (org_id, "Score")
	)`).Error)

	ddl, err := New(conn, zaptest.NewLogger(t)).FetchDDL(ctx)
	require.NoError(t, err)

	s, err := parser.Parse(ddl, schema.PostgreSQL)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"orgs", "members"}, s.Names())

	members := s.Tables["members"]
	require.NotNil(t, members)
	assert.Equal(t, []string{"id", "org_id", "Score"}, members.ColumnOrder)
	assert.Equal(t, "numeric(10,2)", members.Columns["Score"].Details.Type)
	assert.False(t, members.Columns["org_id"].Details.Nullable)
	assert.Equal(t, schema.IndexPrimary, members.Indexes[schema.PrimaryIndexName].Kind)
	assert.Equal(t, schema.IndexUnique, members.Indexes["members_org_unique"].Kind)
	assert.Equal(t, schema.IndexForeign, members.Indexes["members_org_id_fkey"].Kind)
}
