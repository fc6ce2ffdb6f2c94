package accounts_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type testConfig struct {
	signingKey      string
	tokenExpiration int
	issuer          string
	audience        []string
}

func newTestConfig() *testConfig {
	return &testConfig{
		signingKey:      "test-signing-key-please-rotate",
		tokenExpiration: 1,
		issuer:          "go-accounts-test",
	}
}

func (c *testConfig) GetSigningKey() string   { return c.signingKey }
func (c *testConfig) GetTokenExpiration() int { return c.tokenExpiration }
func (c *testConfig) GetIssuer() string       { return c.issuer }
func (c *testConfig) GetAudience() []string   { return c.audience }
func (c *testConfig) GetDSN() string          { return "" }
func (c *testConfig) GetListenAddr() string   { return "" }

var _ accounts.Config = (*testConfig)(nil)

// newTestDB opens a named in-memory sqlite database, applies the
// embedded migrations, and wires a repository manager. Each test gets
// its own database; shared cache keeps it alive across pool
// connections.
func newTestDB(t *testing.T, name string) (*bun.DB, accounts.RepositoryManager) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)

	// a single writer serializes transactions; sqlite has no row locks
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, accounts.Migrate(ctx, db))

	repo := accounts.NewRepositoryManager(db)
	require.NoError(t, repo.Validate())

	return db, repo
}

func registerTestUser(t *testing.T, repo accounts.RepositoryManager, tokens accounts.TokenService, username, email, password string) *accounts.UserView {
	t.Helper()

	handler := accounts.NewRegisterUserHandler(repo, tokens)
	view, err := handler.Execute(context.Background(), accounts.RegisterUserMessage{
		Username: username,
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)
	require.NotNil(t, view)

	return view
}
