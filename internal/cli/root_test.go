package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mydb "eden/internal/db"
	"eden/internal/models"
	"eden/internal/store"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "edenctl", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"migrate", "promote", "pending", "approve", "reject"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", "file:eden.db")
	cmd := NewRootCommand()

	assert.Equal(t, "sqlite", cmd.PersistentFlags().Lookup("db-driver").DefValue)
	assert.Equal(t, "file:eden.db", cmd.PersistentFlags().Lookup("dsn").DefValue)
	assert.Equal(t, "text", cmd.PersistentFlags().Lookup("format").DefValue)
}

// run executes edenctl against dsn and returns its stdout.
func run(t *testing.T, dsn string, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--db-driver", "sqlite", "--dsn", dsn}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestRequiresDatabase(t *testing.T) {
	t.Setenv("DB_DSN", "")
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"pending"})
	assert.ErrorContains(t, cmd.Execute(), "no database")
}

func TestInvalidFormat(t *testing.T) {
	_, err := run(t, filepath.Join(t.TempDir(), "eden.db"), "--format", "yaml", "pending")
	assert.ErrorContains(t, err, "invalid format")
}

func TestModerationFromTheCommandLine(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "eden.db")
	ctx := context.Background()

	out, err := run(t, dsn, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema up to date")

	db, err := mydb.Open("sqlite", dsn)
	require.NoError(t, err)
	users := store.NewUsers(db)
	postings := store.NewPostings(db)
	owner := &models.User{Username: "ana", PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, users.Create(ctx, owner))
	rate := 100.0
	first := &models.Posting{OwnerID: owner.ID, Kind: models.KindJobListing, Status: models.StatusPending,
		Title: "Gardener", Description: "Weekly", HourlyRate: &rate}
	second := &models.Posting{OwnerID: owner.ID, Kind: models.KindJobListing, Status: models.StatusPending,
		Title: "Painter", Description: "Fence", HourlyRate: &rate}
	require.NoError(t, postings.Create(ctx, first))
	require.NoError(t, postings.Create(ctx, second))
	sqlDB, _ := db.DB()
	require.NoError(t, sqlDB.Close())

	out, err = run(t, dsn, "--format", "json", "pending")
	require.NoError(t, err)
	var rows []pendingRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)

	out, err = run(t, dsn, "approve", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "posting 1 approved")
	assert.Contains(t, out, "skipped", "owner has no email")

	_, err = run(t, dsn, "approve", "1")
	assert.Error(t, err, "already approved")

	out, err = run(t, dsn, "reject", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "posting 2 rejected")

	out, err = run(t, dsn, "pending")
	require.NoError(t, err)
	assert.Contains(t, out, "no pending postings")

	out, err = run(t, dsn, "promote", "ana")
	require.NoError(t, err)
	assert.Contains(t, out, "ana is now an admin")
	_, err = run(t, dsn, "promote", "nobody")
	assert.Error(t, err)

	_, err = run(t, dsn, "approve", "abc")
	assert.ErrorContains(t, err, "invalid posting id")
}
