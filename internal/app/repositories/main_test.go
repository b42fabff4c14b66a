package repositories_test

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"

	"github.com/alumnisphere/api/internal/app/migrations"
	"github.com/alumnisphere/api/internal/app/models"
	"github.com/alumnisphere/api/internal/app/repositories"
	"github.com/alumnisphere/api/internal/pkg/logger"
	"github.com/alumnisphere/api/internal/testinfra"
	"github.com/jackc/pgx/v5/pgxpool"
)

// One database serves the whole package; tests reset it and do not run in
// parallel.
var (
	testPool   *pgxpool.Pool
	skipReason string
)

func TestMain(m *testing.M) {
	flag.Parse()
	os.Exit(run(m))
}

func run(m *testing.M) int {
	switch {
	case testing.Short():
		skipReason = "database tests skipped in short mode"
		return m.Run()
	case !testinfra.DockerAvailable():
		skipReason = "database tests need Docker"
		return m.Run()
	}

	ctx := context.Background()
	pg, err := testinfra.StartPostgres(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer func() { _ = pg.Terminate(ctx) }()

	testPool, err = pgxpool.New(ctx, pg.DSN)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer testPool.Close()

	if err := migrations.NewMigrator(testPool, logger.Nop()).MigrateFromDirectory(ctx, "../../../migrations"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return m.Run()
}

// openRepos returns repositories on an emptied database.
func openRepos(t *testing.T) *repositories.Repositories {
	t.Helper()
	if testPool == nil {
		t.Skip(skipReason)
	}
	_, err := testPool.Exec(context.Background(), "TRUNCATE users, chat_rooms, chat_messages, surveys RESTART IDENTITY CASCADE")
	if err != nil {
		t.Fatalf("reset database: %v", err)
	}
	return repositories.NewRepositories(testPool)
}

func createUsers(t *testing.T, repos *repositories.Repositories, names ...string) []*models.User {
	t.Helper()
	users := make([]*models.User, 0, len(names))
	for _, name := range names {
		u := &models.User{
			Username:   name,
			Email:      name + "@alumni.test",
			Password:   "hash",
			FirstName:  name,
			Role:       models.RoleAlumni,
			IsVerified: true,
			IsActive:   true,
		}
		if err := repos.UserRepository.Create(context.Background(), u); err != nil {
			t.Fatalf("create user %s: %v", name, err)
		}
		users = append(users, u)
	}
	return users
}

func countRows(t *testing.T, query string, args ...any) int64 {
	t.Helper()
	var n int64
	if err := testPool.QueryRow(context.Background(), query, args...).Scan(&n); err != nil {
		t.Fatalf("count %q: %v", query, err)
	}
	return n
}
