package cli

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"points-exchange-service/internal/config"
	"points-exchange-service/internal/domain"
	"points-exchange-service/internal/infra/postgres"
)

func TestAddUserOnFreshDatabase(t *testing.T) {
	ctx := context.Background()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
	domain.PasswordCost = bcrypt.MinCost

	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			Env:          map[string]string{"POSTGRES_USER": "points", "POSTGRES_PASSWORD": "pointspass", "POSTGRES_DB": "points"},
			ExposedPorts: []string{"5432/tcp"},
			WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	defer func() { _ = container.Terminate(ctx) }()

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}

	var cfg config.Config
	cfg.Postgres.URL = fmt.Sprintf("postgres://points:pointspass@%s:%s/points?sslmode=disable", host, port.Port())

	// no migrate run beforehand: adduser has to create the schema itself
	if err := addUser(ctx, cfg, zap.NewNop(), "mr_x", "secret123", domain.RoleTeacher, "math"); err != nil {
		t.Fatalf("adduser: %v", err)
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()
	teacher, err := postgres.NewStore(pool).Repositories().Accounts.FindTeacherBySubject(ctx, "math")
	if err != nil || teacher.Username != "mr_x" {
		t.Fatalf("expected mr_x to teach math, got %+v, %v", teacher, err)
	}
}
