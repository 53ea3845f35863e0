package testutil

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const pgCredential = "kbagent"

// started is a running container plus the host it is reachable on.
type started struct {
	container testcontainers.Container
	host      string
}

func (s started) port(ctx context.Context, t *testing.T, port nat.Port) string {
	t.Helper()
	mapped, err := s.container.MappedPort(ctx, port)
	if err != nil {
		t.Fatalf("failed to get mapped port %s: %v", port, err)
	}
	return mapped.Port()
}

func start(ctx context.Context, t *testing.T, name string, req testcontainers.ContainerRequest) started {
	t.Helper()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start %s container: %v", name, err)
	}
	host, err := c.Host(ctx)
	if err != nil {
		_ = testcontainers.TerminateContainer(c)
		t.Fatalf("failed to get %s host: %v", name, err)
	}
	return started{container: c, host: host}
}

// PostgresContainer is a pgvector-enabled Postgres.
type PostgresContainer struct {
	Container testcontainers.Container
	Host      string
	Port      string
}

func NewPostgresContainer(ctx context.Context, t *testing.T) *PostgresContainer {
	s := start(ctx, t, "postgres", testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:0.8.1-pg18",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     pgCredential,
			"POSTGRES_PASSWORD": pgCredential,
			"POSTGRES_DB":       pgCredential,
		},
		// postgres logs readiness once for the init server and once for the real one
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		).WithStartupTimeout(time.Minute),
	})
	return &PostgresContainer{Container: s.container, Host: s.host, Port: s.port(ctx, t, "5432")}
}

func (pc *PostgresContainer) ConnectionString() string {
	hostPort := net.JoinHostPort(pc.Host, pc.Port)
	return fmt.Sprintf("postgres://%[1]s:%[1]s@%s/%[1]s?sslmode=disable", pgCredential, hostPort)
}

func (pc *PostgresContainer) Terminate(ctx context.Context) error {
	return testcontainers.TerminateContainer(pc.Container)
}

// RustFSContainer is an S3-compatible object store.
type RustFSContainer struct {
	Container testcontainers.Container
	Host      string
	Port      string
}

func NewRustFSContainer(ctx context.Context, t *testing.T) *RustFSContainer {
	s := start(ctx, t, "rustfs", testcontainers.ContainerRequest{
		Image:        "rustfs/rustfs:latest",
		ExposedPorts: []string{"9000/tcp"},
		Env: map[string]string{
			"RUSTFS_ACCESS_KEY": "rustfsadmin",
			"RUSTFS_SECRET_KEY": "rustfsadmin",
		},
		WaitingFor: wait.ForListeningPort("9000/tcp").WithStartupTimeout(30 * time.Second),
	})
	return &RustFSContainer{Container: s.container, Host: s.host, Port: s.port(ctx, t, "9000")}
}

func (rc *RustFSContainer) Endpoint() string {
	return "http://" + net.JoinHostPort(rc.Host, rc.Port)
}

func (rc *RustFSContainer) Terminate(ctx context.Context) error {
	return testcontainers.TerminateContainer(rc.Container)
}

// QdrantContainer exposes the Qdrant gRPC API. REST is only used for the readiness probe.
type QdrantContainer struct {
	Container testcontainers.Container
	Host      string
	GRPCPort  string
}

func NewQdrantContainer(ctx context.Context, t *testing.T) *QdrantContainer {
	s := start(ctx, t, "qdrant", testcontainers.ContainerRequest{
		Image:        "qdrant/qdrant:v1.16.0",
		ExposedPorts: []string{"6333/tcp", "6334/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("6334/tcp"),
			wait.ForHTTP("/readyz").WithPort("6333/tcp"),
		).WithStartupTimeout(time.Minute),
	})
	return &QdrantContainer{Container: s.container, Host: s.host, GRPCPort: s.port(ctx, t, "6334")}
}

func (qc *QdrantContainer) GRPCAddr() string {
	return net.JoinHostPort(qc.Host, qc.GRPCPort)
}

func (qc *QdrantContainer) Terminate(ctx context.Context) error {
	return testcontainers.TerminateContainer(qc.Container)
}

// NewTestPool connects to pc, retrying while the server finishes starting, and migrates the
// schema from migrationsDir. The pool is closed when the test ends.
func NewTestPool(ctx context.Context, t *testing.T, pc *PostgresContainer, migrationsDir string) *pgxpool.Pool {
	t.Helper()

	var pool *pgxpool.Pool
	var err error
	for attempt := 1; attempt <= 5; attempt++ {
		if pool, err = pgxpool.New(ctx, pc.ConnectionString()); err == nil {
			if err = pool.Ping(ctx); err == nil {
				break
			}
			pool.Close()
		}
		time.Sleep(time.Duration(attempt) * 500 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("failed to connect to postgres: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := migrateUp(pc.ConnectionString(), migrationsDir); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return pool
}

func migrateUp(url, dir string) error {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return err
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
