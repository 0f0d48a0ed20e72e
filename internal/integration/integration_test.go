package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"quizbot/internal/app"
	"quizbot/internal/catalog"
	"quizbot/internal/domain"
	pginfra "quizbot/internal/infra/postgres"
	pgmigrations "quizbot/internal/infra/postgres/migrations"
	redisinfra "quizbot/internal/infra/redis"
)

func TestQuizFlowAgainstPostgres(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()

	db := openBun(pgURL)
	defer db.Close()
	migrateTestDB(t, ctx, db)

	// Promote a flat questions file into the questions table, then build the
	// catalog back out of Postgres the way the server does at startup.
	questionsPath := writeQuestionsFile(t)
	inserted, err := pginfra.ImportQuestions(ctx, db, questionsPath)
	if err != nil {
		t.Fatalf("import questions: %v", err)
	}
	if inserted != 3 {
		t.Fatalf("expected 3 inserted questions, got %d", inserted)
	}
	// Re-running the import must not duplicate prompts.
	if again, err := pginfra.ImportQuestions(ctx, db, questionsPath); err != nil || again != 0 {
		t.Fatalf("expected idempotent re-import, got %d %v", again, err)
	}

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	raw, err := pginfra.NewCatalogLoader(pool).Load(ctx)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	cat, err := catalog.New(raw)
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}

	store := pginfra.NewScoreStore(db)
	service := app.NewQuizService(cat, store, nil, time.Minute, zerolog.Nop())

	delivery, err := service.StartCategory(ctx, "u1", "Alice", "history")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if delivery.Question == nil || delivery.Question.Prompt != "First moon landing year?" {
		t.Fatalf("unexpected first question: %+v", delivery)
	}

	result, err := service.SubmitAnswer(ctx, "u1", "Alice", "1969")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !result.Correct || result.Score != 1 || !result.Persisted {
		t.Fatalf("unexpected result: %+v", result)
	}
	if _, err := service.SubmitAnswer(ctx, "u1", "Alice", "1969"); !errors.Is(err, domain.ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved on duplicate submit, got %v", err)
	}

	// The increment committed: a second store over the same database sees it.
	db2 := openBun(pgURL)
	defer db2.Close()
	fresh := pginfra.NewScoreStore(db2)
	score, err := fresh.Score(ctx, "u1")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score != 1 {
		t.Fatalf("expected persisted score 1, got %d", score)
	}

	snapshot, err := store.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snapshot) != 1 || snapshot[0].DisplayName != "Alice" {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
}

func TestScoreStoreAgainstRedis(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	redisURL, cleanup := startRedis(t, ctx)
	defer cleanup()

	client, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer client.Close()

	store := redisinfra.NewScoreStore(client)
	if err := store.UpsertName(ctx, "u1", "Alice"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if score, err := store.IncrementScore(ctx, "u1", 1); err != nil || score != 1 {
		t.Fatalf("expected 1, got %d %v", score, err)
	}
	snapshot, err := store.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snapshot) != 1 || snapshot[0].DisplayName != "Alice" || snapshot[0].Score != 1 {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func openBun(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

func migrateTestDB(t *testing.T, ctx context.Context, db *bun.DB) {
	t.Helper()
	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func writeQuestionsFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "questions.json")
	data := `{
		"history": [
			{"question": "First moon landing year?", "options": ["1969", "1972"], "answer": "1969"},
			{"question": "Fall of the Berlin Wall?", "options": ["1989", "1991"], "answer": "1989"}
		],
		"science": [
			{"question": "Chemical formula of water?", "options": ["H2O", "CO2"], "answer": "H2O"}
		]
	}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
