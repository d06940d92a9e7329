package store_test

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/seqlabs/genoportal/internal/store"
	"github.com/seqlabs/genoportal/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// migrationsDir returns the absolute path to the migrations directory.
func migrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "migrations")
}

// setupTestDB spins up a Postgres container, runs migrations, and returns a pool + cleanup.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("genoportal_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	err = store.RunMigrations(connStr, migrationsDir())
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	return pool
}

// seedUser inserts a user and returns it.
func seedUser(t *testing.T, s store.Store) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.New(),
		Username:     "ana-" + uuid.NewString()[:8],
		Email:        uuid.NewString()[:8] + "@example.com",
		PasswordHash: "$2a$10$notarealhashnotarealhashnotare",
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, s.CreateUser(context.Background(), user))
	return user
}

// seedAnalysis inserts an analysis row for the user.
func seedAnalysis(t *testing.T, s store.Store, userID uuid.UUID, tool, status string) *models.Analysis {
	t.Helper()
	analysis := &models.Analysis{
		ID:        uuid.New(),
		UserID:    userID,
		ToolName:  tool,
		InputFile: "reads.fastq",
		Status:    status,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, s.CreateAnalysis(context.Background(), analysis))
	return analysis
}

// --- User Tests ---

func TestUser_CreateAndGetByUsername(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	user := seedUser(t, s)

	got, err := s.GetUserByUsername(context.Background(), user.Username)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, user.Email, got.Email)
	assert.Equal(t, user.PasswordHash, got.PasswordHash)
}

func TestUser_GetNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	_, err := s.GetUserByUsername(context.Background(), "nadie")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUser_DuplicateUsername(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	user := seedUser(t, s)

	dup := &models.User{
		ID:           uuid.New(),
		Username:     user.Username,
		Email:        "other@example.com",
		PasswordHash: "hash",
		CreatedAt:    time.Now().UTC(),
	}
	err := s.CreateUser(ctx, dup)
	assert.ErrorIs(t, err, store.ErrDuplicateKey)
}

func TestUser_DuplicateEmail(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	user := seedUser(t, s)

	dup := &models.User{
		ID:           uuid.New(),
		Username:     "otro-usuario",
		Email:        user.Email,
		PasswordHash: "hash",
		CreatedAt:    time.Now().UTC(),
	}
	err := s.CreateUser(ctx, dup)
	assert.ErrorIs(t, err, store.ErrDuplicateKey)
}

// --- Analysis Tests ---

func TestAnalysis_CreateAndList(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	user := seedUser(t, s)
	first := seedAnalysis(t, s, user.ID, "fastqc", models.StatusCompleted)
	second := &models.Analysis{
		ID:        uuid.New(),
		UserID:    user.ID,
		ToolName:  "bowtie2",
		InputFile: "reads.fastq",
		Status:    models.StatusWarning,
		CreatedAt: first.CreatedAt.Add(time.Minute),
	}
	require.NoError(t, s.CreateAnalysis(ctx, second))

	analyses, err := s.ListAnalyses(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, analyses, 2)
	// Newest first.
	assert.Equal(t, second.ID, analyses[0].ID)
	assert.Equal(t, first.ID, analyses[1].ID)
}

func TestAnalysis_ListScopedToUser(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	owner := seedUser(t, s)
	other := seedUser(t, s)
	seedAnalysis(t, s, owner.ID, "fastqc", models.StatusCompleted)

	analyses, err := s.ListAnalyses(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, analyses)
}

func TestAnalysis_CreateWithUnknownUserFails(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	err := s.CreateAnalysis(context.Background(), &models.Analysis{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		ToolName:  "fastqc",
		InputFile: "reads.fastq",
		Status:    models.StatusPending,
		CreatedAt: time.Now().UTC(),
	})
	assert.Error(t, err)
}

// --- Result Tests ---

func TestResult_CreateAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	user := seedUser(t, s)
	analysis := seedAnalysis(t, s, user.ID, "fastqc", models.StatusCompleted)

	result := &models.Result{
		ID:             uuid.New(),
		AnalysisID:     analysis.ID,
		GalaxyOutputID: "dataset-abc",
		OutputType:     models.OutputTypeHTML,
		CreatedAt:      time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, s.CreateResult(ctx, result))

	got, err := s.GetResult(ctx, result.ID)
	require.NoError(t, err)
	assert.Equal(t, analysis.ID, got.AnalysisID)
	assert.Equal(t, "dataset-abc", got.GalaxyOutputID)
	assert.Equal(t, models.OutputTypeHTML, got.OutputType)
}

func TestResult_GetNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	_, err := s.GetResult(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestResult_RequiresExistingAnalysis(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	err := s.CreateResult(context.Background(), &models.Result{
		ID:             uuid.New(),
		AnalysisID:     uuid.New(),
		GalaxyOutputID: "dataset-orphan",
		OutputType:     models.OutputTypeUnknown,
		CreatedAt:      time.Now().UTC(),
	})
	assert.Error(t, err)
}

func TestListAnalysesWithResults_SkipsResultlessAnalyses(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	user := seedUser(t, s)
	withResult := seedAnalysis(t, s, user.ID, "fastqc", models.StatusCompleted)
	seedAnalysis(t, s, user.ID, "bowtie2", models.StatusWarning)

	require.NoError(t, s.CreateResult(ctx, &models.Result{
		ID:             uuid.New(),
		AnalysisID:     withResult.ID,
		GalaxyOutputID: "dataset-1",
		OutputType:     models.OutputTypeHTML,
		CreatedAt:      time.Now().UTC(),
	}))
	require.NoError(t, s.CreateResult(ctx, &models.Result{
		ID:             uuid.New(),
		AnalysisID:     withResult.ID,
		GalaxyOutputID: "dataset-2",
		OutputType:     models.OutputTypeUnknown,
		CreatedAt:      time.Now().UTC(),
	}))

	got, err := s.ListAnalysesWithResults(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, withResult.ID, got[0].ID)
	assert.Len(t, got[0].Results, 2)

	// The resultless analysis still shows in the plain listing.
	all, err := s.ListAnalyses(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

// --- Ping Test ---

func TestPing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	err := s.Ping(context.Background())
	assert.NoError(t, err)
}
