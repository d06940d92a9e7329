package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/seqlabs/genoportal/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Users ---

func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO usuarios (id, username, email, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Username, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, email, password_hash, created_at
		 FROM usuarios WHERE username = $1`, username,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return &u, nil
}

// --- Analyses ---

func (s *PostgresStore) CreateAnalysis(ctx context.Context, analysis *models.Analysis) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO analisis (id, user_id, tool_name, input_file, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		analysis.ID, analysis.UserID, analysis.ToolName, analysis.InputFile,
		analysis.Status, analysis.CreatedAt)
	if err != nil {
		return fmt.Errorf("create analysis: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAnalyses(ctx context.Context, userID uuid.UUID) ([]*models.Analysis, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, tool_name, input_file, status, created_at
		 FROM analisis WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	var analyses []*models.Analysis
	for rows.Next() {
		var a models.Analysis
		if err := rows.Scan(&a.ID, &a.UserID, &a.ToolName, &a.InputFile, &a.Status, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		analyses = append(analyses, &a)
	}
	return analyses, rows.Err()
}

// ListAnalysesWithResults returns only analyses that own at least one result,
// newest first, with their results embedded in insertion order. Resultless
// attempts stay visible in ListAnalyses only.
func (s *PostgresStore) ListAnalysesWithResults(ctx context.Context, userID uuid.UUID) ([]*models.AnalysisWithResults, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT a.id, a.user_id, a.tool_name, a.input_file, a.status, a.created_at,
		        r.id, r.analisis_id, r.galaxy_output_id, r.output_type, r.created_at
		 FROM analisis a
		 JOIN resultados r ON r.analisis_id = a.id
		 WHERE a.user_id = $1
		 ORDER BY a.created_at DESC, a.id, r.created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list analyses with results: %w", err)
	}
	defer rows.Close()

	var out []*models.AnalysisWithResults
	byID := make(map[uuid.UUID]*models.AnalysisWithResults)
	for rows.Next() {
		var a models.Analysis
		var r models.Result
		if err := rows.Scan(&a.ID, &a.UserID, &a.ToolName, &a.InputFile, &a.Status, &a.CreatedAt,
			&r.ID, &r.AnalysisID, &r.GalaxyOutputID, &r.OutputType, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan analysis with result: %w", err)
		}

		entry, ok := byID[a.ID]
		if !ok {
			entry = &models.AnalysisWithResults{Analysis: a}
			byID[a.ID] = entry
			out = append(out, entry)
		}
		entry.Results = append(entry.Results, r)
	}
	return out, rows.Err()
}

// --- Results ---

func (s *PostgresStore) CreateResult(ctx context.Context, result *models.Result) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO resultados (id, analisis_id, galaxy_output_id, output_type, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		result.ID, result.AnalysisID, result.GalaxyOutputID, result.OutputType, result.CreatedAt)
	if err != nil {
		return fmt.Errorf("create result: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetResult(ctx context.Context, id uuid.UUID) (*models.Result, error) {
	var r models.Result
	err := s.pool.QueryRow(ctx,
		`SELECT id, analisis_id, galaxy_output_id, output_type, created_at
		 FROM resultados WHERE id = $1`, id,
	).Scan(&r.ID, &r.AnalysisID, &r.GalaxyOutputID, &r.OutputType, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get result: %w", err)
	}
	return &r, nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)
