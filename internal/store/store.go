package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/seqlabs/genoportal/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	CreateAnalysis(ctx context.Context, analysis *models.Analysis) error
	CreateResult(ctx context.Context, result *models.Result) error
	ListAnalyses(ctx context.Context, userID uuid.UUID) ([]*models.Analysis, error)
	ListAnalysesWithResults(ctx context.Context, userID uuid.UUID) ([]*models.AnalysisWithResults, error)
	GetResult(ctx context.Context, id uuid.UUID) (*models.Result, error)
}
