package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier - минимальный набор операций pgx. Ему удовлетворяют *pgxpool.Pool и пул pgxmock.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PlatformCounts struct {
	TotalTrails        int64
	CommunityMembers   int64
	VerifiedOrganizers int64
}

type StatsRepository interface {
	PlatformCounts(ctx context.Context) (PlatformCounts, error)
}

type StatsRepositoryImpl struct {
	db Querier
}

func NewStatsRepository(db Querier) StatsRepository {
	return &StatsRepositoryImpl{db: db}
}

const platformCountsQuery = `SELECT
	(SELECT COUNT(*) FROM events),
	(SELECT COUNT(*) FROM users),
	(SELECT COUNT(*) FROM users WHERE is_organizer AND is_verified)`

func (r *StatsRepositoryImpl) PlatformCounts(ctx context.Context) (PlatformCounts, error) {
	var counts PlatformCounts
	err := r.db.QueryRow(ctx, platformCountsQuery).
		Scan(&counts.TotalTrails, &counts.CommunityMembers, &counts.VerifiedOrganizers)
	return counts, err
}
