package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tramline/merch-shop/internal/domain/feedback"
)

var _ feedback.Sink = (*FeedbackRepository)(nil)

// FeedbackRepository implements feedback.Sink backed by PostgreSQL.
type FeedbackRepository struct {
	pool *pgxpool.Pool
}

// NewFeedbackRepository returns a FeedbackRepository using the given pool.
func NewFeedbackRepository(pool *pgxpool.Pool) *FeedbackRepository {
	return &FeedbackRepository{pool: pool}
}

// Record persists a feedback entry.
func (r *FeedbackRepository) Record(ctx context.Context, e *feedback.Entry) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO feedback (id, name, email, message, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.Name, e.Email, e.Message, e.CreatedAt)
	if err != nil {
		return errors.Wrapf(err, "record feedback %s", e.ID)
	}
	return nil
}
