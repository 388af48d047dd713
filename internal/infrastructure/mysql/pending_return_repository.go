package mysql

import (
	"auction-house/internal/domain"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// MySQLPendingReturnRepository keeps undelivered items across restarts.
type MySQLPendingReturnRepository struct {
	db *sql.DB
}

func NewMySQLPendingReturnRepository(db *sql.DB) *MySQLPendingReturnRepository {
	return &MySQLPendingReturnRepository{db: db}
}

func (r *MySQLPendingReturnRepository) Enqueue(ctx context.Context, ret *domain.PendingReturn) error {
	item, err := json.Marshal(ret.Item)
	if err != nil {
		return fmt.Errorf("encode item: %w", err)
	}

	query := `
        INSERT INTO pending_returns (id, actor_id, listing_id, item, reason, created_at)
        VALUES (?, ?, ?, ?, ?, ?)
    `
	_, err = r.db.ExecContext(ctx, query,
		ret.ID, ret.ActorID, ret.ListingID, item, ret.Reason, ret.CreatedAt)
	return err
}

func (r *MySQLPendingReturnRepository) ListForActor(ctx context.Context, actorID string) ([]*domain.PendingReturn, error) {
	query := `
        SELECT id, actor_id, listing_id, item, reason, created_at
        FROM pending_returns
        WHERE actor_id = ?
        ORDER BY created_at ASC
    `

	rows, err := r.db.QueryContext(ctx, query, actorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var returns []*domain.PendingReturn
	for rows.Next() {
		var ret domain.PendingReturn
		var item []byte

		err := rows.Scan(&ret.ID, &ret.ActorID, &ret.ListingID, &item, &ret.Reason, &ret.CreatedAt)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(item, &ret.Item); err != nil {
			return nil, fmt.Errorf("decode item of return %s: %w", ret.ID, err)
		}

		returns = append(returns, &ret)
	}

	return returns, rows.Err()
}

// Claim deletes the row; only the caller whose delete hit it may deliver the item.
func (r *MySQLPendingReturnRepository) Claim(ctx context.Context, returnID string) (bool, error) {
	query := `DELETE FROM pending_returns WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, returnID)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *MySQLPendingReturnRepository) Actors(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT actor_id FROM pending_returns ORDER BY actor_id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actors []string
	for rows.Next() {
		var actorID string
		if err := rows.Scan(&actorID); err != nil {
			return nil, err
		}
		actors = append(actors, actorID)
	}

	return actors, rows.Err()
}
