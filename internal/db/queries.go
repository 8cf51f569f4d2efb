package db

import (
	"context"
	"fmt"

	"sempgateway/internal/models"

	"github.com/jackc/pgx/v5"
)

const schema = `
CREATE TABLE IF NOT EXISTS recommendation_history (
	id           BIGSERIAL PRIMARY KEY,
	device_id    TEXT        NOT NULL,
	turn_on      BOOLEAN     NOT NULL,
	power        INTEGER     NOT NULL,
	em_timestamp INTEGER     NOT NULL,
	received_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS recommendation_history_device_idx
	ON recommendation_history (device_id, received_at DESC);`

// EnsureSchema creates the history table when missing.
func (d *DB) EnsureSchema(ctx context.Context) error {
	if _, err := d.q.Exec(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// LogRecommendation appends one recommendation.
func (d *DB) LogRecommendation(ctx context.Context, r models.Recommendation) error {
	_, err := d.q.Exec(ctx,
		"INSERT INTO recommendation_history (device_id, turn_on, power, em_timestamp, received_at) VALUES ($1, $2, $3, $4, $5)",
		r.DeviceID, r.On, r.RecommendedPower, r.Timestamp, r.ReceivedAt)
	if err != nil {
		return fmt.Errorf("logging recommendation for %s: %w", r.DeviceID, err)
	}
	return nil
}

// RecentRecommendations returns up to limit entries of a device, newest first.
func (d *DB) RecentRecommendations(ctx context.Context, deviceID string, limit int) ([]models.Recommendation, error) {
	rows, err := d.q.Query(ctx,
		"SELECT device_id, turn_on, power, em_timestamp, received_at FROM recommendation_history WHERE device_id = $1 ORDER BY received_at DESC LIMIT $2",
		deviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history of %s: %w", deviceID, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Recommendation, error) {
		var r models.Recommendation
		err := row.Scan(&r.DeviceID, &r.On, &r.RecommendedPower, &r.Timestamp, &r.ReceivedAt)
		return r, err
	})
}

// Notify records the recommendation carried by n.
func (d *DB) Notify(ctx context.Context, n models.Notification) error {
	return d.LogRecommendation(ctx, n.Recommendation)
}
