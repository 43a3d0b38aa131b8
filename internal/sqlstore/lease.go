package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cschleiden/swf-workers/backend"
	"github.com/cschleiden/swf-workers/backend/local"
)

func (s *store) Lease(ctx context.Context, l *local.Lease) error {
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("marshaling lease: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO leases (token, expires_at, data) VALUES (?, ?, ?)",
		l.Token, l.ExpiresAt.UnixMilli(), data,
	); err != nil {
		return fmt.Errorf("inserting lease: %w", err)
	}

	return nil
}

func (s *store) Release(ctx context.Context, token string) (*local.Lease, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM leases WHERE token = ?", token).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, backend.ErrUnknownTaskToken
		}

		return nil, fmt.Errorf("reading lease: %w", err)
	}

	released, err := s.remove(ctx, token)
	if err != nil {
		return nil, err
	}

	if !released {
		return nil, backend.ErrUnknownTaskToken
	}

	return unmarshalLease(data)
}

func (s *store) Expired(ctx context.Context, now time.Time) ([]*local.Lease, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT token, data FROM leases WHERE expires_at <= ?", now.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("reading expired leases: %w", err)
	}

	type expiredLease struct {
		token string
		data  []byte
	}

	var candidates []expiredLease
	for rows.Next() {
		var l expiredLease
		if err := rows.Scan(&l.token, &l.data); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning lease: %w", err)
		}

		candidates = append(candidates, l)
	}

	if err := rows.Close(); err != nil {
		return nil, err
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading expired leases: %w", err)
	}

	leases := make([]*local.Lease, 0, len(candidates))
	for _, c := range candidates {
		// Skip leases released meanwhile
		removed, err := s.remove(ctx, c.token)
		if err != nil {
			return nil, err
		}

		if !removed {
			continue
		}

		l, err := unmarshalLease(c.data)
		if err != nil {
			return nil, err
		}

		leases = append(leases, l)
	}

	return leases, nil
}

func (s *store) remove(ctx context.Context, token string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM leases WHERE token = ?", token)
	if err != nil {
		return false, fmt.Errorf("removing lease: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("removing lease: %w", err)
	}

	return n == 1, nil
}

func unmarshalLease(data []byte) (*local.Lease, error) {
	var l local.Lease
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("unmarshaling lease: %w", err)
	}

	return &l, nil
}
