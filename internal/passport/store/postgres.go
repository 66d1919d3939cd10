package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"agripass/internal/passport"
	dErrors "agripass/pkg/domain-errors"
)

// uniqueViolation is the Postgres error code for unique constraint failures.
const uniqueViolation = "23505"

// Postgres persists passports in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed passport store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, p *passport.Passport) error {
	query := `
		INSERT INTO passports (
			id, owner_id, crop_type, season, token,
			content_id, transaction_id, mock, confirmed, verified, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.OwnerID, p.CropType, p.Season, p.Token,
		p.ContentID, p.TransactionID, p.Mock, p.Confirmed, p.Verified, p.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateToken
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "create passport")
	}
	return nil
}

func (s *Postgres) GetByToken(ctx context.Context, token string) (*passport.Passport, error) {
	query := `
		SELECT id, owner_id, crop_type, season, token,
		       content_id, transaction_id, mock, confirmed, verified, created_at
		FROM passports
		WHERE token = $1
	`
	p, err := scanPassport(s.db.QueryRowContext(ctx, query, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "get passport by token")
	}
	return p, nil
}

func (s *Postgres) ListByOwner(ctx context.Context, ownerID string) ([]*passport.Passport, error) {
	query := `
		SELECT id, owner_id, crop_type, season, token,
		       content_id, transaction_id, mock, confirmed, verified, created_at
		FROM passports
		WHERE owner_id = $1
		ORDER BY created_at DESC, id
	`
	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "list passports by owner")
	}
	defer rows.Close()

	var passports []*passport.Passport
	for rows.Next() {
		p, err := scanPassport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan passport row: %w", err)
		}
		passports = append(passports, p)
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "list passports by owner")
	}
	return passports, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPassport(row rowScanner) (*passport.Passport, error) {
	var p passport.Passport
	err := row.Scan(
		&p.ID, &p.OwnerID, &p.CropType, &p.Season, &p.Token,
		&p.ContentID, &p.TransactionID, &p.Mock, &p.Confirmed, &p.Verified, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
