package org

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "sirenops/pkg/domain"
	"sirenops/pkg/platform/sentinel"
	txcontext "sirenops/pkg/platform/tx"
)

// Postgres persists organizations in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) q(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Postgres) Create(ctx context.Context, o *Organization) error {
	query := `
		INSERT INTO organizations (id, name, lifecycle_state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.q(ctx).ExecContext(ctx, query,
		uuid.UUID(o.ID), o.Name, string(o.State), o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert organization: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, orgID id.OrgID) (*Organization, error) {
	query := `
		SELECT id, name, lifecycle_state, created_at, updated_at
		FROM organizations
		WHERE id = $1
	`
	var (
		o     Organization
		rawID uuid.UUID
		state string
	)
	err := s.q(ctx).QueryRowContext(ctx, query, uuid.UUID(orgID)).
		Scan(&rawID, &o.Name, &state, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find organization: %w", err)
	}
	o.ID = id.OrgID(rawID)
	o.State = LifecycleState(state)
	return &o, nil
}

func (s *Postgres) Update(ctx context.Context, o *Organization) error {
	query := `
		UPDATE organizations
		SET name = $2, lifecycle_state = $3, updated_at = $4
		WHERE id = $1
	`
	res, err := s.q(ctx).ExecContext(ctx, query,
		uuid.UUID(o.ID), o.Name, string(o.State), o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update organization: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update organization rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
