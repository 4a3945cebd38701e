package policy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"sirenops/internal/resource"
	id "sirenops/pkg/domain"
	"sirenops/pkg/platform/sentinel"
	txcontext "sirenops/pkg/platform/tx"
)

// Postgres persists retention policies and legal holds in PostgreSQL.
// Reads join the ambient transaction when one is present so a decision
// evaluation sees a snapshot consistent with the mutation it gates.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) q(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// wrapInfra maps driver-level failures to sentinel.ErrUnavailable so the
// decision engine fails closed instead of reading an outage as "no policy".
func wrapInfra(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, sentinel.ErrUnavailable, err)
}

func (s *Postgres) GetRetentionPolicy(ctx context.Context, orgID id.OrgID, rt resource.Type) (*RetentionPolicy, error) {
	query := `
		SELECT id, org_id, resource_type, duration_seconds, policy_type, version, updated_at
		FROM retention_policies
		WHERE org_id = $1 AND resource_type = $2
	`
	row := s.q(ctx).QueryRowContext(ctx, query, uuid.UUID(orgID), string(rt))
	p, err := scanPolicy(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, wrapInfra("get retention policy", err)
	}
	return p, nil
}

func (s *Postgres) UpsertRetentionPolicy(ctx context.Context, p *RetentionPolicy) error {
	query := `
		INSERT INTO retention_policies (id, org_id, resource_type, duration_seconds, policy_type, version, updated_at)
		VALUES ($1, $2, $3, $4, $5, 1, $6)
		ON CONFLICT (org_id, resource_type) DO UPDATE
		SET duration_seconds = EXCLUDED.duration_seconds,
		    policy_type = EXCLUDED.policy_type,
		    version = retention_policies.version + 1,
		    updated_at = EXCLUDED.updated_at
		RETURNING version
	`
	err := s.q(ctx).QueryRowContext(ctx, query,
		uuid.UUID(p.ID), uuid.UUID(p.OrgID), string(p.ResourceType),
		int64(p.Duration/time.Second), string(p.Type), p.UpdatedAt,
	).Scan(&p.Version)
	if err != nil {
		return wrapInfra("upsert retention policy", err)
	}
	return nil
}

func (s *Postgres) ListRetentionPolicies(ctx context.Context, orgID id.OrgID) ([]*RetentionPolicy, error) {
	query := `
		SELECT id, org_id, resource_type, duration_seconds, policy_type, version, updated_at
		FROM retention_policies
		WHERE org_id = $1
		ORDER BY resource_type
	`
	rows, err := s.q(ctx).QueryContext(ctx, query, uuid.UUID(orgID))
	if err != nil {
		return nil, wrapInfra("list retention policies", err)
	}
	defer rows.Close()

	var out []*RetentionPolicy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, wrapInfra("scan retention policy", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapInfra("iterate retention policies", err)
	}
	return out, nil
}

func (s *Postgres) ListActiveHolds(ctx context.Context, orgID id.OrgID, desc resource.Descriptor) ([]*LegalHold, error) {
	query := `
		SELECT id, org_id, resource_type, resource_id, tag, reason, status,
		       created_by, created_at, released_by, released_at
		FROM legal_holds
		WHERE org_id = $1
		  AND resource_type = $2
		  AND status = 'ACTIVE'
		  AND (resource_id = $3 OR tag = ANY($4))
		ORDER BY created_at
	`
	rows, err := s.q(ctx).QueryContext(ctx, query,
		uuid.UUID(orgID), string(desc.Type), desc.ID, pq.Array(desc.Tags),
	)
	if err != nil {
		return nil, wrapInfra("list active holds", err)
	}
	defer rows.Close()
	return scanHolds(rows)
}

func (s *Postgres) CreateHold(ctx context.Context, h *LegalHold) error {
	query := `
		INSERT INTO legal_holds (id, org_id, resource_type, resource_id, tag, reason, status,
		                         created_by, created_at, released_by, released_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULL, NULL)
	`
	_, err := s.q(ctx).ExecContext(ctx, query,
		uuid.UUID(h.ID), uuid.UUID(h.OrgID), string(h.ResourceType),
		nullIfEmpty(h.ResourceID), nullIfEmpty(h.Tag), h.Reason, string(h.Status),
		uuid.UUID(h.CreatedBy), h.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return wrapInfra("insert legal hold", err)
	}
	return nil
}

func (s *Postgres) FindHold(ctx context.Context, holdID id.HoldID) (*LegalHold, error) {
	query := `
		SELECT id, org_id, resource_type, resource_id, tag, reason, status,
		       created_by, created_at, released_by, released_at
		FROM legal_holds
		WHERE id = $1
	`
	h, err := scanHold(s.q(ctx).QueryRowContext(ctx, query, uuid.UUID(holdID)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, wrapInfra("find legal hold", err)
	}
	return h, nil
}

func (s *Postgres) UpdateHold(ctx context.Context, h *LegalHold) error {
	// Status only moves ACTIVE -> RELEASED; the WHERE clause makes release
	// a no-op when a concurrent release already landed.
	query := `
		UPDATE legal_holds
		SET status = $2, released_by = $3, released_at = $4
		WHERE id = $1
	`
	var releasedBy any
	if h.ReleasedBy != nil {
		releasedBy = uuid.UUID(*h.ReleasedBy)
	}
	res, err := s.q(ctx).ExecContext(ctx, query,
		uuid.UUID(h.ID), string(h.Status), releasedBy, h.ReleasedAt,
	)
	if err != nil {
		return wrapInfra("update legal hold", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return wrapInfra("update legal hold rows affected", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) ListHolds(ctx context.Context, orgID id.OrgID) ([]*LegalHold, error) {
	query := `
		SELECT id, org_id, resource_type, resource_id, tag, reason, status,
		       created_by, created_at, released_by, released_at
		FROM legal_holds
		WHERE org_id = $1
		ORDER BY created_at
	`
	rows, err := s.q(ctx).QueryContext(ctx, query, uuid.UUID(orgID))
	if err != nil {
		return nil, wrapInfra("list legal holds", err)
	}
	defer rows.Close()
	return scanHolds(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPolicy(row rowScanner) (*RetentionPolicy, error) {
	var (
		p          RetentionPolicy
		rawID      uuid.UUID
		rawOrg     uuid.UUID
		rt         string
		seconds    int64
		policyType string
	)
	if err := row.Scan(&rawID, &rawOrg, &rt, &seconds, &policyType, &p.Version, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.ID = id.PolicyID(rawID)
	p.OrgID = id.OrgID(rawOrg)
	p.ResourceType = resource.Type(rt)
	p.Duration = time.Duration(seconds) * time.Second
	p.Type = PolicyType(policyType)
	return &p, nil
}

func scanHold(row rowScanner) (*LegalHold, error) {
	var (
		h          LegalHold
		rawID      uuid.UUID
		rawOrg     uuid.UUID
		rawBy      uuid.UUID
		rt         string
		status     string
		resourceID sql.NullString
		tag        sql.NullString
		releasedBy *uuid.UUID
		releasedAt sql.NullTime
	)
	err := row.Scan(&rawID, &rawOrg, &rt, &resourceID, &tag, &h.Reason, &status,
		&rawBy, &h.CreatedAt, &releasedBy, &releasedAt)
	if err != nil {
		return nil, err
	}
	h.ID = id.HoldID(rawID)
	h.OrgID = id.OrgID(rawOrg)
	h.ResourceType = resource.Type(rt)
	h.ResourceID = resourceID.String
	h.Tag = tag.String
	h.Status = HoldStatus(status)
	h.CreatedBy = id.ActorID(rawBy)
	if releasedBy != nil {
		by := id.ActorID(*releasedBy)
		h.ReleasedBy = &by
	}
	if releasedAt.Valid {
		t := releasedAt.Time
		h.ReleasedAt = &t
	}
	return &h, nil
}

func scanHolds(rows *sql.Rows) ([]*LegalHold, error) {
	var out []*LegalHold
	for rows.Next() {
		h, err := scanHold(rows)
		if err != nil {
			return nil, wrapInfra("scan legal hold", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapInfra("iterate legal holds", err)
	}
	return out, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
