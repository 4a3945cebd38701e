package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"sirenops/internal/decision"
	"sirenops/internal/resource"
	id "sirenops/pkg/domain"
	txcontext "sirenops/pkg/platform/tx"
)

// Postgres persists audit entries in PostgreSQL. Append joins the ambient
// transaction; the audit_log table carries no UPDATE or DELETE grants and
// this store exposes no such statements.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Postgres) execQ(ctx context.Context) execer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Postgres) Append(ctx context.Context, entry *Entry) error {
	query := `
		INSERT INTO audit_log (
			id, org_id, actor_id, action, resource_type, resource_id,
			before_state, after_state, classification, decision, rule_id, reason, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.execQ(ctx).ExecContext(ctx, query,
		uuid.UUID(entry.ID), uuid.UUID(entry.OrgID), uuid.UUID(entry.ActorID),
		string(entry.Action), string(entry.ResourceType), entry.ResourceID,
		nullIfEmptyJSON(entry.BeforeState), nullIfEmptyJSON(entry.AfterState),
		string(entry.Classification), string(entry.Decision),
		nullIfEmptyString(entry.RuleID), entry.Reason, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (s *Postgres) List(ctx context.Context, orgID id.OrgID, filter Filter) (*Page, error) {
	query := `
		SELECT id, org_id, actor_id, action, resource_type, resource_id,
		       before_state, after_state, classification, decision, rule_id, reason, created_at
		FROM audit_log
		WHERE org_id = $1
		  AND ($2 = '' OR resource_type = $2)
		  AND ($3 = '' OR resource_id = $3)
		  AND ($4::uuid IS NULL OR actor_id = $4)
		  AND ($5 = '' OR action = $5)
		  AND ($6 = '' OR decision = $6)
		  AND ($7::timestamptz IS NULL OR created_at >= $7)
		  AND ($8::timestamptz IS NULL OR created_at <= $8)
		  AND ($9::uuid IS NULL OR (created_at, id) < (SELECT created_at, id FROM audit_log WHERE id = $9))
		ORDER BY created_at DESC, id DESC
		LIMIT $10
	`
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}

	var actor, cursor any
	if !filter.ActorID.IsNil() {
		actor = uuid.UUID(filter.ActorID)
	}
	if !filter.Cursor.IsNil() {
		cursor = uuid.UUID(filter.Cursor)
	}
	var since, until any
	if !filter.Since.IsZero() {
		since = filter.Since
	}
	if !filter.Until.IsZero() {
		until = filter.Until
	}

	rows, err := s.db.QueryContext(ctx, query,
		uuid.UUID(orgID), string(filter.ResourceType), filter.ResourceID,
		actor, string(filter.Action), string(filter.Decision),
		since, until, cursor, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	page := &Page{}
	for rows.Next() {
		var (
			e        Entry
			rawID    uuid.UUID
			rawOrg   uuid.UUID
			rawActor uuid.UUID
			action   string
			rt       string
			class    string
			verdict  string
			ruleID   sql.NullString
			before   []byte
			after    []byte
		)
		err := rows.Scan(&rawID, &rawOrg, &rawActor, &action, &rt, &e.ResourceID,
			&before, &after, &class, &verdict, &ruleID, &e.Reason, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.ID = id.EntryID(rawID)
		e.OrgID = id.OrgID(rawOrg)
		e.ActorID = id.ActorID(rawActor)
		e.Action = resource.Action(action)
		e.ResourceType = resource.Type(rt)
		e.BeforeState = before
		e.AfterState = after
		e.Classification = resource.Classification(class)
		e.Decision = decision.Verdict(verdict)
		e.RuleID = ruleID.String
		page.Entries = append(page.Entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	if len(page.Entries) == limit {
		last := page.Entries[len(page.Entries)-1].ID
		page.NextCursor = &last
	}
	return page, nil
}

func nullIfEmptyJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}

func nullIfEmptyString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
