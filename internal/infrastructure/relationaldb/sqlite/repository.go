// Package sqlite provides a SQLite implementation of the RelationalDB interface.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/ersonp/popolo-core/internal/domain/entities"
	"github.com/ersonp/popolo-core/internal/domain/ports"
	"github.com/ersonp/popolo-core/internal/infrastructure/config"
)

// generateUUID returns a new UUID string.
func generateUUID() string {
	return uuid.New().String()
}

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository implements ports.RelationalDB using SQLite.
type Repository struct {
	db   *sql.DB
	q    querier
	path string
	inTx bool
	// depth counts the savepoints open inside the transaction.
	depth int
}

var _ ports.RelationalDB = (*Repository)(nil)

// NewRepository creates a new SQLite repository.
func NewRepository(cfg config.SQLiteConfig) (*Repository, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// every connection to :memory: is a separate database
	if cfg.Path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	return &Repository{
		db:   db,
		q:    db,
		path: cfg.Path,
	}, nil
}

// dsn applies the pragmas to every pooled connection. Transactions begin
// IMMEDIATE so a second writer waits on busy_timeout at BEGIN instead of
// failing on its first write after reading a bucket.
func dsn(cfg config.SQLiteConfig) string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", cfg.BusyTimeoutMS()))
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Set("_txlock", "immediate")
	return cfg.Path + "?" + q.Encode()
}

// Close closes the database connection. It is a no-op inside a transaction.
func (r *Repository) Close() error {
	if r.inTx {
		return nil
	}
	return r.db.Close()
}

// Path returns the database file path.
func (r *Repository) Path() string {
	return r.path
}

// WithinTx runs fn against a repository bound to one transaction.
// Nested calls open a savepoint inside the outer transaction, so a failing
// inner fn undoes only its own writes.
func (r *Repository) WithinTx(ctx context.Context, fn func(tx ports.RelationalDB) error) error {
	if r.inTx {
		return r.withinSavepoint(ctx, fn)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	txRepo := &Repository{db: r.db, q: tx, path: r.path, inTx: true}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(txRepo); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	committed = true
	return nil
}

func (r *Repository) withinSavepoint(ctx context.Context, fn func(tx ports.RelationalDB) error) error {
	inner := &Repository{db: r.db, q: r.q, path: r.path, inTx: true, depth: r.depth + 1}
	name := fmt.Sprintf("sp_%d", inner.depth)

	if _, err := r.q.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("opening savepoint: %w", err)
	}

	if err := fn(inner); err != nil {
		if _, rbErr := r.q.ExecContext(ctx, "ROLLBACK TO "+name); rbErr != nil {
			return fmt.Errorf("rolling back savepoint: %w (after %v)", rbErr, err)
		}
		_, _ = r.q.ExecContext(ctx, "RELEASE "+name)
		return err
	}

	if _, err := r.q.ExecContext(ctx, "RELEASE "+name); err != nil {
		return fmt.Errorf("releasing savepoint: %w", err)
	}
	return nil
}

// EnsureSchema creates the database schema if it doesn't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS persons (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		normalized_name TEXT NOT NULL,
		family_name TEXT NOT NULL DEFAULT '',
		given_name TEXT NOT NULL DEFAULT '',
		sort_name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		gender TEXT NOT NULL DEFAULT '',
		birth_date TEXT,
		death_date TEXT,
		birth_location TEXT NOT NULL DEFAULT '',
		image TEXT NOT NULL DEFAULT '',
		summary TEXT NOT NULL DEFAULT '',
		biography TEXT NOT NULL DEFAULT '',
		start_date TEXT,
		end_date TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_persons_normalized ON persons(normalized_name);

	CREATE TABLE IF NOT EXISTS organizations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		normalized_name TEXT NOT NULL,
		classification TEXT NOT NULL DEFAULT '',
		abstract TEXT NOT NULL DEFAULT '',
		parent_id TEXT NOT NULL DEFAULT '',
		area_id TEXT NOT NULL DEFAULT '',
		founding_date TEXT,
		dissolution_date TEXT,
		image TEXT NOT NULL DEFAULT '',
		start_date TEXT,
		end_date TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_organizations_normalized ON organizations(normalized_name);
	CREATE INDEX IF NOT EXISTS idx_organizations_parent ON organizations(parent_id);

	CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		label TEXT NOT NULL,
		other_label TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT '',
		organization_id TEXT NOT NULL DEFAULT '',
		area_id TEXT NOT NULL DEFAULT '',
		start_date TEXT,
		end_date TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_posts_organization ON posts(organization_id);

	CREATE TABLE IF NOT EXISTS areas (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		identifier TEXT NOT NULL DEFAULT '',
		classification TEXT NOT NULL DEFAULT '',
		parent_id TEXT NOT NULL DEFAULT '',
		start_date TEXT,
		end_date TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- Memberships: exactly one of person_id / member_organization_id is set
	CREATE TABLE IF NOT EXISTS memberships (
		id TEXT PRIMARY KEY,
		person_id TEXT NOT NULL DEFAULT '',
		member_organization_id TEXT NOT NULL DEFAULT '',
		organization_id TEXT NOT NULL,
		post_id TEXT NOT NULL DEFAULT '',
		on_behalf_of_id TEXT NOT NULL DEFAULT '',
		area_id TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT '',
		label TEXT NOT NULL DEFAULT '',
		start_date TEXT,
		end_date TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		CHECK ((person_id = '') <> (member_organization_id = ''))
	);
	CREATE INDEX IF NOT EXISTS idx_memberships_person ON memberships(person_id, organization_id);
	CREATE INDEX IF NOT EXISTS idx_memberships_member_org ON memberships(member_organization_id, organization_id);
	CREATE INDEX IF NOT EXISTS idx_memberships_organization ON memberships(organization_id);

	CREATE TABLE IF NOT EXISTS ownerships (
		id TEXT PRIMARY KEY,
		owner_person_id TEXT NOT NULL DEFAULT '',
		owner_organization_id TEXT NOT NULL DEFAULT '',
		owned_organization_id TEXT NOT NULL,
		percentage REAL NOT NULL DEFAULT 0 CHECK (percentage >= 0 AND percentage <= 100),
		start_date TEXT,
		end_date TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		CHECK ((owner_person_id = '') <> (owner_organization_id = ''))
	);
	CREATE INDEX IF NOT EXISTS idx_ownerships_owner_person ON ownerships(owner_person_id, owned_organization_id);
	CREATE INDEX IF NOT EXISTS idx_ownerships_owner_org ON ownerships(owner_organization_id, owned_organization_id);
	CREATE INDEX IF NOT EXISTS idx_ownerships_owned ON ownerships(owned_organization_id);

	CREATE TABLE IF NOT EXISTS identifiers (
		id TEXT PRIMARY KEY,
		owner_kind TEXT NOT NULL,
		owner_id TEXT NOT NULL,
		scheme TEXT NOT NULL,
		identifier TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		start_date TEXT,
		end_date TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_identifiers_owner ON identifiers(owner_kind, owner_id, scheme);
	CREATE INDEX IF NOT EXISTS idx_identifiers_value ON identifiers(scheme, identifier);

	CREATE TABLE IF NOT EXISTS other_names (
		id TEXT PRIMARY KEY,
		owner_kind TEXT NOT NULL,
		owner_id TEXT NOT NULL,
		othername_type TEXT NOT NULL DEFAULT 'ALT',
		name TEXT NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT '',
		start_date TEXT,
		end_date TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_other_names_owner ON other_names(owner_kind, owner_id, othername_type);

	-- Audit log (tracks all reconciliation writes)
	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		action TEXT NOT NULL,
		subject_id TEXT,
		details TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_audit_log_subject ON audit_log(subject_id);
	CREATE INDEX IF NOT EXISTS idx_audit_log_action ON audit_log(action);
	CREATE INDEX IF NOT EXISTS idx_audit_log_created ON audit_log(created_at);
	`

	_, err := r.q.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// LogAction logs an action to the audit log.
func (r *Repository) LogAction(ctx context.Context, action string, subjectID string, details map[string]any) error {
	var detailsJSON sql.NullString
	if details != nil {
		data, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("marshaling details: %w", err)
		}
		detailsJSON = sql.NullString{String: string(data), Valid: true}
	}

	var subject sql.NullString
	if subjectID != "" {
		subject = sql.NullString{String: subjectID, Valid: true}
	}

	query := `INSERT INTO audit_log (action, subject_id, details, created_at) VALUES (?, ?, ?, ?)`
	_, err := r.q.ExecContext(ctx, query, action, subject, detailsJSON, timeNow().UTC())
	if err != nil {
		return fmt.Errorf("logging action: %w", err)
	}
	return nil
}

// FindAuditLog finds audit log entries for a subject.
func (r *Repository) FindAuditLog(ctx context.Context, subjectID string) ([]entities.AuditEntry, error) {
	query := `
		SELECT id, action, subject_id, details, created_at
		FROM audit_log
		WHERE subject_id = ?
		ORDER BY created_at DESC, id DESC
	`
	return r.queryAuditLog(ctx, query, subjectID)
}

// FindAuditLogByAction finds audit log entries by action type.
func (r *Repository) FindAuditLogByAction(ctx context.Context, action string, limit int) ([]entities.AuditEntry, error) {
	query := `
		SELECT id, action, subject_id, details, created_at
		FROM audit_log
		WHERE ? = '' OR action = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	if limit <= 0 {
		limit = -1
	}
	return r.queryAuditLog(ctx, query, action, action, limit)
}

// queryAuditLog is a helper to execute audit log queries.
func (r *Repository) queryAuditLog(ctx context.Context, query string, args ...any) ([]entities.AuditEntry, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	var entries []entities.AuditEntry
	for rows.Next() {
		var entry entities.AuditEntry
		var subjectID, details sql.NullString

		if err := rows.Scan(
			&entry.ID,
			&entry.Action,
			&subjectID,
			&details,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}

		entry.SubjectID = subjectID.String

		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &entry.Details); err != nil {
				return nil, fmt.Errorf("unmarshaling details: %w", err)
			}
		}

		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// deleteByIDs removes rows of table whose id is in ids.
func (r *Repository) deleteByIDs(ctx context.Context, table string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id IN (%s)`, table, strings.Join(placeholders, ","))
	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("deleting from %s: %w", table, err)
	}
	return nil
}

// deleteOne removes a single row and reports ErrNotFound when nothing matched.
func (r *Repository) deleteOne(ctx context.Context, table, id string) error {
	result, err := r.q.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, table), id)
	if err != nil {
		return fmt.Errorf("deleting from %s: %w", table, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%s %s: %w", strings.TrimSuffix(table, "s"), id, entities.ErrNotFound)
	}
	return nil
}

// stamp fills missing identity and timestamps before a save.
func stamp(id *string, createdAt, updatedAt *time.Time) {
	if *id == "" {
		*id = generateUUID()
	}
	now := timeNow().UTC()
	if createdAt.IsZero() {
		*createdAt = now
	}
	*updatedAt = now
}

// bucketOrder sorts by end date descending with unbounded ends first.
const bucketOrder = `ORDER BY end_date IS NOT NULL, end_date DESC, id`
