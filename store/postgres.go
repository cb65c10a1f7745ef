// Package store PostgreSQL storage. Use: go get github.com/lib/pq and import _ "github.com/lib/pq".
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"github.com/promptdiff/promptdiff/core"
)

// PostgresStore keeps prompt history in PostgreSQL: one row per name in
// <table>_meta and one row per version in <table>_versions.
type PostgresStore struct {
	db    *sql.DB
	table string
}

// NewPostgresStore creates a store over db. table defaults to "prompts" and
// prefixes both backing tables.
func NewPostgresStore(db *sql.DB, table string) *PostgresStore {
	if table == "" {
		table = "prompts"
	}
	return &PostgresStore{db: db, table: table}
}

func (p *PostgresStore) metaTable() string     { return p.table + "_meta" }
func (p *PostgresStore) versionsTable() string { return p.table + "_versions" }

// Init implements Store. It creates the backing tables and the root marker row.
func (p *PostgresStore) Init(ctx context.Context) error {
	q := `CREATE TABLE IF NOT EXISTS ` + p.metaTable() + ` (
		name VARCHAR(255) PRIMARY KEY,
		created TEXT NOT NULL,
		tags TEXT[] NOT NULL DEFAULT '{}',
		latest_version INT NOT NULL DEFAULT 0
	)`
	if _, err := p.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("postgres store init: %w", err)
	}
	q = `CREATE TABLE IF NOT EXISTS ` + p.versionsTable() + ` (
		name VARCHAR(255) NOT NULL,
		version INT NOT NULL,
		content TEXT NOT NULL,
		message TEXT NOT NULL DEFAULT '',
		ts TEXT NOT NULL,
		content_hash VARCHAR(64) NOT NULL,
		metadata JSONB NOT NULL DEFAULT '{}',
		PRIMARY KEY (name, version)
	)`
	if _, err := p.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("postgres store init: %w", err)
	}
	q = `CREATE TABLE IF NOT EXISTS ` + p.table + `_root (
		id INT PRIMARY KEY DEFAULT 1,
		created TEXT NOT NULL,
		schema_version VARCHAR(32) NOT NULL
	)`
	if _, err := p.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("postgres store init: %w", err)
	}
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO `+p.table+`_root (id, created, schema_version) VALUES (1, $1, $2) ON CONFLICT (id) DO NOTHING`,
		core.NowISO(), SchemaVersion)
	return err
}

// Initialized implements Store.
func (p *PostgresStore) Initialized(ctx context.Context) bool {
	var n int
	err := p.db.QueryRowContext(ctx, `SELECT 1 FROM `+p.table+`_root WHERE id = 1`).Scan(&n)
	return err == nil
}

func (p *PostgresStore) ensureInit(ctx context.Context) error {
	if !p.Initialized(ctx) {
		return core.ErrNotInitialized
	}
	return nil
}

func (p *PostgresStore) latestVersion(ctx context.Context, name string) (int, error) {
	var latest int
	err := p.db.QueryRowContext(ctx,
		`SELECT latest_version FROM `+p.metaTable()+` WHERE name = $1`, name).Scan(&latest)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("%w: %q", core.ErrPromptNotFound, name)
	}
	if err != nil {
		return 0, err
	}
	return latest, nil
}

func (p *PostgresStore) scanVersion(row *sql.Row) (*core.PromptVersion, error) {
	var v core.PromptVersion
	var metadata []byte
	err := row.Scan(&v.Version, &v.Content, &v.Message, &v.Timestamp, &v.ContentHash, &metadata)
	if err != nil {
		return nil, err
	}
	v.Metadata = map[string]any{}
	_ = json.Unmarshal(metadata, &v.Metadata)
	return &v, nil
}

// Add implements Store.
func (p *PostgresStore) Add(ctx context.Context, name, content, message string, metadata map[string]any) (*core.PromptVersion, error) {
	if err := p.ensureInit(ctx); err != nil {
		return nil, err
	}
	latest, err := p.latestVersion(ctx, name)
	next := 1
	switch {
	case err == nil:
		row := p.db.QueryRowContext(ctx,
			`SELECT version, content, message, ts, content_hash, metadata FROM `+p.versionsTable()+` WHERE name = $1 AND version = $2`,
			name, latest)
		latestVer, err := p.scanVersion(row)
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %q v%d row missing", core.ErrDataInconsistency, name, latest)
		}
		if err != nil {
			return nil, err
		}
		if latestVer.Content == content {
			return latestVer, nil
		}
		next = latest + 1
	case isNotFound(err):
		if _, err := p.db.ExecContext(ctx,
			`INSERT INTO `+p.metaTable()+` (name, created, tags, latest_version) VALUES ($1, $2, '{}', 0)`,
			name, core.NowISO()); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	info := core.NewPromptVersion(next, content, message, metadata)
	metaJSON, err := json.Marshal(info.Metadata)
	if err != nil {
		return nil, err
	}
	if _, err := p.db.ExecContext(ctx,
		`INSERT INTO `+p.versionsTable()+` (name, version, content, message, ts, content_hash, metadata) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		name, info.Version, info.Content, info.Message, info.Timestamp, info.ContentHash, metaJSON); err != nil {
		return nil, err
	}
	if _, err := p.db.ExecContext(ctx,
		`UPDATE `+p.metaTable()+` SET latest_version = $1 WHERE name = $2`, next, name); err != nil {
		return nil, err
	}
	return info.Copy(), nil
}

// GetVersion implements Store.
func (p *PostgresStore) GetVersion(ctx context.Context, name string, version int) (*core.PromptVersion, error) {
	if err := p.ensureInit(ctx); err != nil {
		return nil, err
	}
	latest, err := p.latestVersion(ctx, name)
	if err != nil {
		return nil, err
	}
	if version == Latest {
		version = latest
	}
	row := p.db.QueryRowContext(ctx,
		`SELECT version, content, message, ts, content_hash, metadata FROM `+p.versionsTable()+` WHERE name = $1 AND version = $2`,
		name, version)
	v, err := p.scanVersion(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %q v%d", core.ErrVersionNotFound, name, version)
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// ListVersions implements Store.
func (p *PostgresStore) ListVersions(ctx context.Context, name string) ([]*core.PromptVersion, error) {
	if err := p.ensureInit(ctx); err != nil {
		return nil, err
	}
	if _, err := p.latestVersion(ctx, name); err != nil {
		return nil, err
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT version, content, message, ts, content_hash, metadata FROM `+p.versionsTable()+` WHERE name = $1 ORDER BY version`,
		name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*core.PromptVersion
	for rows.Next() {
		var v core.PromptVersion
		var metadata []byte
		if err := rows.Scan(&v.Version, &v.Content, &v.Message, &v.Timestamp, &v.ContentHash, &metadata); err != nil {
			return nil, err
		}
		v.Metadata = map[string]any{}
		_ = json.Unmarshal(metadata, &v.Metadata)
		out = append(out, &v)
	}
	return out, rows.Err()
}

// ListPrompts implements Store.
func (p *PostgresStore) ListPrompts(ctx context.Context) ([]string, error) {
	if err := p.ensureInit(ctx); err != nil {
		return nil, err
	}
	rows, err := p.db.QueryContext(ctx, `SELECT name FROM `+p.metaTable()+` ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// DeletePrompt implements Store.
func (p *PostgresStore) DeletePrompt(ctx context.Context, name string) error {
	if err := p.ensureInit(ctx); err != nil {
		return err
	}
	res, err := p.db.ExecContext(ctx, `DELETE FROM `+p.metaTable()+` WHERE name = $1`, name)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %q", core.ErrPromptNotFound, name)
	}
	_, err = p.db.ExecContext(ctx, `DELETE FROM `+p.versionsTable()+` WHERE name = $1`, name)
	return err
}

// SetTags implements Store.
func (p *PostgresStore) SetTags(ctx context.Context, name string, tags []string) error {
	if err := p.ensureInit(ctx); err != nil {
		return err
	}
	res, err := p.db.ExecContext(ctx,
		`UPDATE `+p.metaTable()+` SET tags = $1 WHERE name = $2`, pq.Array(normalizeTags(tags)), name)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %q", core.ErrPromptNotFound, name)
	}
	return nil
}

// GetTags implements Store.
func (p *PostgresStore) GetTags(ctx context.Context, name string) ([]string, error) {
	if err := p.ensureInit(ctx); err != nil {
		return nil, err
	}
	tags := []string{}
	err := p.db.QueryRowContext(ctx,
		`SELECT tags FROM `+p.metaTable()+` WHERE name = $1`, name).Scan(pq.Array(&tags))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %q", core.ErrPromptNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return tags, nil
}

var _ Store = (*PostgresStore)(nil)
