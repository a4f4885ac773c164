package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"blastbot/internal/config"
	"blastbot/internal/transport"
	logx "blastbot/pkg/logx"
)

type sqliteSource struct {
	db  *sql.DB
	log logx.Logger

	table   string
	idCol   string
	userCol string
}

func openSQLite(cfg config.SourceConfig, log logx.Logger) (Source, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, fmt.Errorf("%w: sqlite path is required", ErrUnreadable)
	}

	table := defaultIdent(cfg.Table, "users")
	idCol := defaultIdent(cfg.IDColumn, "id")
	userCol := defaultIdent(cfg.UsernameColumn, "username")
	for _, ident := range []string{table, idCol, userCol} {
		if !validIdent(ident) {
			return nil, fmt.Errorf("%w: invalid identifier %q", ErrUnreadable, ident)
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	// The dump is read-only for us; a single connection is plenty.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	_, _ = db.Exec("PRAGMA query_only = 1")

	s := &sqliteSource{db: db, log: log, table: table, idCol: idCol, userCol: userCol}

	// Fail fast on a missing or malformed dump instead of on first query.
	if err := s.ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *sqliteSource) ping() error {
	var n int64
	q := fmt.Sprintf("SELECT COUNT(*) FROM %s", s.table) //nolint:gosec // ident validated at open
	if err := s.db.QueryRow(q).Scan(&n); err != nil {
		return fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return nil
}

func (s *sqliteSource) ExtractAll(ctx context.Context) ([]transport.Recipient, error) {
	// rowid order reproduces insertion order, which is the dump's
	// first-appearance order.
	q := fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid", s.idCol, s.table) //nolint:gosec
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer rows.Close()

	var out []transport.Recipient
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
		}
		out = append(out, transport.Recipient(id))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return dedupeStable(out), nil
}

func (s *sqliteSource) ResolveHandle(ctx context.Context, handle string) (transport.Recipient, bool, error) {
	h := normalizeHandle(handle)
	if h == "" {
		return 0, false, nil
	}
	q := fmt.Sprintf("SELECT %s FROM %s WHERE lower(%s) = ? ORDER BY rowid LIMIT 1", s.idCol, s.table, s.userCol) //nolint:gosec
	var id int64
	err := s.db.QueryRowContext(ctx, q, h).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return transport.Recipient(id), true, nil
}

func (s *sqliteSource) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func defaultIdent(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}

// validIdent accepts plain SQL identifiers only; the table/column names come
// from config and are interpolated into queries.
func validIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
