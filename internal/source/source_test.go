package source

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"blastbot/internal/config"
	"blastbot/internal/transport"
	logx "blastbot/pkg/logx"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestJSONExtractDedupesAndKeepsOrder(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "dump.json", `[
		{"id": 333, "username": "carol"},
		{"id": 111, "username": "Alice"},
		{"id": 333},
		{"id": 222, "username": "bob"},
		{"id": 111, "username": "alice_old"}
	]`)

	src, err := Open(config.SourceConfig{Driver: "json", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()

	got, err := src.ExtractAll(context.Background())
	if err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}
	want := []transport.Recipient{333, 111, 222}
	if len(got) != len(want) {
		t.Fatalf("ExtractAll = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ExtractAll[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	// Idempotent: a second extraction yields the same sequence.
	again, err := src.ExtractAll(context.Background())
	if err != nil {
		t.Fatalf("ExtractAll again: %v", err)
	}
	for i := range want {
		if again[i] != want[i] {
			t.Fatalf("re-extract[%d] = %v, want %v", i, again[i], want[i])
		}
	}
}

func TestJSONResolveHandle(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "dump.json", `[
		{"id": 42, "username": "Alice"},
		{"id": 43, "username": "alice"}
	]`)

	src, err := Open(config.SourceConfig{Driver: "json", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()

	tests := []struct {
		handle string
		wantID transport.Recipient
		wantOK bool
	}{
		{handle: "alice", wantID: 42, wantOK: true}, // first record wins
		{handle: "@ALICE", wantID: 42, wantOK: true},
		{handle: "ghost", wantOK: false},
		{handle: "", wantOK: false},
	}
	for _, tt := range tests {
		id, ok, err := src.ResolveHandle(context.Background(), tt.handle)
		if err != nil {
			t.Fatalf("ResolveHandle(%q): %v", tt.handle, err)
		}
		if ok != tt.wantOK || (ok && id != tt.wantID) {
			t.Fatalf("ResolveHandle(%q) = (%v, %v), want (%v, %v)", tt.handle, id, ok, tt.wantID, tt.wantOK)
		}
	}
}

func TestJSONUnreadableSources(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		cfg  config.SourceConfig
	}{
		{name: "missing file", cfg: config.SourceConfig{Driver: "json", Path: filepath.Join(t.TempDir(), "nope.json")}},
		{name: "malformed json", cfg: config.SourceConfig{Driver: "json", Path: writeFile(t, "bad.json", `{"not":"an array"`)}},
		{name: "record without id", cfg: config.SourceConfig{Driver: "json", Path: writeFile(t, "noid.json", `[{"username":"x"}]`)}},
		{name: "unknown driver", cfg: config.SourceConfig{Driver: "csv", Path: "whatever"}},
		{name: "empty path", cfg: config.SourceConfig{Driver: "json"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(tt.cfg, logx.Nop())
			if !errors.Is(err, ErrUnreadable) {
				t.Fatalf("err = %v, want ErrUnreadable", err)
			}
		})
	}
}

func newTestDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	stmts := []string{
		`CREATE TABLE users (id INTEGER NOT NULL, username TEXT)`,
		`INSERT INTO users(id, username) VALUES (333, 'carol')`,
		`INSERT INTO users(id, username) VALUES (111, 'Alice')`,
		`INSERT INTO users(id, username) VALUES (333, NULL)`,
		`INSERT INTO users(id, username) VALUES (222, 'bob')`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("exec %q: %v", s, err)
		}
	}
	return path
}

func TestSQLiteExtractAndResolve(t *testing.T) {
	t.Parallel()
	path := newTestDB(t)

	src, err := Open(config.SourceConfig{Driver: "sqlite", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()

	got, err := src.ExtractAll(context.Background())
	if err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}
	want := []transport.Recipient{333, 111, 222}
	if len(got) != len(want) {
		t.Fatalf("ExtractAll = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ExtractAll[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	id, ok, err := src.ResolveHandle(context.Background(), "@alice")
	if err != nil || !ok || id != 111 {
		t.Fatalf("ResolveHandle(alice) = (%v, %v, %v), want (111, true, nil)", id, ok, err)
	}
	_, ok, err = src.ResolveHandle(context.Background(), "ghost")
	if err != nil || ok {
		t.Fatalf("ResolveHandle(ghost) = (_, %v, %v), want miss", ok, err)
	}
}

func TestSQLiteRejectsBadIdentifiers(t *testing.T) {
	t.Parallel()
	_, err := Open(config.SourceConfig{Driver: "sqlite", Path: "x.db", Table: "users; DROP TABLE users"}, logx.Nop())
	if err == nil {
		t.Fatal("expected identifier validation error")
	}
}

func TestSQLiteMissingTableIsUnreadable(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "empty.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if _, err := db.Exec(`CREATE TABLE other (x INTEGER)`); err != nil {
		t.Fatalf("exec: %v", err)
	}
	_ = db.Close()

	if _, err := Open(config.SourceConfig{Driver: "sqlite", Path: path}, logx.Nop()); err == nil {
		t.Fatal("expected error for missing users table")
	}
}
