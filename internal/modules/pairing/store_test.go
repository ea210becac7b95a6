// README: DB-backed pairing store tests; skipped unless GLIDE_TEST_DSN is set.
package pairing

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func TestPGCreateAndFindActive(t *testing.T) {
	ctx := context.Background()
	store := setupPairingStore(t)
	now := time.Now()

	p := &Pairing{
		ID: "pair-1", DriverID: "driver-1", Code: "482913",
		Status: StatusActive, ExpiresAt: now.Add(5 * time.Minute), CreatedAt: now,
	}
	if err := store.Create(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.FindActiveByCode(ctx, "482913", now)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.ID != "pair-1" || got.DriverID != "driver-1" {
		t.Errorf("got %+v, want pair-1 for driver-1", got)
	}

	// past expiry the same row no longer resolves
	if _, err := store.FindActiveByCode(ctx, "482913", now.Add(10*time.Minute)); !errors.Is(err, ErrNotFound) {
		t.Errorf("expired lookup: err = %v, want ErrNotFound", err)
	}
	if _, err := store.FindActiveByCode(ctx, "000000", now); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown code: err = %v, want ErrNotFound", err)
	}
}

func TestPGFindActivePrefersNewestIssue(t *testing.T) {
	ctx := context.Background()
	store := setupPairingStore(t)
	now := time.Now()

	older := &Pairing{
		ID: "pair-old", DriverID: "driver-1", Code: "482913",
		Status: StatusActive, ExpiresAt: now.Add(5 * time.Minute), CreatedAt: now.Add(-time.Minute),
	}
	newer := &Pairing{
		ID: "pair-new", DriverID: "driver-2", Code: "482913",
		Status: StatusActive, ExpiresAt: now.Add(5 * time.Minute), CreatedAt: now,
	}
	for _, p := range []*Pairing{older, newer} {
		if err := store.Create(ctx, p); err != nil {
			t.Fatalf("create %s: %v", p.ID, err)
		}
	}

	got, err := store.FindActiveByCode(ctx, "482913", now)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.ID != "pair-new" {
		t.Errorf("got %s, want pair-new", got.ID)
	}
}

func TestPGExpireOld(t *testing.T) {
	ctx := context.Background()
	store := setupPairingStore(t)
	now := time.Now()

	stale := &Pairing{
		ID: "pair-stale", DriverID: "driver-1", Code: "111111",
		Status: StatusActive, ExpiresAt: now.Add(-time.Minute), CreatedAt: now.Add(-10 * time.Minute),
	}
	live := &Pairing{
		ID: "pair-live", DriverID: "driver-2", Code: "222222",
		Status: StatusActive, ExpiresAt: now.Add(5 * time.Minute), CreatedAt: now,
	}
	for _, p := range []*Pairing{stale, live} {
		if err := store.Create(ctx, p); err != nil {
			t.Fatalf("create %s: %v", p.ID, err)
		}
	}

	n, err := store.ExpireOld(ctx, now)
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if n != 1 {
		t.Errorf("expired = %d, want 1", n)
	}
	if _, err := store.FindActiveByCode(ctx, "111111", now); !errors.Is(err, ErrNotFound) {
		t.Errorf("stale still active: err = %v, want ErrNotFound", err)
	}
	if _, err := store.FindActiveByCode(ctx, "222222", now); err != nil {
		t.Errorf("live pairing lost: %v", err)
	}
}

func setupPairingStore(t *testing.T) *PGStore {
	t.Helper()

	dsn := os.Getenv("GLIDE_TEST_DSN")
	if dsn == "" {
		t.Skip("GLIDE_TEST_DSN not set; skipping DB-backed store tests")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := applyMigration(ctx, db); err != nil {
		t.Fatalf("apply migration: %v", err)
	}

	if _, err := db.Exec(ctx, "TRUNCATE TABLE rides, offline_pairings, drivers, users"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
	seed := `
        INSERT INTO users (id, name, role) VALUES
            ('driver-1', 'Driver One', 'driver'),
            ('driver-2', 'Driver Two', 'driver')`
	if _, err := db.Exec(ctx, seed); err != nil {
		t.Fatalf("seed users: %v", err)
	}

	return NewPGStore(db)
}

func applyMigration(ctx context.Context, db *pgxpool.Pool) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	path := filepath.Join(root, "migrations", "0001_init.sql")
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	cleaned := stripSQLComments(string(content))
	for _, stmt := range splitSQL(cleaned) {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 6; i++ {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func stripSQLComments(input string) string {
	var b strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		b.WriteString(scanner.Text())
		b.WriteString("\n")
	}
	return b.String()
}

func splitSQL(input string) []string {
	parts := strings.Split(input, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		stmt := strings.TrimSpace(p)
		if stmt == "" {
			continue
		}
		out = append(out, stmt)
	}
	return out
}
