package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-translator-backend/internal/domain"
)

// newRepoDB opens a throwaway SQLite database in a temp dir and migrates the
// given models. Passing no models leaves the schema empty, which is handy for
// exercising error paths.
func newRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func TestOpenSQLite_MissingParentDir(t *testing.T) {
	if _, err := OpenSQLite(filepath.Join(t.TempDir(), "no-such-dir", "x.db")); err == nil {
		t.Fatalf("expected error for missing parent directory")
	}
}

func TestOpenSQLite_CreatesAndMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.db")
	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	for _, table := range []string{"users", "translation_history", "replay_keys"} {
		if !db.Migrator().HasTable(table) {
			t.Errorf("expected table %q after migration", table)
		}
	}

	var fk int
	if err := db.Raw("PRAGMA foreign_keys;").Scan(&fk).Error; err != nil {
		t.Fatalf("read foreign_keys pragma: %v", err)
	}
	if fk != 1 {
		t.Fatalf("expected foreign_keys=1, got %d", fk)
	}
}

// TestOpenSQLite_SignupOnFreshDatabase drives the production open path end to
// end. OpenSQLite enables foreign_keys, so a cascade constraint migrated onto
// the wrong table would reject the very first INSERT INTO users.
func TestOpenSQLite_SignupOnFreshDatabase(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	// The account->history FK must sit on translation_history; users itself
	// must not reference anything.
	var usersDDL string
	if err := db.Raw("SELECT sql FROM sqlite_master WHERE type = 'table' AND name = 'users'").
		Scan(&usersDDL).Error; err != nil {
		t.Fatalf("read users DDL: %v", err)
	}
	if strings.Contains(strings.ToUpper(usersDDL), "FOREIGN KEY") {
		t.Fatalf("users table must not carry a foreign key: %s", usersDDL)
	}

	ctx := context.Background()
	if _, err := CreateAccount(ctx, db, "gail", "h", "g@x", "1"); err != nil {
		t.Fatalf("CreateAccount on a freshly migrated database: %v", err)
	}
	e := &domain.HistoryEntry{
		ID:             "99999999-0000-0000-0000-000000000000",
		Username:       "gail",
		OriginalText:   "hello",
		TranslatedText: "salam",
		TargetLang:     "darija",
		CreatedAt:      time.Now().UTC(),
	}
	if err := InsertHistory(ctx, db, e, 0); err != nil {
		t.Fatalf("InsertHistory after signup: %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("disk I/O error"), false},
		{gorm.ErrDuplicatedKey, true},
		{errors.New("UNIQUE constraint failed: users.username"), true},
		{errors.New("constraint failed: UNIQUE constraint failed: replay_keys.username (2067)"), true},
	}
	for _, c := range cases {
		if got := isUniqueViolation(c.err); got != c.want {
			t.Errorf("isUniqueViolation(%v) = %v; want %v", c.err, got, c.want)
		}
	}
}
