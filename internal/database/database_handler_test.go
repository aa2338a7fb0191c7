package database

import (
	"fmt"
	"testing"

	"tubescout/internal/domain"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestSetupDBWithExistingConnection(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", t.Name())
	existing, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { DB = nil })

	db, err := SetupDB(WithExistingDB(existing))
	if err != nil {
		t.Fatalf("SetupDB returned error: %v", err)
	}
	if db != existing {
		t.Fatal("SetupDB should reuse the provided connection")
	}
	if DB != existing {
		t.Fatal("package connection should point at the provided handle")
	}
}

func TestSetupDBMigratesWithDialector(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", t.Name())
	t.Cleanup(func() { DB = nil })

	db, err := SetupDB(WithDialector(sqlite.Open(dsn)))
	if err != nil {
		t.Fatalf("SetupDB returned error: %v", err)
	}
	if !db.Migrator().HasTable(&domain.SearchRecord{}) {
		t.Fatal("expected search_records table after migration")
	}
}

func TestSetupDBRequiresSomeConnection(t *testing.T) {
	t.Cleanup(func() { DB = nil })

	if _, err := SetupDB(func(cfg *Config) {
		cfg.Dialector = nil
		cfg.ExistingDB = nil
	}); err == nil {
		t.Fatal("expected error when neither dialector nor connection is given")
	}
}
