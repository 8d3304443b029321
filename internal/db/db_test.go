package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/diewo77/cobbler-crm/internal/config"
	"github.com/diewo77/cobbler-crm/internal/store"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestOpenAndMigrateSQLite(t *testing.T) {
	cfg := config.Load()
	cfg.Store.Backend = "sqlite"
	cfg.Store.SQLitePath = fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	log, _ := test.NewNullLogger()

	d, err := Open(cfg, log)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := Migrate(d); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// A second run must be a no-op.
	if err := Migrate(d); err != nil {
		t.Fatalf("re-migrate: %v", err)
	}
	if !d.Migrator().HasTable(&store.Entry{}) {
		t.Fatal("kv_entries table missing")
	}

	s := store.NewSQL(d, 0)
	ctx := context.Background()
	if err := s.Set(ctx, "k", []byte(`"v"`)); err != nil {
		t.Fatal(err)
	}
	if v, ok, _ := s.Get(ctx, "k"); !ok || string(v) != `"v"` {
		t.Errorf("round trip = %q, %v", v, ok)
	}
}

func TestOpenRejectsNonSQLBackend(t *testing.T) {
	cfg := config.Load()
	cfg.Store.Backend = "redis"
	log, _ := test.NewNullLogger()
	if _, err := Open(cfg, log); err == nil {
		t.Fatal("expected error for redis backend")
	}
}
