package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSQL(t *testing.T, maxBytes int64) *SQL {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewSQL(db, maxBytes)
}

func TestSQL_SetGetOverwrite(t *testing.T) {
	s := setupSQL(t, 0)
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, KeyEnquiries); err != nil || ok {
		t.Fatalf("expected absent key, ok=%v err=%v", ok, err)
	}
	if err := s.Set(ctx, KeyEnquiries, []byte(`[1]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, KeyEnquiries, []byte(`[1,2]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, ok, err := s.Get(ctx, KeyEnquiries)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if string(v) != `[1,2]` {
		t.Errorf("expected overwritten value, got %s", v)
	}
}

func TestSQL_KeysPrefixIsExact(t *testing.T) {
	s := setupSQL(t, 0)
	ctx := context.Background()
	for _, k := range []string{"cobbler_img_2_pickup_collection", "cobbler_img_1_service_before", "cobblerXimgX1", KeyStaff} {
		if err := s.Set(ctx, k, []byte(`"x"`)); err != nil {
			t.Fatal(err)
		}
	}
	keys, err := s.Keys(ctx, ImageKeyPrefix)
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 image keys, got %v", keys)
	}
	if keys[0] != "cobbler_img_1_service_before" {
		t.Errorf("keys not sorted: %v", keys)
	}
}

func TestSQL_Quota(t *testing.T) {
	s := setupSQL(t, 64)
	ctx := context.Background()
	if err := s.Set(ctx, "a", []byte(strings.Repeat("1", 40))); err != nil {
		t.Fatal(err)
	}
	err := s.Set(ctx, "b", []byte(strings.Repeat("2", 40)))
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected quota error, got %v", err)
	}
	// Replacing the same key does not count the old value twice.
	if err := s.Set(ctx, "a", []byte(strings.Repeat("3", 60))); err != nil {
		t.Fatalf("overwrite within quota: %v", err)
	}
}

func TestSQL_DeleteAndClear(t *testing.T) {
	s := setupSQL(t, 0)
	ctx := context.Background()
	_ = s.Set(ctx, "a", []byte("1"))
	_ = s.Set(ctx, "b", []byte("2"))
	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Get(ctx, "a"); ok {
		t.Error("a should be deleted")
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	keys, _ := s.Keys(ctx, "")
	if len(keys) != 0 {
		t.Errorf("expected no keys after clear, got %v", keys)
	}
}

func TestSQL_WithAdapterFallback(t *testing.T) {
	s := setupSQL(t, 120)
	a := NewAdapter(s, nil)
	ctx := context.Background()
	doc := map[string]string{"photo": "data:image/jpeg;base64," + strings.Repeat("Q", 200)}
	if err := a.Set(ctx, "doc", doc); err != nil {
		t.Fatalf("expected degraded write, got %v", err)
	}
	got, _ := Get(ctx, a, "doc", map[string]string{})
	if got["photo"] != ImagePlaceholder {
		t.Errorf("photo = %q, want placeholder", got["photo"])
	}
}
