package store

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry is one row of the kv_entries table.
type Entry struct {
	Key       string `gorm:"column:entry_key;primaryKey;size:255"`
	Value     string `gorm:"column:entry_value;type:text;not null"`
	UpdatedAt time.Time
}

func (Entry) TableName() string { return "kv_entries" }

// SQL stores entries in a GORM-managed table (SQLite or Postgres).
// A positive maxBytes caps the summed size of keys and values.
type SQL struct {
	db       *gorm.DB
	maxBytes int64
}

func NewSQL(db *gorm.DB, maxBytes int64) *SQL {
	return &SQL{db: db, maxBytes: maxBytes}
}

func (s *SQL) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var e Entry
	err := s.db.WithContext(ctx).Where("entry_key = ?", key).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(e.Value), true, nil
}

func (s *SQL) Set(ctx context.Context, key string, value []byte) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.maxBytes > 0 {
			var used int64
			if err := tx.Model(&Entry{}).
				Where("entry_key <> ?", key).
				Select("COALESCE(SUM(LENGTH(entry_key) + LENGTH(entry_value)), 0)").
				Scan(&used).Error; err != nil {
				return err
			}
			if used+int64(len(key)+len(value)) > s.maxBytes {
				return ErrQuotaExceeded
			}
		}
		e := Entry{Key: key, Value: string(value), UpdatedAt: time.Now()}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "entry_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"entry_value", "updated_at"}),
		}).Create(&e).Error
	})
}

func (s *SQL) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("entry_key = ?", key).Delete(&Entry{}).Error
}

func (s *SQL) Keys(ctx context.Context, prefix string) ([]string, error) {
	var all []string
	if err := s.db.WithContext(ctx).Model(&Entry{}).
		Where("entry_key LIKE ?", prefix+"%").
		Pluck("entry_key", &all).Error; err != nil {
		return nil, err
	}
	// LIKE treats '_' as a wildcard, so filter exactly.
	keys := all[:0]
	for _, k := range all {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *SQL) Clear(ctx context.Context) error {
	return s.db.WithContext(ctx).Where("1 = 1").Delete(&Entry{}).Error
}
