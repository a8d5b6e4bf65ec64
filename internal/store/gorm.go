package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/codyseavey/cardboard-compass/backend/internal/models"
)

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// GormStore keeps every node as a row of the documents table
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open database. The documents table must already be
// migrated (see database.Initialize).
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Get(ctx context.Context, path Path, dst any) (bool, error) {
	if err := path.Validate(); err != nil {
		return false, err
	}

	var doc models.Document
	err := s.db.WithContext(ctx).Where("path = ?", string(path)).Take(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", path, err)
	}

	if err := json.Unmarshal([]byte(doc.Value), dst); err != nil {
		return true, fmt.Errorf("decode %s: %w", path, err)
	}
	return true, nil
}

func (s *GormStore) Set(ctx context.Context, path Path, value any) error {
	if err := path.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	if err := s.upsert(s.db.WithContext(ctx), path, data); err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	return nil
}

func (s *GormStore) Update(ctx context.Context, path Path, fields map[string]any) error {
	if err := s.merge(ctx, path, fields, true); err != nil {
		return fmt.Errorf("update %s: %w", path, err)
	}
	return nil
}

func (s *GormStore) Merge(ctx context.Context, path Path, fields map[string]any) error {
	if err := s.merge(ctx, path, fields, false); err != nil {
		return fmt.Errorf("merge %s: %w", path, err)
	}
	return nil
}

// merge reads, merges and writes the node inside one transaction so a
// concurrent delete either happens first (and is seen) or after
func (s *GormStore) merge(ctx context.Context, path Path, fields map[string]any, create bool) error {
	if err := path.Validate(); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		merged := make(map[string]json.RawMessage)

		var doc models.Document
		err := tx.Where("path = ?", string(path)).Take(&doc).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if !create {
				return ErrNotFound
			}
		case err != nil:
			return err
		default:
			if err := json.Unmarshal([]byte(doc.Value), &merged); err != nil {
				return fmt.Errorf("existing value is not an object: %w", err)
			}
		}

		for name, value := range fields {
			data, err := json.Marshal(value)
			if err != nil {
				return fmt.Errorf("encode field %s: %w", name, err)
			}
			merged[name] = data
		}

		data, err := json.Marshal(merged)
		if err != nil {
			return err
		}
		return s.upsert(tx, path, data)
	})
}

func (s *GormStore) Delete(ctx context.Context, path Path) error {
	if err := path.Validate(); err != nil {
		return err
	}

	lo, hi := path.descendantRange()
	result := s.db.WithContext(ctx).
		Where("path = ? OR (path > ? AND path < ?)", string(path), lo, hi).
		Delete(&models.Document{})
	if result.Error != nil {
		return fmt.Errorf("delete %s: %w", path, result.Error)
	}
	return nil
}

func (s *GormStore) Push(path Path) (Path, error) {
	if err := path.Validate(); err != nil {
		return "", err
	}

	// v7 keys sort by creation time, like realtime-database push ids
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return path.Child(id.String()), nil
}

func (s *GormStore) Children(ctx context.Context, path Path) ([]Snapshot, error) {
	if err := path.Validate(); err != nil {
		return nil, err
	}

	var docs []models.Document
	if err := s.db.WithContext(ctx).
		Where("parent = ?", string(path)).
		Order("segment ASC").
		Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}
	return toSnapshots(docs), nil
}

func (s *GormStore) Query(ctx context.Context, path Path, field string, value any) ([]Snapshot, error) {
	if err := path.Validate(); err != nil {
		return nil, err
	}
	if !fieldPattern.MatchString(field) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidField, field)
	}

	// field is a plain identifier, so inlining it lets sqlite match the
	// expression index on category
	var docs []models.Document
	if err := s.db.WithContext(ctx).
		Where(fmt.Sprintf("parent = ? AND json_extract(value, '$.%s') = ?", field), string(path), value).
		Order("segment ASC").
		Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("query %s by %s: %w", path, field, err)
	}
	return toSnapshots(docs), nil
}

func (s *GormStore) Find(ctx context.Context, root Path, key string) ([]Path, error) {
	if err := root.Validate(); err != nil {
		return nil, err
	}

	lo, hi := root.descendantRange()
	var paths []string
	if err := s.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("segment = ? AND path > ? AND path < ?", key, lo, hi).
		Order("path ASC").
		Pluck("path", &paths).Error; err != nil {
		return nil, fmt.Errorf("find %s under %s: %w", key, root, err)
	}

	result := make([]Path, len(paths))
	for i, p := range paths {
		result[i] = Path(p)
	}
	return result, nil
}

func (s *GormStore) upsert(tx *gorm.DB, path Path, data []byte) error {
	doc := models.Document{
		Path:      string(path),
		Parent:    string(path.Parent()),
		Segment:   path.Key(),
		Value:     string(data),
		UpdatedAt: time.Now(),
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "path"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&doc).Error
}

func toSnapshots(docs []models.Document) []Snapshot {
	snaps := make([]Snapshot, len(docs))
	for i, doc := range docs {
		snaps[i] = Snapshot{Key: doc.Segment, Value: json.RawMessage(doc.Value)}
	}
	return snaps
}
