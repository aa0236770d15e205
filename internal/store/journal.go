package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Record is one journaled write: the path is the row key, the value is the
// JSON that was written there. Replaying rows in path order rebuilds the
// tree, because a parent row always sorts before the leaf rows that refine
// it.
type Record struct {
	Path  string `gorm:"primaryKey;size:512"`
	Value string `gorm:"type:text;not null"`
}

func (Record) TableName() string {
	return "store_records"
}

// Persistent is a Memory tree mirrored into a gorm journal. The memory tree
// stays authoritative for reads and subscriptions; the journal only exists
// so the tree survives a restart.
type Persistent struct {
	*Memory
	db *gorm.DB
}

func NewPersistent(db *gorm.DB) *Persistent {
	return &Persistent{Memory: NewMemory(), db: db}
}

// Load replays the journal into the memory tree. Call once before serving.
func (p *Persistent) Load() error {
	var records []Record
	if err := p.db.Find(&records).Error; err != nil {
		return fmt.Errorf("store journal load: %w", err)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Path < records[j].Path })
	for _, rec := range records {
		var value any
		if err := json.Unmarshal([]byte(rec.Value), &value); err != nil {
			return fmt.Errorf("store journal replay %s: %w", rec.Path, err)
		}
		if err := p.Memory.Set(rec.Path, value); err != nil {
			return fmt.Errorf("store journal replay %s: %w", rec.Path, err)
		}
	}
	return nil
}

func (p *Persistent) Set(path string, value any) error {
	if err := p.Memory.Set(path, value); err != nil {
		return err
	}
	return p.journalSet(path, value)
}

func (p *Persistent) Update(values map[string]any) error {
	if err := p.Memory.Update(values); err != nil {
		return err
	}
	for path, value := range values {
		if err := p.journalSet(path, value); err != nil {
			return err
		}
	}
	return nil
}

func (p *Persistent) Remove(path string) error {
	if err := p.Memory.Remove(path); err != nil {
		return err
	}
	return p.journalRemove(path)
}

func (p *Persistent) Push(path string, value any) (string, error) {
	key, err := p.Memory.Push(path, value)
	if err != nil {
		return "", err
	}
	if err := p.journalSet(path+"/"+key, value); err != nil {
		return "", err
	}
	return key, nil
}

func (p *Persistent) Increment(path string, delta int64) error {
	if err := p.Memory.Increment(path, delta); err != nil {
		return err
	}
	// Journal the resulting value, not the delta, so replay stays a plain
	// overwrite.
	current, err := p.Memory.Get(path)
	if err != nil {
		return err
	}
	return p.journalSet(path, current)
}

func (p *Persistent) journalSet(path string, value any) error {
	if value == nil {
		return p.journalRemove(path)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	cleaned := strings.Trim(path, "/")
	return p.db.Transaction(func(tx *gorm.DB) error {
		// A write replaces the whole subtree, so stale child rows go first.
		if err := tx.Where("path LIKE ?", escapeLike(cleaned)+"/%").Delete(&Record{}).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "path"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).Create(&Record{Path: cleaned, Value: string(raw)}).Error
	})
}

func (p *Persistent) journalRemove(path string) error {
	cleaned := strings.Trim(path, "/")
	return p.db.Where("path = ? OR path LIKE ?", cleaned, escapeLike(cleaned)+"/%").
		Delete(&Record{}).Error
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	return strings.ReplaceAll(s, "_", `\_`)
}
