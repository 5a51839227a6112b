package content

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Loader reads show structure from the content database. Strictly
// read-only: no migrations, no writes.
type Loader struct {
	db *gorm.DB
}

func OpenPostgres(dsn string) (*Loader, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open content db: %w", err)
	}
	return &Loader{db: db}, nil
}

func NewLoader(db *gorm.DB) *Loader { return &Loader{db: db} }

// LoadShow fetches one show with its full round/category/question tree.
func (l *Loader) LoadShow(ctx context.Context, showID string) (Bundle, error) {
	var s Show
	if err := l.db.WithContext(ctx).First(&s, "id = ?", showID).Error; err != nil {
		return Bundle{}, fmt.Errorf("load show %s: %w", showID, err)
	}

	var rounds []Round
	err := l.db.WithContext(ctx).
		Preload("Categories.Questions").
		Order("position").
		Find(&rounds, "show_id = ?", showID).Error
	if err != nil {
		return Bundle{}, fmt.Errorf("load rounds for %s: %w", showID, err)
	}

	return Bundle{Show: s, Rounds: rounds}, nil
}
