package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AggregateAll is the aggregate key the whole-show snapshot is stored under.
const AggregateAll = "all"

var ErrNotFound = errors.New("snapshot not found")

// Snapshot is one stored document plus its write time.
type Snapshot struct {
	Payload   []byte
	UpdatedAt time.Time
}

// Store is the durable key/value service snapshots live in. Writes are
// whole-document overwrites; there are no transactions or concurrency
// tokens, so the last put for a key wins.
type Store interface {
	Get(ctx context.Context, showID, aggregate string) (Snapshot, error)
	Put(ctx context.Context, showID, aggregate string, payload []byte) error
}

type snapshotRow struct {
	ShowID    string    `gorm:"column:show_id;primaryKey"`
	Aggregate string    `gorm:"column:aggregate_key;primaryKey"`
	Payload   []byte    `gorm:"column:payload"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (snapshotRow) TableName() string { return "show_snapshots" }

// PostgresStore keeps snapshots in a single upsert-only table.
type PostgresStore struct {
	db *gorm.DB
}

func OpenPostgres(dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	if err := db.AutoMigrate(&snapshotRow{}); err != nil {
		return nil, fmt.Errorf("migrate snapshot store: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Get(ctx context.Context, showID, aggregate string) (Snapshot, error) {
	var row snapshotRow
	err := s.db.WithContext(ctx).
		First(&row, "show_id = ? AND aggregate_key = ?", showID, aggregate).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("get snapshot %s/%s: %w", showID, aggregate, err)
	}
	return Snapshot{Payload: row.Payload, UpdatedAt: row.UpdatedAt}, nil
}

func (s *PostgresStore) Put(ctx context.Context, showID, aggregate string, payload []byte) error {
	row := snapshotRow{
		ShowID:    showID,
		Aggregate: aggregate,
		Payload:   payload,
		UpdatedAt: time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "show_id"}, {Name: "aggregate_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("put snapshot %s/%s: %w", showID, aggregate, err)
	}
	return nil
}
