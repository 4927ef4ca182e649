package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"inklore/server/internal/config"
	"inklore/server/internal/interfaces"
)

// saveRow is the database form of a save record. Actions and results are
// stored JSON-encoded so the table stays one row per adventure.
type saveRow struct {
	Key       string `gorm:"primaryKey;size:128;column:save_key"`
	Name      string `gorm:"size:255"`
	Context   string `gorm:"type:text"`
	Memory    string `gorm:"type:text"`
	Actions   string `gorm:"type:text"`
	Results   string `gorm:"type:text"`
	UpdatedAt time.Time
}

func (saveRow) TableName() string {
	return "save_records"
}

type MySQLStore struct {
	db *gorm.DB
}

func NewMySQLStore(cfg config.MySQLConfig) (*MySQLStore, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Username,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.AutoMigrate(&saveRow{}); err != nil {
		return nil, err
	}

	return &MySQLStore{db: db}, nil
}

func (s *MySQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Save upserts the record on its key.
func (s *MySQLStore) Save(ctx context.Context, key string, rec *interfaces.SaveRecord) error {
	actions, err := json.Marshal(rec.Actions)
	if err != nil {
		return fmt.Errorf("failed to encode actions: %w", err)
	}
	results, err := json.Marshal(rec.Results)
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}

	row := saveRow{
		Key:     key,
		Name:    rec.Name,
		Context: rec.Context,
		Memory:  rec.Memory,
		Actions: string(actions),
		Results: string(results),
	}

	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
}

func (s *MySQLStore) Load(ctx context.Context, key string) (*interfaces.SaveRecord, error) {
	var row saveRow
	err := s.db.WithContext(ctx).First(&row, "save_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch save record: %w", err)
	}

	rec := &interfaces.SaveRecord{
		Name:    row.Name,
		Context: row.Context,
		Memory:  row.Memory,
	}
	if err := json.Unmarshal([]byte(row.Actions), &rec.Actions); err != nil {
		return nil, fmt.Errorf("%w: actions: %v", ErrRecordMalformed, err)
	}
	if err := json.Unmarshal([]byte(row.Results), &rec.Results); err != nil {
		return nil, fmt.Errorf("%w: results: %v", ErrRecordMalformed, err)
	}
	return rec, nil
}

func (s *MySQLStore) List(ctx context.Context) ([]string, error) {
	var keys []string
	err := s.db.WithContext(ctx).
		Model(&saveRow{}).
		Order("updated_at DESC").
		Pluck("save_key", &keys).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list save records: %w", err)
	}
	return keys, nil
}
