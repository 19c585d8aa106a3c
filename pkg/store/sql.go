package store

import (
	"context"
	goerrors "errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/matzehuels/mapknowledge/pkg/errors"
	"github.com/matzehuels/mapknowledge/pkg/knowledge"
)

// knowledgeRow is one stored record.
type knowledgeRow struct {
	Source    string         `gorm:"primaryKey;size:128"`
	Entity    string         `gorm:"primaryKey;size:512"`
	Knowledge datatypes.JSON `gorm:"not null"`
	BatchID   string         `gorm:"size:36;index"`
	UpdatedAt time.Time
}

func (knowledgeRow) TableName() string { return "knowledge" }

// SQLStore is a [Store] in an SQL database.
type SQLStore struct {
	db *gorm.DB
}

// NewSQLite opens, creating if needed, the SQLite database at path.
func NewSQLite(path string) (*SQLStore, error) {
	return NewSQL(sqlite.Open(path))
}

// NewSQL opens a store on any gorm dialector and migrates its schema.
func NewSQL(dialector gorm.Dialector) (*SQLStore, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "open knowledge store")
	}
	if err := db.AutoMigrate(&knowledgeRow{}); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "migrate knowledge store")
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Get(ctx context.Context, source, entity string) (knowledge.Record, bool, error) {
	var row knowledgeRow
	source = knowledge.CleanSource(source)
	err := s.db.WithContext(ctx).
		Where("source = ? AND entity = ?", source, entity).
		Take(&row).Error
	if goerrors.Is(err, gorm.ErrRecordNotFound) {
		return knowledge.Record{}, false, nil
	}
	if err != nil {
		return knowledge.Record{}, false, errors.Wrap(errors.ErrCodeStore, err, "get %s", entity)
	}
	rec, err := decodeRecord(row.Entity, row.Knowledge)
	return rec, err == nil, err
}

func (s *SQLStore) Put(ctx context.Context, source string, rec knowledge.Record) error {
	row, err := newRow(source, rec, "")
	if err != nil {
		return err
	}
	if err := upsert(s.db.WithContext(ctx), []knowledgeRow{row}); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "put %s", rec.ID)
	}
	return nil
}

func (s *SQLStore) PutList(ctx context.Context, l *knowledge.List) (string, error) {
	batch := uuid.NewString()
	rows := make([]knowledgeRow, 0, len(l.Knowledge))
	for _, rec := range l.Knowledge {
		row, err := newRow(l.Source, rec, batch)
		if err != nil {
			return "", err
		}
		rows = append(rows, row)
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(rows) == 0 {
			return nil
		}
		return upsert(tx, rows)
	})
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeStore, err, "put %d records", len(rows))
	}
	return batch, nil
}

func upsert(db *gorm.DB, rows []knowledgeRow) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source"}, {Name: "entity"}},
		DoUpdates: clause.AssignmentColumns([]string{"knowledge", "batch_id", "updated_at"}),
	}).CreateInBatches(&rows, 500).Error
}

func (s *SQLStore) List(ctx context.Context, source string) (*knowledge.List, error) {
	var rows []knowledgeRow
	source = knowledge.CleanSource(source)
	err := s.db.WithContext(ctx).
		Where("source = ?", source).
		Order("entity").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "list %s", source)
	}
	l := knowledge.NewList(source)
	for _, row := range rows {
		rec, err := decodeRecord(row.Entity, row.Knowledge)
		if err != nil {
			return nil, err
		}
		l.Append(rec)
	}
	return l, nil
}

func (s *SQLStore) Sources(ctx context.Context) ([]string, error) {
	var sources []string
	err := s.db.WithContext(ctx).Model(&knowledgeRow{}).Distinct().Pluck("source", &sources).Error
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "list sources")
	}
	return newestFirst(sources), nil
}

func (s *SQLStore) DeleteSource(ctx context.Context, source string) error {
	err := s.db.WithContext(ctx).Where("source = ?", knowledge.CleanSource(source)).Delete(&knowledgeRow{}).Error
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "delete %s", source)
	}
	return nil
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func newRow(source string, rec knowledge.Record, batch string) (knowledgeRow, error) {
	if err := errors.ValidateEntity(rec.ID); err != nil {
		return knowledgeRow{}, err
	}
	data, err := encodeRecord(rec)
	if err != nil {
		return knowledgeRow{}, err
	}
	return knowledgeRow{
		Source:    knowledge.CleanSource(source),
		Entity:    rec.ID,
		Knowledge: datatypes.JSON(data),
		BatchID:   batch,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

var _ Store = (*SQLStore)(nil)
