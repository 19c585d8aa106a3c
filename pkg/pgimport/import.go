// Package pgimport loads a knowledge list into the relational knowledge
// database used by map servers.
//
// An import replaces everything previously loaded from the list's source in
// one transaction: rows of the source are deleted, shared vocabularies
// (anatomical types, taxons, evidence) are upserted, and the term and path
// tables are filled from the list's records.
package pgimport

import (
	"context"
	goerrors "errors"
	"io"
	"reflect"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/matzehuels/mapknowledge/pkg/errors"
	"github.com/matzehuels/mapknowledge/pkg/httputil"
	"github.com/matzehuels/mapknowledge/pkg/knowledge"
)

const batchSize = 1000

// Stats summarises an import.
type Stats struct {
	Batch    string
	Source   string
	Terms    int
	Paths    int
	Duration time.Duration
}

// Importer writes knowledge lists to a database.
type Importer struct {
	db     *gorm.DB
	logger *log.Logger

	// OnProgress, when set, is called after each record is written.
	OnProgress func(done, total int)
}

// Open connects to the PostgreSQL database at dsn.
func Open(dsn string, logger *log.Logger) (*Importer, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "connect to knowledge database")
	}
	return New(db, logger), nil
}

// New creates an importer on an open database.
func New(db *gorm.DB, logger *log.Logger) *Importer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Importer{db: db, logger: logger}
}

// Close closes the database connection.
func (im *Importer) Close() error {
	sqlDB, err := im.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Import replaces the list's source in the database. Serialization
// failures and deadlocks roll back and retry the whole import.
func (im *Importer) Import(ctx context.Context, l *knowledge.List) (Stats, error) {
	if err := errors.ValidateSource(l.Source); err != nil {
		return Stats{}, err
	}
	start := time.Now()
	stats := Stats{Batch: uuid.NewString(), Source: l.Source}
	im.logger.Info("importing knowledge", "source", l.Source, "records", len(l.Knowledge), "batch", stats.Batch)

	err := httputil.Retry(ctx, 3, 500*time.Millisecond, func() error {
		s := stats
		err := im.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return im.importTx(tx, l, &s)
		})
		if err != nil {
			return classify(err)
		}
		stats = s
		return nil
	})
	if err != nil {
		return Stats{}, err
	}
	stats.Duration = time.Since(start)
	im.logger.Info("imported knowledge", "source", l.Source, "terms", stats.Terms, "paths", stats.Paths,
		"duration", stats.Duration)
	return stats, nil
}

func (im *Importer) importTx(tx *gorm.DB, l *knowledge.List, stats *Stats) error {
	source := l.Source
	for _, table := range sourceTables {
		if err := tx.Exec("DELETE FROM "+table+" WHERE source_id = ?", source).Error; err != nil {
			return err
		}
	}

	err := tx.Exec(`DELETE FROM anatomical_types at
		WHERE NOT EXISTS (SELECT 1 FROM path_node_types pt WHERE at.type_id = pt.type_id)`).Error
	if err != nil {
		return err
	}
	var types []anatomicalType
	for _, t := range AnatomicalTypes() {
		types = append(types, anatomicalType{TypeID: t, Label: t})
	}
	if err := insert(tx, &types, true); err != nil {
		return err
	}
	if err := insert(tx, &[]knowledgeSource{{SourceID: source}}, true); err != nil {
		return err
	}

	var (
		terms     []featureTerm
		termTypes []featureType
		seen      = map[string]bool{}
	)
	for _, rec := range l.Knowledge {
		if !l.FromSource(rec) || seen[rec.ID] {
			continue
		}
		seen[rec.ID] = true
		rows := buildFeatureRows(source, rec)
		terms = append(terms, rows.term)
		termTypes = append(termTypes, rows.types...)
	}
	if err := insert(tx, &terms, false); err != nil {
		return err
	}
	if err := insert(tx, &termTypes, false); err != nil {
		return err
	}
	stats.Terms = len(terms)

	stats.Paths = 0
	for i, rec := range l.Knowledge {
		if l.FromSource(rec) && rec.Connectivity != nil {
			if err := insertPath(tx, buildPathRows(source, rec)); err != nil {
				return errors.Wrap(errors.ErrCodeStore, err, "import path %s", rec.ID)
			}
			stats.Paths++
		}
		if im.OnProgress != nil {
			im.OnProgress(i+1, len(l.Knowledge))
		}
	}
	return nil
}

func insertPath(tx *gorm.DB, rows pathRows) error {
	steps := []struct {
		rows       any
		onConflict bool
	}{
		{&rows.taxons, true},
		{&rows.pathTaxons, false},
		{&rows.evidence, true},
		{&rows.pathEvidence, false},
		{&rows.nodes, true},
		{&rows.nodeFeatures, true},
		{&rows.edges, false},
		{&rows.features, false},
		{&rows.forward, false},
		{&rows.nodeTypes, false},
		{&rows.phenotypes, false},
	}
	for _, s := range steps {
		if err := insert(tx, s.rows, s.onConflict); err != nil {
			return err
		}
	}
	return tx.Create(&rows.properties).Error
}

// insert writes a pointer to a slice of rows. With ignoreConflicts, rows
// that already exist are skipped.
func insert(tx *gorm.DB, rows any, ignoreConflicts bool) error {
	if reflect.ValueOf(rows).Elem().Len() == 0 {
		return nil
	}
	if ignoreConflicts {
		tx = tx.Clauses(clause.OnConflict{DoNothing: true})
	}
	return tx.CreateInBatches(rows, batchSize).Error
}

// classify maps a database error onto an error code, marking transient
// failures retryable.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if goerrors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03":
			// serialization failure, deadlock, lock not available
			return httputil.Retryable(errors.Wrap(errors.ErrCodeStore, err, "transient database error"))
		case "23505", "23503":
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "knowledge violates a database constraint")
		case "42P01":
			return errors.Wrap(errors.ErrCodeStore, err, "knowledge database is missing a table")
		}
	}
	if errors.GetCode(err) != "" {
		return err
	}
	return errors.Wrap(errors.ErrCodeStore, err, "import knowledge")
}
