package store

import (
	"context"
	goerrors "errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/mapknowledge/pkg/errors"
	"github.com/matzehuels/mapknowledge/pkg/knowledge"
)

const mongoCollection = "knowledge"

// mongoDoc is one stored record. The record is kept as JSON text so it
// round-trips exactly like the SQL backend.
type mongoDoc struct {
	Source    string    `bson:"source"`
	Entity    string    `bson:"entity"`
	Knowledge string    `bson:"knowledge"`
	BatchID   string    `bson:"batch_id,omitempty"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoStore is a [Store] in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongo connects to uri and uses the knowledge collection of database.
func NewMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	if uri == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no MongoDB URI")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "connect to MongoDB")
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStore, err, "ping MongoDB")
	}

	coll := client.Database(database).Collection(mongoCollection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "source", Value: 1}, {Key: "entity", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStore, err, "index knowledge collection")
	}
	return &MongoStore{client: client, coll: coll}, nil
}

func recordFilter(source, entity string) bson.D {
	return bson.D{{Key: "source", Value: knowledge.CleanSource(source)}, {Key: "entity", Value: entity}}
}

func newDoc(source string, rec knowledge.Record, batch string) (mongoDoc, error) {
	if err := errors.ValidateEntity(rec.ID); err != nil {
		return mongoDoc{}, err
	}
	data, err := encodeRecord(rec)
	if err != nil {
		return mongoDoc{}, err
	}
	return mongoDoc{
		Source:    knowledge.CleanSource(source),
		Entity:    rec.ID,
		Knowledge: string(data),
		BatchID:   batch,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

func (s *MongoStore) Get(ctx context.Context, source, entity string) (knowledge.Record, bool, error) {
	var doc mongoDoc
	err := s.coll.FindOne(ctx, recordFilter(source, entity)).Decode(&doc)
	if goerrors.Is(err, mongo.ErrNoDocuments) {
		return knowledge.Record{}, false, nil
	}
	if err != nil {
		return knowledge.Record{}, false, errors.Wrap(errors.ErrCodeStore, err, "get %s", entity)
	}
	rec, err := decodeRecord(doc.Entity, []byte(doc.Knowledge))
	return rec, err == nil, err
}

func (s *MongoStore) Put(ctx context.Context, source string, rec knowledge.Record) error {
	doc, err := newDoc(source, rec, "")
	if err != nil {
		return err
	}
	_, err = s.coll.ReplaceOne(ctx, recordFilter(source, rec.ID), doc, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "put %s", rec.ID)
	}
	return nil
}

// PutList writes the records with one unordered bulk write. MongoDB has no
// cross-document atomicity without a replica set, so a failed batch may be
// partially applied; the batch id identifies what was written.
func (s *MongoStore) PutList(ctx context.Context, l *knowledge.List) (string, error) {
	batch := uuid.NewString()
	models := make([]mongo.WriteModel, 0, len(l.Knowledge))
	for _, rec := range l.Knowledge {
		doc, err := newDoc(l.Source, rec, batch)
		if err != nil {
			return "", err
		}
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(recordFilter(l.Source, rec.ID)).
			SetReplacement(doc).
			SetUpsert(true))
	}
	if len(models) == 0 {
		return batch, nil
	}
	if _, err := s.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
		return "", errors.Wrap(errors.ErrCodeStore, err, "put %d records", len(models))
	}
	return batch, nil
}

func (s *MongoStore) List(ctx context.Context, source string) (*knowledge.List, error) {
	source = knowledge.CleanSource(source)
	cur, err := s.coll.Find(ctx, bson.D{{Key: "source", Value: source}},
		options.Find().SetSort(bson.D{{Key: "entity", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "list %s", source)
	}
	var docs []mongoDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "list %s", source)
	}
	l := knowledge.NewList(source)
	for _, doc := range docs {
		rec, err := decodeRecord(doc.Entity, []byte(doc.Knowledge))
		if err != nil {
			return nil, err
		}
		l.Append(rec)
	}
	return l, nil
}

func (s *MongoStore) Sources(ctx context.Context) ([]string, error) {
	values, err := s.coll.Distinct(ctx, "source", bson.D{})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "list sources")
	}
	return newestFirst(distinctStrings(values)), nil
}

func distinctStrings(values []any) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func (s *MongoStore) DeleteSource(ctx context.Context, source string) error {
	_, err := s.coll.DeleteMany(ctx, bson.D{{Key: "source", Value: knowledge.CleanSource(source)}})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "delete %s", source)
	}
	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
