// Package mongodb implements storage.Storage on a MongoDB collection.
//
// This is the production backend. Documents are stored as-is with an _id
// generated before insert, and a partial update is a single $set whose
// modified count goes straight back to the handler.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/aanand-mishra/student-records-api/internal/config"
	"github.com/aanand-mishra/student-records-api/internal/storage"
	"github.com/aanand-mishra/student-records-api/internal/types"
)

// Mongo is the MongoDB implementation of storage.Storage.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// New connects to cfg.Storage.MongoURI and verifies the connection with a
// ping, both bounded by cfg.Storage.ConnectTimeout.
func New(ctx context.Context, cfg *config.Config) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Storage.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Storage.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("mongodb.New: connect: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb.New: ping: %w", err)
	}

	coll := client.Database(cfg.Storage.Database).Collection(cfg.Storage.Collection)
	return &Mongo{client: client, coll: coll}, nil
}

// NewWithCollection wraps an existing collection. The caller owns the
// client's lifecycle.
func NewWithCollection(coll *mongo.Collection) *Mongo {
	return &Mongo{client: coll.Database().Client(), coll: coll}
}

// recordFromRaw reads a stored document field by field. A field that is
// missing or holds the wrong BSON type reads back as nil, so one malformed
// document surfaces as an incomplete record instead of a decode error.
func recordFromRaw(raw bson.Raw) types.StudentRecord {
	var rec types.StudentRecord
	if id, ok := raw.Lookup("_id").ObjectIDOK(); ok {
		rec.ID = id.Hex()
	}
	rec.Name = stringField(raw, "name")
	rec.Age = intField(raw, "age")

	if addr, ok := raw.Lookup("address").DocumentOK(); ok {
		rec.Address = &types.AddressRecord{
			City:    stringField(addr, "city"),
			Country: stringField(addr, "country"),
		}
	}
	return rec
}

func stringField(doc bson.Raw, key string) *string {
	v, ok := doc.Lookup(key).StringValueOK()
	if !ok {
		return nil
	}
	return &v
}

// intField accepts int32, int64, and doubles with no fractional part.
func intField(doc bson.Raw, key string) *int {
	val := doc.Lookup(key)
	if v, ok := val.Int32OK(); ok {
		n := int(v)
		return &n
	}
	if v, ok := val.Int64OK(); ok {
		n := int(v)
		return &n
	}
	if v, ok := val.DoubleOK(); ok && v == math.Trunc(v) && math.Abs(v) < 1<<53 {
		n := int(v)
		return &n
	}
	return nil
}

func (m *Mongo) CreateStudent(ctx context.Context, student types.Student) (string, error) {
	id := storage.NewID()
	doc := bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: student.Name},
		{Key: "age", Value: student.Age},
		{Key: "address", Value: bson.D{
			{Key: "city", Value: student.Address.City},
			{Key: "country", Value: student.Address.Country},
		}},
	}

	if _, err := m.coll.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("CreateStudent: insert: %w", err)
	}
	return id.Hex(), nil
}

func (m *Mongo) GetStudents(ctx context.Context, filter types.StudentFilter) ([]types.StudentRecord, error) {
	cursor, err := m.coll.Find(ctx, buildFilter(filter))
	if err != nil {
		return nil, fmt.Errorf("GetStudents: find: %w", err)
	}
	defer cursor.Close(ctx)

	records := make([]types.StudentRecord, 0)
	for cursor.Next(ctx) {
		records = append(records, recordFromRaw(cursor.Current))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("GetStudents: cursor: %w", err)
	}

	return records, nil
}

func (m *Mongo) GetStudentByID(ctx context.Context, id primitive.ObjectID) (types.StudentRecord, error) {
	raw, err := m.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Raw()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return types.StudentRecord{}, storage.ErrNotFound
		}
		return types.StudentRecord{}, fmt.Errorf("GetStudentByID: find: %w", err)
	}
	return recordFromRaw(raw), nil
}

func (m *Mongo) UpdateStudentByID(ctx context.Context, id primitive.ObjectID, update types.StudentUpdate) (int64, error) {
	set := buildSet(update)
	if len(set) == 0 {
		return 0, nil
	}

	result, err := m.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: set}},
	)
	if err != nil {
		return 0, fmt.Errorf("UpdateStudentByID: update: %w", err)
	}
	return result.ModifiedCount, nil
}

func (m *Mongo) DeleteStudentByID(ctx context.Context, id primitive.ObjectID) (int64, error) {
	result, err := m.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return 0, fmt.Errorf("DeleteStudentByID: delete: %w", err)
	}
	return result.DeletedCount, nil
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// buildFilter translates the list filter into a query document:
// exact match on address.country and a $gte range on age.
func buildFilter(filter types.StudentFilter) bson.D {
	query := bson.D{}
	if filter.Country != "" {
		query = append(query, bson.E{Key: "address.country", Value: filter.Country})
	}
	if filter.MinAge != nil {
		query = append(query, bson.E{Key: "age", Value: bson.D{{Key: "$gte", Value: *filter.MinAge}}})
	}
	return query
}

// buildSet returns the $set document for the fields present in update.
// address is replaced as a whole sub-document.
func buildSet(update types.StudentUpdate) bson.D {
	set := bson.D{}
	if name, ok := update.Name.Get(); ok {
		set = append(set, bson.E{Key: "name", Value: name})
	}
	if age, ok := update.Age.Get(); ok {
		set = append(set, bson.E{Key: "age", Value: age})
	}
	if addr, ok := update.Address.Get(); ok {
		set = append(set, bson.E{Key: "address", Value: bson.D{
			{Key: "city", Value: addr.City},
			{Key: "country", Value: addr.Country},
		}})
	}
	return set
}
