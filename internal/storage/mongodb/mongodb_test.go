package mongodb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/aanand-mishra/student-records-api/internal/storage"
	"github.com/aanand-mishra/student-records-api/internal/types"
)

var _ storage.Storage = (*Mongo)(nil)

const ns = "school.students"

func TestBuildFilter(t *testing.T) {
	assert.Equal(t, bson.D{}, buildFilter(types.StudentFilter{}))

	age := 18
	assert.Equal(t, bson.D{
		{Key: "address.country", Value: "US"},
		{Key: "age", Value: bson.D{{Key: "$gte", Value: 18}}},
	}, buildFilter(types.StudentFilter{Country: "US", MinAge: &age}))
}

func TestBuildSet(t *testing.T) {
	assert.Empty(t, buildSet(types.StudentUpdate{}))

	set := buildSet(types.StudentUpdate{
		Age:     types.Some(21),
		Address: types.Some(types.Address{City: "Oslo", Country: "NO"}),
	})
	assert.Equal(t, bson.D{
		{Key: "age", Value: 21},
		{Key: "address", Value: bson.D{{Key: "city", Value: "Oslo"}, {Key: "country", Value: "NO"}}},
	}, set)
}

func TestRecordFromRaw(t *testing.T) {
	raw, err := bson.Marshal(bson.D{
		{Key: "name", Value: "Ann"},
		{Key: "age", Value: 21.0},
		{Key: "address", Value: bson.D{{Key: "city", Value: "Rome"}, {Key: "country", Value: false}}},
	})
	require.NoError(t, err)

	rec := recordFromRaw(raw)
	assert.Equal(t, "", rec.ID)
	require.NotNil(t, rec.Age)
	assert.Equal(t, 21, *rec.Age)
	require.NotNil(t, rec.Address)
	assert.Equal(t, "Rome", *rec.Address.City)
	assert.Nil(t, rec.Address.Country)
}

func TestMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("create returns generated id", func(mt *mtest.T) {
		store := NewWithCollection(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		id, err := store.CreateStudent(ctx, types.Student{Name: "Ann", Age: 20, Address: types.Address{City: "Rome", Country: "IT"}})
		require.NoError(mt, err)

		_, err = storage.ParseID(id)
		assert.NoError(mt, err)
	})

	mt.Run("list decodes complete and incomplete documents", func(mt *mtest.T) {
		store := NewWithCollection(mt.Coll)
		first, second := storage.NewID(), storage.NewID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: first},
				{Key: "name", Value: "Ann"},
				{Key: "age", Value: int32(20)},
				{Key: "address", Value: bson.D{{Key: "city", Value: "Rome"}, {Key: "country", Value: "IT"}}},
			},
			bson.D{
				{Key: "_id", Value: second},
				{Key: "name", Value: "Bo"},
			},
		))

		recs, err := store.GetStudents(ctx, types.StudentFilter{})
		require.NoError(mt, err)
		require.Len(mt, recs, 2)

		assert.Equal(mt, first.Hex(), recs[0].ID)
		assert.True(mt, recs[0].Complete())
		assert.Equal(mt, 20, *recs[0].Age)

		assert.Equal(mt, second.Hex(), recs[1].ID)
		assert.Nil(mt, recs[1].Age)
		assert.False(mt, recs[1].Complete())
	})

	mt.Run("list keeps going past mistyped documents", func(mt *mtest.T) {
		store := NewWithCollection(mt.Coll)
		good, bad := storage.NewID(), storage.NewID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: good},
				{Key: "name", Value: "Ann"},
				{Key: "age", Value: int32(20)},
				{Key: "address", Value: bson.D{{Key: "city", Value: "Rome"}, {Key: "country", Value: "IT"}}},
			},
			bson.D{
				{Key: "_id", Value: bad},
				{Key: "name", Value: int32(123)},
				{Key: "age", Value: "twenty"},
				{Key: "address", Value: bson.D{{Key: "city", Value: "Oslo"}, {Key: "country", Value: "NO"}}},
			},
		))

		recs, err := store.GetStudents(ctx, types.StudentFilter{})
		require.NoError(mt, err)
		require.Len(mt, recs, 2)

		assert.True(mt, recs[0].Complete())
		assert.Equal(mt, bad.Hex(), recs[1].ID)
		assert.Nil(mt, recs[1].Name)
		assert.Nil(mt, recs[1].Age)
		assert.False(mt, recs[1].Complete())
	})

	mt.Run("get by id with mistyped field is incomplete", func(mt *mtest.T) {
		store := NewWithCollection(mt.Coll)
		id := storage.NewID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "name", Value: "Ann"},
			{Key: "age", Value: 20.5},
			{Key: "address", Value: "Rome"},
		}))

		rec, err := store.GetStudentByID(ctx, id)
		require.NoError(mt, err)
		assert.Nil(mt, rec.Age)
		assert.Nil(mt, rec.Address)

		_, err = rec.Student()
		assert.ErrorIs(mt, err, types.ErrIncompleteRecord)
	})

	mt.Run("get by id not found", func(mt *mtest.T) {
		store := NewWithCollection(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := store.GetStudentByID(ctx, storage.NewID())
		assert.ErrorIs(mt, err, storage.ErrNotFound)
	})

	mt.Run("get by id found", func(mt *mtest.T) {
		store := NewWithCollection(mt.Coll)
		id := storage.NewID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "name", Value: "Ann"},
			{Key: "age", Value: int64(20)},
			{Key: "address", Value: bson.D{{Key: "city", Value: "Rome"}}},
		}))

		rec, err := store.GetStudentByID(ctx, id)
		require.NoError(mt, err)
		_, err = rec.Student()
		assert.ErrorIs(mt, err, types.ErrIncompleteAddress)
	})

	mt.Run("update reports modified count", func(mt *mtest.T) {
		store := NewWithCollection(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
		))

		n, err := store.UpdateStudentByID(ctx, storage.NewID(), types.StudentUpdate{Age: types.Some(20)})
		require.NoError(mt, err)
		assert.EqualValues(mt, 0, n)
	})

	mt.Run("update failure is returned", func(mt *mtest.T) {
		store := NewWithCollection(mt.Coll)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Name:    "BadValue",
			Message: "bad update",
		}))

		_, err := store.UpdateStudentByID(ctx, storage.NewID(), types.StudentUpdate{Name: types.Some("x")})
		assert.Error(mt, err)
	})

	mt.Run("empty update never reaches the server", func(mt *mtest.T) {
		store := NewWithCollection(mt.Coll)

		n, err := store.UpdateStudentByID(ctx, storage.NewID(), types.StudentUpdate{})
		require.NoError(mt, err)
		assert.EqualValues(mt, 0, n)
	})

	mt.Run("delete reports deleted count", func(mt *mtest.T) {
		store := NewWithCollection(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		n, err := store.DeleteStudentByID(ctx, storage.NewID())
		require.NoError(mt, err)
		assert.EqualValues(mt, 1, n)
	})
}
