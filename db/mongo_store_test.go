package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"nick8/models"
)

func upserted(id string) bson.E {
	return bson.E{Key: "upserted", Value: bson.A{bson.D{{Key: "index", Value: 0}, {Key: "_id", Value: id}}}}
}

func TestMongoStoreEntries(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	mt.Run("append", func(mt *mtest.T) {
		store := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		id, err := store.AppendEntry(ctx, models.FoodEntry{EntryID: "a@b.c-1", UserEmail: "a@b.c", Timestamp: start, FoodName: "Toast"})
		require.NoError(mt, err)
		assert.Equal(mt, "a@b.c-1", id)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "insert", started.CommandName)
		assert.Equal(mt, "a@b.c-1", started.Command.Lookup("documents", "0", "_id").StringValue())
	})

	mt.Run("append duplicate id", func(mt *mtest.T) {
		store := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}))

		_, err := store.AppendEntry(ctx, models.FoodEntry{EntryID: "a@b.c-1", UserEmail: "a@b.c"})
		assert.ErrorIs(mt, err, models.ErrStoreUnavailable)
	})

	mt.Run("query range is half open and sorted", func(mt *mtest.T) {
		store := NewMongoStore(mt.DB)
		ns := mt.DB.Name() + "." + EntriesCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "a@b.c-1"}, {Key: "userEmail", Value: "a@b.c"}, {Key: "timestamp", Value: start}, {Key: "foodName", Value: "Toast"}},
			bson.D{{Key: "_id", Value: "a@b.c-2"}, {Key: "userEmail", Value: "a@b.c"}, {Key: "timestamp", Value: start.Add(12 * time.Hour)}, {Key: "foodName", Value: "Soup"}},
		))

		entries, err := store.QueryRange(ctx, "a@b.c", start, end)
		require.NoError(mt, err)
		require.Len(mt, entries, 2)
		assert.Equal(mt, "Toast", entries[0].FoodName)
		assert.True(mt, entries[1].Timestamp.Equal(start.Add(12*time.Hour)))

		cmd := mt.GetStartedEvent().Command
		assert.Equal(mt, "a@b.c", cmd.Lookup("filter", "userEmail").StringValue())
		assert.True(mt, cmd.Lookup("filter", "timestamp", "$gte").Time().Equal(start))
		assert.True(mt, cmd.Lookup("filter", "timestamp", "$lt").Time().Equal(end))
		_, err = cmd.Lookup("filter", "timestamp").Document().LookupErr("$lte")
		assert.Error(mt, err)
		assert.Equal(mt, int64(1), cmd.Lookup("sort", "timestamp").AsInt64())
	})

	mt.Run("query range failure", func(mt *mtest.T) {
		store := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Name: "BadValue", Message: "bad"}))

		_, err := store.QueryRange(ctx, "a@b.c", start, end)
		assert.ErrorIs(mt, err, models.ErrStoreUnavailable)
	})
}

func TestMongoStoreStreak(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	next := models.StreakRecord{UserEmail: "a@b.c", Streak: 2, LastUpdated: "2024-01-02"}

	mt.Run("get absent", func(mt *mtest.T) {
		store := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+"."+StreaksCollection, mtest.FirstBatch))

		record, err := store.GetStreak(ctx, "a@b.c")
		require.NoError(mt, err)
		assert.Equal(mt, models.StreakRecord{UserEmail: "a@b.c"}, record)
	})

	mt.Run("get existing", func(mt *mtest.T) {
		store := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+"."+StreaksCollection, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "a@b.c"}, {Key: "streak", Value: 4}, {Key: "lastUpdated", Value: "2024-01-01"}},
		))

		record, err := store.GetStreak(ctx, "a@b.c")
		require.NoError(mt, err)
		assert.Equal(mt, 4, record.Streak)
		assert.Equal(mt, "2024-01-01", record.LastUpdated)
	})

	mt.Run("swap matches previous date", func(mt *mtest.T) {
		store := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		ok, err := store.CompareAndSetStreak(ctx, "2024-01-01", next)
		require.NoError(mt, err)
		assert.True(mt, ok)

		cmd := mt.GetStartedEvent().Command
		assert.Equal(mt, "a@b.c", cmd.Lookup("updates", "0", "q", "_id").StringValue())
		assert.Equal(mt, "2024-01-01", cmd.Lookup("updates", "0", "q", "lastUpdated").StringValue())
		assert.Equal(mt, "2024-01-02", cmd.Lookup("updates", "0", "u", "$set", "lastUpdated").StringValue())
		upsert, set := cmd.Lookup("updates", "0", "upsert").BooleanOK()
		assert.False(mt, set && upsert)
	})

	mt.Run("swap loses to a concurrent update", func(mt *mtest.T) {
		store := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		ok, err := store.CompareAndSetStreak(ctx, "2024-01-01", next)
		require.NoError(mt, err)
		assert.False(mt, ok)
	})

	mt.Run("first write upserts", func(mt *mtest.T) {
		store := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 0}, upserted("a@b.c")))

		ok, err := store.CompareAndSetStreak(ctx, "", models.StreakRecord{UserEmail: "a@b.c", Streak: 1, LastUpdated: "2024-01-02"})
		require.NoError(mt, err)
		assert.True(mt, ok)

		cmd := mt.GetStartedEvent().Command
		assert.False(mt, cmd.Lookup("updates", "0", "q", "lastUpdated", "$exists").Boolean())
		assert.True(mt, cmd.Lookup("updates", "0", "upsert").Boolean())
	})

	mt.Run("first write races another creator", func(mt *mtest.T) {
		store := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key error"}))

		ok, err := store.CompareAndSetStreak(ctx, "", models.StreakRecord{UserEmail: "a@b.c", Streak: 1, LastUpdated: "2024-01-02"})
		require.NoError(mt, err)
		assert.False(mt, ok)
	})

	mt.Run("swap failure", func(mt *mtest.T) {
		store := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Name: "BadValue", Message: "bad"}))

		ok, err := store.CompareAndSetStreak(ctx, "2024-01-01", next)
		assert.ErrorIs(mt, err, models.ErrStoreUnavailable)
		assert.False(mt, ok)
	})
}

func TestMongoStoreLogCount(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("get absent", func(mt *mtest.T) {
		store := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+"."+LogCountsCollection, mtest.FirstBatch))

		count, err := store.GetLogCount(ctx, "a@b.c")
		require.NoError(mt, err)
		assert.Equal(mt, 0, count)
	})

	mt.Run("increment returns the new total", func(mt *mtest.T) {
		store := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{{Key: "_id", Value: "a@b.c"}, {Key: "totalLogs", Value: 5}}}))

		count, err := store.IncrementLogCount(ctx, "a@b.c")
		require.NoError(mt, err)
		assert.Equal(mt, 5, count)

		cmd := mt.GetStartedEvent().Command
		assert.Equal(mt, int64(1), cmd.Lookup("update", "$inc", "totalLogs").AsInt64())
		assert.True(mt, cmd.Lookup("upsert").Boolean())
		assert.True(mt, cmd.Lookup("new").Boolean())
	})
}

func TestMongoStoreBadges(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("get absent", func(mt *mtest.T) {
		store := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+"."+BadgesCollection, mtest.FirstBatch))

		badges, err := store.GetBadges(ctx, "a@b.c")
		require.NoError(mt, err)
		assert.Equal(mt, []string{}, badges)
	})

	mt.Run("add to a new user", func(mt *mtest.T) {
		store := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		badges, added, err := store.AddBadge(ctx, "a@b.c", "First Bite")
		require.NoError(mt, err)
		assert.True(mt, added)
		assert.Equal(mt, []string{"First Bite"}, badges)

		cmd := mt.GetStartedEvent().Command
		assert.Equal(mt, "First Bite", cmd.Lookup("update", "$addToSet", "badges").StringValue())
		assert.True(mt, cmd.Lookup("upsert").Boolean())
		returnsAfter, _ := cmd.Lookup("new").BooleanOK()
		assert.False(mt, returnsAfter)
	})

	mt.Run("add a new badge to an existing set", func(mt *mtest.T) {
		store := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: "a@b.c"},
			{Key: "badges", Value: bson.A{"First Bite"}},
		}}))

		badges, added, err := store.AddBadge(ctx, "a@b.c", "Tasty Ten")
		require.NoError(mt, err)
		assert.True(mt, added)
		assert.Equal(mt, []string{"First Bite", "Tasty Ten"}, badges)
	})

	mt.Run("add a badge already held", func(mt *mtest.T) {
		store := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: "a@b.c"},
			{Key: "badges", Value: bson.A{"First Bite", "Tasty Ten"}},
		}}))

		badges, added, err := store.AddBadge(ctx, "a@b.c", "Tasty Ten")
		require.NoError(mt, err)
		assert.False(mt, added)
		assert.Equal(mt, []string{"First Bite", "Tasty Ten"}, badges)
	})

	mt.Run("add failure", func(mt *mtest.T) {
		store := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Name: "BadValue", Message: "bad"}))

		_, _, err := store.AddBadge(ctx, "a@b.c", "Tasty Ten")
		assert.ErrorIs(mt, err, models.ErrStoreUnavailable)
	})
}
