package db

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"nick8/models"
)

// MongoStore keeps entries, streaks, log counts and badges in MongoDB.
type MongoStore struct {
	entries *mongo.Collection
	streaks *mongo.Collection
	counts  *mongo.Collection
	badges  *mongo.Collection
}

func NewMongoStore(database *mongo.Database) *MongoStore {
	return &MongoStore{
		entries: database.Collection(EntriesCollection),
		streaks: database.Collection(StreaksCollection),
		counts:  database.Collection(LogCountsCollection),
		badges:  database.Collection(BadgesCollection),
	}
}

// EnsureIndexes creates the per-user timestamp index range queries rely on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.entries.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userEmail", Value: 1}, {Key: "timestamp", Value: 1}},
		Options: options.Index().SetName(EntriesIndex),
	})
	if err != nil {
		return unavailable("create entries index", err)
	}
	return nil
}

func (s *MongoStore) AppendEntry(ctx context.Context, entry models.FoodEntry) (string, error) {
	if _, err := s.entries.InsertOne(ctx, entry); err != nil {
		return "", unavailable("append entry", err)
	}
	return entry.EntryID, nil
}

func (s *MongoStore) QueryRange(ctx context.Context, userEmail string, start, end time.Time) ([]models.FoodEntry, error) {
	filter := bson.M{
		"userEmail": userEmail,
		"timestamp": bson.M{"$gte": start, "$lt": end},
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cursor, err := s.entries.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, unavailable("query entries", err)
	}
	defer cursor.Close(ctx)

	var entries []models.FoodEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, unavailable("decode entries", err)
	}
	return entries, nil
}

func (s *MongoStore) GetStreak(ctx context.Context, userEmail string) (models.StreakRecord, error) {
	var record models.StreakRecord
	err := s.streaks.FindOne(ctx, bson.M{"_id": userEmail}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.StreakRecord{UserEmail: userEmail}, nil
	}
	if err != nil {
		return models.StreakRecord{}, unavailable("get streak", err)
	}
	return record, nil
}

// CompareAndSetStreak matches on the previous lastUpdated value. For a first
// write the upsert collides on _id if another request created the record.
func (s *MongoStore) CompareAndSetStreak(ctx context.Context, expectedLast string, next models.StreakRecord) (bool, error) {
	filter := bson.M{"_id": next.UserEmail, "lastUpdated": expectedLast}
	if expectedLast == "" {
		filter["lastUpdated"] = bson.M{"$exists": false}
	}
	update := bson.M{"$set": bson.M{
		"streak":      next.Streak,
		"lastUpdated": next.LastUpdated,
	}}

	result, err := s.streaks.UpdateOne(ctx, filter, update, options.Update().SetUpsert(expectedLast == ""))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, unavailable("update streak", err)
	}
	return result.MatchedCount > 0 || result.UpsertedCount > 0, nil
}

func (s *MongoStore) GetLogCount(ctx context.Context, userEmail string) (int, error) {
	var count models.LogCount
	err := s.counts.FindOne(ctx, bson.M{"_id": userEmail}).Decode(&count)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, unavailable("get log count", err)
	}
	return count.TotalLogs, nil
}

func (s *MongoStore) IncrementLogCount(ctx context.Context, userEmail string) (int, error) {
	var count models.LogCount
	err := s.counts.FindOneAndUpdate(
		ctx,
		bson.M{"_id": userEmail},
		bson.M{"$inc": bson.M{"totalLogs": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&count)
	if err != nil {
		return 0, unavailable("increment log count", err)
	}
	return count.TotalLogs, nil
}

func (s *MongoStore) GetBadges(ctx context.Context, userEmail string) ([]string, error) {
	var set models.BadgeSet
	err := s.badges.FindOne(ctx, bson.M{"_id": userEmail}).Decode(&set)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return []string{}, nil
	}
	if err != nil {
		return nil, unavailable("get badges", err)
	}
	if set.Badges == nil {
		set.Badges = []string{}
	}
	return set.Badges, nil
}

// AddBadge uses $addToSet and inspects the document as it was before the
// update to tell whether the badge is new.
func (s *MongoStore) AddBadge(ctx context.Context, userEmail, badge string) ([]string, bool, error) {
	var before models.BadgeSet
	err := s.badges.FindOneAndUpdate(
		ctx,
		bson.M{"_id": userEmail},
		bson.M{"$addToSet": bson.M{"badges": badge}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.Before),
	).Decode(&before)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, unavailable("add badge", err)
	}

	if before.Has(badge) {
		return before.Badges, false, nil
	}
	return append(before.Badges, badge), true, nil
}
