package db

import (
	"context"
	"fmt"
	"net/url"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"nick8/models"
)

// Collection and table names shared by every backend.
const (
	EntriesCollection   = "FoodEntries"
	EntriesIndex        = "UserEmail-Timestamp-index"
	StreaksCollection   = "Nick8Streaks"
	LogCountsCollection = "FoodLogCounts"
	BadgesCollection    = "NickBadges"
)

// ExtractDBName parses the database name from the URI, defaulting to "nick8"
func ExtractDBName(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "nick8"
	}
	if u.Path != "" && u.Path != "/" {
		return u.Path[1:] // Trim leading '/'
	}
	return "nick8"
}

// ConnectMongoDB establishes a connection to MongoDB using the provided URI
func ConnectMongoDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Verify connection with a ping
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.Printf("Using database: %s", ExtractDBName(uri))
	return client, nil
}

// unavailable wraps a driver error so callers can match ErrStoreUnavailable.
func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", models.ErrStoreUnavailable, op, err)
}
