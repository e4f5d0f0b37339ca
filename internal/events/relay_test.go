package events

import (
	"testing"
	"time"

	"nick8/models"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureHub struct {
	events []models.ProgressEvent
}

func (h *captureHub) Publish(event models.ProgressEvent) {
	h.events = append(h.events, event)
}

func TestDecodeMessage(t *testing.T) {
	event := models.ProgressEvent{
		Type:      models.EventBadgeAwarded,
		UserEmail: "a@b.c",
		BadgeName: "Tasty Ten",
		Timestamp: time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC),
	}
	data, err := encodeEvent(event)
	require.NoError(t, err)

	got, err := decodeMessage(redis.XMessage{ID: "1-0", Values: map[string]interface{}{"data": data}})
	require.NoError(t, err)
	assert.Equal(t, event.BadgeName, got.BadgeName)
	assert.True(t, event.Timestamp.Equal(got.Timestamp))

	_, err = decodeMessage(redis.XMessage{ID: "2-0", Values: map[string]interface{}{}})
	assert.Error(t, err)
	_, err = decodeMessage(redis.XMessage{ID: "3-0", Values: map[string]interface{}{"data": "{"}})
	assert.Error(t, err)
}

func TestPublishWithoutRedisDeliversLocally(t *testing.T) {
	hub := &captureHub{}
	relay := NewRedisRelay(nil, hub)

	relay.Publish(models.ProgressEvent{Type: models.EventFoodLogged, UserEmail: "a@b.c"})
	require.Len(t, hub.events, 1)
	assert.Equal(t, models.EventFoodLogged, hub.events[0].Type)
}
