package db

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nick8/models"
)

type fakeDynamo struct {
	getItem    map[string]types.AttributeValue
	updateErr  error
	updateOut  map[string]types.AttributeValue
	lastUpdate *dynamodb.UpdateItemInput
}

func (f *fakeDynamo) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return &dynamodb.GetItemOutput{Item: f.getItem}, nil
}

func (f *fakeDynamo) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	return &dynamodb.QueryOutput{}, nil
}

func (f *fakeDynamo) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.lastUpdate = in
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &dynamodb.UpdateItemOutput{Attributes: f.updateOut}, nil
}

func TestDynamoGetStreakTrimsLegacyTimestamp(t *testing.T) {
	fake := &fakeDynamo{getItem: map[string]types.AttributeValue{
		"UserEmail":   &types.AttributeValueMemberS{Value: "a@b.c"},
		"Streak":      &types.AttributeValueMemberN{Value: "4"},
		"LastUpdated": &types.AttributeValueMemberS{Value: "2024-03-10T18:22:01.123Z"},
	}}
	record, err := NewDynamoStore(fake).GetStreak(context.Background(), "a@b.c")
	require.NoError(t, err)
	assert.Equal(t, 4, record.Streak)
	assert.Equal(t, "2024-03-10", record.LastUpdated)
}

func TestDynamoCompareAndSetStreak(t *testing.T) {
	fake := &fakeDynamo{}
	store := NewDynamoStore(fake)
	next := models.StreakRecord{UserEmail: "a@b.c", Streak: 1, LastUpdated: "2024-03-11"}

	ok, err := store.CompareAndSetStreak(context.Background(), "", next)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "attribute_not_exists(LastUpdated)", aws.ToString(fake.lastUpdate.ConditionExpression))

	_, err = store.CompareAndSetStreak(context.Background(), "2024-03-10", next)
	require.NoError(t, err)
	assert.Equal(t, "begins_with(LastUpdated, :prev)", aws.ToString(fake.lastUpdate.ConditionExpression))

	fake.updateErr = &types.ConditionalCheckFailedException{Message: aws.String("lost")}
	ok, err = store.CompareAndSetStreak(context.Background(), "2024-03-10", next)
	require.NoError(t, err)
	assert.False(t, ok)

	fake.updateErr = errors.New("timeout")
	_, err = store.CompareAndSetStreak(context.Background(), "2024-03-10", next)
	assert.ErrorIs(t, err, models.ErrStoreUnavailable)
}

func TestDynamoIncrementLogCount(t *testing.T) {
	fake := &fakeDynamo{updateOut: map[string]types.AttributeValue{
		"TotalLogs": &types.AttributeValueMemberN{Value: "10"},
	}}
	total, err := NewDynamoStore(fake).IncrementLogCount(context.Background(), "a@b.c")
	require.NoError(t, err)
	assert.Equal(t, 10, total)
}

func TestDynamoAddBadgeAlreadyHeld(t *testing.T) {
	fake := &fakeDynamo{
		updateErr: &types.ConditionalCheckFailedException{Message: aws.String("held")},
		getItem: map[string]types.AttributeValue{
			"Badges": &types.AttributeValueMemberL{Value: []types.AttributeValue{
				&types.AttributeValueMemberS{Value: "First Bite"},
			}},
		},
	}
	badges, added, err := NewDynamoStore(fake).AddBadge(context.Background(), "a@b.c", "First Bite")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, []string{"First Bite"}, badges)
}
