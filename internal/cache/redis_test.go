package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/thermomap/internal/models"
)

func TestKeys(t *testing.T) {
	project := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	object := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	assert.Equal(t, "thermomap:summaries:11111111-1111-1111-1111-111111111111", projectKey(project))
	assert.Equal(t, "all", objectField(uuid.Nil))
	assert.Equal(t, object.String(), objectField(object))
}

func TestNewWithClient_DefaultTTL(t *testing.T) {
	c := NewWithClient(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), 0)
	defer c.Close()
	assert.Equal(t, DefaultTTL, c.ttl)
}

func TestNew_BadURL(t *testing.T) {
	_, err := New(context.Background(), "not a url", time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse redis url")
}

// testCache connects to REDIS_TEST_URL; the round-trip tests are skipped
// when it is unset.
func testCache(t *testing.T) *SummaryCache {
	t.Helper()
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	c, err := New(context.Background(), url, time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSummaryCache_RoundTrip(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()
	project, object := uuid.New(), uuid.New()
	t.Cleanup(func() { c.InvalidateProject(ctx, project) })

	_, ok, err := c.GetSummaries(ctx, project, object)
	require.NoError(t, err)
	assert.False(t, ok)

	want := []models.LoggerDataSummary{{
		ID:            uuid.New(),
		FileName:      "t1.vi2",
		RecordCount:   96,
		ParsingStatus: models.StatusCompleted,
		StorageStatus: models.StorageStored,
	}}
	require.NoError(t, c.SetSummaries(ctx, project, object, want))
	require.NoError(t, c.SetSummaries(ctx, project, uuid.Nil, nil))

	got, ok, err := c.GetSummaries(ctx, project, object)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want[0].ID, got[0].ID)
	assert.Equal(t, "t1.vi2", got[0].FileName)

	all, ok, err := c.GetSummaries(ctx, project, uuid.Nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, all)

	ttl, err := c.client.TTL(ctx, projectKey(project)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestSummaryCache_InvalidateProject(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()
	project, other := uuid.New(), uuid.New()
	t.Cleanup(func() { c.InvalidateProject(ctx, other) })

	require.NoError(t, c.SetSummaries(ctx, project, uuid.Nil, []models.LoggerDataSummary{{FileName: "a.xlsx"}}))
	require.NoError(t, c.SetSummaries(ctx, other, uuid.Nil, []models.LoggerDataSummary{{FileName: "b.xlsx"}}))

	require.NoError(t, c.InvalidateProject(ctx, project))

	_, ok, err := c.GetSummaries(ctx, project, uuid.Nil)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = c.GetSummaries(ctx, other, uuid.Nil)
	require.NoError(t, err)
	assert.True(t, ok)
}
