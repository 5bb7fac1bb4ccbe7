package graph

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAccessors(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	rec := Record{
		"title":    "Budget",
		"score":    int64(42),
		"created":  ts.Format(time.RFC3339),
		"native":   ts,
		"keywords": []any{"finance", 7, "open"},
		"bad":      "yesterday",
	}

	assert.Equal(t, "Budget", rec.String("title"))
	assert.Equal(t, "", rec.String("missing"))
	assert.Equal(t, 42, rec.Int("score"))
	assert.Equal(t, int64(42), rec.Int64("score"))
	require.NotNil(t, rec.Time("created"))
	assert.True(t, ts.Equal(*rec.Time("created")))
	assert.True(t, ts.Equal(*rec.Time("native")))
	assert.Nil(t, rec.Time("bad"))
	assert.Equal(t, []string{"finance", "open"}, rec.Strings("keywords"))
}

func TestMemoryClientQueuesAndRecords(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient()
	c.PushReadResult(Result{Records: []Record{{"id": "a"}}})
	c.PushWriteResult(Result{Records: []Record{{"id": "b"}}})

	res, err := c.ExecuteRead(ctx, "MATCH (n) RETURN n.id AS id", nil)
	require.NoError(t, err)
	first, ok := res.First()
	require.True(t, ok)
	assert.Equal(t, "a", first.String("id"))

	res, err = c.ExecuteWriteBatch(ctx, []Statement{{Cypher: "CREATE (a)"}, {Cypher: "CREATE (b)", Params: map[string]any{"x": 1}}})
	require.NoError(t, err)
	assert.Len(t, res.Records, 1)
	assert.Equal(t, 1, c.Batches())
	assert.Len(t, c.WriteCalls(), 2)

	res, err = c.ExecuteRead(ctx, "MATCH (n) RETURN n", nil)
	require.NoError(t, err)
	_, ok = res.First()
	assert.False(t, ok)

	boom := errors.New("boom")
	c.WithError(boom)
	_, err = c.ExecuteWrite(ctx, "CREATE (c)", nil)
	assert.ErrorIs(t, err, boom)
}
