package db

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"setsplit-server-go/models"
)

func TestNewResultID(t *testing.T) {
	a, b := NewResultID(), NewResultID()
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{32}$`), a)
	assert.NotEqual(t, a, b)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Ping(ctx))

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrResultNotFound)

	assert.Error(t, s.Save(ctx, &models.Result{}))

	r := &models.Result{ID: "abc", SQL: "INSERT ...;", TotalStatements: 1, Summary: models.NewDistributionSummary()}
	require.NoError(t, s.Save(ctx, r))

	got, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, r, got)

	// Stored values are copies.
	got.SQL = "changed"
	again, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "INSERT ...;", again.SQL)
}

func TestDecodeResult(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	got, err := decodeResult("id1", map[string]string{
		"sql":              "INSERT INTO students ...;",
		"summary":          `{"total_students":2,"section_counts":{"X":2},"set_distribution":{"X":{"A":1,"B":1,"C":0,"D":0,"E":0}}}`,
		"created_at":       created.Format(time.RFC3339Nano),
		"total_statements": "2",
	})
	require.NoError(t, err)
	assert.Equal(t, "id1", got.ID)
	assert.Equal(t, 2, got.TotalStatements)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Equal(t, 1, got.Summary.SetDistribution["X"]["B"])

	_, err = decodeResult("id2", map[string]string{"summary": "{"})
	assert.Error(t, err)

	_, err = decodeResult("id3", map[string]string{"summary": "{}", "total_statements": "many"})
	assert.Error(t, err)
}
