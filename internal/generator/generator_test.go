package generator

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invalder/OpenDGAi/internal/pdpa"
)

func TestGenerateIsDeterministicForSeed(t *testing.T) {
	cfg := Config{NumRecords: 50, Seed: 7}
	a, err := New(cfg).Generate(context.Background())
	require.NoError(t, err)
	b, err := New(cfg).Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a.Records, 50)
}

func TestGeneratedIDsMatchStats(t *testing.T) {
	out, err := New(Config{NumRecords: 200, PIIChance: 1, InvalidIDChance: 0.5, Seed: 11}).Generate(context.Background())
	require.NoError(t, err)

	valid, invalid := 0, 0
	for _, rec := range out.Records {
		id, ok := rec[FieldNationalID].(string)
		require.True(t, ok, "national id missing in %v", rec)
		require.Len(t, id, 13)
		if pdpa.ValidateNationalID(id) {
			valid++
		} else {
			invalid++
		}
	}
	assert.Equal(t, out.Stats.ValidIDs, valid)
	assert.Equal(t, out.Stats.InvalidIDs, invalid)
	assert.Equal(t, 200, valid+invalid)
	assert.Equal(t, 200, out.Stats.Emails)
}

func TestGeneratedValuesAreDetected(t *testing.T) {
	out, err := New(Config{NumRecords: 100, PIIChance: 1, SharedChance: 0.01, Seed: 3}).Generate(context.Background())
	require.NoError(t, err)

	for _, rec := range out.Records {
		assert.True(t, pdpa.IsLikelyEmail(rec[FieldEmail].(string)), rec[FieldEmail])
		assert.True(t, pdpa.IsLikelyThaiPhone(rec[FieldPhone].(string)), rec[FieldPhone])
		addr := rec[FieldAddress].(string)
		assert.True(t, pdpa.LooksLikeAddress(addr), addr)
	}

	result := pdpa.Score(out.Records)
	assert.Equal(t, 100, result.Score)
}

func TestGenerateHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(Config{NumRecords: 10, Seed: 1}).Generate(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteAndReadRecords(t *testing.T) {
	out, err := New(Config{NumRecords: 5, Seed: 5}).Generate(context.Background())
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, WriteOutput(out, dir))

	records, err := ReadRecordsFile(filepath.Join(dir, "records.json"))
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, out.Records[0][FieldRecordID], records[0][FieldRecordID])
	_, isNumber := records[0][FieldAmount].(json.Number)
	assert.True(t, isNumber)

	raw, err := os.ReadFile(filepath.Join(dir, "stats.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"records": 5`)
}

func TestReadRecordsWrappedAndErrors(t *testing.T) {
	records, err := ReadRecords(strings.NewReader(`{"records": [{"id": 1234567890121}]}`))
	require.NoError(t, err)
	assert.Equal(t, json.Number("1234567890121"), records[0]["id"])

	_, err = ReadRecords(strings.NewReader("  "))
	assert.Error(t, err)
	_, err = ReadRecords(strings.NewReader("[{"))
	assert.Error(t, err)
}
