package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bobby-s-dev/weather-plus/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func record(ts int64, temp float64) models.HistoryRecord {
	return models.HistoryRecord{Time: ts, Temperature: temp}
}

func TestMemoryLogEmpty(t *testing.T) {
	m := NewMemoryLog(0, 0)

	_, err := m.Latest()
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.Range(time.Unix(0, 0), time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryLogRange(t *testing.T) {
	m := NewMemoryLog(0, 0)
	for i := int64(1); i <= 5; i++ {
		require.NoError(t, m.Append(record(i*100, float64(i))))
	}

	records, err := m.Range(time.Unix(200, 0), time.Unix(400, 0))
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, 2.0, records[0].Temperature)
	assert.Equal(t, 4.0, records[2].Temperature)

	latest, err := m.Latest()
	require.NoError(t, err)
	assert.Equal(t, int64(500), latest.Time)
}

func TestMemoryLogRetention(t *testing.T) {
	m := NewMemoryLog(3, 0)
	for i := int64(1); i <= 5; i++ {
		require.NoError(t, m.Append(record(i, 0)))
	}
	assert.Equal(t, 3, m.Len())

	now := time.Unix(10_000, 0)
	aged := NewMemoryLog(0, time.Hour)
	aged.now = func() time.Time { return now }
	require.NoError(t, aged.Append(record(now.Add(-2*time.Hour).Unix(), 1)))
	require.NoError(t, aged.Append(record(now.Add(-time.Minute).Unix(), 2)))
	assert.Equal(t, 1, aged.Len())
}

// Tests that records survive a reopen and corrupt lines are skipped.
func TestFileLogPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.jsonl")
	pressure := 1013.0

	f, err := OpenFileLog(path, 0, 0, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, f.Append(models.HistoryRecord{Time: 100, Temperature: 20.5, Pressure: &pressure}))
	require.NoError(t, f.Append(record(200, 21)))
	require.NoError(t, f.Close())

	assert.ErrorIs(t, f.Append(record(300, 22)), os.ErrClosed)

	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = file.WriteString("{not json\n")
	require.NoError(t, err)
	require.NoError(t, file.Close())

	reopened, err := OpenFileLog(path, 0, 0, zap.NewNop())
	require.NoError(t, err)
	defer reopened.Close()

	records, err := reopened.Range(time.Unix(0, 0), time.Unix(1000, 0))
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.NotNil(t, records[0].Pressure)
	assert.Equal(t, 1013.0, *records[0].Pressure)
	assert.Nil(t, records[1].Pressure)
	assert.Nil(t, records[1].Humidity)
}

func TestFileLogFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")
	humidity := 40.0

	f, err := OpenFileLog(path, 0, 0, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, f.Append(models.HistoryRecord{Time: 1, Temperature: 2, Humidity: &humidity}))
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"time":1,"temp":2,"humidity":40}`+"\n", string(data))
}
