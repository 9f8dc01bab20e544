package history

import (
	"errors"
	"time"

	"github.com/bobby-s-dev/weather-plus/internal/models"
)

var (
	// ErrNotFound is returned when no record matches a query.
	ErrNotFound = errors.New("no history records")
)

// Log is the append-only sink for history samples.
type Log interface {
	Append(record models.HistoryRecord) error
}

// Reader exposes stored samples for display.
type Reader interface {
	Latest() (models.HistoryRecord, error)
	Range(from, to time.Time) ([]models.HistoryRecord, error)
}

// Store is a Log that can also be read back.
type Store interface {
	Log
	Reader
	Close() error
}
