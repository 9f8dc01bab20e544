package history

import (
	"sync"
	"time"

	"github.com/bobby-s-dev/weather-plus/internal/models"
)

// MemoryLog keeps history records in memory with optional retention limits.
type MemoryLog struct {
	mu      sync.RWMutex
	records []models.HistoryRecord

	maxEntries int           // <= 0 means unlimited
	maxAge     time.Duration // <= 0 means unlimited
	now        func() time.Time
}

func NewMemoryLog(maxEntries int, maxAge time.Duration) *MemoryLog {
	return &MemoryLog{
		maxEntries: maxEntries,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// Append stores a record and enforces retention.
func (m *MemoryLog) Append(record models.HistoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append(m.records, record)
	m.enforceRetention()
	return nil
}

func (m *MemoryLog) enforceRetention() {
	if m.maxEntries > 0 && len(m.records) > m.maxEntries {
		over := len(m.records) - m.maxEntries
		m.records = append(m.records[:0:0], m.records[over:]...)
	}

	if m.maxAge > 0 {
		cutoff := m.now().Add(-m.maxAge).Unix()
		i := 0
		for ; i < len(m.records); i++ {
			if m.records[i].Time >= cutoff {
				break
			}
		}
		if i > 0 {
			m.records = append(m.records[:0:0], m.records[i:]...)
		}
	}
}

func (m *MemoryLog) Latest() (models.HistoryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.records) == 0 {
		return models.HistoryRecord{}, ErrNotFound
	}
	return m.records[len(m.records)-1], nil
}

// Range returns records with from <= time <= to.
func (m *MemoryLog) Range(from, to time.Time) ([]models.HistoryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lo, hi := from.Unix(), to.Unix()
	var result []models.HistoryRecord
	for _, r := range m.records {
		if r.Time >= lo && r.Time <= hi {
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}

func (m *MemoryLog) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func (m *MemoryLog) Close() error {
	return nil
}
