package history

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bobby-s-dev/weather-plus/internal/models"
	"go.uber.org/zap"
)

// FileLog appends records as JSON lines to a file and serves reads from memory.
type FileLog struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
	memory *MemoryLog
	logger *zap.Logger
}

// OpenFileLog opens (or creates) path and loads the records already stored in it.
func OpenFileLog(path string, maxEntries int, maxAge time.Duration, logger *zap.Logger) (*FileLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	memory := NewMemoryLog(maxEntries, maxAge)
	loaded, err := load(path, memory, logger)
	if err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening history file: %w", err)
	}

	logger.Info("History log opened",
		zap.String("path", path),
		zap.Int("loaded", loaded),
		zap.Int("retained", memory.Len()))

	return &FileLog{
		file:   file,
		writer: bufio.NewWriter(file),
		memory: memory,
		logger: logger,
	}, nil
}

func load(path string, memory *MemoryLog, logger *zap.Logger) (int, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading history file: %w", err)
	}
	defer f.Close()

	loaded := 0
	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		var record models.HistoryRecord
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			logger.Warn("Skipping corrupt history line",
				zap.String("path", path),
				zap.Int("line", line),
				zap.Error(err))
			continue
		}
		_ = memory.Append(record)
		loaded++
	}

	if err := scanner.Err(); err != nil {
		return loaded, fmt.Errorf("scanning history file: %w", err)
	}
	return loaded, nil
}

// Append writes the record to disk before making it visible to readers.
func (f *FileLog) Append(record models.HistoryRecord) error {
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding history record: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return os.ErrClosed
	}
	if _, err := f.writer.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("writing history record: %w", err)
	}
	if err := f.writer.Flush(); err != nil {
		return fmt.Errorf("flushing history record: %w", err)
	}

	return f.memory.Append(record)
}

func (f *FileLog) Latest() (models.HistoryRecord, error) {
	return f.memory.Latest()
}

func (f *FileLog) Range(from, to time.Time) ([]models.HistoryRecord, error) {
	return f.memory.Range(from, to)
}

func (f *FileLog) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return nil
	}

	flushErr := f.writer.Flush()
	closeErr := f.file.Close()
	f.file = nil
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
