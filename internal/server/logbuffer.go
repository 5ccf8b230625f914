package server

import (
	"sync"
	"sync/atomic"
	"time"
)

const maxRetainedLogs = 1000

// LogEntry is one retained log line for the admin endpoints.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
}

// LogBuffer retains the most recent log entries in a bounded ring.
type LogBuffer struct {
	mu      sync.Mutex
	entries []LogEntry
	max     int
}

// NewLogBuffer creates a buffer retaining at most max entries.
func NewLogBuffer(max int) *LogBuffer {
	return &LogBuffer{max: max}
}

// Add records an entry, dropping the oldest when full.
func (b *LogBuffer) Add(level, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = append(b.entries, LogEntry{Timestamp: time.Now(), Level: level, Message: message})
	if len(b.entries) > b.max {
		b.entries = b.entries[len(b.entries)-b.max:]
	}
}

// Filter returns up to limit entries matching level ("all" matches everything),
// newest last, along with the total number of matches.
func (b *LogBuffer) Filter(level string, limit int) ([]LogEntry, int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var matched []LogEntry
	for _, entry := range b.entries {
		if level == "all" || level == "" || entry.Level == level {
			matched = append(matched, entry)
		}
	}

	total := len(matched)
	if limit > 0 && len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}

	return matched, total
}

// Len returns the number of retained entries.
func (b *LogBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Trim keeps only the newest n entries.
func (b *LogBuffer) Trim(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.entries) > n {
		b.entries = b.entries[len(b.entries)-n:]
	}
}

// Stats tracks service counters reported by the admin endpoints.
type Stats struct {
	StartTime     time.Time
	Visitors      atomic.Int64
	SpotifyLogins atomic.Int64
	EventsCreated atomic.Int64
	SongRequests  atomic.Int64
	Errors        atomic.Int64
}

// NewStats creates a Stats anchored at the current time.
func NewStats() *Stats {
	return &Stats{StartTime: time.Now()}
}

// Uptime returns how long the service has been running.
func (s *Stats) Uptime() time.Duration {
	return time.Since(s.StartTime)
}
