package logger

import (
	"sync"
	"time"
)

// Entry is one collected log record.
type Entry struct {
	Time   time.Time              `json:"time"`
	Level  string                 `json:"level"`
	Msg    string                 `json:"msg"`
	Fields map[string]interface{} `json:"fields,omitempty"`
}

// Collector keeps the most recent entries in a fixed-size ring.
type Collector struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
}

func NewCollector(size int) *Collector {
	if size <= 0 {
		size = 100
	}
	return &Collector{entries: make([]Entry, size)}
}

func (c *Collector) Add(level, msg string, fields map[string]interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[c.next] = Entry{Time: time.Now().UTC(), Level: level, Msg: msg, Fields: fields}
	c.next++
	if c.next == len(c.entries) {
		c.next = 0
		c.full = true
	}
}

// Recent returns collected entries, oldest first.
func (c *Collector) Recent() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []Entry
	if c.full {
		out = append(out, c.entries[c.next:]...)
	}
	out = append(out, c.entries[:c.next]...)
	return out
}
