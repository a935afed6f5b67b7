package notify

import (
	"sync"
	"time"
)

// Entry is a single notification in the live feed.
type Entry struct {
	ID        int64     `json:"id"`
	Subject   string    `json:"subject"`
	UID       string    `json:"uid"`
	Topic     string    `json:"topic"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// Feed is a fixed-capacity FIFO ring of notification entries.
//
// When full, pushing evicts the oldest entry. Ids come from a counter
// that is never reused, so an entry id identifies the same logical
// notification even after eviction. Safe for concurrent use.
type Feed struct {
	mu       sync.Mutex
	entries  []Entry
	capacity int
	nextID   int64
}

// NewFeed creates a feed holding at most capacity entries.
// Non-positive capacities fall back to 1.
func NewFeed(capacity int) *Feed {
	if capacity < 1 {
		capacity = 1
	}
	return &Feed{capacity: capacity, nextID: 1}
}

// Push appends an entry, assigning its id and evicting the oldest
// entry when the feed is at capacity. Returns the stored entry.
func (f *Feed) Push(e Entry) Entry {
	f.mu.Lock()
	defer f.mu.Unlock()

	e.ID = f.nextID
	f.nextID++

	f.entries = append(f.entries, e)
	if len(f.entries) > f.capacity {
		f.entries = f.entries[1:]
	}
	return e
}

// Recent returns up to limit of the newest entries in insertion order
// (oldest of the window first). A non-positive limit returns everything
// retained.
func (f *Feed) Recent(limit int) []Entry {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := len(f.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Entry, n)
	copy(out, f.entries[len(f.entries)-n:])
	return out
}

// Latest returns the newest entry, or false when the feed is empty.
func (f *Feed) Latest() (Entry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.entries) == 0 {
		return Entry{}, false
	}
	return f.entries[len(f.entries)-1], true
}

// Len returns the number of entries currently retained.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

// Clear drops all retained entries. The id counter is not reset, so
// ids stay unique across the clear.
func (f *Feed) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = nil
}
