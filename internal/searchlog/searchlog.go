// Package searchlog keeps an audit trail of trip searches and announces
// them to other services.
package searchlog

import (
	"context"
	"sync"
	"time"

	"makro.app/internal/planner"
)

// Entry is one recorded search. RouteID is the top ranked route, empty when
// the search found nothing.
type Entry struct {
	ID         int64     `json:"id"`
	StartLat   float64   `json:"start_lat"`
	StartLng   float64   `json:"start_lng"`
	EndLat     float64   `json:"end_lat"`
	EndLng     float64   `json:"end_lng"`
	FilterType string    `json:"filter_type"`
	RouteID    string    `json:"route_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewEntry describes a completed search. The ID is assigned on Append.
func NewEntry(req planner.SearchRequest, results []planner.Itinerary, at time.Time) Entry {
	e := Entry{
		StartLat:   req.Origin.Lat,
		StartLng:   req.Origin.Lng,
		EndLat:     req.Destination.Lat,
		EndLng:     req.Destination.Lng,
		FilterType: string(req.Criterion.OrDefault()),
		Timestamp:  at.UTC(),
	}
	if len(results) > 0 {
		e.RouteID = results[0].RouteID
	}
	return e
}

// Repository stores entries and lists the most recent ones, newest first.
type Repository interface {
	Append(ctx context.Context, e Entry) (Entry, error)
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

// Publisher announces entries to interested consumers.
type Publisher interface {
	Publish(ctx context.Context, e Entry) error
}

const DefaultMemoryCapacity = 1000

// MemoryRepository keeps the latest entries in a fixed size ring.
type MemoryRepository struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
	lastID  int64
}

func NewMemoryRepository(capacity int) *MemoryRepository {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryRepository{entries: make([]Entry, capacity)}
}

func (r *MemoryRepository) Append(ctx context.Context, e Entry) (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastID++
	e.ID = r.lastID
	r.entries[r.next] = e
	r.next = (r.next + 1) % len(r.entries)
	if r.next == 0 {
		r.full = true
	}
	return e, nil
}

func (r *MemoryRepository) Recent(ctx context.Context, limit int) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := r.next
	if r.full {
		size = len(r.entries)
	}
	if limit > size {
		limit = size
	}

	out := make([]Entry, 0, max(limit, 0))
	for i := 1; i <= limit; i++ {
		idx := (r.next - i + len(r.entries)) % len(r.entries)
		out = append(out, r.entries[idx])
	}
	return out, nil
}
