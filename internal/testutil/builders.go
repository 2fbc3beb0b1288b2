package testutil

import (
	"fmt"
	"time"

	"github.com/wesm/rosterview/internal/records"
)

// RecordBuilder provides a fluent API for constructing records.Record in tests.
type RecordBuilder struct {
	r records.Record
}

// NewRecord creates a builder with sensible defaults derived from id.
func NewRecord(id int64) *RecordBuilder {
	return &RecordBuilder{
		r: records.Record{
			ID:           id,
			Name:         fmt.Sprintf("User %d", id),
			Balance:      id * 100,
			Email:        fmt.Sprintf("user%d@example.com", id),
			RegisteredAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, int(id)),
			Status:       records.StatusActive,
		},
	}
}

func (b *RecordBuilder) WithName(n string) *RecordBuilder {
	b.r.Name = n
	return b
}

func (b *RecordBuilder) WithEmail(e string) *RecordBuilder {
	b.r.Email = e
	return b
}

func (b *RecordBuilder) WithBalance(v int64) *RecordBuilder {
	b.r.Balance = v
	return b
}

func (b *RecordBuilder) WithRegisteredAt(t time.Time) *RecordBuilder {
	b.r.RegisteredAt = t
	return b
}

func (b *RecordBuilder) WithStatus(s records.Status) *RecordBuilder {
	b.r.Status = s
	return b
}

// Build returns the constructed record.
func (b *RecordBuilder) Build() records.Record {
	return b.r
}

// Roster returns n default records with IDs 1..n. Statuses cycle through
// Active, Inactive, Pending.
func Roster(n int) []records.Record {
	out := make([]records.Record, n)
	for i := range out {
		id := int64(i + 1)
		out[i] = NewRecord(id).WithStatus(records.Statuses[i%len(records.Statuses)]).Build()
	}
	return out
}

// IDs extracts the record IDs in order.
func IDs(recs []records.Record) []int64 {
	out := make([]int64, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}
