// Package records defines the roster record model and the providers that
// supply a full record set to the view engine.
package records

import (
	"fmt"
	"strings"
	"time"
)

// Record is one roster row. Records are immutable once loaded.
type Record struct {
	ID           int64
	Name         string
	Balance      int64
	Email        string
	RegisteredAt time.Time
	Status       Status
}

// Status is the account status of a record.
type Status int

const (
	StatusActive Status = iota
	StatusInactive
	StatusPending
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusActive, StatusInactive, StatusPending}

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "Active"
	case StatusInactive:
		return "Inactive"
	case StatusPending:
		return "Pending"
	default:
		return "Unknown"
	}
}

// Valid reports whether s is one of the three known statuses.
func (s Status) Valid() bool {
	return s >= StatusActive && s <= StatusPending
}

// ParseStatus parses a status label case-insensitively.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if strings.EqualFold(strings.TrimSpace(s), st.String()) {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", s)
}

// Field identifies a sortable record field.
type Field int

const (
	FieldNone Field = iota // no sort: keep filtered order
	FieldID
	FieldName
	FieldBalance
	FieldEmail
	FieldRegisteredAt
	FieldStatus
)

// Fields lists the sortable fields in column order.
var Fields = []Field{FieldName, FieldBalance, FieldEmail, FieldRegisteredAt, FieldStatus, FieldID}

func (f Field) String() string {
	switch f {
	case FieldNone:
		return "none"
	case FieldID:
		return "id"
	case FieldName:
		return "name"
	case FieldBalance:
		return "balance"
	case FieldEmail:
		return "email"
	case FieldRegisteredAt:
		return "registered_at"
	case FieldStatus:
		return "status"
	default:
		return "unknown"
	}
}

// Label returns the column header used by the presentation layers.
func (f Field) Label() string {
	switch f {
	case FieldID:
		return "ID"
	case FieldName:
		return "Name"
	case FieldBalance:
		return "Balance ($)"
	case FieldEmail:
		return "Email"
	case FieldRegisteredAt:
		return "Registration"
	case FieldStatus:
		return "Status"
	default:
		return ""
	}
}

// Numeric reports whether the field compares by signed difference rather
// than by collation.
func (f Field) Numeric() bool {
	return f == FieldID || f == FieldBalance || f == FieldRegisteredAt
}

// ParseField parses a field name. The empty string and "none" map to FieldNone.
func ParseField(s string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return FieldNone, nil
	case "id":
		return FieldID, nil
	case "name":
		return FieldName, nil
	case "balance":
		return FieldBalance, nil
	case "email":
		return FieldEmail, nil
	case "registered_at", "registration", "registered":
		return FieldRegisteredAt, nil
	case "status":
		return FieldStatus, nil
	}
	return FieldNone, fmt.Errorf("unknown sort field %q", s)
}
