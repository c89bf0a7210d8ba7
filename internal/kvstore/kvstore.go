// Package kvstore provides the key-value backends queried by the internal
// identity caches (hiya, yelp).
package kvstore

import "context"

// Key addresses the records of one phone number in one table. Type, when
// set, selects a sub-record by the table's secondary key.
type Key struct {
	Table string
	Phone string
	Type  string
}

// Record is one cached identity row. Name is nil when the row exists but the
// cache holds no name for it.
type Record struct {
	Phone      string  `json:"phone" dynamodbav:"phone"`
	Type       string  `json:"type,omitempty" dynamodbav:"type,omitempty"`
	Name       *string `json:"name" dynamodbav:"name"`
	Confidence *string `json:"confidence,omitempty" dynamodbav:"-"`
}

// Store queries records by phone number. Records are returned in store order
// so callers can deterministically take the first one.
type Store interface {
	Query(ctx context.Context, key Key) ([]Record, error)
	Close() error
}
