package models

import (
	"fmt"
	"time"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// QueueFilter narrows the reviewer worklist. Zero values mean "any".
type QueueFilter struct {
	DocumentType DocumentType
	SearchTerm   string
	Statuses     []VerificationStatus
}

// QueueQuery is a QueueFilter resolved to a concrete window for a store.
type QueueQuery struct {
	DocumentType DocumentType
	SearchTerm   string
	Statuses     []VerificationStatus
	Offset       int
	Limit        int
}

// QueuePage is one page of the worklist plus per-status counts over the
// type and search filter.
type QueuePage struct {
	Items        []*Document
	Total        int
	Page         int
	PageSize     int
	StatusCounts map[VerificationStatus]int
}

// Generation identifies the state of an owner's document set. Any write to
// any of the owner's documents changes it.
type Generation struct {
	Count        int
	VersionSum   int64
	LatestUpdate time.Time
}

// String is the stamp stored next to a cached aggregate.
func (g Generation) String() string {
	return fmt.Sprintf("%d.%d.%d", g.Count, g.VersionSum, g.LatestUpdate.UnixMicro())
}
