package collection

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator hands out client ids. Each collection owns one unless a shared
// generator is injected through Config.IDs.
type IDGenerator interface {
	Next() string
}

// Sequence generates prefix1, prefix2, ... and is safe for concurrent use.
type Sequence struct {
	prefix string
	n      atomic.Uint64
}

func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix}
}

func (s *Sequence) Next() string {
	return s.prefix + strconv.FormatUint(s.n.Add(1), 10)
}

// UUIDGenerator produces random UUIDs, useful when client ids must be unique
// across collections or processes.
type UUIDGenerator struct{}

func (UUIDGenerator) Next() string {
	return uuid.NewString()
}
