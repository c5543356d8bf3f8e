package plan

import (
	"math"
	"sync/atomic"

	"github.com/pkg/errors"
)

var ErrIDsExhausted = errors.New("node ids exhausted")

// Allocator hands out node ids. The first id is 1 and every later id is larger
// than all ids returned before it. It is safe for concurrent use, so builders
// may share one allocator without colliding.
type Allocator struct {
	last atomic.Uint64
}

func NewAllocator() *Allocator {
	return &Allocator{}
}

func (a *Allocator) Next() (uint64, error) {
	for {
		last := a.last.Load()
		if last == math.MaxUint64 {
			return 0, ErrIDsExhausted
		}
		if a.last.CompareAndSwap(last, last+1) {
			return last + 1, nil
		}
	}
}
