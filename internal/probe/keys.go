package probe

import (
	"hash/fnv"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var lastNano atomic.Int64

// NewKey returns a collision-resistant probe key: a strictly increasing
// clock reading (base 36) plus a random component, e.g. "prbt3x9k2m1q0-4f9a1c2e".
// Keys never repeat within a process and are vanishingly unlikely to repeat
// across concurrent runs.
func NewKey() string {
	n := time.Now().UnixNano()
	for {
		prev := lastNano.Load()
		if n <= prev {
			n = prev + 1
		}
		if lastNano.CompareAndSwap(prev, n) {
			break
		}
	}
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return "prb" + strconv.FormatInt(n, 36) + "-" + random
}

// keyNumber derives a positive int32-range number from a key, for unique
// integer columns.
func keyNumber(key, column string) int64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key + "/" + column))
	return int64(h.Sum32() & 0x7fffffff)
}
