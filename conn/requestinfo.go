package conn

import (
	"time"

	"github.com/sy19870112/libhttp-go/message"
)

// RequestInfo is the FIFO descriptor spec.md ยง3/ยง9 names
// ("Request-info doubly linked list ... a bounded FIFO of descriptors
// suffices"). A Connection keeps one per request awaiting its response,
// supporting pipelined requests without overlapping responses
// (FinishResponse always drops the oldest entry first). The queue has
// no fixed capacity.
type RequestInfo struct {
	ID        uint64
	Method    message.Method
	Path      string
	StartedAt time.Time
}
