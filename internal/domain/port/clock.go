package port

import "time"

// Clock supplies the current time. Injected so "today"-relative computations
// are deterministic under test.
type Clock interface {
	Now() time.Time
}
