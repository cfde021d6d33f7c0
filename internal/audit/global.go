package audit

import "sync"

var (
	globalOnce sync.Once
	globalLog  *Log
)

// Global returns the process-wide Log, creating it on first use.
// Scripts that never build their own toolkit share this one.
func Global() *Log {
	globalOnce.Do(func() {
		globalLog = New()
	})
	return globalLog
}
