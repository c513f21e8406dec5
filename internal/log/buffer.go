package log

import "sync"

// bufferCapacity is the number of recent entries kept in memory for the
// in-app log overlay.
const bufferCapacity = 1000

var (
	bufMu     sync.Mutex
	bufferLog []string
)

// appendToBuffer records an entry in the in-memory ring. Oldest entries are
// dropped once capacity is reached.
func appendToBuffer(entry string) {
	bufMu.Lock()
	defer bufMu.Unlock()

	bufferLog = append(bufferLog, entry)
	if len(bufferLog) > bufferCapacity {
		bufferLog = bufferLog[len(bufferLog)-bufferCapacity:]
	}
}

// GetRecentLogs returns up to n of the most recent log entries, oldest first.
func GetRecentLogs(n int) []string {
	bufMu.Lock()
	defer bufMu.Unlock()

	if n <= 0 || len(bufferLog) == 0 {
		return nil
	}
	if n > len(bufferLog) {
		n = len(bufferLog)
	}
	out := make([]string, n)
	copy(out, bufferLog[len(bufferLog)-n:])
	return out
}

// ClearBuffer discards all buffered entries.
func ClearBuffer() {
	bufMu.Lock()
	defer bufMu.Unlock()
	bufferLog = nil
}
