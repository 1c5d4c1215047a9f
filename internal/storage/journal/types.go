package journal

// ============================================================================
// Journal Type Definitions
// Responsibility: Define the records written for every coordinator handoff
// ============================================================================

// EventType defines journal event types
type EventType string

const (
	EventDispatch EventType = "DISPATCH" // Work unit sent to a worker
	EventContinue EventType = "CONTINUE" // Worker yielded with the range unchanged
	EventForward  EventType = "FORWARD"  // Coordinator forwarded the buffer to the other worker
	EventDone     EventType = "DONE"     // Worker finished and verified the sort
	EventError    EventType = "ERROR"    // Worker reported a failure
	EventStop     EventType = "STOP"     // Stop signal sent to both workers
)

// Event represents one journal record
type Event struct {
	Seq       uint64    `json:"seq"`               // Monotonically increasing per file
	Type      EventType `json:"type"`              // Event type
	RunID     string    `json:"run_id"`            // Which sort job produced the event
	WorkerID  int       `json:"worker_id"`         // Worker involved (-1 for both)
	Transfer  int       `json:"transfer"`          // Transfer counter at the time of the event
	Low       int       `json:"low"`               // Range carried by the message
	High      int       `json:"high"`              // Range carried by the message
	Size      int       `json:"size"`              // Buffer length
	Prefix    []int     `json:"prefix,omitempty"`  // First few elements, for progress inspection
	ElapsedMs float64   `json:"elapsed_ms"`        // Elapsed reported by the worker
	Message   string    `json:"message,omitempty"` // Error text
	Timestamp int64     `json:"timestamp"`         // Unix millisecond timestamp
	Checksum  uint32    `json:"checksum"`          // CRC32 checksum
}

// EventHandler processes journal events during Replay.
// Returning an error aborts the replay.
type EventHandler func(event Event) error
