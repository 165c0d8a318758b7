package engine

// Event is one entry in the table's bounded activity log.
type Event struct {
	Seq    int    `json:"seq"`
	Type   string `json:"type"`
	Player string `json:"player,omitempty"`
	Amount int    `json:"amount,omitempty"`
	Phase  string `json:"phase,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// EventLog is a bounded ring of recent table events: pushing past the
// capacity evicts the oldest entry.
type EventLog struct {
	capacity int
	seq      int
	events   []Event
}

// NewEventLog creates an event log holding at most capacity entries.
func NewEventLog(capacity int) *EventLog {
	if capacity <= 0 {
		capacity = 1
	}
	return &EventLog{
		capacity: capacity,
		events:   make([]Event, 0, capacity),
	}
}

// Push appends an event, assigning it the next sequence number.
func (l *EventLog) Push(e Event) {
	l.seq++
	e.Seq = l.seq
	if len(l.events) == l.capacity {
		copy(l.events, l.events[1:])
		l.events = l.events[:len(l.events)-1]
	}
	l.events = append(l.events, e)
}

// Events returns a copy of the retained events, oldest first.
func (l *EventLog) Events() []Event {
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// Len returns the number of retained events.
func (l *EventLog) Len() int {
	return len(l.events)
}
