package messages

import "sync"

// Entry is a recorded message
type Entry struct {
	Message Message
	Text    string
	Fields  map[string]any
}

// Recorder is a Sink that keeps every message in memory
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// Log records msg
func (r *Recorder) Log(msg Message, keyvals ...any) {
	fields := make(map[string]any, len(keyvals)/2)
	for i := 0; i+1 < len(keyvals); i += 2 {
		if key, ok := keyvals[i].(string); ok {
			fields[key] = keyvals[i+1]
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Message: msg, Text: Render(msg, keyvals...), Fields: fields})
}

// Entries returns a copy of everything recorded so far
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Count returns how many times msg was recorded
func (r *Recorder) Count(msg Message) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, e := range r.entries {
		if e.Message == msg {
			n++
		}
	}
	return n
}

// Last returns the most recent entry for msg
func (r *Recorder) Last(msg Message) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].Message == msg {
			return r.entries[i], true
		}
	}
	return Entry{}, false
}
