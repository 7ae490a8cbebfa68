package api

import "strings"

// Event types emitted by the assistant stream.
const (
	EventMessage   = "message"   // incremental answer text, appended verbatim
	EventCitations = "citations" // JSON array replacing the citation list
	EventDone      = "done"      // normal termination
	EventError     = "error"     // terminal failure, data is the message
)

// Event is one decoded frame of the assistant event stream.
type Event struct {
	Type string
	Data string
}

// Decoder turns an arbitrarily-chunked text/event-stream body into discrete
// events. Frames are blank-line separated; inside a frame, "event:" sets the
// type (default "message") and each "data:" line contributes one payload
// line, joined with newlines. A frame split across any number of reads
// decodes identically to the same bytes in a single read.
type Decoder struct {
	buf string
	cr  bool // chunk ended with a bare \r that may pair with a following \n
}

// Feed appends a chunk and returns every frame completed by it. The trailing
// incomplete frame stays buffered until its terminating blank line arrives.
func (d *Decoder) Feed(chunk string) []Event {
	if d.cr {
		chunk = "\r" + chunk
		d.cr = false
	}
	if strings.HasSuffix(chunk, "\r") {
		// Hold the CR back: the matching LF may open the next chunk.
		chunk = chunk[:len(chunk)-1]
		d.cr = true
	}
	chunk = strings.ReplaceAll(chunk, "\r\n", "\n")
	chunk = strings.ReplaceAll(chunk, "\r", "\n")
	d.buf += chunk

	var events []Event
	for {
		idx := strings.Index(d.buf, "\n\n")
		if idx < 0 {
			break
		}
		frame := d.buf[:idx]
		d.buf = d.buf[idx+2:]
		if ev, ok := parseFrame(frame); ok {
			events = append(events, ev)
		}
	}
	return events
}

// Buffered reports whether an incomplete frame is pending.
func (d *Decoder) Buffered() bool {
	return d.buf != "" || d.cr
}

func parseFrame(frame string) (Event, bool) {
	if strings.TrimSpace(frame) == "" {
		return Event{}, false
	}

	ev := Event{Type: EventMessage}
	var dataLines []string
	hasData := false

	for _, line := range strings.Split(frame, "\n") {
		switch {
		case strings.HasPrefix(line, "event:"):
			ev.Type = strings.TrimSpace(line[len("event:"):])
		case strings.HasPrefix(line, "data:"):
			// Data lines join with \n; empty ones are significant and kept.
			dataLines = append(dataLines, line[len("data:"):])
			hasData = true
		}
		// Comment lines and unknown fields are ignored.
	}

	if !hasData && ev.Type == EventMessage {
		return Event{}, false
	}
	ev.Data = strings.Join(dataLines, "\n")
	return ev, true
}
