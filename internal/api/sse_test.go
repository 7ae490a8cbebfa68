package api

import (
	"reflect"
	"testing"
)

// feedAll decodes a body delivered in the given chunks.
func feedAll(chunks ...string) []Event {
	var dec Decoder
	var events []Event
	for _, chunk := range chunks {
		events = append(events, dec.Feed(chunk)...)
	}
	return events
}

func TestDecodeSingleFrame(t *testing.T) {
	events := feedAll("event:message\ndata:Hello\n\n")
	want := []Event{{Type: EventMessage, Data: "Hello"}}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}
}

func TestDecodeDefaultsToMessage(t *testing.T) {
	events := feedAll("data:no event field\n\n")
	want := []Event{{Type: EventMessage, Data: "no event field"}}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}
}

func TestDecodeMultiLineData(t *testing.T) {
	events := feedAll("event:message\ndata:line one\ndata:\ndata:line three\n\n")
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	// Empty data lines are significant: they become blank lines.
	if events[0].Data != "line one\n\nline three" {
		t.Errorf("Data = %q", events[0].Data)
	}
}

func TestDecodeEventSequence(t *testing.T) {
	body := "event:message\ndata:Hi\n\nevent:citations\ndata:[{\"title\":\"t\"}]\n\nevent:done\ndata:\n\n"
	events := feedAll(body)
	want := []Event{
		{Type: EventMessage, Data: "Hi"},
		{Type: EventCitations, Data: `[{"title":"t"}]`},
		{Type: EventDone, Data: ""},
	}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}
}

func TestDecodeSplitMidField(t *testing.T) {
	// A frame split inside the "event:" field name must still decode whole.
	events := feedAll("event:mess", "age\ndata:Hi\n\n")
	want := []Event{{Type: EventMessage, Data: "Hi"}}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}
}

func TestDecodeIncompleteFrameHeld(t *testing.T) {
	var dec Decoder
	if events := dec.Feed("event:message\ndata:partial"); len(events) != 0 {
		t.Fatalf("incomplete frame emitted early: %v", events)
	}
	if !dec.Buffered() {
		t.Error("decoder should report buffered data")
	}
	events := dec.Feed("\n\n")
	if len(events) != 1 || events[0].Data != "partial" {
		t.Errorf("events = %v", events)
	}
}

func TestDecodeCRLF(t *testing.T) {
	events := feedAll("event:message\r\ndata:Hi\r\n\r\n")
	want := []Event{{Type: EventMessage, Data: "Hi"}}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}
}

func TestDecodeCRLFSplitAcrossChunks(t *testing.T) {
	// The CR and LF of one line break land in different reads.
	events := feedAll("event:message\r", "\ndata:Hi\r\n\r", "\n")
	want := []Event{{Type: EventMessage, Data: "Hi"}}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}
}

func TestDecodeChunkBoundaryInvariance(t *testing.T) {
	body := "event:message\ndata:第一段内容\n\n" +
		"data:默认类型\n\n" +
		"event:citations\ndata:[{\"refIndex\":1,\"title\":\"标题\",\"url\":\"/blog/a\"}]\n\n" +
		"event:message\ndata:多行\ndata:payload\n\n" +
		"event:done\ndata:\n\n"

	want := feedAll(body)

	// Every split position, pairwise.
	for i := 0; i <= len(body); i++ {
		got := feedAll(body[:i], body[i:])
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("split at %d: events diverge\n got %v\nwant %v", i, got, want)
		}
	}

	// Byte-at-a-time.
	var chunks []string
	for i := 0; i < len(body); i++ {
		chunks = append(chunks, body[i:i+1])
	}
	if got := feedAll(chunks...); !reflect.DeepEqual(got, want) {
		t.Fatalf("byte-at-a-time decode diverges\n got %v\nwant %v", got, want)
	}
}

func TestDecodeSkipsBlankFrames(t *testing.T) {
	events := feedAll("\n\n\n\ndata:real\n\n")
	if len(events) != 1 || events[0].Data != "real" {
		t.Errorf("events = %v", events)
	}
}

func TestDecodeErrorEvent(t *testing.T) {
	events := feedAll("event:error\ndata:请求过于频繁，请稍后再试\n\n")
	want := []Event{{Type: EventError, Data: "请求过于频繁，请稍后再试"}}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}
}
