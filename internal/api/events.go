package api

import (
	"encoding/json"
	"fmt"
)

// EventType discriminates the events on an execution's io stream.
type EventType string

const (
	// EventOutput carries one log entry of script output.
	EventOutput EventType = "output"
	// EventInput signals that the script is waiting for user input.
	EventInput EventType = "input"
	// EventFile announces a downloadable file produced by the execution.
	EventFile EventType = "file"
)

// Event is one decoded entry of an execution's io stream.
type Event struct {
	Type     EventType
	Text     string // log entry for output, prompt text for input
	URL      string // file events only
	Filename string // file events only
}

// wireEvent is the on-the-wire envelope: {"event": <type>, "data": ...}.
// The data payload shape depends on the event type.
type wireEvent struct {
	Event EventType       `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type outputData struct {
	Text string `json:"text"`
}

type fileData struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// decodeEvent parses one wire envelope into an Event.
func decodeEvent(raw wireEvent) (Event, error) {
	switch raw.Event {
	case EventOutput:
		var data outputData
		if err := json.Unmarshal(raw.Data, &data); err != nil {
			return Event{}, fmt.Errorf("malformed output event: %w", err)
		}
		return Event{Type: EventOutput, Text: data.Text}, nil

	case EventInput:
		var prompt string
		if err := json.Unmarshal(raw.Data, &prompt); err != nil {
			return Event{}, fmt.Errorf("malformed input event: %w", err)
		}
		return Event{Type: EventInput, Text: prompt}, nil

	case EventFile:
		var data fileData
		if err := json.Unmarshal(raw.Data, &data); err != nil {
			return Event{}, fmt.Errorf("malformed file event: %w", err)
		}
		return Event{Type: EventFile, URL: data.URL, Filename: data.Filename}, nil

	default:
		return Event{}, fmt.Errorf("unknown event type %q", raw.Event)
	}
}
