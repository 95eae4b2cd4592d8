// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

// EventKind tags a StreamEvent.
type EventKind int

const (
	// EventToken carries one incremental piece of response text.
	EventToken EventKind = iota

	// EventDone carries the full response. Terminal.
	EventDone

	// EventError carries a failure message. Terminal.
	EventError

	// EventAborted carries the partial response after cancellation. Terminal.
	EventAborted
)

// String returns the kind name.
func (k EventKind) String() string {
	switch k {
	case EventToken:
		return "token"
	case EventDone:
		return "done"
	case EventError:
		return "error"
	case EventAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// StreamEvent is one item of a chat stream. A stream yields any number of
// token events followed by exactly one terminal event.
//
// Text holds the delta for EventToken, the full text for EventDone, the
// partial text for EventAborted and the error message for EventError.
type StreamEvent struct {
	Kind EventKind
	Text string
	Err  error
}

// Terminal reports whether the event ends the stream.
func (e StreamEvent) Terminal() bool {
	return e.Kind != EventToken
}

func tokenEvent(delta string) StreamEvent {
	return StreamEvent{Kind: EventToken, Text: delta}
}

func doneEvent(full string) StreamEvent {
	return StreamEvent{Kind: EventDone, Text: full}
}

func abortedEvent(partial string) StreamEvent {
	return StreamEvent{Kind: EventAborted, Text: partial}
}

func errorEvent(err error) StreamEvent {
	return StreamEvent{Kind: EventError, Text: err.Error(), Err: err}
}
