// Package sse encodes server-sent-event frames for the chat stream: one JSON
// object per frame, prefixed with "data: " and terminated by a blank line.
package sse

import (
	"encoding/json"
	"fmt"
	"io"
)

type Event struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Encode renders the frame bytes for one event.
func Encode(event Event) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event: %w", err)
	}
	frame := make([]byte, 0, len(payload)+8)
	frame = append(frame, "data: "...)
	frame = append(frame, payload...)
	frame = append(frame, "\n\n"...)
	return frame, nil
}

// WriteFrame encodes the event and writes it to w.
func WriteFrame(w io.Writer, event Event) error {
	frame, err := Encode(event)
	if err != nil {
		return err
	}
	_, err = w.Write(frame)
	return err
}
