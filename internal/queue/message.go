package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	// KindLetterReview asks the worker to re-check a letter after a low rating.
	KindLetterReview = "letter_review"
	// SchemaVersion is the newest message layout this build understands.
	SchemaVersion = 1
)

var (
	ErrUnknownKind        = errors.New("unknown message kind")
	ErrUnsupportedVersion = errors.New("unsupported message version")
)

// Message is the body of a review queue entry.
type Message struct {
	Kind       string `json:"kind,omitempty"`
	FeedbackID string `json:"feedbackId"`
	LetterID   string `json:"letterId"`
	RequestID  string `json:"requestId"`
	EnqueuedAt string `json:"enqueuedAt"`
	Version    int    `json:"version"`
}

// NewReviewMessage builds the review request for a flagged feedback entry.
func NewReviewMessage(feedbackID, letterID, requestID string, at time.Time) Message {
	return Message{
		Kind:       KindLetterReview,
		FeedbackID: feedbackID,
		LetterID:   letterID,
		RequestID:  requestID,
		EnqueuedAt: at.UTC().Format(time.RFC3339),
		Version:    SchemaVersion,
	}
}

func (m Message) withDefaults() Message {
	if m.Kind == "" {
		m.Kind = KindLetterReview
	}
	if m.Version == 0 {
		m.Version = SchemaVersion
	}
	return m
}

// EncodeMessage stamps missing kind and version before marshalling.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg.withDefaults())
}

// DecodeMessage parses a payload. Messages written before kind existed are
// read as letter reviews; newer schema versions are rejected.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	msg = msg.withDefaults()
	if msg.Kind != KindLetterReview {
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownKind, msg.Kind)
	}
	if msg.Version < 0 || msg.Version > SchemaVersion {
		return Message{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, msg.Version)
	}
	return msg, nil
}
