package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"gezy-backend/internal/queue"
)

// ReviewProcessor re-checks the letter named by a review message.
type ReviewProcessor interface {
	ProcessReview(ctx context.Context, msg queue.Message) error
}

// Reason classifies why a message was not handled.
type Reason string

const (
	ReasonEmptyBody Reason = "empty_body"
	ReasonDecode    Reason = "decode_failed"
	ReasonMissingID Reason = "missing_id"
	ReasonFailed    Reason = "failed"
)

// MessageMeta identifies a body in logs without printing it.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and its SHA-256.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// MessageError is returned for every message that was not processed.
type MessageError struct {
	Reason     Reason
	Meta       MessageMeta
	FeedbackID string
	RequestID  string
	Err        error
}

func (e *MessageError) Error() string {
	if e.Err == nil {
		return "review message " + string(e.Reason)
	}
	return fmt.Sprintf("review message %s: %v", e.Reason, e.Err)
}

func (e *MessageError) Unwrap() error { return e.Err }

// ReasonOf extracts the classification of err, or "" for foreign errors.
func ReasonOf(err error) Reason {
	var me *MessageError
	if errors.As(err, &me) {
		return me.Reason
	}
	return ""
}

// Unrecoverable reports whether redelivering the message can never succeed.
func Unrecoverable(err error) bool {
	switch ReasonOf(err) {
	case ReasonEmptyBody, ReasonDecode, ReasonMissingID:
		return true
	default:
		return false
	}
}

// ParseMessage decodes a queue body and checks that it names feedback.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, &MessageError{Reason: ReasonEmptyBody, Meta: meta}
	}
	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, &MessageError{Reason: ReasonDecode, Meta: meta, Err: err}
	}
	if strings.TrimSpace(msg.FeedbackID) == "" {
		return msg, meta, &MessageError{Reason: ReasonMissingID, Meta: meta, RequestID: msg.RequestID}
	}
	return msg, meta, nil
}

// Process hands a parsed message to the processor.
func Process(ctx context.Context, processor ReviewProcessor, msg queue.Message) error {
	if processor == nil {
		return errors.New("review processor not configured")
	}
	if err := processor.ProcessReview(ctx, msg); err != nil {
		return &MessageError{Reason: ReasonFailed, FeedbackID: msg.FeedbackID, RequestID: msg.RequestID, Err: err}
	}
	return nil
}
