package workerproc

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.opentelemetry.io/otel/attribute"

	"gezy-backend/internal/shared/metrics"
	"gezy-backend/internal/shared/telemetry"
	"gezy-backend/internal/shared/tracing"
)

const receiveCountAttr = "ApproximateReceiveCount"

// SQSAPI is the part of the SQS client the poller needs.
type SQSAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Poller long-polls the review queue and processes messages with bounded
// concurrency. A message is deleted once processed or once it can never
// be; processing failures are left to the queue's redelivery.
type Poller struct {
	SQS             SQSAPI
	QueueURL        string
	Processor       ReviewProcessor
	Concurrency     int
	Visibility      time.Duration
	WaitTime        time.Duration
	ShutdownTimeout time.Duration
	// ReceiveBackoff is the pause after a failed receive call.
	ReceiveBackoff time.Duration
}

func (p *Poller) defaults() {
	if p.Concurrency <= 0 {
		p.Concurrency = 1
	}
	if p.Visibility <= 0 {
		p.Visibility = 5 * time.Minute
	}
	if p.WaitTime <= 0 || p.WaitTime > 20*time.Second {
		p.WaitTime = 20 * time.Second
	}
	if p.ShutdownTimeout <= 0 {
		p.ShutdownTimeout = 30 * time.Second
	}
	if p.ReceiveBackoff <= 0 {
		p.ReceiveBackoff = time.Second
	}
}

// Run polls until ctx is cancelled, then waits up to ShutdownTimeout for
// in-flight messages.
func (p *Poller) Run(ctx context.Context) error {
	if p.SQS == nil || p.QueueURL == "" {
		return errors.New("poller needs an SQS client and a queue url")
	}
	p.defaults()
	sem := make(chan struct{}, p.Concurrency)
	var wg sync.WaitGroup

	telemetry.Info("worker.started", map[string]any{
		"queue":       p.QueueURL,
		"concurrency": p.Concurrency,
		"visibility":  p.Visibility.String(),
	})

	for ctx.Err() == nil {
		resp, err := p.SQS.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:                    aws.String(p.QueueURL),
			MaxNumberOfMessages:         10,
			WaitTimeSeconds:             int32(p.WaitTime / time.Second),
			VisibilityTimeout:           int32(p.Visibility / time.Second),
			MessageSystemAttributeNames: []sqstypes.MessageSystemAttributeName{sqstypes.MessageSystemAttributeNameApproximateReceiveCount},
			MessageAttributeNames:       []string{"All"},
		})
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			telemetry.Error("worker.receive_failed", map[string]any{"error": err})
			pause(ctx, p.ReceiveBackoff)
			continue
		}

		for _, msg := range resp.Messages {
			if ctx.Err() != nil {
				break
			}
			select {
			case <-ctx.Done():
				continue
			case sem <- struct{}{}:
			}
			metrics.IncReviewJobsReceived()
			wg.Add(1)
			go func(m sqstypes.Message) {
				defer wg.Done()
				defer func() { <-sem }()
				p.Handle(ctx, m)
			}(msg)
		}
	}

	telemetry.Info("worker.shutdown", map[string]any{"timeout": p.ShutdownTimeout.String()})
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(p.ShutdownTimeout):
		telemetry.Warn("worker.shutdown.timeout", map[string]any{"timeout": p.ShutdownTimeout.String()})
	}
	return nil
}

// Handle processes a single SQS message.
func (p *Poller) Handle(ctx context.Context, m sqstypes.Message) {
	body := aws.ToString(m.Body)
	msg, meta, err := ParseMessage(body)
	fields := logFields(m, msg.FeedbackID, msg.RequestID)
	if err != nil {
		fields["body_len"] = meta.BodyLen
		if meta.BodySHA != "" {
			fields["body_sha256"] = meta.BodySHA
		}
		fields["error"] = err
		telemetry.Error("worker.review."+string(ReasonOf(err)), fields)
		if p.delete(ctx, m, fields) {
			metrics.IncReviewJobsDropped()
		}
		return
	}

	telemetry.Info("worker.review.received", fields)
	ctx, span := tracing.Start(ctx, "review.process",
		attribute.String("feedback.id", msg.FeedbackID),
		attribute.String("request.id", msg.RequestID),
		attribute.Int("sqs.receive_count", ReceiveCount(m)),
	)
	err = Process(ctx, p.Processor, msg)
	tracing.End(span, err)
	if err != nil {
		fields["error"] = err
		telemetry.Error("worker.review.failed", fields)
		metrics.IncReviewJobsFailed()
		return
	}
	if p.delete(ctx, m, fields) {
		telemetry.Info("worker.review.completed", fields)
	}
}

func (p *Poller) delete(ctx context.Context, m sqstypes.Message, fields map[string]any) bool {
	receipt := aws.ToString(m.ReceiptHandle)
	if receipt == "" {
		telemetry.Error("worker.review.delete_failed", withField(fields, "error", "missing receipt handle"))
		return false
	}
	// A message that finished processing is deleted even during shutdown.
	_, err := p.SQS.DeleteMessage(context.WithoutCancel(ctx), &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(p.QueueURL),
		ReceiptHandle: aws.String(receipt),
	})
	if err != nil {
		telemetry.Error("worker.review.delete_failed", withField(fields, "error", err))
		return false
	}
	return true
}

func logFields(m sqstypes.Message, feedbackID, requestID string) map[string]any {
	fields := map[string]any{
		"sqs_message_id": aws.ToString(m.MessageId),
		"receive_count":  ReceiveCount(m),
	}
	if feedbackID != "" {
		fields["feedback_id"] = feedbackID
	}
	if requestID != "" {
		fields["request_id"] = requestID
	}
	return fields
}

func withField(fields map[string]any, key string, v any) map[string]any {
	out := make(map[string]any, len(fields)+1)
	for k, val := range fields {
		out[k] = val
	}
	out[key] = v
	return out
}

// ReceiveCount reads ApproximateReceiveCount, or 0 when it is absent.
func ReceiveCount(m sqstypes.Message) int {
	n, err := strconv.Atoi(m.Attributes[receiveCountAttr])
	if err != nil {
		return 0
	}
	return n
}

func pause(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
