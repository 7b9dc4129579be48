package queue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"gezy-backend/internal/shared/retry"
)

const defaultRegion = "eu-central-1"

type sendAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSClient publishes review requests to an SQS queue. The worker polls
// the same queue through SQS().
type SQSClient struct {
	client   *sqs.Client
	send     sendAPI
	queueURL string
	policy   retry.Policy
}

// NewSQSClient loads the default AWS credential chain for region.
func NewSQSClient(ctx context.Context, region, queueURL string) (*SQSClient, error) {
	queueURL = strings.TrimSpace(queueURL)
	if queueURL == "" {
		return nil, fmt.Errorf("REVIEW_QUEUE_URL is required")
	}
	if strings.TrimSpace(region) == "" {
		region = defaultRegion
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := sqs.NewFromConfig(cfg)
	return &SQSClient{
		client:   client,
		send:     client,
		queueURL: queueURL,
		policy:   sendPolicy(),
	}, nil
}

func sendPolicy() retry.Policy {
	return retry.Policy{
		Name:           "sqs.send",
		MaxAttempts:    3,
		BaseDelay:      200 * time.Millisecond,
		AttemptTimeout: 5 * time.Second,
	}
}

// SQS exposes the underlying client for the polling worker.
func (s *SQSClient) SQS() *sqs.Client { return s.client }

// QueueURL is the queue this client publishes to.
func (s *SQSClient) QueueURL() string { return s.queueURL }

// Send publishes msg. Kind and request id travel as message attributes so
// they are visible in the console without decoding the body.
func (s *SQSClient) Send(ctx context.Context, msg Message) error {
	msg = msg.withDefaults()
	payload, err := EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode sqs message: %w", err)
	}
	in := &sqs.SendMessageInput{
		QueueUrl:          aws.String(s.queueURL),
		MessageBody:       aws.String(string(payload)),
		MessageAttributes: attributes(msg),
	}
	_, err = retry.Do(ctx, s.policy, func(ctx context.Context) (*sqs.SendMessageOutput, error) {
		return s.send.SendMessage(ctx, in)
	})
	if err != nil {
		return fmt.Errorf("sqs send message: %w", err)
	}
	return nil
}

func attributes(msg Message) map[string]sqstypes.MessageAttributeValue {
	attrs := map[string]sqstypes.MessageAttributeValue{
		"kind": {DataType: aws.String("String"), StringValue: aws.String(msg.Kind)},
	}
	if msg.RequestID != "" {
		attrs["request_id"] = sqstypes.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(msg.RequestID)}
	}
	return attrs
}

var _ Client = (*SQSClient)(nil)
