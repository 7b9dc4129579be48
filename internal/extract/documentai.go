package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
)

var documentAITypes = map[string]bool{
	mimePDF:      true,
	"image/png":  true,
	"image/jpeg": true,
	"image/tiff": true,
	"image/gif":  true,
	"image/webp": true,
}

type documentProcessor interface {
	ProcessDocument(ctx context.Context, req *documentaipb.ProcessRequest, opts ...gax.CallOption) (*documentaipb.ProcessResponse, error)
	Close() error
}

// DocumentAI runs scanned notices through a Google Cloud Document AI OCR processor.
type DocumentAI struct {
	client    documentProcessor
	processor string
}

// DocumentAIConfig names the processor; credentials come from the environment.
type DocumentAIConfig struct {
	Project   string
	Location  string
	Processor string
}

// NewDocumentAI dials the regional Document AI endpoint.
func NewDocumentAI(ctx context.Context, cfg DocumentAIConfig) (*DocumentAI, error) {
	if cfg.Project == "" || cfg.Processor == "" {
		return nil, fmt.Errorf("DOCUMENTAI_PROJECT and DOCUMENTAI_PROCESSOR are required")
	}
	location := cfg.Location
	if location == "" {
		location = "eu"
	}
	opts := append([]option.ClientOption{
		option.WithEndpoint(fmt.Sprintf("%s-documentai.googleapis.com:443", location)),
	}, clientOptionsFromEnv()...)
	client, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("documentai client: %w", err)
	}
	return &DocumentAI{
		client:    client,
		processor: fmt.Sprintf("projects/%s/locations/%s/processors/%s", cfg.Project, location, cfg.Processor),
	}, nil
}

func clientOptionsFromEnv() []option.ClientOption {
	creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"))
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}

func (d *DocumentAI) Name() string { return "documentai" }

func (d *DocumentAI) Supports(mimeType string) bool { return documentAITypes[mimeType] }

// Text sends the raw bytes for OCR. Quality is the mean page layout confidence.
func (d *DocumentAI) Text(ctx context.Context, data []byte, mimeType string) (Text, error) {
	if !d.Supports(mimeType) {
		return Text{}, fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}
	resp, err := d.client.ProcessDocument(ctx, &documentaipb.ProcessRequest{
		Name: d.processor,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  data,
				MimeType: mimeType,
			},
		},
	})
	if err != nil {
		return Text{}, fmt.Errorf("documentai ProcessDocument: %w", err)
	}
	doc := resp.GetDocument()
	if doc == nil || strings.TrimSpace(doc.GetText()) == "" {
		return Text{}, fmt.Errorf("%w: no text detected", ErrUnreadable)
	}

	quality := 0.0
	pages := doc.GetPages()
	for _, p := range pages {
		quality += float64(p.GetLayout().GetConfidence())
	}
	if len(pages) > 0 {
		quality /= float64(len(pages))
	} else {
		quality = 0.5
	}
	return Text{Content: doc.GetText(), Quality: quality}, nil
}

// Close releases the gRPC connection.
func (d *DocumentAI) Close() error {
	if d == nil || d.client == nil {
		return nil
	}
	return d.client.Close()
}
