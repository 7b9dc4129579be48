package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"gezy-backend/internal/shared/storage/object"
)

type fakeBucket struct {
	objects map[string][]byte
	puts    []*s3.PutObjectInput
}

func (f *fakeBucket) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeBucket) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeBucket) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestObjectKeyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "notices/owner/bescheid.pdf", want: "notices/owner/bescheid.pdf"},
		{name: "simple prefix", prefix: "gezy", key: "notices/owner/bescheid.pdf", want: "gezy/notices/owner/bescheid.pdf"},
		{name: "leading key slash", prefix: "gezy", key: "/letters/owner/l1.txt", want: "gezy/letters/owner/l1.txt"},
		{name: "untrimmed prefix", prefix: " /gezy/prod/ ", key: "letters/l1.html", want: "gezy/prod/letters/l1.html"},
		{name: "empty key", prefix: "gezy", key: "", want: "gezy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := newStore(nil, Options{Bucket: "b", Prefix: tt.prefix})
			if got := s.objectKey(tt.key); got != tt.want {
				t.Fatalf("objectKey(%q) with prefix %q = %q, want %q", tt.key, tt.prefix, got, tt.want)
			}
		})
	}
}

func TestSaveOpenDelete(t *testing.T) {
	bucket := &fakeBucket{objects: map[string][]byte{}}
	s := newStore(bucket, Options{Bucket: "notices", Prefix: "gezy", KMSKeyID: "key-1"})
	ctx := context.Background()

	key, n, mime, err := s.Save(ctx, "user-1", "Bescheid.pdf", strings.NewReader("%PDF-1.7 body"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if n != 13 || mime != "application/pdf" || !strings.HasPrefix(key, "notices/") {
		t.Fatalf("unexpected save result %q %d %q", key, n, mime)
	}
	put := bucket.puts[0]
	if put.ServerSideEncryption != s3types.ServerSideEncryptionAwsKms || aws.ToString(put.SSEKMSKeyId) != "key-1" {
		t.Fatalf("expected kms encryption, got %+v", put)
	}
	if aws.ToString(put.Key) != "gezy/"+key {
		t.Fatalf("prefix not applied: %s", aws.ToString(put.Key))
	}

	got, err := object.ReadAll(ctx, s, key, 1<<10)
	if err != nil || string(got) != "%PDF-1.7 body" {
		t.Fatalf("ReadAll: %q %v", got, err)
	}
	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Open(ctx, key); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestPutInputDefaultsToSSES3(t *testing.T) {
	s := newStore(nil, Options{Bucket: "b"})
	in := s.putInput("k", "", strings.NewReader(""))
	if in.ServerSideEncryption != s3types.ServerSideEncryptionAes256 || in.SSEKMSKeyId != nil {
		t.Fatalf("expected AES256, got %+v", in)
	}
	if in.ContentType != nil {
		t.Fatalf("empty content type must be omitted")
	}
}
