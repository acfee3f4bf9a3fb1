package filesystem

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectAPI is the part of the S3 client a Bucket uses.
type ObjectAPI interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Bucket struct {
	name   string
	client ObjectAPI
}

func NewBucket(name string, client ObjectAPI) *Bucket {
	return &Bucket{name: name, client: client}
}

// OpenBucket builds a Bucket from the default AWS credential chain.
func OpenBucket(ctx context.Context, name string) (*Bucket, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return NewBucket(name, s3.NewFromConfig(cfg)), nil
}

func (b *Bucket) Name() string {
	return b.name
}

func (b *Bucket) ReadFile(ctx context.Context, key string, outStream io.Writer) error {
	resp, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.name),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to get object %s from bucket %s: %w", key, b.name, err)
	}
	defer resp.Body.Close()

	if _, err = io.Copy(outStream, resp.Body); err != nil {
		return fmt.Errorf("failed to copy object %s from bucket %s: %w", key, b.name, err)
	}
	return nil
}

func (b *Bucket) WriteFile(ctx context.Context, key, contentType string, content []byte) error {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.name),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s to bucket %s: %w", key, b.name, err)
	}
	return nil
}

// ListFiles returns every key under prefix.
func (b *Bucket) ListFiles(ctx context.Context, prefix string) ([]string, error) {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(b.name)}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	var keys []string
	paginator := s3.NewListObjectsV2Paginator(b.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects in bucket %s: %w", b.name, err)
		}
		for _, obj := range page.Contents {
			if obj.Key != nil {
				keys = append(keys, *obj.Key)
			}
		}
	}
	return keys, nil
}
