package filesystem

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Key] = body
	f.types[*in.Key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func TestBucketRoundTrip(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	b := NewBucket("exports", fake)

	require.NoError(t, b.WriteFile(ctx, "exports/acme/2026-10-14.xlsx", "application/octet-stream", []byte("xlsx")))
	require.NoError(t, b.WriteFile(ctx, "exports/other/2026-10-14.xlsx", "application/octet-stream", []byte("other")))
	assert.Equal(t, "application/octet-stream", fake.types["exports/acme/2026-10-14.xlsx"])

	var buf bytes.Buffer
	require.NoError(t, b.ReadFile(ctx, "exports/acme/2026-10-14.xlsx", &buf))
	assert.Equal(t, "xlsx", buf.String())

	keys, err := b.ListFiles(ctx, "exports/acme/")
	require.NoError(t, err)
	assert.Equal(t, []string{"exports/acme/2026-10-14.xlsx"}, keys)

	err = b.ReadFile(ctx, "missing", &buf)
	assert.ErrorContains(t, err, "missing")
}
