package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/singleflight"
)

// Scheme prefixes paths served by S3SourceReader.
const Scheme = "s3://"

// ObjectGetter is the subset of *s3.Client used by the reader.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3SourceReader loads dataset documents addressed as s3://bucket/key. A
// path without a bucket ("s3:///key" or "s3://key" when no slash follows)
// falls back to the configured default bucket.
type S3SourceReader struct {
	bucket string
	client ObjectGetter
	group  singleflight.Group
}

// NewS3SourceReaderWithClient reuses a preconfigured client.
func NewS3SourceReaderWithClient(bucket string, client ObjectGetter) *S3SourceReader {
	return &S3SourceReader{
		bucket: bucket,
		client: client,
	}
}

// NewS3SourceReaderParams holds static credentials and endpoint settings.
// Endpoint may point at S3-compatible storage such as MinIO.
type NewS3SourceReaderParams struct {
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

func NewS3SourceReader(ctx context.Context, params NewS3SourceReaderParams) (*S3SourceReader, error) {
	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(params.Region),
		config.WithBaseEndpoint(params.Endpoint),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			params.AccessKey,
			params.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	return NewS3SourceReaderWithClient(params.Bucket, client), nil
}

// ParseLocation splits an s3:// path into bucket and key.
func ParseLocation(path, defaultBucket string) (string, string, error) {
	rest, ok := strings.CutPrefix(path, Scheme)
	if !ok {
		return "", "", fmt.Errorf("not an s3 path: %s", path)
	}
	bucket, key, found := strings.Cut(rest, "/")
	if !found {
		bucket, key = "", bucket
	}
	if bucket == "" {
		bucket = defaultBucket
	}
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("incomplete s3 path: %s", path)
	}
	return bucket, key, nil
}

func (l *S3SourceReader) ReadSource(ctx context.Context, path string) ([]byte, error) {
	bucket, key, err := ParseLocation(path, l.bucket)
	if err != nil {
		return nil, err
	}

	result, err, _ := l.group.Do(bucket+"/"+key, func() (any, error) {
		out, err := l.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, fmt.Errorf("get object %s/%s: %w", bucket, key, err)
		}
		defer out.Body.Close()

		buf := new(bytes.Buffer)
		if _, err := io.Copy(buf, out.Body); err != nil {
			return nil, fmt.Errorf("read object %s/%s: %w", bucket, key, err)
		}
		return buf.Bytes(), nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}
