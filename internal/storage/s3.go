package storage

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/dunning/backend/internal/util"
	"github.com/OFFIS-RIT/dunning/backend/pkg/loader"
	s3loader "github.com/OFFIS-RIT/dunning/backend/pkg/loader/s3"
	"github.com/OFFIS-RIT/dunning/backend/pkg/store"
)

// S3Configured reports whether enough of the AWS_* environment is set to
// reach an object store.
func S3Configured() bool {
	return util.GetEnv("AWS_REGION") != "" || util.GetEnv("AWS_ENDPOINT") != ""
}

// NewS3SourceReader builds the s3:// dataset reader from the AWS_* environment.
func NewS3SourceReader(ctx context.Context) (*s3loader.S3SourceReader, error) {
	reader, err := s3loader.NewS3SourceReader(ctx, s3loader.NewS3SourceReaderParams{
		Bucket:    util.GetEnv("AWS_BUCKET"),
		Endpoint:  util.GetEnv("AWS_ENDPOINT"),
		Region:    util.GetEnv("AWS_REGION"),
		AccessKey: util.GetEnv("AWS_ACCESS_KEY"),
		SecretKey: util.GetEnv("AWS_SECRET_KEY"),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}
	return reader, nil
}

// LoaderOptions returns the loader options shared by every binary: the S3
// reader when configured, the load lock, JSON repair and the progress
// interval.
func LoaderOptions(ctx context.Context, graph store.GraphStore) ([]loader.Option, error) {
	var opts []loader.Option
	if lk := LoadLocker(graph); lk != nil {
		opts = append(opts, loader.WithLocker(lk))
	}
	if S3Configured() {
		reader, err := NewS3SourceReader(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, loader.WithReader(s3loader.Scheme, reader))
	}
	opts = append(opts,
		loader.WithJSONRepair(util.GetEnvBool("SOURCE_JSON_REPAIR", false)),
		loader.WithProgressInterval(int(util.GetEnvNumeric("LOAD_PROGRESS_INTERVAL", loader.DefaultProgressInterval))),
	)
	return opts, nil
}
