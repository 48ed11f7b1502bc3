package cloudwriter

import (
	"context"
	"fmt"
)

// CloudWriter buffers one object and uploads it on Close.
type CloudWriter interface {
	Write(data []byte) (int, error)
	Close() error
}

type CloudWriterFactory interface {
	NewWriter(ctx context.Context, bucket, objectPath string) (CloudWriter, error)
}

// NewFactory returns the writer factory for a cloud storage provider.
func NewFactory(ctx context.Context, provider, region, endpoint string) (CloudWriterFactory, error) {
	switch provider {
	case "s3":
		return NewS3WriterFactory(ctx, region, endpoint)
	default:
		return nil, fmt.Errorf("unsupported cloud storage provider: %s", provider)
	}
}
