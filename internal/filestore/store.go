// Package filestore defines the unified interface for the object-store
// backends that hold a table's warehouse data.
//
// All providers (MinIO, S3-compatible, …) implement the Store interface.
// Callers depend only on this package — never on a specific provider package.
//
// Usage:
//
//	cfg := filestore.DefaultConfig("localhost:9000", "minioadmin", "minioadmin")
//	store, err := minio.New(ctx, cfg)
//	if err != nil { ... }
//	defer store.Close()
//
//	err = store.PutObject(ctx, "warehouse", "ns/orders/data/xyz.parquet", data, "application/octet-stream")
package filestore

import "context"

// Store is the interface every object-store provider must implement.
// Scoped to what the append path needs: bucket checks, region resolution,
// and data-file uploads.
type Store interface {
	// Ping verifies the storage backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any held resources.
	Close() error

	// BucketExists reports whether the bucket is present and accessible.
	BucketExists(ctx context.Context, bucket string) (bool, error)

	// BucketRegion resolves the region the bucket lives in. Region-less
	// backends return "".
	BucketRegion(ctx context.Context, bucket string) (string, error)

	// PutObject writes data to key inside bucket. Existing objects are
	// never overwritten by the append path — keys are unique per data file.
	PutObject(ctx context.Context, bucket, key string, data []byte, contentType string) error
}
