// Package blobstore provides storage access for engine assets.
//
// BlobStore is the interface the asset loader reads from and the asset packer
// writes to. Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, blobs are memory mapped for reading
//   - MemoryStore: in-process map, for tests and embedded assets
//   - CachingStore: LRU of whole blobs in front of a slower store
//   - s3.Store: Amazon S3 (aws-sdk-go-v2) with multipart uploads
//   - minio.Store: MinIO and other S3-compatible services
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Blobs that already live in memory should implement Mappable so readers can
// skip the copy through ReadAt.
package blobstore
