// Package minio stores asset blobs in MinIO or another S3-compatible server
// through the MinIO client, without pulling in the AWS SDK.
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds: credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	})
//	if err != nil {
//	    return err
//	}
//	store := minioblob.NewStore(client, "game-assets", "levels")
//
// The root prefix is normalized to end in a slash. Blob names below it use
// forward slashes on every platform.
package minio
