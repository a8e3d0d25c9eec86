// Package s3 stores asset blobs in an Amazon S3 bucket.
//
// Store accepts any Client, so tests can substitute a fake for the SDK
// client:
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	store := s3.NewStore(awss3.NewFromConfig(cfg), "game-assets", s3.WithPrefix("levels/"))
//	loader := asset.NewLoader(engine.Arena(), engine.Registry(), store)
//
// Open issues a HEAD request for the size. ReadAt then fetches byte ranges,
// so a Loader reading in blocks never downloads more than it asked for.
// Uploads above UploadConfig.PartSize go through the multipart manager. With
// EnableChecksum set, S3 verifies a CRC32C checksum on every upload.
package s3
