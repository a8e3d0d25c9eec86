package main

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hupe1980/triton/blobstore"
	miniostore "github.com/hupe1980/triton/blobstore/minio"
	s3store "github.com/hupe1980/triton/blobstore/s3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// target selects the blob store assets are written to or read from.
type target struct {
	kind      string
	root      string
	bucket    string
	prefix    string
	region    string
	endpoint  string
	accessKey string
	secretKey string
	insecure  bool
}

func (t *target) register(cmd *kingpin.CmdClause) {
	cmd.Flag("store", "Blob store kind.").Default("local").EnumVar(&t.kind, "local", "s3", "minio")
	cmd.Flag("root", "Root directory of a local store.").Default("assets").StringVar(&t.root)
	cmd.Flag("bucket", "Bucket of an S3 or MinIO store.").StringVar(&t.bucket)
	cmd.Flag("prefix", "Key prefix inside the bucket.").StringVar(&t.prefix)
	cmd.Flag("region", "AWS region override.").Envar("AWS_REGION").StringVar(&t.region)
	cmd.Flag("endpoint", "MinIO endpoint (host:port) or S3 endpoint URL.").Envar("MINIO_ENDPOINT").StringVar(&t.endpoint)
	cmd.Flag("access-key", "MinIO access key.").Envar("MINIO_ACCESS_KEY").StringVar(&t.accessKey)
	cmd.Flag("secret-key", "MinIO secret key.").Envar("MINIO_SECRET_KEY").StringVar(&t.secretKey)
	cmd.Flag("insecure", "Use plain HTTP for MinIO.").BoolVar(&t.insecure)
}

func (t *target) open(ctx context.Context) (blobstore.BlobStore, error) {
	switch t.kind {
	case "local", "":
		return blobstore.NewLocalStore(t.root), nil
	case "s3":
		if t.bucket == "" {
			return nil, fmt.Errorf("assetpack: --bucket is required for s3")
		}
		var opts []func(*awsconfig.LoadOptions) error
		if t.region != "" {
			opts = append(opts, awsconfig.WithRegion(t.region))
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("assetpack: load aws config: %w", err)
		}
		client := s3.NewFromConfig(cfg, func(o *s3.Options) {
			if t.endpoint != "" {
				o.BaseEndpoint = aws.String(t.endpoint)
				o.UsePathStyle = true
			}
		})
		return s3store.NewStore(client, t.bucket, s3store.WithPrefix(t.prefix)), nil
	case "minio":
		if t.bucket == "" || t.endpoint == "" {
			return nil, fmt.Errorf("assetpack: --bucket and --endpoint are required for minio")
		}
		client, err := minio.New(t.endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(t.accessKey, t.secretKey, ""),
			Secure: !t.insecure,
		})
		if err != nil {
			return nil, fmt.Errorf("assetpack: minio client: %w", err)
		}
		return miniostore.NewStore(client, t.bucket, t.prefix), nil
	default:
		return nil, fmt.Errorf("assetpack: unknown store %q", t.kind)
	}
}
