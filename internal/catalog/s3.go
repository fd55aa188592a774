package catalog

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config configures an S3/MinIO-hosted catalog object.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	Object    string
	UseSSL    bool
}

// S3KB reads the component catalog from a single JSON object in an
// S3-compatible bucket. Each call fetches the object; wrap it in a
// CachedKB to avoid refetching on every interpretation.
type S3KB struct {
	client *minio.Client
	bucket string
	object string
}

func NewS3KB(cfg S3Config) (*S3KB, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("catalog: s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("catalog: s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("catalog: s3 bucket is required")
	}
	object := strings.TrimSpace(cfg.Object)
	if object == "" {
		object = "catalog.json"
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: init s3 client: %w", err)
	}
	return &S3KB{client: client, bucket: bucket, object: object}, nil
}

func (kb *S3KB) load(ctx context.Context) (*MemoryKB, error) {
	if kb == nil || kb.client == nil {
		return nil, fmt.Errorf("catalog: s3 knowledge base is nil")
	}
	obj, err := kb.client.GetObject(ctx, kb.bucket, kb.object, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("catalog: fetch %s/%s: %w", kb.bucket, kb.object, err)
	}
	defer obj.Close()
	raw, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s/%s: %w", kb.bucket, kb.object, err)
	}
	return parseCatalog(raw)
}

func (kb *S3KB) ListComponentTypes(ctx context.Context) ([]ComponentSpec, error) {
	mem, err := kb.load(ctx)
	if err != nil {
		return nil, err
	}
	return mem.ListComponentTypes(ctx)
}

func (kb *S3KB) GetComponent(ctx context.Context, componentType string) (ComponentSpec, error) {
	mem, err := kb.load(ctx)
	if err != nil {
		return ComponentSpec{}, err
	}
	return mem.GetComponent(ctx, componentType)
}
