package dataset

import (
	"context"
	"fmt"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Source reads a CSV object from an S3-compatible bucket (AWS S3 or MinIO).
// Credentials come from the default AWS chain.
type S3Source struct {
	Bucket    string
	Key       string
	Region    string // default us-east-1
	Endpoint  string // optional; custom endpoint such as MinIO
	PathStyle bool

	// Client overrides the client built from the fields above.
	Client *s3.Client
}

func (s S3Source) Name() string { return fmt.Sprintf("s3://%s/%s", s.Bucket, s.Key) }

func (s S3Source) Load(ctx context.Context) (*Dataset, error) {
	if s.Bucket == "" || s.Key == "" {
		return nil, fmt.Errorf("s3 bucket and key required")
	}
	client := s.Client
	if client == nil {
		var err error
		client, err = s.newClient(ctx)
		if err != nil {
			return nil, err
		}
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.Bucket, Key: &s.Key})
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	defer func() { _ = out.Body.Close() }()
	return ParseCSV(out.Body)
}

func (s S3Source) newClient(ctx context.Context) (*s3.Client, error) {
	region := s.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if s.PathStyle {
			o.UsePathStyle = true
		}
		if s.Endpoint != "" {
			o.BaseEndpoint = aws.String(s.Endpoint)
		}
	}), nil
}
