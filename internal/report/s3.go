package report

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/joshsymonds/beacon/pkg/logger"
)

// Publisher uploads rendered reports to S3 so MSPs can archive or share
// dashboards from a bucket.
type Publisher struct {
	client *s3.Client
	logger logger.Logger
}

// NewPublisher creates a Publisher using the default AWS credential chain.
func NewPublisher(ctx context.Context, log logger.Logger) (*Publisher, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &Publisher{client: s3.NewFromConfig(cfg), logger: log}, nil
}

// ParseS3URL splits an s3://bucket/prefix URL. The prefix may be empty.
func ParseS3URL(raw string) (bucket, prefix string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("parsing S3 URL: %w", err)
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("expected s3://bucket[/prefix], got %s", raw)
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

// Publish uploads a local report file under the bucket prefix, keyed by the
// file name.
func (p *Publisher) Publish(ctx context.Context, localPath, bucket, prefix string) error {
	file, err := os.Open(localPath) //nolint:gosec // Report paths are validated at generation
	if err != nil {
		return fmt.Errorf("opening report: %w", err)
	}
	defer func() { _ = file.Close() }()

	key := path.Join(prefix, filepath.Base(localPath))
	contentType := contentTypeFor(filepath.Ext(localPath))

	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("uploading to s3://%s/%s: %w", bucket, key, err)
	}

	p.logger.Info("Published report", "bucket", bucket, "key", key)
	return nil
}

func contentTypeFor(ext string) string {
	switch strings.ToLower(ext) {
	case ".html":
		return "text/html; charset=utf-8"
	case ".json":
		return "application/json"
	case ".csv":
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}
