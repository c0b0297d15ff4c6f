package s3source

import (
	"context"
	"fmt"
	"io"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"

	"github.com/Victor-armando18/service-rules/internal/domain"
	"github.com/Victor-armando18/service-rules/internal/infrastructure"
)

// Config describes where the rule pack object lives. Credentials fall back to
// the default AWS chain when AccessKeyID is empty.
type Config struct {
	Region          string
	Bucket          string
	Key             string
	Endpoint        string // optional; set for MinIO
	AccessKeyID     string
	SecretAccessKey string
	PathStyle       bool
}

// Loader fetches a YAML or JSON rule pack object from S3-compatible storage.
type Loader struct {
	client *s3.Client
	bucket string
	key    string
	log    logrus.FieldLogger
}

func New(ctx context.Context, cfg Config, log logrus.FieldLogger) (*Loader, error) {
	if cfg.Bucket == "" || cfg.Key == "" {
		return nil, fmt.Errorf("s3 bucket and key required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewWithClient(client, cfg.Bucket, cfg.Key, log), nil
}

func NewWithClient(client *s3.Client, bucket, key string, log logrus.FieldLogger) *Loader {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Loader{client: client, bucket: bucket, key: key, log: log}
}

func (l *Loader) Load(ctx context.Context) (*domain.RulePack, error) {
	out, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(l.key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", l.bucket, l.key, err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read s3://%s/%s: %w", l.bucket, l.key, err)
	}
	source := fmt.Sprintf("s3://%s/%s", l.bucket, l.key)
	doc, err := infrastructure.DecodeRulePack(l.key, data)
	if err != nil {
		return nil, err
	}
	return infrastructure.CompileRulePack(doc, source, l.log)
}
