package certificate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"defense_service/internal/config"
	"defense_service/internal/model"
	"defense_service/pkg/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3Config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	uploadRetries   = 3
	uploadBaseDelay = 200 * time.Millisecond
)

func NewClient(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	s3Cfg, err := s3Config.LoadDefaultConfig(ctx,
		s3Config.WithRegion(cfg.S3Region),
		s3Config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.S3AccessKeyID,
				cfg.S3SecretAccessKey,
				"",
			),
		),
	)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(s3Cfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
		o.UsePathStyle = true
	})
	return client, nil
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Renderer stores the defense act as a JSON document in a bucket.
type S3Renderer struct {
	client    objectPutter
	bucket    string
	breaker   *utils.CircuitBreaker
	baseDelay time.Duration
}

func NewS3Renderer(client *s3.Client, bucket string) *S3Renderer {
	return newS3Renderer(client, bucket)
}

func newS3Renderer(client objectPutter, bucket string) *S3Renderer {
	return &S3Renderer{
		client:    client,
		bucket:    bucket,
		breaker:   utils.NewCircuitBreaker(5, 30*time.Second),
		baseDelay: uploadBaseDelay,
	}
}

// Key is the object key of the act for one defense.
func Key(cert model.Certificate) string {
	return fmt.Sprintf("certificates/%s/%s.json", cert.Thesis.Id, cert.Defense.Id)
}

// Render uploads the act and returns its object path.
func (r *S3Renderer) Render(ctx context.Context, cert model.Certificate) (string, error) {
	body, err := json.MarshalIndent(newAct(cert), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal certificate: %w", err)
	}

	key := Key(cert)
	_, err = utils.RetryWithCircuitBreaker(ctx, r.breaker, uploadRetries, r.baseDelay, func() (*s3.PutObjectOutput, error) {
		return r.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(r.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(body),
			ContentType: aws.String("application/json"),
		})
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload certificate: %w", err)
	}
	return r.bucket + "/" + key, nil
}
