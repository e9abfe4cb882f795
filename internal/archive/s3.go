package archive

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"github.com/local/jarvis/internal/config"
)

// API is the subset of the S3 client the archive uses.
type API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// Report is what gets archived for a finished request.
type Report struct {
	RequestID string
	Mode      string
	Topic     string
	Provider  string
	Body      string
}

// S3Archive stores finished reports as Markdown objects.
type S3Archive struct {
	client API
	bucket string
	prefix string
	now    func() time.Time
}

// New loads AWS configuration, using static credentials when both key parts
// are set and the default chain otherwise.
func New(ctx context.Context, cfg config.ArchiveConfig) (*S3Archive, error) {
	var opts []func(*awscfg.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awscfg.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsConf, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewWithClient(s3.NewFromConfig(awsConf), cfg.Bucket, cfg.Prefix), nil
}

func NewWithClient(client API, bucket, prefix string) *S3Archive {
	return &S3Archive{client: client, bucket: bucket, prefix: prefix, now: time.Now}
}

// Bucket returns the target bucket name.
func (a *S3Archive) Bucket() string { return a.bucket }

func (a *S3Archive) key(requestID string) string {
	day := a.now().UTC().Format("2006/01/02")
	return path.Join(strings.Trim(a.prefix, "/"), day, requestID+".md")
}

// Save uploads the report and returns its s3:// location.
func (a *S3Archive) Save(ctx context.Context, r Report) (string, error) {
	key := a.key(r.RequestID)
	meta := map[string]string{"request-id": r.RequestID, "mode": r.Mode}
	if r.Provider != "" {
		meta["provider"] = r.Provider
	}
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(r.Body),
		ContentType: aws.String("text/markdown; charset=utf-8"),
		Metadata:    meta,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload report to S3: %w", err)
	}
	loc := fmt.Sprintf("s3://%s/%s", a.bucket, key)
	log.Debug().Str("request_id", r.RequestID).Str("location", loc).Msg("report archived")
	return loc, nil
}

// Check verifies the bucket is reachable.
func (a *S3Archive) Check(ctx context.Context) error {
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(a.bucket)})
	return err
}
