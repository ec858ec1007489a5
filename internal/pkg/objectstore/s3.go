package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/tablecast/signage/internal/pkg/apperr"
	"go.uber.org/zap"
)

// S3Options configures an S3 or S3-compatible bucket.
type S3Options struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// S3Gateway stores media in an S3-compatible bucket.
type S3Gateway struct {
	bucket  string
	client  *s3.Client
	presign *s3.PresignClient
	logger  *zap.Logger
}

func NewS3(ctx context.Context, opts S3Options, logger *zap.Logger) (*S3Gateway, error) {
	if strings.TrimSpace(opts.Bucket) == "" {
		return nil, errors.New("s3 bucket is required")
	}
	if opts.AccessKeyID == "" || opts.SecretAccessKey == "" {
		return nil, errors.New("s3 access key id and secret access key are required")
	}
	region := opts.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})
	if logger == nil {
		logger = zap.NewNop()
	}
	return &S3Gateway{
		bucket:  opts.Bucket,
		client:  client,
		presign: s3.NewPresignClient(client),
		logger:  logger.Named("s3"),
	}, nil
}

func (g *S3Gateway) Bucket() string { return g.bucket }

func (g *S3Gateway) Upload(ctx context.Context, in UploadInput) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(g.bucket),
		Key:           aws.String(in.Path),
		Body:          bytes.NewReader(in.Body),
		ContentLength: aws.Int64(int64(len(in.Body))),
		ContentType:   aws.String(in.ContentType),
	}
	if !in.Upsert {
		input.IfNoneMatch = aws.String("*")
	}
	if _, err := g.client.PutObject(ctx, input); err != nil {
		if isS3PreconditionFailed(err) {
			return apperr.Conflict("object %q already exists", in.Path)
		}
		return classifyS3("put object", in.Path, err)
	}
	return nil
}

func (g *S3Gateway) SignedURL(ctx context.Context, path string, ttl time.Duration) (*SignedURL, error) {
	if ttl <= 0 {
		ttl = DefaultSignedURLTTL
	}
	_, err := g.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, apperr.NotFound("object %q not found", path)
		}
		return nil, classifyS3("head object", path, err)
	}

	req, err := g.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(path),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return nil, fmt.Errorf("presign %q: %w", path, err)
	}
	return &SignedURL{FilePath: path, URL: req.URL, ExpiresAt: time.Now().Add(ttl)}, nil
}

func (g *S3Gateway) Delete(ctx context.Context, path string) error {
	_, err := g.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(path),
	})
	if err != nil && !isS3NotFound(err) {
		return classifyS3("delete object", path, err)
	}
	return nil
}

func (g *S3Gateway) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	pager := s3.NewListObjectsV2Paginator(g.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(g.bucket),
		Prefix: aws.String(prefix),
	})
	var out []ObjectInfo
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, classifyS3("list objects", prefix, err)
		}
		for _, obj := range page.Contents {
			out = append(out, ObjectInfo{
				Path:      aws.ToString(obj.Key),
				Size:      aws.ToInt64(obj.Size),
				UpdatedAt: aws.ToTime(obj.LastModified),
			})
		}
	}
	return out, nil
}

func (g *S3Gateway) Ping(ctx context.Context) error {
	_, err := g.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(g.bucket)})
	if err != nil {
		return classifyS3("head bucket", g.bucket, err)
	}
	return nil
}

func isS3NotFound(err error) bool {
	var nf *types.NotFound
	var nsk *types.NoSuchKey
	if errors.As(err, &nf) || errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return s3Status(err) == http.StatusNotFound
}

func isS3PreconditionFailed(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "PreconditionFailed" {
		return true
	}
	status := s3Status(err)
	return status == http.StatusPreconditionFailed || status == http.StatusConflict
}

func s3Status(err error) int {
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		return respErr.HTTPStatusCode()
	}
	return 0
}

// classifyS3 keeps the HTTP status of a failed call so retry logic can tell
// a rejected request from a transient fault.
func classifyS3(op, key string, err error) error {
	status := s3Status(err)
	if status == 0 {
		return fmt.Errorf("%s %q: %w", op, key, err)
	}
	return apperr.Upstream(status, fmt.Sprintf("%s %q failed", op, key), err)
}
