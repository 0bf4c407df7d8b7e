package blogservice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/sushihentaime/blogify/internal/common"
)

var _ FileStore = (*S3FileStore)(nil)

const (
	previewExpiry = time.Hour
	ownerMetaKey  = "owner"
)

type S3Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
}

// S3FileStore keeps files in an S3 compatible bucket under random keys. The
// uploader is stored in the object metadata.
type S3FileStore struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

func NewS3FileStore(ctx context.Context, cfg S3Config) (*S3FileStore, error) {
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("could not load S3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3FileStore{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
	}, nil
}

func (s *S3FileStore) Upload(ctx context.Context, owner, name, contentType string, data []byte) (string, error) {
	defer common.TrackCall("s3", "upload_file")()

	key := uuid.NewString()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:             aws.String(s.bucket),
		Key:                aws.String(key),
		Body:               bytes.NewReader(data),
		ContentType:        aws.String(contentType),
		ContentDisposition: aws.String(fmt.Sprintf("inline; filename=%q", name)),
		Metadata:           map[string]string{ownerMetaKey: owner},
	})
	if err != nil {
		return "", fmt.Errorf("could not upload file: %w", err)
	}

	return key, nil
}

func (s *S3FileStore) Owner(ctx context.Context, id string) (string, error) {
	defer common.TrackCall("s3", "file_owner")()

	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		if isS3NotFound(err) {
			return "", ErrRecordNotFound
		}
		return "", fmt.Errorf("could not read file metadata: %w", err)
	}

	return out.Metadata[ownerMetaKey], nil
}

// Delete succeeds for missing keys, as S3 does.
func (s *S3FileStore) Delete(ctx context.Context, id string) error {
	defer common.TrackCall("s3", "delete_file")()

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		return fmt.Errorf("could not delete file: %w", err)
	}

	return nil
}

// PreviewURL presigns a GET request valid for one hour.
func (s *S3FileStore) PreviewURL(id string) (string, error) {
	req, err := s.presign.PresignGetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
	}, s3.WithPresignExpires(previewExpiry))
	if err != nil {
		return "", fmt.Errorf("could not presign preview URL: %w", err)
	}

	return req.URL, nil
}

func isS3NotFound(err error) bool {
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}

	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return true
	}

	var status interface{ HTTPStatusCode() int }
	return errors.As(err, &status) && status.HTTPStatusCode() == http.StatusNotFound
}
