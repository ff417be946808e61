package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	sc "github.com/dmitrijs2005/jigsawhub/internal/server/config"
	"github.com/dmitrijs2005/jigsawhub/internal/server/models"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const presignExpiry = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// ImageService hands out presigned URLs so clients upload custom puzzle
// images straight to object storage. The returned key is what a match
// carries as its image source.
type ImageService struct {
	config *sc.Config
	now    func() time.Time
}

func NewImageService(config *sc.Config) *ImageService {
	return &ImageService{config: config, now: time.Now}
}

// StorageKey builds a unique object key under the owner's prefix.
func StorageKey(userID int64, d time.Time) string {
	return fmt.Sprintf("puzzles/%d/%d/%02d/%02d/%v", userID, d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *ImageService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

func (s *ImageService) UploadURL(ctx context.Context, userID int64) (*models.PresignedURL, error) {
	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return nil, storageError("configuring object storage", err)
	}

	bucket := s.config.S3Bucket
	now := s.now()
	key := StorageKey(userID, now)

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return nil, storageError("presigning upload", err)
	}

	return &models.PresignedURL{Key: key, URL: req.URL, Method: http.MethodPut, ExpiresAt: now.Add(presignExpiry)}, nil
}

func (s *ImageService) DownloadURL(ctx context.Context, key string) (*models.PresignedURL, error) {
	key = strings.TrimSpace(key)
	if key == "" || !strings.HasPrefix(key, "puzzles/") {
		return nil, validationError("invalid image key")
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return nil, storageError("configuring object storage", err)
	}

	bucket := s.config.S3Bucket
	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return nil, storageError("presigning download", err)
	}

	return &models.PresignedURL{Key: key, URL: req.URL, Method: http.MethodGet, ExpiresAt: s.now().Add(presignExpiry)}, nil
}
