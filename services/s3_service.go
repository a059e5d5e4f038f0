package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	appConfig "github.com/greenleaf-nursery/nursery-api/config"
	"github.com/greenleaf-nursery/nursery-api/utils"
)

// S3Interface is the object storage behind plant images. Keys are returned
// by UploadFile and stored on the plant row.
type S3Interface interface {
	UploadFile(ctx context.Context, fileHeader *multipart.FileHeader, prefix string) (string, error)
	GetPresignedURL(ctx context.Context, s3Key string) (string, error)
	DeleteFile(ctx context.Context, s3Key string) error
}

// S3Service stores plant images in a private bucket.
type S3Service struct {
	client *s3.Client
	bucket string
	now    func() time.Time
}

// imageURLTTL bounds how long a presigned plant image URL stays valid.
const imageURLTTL = time.Hour

var s3ServiceInstance S3Interface

// InitS3Service builds the bucket client from cfg and registers it.
func InitS3Service(ctx context.Context, cfg *appConfig.Config) (S3Interface, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.AWSRegion)}
	// Without static keys the default credential chain applies.
	if cfg.AWSAccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		)))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3ServiceInstance = &S3Service{
		client: s3.NewFromConfig(awsConfig),
		bucket: cfg.AWSS3Bucket,
		now:    time.Now,
	}

	return s3ServiceInstance, nil
}

func GetS3Service() S3Interface {
	return s3ServiceInstance
}

func SetS3Service(service S3Interface) {
	s3ServiceInstance = service
}

// ObjectKey builds the bucket key for an upload: {prefix}/{unix}_{basename}.
func ObjectKey(prefix, filename string, at time.Time) string {
	return fmt.Sprintf("%s/%d_%s", strings.Trim(prefix, "/"), at.Unix(), filepath.Base(filename))
}

// UploadFile stores the upload under prefix and returns its key.
func (s *S3Service) UploadFile(ctx context.Context, fileHeader *multipart.FileHeader, prefix string) (string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			log.Printf("warning: failed to close file: %v", closeErr)
		}
	}()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	s3Key := ObjectKey(prefix, fileHeader.Filename, s.now())

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s3Key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(utils.ContentTypeFor(fileHeader.Filename)),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", s3Key, err)
	}

	return s3Key, nil
}

// GetPresignedURL returns a time-limited GET URL for s3Key, or "" when the
// plant has no image.
func (s *S3Service) GetPresignedURL(ctx context.Context, s3Key string) (string, error) {
	if s3Key == "" {
		return "", nil
	}

	presignClient := s3.NewPresignClient(s.client)
	request, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s3Key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = imageURLTTL
	})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", s3Key, err)
	}

	return request.URL, nil
}

func (s *S3Service) DeleteFile(ctx context.Context, s3Key string) error {
	if s3Key == "" {
		return nil
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s3Key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", s3Key, err)
	}

	return nil
}
