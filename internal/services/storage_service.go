// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/agriconnect-backend/internal/apperr"
	"github.com/javajoker/agriconnect-backend/internal/config"
)

// StorageService keeps product images in S3 when credentials are configured
// and in the local uploads directory otherwise.
type StorageService struct {
	s3Client s3iface.S3API
	aws      config.AWSConfig
	uploads  config.UploadsConfig
}

type UploadResult struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

func NewStorageService(cfg *config.Config) (*StorageService, error) {
	svc := &StorageService{aws: cfg.AWS, uploads: cfg.Uploads}

	if cfg.AWS.AccessKeyID == "" {
		return svc, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AWS.AccessKeyID,
			cfg.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	svc.s3Client = s3.New(sess)
	return svc, nil
}

// UsesS3 reports whether uploads go to the S3 bucket.
func (s *StorageService) UsesS3() bool {
	return s.s3Client != nil
}

// UploadProductImage validates an image by its content and stores it under
// products/.
func (s *StorageService) UploadProductImage(ctx context.Context, file io.Reader, size int64) (*UploadResult, error) {
	if s.uploads.MaxSizeBytes > 0 && size > s.uploads.MaxSizeBytes {
		return nil, apperr.New(apperr.KindValidation, "file size %d bytes exceeds maximum allowed size %d bytes", size, s.uploads.MaxSizeBytes)
	}

	limit := s.uploads.MaxSizeBytes
	if limit <= 0 {
		limit = 5 * 1024 * 1024
	}
	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, apperr.Internal(err, "failed to read file")
	}
	if int64(len(data)) > limit {
		return nil, apperr.New(apperr.KindValidation, "file exceeds maximum allowed size %d bytes", limit)
	}

	contentType := http.DetectContentType(data)
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return nil, apperr.New(apperr.KindValidation, "file type %s is not allowed", contentType)
	}

	key := s.generateFileName(ext, "products")

	if s.s3Client != nil {
		return s.uploadToS3(ctx, data, key, contentType)
	}
	return s.uploadToLocal(data, key, contentType)
}

func (s *StorageService) uploadToS3(ctx context.Context, data []byte, key, contentType string) (*UploadResult, error) {
	_, err := s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.aws.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		ACL:           aws.String("public-read"),
	})
	if err != nil {
		return nil, apperr.Internal(err, "failed to upload to S3")
	}

	return &UploadResult{
		URL:      s.getS3URL(key),
		Key:      key,
		Size:     int64(len(data)),
		MimeType: contentType,
	}, nil
}

func (s *StorageService) uploadToLocal(data []byte, key, contentType string) (*UploadResult, error) {
	target := filepath.Join(s.uploads.Dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, apperr.Internal(err, "failed to create upload directory")
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return nil, apperr.Internal(err, "failed to write upload")
	}

	return &UploadResult{
		URL:      "/uploads/" + key,
		Key:      key,
		Size:     int64(len(data)),
		MimeType: contentType,
	}, nil
}

func (s *StorageService) DeleteFile(ctx context.Context, key string) error {
	if s.s3Client == nil {
		target := filepath.Join(s.uploads.Dir, filepath.FromSlash(path.Clean("/"+key)))
		if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
			return apperr.Internal(err, "failed to delete upload")
		}
		logrus.WithField("key", key).Debug("Local upload deleted")
		return nil
	}

	_, err := s.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.aws.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return apperr.Internal(err, "failed to delete file from S3")
	}

	return nil
}

func (s *StorageService) generateFileName(ext, folder string) string {
	timestamp := time.Now().Format("20060102")
	filename := fmt.Sprintf("%s_%s%s", timestamp, strings.ReplaceAll(uuid.NewString(), "-", "")[:12], ext)

	if folder != "" {
		return folder + "/" + filename
	}
	return filename
}

func (s *StorageService) getS3URL(key string) string {
	if s.aws.CloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimRight(s.aws.CloudFrontURL, "/"), key)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s",
		s.aws.S3Bucket, s.aws.Region, key)
}
