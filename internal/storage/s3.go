// Package storage uploads listing media to durable object storage.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// Placeholder URLs returned when no real upload happens. Callers always get
// a usable URL back, so a storage outage degrades listings instead of
// failing them.
const (
	placeholderImageURL  = "https://via.placeholder.com/400x300/cccccc/666666?text=Generator+Image"
	placeholderFailedURL = "https://via.placeholder.com/400x300/cccccc/666666?text=Upload+Failed"
)

// UploadResult describes where an object ended up
type UploadResult struct {
	URL    string `json:"url"`
	Key    string `json:"key"`
	Bucket string `json:"bucket"`
}

// Uploader stores media bytes and returns a stable URL. Upload never fails:
// on any internal error it returns a placeholder result so callers do not
// branch on upload-level errors.
type Uploader interface {
	Upload(ctx context.Context, data []byte, filename, mimeType string) UploadResult
}

// S3Uploader uploads to an S3 bucket under dated key prefixes
type S3Uploader struct {
	client          *s3.Client
	bucket          string
	region          string
	publicBaseURL   string
	placeholderOnly bool
	log             *zap.Logger
}

// NewS3Uploader builds an uploader. With placeholderOnly set (development
// runs, missing credentials) no S3 call is made at all.
func NewS3Uploader(client *s3.Client, bucket, region, publicBaseURL string, placeholderOnly bool, log *zap.Logger) *S3Uploader {
	return &S3Uploader{
		client:          client,
		bucket:          bucket,
		region:          region,
		publicBaseURL:   publicBaseURL,
		placeholderOnly: placeholderOnly,
		log:             log,
	}
}

func (u *S3Uploader) Upload(ctx context.Context, data []byte, filename, mimeType string) UploadResult {
	if u.placeholderOnly || u.client == nil {
		u.log.Info("Placeholder upload (no object storage configured)",
			zap.String("filename", filename))
		return UploadResult{
			URL:    placeholderImageURL,
			Key:    "dev/" + filename,
			Bucket: u.bucket,
		}
	}

	now := time.Now().UTC()
	key := fmt.Sprintf("uploads/%d/%d/%s", now.Year(), int(now.Month()), filename)

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(mimeType),
		Metadata: map[string]string{
			"uploaded-at": now.Format(time.RFC3339),
			"service":     "genmarket",
		},
	})
	if err != nil {
		u.log.Error("S3 upload failed, returning placeholder URL",
			zap.String("filename", filename),
			zap.String("bucket", u.bucket),
			zap.Error(err))
		return UploadResult{
			URL:    placeholderFailedURL,
			Key:    "error/" + filename,
			Bucket: u.bucket,
		}
	}

	u.log.Info("File uploaded successfully",
		zap.String("key", key),
		zap.Int("size", len(data)))

	return UploadResult{
		URL:    u.publicURL(key),
		Key:    key,
		Bucket: u.bucket,
	}
}

func (u *S3Uploader) publicURL(key string) string {
	if u.publicBaseURL != "" {
		return fmt.Sprintf("%s/%s", u.publicBaseURL, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, key)
}
