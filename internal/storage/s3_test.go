package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestUpload_PlaceholderOnlyMode(t *testing.T) {
	uploader := NewS3Uploader(nil, "listings", "ap-south-1", "", true, zap.NewNop())

	result := uploader.Upload(context.Background(), []byte("data"), "123_abc.jpg", "image/jpeg")

	assert.Equal(t, placeholderImageURL, result.URL)
	assert.Equal(t, "dev/123_abc.jpg", result.Key)
	assert.Equal(t, "listings", result.Bucket)
}

func TestUpload_NilClientFallsBackToPlaceholder(t *testing.T) {
	uploader := NewS3Uploader(nil, "listings", "ap-south-1", "", false, zap.NewNop())

	result := uploader.Upload(context.Background(), []byte("data"), "123_abc.jpg", "image/jpeg")

	assert.Equal(t, placeholderImageURL, result.URL)
}

func TestPublicURL(t *testing.T) {
	withBase := NewS3Uploader(nil, "listings", "ap-south-1", "https://cdn.example.com", false, zap.NewNop())
	assert.Equal(t, "https://cdn.example.com/uploads/2026/1/a.jpg",
		withBase.publicURL("uploads/2026/1/a.jpg"))

	withoutBase := NewS3Uploader(nil, "listings", "ap-south-1", "", false, zap.NewNop())
	assert.Equal(t, "https://listings.s3.ap-south-1.amazonaws.com/uploads/2026/1/a.jpg",
		withoutBase.publicURL("uploads/2026/1/a.jpg"))
}
