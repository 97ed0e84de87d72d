package clients

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/logging"
)

// ErrMediaNotConfigured is returned by NewCloudinaryMediaClient when
// credentials are missing.
var ErrMediaNotConfigured = errors.New("media host is not configured")

// MediaUploader stores an image with the media host and returns its URL.
type MediaUploader interface {
	Upload(ctx context.Context, file io.Reader, filename string) (string, error)
}

// Ensure CloudinaryMediaClient implements MediaUploader
var _ MediaUploader = (*CloudinaryMediaClient)(nil)

// CloudinaryMediaClient implements MediaUploader using Cloudinary.
type CloudinaryMediaClient struct {
	cld    *cloudinary.Cloudinary
	folder string
	logger *logging.Logger
}

// NewCloudinaryMediaClient creates a client from the media configuration.
func NewCloudinaryMediaClient(cfg config.MediaConfig, logger *logging.Logger) (*CloudinaryMediaClient, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, ErrMediaNotConfigured
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true

	return &CloudinaryMediaClient{
		cld:    cld,
		folder: cfg.Folder,
		logger: logger.Component("media-client"),
	}, nil
}

// Upload sends file to Cloudinary under a fresh public id and returns the
// secure URL. The original filename only contributes its base name.
func (c *CloudinaryMediaClient) Upload(ctx context.Context, file io.Reader, filename string) (string, error) {
	publicID := uuid.NewString()
	if base := strings.TrimSuffix(path.Base(filename), path.Ext(filename)); base != "" && base != "." && base != "/" {
		publicID = publicID + "-" + sanitizeName(base)
	}

	c.logger.Debug("Uploading image", logging.Fields{"public_id": publicID, "folder": c.folder})

	resp, err := c.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:   c.folder,
		PublicID: publicID,
	})
	if err != nil {
		c.logger.Error("Failed to upload image", logging.Fields{"public_id": publicID, "error": err.Error()})
		return "", err
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("media host rejected upload: %s", resp.Error.Message)
	}

	c.logger.Info("Image uploaded", logging.Fields{"public_id": resp.PublicID})
	return resp.SecureURL, nil
}

func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	out := b.String()
	if len(out) > 40 {
		out = out[:40]
	}
	return out
}
