// Package imagestore uploads user images to Cloudinary and removes them again.
package imagestore

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	log "github.com/sirupsen/logrus"

	"social-service/config"
)

const (
	FolderPostImages    = "X-Post-Images"
	FolderProfileImages = "X-Profile_Images"
	FolderCoverImages   = "X-Cover_Images"

	uploadTransformation = "c_scale,w_500/q_auto"
)

var ErrNotConfigured = errors.New("image store is not configured")

// Store is the external image host. Upload takes an inline payload (data URI
// or remote URL) and returns the durable URL.
type Store interface {
	Upload(ctx context.Context, file, folder string) (string, error)
	Delete(ctx context.Context, imageURL, folder string) error
}

type CloudinaryStore struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryStore(cfg config.CloudinaryConfig) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloudinary client: %w", err)
	}
	return &CloudinaryStore{cld: cld}, nil
}

func (s *CloudinaryStore) Upload(ctx context.Context, file, folder string) (string, error) {
	resp, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:         folder,
		Transformation: uploadTransformation,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("failed to upload image: %s", resp.Error.Message)
	}

	return resp.SecureURL, nil
}

func (s *CloudinaryStore) Delete(ctx context.Context, imageURL, folder string) error {
	publicID := PublicID(imageURL, folder)

	resp, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("failed to delete image %s: %w", publicID, err)
	}
	if resp.Error.Message != "" {
		return fmt.Errorf("failed to delete image %s: %s", publicID, resp.Error.Message)
	}
	if resp.Result != "ok" {
		return fmt.Errorf("failed to delete image %s: %s", publicID, resp.Result)
	}

	log.Infof("Deleted image %s", publicID)
	return nil
}

// PublicID derives the Cloudinary public ID from a delivery URL: the folder
// followed by the file name without its extension.
func PublicID(imageURL, folder string) string {
	name := path.Base(imageURL)
	if i := strings.Index(name, "?"); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimSuffix(name, path.Ext(name))
	if folder == "" {
		return name
	}
	return folder + "/" + name
}

type disabledStore struct{}

// NewDisabledStore is used when no Cloudinary credentials are configured:
// every call fails with ErrNotConfigured.
func NewDisabledStore() Store {
	return disabledStore{}
}

func (disabledStore) Upload(ctx context.Context, file, folder string) (string, error) {
	return "", ErrNotConfigured
}

func (disabledStore) Delete(ctx context.Context, imageURL, folder string) error {
	return ErrNotConfigured
}
