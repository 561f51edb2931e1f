package imagestore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublicID(t *testing.T) {
	cases := []struct {
		url, folder, want string
	}{
		{"https://res.cloudinary.com/demo/image/upload/v1712/X-Post-Images/abc123.jpg", FolderPostImages, "X-Post-Images/abc123"},
		{"https://res.cloudinary.com/demo/image/upload/v1712/X-Profile_Images/me.png?x=1", FolderProfileImages, "X-Profile_Images/me"},
		{"https://res.cloudinary.com/demo/image/upload/plain.webp", "", "plain"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, PublicID(tc.url, tc.folder))
	}
}

func TestDisabledStore(t *testing.T) {
	store := NewDisabledStore()

	_, err := store.Upload(context.Background(), "data:image/png;base64,AAAA", FolderPostImages)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, store.Delete(context.Background(), "https://x/y.png", FolderPostImages), ErrNotConfigured)
}
