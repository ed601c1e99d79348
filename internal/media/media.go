// Package media stores avatar images on the local filesystem.
package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const allowedImageExts = ".jpg,.jpeg,.png,.gif,.webp"

// MaxAvatarSize caps decoded avatar payloads at 2MB.
const MaxAvatarSize = 2 * 1024 * 1024

// FileStore writes avatars under dir/avatars with generated names and
// returns the public URL path of the stored file.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (f *FileStore) SaveAvatar(filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty avatar payload")
	}
	if len(data) > MaxAvatarSize {
		return "", fmt.Errorf("avatar exceeds %d bytes", MaxAvatarSize)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" || !strings.Contains(allowedImageExts, ext) {
		return "", fmt.Errorf("image extension %q not allowed", ext)
	}

	dir := filepath.Join(f.dir, "avatars")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create avatar directory: %w", err)
	}

	name := uuid.New().String() + ext
	if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
		return "", fmt.Errorf("write avatar: %w", err)
	}

	return "/uploads/avatars/" + name, nil
}
