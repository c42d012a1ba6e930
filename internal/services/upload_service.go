package services

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"murlie/internal/domain"
	"murlie/internal/repos"
)

// Slots are the upload positions offered on the image upload form.
var Slots = []string{"IND 8", "IND 7", "IND 6", repos.SlotMain}

var imageExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

type UploadService struct {
	Images   *repos.ImageRepo
	Prods    *repos.ProductRepo
	MediaDir string
	MaxBytes int64
}

// Validate checks that data is an image no larger than MaxBytes and returns
// its sniffed content type.
func (s *UploadService) Validate(data []byte, size int64) (string, error) {
	if size > s.MaxBytes || int64(len(data)) > s.MaxBytes {
		return "", invalid("image", "Image size should be less than "+sizeLabel(s.MaxBytes))
	}
	if len(data) == 0 {
		return "", invalid("image", "Please choose an image")
	}
	ct := http.DetectContentType(data)
	if !strings.HasPrefix(ct, "image/") {
		return "", invalid("image", "Please upload only image files")
	}
	return ct, nil
}

// Preview returns a data URL that a page can show before anything is stored.
func (s *UploadService) Preview(data []byte, size int64) (string, error) {
	ct, err := s.Validate(data, size)
	if err != nil {
		return "", err
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// Store writes the image under the media dir and records it for the slot,
// replacing the slot's previous image.
func (s *UploadService) Store(ctx context.Context, productID, slot string, data []byte) (domain.ProductImage, error) {
	if !validSlot(slot) {
		return domain.ProductImage{}, invalid("slot", "Unknown image slot")
	}
	ct, err := s.Validate(data, int64(len(data)))
	if err != nil {
		return domain.ProductImage{}, err
	}
	if _, err := s.Prods.Get(ctx, productID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ProductImage{}, invalid("product", "This item is no longer available")
		}
		return domain.ProductImage{}, err
	}

	ext, ok := imageExt[ct]
	if !ok {
		ext = ".img"
	}
	name := slotKey(slot) + "-" + uuid.NewString()[:8] + ext
	dir := filepath.Join(s.MediaDir, "products", productID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return domain.ProductImage{}, errors.Wrap(err, "create media dir")
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return domain.ProductImage{}, errors.Wrap(err, "write image")
	}
	return s.Images.Put(ctx, productID, slot, path.Join("products", productID, name))
}

// Remove clears a product slot and deletes its file from the media dir.
func (s *UploadService) Remove(ctx context.Context, productID, slot string) error {
	if !validSlot(slot) {
		return invalid("slot", "Unknown image slot")
	}
	url, err := s.Images.Remove(ctx, productID, slot)
	if errors.Is(err, sql.ErrNoRows) {
		return invalid("slot", "No image in this slot")
	}
	if err != nil {
		return err
	}
	// seeded images have no file under the media dir
	if err := os.Remove(filepath.Join(s.MediaDir, filepath.FromSlash(url))); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove image file")
	}
	return nil
}

func sizeLabel(n int64) string {
	if n >= 1<<20 {
		return fmt.Sprintf("%dMB", n>>20)
	}
	return fmt.Sprintf("%dKB", n>>10)
}

func validSlot(slot string) bool {
	for _, s := range Slots {
		if s == slot {
			return true
		}
	}
	return false
}

// slotKey turns "IND 7" into "ind-7".
func slotKey(slot string) string {
	return strings.ReplaceAll(strings.ToLower(slot), " ", "-")
}
