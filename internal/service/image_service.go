package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "image/gif" // Register GIF decoder
	_ "image/png" // Register PNG decoder

	"techsparks/internal/config"
	"techsparks/internal/models"
	"techsparks/internal/observability"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultUploadsDir           = "uploads"
	DefaultImageMaxUploadSizeMB = 5
	ThumbnailMaxSize            = 400
	JPEGQuality                 = 82
	WebPQuality                 = 70
)

// StoredImage names the files written for one upload, relative to the uploads dir.
// Original is what posts reference.
type StoredImage struct {
	Original  string
	WebP      string
	Thumbnail string
}

type ImageService struct {
	dir                string
	maxUploadSizeBytes int64
	now                func() time.Time
}

func NewImageService(cfg *config.Config) *ImageService {
	dir := DefaultUploadsDir
	maxUploadSizeMB := DefaultImageMaxUploadSizeMB
	if cfg != nil {
		if cfg.UploadsDir != "" {
			dir = cfg.UploadsDir
		}
		if cfg.ImageMaxUploadSizeMB > 0 {
			maxUploadSizeMB = cfg.ImageMaxUploadSizeMB
		}
	}
	return &ImageService{
		dir:                dir,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
		now:                time.Now,
	}
}

// Dir is the directory served under /uploads.
func (s *ImageService) Dir() string {
	return s.dir
}

// MaxUploadBytes is the largest accepted upload.
func (s *ImageService) MaxUploadBytes() int64 {
	return s.maxUploadSizeBytes
}

// Save validates an uploaded image, stores it unchanged and writes a WebP
// copy and a JPEG thumbnail next to it.
func (s *ImageService) Save(ctx context.Context, originalName string, content []byte) (*StoredImage, error) {
	if len(content) == 0 {
		return nil, models.NewValidationError("Image is required!")
	}
	if int64(len(content)) > s.maxUploadSizeBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}

	detected := http.DetectContentType(content)
	ext, ok := imageExtensions[detected]
	if !ok {
		return nil, models.NewValidationError("Only image files are allowed!")
	}
	decoded, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}

	base := s.buildName(content)
	stored := &StoredImage{
		Original:  base + ext,
		WebP:      base + ".webp",
		Thumbnail: "thumb_" + base + ".jpg",
	}

	encodedWebP, err := encodeWebP(decoded, WebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	encodedThumb, err := encodeJPEG(resizeToFit(decoded, ThumbnailMaxSize, ThumbnailMaxSize), JPEGQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	written := make([]string, 0, 3)
	for _, f := range []struct {
		name string
		data []byte
	}{
		{stored.Original, content},
		{stored.WebP, encodedWebP},
		{stored.Thumbnail, encodedThumb},
	} {
		path := filepath.Join(s.dir, f.name)
		if err := writeBytesToFile(path, f.data); err != nil {
			cleanupImageFiles(written)
			return nil, models.NewInternalError(err)
		}
		written = append(written, path)
	}

	observability.Logger.InfoContext(ctx, "image stored",
		slog.String("original_name", originalName),
		slog.String("file", stored.Original),
		slog.Int("bytes", len(content)),
	)
	return stored, nil
}

// Remove deletes an upload and its derived files. Missing files are ignored.
func (s *ImageService) Remove(filename string) {
	if filename == "" || filename != filepath.Base(filename) {
		return
	}
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	cleanupImageFiles([]string{
		filepath.Join(s.dir, filename),
		filepath.Join(s.dir, base+".webp"),
		filepath.Join(s.dir, "thumb_"+base+".jpg"),
	})
}

// buildName is "<unix ms>-<content hash prefix>", unique per upload and stable
// for a given clock reading and content.
func (s *ImageService) buildName(content []byte) string {
	sum := sha256.Sum256(content)
	return fmt.Sprintf("%d-%s", s.now().UnixMilli(), hex.EncodeToString(sum[:6]))
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 || (w <= maxWidth && h <= maxHeight) {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if s := float64(maxHeight) / float64(h); s < scale {
		scale = s
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeBytesToFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func cleanupImageFiles(paths []string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}
