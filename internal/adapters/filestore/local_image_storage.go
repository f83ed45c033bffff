package filestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io/fs"
	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
	"os"
	"path"
	"path/filepath"

	_ "image/gif"
	_ "image/png"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

const (
	DefaultThumbnailWidth = 320
	// DefaultMaxPixels - 40 Мп, например 8000x5000
	DefaultMaxPixels = 40_000_000
	thumbnailQuality = 85
)

var extensionsByFormat = map[string]string{
	"jpeg": ".jpg",
	"png":  ".png",
	"gif":  ".gif",
}

// LocalImageStorage хранит изображения на диске: properties/{id}/{uuid}.{ext}
// и превью properties/{id}/thumbs/{uuid}.jpg. Пути в StoredImage относительные.
type LocalImageStorage struct {
	root           string
	thumbnailWidth int
	maxPixels      int
}

var _ port.ImageStoragePort = (*LocalImageStorage)(nil)

// NewLocalImageStorage: maxPixels ограничивает width*height до декодирования
func NewLocalImageStorage(root string, thumbnailWidth, maxPixels int) (*LocalImageStorage, error) {
	if root == "" {
		return nil, fmt.Errorf("image storage root directory is required")
	}
	if thumbnailWidth <= 0 {
		thumbnailWidth = DefaultThumbnailWidth
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image storage root: %w", err)
	}
	return &LocalImageStorage{root: root, thumbnailWidth: thumbnailWidth, maxPixels: maxPixels}, nil
}

func (s *LocalImageStorage) Store(ctx context.Context, propertyID int64, raw domain.RawImage) (domain.StoredImage, error) {
	if err := ctx.Err(); err != nil {
		return domain.StoredImage{}, err
	}
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component":   "LocalImageStorage",
		"property_id": propertyID,
		"filename":    raw.Filename,
	})

	if len(raw.Data) == 0 {
		return domain.StoredImage{}, domain.NewValidationError("images", "empty image payload")
	}

	// Заголовок читается до полного декодирования
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw.Data))
	if err != nil {
		return domain.StoredImage{}, domain.NewValidationError("images", fmt.Sprintf("unsupported or corrupted image %q", raw.Filename))
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > int64(s.maxPixels) {
		logger.Warn("Image dimensions rejected", port.Fields{"width": cfg.Width, "height": cfg.Height, "max_pixels": s.maxPixels})
		return domain.StoredImage{}, domain.NewValidationError("images",
			fmt.Sprintf("image %q is %dx%d, limit is %d pixels", raw.Filename, cfg.Width, cfg.Height, s.maxPixels))
	}

	img, format, err := image.Decode(bytes.NewReader(raw.Data))
	if err != nil {
		return domain.StoredImage{}, domain.NewValidationError("images", fmt.Sprintf("unsupported or corrupted image %q", raw.Filename))
	}
	ext, ok := extensionsByFormat[format]
	if !ok {
		return domain.StoredImage{}, domain.NewValidationError("images", fmt.Sprintf("unsupported image format %q", format))
	}

	name := uuid.NewString()
	dir := path.Join("properties", fmt.Sprint(propertyID))
	stored := domain.StoredImage{
		Path:          path.Join(dir, name+ext),
		ThumbnailPath: path.Join(dir, "thumbs", name+".jpg"),
	}

	if err := s.write(stored.Path, raw.Data); err != nil {
		return domain.StoredImage{}, err
	}

	thumb, err := encodeThumbnail(img, s.thumbnailWidth)
	if err == nil {
		err = s.write(stored.ThumbnailPath, thumb)
	}
	if err != nil {
		// Оригинал без превью не нужен
		_ = s.remove(stored.Path)
		return domain.StoredImage{}, fmt.Errorf("failed to store thumbnail: %w", err)
	}

	logger.Debug("Image stored", port.Fields{"path": stored.Path})
	return stored, nil
}

// Delete идемпотентен: отсутствующие файлы не считаются ошибкой
func (s *LocalImageStorage) Delete(ctx context.Context, stored domain.StoredImage) error {
	var errs []error
	for _, rel := range []string{stored.Path, stored.ThumbnailPath} {
		if rel == "" {
			continue
		}
		if err := s.remove(rel); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// AbsPath переводит относительный путь хранилища в путь на диске
func (s *LocalImageStorage) AbsPath(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

func (s *LocalImageStorage) write(rel string, data []byte) error {
	full := s.AbsPath(rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("failed to create image directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("failed to write image %s: %w", rel, err)
	}
	return nil
}

func (s *LocalImageStorage) remove(rel string) error {
	if err := os.Remove(s.AbsPath(rel)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove image %s: %w", rel, err)
	}
	return nil
}

// encodeThumbnail уменьшает изображение до ширины width с сохранением пропорций.
// Узкие изображения не увеличиваются.
func encodeThumbnail(src image.Image, width int) ([]byte, error) {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("image has zero size")
	}
	if w > width {
		h = h * width / w
		if h == 0 {
			h = 1
		}
		w = width
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
