package service

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// posterMaxDim caps the stored poster size; larger uploads are scaled
// down preserving aspect ratio.
const posterMaxDim = 1280

// ImageService stores uploaded movie posters under a configured
// directory.  Uploads are decoded, normalized to JPEG and bounded in
// size, so the catalog never serves whatever bytes the admin happened to
// send.
type ImageService struct {
	dir string
}

// NewImageService returns an ImageService writing into dir.
func NewImageService(dir string) *ImageService {
	return &ImageService{dir: dir}
}

// SavePoster reads an uploaded image, resizes it to fit posterMaxDim and
// writes it as <uuid>.jpg under the poster directory of the movie.  It
// returns the stored path relative to the image root.
func (s *ImageService) SavePoster(movieID uint64, upload io.Reader) (string, error) {
	img, err := imaging.Decode(upload, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	if b := img.Bounds(); b.Dx() > posterMaxDim || b.Dy() > posterMaxDim {
		img = imaging.Fit(img, posterMaxDim, posterMaxDim, imaging.Lanczos)
	}

	subdir := filepath.Join(s.dir, fmt.Sprintf("%d", movieID))
	if err := os.MkdirAll(subdir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir poster dir: %w", err)
	}
	name := uuid.NewString() + ".jpg"
	full := filepath.Join(subdir, name)
	if err := imaging.Save(img, full, imaging.JPEGQuality(85)); err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}
	return filepath.ToSlash(filepath.Join(fmt.Sprintf("%d", movieID), name)), nil
}
