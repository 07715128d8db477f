package html

import (
	"context"
	"errors"
	"image"
	"sync"
)

// ErrImagePending is returned by ImageState.Result before the load settles.
var ErrImagePending = errors.New("image not loaded yet")

// ImageState tracks the load of one <img> element. It settles exactly once,
// with either a decoded image or an error, and closes Done when it does.
type ImageState struct {
	mu       sync.Mutex
	done     chan struct{}
	complete bool
	img      image.Image
	err      error
}

func NewImageState() *ImageState {
	return &ImageState{done: make(chan struct{})}
}

// LoadedImage returns a state that is already complete with img.
func LoadedImage(img image.Image) *ImageState {
	s := NewImageState()
	s.Resolve(img, nil)
	return s
}

// Resolve settles the state. Calls after the first are ignored.
func (s *ImageState) Resolve(img image.Image, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.complete {
		return
	}
	s.img, s.err, s.complete = img, err, true
	close(s.done)
}

// Done is closed when the load succeeded or failed.
func (s *ImageState) Done() <-chan struct{} {
	return s.done
}

// Complete reports whether the load has settled.
func (s *ImageState) Complete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.complete
}

func (s *ImageState) Result() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.complete {
		return nil, ErrImagePending
	}
	return s.img, s.err
}

// Wait blocks until the load settles or ctx ends.
func (s *ImageState) Wait(ctx context.Context) (image.Image, error) {
	select {
	case <-s.done:
		return s.Result()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// NaturalSize is the decoded image size, or 0x0 while pending or after an error.
func (s *ImageState) NaturalSize() (int, int) {
	img, err := s.Result()
	if err != nil || img == nil {
		return 0, 0
	}
	b := img.Bounds()
	return b.Dx(), b.Dy()
}

// CanvasBacking is the drawing surface behind a <canvas> element.
type CanvasBacking interface {
	Bitmap() image.Image
	ToDataURL(mime string, quality float64) (string, error)
}
