package device

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

// SyntheticOptions configure a SyntheticCamera.
type SyntheticOptions struct {
	// Feed, when set, is shown as the live picture, scaled to the stream size.
	Feed image.Image
	// Width and Height force a native resolution; zero honors the ideal
	// constraints, falling back to 640x480.
	Width, Height int
	// Facings lists the cameras present. Empty means both.
	Facings []Facing
}

// SyntheticCamera is a MediaDevices implementation that renders frames in
// memory. It is used when no real capture hardware is attached and in tests.
// It keeps counters of open streams so exclusivity can be observed.
type SyntheticCamera struct {
	opts SyntheticOptions

	mu      sync.Mutex
	denied  bool
	failErr error

	open         atomic.Int64
	maxOpen      atomic.Int64
	acquisitions atomic.Int64
}

// NewSyntheticCamera creates a synthetic camera
func NewSyntheticCamera(opts SyntheticOptions) *SyntheticCamera {
	return &SyntheticCamera{opts: opts}
}

// Deny makes subsequent acquisitions fail with ErrPermissionDenied.
func (c *SyntheticCamera) Deny(denied bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.denied = denied
}

// FailWith makes subsequent acquisitions fail with err (nil clears it).
func (c *SyntheticCamera) FailWith(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failErr = err
}

// OpenStreams returns the number of streams with at least one live track.
func (c *SyntheticCamera) OpenStreams() int {
	return int(c.open.Load())
}

// MaxOpenStreams returns the highest number of simultaneously open streams.
func (c *SyntheticCamera) MaxOpenStreams() int {
	return int(c.maxOpen.Load())
}

// Acquisitions returns the number of successful GetUserMedia calls.
func (c *SyntheticCamera) Acquisitions() int {
	return int(c.acquisitions.Load())
}

func (c *SyntheticCamera) hasFacing(f Facing) bool {
	if len(c.opts.Facings) == 0 {
		return true
	}
	for _, have := range c.opts.Facings {
		if have == f {
			return true
		}
	}
	return false
}

// GetUserMedia acquires a new synthetic stream.
func (c *SyntheticCamera) GetUserMedia(ctx context.Context, cons Constraints) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	denied, failErr := c.denied, c.failErr
	c.mu.Unlock()

	if denied {
		return nil, fmt.Errorf("getUserMedia: %w", ErrPermissionDenied)
	}
	if failErr != nil {
		return nil, fmt.Errorf("getUserMedia: %w", failErr)
	}
	facing := cons.Facing
	if facing == "" {
		facing = FacingRear
	}
	if !c.hasFacing(facing) {
		return nil, fmt.Errorf("getUserMedia (%s): %w", facing, ErrNotFound)
	}

	w, h := c.opts.Width, c.opts.Height
	if w <= 0 || h <= 0 {
		w, h = cons.IdealWidth, cons.IdealHeight
	}
	if w <= 0 || h <= 0 {
		w, h = 640, 480
	}

	s := &syntheticStream{
		id:       uuid.NewString(),
		settings: Settings{Facing: facing, Width: w, Height: h},
		feed:     c.opts.Feed,
		stopped:  make(chan struct{}),
		onStop: func() {
			c.open.Add(-1)
		},
	}
	s.track = &syntheticTrack{stream: s}
	s.live.Store(true)

	n := c.open.Add(1)
	for {
		cur := c.maxOpen.Load()
		if n <= cur || c.maxOpen.CompareAndSwap(cur, n) {
			break
		}
	}
	c.acquisitions.Add(1)
	return s, nil
}

type syntheticStream struct {
	id       string
	settings Settings
	feed     image.Image
	track    *syntheticTrack

	live     atomic.Bool
	stopOnce sync.Once
	stopped  chan struct{}
	onStop   func()
	frames   atomic.Int64
}

func (s *syntheticStream) ID() string         { return s.id }
func (s *syntheticStream) Settings() Settings { return s.settings }
func (s *syntheticStream) Tracks() []Track    { return []Track{s.track} }

func (s *syntheticStream) Stopped() <-chan struct{} {
	return s.stopped
}

func (s *syntheticStream) stop() {
	s.stopOnce.Do(func() {
		s.live.Store(false)
		s.onStop()
		close(s.stopped)
	})
}

// Frame renders the current picture. Each call advances a frame counter so
// consecutive frames differ slightly, as a live camera would.
func (s *syntheticStream) Frame() (image.Image, error) {
	if !s.live.Load() {
		return nil, ErrStreamStopped
	}
	n := s.frames.Add(1)
	w, h := s.settings.Width, s.settings.Height
	dst := image.NewRGBA(image.Rect(0, 0, w, h))

	if s.feed != nil {
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), s.feed, s.feed.Bounds(), draw.Src, nil)
		return dst, nil
	}
	renderTestPattern(dst, s.settings.Facing, n)
	return dst, nil
}

// renderTestPattern paints a skin-toned gradient with a darker lesion-like
// spot whose position drifts with the frame counter.
func renderTestPattern(dst *image.RGBA, facing Facing, n int64) {
	b := dst.Bounds()
	w, h := b.Dx(), b.Dy()
	base := color.RGBA{R: 224, G: 172, B: 140, A: 255}
	if facing == FacingFront {
		base = color.RGBA{R: 198, G: 144, B: 112, A: 255}
	}
	cx := w/2 + int(n%16) - 8
	cy := h / 2
	r := h / 8
	if r < 2 {
		r = 2
	}
	for y := 0; y < h; y++ {
		shade := uint8(y * 24 / h)
		for x := 0; x < w; x++ {
			c := base
			c.R -= shade
			c.G -= shade
			c.B -= shade
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r*r {
				c = color.RGBA{R: 96, G: 58, B: 44, A: 255}
			}
			dst.SetRGBA(x, y, c)
		}
	}
}

type syntheticTrack struct {
	stream *syntheticStream
}

func (t *syntheticTrack) Kind() string { return "video" }
func (t *syntheticTrack) Live() bool   { return t.stream.live.Load() }
func (t *syntheticTrack) Stop()        { t.stream.stop() }
