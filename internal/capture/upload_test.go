package capture

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"

	apperrors "go-skin-inspector/internal/errors"
	"go-skin-inspector/internal/media"
	"go-skin-inspector/internal/observer"
	"go-skin-inspector/pkg/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 120, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type failingFile struct{ err error }

func (failingFile) Name() string { return "broken.jpg" }
func (f failingFile) Open(context.Context) (io.ReadCloser, error) {
	return nil, f.err
}

type fixedInspector struct{ hints []string }

func (fi fixedInspector) Inspect(media.EncodedImage) ([]validation.QualityIssue, error) {
	issues := make([]validation.QualityIssue, len(fi.hints))
	for i, h := range fi.hints {
		issues[i] = validation.QualityIssue{Type: h}
	}
	return issues, nil
}

func newUpload(t *testing.T, opts UploadOptions) (*UploadSession, *recorder, *[]media.EncodedImage) {
	t.Helper()
	rec := &recorder{}
	pub := observer.NewEventPublisher()
	pub.Subscribe(rec)

	var accepted []media.EncodedImage
	opts.Events = pub
	opts.OnImageCapture = func(img media.EncodedImage) { accepted = append(accepted, img) }
	return NewUploadSession(opts), rec, &accepted
}

func TestSelectFile_AcceptFlow(t *testing.T) {
	s, rec, accepted := newUpload(t, UploadOptions{})
	ctx := context.Background()

	require.NoError(t, s.SelectFile(ctx, BytesFile{Filename: "arm.png", Data: pngBytes(t, 120, 80)}))

	snap := s.Snapshot()
	assert.Equal(t, StateReviewing, snap.State)
	assert.Equal(t, KindUpload, snap.Kind)
	assert.True(t, snap.HasPending)
	assert.Equal(t, 120, snap.PendingWidth)
	assert.Equal(t, 80, snap.PendingHeight)

	img, ok := s.PendingImage()
	require.True(t, ok)
	assert.Equal(t, media.MIMETypeJPEG, img.MIMEType)

	require.NoError(t, s.Accept())
	assert.Equal(t, StateAccepted, s.Snapshot().State)
	require.Len(t, *accepted, 1)
	assert.Equal(t, img.Data, (*accepted)[0].Data)

	assert.Equal(t, []observer.EventType{observer.FileSelected, observer.ImageAccepted}, rec.types())
}

func TestSelectFile_NotAnImage(t *testing.T) {
	s, rec, _ := newUpload(t, UploadOptions{})

	err := s.SelectFile(context.Background(), BytesFile{Filename: "notes.txt", Data: []byte("hello, world")})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeDecodeFailure))

	snap := s.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.False(t, snap.HasPending)
	assert.Equal(t, []observer.EventType{observer.OperationFailed}, rec.types())
}

func TestSelectFile_PixelBudget(t *testing.T) {
	s, _, _ := newUpload(t, UploadOptions{Normalize: media.NormalizeOptions{MaxDimension: 512, MaxPixels: 1000}})

	err := s.SelectFile(context.Background(), BytesFile{Filename: "huge.png", Data: pngBytes(t, 120, 80)})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeDecodeFailure))
	assert.True(t, errors.Is(err, media.ErrTooManyPixels))
	assert.Equal(t, StateIdle, s.Snapshot().State)
}

func TestSelectFile_Retake(t *testing.T) {
	s, _, accepted := newUpload(t, UploadOptions{})
	ctx := context.Background()

	require.NoError(t, s.SelectFile(ctx, BytesFile{Filename: "a.png", Data: pngBytes(t, 40, 30)}))
	require.NoError(t, s.Retake(ctx))

	snap := s.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.False(t, snap.HasPending)
	assert.Empty(t, *accepted)

	require.NoError(t, s.SelectFile(ctx, BytesFile{Filename: "b.png", Data: pngBytes(t, 40, 30)}))
	assert.Equal(t, StateReviewing, s.Snapshot().State)
}

func TestSelectFile_RejectedWhileReviewing(t *testing.T) {
	s, _, _ := newUpload(t, UploadOptions{})
	ctx := context.Background()
	first := pngBytes(t, 40, 30)

	require.NoError(t, s.SelectFile(ctx, BytesFile{Filename: "a.png", Data: first}))
	before, _ := s.PendingImage()

	err := s.SelectFile(ctx, BytesFile{Filename: "b.png", Data: pngBytes(t, 60, 50)})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidState))

	after, _ := s.PendingImage()
	assert.Equal(t, before.Data, after.Data)
}

func TestSelectFile_Normalizes(t *testing.T) {
	s, _, _ := newUpload(t, UploadOptions{Normalize: media.NormalizeOptions{MaxDimension: 50, Quality: 80}})

	require.NoError(t, s.SelectFile(context.Background(), BytesFile{Filename: "big.png", Data: pngBytes(t, 200, 100)}))
	snap := s.Snapshot()
	assert.Equal(t, 50, snap.PendingWidth)
	assert.Equal(t, 25, snap.PendingHeight)
}

func TestSelectFile_TooLarge(t *testing.T) {
	s, _, _ := newUpload(t, UploadOptions{MaxBytes: 16})

	err := s.SelectFile(context.Background(), BytesFile{Filename: "a.png", Data: pngBytes(t, 40, 30)})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	assert.Equal(t, StateIdle, s.Snapshot().State)
}

func TestSelectFile_OpenErrors(t *testing.T) {
	s, _, _ := newUpload(t, UploadOptions{})
	ctx := context.Background()

	err := s.SelectFile(ctx, failingFile{err: errors.New("connection reset")})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternalService))

	err = s.SelectFile(ctx, failingFile{err: apperrors.NewNotFoundError("blob not found", nil)})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))

	err = s.SelectFile(ctx, nil)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	assert.Equal(t, StateIdle, s.Snapshot().State)
}

func TestSelectFile_QualityHints(t *testing.T) {
	s, _, _ := newUpload(t, UploadOptions{Options: Options{Inspector: fixedInspector{hints: []string{validation.HintBlurry}}}})
	ctx := context.Background()

	require.NoError(t, s.SelectFile(ctx, BytesFile{Filename: "a.png", Data: pngBytes(t, 40, 30)}))
	assert.Equal(t, []string{validation.HintBlurry}, s.Snapshot().QualityHints)

	require.NoError(t, s.Accept(), "hints never block accept")
	assert.Empty(t, s.Snapshot().QualityHints)
}

func TestUploadClose(t *testing.T) {
	s, _, _ := newUpload(t, UploadOptions{})
	ctx := context.Background()
	require.NoError(t, s.SelectFile(ctx, BytesFile{Filename: "a.png", Data: pngBytes(t, 40, 30)}))

	require.NoError(t, s.Close())
	_, ok := s.PendingImage()
	assert.False(t, ok)

	err := s.SelectFile(ctx, BytesFile{Filename: "b.png", Data: pngBytes(t, 40, 30)})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidState))
	assert.True(t, apperrors.IsType(s.Accept(), apperrors.ErrorTypeInvalidState))
	assert.True(t, apperrors.IsType(s.Retake(ctx), apperrors.ErrorTypeInvalidState))
}
