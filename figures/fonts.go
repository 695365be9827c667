package figures

import (
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

var (
	regularOnce sync.Once
	regularFont *opentype.Font
	regularErr  error
)

// newFace creates a face of the embedded regular font at a pixel size.
func newFace(size float64) (font.Face, error) {
	regularOnce.Do(func() {
		regularFont, regularErr = opentype.Parse(goregular.TTF)
	})
	if regularErr != nil {
		return nil, errors.Wrap(regularErr, "parse font")
	}
	face, err := opentype.NewFace(regularFont, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create font face")
	}
	return face, nil
}

// faceCache keeps one face per integer pixel size.
type faceCache struct {
	faces map[int]font.Face
}

func newFaceCache() *faceCache {
	return &faceCache{faces: map[int]font.Face{}}
}

func (f *faceCache) Face(size int) (font.Face, error) {
	if face, ok := f.faces[size]; ok {
		return face, nil
	}
	face, err := newFace(float64(size))
	if err != nil {
		return nil, err
	}
	f.faces[size] = face
	return face, nil
}
