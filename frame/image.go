/*
DESCRIPTION
  image.go provides Image, a Frame backed by an *image.RGBA. Rotation and
  flipping are nearest neighbour affine transforms, which are exact for
  multiples of 90 degrees.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package frame

import (
	"image"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Image is a Frame backed by an *image.RGBA whose bounds start at the origin.
type Image struct {
	img *image.RGBA
}

// NewImage returns an Image holding img. If img does not start at the origin
// it is copied so that it does.
func NewImage(img *image.RGBA) *Image {
	if img != nil && img.Bounds().Min != (image.Point{}) {
		b := img.Bounds()
		dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Copy(dst, image.Point{}, img, b, draw.Src, nil)
		img = dst
	}
	return &Image{img: img}
}

// RGBA returns the underlying image.
func (f *Image) RGBA() *image.RGBA { return f.img }

// Size implements Frame.
func (f *Image) Size() image.Point {
	if f.img == nil {
		return image.Point{}
	}
	return f.img.Bounds().Size()
}

// Image implements Frame.
func (f *Image) Image() (image.Image, error) {
	if f.img == nil {
		return nil, errors.New("empty frame has no image")
	}
	return f.img, nil
}

// Empty implements Frame.
func (f *Image) Empty() bool { return f.img == nil || f.img.Bounds().Empty() }

// Rotate implements Frame.
func (f *Image) Rotate(deg int) error {
	if f.Empty() {
		return errors.New("cannot rotate empty frame")
	}
	sz := f.Size()
	w, h := float64(sz.X), float64(sz.Y)

	// The matrices map source coordinates to destination coordinates.
	var (
		dr  image.Rectangle
		s2d f64.Aff3
	)
	switch deg {
	case 90:
		dr = image.Rect(0, 0, sz.Y, sz.X)
		s2d = f64.Aff3{0, -1, h, 1, 0, 0}
	case 180:
		dr = image.Rect(0, 0, sz.X, sz.Y)
		s2d = f64.Aff3{-1, 0, w, 0, -1, h}
	case 270:
		dr = image.Rect(0, 0, sz.Y, sz.X)
		s2d = f64.Aff3{0, 1, 0, -1, 0, w}
	default:
		return errors.Errorf("invalid rotation of %d degrees", deg)
	}

	dst := image.NewRGBA(dr)
	draw.NearestNeighbor.Transform(dst, s2d, f.img, f.img.Bounds(), draw.Src, nil)
	f.img = dst
	return nil
}

// FlipHorizontal implements Frame.
func (f *Image) FlipHorizontal() error {
	if f.Empty() {
		return errors.New("cannot flip empty frame")
	}
	b := f.img.Bounds()
	dst := image.NewRGBA(b)
	draw.NearestNeighbor.Transform(dst, f64.Aff3{-1, 0, float64(b.Dx()), 0, 1, 0}, f.img, b, draw.Src, nil)
	f.img = dst
	return nil
}

// Crop implements Frame.
func (f *Image) Crop(r image.Rectangle) error {
	if f.Empty() {
		return errors.New("cannot crop empty frame")
	}
	r = r.Intersect(f.img.Bounds())
	if r.Empty() {
		return errors.Errorf("crop region %v does not intersect frame", r)
	}
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Copy(dst, image.Point{}, f.img, r, draw.Src, nil)
	f.img = dst
	return nil
}

// Close implements Frame.
func (f *Image) Close() error {
	f.img = nil
	return nil
}
