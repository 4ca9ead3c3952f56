// Command flif16dec decodes a FLIF16 file and writes each frame out as a PNG,
// reading the whole input into memory the way examples/export_png does for
// DICOM pixel data.
package main

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	flif16 "github.com/cocosip/flif16"
	"github.com/cocosip/flif16/container"
	"github.com/cocosip/flif16/pack"
	"github.com/cocosip/flif16/rac"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <file.flif>\n", filepath.Base(os.Args[0]))
		os.Exit(2)
	}
	inputPath := os.Args[1]

	data, err := os.ReadFile(inputPath)
	if err != nil {
		log.Fatalf("read %s: %v", inputPath, err)
	}

	d, err := flif16.NewDecoder(flif16.Options{})
	if err != nil {
		log.Fatalf("new decoder: %v", err)
	}
	d.Feed(data)

	outDir := strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + "_frames"
	if err := os.MkdirAll(outDir, 0755); err != nil {
		log.Fatalf("mkdir %s: %v", outDir, err)
	}

	n := 0
	for {
		ev, err := d.Step()
		switch {
		case err == nil:
			if ev.Kind != flif16.Yield {
				continue
			}
			path := filepath.Join(outDir, fmt.Sprintf("frame_%04d.png", ev.Frame.Index))
			if err := writePNG(path, ev.Frame); err != nil {
				log.Fatalf("write %s: %v", path, err)
			}
			fmt.Printf("wrote %s (%dx%d, %s, delay %dms)\n", path, ev.Frame.Width, ev.Frame.Height, ev.Frame.Format, ev.Frame.DelayMS)
			n++
		case errors.Is(err, io.EOF):
			fmt.Printf("done: %d frame(s)\n", n)
			return
		case errors.Is(err, rac.ErrNeedMoreInput), errors.Is(err, container.ErrNeedMoreInput):
			log.Fatalf("decode %s: %v (input ended before the stream did)", inputPath, err)
		default:
			log.Fatalf("decode %s: %v", inputPath, err)
		}
	}
}

// writePNG converts a packed OutputFrame to an image.Image and encodes it,
// picking the narrowest standard library image type that can hold the
// packed format without loss.
func writePNG(path string, f *flif16.OutputFrame) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = out.Close()
	}()

	img := toImage(f)
	return png.Encode(out, img)
}

func toImage(f *flif16.OutputFrame) image.Image {
	rect := image.Rect(0, 0, f.Width, f.Height)
	switch f.Format {
	case pack.Gray8:
		img := image.NewGray(rect)
		copy(img.Pix, f.Pixels)
		return img
	case pack.Gray16:
		img := image.NewGray16(rect)
		copy(img.Pix, f.Pixels)
		return img
	case pack.RGB24:
		img := image.NewRGBA(rect)
		bpp := f.Format.BytesPerPixel()
		for i, j := 0, 0; i+bpp <= len(f.Pixels); i, j = i+bpp, j+4 {
			img.Pix[j] = f.Pixels[i]
			img.Pix[j+1] = f.Pixels[i+1]
			img.Pix[j+2] = f.Pixels[i+2]
			img.Pix[j+3] = 0xff
		}
		return img
	case pack.RGBA32:
		img := image.NewRGBA(rect)
		copy(img.Pix, f.Pixels)
		return img
	case pack.RGB48, pack.RGBA64:
		return toRGBA64(f, rect)
	default:
		img := image.NewGray(rect)
		copy(img.Pix, f.Pixels)
		return img
	}
}

func toRGBA64(f *flif16.OutputFrame, rect image.Rectangle) *image.RGBA64 {
	img := image.NewRGBA64(rect)
	bpp := f.Format.BytesPerPixel()
	hasAlpha := f.Format == pack.RGBA64
	for i, p := 0, 0; i+bpp <= len(f.Pixels); i += bpp {
		x := p % f.Width
		y := p / f.Width
		r := uint16(f.Pixels[i])<<8 | uint16(f.Pixels[i+1])
		g := uint16(f.Pixels[i+2])<<8 | uint16(f.Pixels[i+3])
		b := uint16(f.Pixels[i+4])<<8 | uint16(f.Pixels[i+5])
		a := uint16(0xffff)
		if hasAlpha {
			a = uint16(f.Pixels[i+6])<<8 | uint16(f.Pixels[i+7])
		}
		img.SetRGBA64(x, y, color.RGBA64{R: r, G: g, B: b, A: a})
		p++
	}
	return img
}
