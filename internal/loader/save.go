package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/vellum/scenecore/internal/persist"
	"github.com/vellum/scenecore/internal/resource"
)

var errNothingToSave = errors.New("no resource data")

func (p *Platform) save(ctx context.Context, req resource.Request) result {
	r := result{kind: jobSave, id: req.ID}
	if req.TypePath.Type != nil {
		r.typ = req.TypePath.Type.ID()
	}
	if err := p.write(ctx, req); err != nil {
		r.failed, r.failure = true, failureOf(err)
		p.log.Warn("resource save failed",
			zap.Uint64("id", uint64(req.ID)),
			zap.String("path", req.TypePath.Path),
			zap.Error(err))
	}
	return r
}

func (p *Platform) write(ctx context.Context, req resource.Request) error {
	row, err := encode(req.Resource)
	if err != nil {
		return err
	}
	if key, ok := persist.TrimPrefix(req.TypePath.Path); ok {
		if p.store == nil {
			return fmt.Errorf("save %s: no store configured", req.TypePath.Path)
		}
		row.Path = key
		return p.store.Save(ctx, row)
	}
	return writeFile(p.resolve(req.TypePath.Path), row.Data)
}

// encode turns a resource into a storable row. Bitmaps are stored as PNG
// so that they load back through the same decode path.
func encode(res resource.Resource) (*persist.ResourceRow, error) {
	switch v := res.(type) {
	case *resource.Bitmap:
		need := int(v.Width) * int(v.Height) * v.PixelFormat.BytesPerPixel()
		if len(v.Pixels) < need {
			return nil, fmt.Errorf("bitmap %dx%d %s: %d pixel bytes, need %d",
				v.Width, v.Height, v.PixelFormat, len(v.Pixels), need)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, toImage(v)); err != nil {
			return nil, fmt.Errorf("encode bitmap: %w", err)
		}
		return &persist.ResourceRow{
			TypeID:      int16(resource.TypeBitmap),
			Width:       int32(v.Width),
			Height:      int32(v.Height),
			PixelFormat: int16(v.PixelFormat),
			Data:        buf.Bytes(),
		}, nil
	case *resource.ShaderData:
		return &persist.ResourceRow{TypeID: int16(resource.TypeShader), Data: v.Binary}, nil
	case *resource.Blob:
		return &persist.ResourceRow{TypeID: int16(v.Type), Data: v.Data}, nil
	}
	return nil, errNothingToSave
}

func toImage(b *resource.Bitmap) image.Image {
	w, h := int(b.Width), int(b.Height)
	rect := image.Rect(0, 0, w, h)
	switch b.PixelFormat {
	case resource.L8:
		return &image.Gray{Pix: b.Pixels, Stride: w, Rect: rect}
	case resource.A8:
		return &image.Alpha{Pix: b.Pixels, Stride: w, Rect: rect}
	case resource.RGB888:
		img := image.NewRGBA(rect)
		for i := 0; i < w*h; i++ {
			copy(img.Pix[i*4:i*4+3], b.Pixels[i*3:i*3+3])
			img.Pix[i*4+3] = 0xff
		}
		return img
	}
	return &image.NRGBA{Pix: b.Pixels, Stride: w * 4, Rect: rect}
}

// writeFile replaces path through a temporary file in the same directory.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".save-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
