package loader

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/draw"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	// formats decoded by the loader
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/h2non/filetype"
	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/vellum/scenecore/internal/persist"
	"github.com/vellum/scenecore/internal/resource"
)

// headerSize is enough for filetype to recognize every image format.
const headerSize = 261

var errNotImage = errors.New("not an image")

// GetClosestImageSize reads image metadata only. Unreadable images answer
// with the requested size.
func (p *Platform) GetClosestImageSize(path string, attrs resource.ImageAttributes) resource.Size {
	natural, err := p.naturalSize(path)
	if err != nil {
		p.log.Debug("image size unknown", zap.String("path", path), zap.Error(err))
		return attrs.Size()
	}
	return resource.ClosestSize(natural, attrs)
}

func (p *Platform) naturalSize(path string) (resource.Size, error) {
	data, err := p.open(context.Background(), path)
	if err != nil {
		return resource.Size{}, err
	}
	defer data.Close()
	cfg, _, err := image.DecodeConfig(data)
	if err != nil {
		return resource.Size{}, err
	}
	return resource.Size{Width: uint32(cfg.Width), Height: uint32(cfg.Height)}, nil
}

// open returns the bytes behind path from the store or the filesystem.
func (p *Platform) open(ctx context.Context, path string) (io.ReadCloser, error) {
	if key, ok := persist.TrimPrefix(path); ok {
		if p.store == nil {
			return nil, fs.ErrNotExist
		}
		row, err := p.store.Load(ctx, key)
		if err != nil {
			return nil, err
		}
		if row == nil {
			return nil, fs.ErrNotExist
		}
		return io.NopCloser(bytes.NewReader(row.Data)), nil
	}
	return os.Open(p.resolve(path))
}

func (p *Platform) resolve(path string) string {
	if filepath.IsAbs(path) || p.root == "" {
		return filepath.FromSlash(path)
	}
	return filepath.Join(p.root, filepath.FromSlash(path))
}

func (p *Platform) load(ctx context.Context, req resource.Request) result {
	r := result{kind: jobLoad, id: req.ID}
	typ := req.TypePath.Type
	if typ == nil {
		r.failed, r.failure = true, resource.FailureInvalidPath
		return r
	}
	r.typ = typ.ID()

	var (
		res resource.Resource
		err error
	)
	switch t := typ.(type) {
	case resource.BitmapType:
		res, err = p.loadBitmap(ctx, req.TypePath.Path, t.Attributes)
	case resource.ShaderType:
		res, err = p.loadShader(ctx, req.TypePath.Path, t)
	default:
		res, err = p.loadBlob(ctx, req.TypePath.Path, t.ID())
	}
	if err != nil {
		r.failed, r.failure = true, failureOf(err)
		p.log.Debug("resource load failed",
			zap.Uint64("id", uint64(req.ID)),
			zap.String("path", req.TypePath.Path),
			zap.Error(err))
		return r
	}
	r.res = res
	return r
}

func failureOf(err error) resource.Failure {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return resource.FailureFileNotFound
	case errors.Is(err, errNotImage), errors.Is(err, image.ErrFormat):
		return resource.FailureInvalidPath
	}
	return resource.FailureUnknown
}

func (p *Platform) loadBitmap(ctx context.Context, path string, attrs resource.ImageAttributes) (*resource.Bitmap, error) {
	rc, err := p.open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	if !filetype.IsImage(data[:min(len(data), headerSize)]) {
		return nil, errNotImage
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	b := src.Bounds()
	size := resource.ClosestSize(resource.Size{Width: uint32(b.Dx()), Height: uint32(b.Dy())}, attrs)
	dst := image.NewNRGBA(image.Rect(0, 0, int(size.Width), int(size.Height)))
	if size.Width == uint32(b.Dx()) && size.Height == uint32(b.Dy()) {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	} else {
		xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	}
	return toBitmap(dst, attrs.PixelFormat), nil
}

// toBitmap converts non-premultiplied RGBA pixels to pf.
func toBitmap(img *image.NRGBA, pf resource.PixelFormat) *resource.Bitmap {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	bm := resource.NewBitmap(uint32(w), uint32(h), pf)
	bpp := pf.BytesPerPixel()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			s := img.PixOffset(x, y)
			d := (y*w + x) * bpp
			px := img.Pix[s : s+4]
			switch pf {
			case resource.RGBA8888:
				copy(bm.Pixels[d:d+4], px)
			case resource.RGB888:
				copy(bm.Pixels[d:d+3], px[:3])
			case resource.L8:
				bm.Pixels[d] = uint8((299*uint32(px[0]) + 587*uint32(px[1]) + 114*uint32(px[2])) / 1000)
			case resource.A8:
				bm.Pixels[d] = px[3]
			}
		}
	}
	return bm
}

// loadShader attaches the precompiled binary at path, if any, to the
// program sources carried by the type.
func (p *Platform) loadShader(ctx context.Context, path string, t resource.ShaderType) (*resource.ShaderData, error) {
	sd := &resource.ShaderData{Hash: t.Hash, VertexSource: t.VertexSource, FragmentSource: t.FragmentSource}
	if path == "" {
		return sd, nil
	}
	rc, err := p.open(ctx, path)
	if errors.Is(err, fs.ErrNotExist) && (t.VertexSource != "" || t.FragmentSource != "") {
		return sd, nil // no binary yet; sources are enough
	}
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	if sd.Binary, err = io.ReadAll(rc); err != nil {
		return nil, err
	}
	return sd, nil
}

func (p *Platform) loadBlob(ctx context.Context, path string, t resource.TypeID) (*resource.Blob, error) {
	rc, err := p.open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	return &resource.Blob{Type: t, Data: data}, nil
}
