package resource

// Resource is loaded data handed back by the platform.
type Resource interface {
	TypeID() TypeID
}

// Bitmap is a decoded image with CPU-side pixel access.
type Bitmap struct {
	Width       uint32
	Height      uint32
	PixelFormat PixelFormat
	Pixels      []byte
}

func (*Bitmap) TypeID() TypeID { return TypeBitmap }

// NewBitmap allocates a zeroed bitmap.
func NewBitmap(w, h uint32, pf PixelFormat) *Bitmap {
	return &Bitmap{
		Width:       w,
		Height:      h,
		PixelFormat: pf,
		Pixels:      make([]byte, int(w)*int(h)*pf.BytesPerPixel()),
	}
}

// Attributes describes the bitmap as actually loaded.
func (b *Bitmap) Attributes() ImageAttributes {
	return ImageAttributes{Width: b.Width, Height: b.Height, PixelFormat: b.PixelFormat}
}

// ShaderData is a shader program's sources plus an optional
// backend-specific binary.
type ShaderData struct {
	Hash           uint64
	VertexSource   string
	FragmentSource string
	Binary         []byte
}

func (*ShaderData) TypeID() TypeID { return TypeShader }

// Blob is opaque data for mesh, model and text resources.
type Blob struct {
	Type TypeID
	Data []byte
}

func (b *Blob) TypeID() TypeID { return b.Type }

// LoadStatus of a LoadResponse.
type LoadStatus int

const (
	LoadPartial LoadStatus = iota
	LoadComplete
)

// Request is what the core hands to the platform.
type Request struct {
	ID       ID
	TypePath TypePath
	Priority Priority
	// Resource carries the data to save for SaveResource.
	Resource Resource
}

// Platform is the external loader. LoadResource and SaveResource must not
// block; results are handed back through GetResources, which the update
// goroutine calls once per frame.
type Platform interface {
	// GetClosestImageSize answers from image metadata which size a bitmap
	// request would produce.
	GetClosestImageSize(path string, attrs ImageAttributes) Size
	LoadResource(req Request)
	SaveResource(req Request)
	CancelLoad(id ID, t TypeID)
	GetResources(c Cache)
}

// Cache receives platform results. Results for discarded ids are dropped.
type Cache interface {
	LoadResponse(id ID, t TypeID, r Resource, status LoadStatus)
	LoadFailed(id ID, f Failure)
	SaveComplete(id ID, t TypeID)
	SaveFailed(id ID, f Failure)
}
