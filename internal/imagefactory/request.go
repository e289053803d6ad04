package imagefactory

import (
	"path"
	"strings"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/text/unicode/norm"

	"github.com/vellum/scenecore/internal/resource"
)

// pathHash identifies a normalized path.
type pathHash [blake2b.Size256]byte

// fingerprint identifies one (path, attributes) request.
type fingerprint struct {
	path  pathHash
	attrs resource.ImageAttributes
}

// hashPath folds paths that name the same file to the same hash: unicode
// normalization form C, forward slashes, lexical cleaning.
func hashPath(p string) pathHash {
	p = norm.NFC.String(strings.ReplaceAll(p, `\`, "/"))
	if p != "" {
		p = path.Clean(p)
	}
	return blake2b.Sum256([]byte(p))
}

// Request is one registered (path, attributes) pair. Equal registrations
// share a Request. A request knows the resource it last resolved to but
// does not keep that resource alive.
type Request struct {
	key        fingerprint
	path       string
	attrs      resource.ImageAttributes
	resourceID resource.ID
	refs       int
}

func (r *Request) Path() string                         { return r.path }
func (r *Request) Attributes() resource.ImageAttributes { return r.attrs }

// ResourceID is the id the request last resolved to, zero if never loaded.
func (r *Request) ResourceID() resource.ID { return r.resourceID }

// References counts RegisterRequest calls not yet matched by a release.
func (r *Request) References() int { return r.refs }
