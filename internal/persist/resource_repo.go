package persist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/blake2b"
)

// PathPrefix marks resource paths served from the database.
const PathPrefix = "db:"

// ErrChecksum is returned when stored data does not match its checksum.
var ErrChecksum = errors.New("resource checksum mismatch")

// ResourceRow is one saved resource.
type ResourceRow struct {
	Path        string
	TypeID      int16
	Width       int32
	Height      int32
	PixelFormat int16
	Data        []byte
	Checksum    []byte
	UpdatedAt   time.Time
}

// Checksum is the blake2b-256 digest stored next to resource data.
func Checksum(data []byte) []byte {
	sum := blake2b.Sum256(data)
	return sum[:]
}

// TrimPrefix strips PathPrefix. ok is false for paths that do not carry it.
func TrimPrefix(path string) (key string, ok bool) {
	if !strings.HasPrefix(path, PathPrefix) {
		return path, false
	}
	return strings.TrimPrefix(path, PathPrefix), true
}

type ResourceRepo struct {
	db *DB
}

func NewResourceRepo(db *DB) *ResourceRepo {
	return &ResourceRepo{db: db}
}

// Load returns the row saved under path, nil if there is none.
func (r *ResourceRepo) Load(ctx context.Context, path string) (*ResourceRow, error) {
	row := &ResourceRow{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT path, type_id, width, height, pixel_format, data, checksum, updated_at
		 FROM resources WHERE path = $1`, path,
	).Scan(
		&row.Path, &row.TypeID, &row.Width, &row.Height, &row.PixelFormat,
		&row.Data, &row.Checksum, &row.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load resource %s: %w", path, err)
	}
	if !bytes.Equal(row.Checksum, Checksum(row.Data)) {
		return nil, fmt.Errorf("load resource %s: %w", path, ErrChecksum)
	}
	return row, nil
}

// Save inserts or replaces the row under row.Path.
func (r *ResourceRepo) Save(ctx context.Context, row *ResourceRow) error {
	row.Checksum = Checksum(row.Data)
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO resources (path, type_id, width, height, pixel_format, data, checksum)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (path) DO UPDATE SET
		     type_id = EXCLUDED.type_id, width = EXCLUDED.width, height = EXCLUDED.height,
		     pixel_format = EXCLUDED.pixel_format, data = EXCLUDED.data,
		     checksum = EXCLUDED.checksum, updated_at = now()`,
		row.Path, row.TypeID, row.Width, row.Height, row.PixelFormat, row.Data, row.Checksum,
	)
	if err != nil {
		return fmt.Errorf("save resource %s: %w", row.Path, err)
	}
	return nil
}

func (r *ResourceRepo) Delete(ctx context.Context, path string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM resources WHERE path = $1`, path)
	return err
}

// Paths lists saved paths starting with prefix.
func (r *ResourceRepo) Paths(ctx context.Context, prefix string) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT path FROM resources WHERE path LIKE $1 || '%' ORDER BY path`, prefix)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	paths, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	return paths, nil
}
