package cfddns

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"
)

// DefaultCacheFile is the file name used by FileCache when no path is configured.
const DefaultCacheFile = "ipFile"

// FileCache stores the last published IP as the entire plain-text content of a single file.
type FileCache struct {
	Path string
}

func (c *FileCache) path() string {
	if c.Path == "" {
		return DefaultCacheFile
	}
	return c.Path
}

// Read implements cfddns.Cache. A missing file means nothing was cached yet.
func (c *FileCache) Read(context.Context) (string, bool, error) {
	b, err := os.ReadFile(c.path())
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &PersistenceError{Op: "read", Location: c.path(), Err: err}
	}
	return strings.TrimSpace(string(b)), true, nil
}

// Write implements cfddns.Cache, replacing any previous content.
func (c *FileCache) Write(_ context.Context, ip string) error {
	if err := os.WriteFile(c.path(), []byte(ip), 0644); err != nil {
		return &PersistenceError{Op: "write", Location: c.path(), Err: err}
	}
	return nil
}

// Delete implements cfddns.Cache. Deleting a file that does not exist is not an error.
func (c *FileCache) Delete(context.Context) error {
	err := os.Remove(c.path())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &PersistenceError{Op: "delete", Location: c.path(), Err: err}
	}
	return nil
}

// HasChanged compares ip with the cached value.
//
// With nothing cached it reports changed == true and an empty previous.
// When the cache cannot be read the error is returned together with changed == true,
// so callers can log it and still publish the address.
func HasChanged(ctx context.Context, cache Cache, ip string) (changed bool, previous string, err error) {
	prev, ok, err := cache.Read(ctx)
	if err != nil {
		return true, "", err
	}
	if !ok {
		return true, "", nil
	}
	prev = strings.TrimSpace(prev)
	return prev != strings.TrimSpace(ip), prev, nil
}
