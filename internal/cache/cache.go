// Package cache stores model responses on disk so that repeated runs with an
// identical prompt and model do not spend tokens again.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperifyio/somas/internal/llm"
)

// ResponseCache stores completed llm.Response values keyed by a digest of
// provider, model and prompt.
type ResponseCache struct {
	Dir string
	// StrictPerms, when true, enforces 0700 on the cache directory and 0600
	// on files to provide at-rest protection via restricted permissions.
	StrictPerms bool
}

// KeyFrom builds a cache key from provider, model and prompt.
func KeyFrom(provider, model, prompt string) string {
	h := sha256.Sum256([]byte(provider + "\n" + model + "\n\n" + prompt))
	return hex.EncodeToString(h[:])
}

func (c *ResponseCache) ensureDir() error {
	if c == nil || c.Dir == "" {
		return errors.New("cache dir not configured")
	}
	perm := os.FileMode(0o755)
	if c.StrictPerms {
		perm = 0o700
	}
	if err := os.MkdirAll(c.Dir, perm); err != nil {
		return err
	}
	// If the directory already existed and StrictPerms is on, tighten perms.
	if c.StrictPerms {
		if info, err := os.Stat(c.Dir); err == nil {
			if info.Mode()&0o777 != 0o700 {
				_ = os.Chmod(c.Dir, 0o700)
			}
		}
	}
	return nil
}

func (c *ResponseCache) pathFor(key string) string {
	return filepath.Join(c.Dir, key+".json")
}

// Get returns the cached response if present. A missing or unreadable entry
// is a miss, not an error; a malformed entry is removed and reported as a
// miss so the next Save can overwrite it.
func (c *ResponseCache) Get(_ context.Context, key string) (*llm.Response, bool, error) {
	if err := c.ensureDir(); err != nil {
		return nil, false, err
	}
	p := c.pathFor(key)
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, false, nil
	}
	var resp llm.Response
	if err := json.Unmarshal(b, &resp); err != nil {
		_ = os.Remove(p)
		return nil, false, nil
	}
	// Touch file mtime on access for age-based purging.
	now := time.Now()
	_ = os.Chtimes(p, now, now)
	return &resp, true, nil
}

// Save writes a response to the cache.
func (c *ResponseCache) Save(_ context.Context, key string, resp *llm.Response) error {
	if err := c.ensureDir(); err != nil {
		return err
	}
	b, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	mode := os.FileMode(0o644)
	if c.StrictPerms {
		mode = 0o600
	}
	return os.WriteFile(c.pathFor(key), b, mode)
}

// ClearDir removes the directory and all contents. It recreates the directory
// afterwards to leave a valid empty cache location.
func ClearDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return errors.New("empty dir")
	}
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// PurgeByAge removes cache entries whose modification time is older than
// maxAge. Returns the number of removed entries.
func PurgeByAge(dir string, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	removed := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if now.Sub(info.ModTime().UTC()) <= maxAge {
			return nil
		}
		removed++
		_ = os.Remove(path)
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	return removed, err
}
