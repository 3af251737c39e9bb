package parser

import (
	"crypto/sha256"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/moonfall-dev/moonfall/ast"
)

// Cache memoizes parse results keyed by a content hash. The transpile
// engine parses some sources more than once (output files are re-parsed
// for the injection scan, the polyfill globals file is parsed for both
// compilation and export extraction), so repeated identical inputs are
// served from memory.
//
// Cached chunks are shared; callers that mutate a chunk must request a
// private copy via ParseOnce instead.
type Cache struct {
	entries *lru.Cache[string, *ast.Chunk]
}

// NewCache creates a parse cache holding up to size entries.
func NewCache(size int) (*Cache, error) {
	entries, err := lru.New[string, *ast.Chunk](size)
	if err != nil {
		return nil, fmt.Errorf("creating parse cache: %w", err)
	}
	return &Cache{entries: entries}, nil
}

// Parse returns the cached chunk for the given source, parsing on miss.
// The returned chunk must be treated as read-only.
func (c *Cache) Parse(file, src string) (*ast.Chunk, error) {
	key := cacheKey(file, src)
	if chunk, ok := c.entries.Get(key); ok {
		return chunk, nil
	}
	chunk, err := Parse(file, src)
	if err != nil {
		return nil, err
	}
	c.entries.Add(key, chunk)
	return chunk, nil
}

// ParseOnce always parses, bypassing the cache. Use when the caller will
// mutate the resulting tree.
func (c *Cache) ParseOnce(file, src string) (*ast.Chunk, error) {
	return Parse(file, src)
}

func cacheKey(file, src string) string {
	h := sha256.New()
	h.Write([]byte(file))
	h.Write([]byte{0})
	h.Write([]byte(src))
	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}
