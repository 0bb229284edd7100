package catalog

import (
	"encoding/hex"

	"github.com/getkin/kin-openapi/openapi3"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zeebo/blake3"
)

// DefaultCacheSize is the number of parsed documents kept by NewCache when size <= 0
const DefaultCacheSize = 128

// Cache memoizes parsed OpenAPI documents keyed by the blake3 hash of their raw bytes.
// Cached documents are shared between callers and must be treated as read-only.
type Cache struct {
	loader *Loader
	docs   *lru.Cache[string, *openapi3.T]
}

// NewCache creates a read-through cache in front of loader
func NewCache(loader *Loader, size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	docs, err := lru.New[string, *openapi3.T](size)
	if err != nil {
		return nil, err
	}
	return &Cache{loader: loader, docs: docs}, nil
}

// Load returns the parsed document for data, parsing it on a miss
func (c *Cache) Load(data []byte) (*openapi3.T, error) {
	key := Fingerprint(data)
	if doc, ok := c.docs.Get(key); ok {
		return doc, nil
	}

	doc, err := c.loader.LoadData(data)
	if err != nil {
		return nil, err
	}
	c.docs.Add(key, doc)
	return doc, nil
}

// Len reports how many documents are cached
func (c *Cache) Len() int {
	return c.docs.Len()
}

// Fingerprint returns the hex blake3 digest of data
func Fingerprint(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
