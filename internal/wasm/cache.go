package wasm

import (
	"container/list"
	"regexp"
	"sync"
)

const (
	// DefaultRegexCacheSize is the default maximum number of cached regex patterns.
	DefaultRegexCacheSize = 100

	// MaxPatternLength is the maximum length of a regex pattern (ReDoS
	// protection). Header grammars for engine log lines fit comfortably;
	// the stock grammar is under 100 characters.
	MaxPatternLength = 512
)

// regexCache is a thread-safe LRU cache for regexes compiled on behalf
// of plugins via the regex host functions.
type regexCache struct {
	mu      sync.Mutex
	cache   map[string]*list.Element
	lruList *list.List
	maxSize int
}

type cacheEntry struct {
	pattern string
	re      *regexp.Regexp
}

func newRegexCache(maxSize int) *regexCache {
	return &regexCache{
		cache:   make(map[string]*list.Element),
		lruList: list.New(),
		maxSize: maxSize,
	}
}

// Get returns the compiled regex for pattern, compiling and caching it
// on a miss. fn is the host function name reported in errors.
func (c *regexCache) Get(fn, pattern string) (*regexp.Regexp, error) {
	if len(pattern) > MaxPatternLength {
		return nil, &ABIError{
			Function: fn,
			Reason:   "pattern exceeds maximum length",
		}
	}

	if re, ok := c.lookup(pattern); ok {
		return re, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return c.insert(pattern, re), nil
}

// lookup returns the cached regex, promoting it to most recently used.
func (c *regexCache) lookup(pattern string) (*regexp.Regexp, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.cache[pattern]
	if !ok {
		return nil, false
	}
	c.lruList.MoveToFront(elem)
	return elem.Value.(*cacheEntry).re, true
}

// insert stores the compiled regex, evicting the least recently used
// entry when full. Another goroutine may have compiled the same pattern
// concurrently; the first entry wins.
func (c *regexCache) insert(pattern string, re *regexp.Regexp) *regexp.Regexp {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[pattern]; ok {
		c.lruList.MoveToFront(elem)
		return elem.Value.(*cacheEntry).re
	}

	if c.lruList.Len() >= c.maxSize {
		if oldest := c.lruList.Back(); oldest != nil {
			c.lruList.Remove(oldest)
			delete(c.cache, oldest.Value.(*cacheEntry).pattern)
		}
	}

	c.cache[pattern] = c.lruList.PushFront(&cacheEntry{pattern: pattern, re: re})
	return re
}

// Len returns the current number of cached patterns.
func (c *regexCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lruList.Len()
}
