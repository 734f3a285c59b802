package evm

import (
	"github.com/entropyio/evmcore/common"
	lru "github.com/hashicorp/golang-lru"
)

const codeCacheSize = 4096

type codeKey struct {
	hash common.Hash
	eof  bool
}

// codeCache keeps analysed code by code hash. Analysis depends on whether
// the object format is active, so that flag is part of the key. It is the
// only structure shared between EVM instances.
type codeCache struct {
	cache *lru.Cache
}

var analysedCode = newCodeCache(codeCacheSize)

func newCodeCache(size int) *codeCache {
	cache, err := lru.New(size)
	if err != nil {
		panic(err)
	}
	return &codeCache{cache: cache}
}

func (c *codeCache) get(hash common.Hash, eof bool) (*Code, bool) {
	v, ok := c.cache.Get(codeKey{hash, eof})
	if !ok {
		codeCacheMissCounter.Inc()
		return nil, false
	}
	codeCacheHitCounter.Inc()
	return v.(*Code), true
}

func (c *codeCache) add(code *Code, eof bool) {
	c.cache.Add(codeKey{code.hash, eof}, code)
}

// Len returns the number of cached programs.
func (c *codeCache) Len() int {
	return c.cache.Len()
}
