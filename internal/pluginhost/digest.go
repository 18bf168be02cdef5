package pluginhost

import (
	"sync"

	"golang.org/x/crypto/blake2b"
)

// DigestCache remembers the BLAKE2b digest of the last config patch
// successfully applied to a given (kind, library path) pair (spec §4.2:
// "caches per-(kind, path) the last-applied config digest so the next
// set_config is skipped when unchanged").
type DigestCache struct {
	mu      sync.Mutex
	digests map[string][32]byte
}

func NewDigestCache() *DigestCache {
	return &DigestCache{digests: make(map[string][32]byte)}
}

// Changed reports whether patch differs from the last digest recorded
// for (kind, path), recording patch's digest as the new baseline
// regardless of the outcome — a failed SetConfig call should not be
// retried forever against an unchanged patch.
func (d *DigestCache) Changed(kind, path string, patch []byte) bool {
	key := kind + "\x00" + path
	sum := blake2b.Sum256(patch)

	d.mu.Lock()
	defer d.mu.Unlock()
	prev, ok := d.digests[key]
	d.digests[key] = sum
	if !ok {
		return true
	}
	return prev != sum
}
