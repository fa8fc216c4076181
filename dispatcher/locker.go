package dispatcher

import (
	"hash/fnv"
	"path/filepath"
	"sync"

	"github.com/indigo-web/webserv/config"
)

// Locker serializes the critical sections of handlers. Acquisition blocks without timeout.
type Locker interface {
	Lock(path string)
	Unlock(path string)
}

// NewLocker returns the locker of the discipline, defaulting to the global one.
func NewLocker(discipline string) Locker {
	if discipline == config.LockPath {
		return new(PathLock)
	}

	return new(GlobalLock)
}

// GlobalLock lets a single critical section run at a time, no matter the path.
type GlobalLock struct {
	mu sync.Mutex
}

func (g *GlobalLock) Lock(string) {
	g.mu.Lock()
}

func (g *GlobalLock) Unlock(string) {
	g.mu.Unlock()
}

const lockShards = 64

// PathLock serializes critical sections on the same path only. Paths are hashed into a fixed
// number of shards, so unrelated paths may occasionally share one.
type PathLock struct {
	shards [lockShards]sync.Mutex
}

func (p *PathLock) Lock(path string) {
	p.shard(path).Lock()
}

func (p *PathLock) Unlock(path string) {
	p.shard(path).Unlock()
}

func (p *PathLock) shard(path string) *sync.Mutex {
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(filepath.Clean(path)))

	return &p.shards[hash.Sum32()%lockShards]
}
