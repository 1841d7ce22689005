package tagfuse

import (
	"encoding/binary"
	"sync"

	"github.com/zeebo/blake3"
)

// rootInode is reserved for the filesystem root by the FUSE library's
// convention; the allocator never returns it for any other entry.
const rootInode = 1

// allocator assigns stable 64-bit inode numbers to filesystem entries
// identified by a canonical key (e.g. a tag-browser directory's tag
// name, or a query result's expression plus path). The same key
// always allocated within one allocator lifetime returns the same
// inode; distinct keys are guaranteed distinct inodes, with BLAKE3
// hashing only providing a starting point and a collision registry
// resolving the rare case where two distinct keys hash alike.
type allocator struct {
	mu       sync.Mutex
	byKey    map[string]uint64
	occupied map[uint64]string
}

func newAllocator() *allocator {
	return &allocator{
		byKey:    make(map[string]uint64),
		occupied: make(map[uint64]string),
	}
}

// allocate returns the inode for key, allocating one on first use.
func (a *allocator) allocate(key string) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	if ino, ok := a.byKey[key]; ok {
		return ino
	}

	ino := startingInode(key)
	for {
		if ino == rootInode {
			ino++
			continue
		}
		existingKey, taken := a.occupied[ino]
		if !taken {
			break
		}
		if existingKey == key {
			break
		}
		ino++
	}

	a.byKey[key] = ino
	a.occupied[ino] = key
	return ino
}

// startingInode hashes key into a 64-bit seed for the allocator's
// linear probe. Collisions (two keys hashing to the same seed) are
// resolved by allocate, not here.
func startingInode(key string) uint64 {
	sum := blake3.Sum256([]byte(key))
	return binary.LittleEndian.Uint64(sum[:8])
}
