// Package pool provides bucketed sync.Pool byte buffers for camera frames.
// Size classes follow common packed 4:2:2 frame sizes (2 bytes per pixel)
// so that consecutive frames of one stream reuse the same buffer.
package pool

import "sync"

// Size classes for bucketed pools.
const (
	Size64K  = 64 << 10 // up to 160x120 and friends
	Size256K = 256 << 10
	Size1M   = 1 << 20  // 640x480 (600 KiB)
	Size4M   = 4 << 20  // 1280x720, 1920x1080
	Size16M  = 16 << 20 // 3840x2160
)

var sizes = [5]int{Size64K, Size256K, Size1M, Size4M, Size16M}

var pools [5]sync.Pool

// bucketIndex returns the pool index for a given size.
func bucketIndex(size int) int {
	for i, s := range sizes {
		if size <= s {
			return i
		}
	}
	return len(sizes) - 1
}

func init() {
	for i := range pools {
		sz := sizes[i]
		pools[i] = sync.Pool{
			New: func() any {
				b := make([]byte, sz)
				return &b
			},
		}
	}
}

// Get returns a byte slice of length size. Its contents are undefined.
// The caller should hand it back with Put when done.
func Get(size int) []byte {
	bp := pools[bucketIndex(size)].Get().(*[]byte)
	b := *bp
	if cap(b) < size {
		b = make([]byte, size)
		*bp = b
		return b
	}
	return b[:size]
}

// Put returns a slice obtained from Get. Slices smaller than the smallest
// class are dropped.
func Put(b []byte) {
	c := cap(b)
	if c < Size64K {
		return
	}
	// A slice lands in the largest class it can fully serve.
	idx := 0
	for i, s := range sizes {
		if c >= s {
			idx = i
		}
	}
	b = b[:c]
	pools[idx].Put(&b)
}
