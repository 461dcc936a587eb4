package nvdec

import (
	"fmt"
	"unsafe"

	"github.com/user/fasthumb/pkg/ports"
)

type hostBuffer struct {
	owner ports.ContextHandle
	ptr   unsafe.Pointer
}

// hostRegistry tracks page-locked buffers by their first byte and the
// context that allocated them. Buffers released together with their
// context stay known until the caller frees them, which is then a no-op.
type hostRegistry struct {
	live     map[*byte]hostBuffer
	released map[*byte]struct{}
}

func newHostRegistry() *hostRegistry {
	return &hostRegistry{
		live:     make(map[*byte]hostBuffer),
		released: make(map[*byte]struct{}),
	}
}

func (r *hostRegistry) add(buf []byte, owner ports.ContextHandle, ptr unsafe.Pointer) {
	r.live[&buf[0]] = hostBuffer{owner: owner, ptr: ptr}
}

// take forgets buf and returns the allocation still to be freed. The
// returned ptr is nil when the owning context already released it.
func (r *hostRegistry) take(buf []byte) (hostBuffer, error) {
	key := &buf[0]
	if b, ok := r.live[key]; ok {
		delete(r.live, key)
		return b, nil
	}
	if _, ok := r.released[key]; ok {
		delete(r.released, key)
		return hostBuffer{}, nil
	}
	return hostBuffer{}, fmt.Errorf("%w: host buffer", ErrInvalidHandle)
}

// release detaches every buffer owned by ctx and returns their allocations.
func (r *hostRegistry) release(ctx ports.ContextHandle) []unsafe.Pointer {
	var ptrs []unsafe.Pointer
	for key, b := range r.live {
		if b.owner != ctx {
			continue
		}
		ptrs = append(ptrs, b.ptr)
		delete(r.live, key)
		r.released[key] = struct{}{}
	}
	return ptrs
}
