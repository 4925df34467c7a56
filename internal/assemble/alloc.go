// Package assemble derives channels, light sources, plane geometry and
// annotations from resolved modalities and the reconciled record.
package assemble

// IDAllocator hands out monotonically increasing channel identifiers for
// one document. The allocator is passed through the pipeline explicitly so
// folders processed in parallel never share a counter. Identifiers are
// never reused, even when a modality is excluded by configuration.
type IDAllocator struct {
	next int
}

// NewIDAllocator returns an allocator starting at zero.
func NewIDAllocator() *IDAllocator {
	return &IDAllocator{}
}

// Next returns the next identifier.
func (a *IDAllocator) Next() int {
	id := a.next
	a.next++
	return id
}
