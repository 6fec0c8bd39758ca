package exposure

import(
	"fmt"
	"sync/atomic"
)

// NumBins is the histogram size. Bin 0 holds everything below the metered
// floor; bins 1..255 split the log-luminance range evenly.
const NumBins = 256

// A Histogram is the buffer shared by every workgroup of the build pass. All
// access from kernels goes through atomics, since workgroups run in no
// particular order.
type Histogram struct {
	bins [NumBins]atomic.Uint32
}

func NewHistogram() *Histogram { return &Histogram{} }

func (h *Histogram)Bin(i int) uint32       { return h.bins[i].Load() }
func (h *Histogram)Add(i int, n uint32)    { h.bins[i].Add(n) }

// take reads a bin and zeroes it, which is how the reducers hand the buffer
// back clean for the next frame.
func (h *Histogram)take(i int) uint32      { return h.bins[i].Swap(0) }

func (h *Histogram)Total() uint64 {
	var t uint64
	for i := range h.bins {
		t += uint64(h.bins[i].Load())
	}
	return t
}

func (h *Histogram)Snapshot() [NumBins]uint32 {
	var s [NumBins]uint32
	for i := range h.bins {
		s[i] = h.bins[i].Load()
	}
	return s
}

// Clear zeroes every bin. The reducers already do this; the host only needs it
// to recover from an aborted frame.
func (h *Histogram)Clear() {
	for i := range h.bins {
		h.bins[i].Store(0)
	}
}

// Load overwrites the bins with counts. Handy for feeding a reducer directly.
func (h *Histogram)Load(counts [NumBins]uint32) {
	for i, c := range counts {
		h.bins[i].Store(c)
	}
}

func (h *Histogram)String() string {
	nonzero := 0
	for i := range h.bins {
		if h.bins[i].Load() != 0 {
			nonzero++
		}
	}
	return fmt.Sprintf("hist{total:%d, bin0:%d, nonzero:%d}", h.Total(), h.Bin(0), nonzero)
}
