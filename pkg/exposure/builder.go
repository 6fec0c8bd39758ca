package exposure

import(
	"context"
	"image"
	"sync/atomic"

	"github.com/mdouchement/hdr"

	"github.com/abworrall/auto-exposure/pkg/compute"
	"github.com/abworrall/auto-exposure/pkg/emath"
)

// WorkgroupSize is the build pass tile. It has exactly one invocation per bin,
// so each invocation owns one slot of the group-local histogram.
var WorkgroupSize = compute.Dim{X: 16, Y: 16}

type buildArena struct {
	bins [NumBins]atomic.Uint32
}

// BuildHistogram accumulates the mask-weighted luminance histogram of img into
// hist. hist must be zero on entry (the reducers leave it that way). A nil
// mask weights every pixel fully.
func BuildHistogram(ctx context.Context, dev *compute.Device, p Params, img hdr.Image, mask *emath.FloatGrid, hist *Histogram) error {
	bounds := img.Bounds()
	dim := bounds.Size()
	grid := compute.GridFor(dim.X, dim.Y, WorkgroupSize)

	return compute.Dispatch(ctx, dev, grid, WorkgroupSize,
		func() *buildArena { return &buildArena{} },
		func(inv *compute.Invocation, sh *buildArena) {
			sh.bins[inv.LocalIndex].Store(0)
			inv.Barrier()

			// Overhanging invocations drop out here but still hit the second barrier
			gid := inv.GlobalID
			if gid.X < dim.X && gid.Y < dim.Y {
				r, g, b, _ := img.HDRAt(bounds.Min.X+gid.X, bounds.Min.Y+gid.Y).HDRRGBA()
				bin := BinIndex(float32(r), float32(g), float32(b), p.MinLogLum, p.InvLogLumRange)
				if w := MaskWeight(sampleMask(mask, gid, dim)); w > 0 {
					sh.bins[bin].Add(w)
				}
			}
			inv.Barrier()

			if n := sh.bins[inv.LocalIndex].Load(); n > 0 {
				hist.Add(int(inv.LocalIndex), n)
			}
		})
}

// sampleMask does a nearest texel fetch at the pixel's normalized position,
// so the mask can be any resolution.
func sampleMask(mask *emath.FloatGrid, gid image.Point, dim image.Point) float64 {
	if mask == nil || mask.Dx() == 0 || mask.Dy() == 0 {
		return 1.0
	}
	u := float32(gid.X) / float32(dim.X)
	v := float32(gid.Y) / float32(dim.Y)
	return mask.Texel(int(u*float32(mask.Dx())), int(v*float32(mask.Dy())))
}
