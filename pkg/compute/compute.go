// Package compute runs data-parallel kernels the way a GPU compute dispatch
// does: a grid of workgroups, each workgroup a fixed number of invocations that
// share a scratch arena and synchronize with barriers.
//
// Workgroups are scheduled concurrently with no ordering between them, so any
// cross-workgroup communication has to go through atomics. Dispatch only
// returns once every workgroup has finished; two dispatches issued one after
// the other are separated by a full completion barrier.
package compute

import(
	"context"
	"errors"
	"fmt"
	"image"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

var ErrEmptyDispatch = errors.New("empty dispatch")

// Dim is a 2D extent, used both for the dispatch grid (in workgroups) and for
// the workgroup size (in invocations).
type Dim struct {
	X, Y uint32
}

func (d Dim)Count() int       { return int(d.X) * int(d.Y) }
func (d Dim)String() string   { return fmt.Sprintf("%dx%d", d.X, d.Y) }

// GridFor returns the number of workgroups of the given size needed to cover
// an image of width w and height h.
func GridFor(w, h int, size Dim) Dim {
	return Dim{
		X: uint32((w + int(size.X) - 1) / int(size.X)),
		Y: uint32((h + int(size.Y) - 1) / int(size.Y)),
	}
}

// A Device executes dispatches. Limit caps how many workgroups are in flight
// at once.
type Device struct {
	Limit int
}

type Option func(*Device)

func WithLimit(n int) Option {
	return func(d *Device) {
		if n > 0 {
			d.Limit = n
		}
	}
}

func NewDevice(opts ...Option) *Device {
	d := &Device{Limit: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// An Invocation is one work-item of a workgroup.
type Invocation struct {
	GlobalID    image.Point // WorkgroupID*size + LocalID
	LocalID     image.Point
	LocalIndex  uint32      // LocalID.Y*size.X + LocalID.X
	WorkgroupID image.Point

	group *barrier
}

// Barrier blocks until every invocation in the workgroup has reached it. All
// writes made to the shared arena before the barrier are visible to every
// invocation after it.
func (inv *Invocation)Barrier() { inv.group.wait() }

// Dispatch runs kernel over a grid of workgroups. newShared is called once per
// workgroup, and the arena it returns lives for exactly that workgroup.
//
// The context is checked before each workgroup is scheduled; a cancelled
// dispatch returns ctx.Err() and leaves whatever the finished workgroups wrote.
func Dispatch[S any](ctx context.Context, dev *Device, grid, size Dim, newShared func() *S, kernel func(inv *Invocation, shared *S)) error {
	if grid.Count() == 0 || size.Count() == 0 {
		return fmt.Errorf("dispatch grid %s, workgroup %s: %w", grid, size, ErrEmptyDispatch)
	}
	if dev == nil {
		dev = NewDevice()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(dev.Limit)

	for gy := uint32(0); gy < grid.Y; gy++ {
		for gx := uint32(0); gx < grid.X; gx++ {
			if err := gctx.Err(); err != nil {
				g.Wait()
				return err
			}
			wgid := image.Point{int(gx), int(gy)}
			g.Go(func() error {
				runWorkgroup(wgid, size, newShared(), kernel)
				return nil
			})
		}
	}

	return g.Wait()
}

func runWorkgroup[S any](wgid image.Point, size Dim, shared *S, kernel func(*Invocation, *S)) {
	n := size.Count()
	b := newBarrier(n)

	var wg sync.WaitGroup
	wg.Add(n)
	for ly := 0; ly < int(size.Y); ly++ {
		for lx := 0; lx < int(size.X); lx++ {
			inv := &Invocation{
				LocalID:     image.Point{lx, ly},
				LocalIndex:  uint32(ly*int(size.X) + lx),
				WorkgroupID: wgid,
				GlobalID:    image.Point{wgid.X*int(size.X) + lx, wgid.Y*int(size.Y) + ly},
				group:       b,
			}
			go func() {
				defer wg.Done()
				kernel(inv, shared)
			}()
		}
	}
	wg.Wait()
}
