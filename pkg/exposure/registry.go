package exposure

import(
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mdouchement/hdr"

	"github.com/abworrall/auto-exposure/pkg/emath"
)

// A Registry holds a session per view. All the sessions share one device and
// one histogram buffer, so frames across views are run one at a time.
type Registry struct {
	settings Settings
	opts     options

	mu       sync.Mutex // guards sessions
	sessions map[string]*Session

	frameMu  sync.Mutex // the shared histogram is in use
}

func NewRegistry(settings Settings, opts ...Option) (*Registry, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &Registry{
		settings: settings,
		opts:     newOptions(opts),
		sessions: map[string]*Session{},
	}, nil
}

func (r *Registry)Histogram() *Histogram { return r.opts.hist }

// Session returns the view's session, creating it on first use.
func (r *Registry)Session(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, exists := r.sessions[id]; exists {
		return s, nil
	}

	s, err := NewSession(r.settings,
		WithDevice(r.opts.dev),
		WithHistogram(r.opts.hist),
		WithHistogramHook(r.opts.hook),
		WithLogger(r.opts.logger.With().Str("view", id).Logger()))
	if err != nil {
		return nil, fmt.Errorf("view '%s': %w", id, err)
	}
	r.sessions[id] = s
	return s, nil
}

// Remove drops a view's session and its exposure state.
func (r *Registry)Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

func (r *Registry)Views() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry)Frame(ctx context.Context, id string, color hdr.Image, mask *emath.FloatGrid, elapsed time.Duration) (Reduction, error) {
	s, err := r.Session(id)
	if err != nil {
		return Reduction{}, err
	}

	r.frameMu.Lock()
	defer r.frameMu.Unlock()
	return s.Frame(ctx, color, mask, elapsed)
}
