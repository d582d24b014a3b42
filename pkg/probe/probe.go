package probe

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/macropower/foldex/pkg/diag"
	"github.com/macropower/foldex/pkg/glob"
)

// ErrLimit is reported when a walk is cut short by a configured bound.
var ErrLimit = errors.New("walk limit reached")

// Prober evaluates path specs. It is safe for concurrent use.
type Prober struct {
	sink       diag.Sink
	matchers   sync.Map // Pattern string -> compiled.
	maxDepth   int
	maxEntries int
	cacheWalks bool
}

type compiled struct {
	err error
	m   *glob.Matcher
}

// Opt configures a [Prober].
type Opt func(*Prober)

// WithDiagnostics sets the sink for recovered problems.
func WithDiagnostics(s diag.Sink) Opt {
	return func(p *Prober) {
		p.sink = s
	}
}

// WithMaxDepth bounds how many directory levels a glob walk descends.
// Zero means unbounded.
func WithMaxDepth(n int) Opt {
	return func(p *Prober) {
		p.maxDepth = max(n, 0)
	}
}

// WithMaxEntries bounds how many entries a glob walk visits.
// Zero means unbounded.
func WithMaxEntries(n int) Opt {
	return func(p *Prober) {
		p.maxEntries = max(n, 0)
	}
}

// WithWalkCache makes a [Session] walk its root at most once and match every
// glob spec against the cached listing.
func WithWalkCache(enabled bool) Opt {
	return func(p *Prober) {
		p.cacheWalks = enabled
	}
}

// New creates a new [Prober].
func New(opts ...Opt) *Prober {
	p := &Prober{sink: diag.Discard}
	for _, opt := range opts {
		opt(p)
	}

	if p.sink == nil {
		p.sink = diag.Discard
	}

	return p
}

// Any reports whether at least one spec is satisfied below root.
// An empty spec list is satisfied.
func (p *Prober) Any(ctx context.Context, root string, specs []string) bool {
	return p.Session(root).Any(ctx, specs)
}

// All reports whether every spec is satisfied below root.
// An empty spec list is satisfied.
func (p *Prober) All(ctx context.Context, root string, specs []string) bool {
	return p.Session(root).All(ctx, specs)
}

// Session returns a [Session] for probing a single root.
func (p *Prober) Session(root string) *Session {
	return &Session{p: p, root: root, sink: p.sink, cache: &cache{}}
}

func (p *Prober) compile(pattern string) (*glob.Matcher, error) {
	if v, ok := p.matchers.Load(pattern); ok {
		c := v.(compiled) //nolint:forcetypeassert // Only compiled values are stored.
		return c.m, c.err
	}

	m, err := glob.Compile(pattern)
	p.matchers.Store(pattern, compiled{m: m, err: err})

	return m, err
}

// walk visits every entry below root in lexical order, passing its
// slash-separated path relative to root. The walk stops early when visit
// returns false.
func (p *Prober) walk(ctx context.Context, root string, sink diag.Sink, visit func(rel string) bool) {
	r, err := os.OpenRoot(root)
	if err != nil {
		sink.Report(ctx, diag.Diagnostic{Kind: diag.KindProbeIO, Root: root, Err: err})
		return
	}

	defer func() {
		_ = r.Close() //nolint:errcheck // Read-only handle.
	}()

	var (
		visited  int
		deepened bool
	)

	err = fs.WalkDir(r.FS(), ".", func(rel string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped; the rest of the tree is still visited.
			sink.Report(ctx, diag.Diagnostic{Kind: diag.KindProbeIO, Root: root, Spec: rel, Err: err})
			if rel == "." {
				return fs.SkipAll
			}

			return nil
		}

		ctxErr := ctx.Err()
		if ctxErr != nil {
			return ctxErr
		}

		if rel == "." {
			return nil
		}

		visited++
		if p.maxEntries > 0 && visited > p.maxEntries {
			sink.Report(ctx, diag.Diagnostic{
				Kind: diag.KindLimit,
				Root: root,
				Err:  fmt.Errorf("%w: %d entries", ErrLimit, p.maxEntries),
			})

			return fs.SkipAll
		}

		if !visit(rel) {
			return fs.SkipAll
		}

		if d.IsDir() && p.maxDepth > 0 && strings.Count(rel, "/")+1 >= p.maxDepth {
			if !deepened {
				deepened = true

				sink.Report(ctx, diag.Diagnostic{
					Kind: diag.KindLimit,
					Root: root,
					Spec: rel,
					Err:  fmt.Errorf("%w: depth %d", ErrLimit, p.maxDepth),
				})
			}

			return fs.SkipDir
		}

		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		sink.Report(ctx, diag.Diagnostic{Kind: diag.KindProbeIO, Root: root, Err: err})
	}
}

// Session probes a single root. With walk caching enabled, the subtree is
// listed at most once per Session. A Session is safe for concurrent use.
type Session struct {
	p     *Prober
	sink  diag.Sink
	cache *cache
	root  string
}

type cache struct {
	listing []string
	names   []string
	walk    sync.Once
	list    sync.Once
}

// Root returns the folder root of the session.
func (s *Session) Root() string {
	return s.root
}

// WithDiagnostics returns a copy of the session reporting to sink.
// The copy shares the cached listings of the original.
func (s *Session) WithDiagnostics(sink diag.Sink) *Session {
	if sink == nil {
		sink = diag.Discard
	}

	return &Session{p: s.p, root: s.root, sink: sink, cache: s.cache}
}

// Sink returns the diagnostics sink of the session.
func (s *Session) Sink() diag.Sink {
	return s.sink
}

// Report sends a diagnostic to the session's sink, filling in the root.
func (s *Session) Report(ctx context.Context, d diag.Diagnostic) {
	if d.Root == "" {
		d.Root = s.root
	}

	s.sink.Report(ctx, d)
}

// Any reports whether at least one spec is satisfied.
// An empty spec list is satisfied.
func (s *Session) Any(ctx context.Context, specs []string) bool {
	if len(specs) == 0 {
		return true
	}

	for _, spec := range specs {
		if s.Satisfied(ctx, spec) {
			return true
		}
	}

	return false
}

// All reports whether every spec is satisfied.
// An empty spec list is satisfied.
func (s *Session) All(ctx context.Context, specs []string) bool {
	for _, spec := range specs {
		if !s.Satisfied(ctx, spec) {
			return false
		}
	}

	return true
}

// Satisfied reports whether a single spec is satisfied.
func (s *Session) Satisfied(ctx context.Context, spec string) bool {
	if glob.IsPattern(spec) {
		return s.matchGlob(ctx, spec)
	}

	return s.exists(ctx, spec)
}

// Names returns the sorted names of the entries directly inside the root.
// A root that cannot be read yields an empty list.
func (s *Session) Names(ctx context.Context) []string {
	c := s.cache
	c.list.Do(func() {
		entries, err := os.ReadDir(s.root)
		if err != nil {
			s.sink.Report(ctx, diag.Diagnostic{Kind: diag.KindProbeIO, Root: s.root, Err: err})
		}

		c.names = make([]string, 0, len(entries))
		for _, e := range entries {
			c.names = append(c.names, e.Name())
		}

		slices.Sort(c.names)
	})

	return c.names
}

func (s *Session) exists(ctx context.Context, spec string) bool {
	rel := glob.Normalize(spec)
	if rel == "" {
		return false
	}

	_, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err == nil {
		return true
	}

	if !errors.Is(err, fs.ErrNotExist) {
		s.sink.Report(ctx, diag.Diagnostic{Kind: diag.KindProbeIO, Root: s.root, Spec: spec, Err: err})
	}

	return false
}

func (s *Session) matchGlob(ctx context.Context, spec string) bool {
	m, err := s.p.compile(spec)
	if err != nil {
		s.sink.Report(ctx, diag.Diagnostic{Kind: diag.KindGlobCompile, Root: s.root, Spec: spec, Err: err})
		return false
	}

	if s.p.cacheWalks {
		c := s.cache
		c.walk.Do(func() {
			s.p.walk(ctx, s.root, s.sink, func(rel string) bool {
				c.listing = append(c.listing, rel)
				return true
			})
		})

		return slices.ContainsFunc(c.listing, m.Matches)
	}

	found := false

	s.p.walk(ctx, s.root, s.sink, func(rel string) bool {
		found = m.Matches(rel)
		return !found
	})

	return found
}
