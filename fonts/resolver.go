package fonts

import (
	"os"
	"runtime"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"dxp/docx"
)

// Config tunes the resolver.
type Config struct {
	// Directories are searched in the user tier, after DXP_FONTS entries.
	Directories []string
	// CachePath enables the persistent font index when non-empty.
	CachePath string
	// Workers bounds parallel scanning and metric extraction. Zero means
	// GOMAXPROCS.
	Workers int
}

// Ref is one logical font reference to resolve.
type Ref struct {
	Family string
	Bold   bool
	Italic bool
}

// Resolver resolves font references against the fallback chain. Tier
// indexes are built lazily on first miss, so documents with fully embedded
// fonts never touch the filesystem.
type Resolver struct {
	embedded map[docx.FontKey][]byte
	cfg      Config
	cache    *Cache
	log      *zap.Logger

	envOnce sync.Once
	envIdx  index
	sysOnce sync.Once
	sysIdx  index

	mu      sync.Mutex
	handles map[docx.FontKey]*Handle
}

// NewResolver builds a resolver over the document's embedded fonts and the
// configured search path. A broken cache is reported and ignored.
func NewResolver(embedded map[docx.FontKey][]byte, cfg Config, log *zap.Logger) *Resolver {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	r := &Resolver{
		embedded: embedded,
		cfg:      cfg,
		log:      log,
		handles:  make(map[docx.FontKey]*Handle),
	}
	if cfg.CachePath != "" {
		cache, err := OpenCache(cfg.CachePath, log)
		if err != nil {
			log.Warn("Font index cache unavailable, scanning without it", zap.String("path", cfg.CachePath), zap.Error(err))
		} else {
			r.cache = cache
		}
	}
	return r
}

// Close releases the font index cache, if any.
func (r *Resolver) Close() error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Close()
}

// Preload resolves all references up front, extracting metrics in parallel.
// After it returns every Resolve call is a map read.
func (r *Resolver) Preload(refs []Ref) {
	seen := make(map[docx.FontKey]Ref, len(refs))
	for _, ref := range refs {
		seen[refKey(ref)] = ref
	}

	var eg errgroup.Group
	eg.SetLimit(r.cfg.Workers)
	for _, ref := range seen {
		eg.Go(func() error {
			r.Resolve(ref.Family, ref.Bold, ref.Italic)
			return nil
		})
	}
	_ = eg.Wait()
}

func refKey(ref Ref) docx.FontKey {
	return docx.FontKey{Family: strings.ToLower(primaryName(ref.Family)), Bold: ref.Bold, Italic: ref.Italic}
}

// primaryName takes the first alternative of a composite font reference.
func primaryName(family string) string {
	first, _, _ := strings.Cut(family, ";")
	return strings.TrimSpace(first)
}

// Resolve maps a font reference to a handle. It never fails: the chain ends
// at the built-in fallback, whose use is logged as a degradation. Handles
// are memoized per face key.
func (r *Resolver) Resolve(family string, bold, italic bool) *Handle {
	name := primaryName(family)
	key := docx.FontKey{Family: strings.ToLower(name), Bold: bold, Italic: italic}

	r.mu.Lock()
	if h, ok := r.handles[key]; ok {
		r.mu.Unlock()
		return h
	}
	r.mu.Unlock()

	h := r.lookup(key, name)

	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.handles[key]; ok {
		return prev // lost the race, keep the first build
	}
	r.handles[key] = h
	return h
}

// lookup walks the fallback chain: embedded package fonts, DXP_FONTS and
// configured directories, platform directories, built-in metrics. Within a
// tier a missing bold/italic face degrades to the regular face of the same
// family before the next tier is tried.
func (r *Resolver) lookup(key docx.FontKey, name string) *Handle {
	for _, k := range styleFallback(key) {
		if data, ok := r.embedded[k]; ok {
			if h := r.buildFromData(k, name, SourceEmbedded, data, 0); h != nil {
				return h
			}
		}
	}

	r.envOnce.Do(func() {
		r.envIdx = scanIndex(envDirectories(r.cfg.Directories), r.cfg.Workers, r.cache, r.log)
	})
	if h := r.fromIndex(r.envIdx, key, name, SourceEnvDir); h != nil {
		return h
	}

	r.sysOnce.Do(func() {
		r.sysIdx = scanIndex(systemDirectories(), r.cfg.Workers, r.cache, r.log)
	})
	if h := r.fromIndex(r.sysIdx, key, name, SourceSystem); h != nil {
		return h
	}

	r.log.Warn("Font not found, falling back to built-in metrics",
		zap.String("family", name), zap.Bool("bold", key.Bold), zap.Bool("italic", key.Italic))
	return builtinHandle(key, name)
}

// styleFallback lists the face keys to try within one tier.
func styleFallback(key docx.FontKey) []docx.FontKey {
	if !key.Bold && !key.Italic {
		return []docx.FontKey{key}
	}
	return []docx.FontKey{key, {Family: key.Family}}
}

func (r *Resolver) fromIndex(idx index, key docx.FontKey, name string, src Source) *Handle {
	for _, k := range styleFallback(key) {
		ref, ok := idx[k]
		if !ok {
			continue
		}
		data, err := os.ReadFile(ref.path)
		if err != nil {
			r.log.Warn("Unable to read indexed font file", zap.String("path", ref.path), zap.Error(err))
			continue
		}
		if h := r.buildFromData(k, name, src, data, ref.index); h != nil {
			return h
		}
	}
	return nil
}

func (r *Resolver) buildFromData(key docx.FontKey, name string, src Source, data []byte, faceIndex int) *Handle {
	faces, err := parseFaces(data)
	if err != nil || faceIndex >= len(faces) {
		r.log.Warn("Unable to parse font program", zap.String("family", name), zap.Stringer("source", src), zap.Error(err))
		return nil
	}
	h, err := buildHandle(key, name, src, data, faces[faceIndex])
	if err != nil {
		r.log.Warn("Unable to extract font metrics", zap.String("family", name), zap.Stringer("source", src), zap.Error(err))
		return nil
	}
	r.log.Debug("Resolved font",
		zap.String("family", name), zap.Bool("bold", key.Bold), zap.Bool("italic", key.Italic),
		zap.Stringer("source", src))
	return h
}
