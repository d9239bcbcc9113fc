package media

import (
	"fmt"
	"image"

	"photofind/internal/cache"
	"photofind/internal/filesystem"
	"photofind/internal/logging"
	"photofind/internal/mediatypes"
	"photofind/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

// LoadFunc decodes a source file into an image.
type LoadFunc func(path string) (image.Image, error)

// Strategy is one step in a class's decode chain.
type Strategy struct {
	// Name labels the strategy in logs.
	Name string
	// Load attempts the decode.
	Load LoadFunc
	// When, if non-nil, gates the strategy on the previous step's failure.
	When func(path string, prev error) bool
}

// Generator produces cached JPEG derivatives of media sources.
type Generator struct {
	stores map[Tier]*cache.Store
	chains map[mediatypes.Class][]Strategy
}

// NewGenerator builds a Generator over the per-tier stores with the default
// decode chains.
func NewGenerator(thumbnails, previews *cache.Store) *Generator {
	g := &Generator{
		stores: map[Tier]*cache.Store{
			TierThumbnail: thumbnails,
			TierPreview:   previews,
		},
	}
	g.chains = map[mediatypes.Class][]Strategy{
		mediatypes.ClassRaw: {
			{Name: "exiftool", Load: loadToolPreview},
			{Name: "embedded-preview", Load: loadEmbeddedPreview},
		},
		mediatypes.ClassTIFF: {
			{Name: "tiff-baseline", Load: loadTIFF},
			{Name: "raster", Load: loadRaster},
		},
		mediatypes.ClassRaster: {
			{Name: "raster", Load: loadRaster},
			// Long-tail RAW formats land here; when the registered
			// decoders don't know the container, mine it for previews.
			{Name: "embedded-preview", Load: loadEmbeddedPreview,
				When: func(path string, prev error) bool {
					return isUnknownFormat(prev) &&
						mediatypes.IsRawFamily(mediatypes.Extension(path))
				}},
		},
		mediatypes.ClassVideo: {
			{Name: "video-frame", Load: extractVideoFrame},
		},
	}
	return g
}

// Generate returns the JPEG derivative for a source at the given tier,
// producing and caching it on a miss. Requests naming a metadata sidecar
// resolve to the media file beside it. The returned bytes are valid even
// when the cache write-through fails; that failure is only logged.
func (g *Generator) Generate(sourcePath string, tier Tier) ([]byte, error) {
	path := mediatypes.StripSidecar(sourcePath)

	if _, err := filesystem.Stat(path, filesystem.DefaultRetryConfig()); err != nil {
		metrics.DerivativeRequests.WithLabelValues(tier.String(), "missing").Inc()
		return nil, fmt.Errorf("%w: %s", ErrSourceMissing, path)
	}

	store := g.stores[tier]
	key := cache.Key(path)
	if data, ok := store.Read(key); ok {
		logging.Debug("Cache hit for %s (%s)", path, tier)
		metrics.DerivativeRequests.WithLabelValues(tier.String(), "hit").Inc()
		return data, nil
	}

	timer := prometheus.NewTimer(metrics.GenerationDuration.WithLabelValues(tier.String()))
	img, err := g.decode(path)
	timer.ObserveDuration()
	if err != nil {
		metrics.DerivativeRequests.WithLabelValues(tier.String(), "error").Inc()
		return nil, err
	}

	scaled, route := scaleForTier(img, tier)
	logging.Debug("Scaled %s via %s route for %s tier", path, route, tier)

	data, err := encodeJPEG(scaled, tier.Quality())
	if err != nil {
		metrics.DerivativeRequests.WithLabelValues(tier.String(), "error").Inc()
		return nil, err
	}

	if err := store.Write(key, data); err != nil {
		metrics.CacheWriteErrors.Inc()
		logging.Warn("Failed to cache %s derivative for %s: %v", tier, path, err)
	} else {
		metrics.CacheWrites.Inc()
	}

	metrics.DerivativeRequests.WithLabelValues(tier.String(), "generated").Inc()
	return data, nil
}

// Exists reports whether a derivative for the source is already cached.
func (g *Generator) Exists(sourcePath string, tier Tier) bool {
	path := mediatypes.StripSidecar(sourcePath)
	return g.stores[tier].Exists(cache.Key(path))
}

// decode runs the source through its class's strategy chain.
func (g *Generator) decode(path string) (image.Image, error) {
	class := mediatypes.ClassOfPath(path)
	chain := g.chains[class]
	if len(chain) == 0 {
		return nil, fmt.Errorf("%w: no decode chain for %s", ErrUnsupported, path)
	}

	var lastErr error
	for _, strategy := range chain {
		if strategy.When != nil && !strategy.When(path, lastErr) {
			continue
		}
		img, err := strategy.Load(path)
		if err == nil {
			return img, nil
		}
		lastErr = err
		logging.Debug("Decode strategy %q failed for %s: %v", strategy.Name, path, err)
	}
	return nil, decodeError(path, lastErr)
}
