// Package server exposes directive parsing over HTTP.
package server

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/r9s-ai/fractal/internal/logx"
	"github.com/r9s-ai/fractal/internal/metrics"
	"github.com/r9s-ai/fractal/internal/version"
	"github.com/r9s-ai/fractal/pkg/config"
	"github.com/r9s-ai/fractal/pkg/directive"
	"github.com/r9s-ai/fractal/pkg/external"
	"github.com/r9s-ai/fractal/pkg/presets"
	"github.com/r9s-ai/fractal/pkg/requestid"
)

// gin context keys set by the directives middleware.
const (
	ctxKeyDirectives = "fractal.directives"
	ctxKeyPreset     = "fractal.preset"
	ctxKeyInclude    = "fractal.include"
	ctxKeyExclude    = "fractal.exclude"
	ctxKeyCache      = "fractal.cache"
)

var (
	errUnknownPreset = errors.New("unknown preset")
	errTooLong       = errors.New("directive too long")
)

// Server bundles the runtime state shared by handlers.
type Server struct {
	cfg     *config.Config
	presets *presets.Registry
	cache   *directive.Cache
	metrics *metrics.Metrics
	log     *zap.Logger

	accessLogger    *log.Logger
	accessColor     bool
	accessFormatter *logx.AccessLogFormatter
	requestIDHeader string

	// reloadMu serializes preset reloads from SIGHUP and the file watcher.
	reloadMu sync.Mutex
}

type Options struct {
	Config  *config.Config
	Presets *presets.Registry
	Metrics *metrics.Metrics
	Logger  *zap.Logger

	AccessLogger *log.Logger
	AccessColor  bool
	// RequestIDHeader defaults to requestid.DefaultHeaderKey.
	RequestIDHeader string
}

func New(opts Options) (*Server, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	reg := opts.Presets
	if reg == nil {
		reg = presets.NewRegistry()
	}
	lg := opts.Logger
	if lg == nil {
		lg = zap.NewNop()
	}
	s := &Server{
		cfg:             cfg,
		presets:         reg,
		metrics:         opts.Metrics,
		log:             lg,
		accessLogger:    opts.AccessLogger,
		accessColor:     opts.AccessColor,
		requestIDHeader: requestid.ResolveHeaderKey(opts.RequestIDHeader),
	}

	var cacheOpts []directive.CacheOption
	if s.metrics != nil {
		cacheOpts = append(cacheOpts, directive.WithHitMissHooks(s.metrics.CacheHit, s.metrics.CacheMiss))
	}
	cache, err := directive.NewCache(cfg.Directives.CacheSize, cacheOpts...)
	if err != nil {
		return nil, err
	}
	s.cache = cache

	if cfg.Logging.AccessLog {
		format, err := logx.ResolveAccessLogFormat(cfg.Logging.AccessLogFormat, cfg.Logging.AccessLogFormatPreset)
		if err != nil {
			return nil, fmt.Errorf("access log format: %w", err)
		}
		f, err := logx.CompileAccessLogFormat(format)
		if err != nil {
			return nil, err
		}
		s.accessFormatter = f
	}
	return s, nil
}

// checkLength enforces directives.max_length on one raw directive value.
func (s *Server) checkLength(param, raw string) error {
	limit := s.cfg.Directives.MaxLength
	if limit <= 0 || len(raw) <= limit {
		return nil
	}
	if s.metrics != nil {
		s.metrics.DirectiveReject.Inc()
	}
	return fmt.Errorf("%w: %s must be at most %d bytes, got %d", errTooLong, param, limit, len(raw))
}

type resolution struct {
	set    directive.Set
	preset *presets.Preset
	// cached is true when both raw directives were already in the cache.
	cached bool
}

// resolve parses include and exclude through the cache and merges the named
// preset's defaults underneath them.
func (s *Server) resolve(include, exclude, presetName string) (resolution, error) {
	cached := s.cache.Contains(include) && s.cache.Contains(exclude)
	set := s.cache.ParseSet(include, exclude)
	if s.metrics != nil {
		s.metrics.ObserveDirective("include", len(set.Includes.Paths()))
		s.metrics.ObserveDirective("exclude", len(set.Excludes.Paths()))
	}
	presetName = strings.TrimSpace(presetName)
	if presetName == "" {
		return resolution{set: set, cached: cached}, nil
	}
	p, ok := s.presets.Get(presetName)
	if !ok {
		return resolution{}, fmt.Errorf("%w: %q", errUnknownPreset, presetName)
	}
	defaults := s.cache.ParseSet(p.Defaults().Directive(), p.Exclude)
	return resolution{set: set.WithDefaults(defaults), preset: &p, cached: cached}, nil
}

// externals builds the values resolved against each request: service
// constants, the request id, then the preset's own externals.
func (s *Server) externals(p *presets.Preset) *external.Set {
	base := external.NewSet()
	_ = base.Add("service", external.Const("fractal"))
	_ = base.Add("version", external.Const(version.Get().Version))
	_ = base.Add("request_id", external.Resolver(func(subject any) any {
		if r, ok := subject.(requestScoped); ok {
			return r.GetString(s.requestIDHeader)
		}
		return nil
	}))
	if p == nil {
		return base
	}
	return base.Merge(p.ExternalSet())
}

// requestScoped is the part of *gin.Context used by externals.
type requestScoped interface {
	GetString(key string) string
}

// ReloadPresets re-reads the presets file.
func (s *Server) ReloadPresets(trigger string) ([]string, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()
	changed, err := s.presets.Reload()
	if s.metrics != nil {
		s.metrics.PresetReload(err)
	}
	if err != nil {
		s.log.Error("presets reload failed", zap.String("trigger", trigger), zap.String("file", s.presets.Path()), zap.Error(err))
		return nil, err
	}
	s.log.Info("presets reload ok",
		zap.String("trigger", trigger),
		zap.String("file", s.presets.Path()),
		zap.String("changed_presets", namesForLog(changed)),
	)
	return changed, nil
}

func namesForLog(names []string) string {
	if len(names) == 0 {
		return "<none>"
	}
	return strings.Join(names, ",")
}
