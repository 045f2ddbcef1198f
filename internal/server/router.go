package server

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/r9s-ai/fractal/internal/metrics"
	"github.com/r9s-ai/fractal/internal/version"
	"github.com/r9s-ai/fractal/pkg/directive"
	"github.com/r9s-ai/fractal/pkg/presets"
)

// Router builds the gin engine.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(requestIDMiddleware(s.requestIDHeader))
	if s.cfg.Logging.AccessLog {
		r.Use(requestLoggerWithColor(s.accessLogger, s.accessColor, s.requestIDHeader, s.accessFormatter))
	}
	r.Use(gin.Recovery())
	if s.cfg.CORS.Enabled {
		r.Use(cors.New(corsConfig(s.cfg.CORS.AllowOrigins, s.requestIDHeader)))
	}
	if s.metrics != nil && s.cfg.Metrics.Enabled {
		r.Use(metrics.Middleware(s.metrics))
		r.GET(s.cfg.Metrics.Path, gin.WrapH(s.metrics.Handler()))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "version": version.Get().Version})
	})

	v1 := r.Group("/v1")
	v1.GET("/presets", s.handleListPresets)

	// The body can override any query value, so parse resolves on its own.
	v1.POST("/directives/parse", s.handleParse)

	parsed := v1.Group("/")
	parsed.Use(s.directivesMiddleware())
	parsed.GET("/directives", s.handleDirectives)
	// Same as /directives?preset=:preset.
	parsed.GET("/presets/:preset/directives", s.handleDirectives)

	return r
}

func corsConfig(origins []string, requestIDHeader string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	cfg.ExposeHeaders = []string{requestIDHeader}
	cfg.MaxAge = 12 * time.Hour
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "*" {
			cfg.AllowAllOrigins = true
			cfg.AllowOrigins = nil
			return cfg
		}
		cfg.AllowOrigins = append(cfg.AllowOrigins, o)
	}
	return cfg
}

func (s *Server) handleDirectives(c *gin.Context) {
	set, _ := Directives(c)
	c.JSON(http.StatusOK, s.directivesBody(c, set))
}

type parseRequest struct {
	Include *string `json:"include"`
	Exclude *string `json:"exclude"`
	Preset  *string `json:"preset"`
}

// handleParse parses the directives in the JSON body. Fields present in the
// body take priority over the query parameters.
func (s *Server) handleParse(c *gin.Context) {
	var req parseRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json body: " + err.Error()})
		return
	}
	dc := s.cfg.Directives
	include := pick(req.Include, c.Query(dc.IncludeParam))
	exclude := pick(req.Exclude, c.Query(dc.ExcludeParam))
	preset := pick(req.Preset, c.Query(dc.PresetParam))
	if !s.bindDirectives(c, include, exclude, preset) {
		return
	}
	set, _ := Directives(c)
	c.JSON(http.StatusOK, s.directivesBody(c, set))
}

func pick(body *string, fallback string) string {
	if body != nil {
		return *body
	}
	return fallback
}

// directivesBody renders set overlaid on the request externals.
func (s *Server) directivesBody(c *gin.Context, set directive.Set) map[string]any {
	var preset *presets.Preset
	if name := c.GetString(ctxKeyPreset); name != "" {
		if p, ok := s.presets.Get(name); ok {
			preset = &p
		}
	}
	return s.externals(preset).Apply(c, map[string]any{
		"includes": set.Includes,
		"excludes": set.Excludes,
		"options":  set.Options,
	})
}

type presetView struct {
	Name      string            `json:"name"`
	Include   string            `json:"include"`
	Exclude   string            `json:"exclude"`
	Externals map[string]string `json:"externals,omitempty"`
}

func (s *Server) handleListPresets(c *gin.Context) {
	names := s.presets.Names()
	out := make([]presetView, 0, len(names))
	for _, name := range names {
		p, ok := s.presets.Get(name)
		if !ok {
			continue
		}
		out = append(out, presetView{Name: p.Name, Include: p.Include, Exclude: p.Exclude, Externals: p.Externals})
	}
	c.JSON(http.StatusOK, gin.H{"presets": out})
}
