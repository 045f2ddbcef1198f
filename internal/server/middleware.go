package server

import (
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/r9s-ai/fractal/internal/logx"
	"github.com/r9s-ai/fractal/pkg/directive"
	"github.com/r9s-ai/fractal/pkg/requestid"
)

func requestIDMiddleware(headerKey string) gin.HandlerFunc {
	headerKey = requestid.ResolveHeaderKey(headerKey)
	return func(c *gin.Context) {
		id := requestid.Sanitize(c.GetHeader(headerKey))
		if id == "" {
			id = requestid.Gen()
		}
		c.Header(headerKey, id)
		c.Set(headerKey, id)
		c.Next()
	}
}

type contextFieldSpec struct {
	ctxKey string
	logKey string
}

var accessLogContextFieldSpecs = []contextFieldSpec{
	{ctxKey: ctxKeyPreset, logKey: "preset"},
	{ctxKey: ctxKeyInclude, logKey: "include"},
	{ctxKey: ctxKeyExclude, logKey: "exclude"},
	{ctxKey: ctxKeyCache, logKey: "cache"},
}

func requestLoggerWithColor(l *log.Logger, color bool, requestIDHeaderKey string, f *logx.AccessLogFormatter) gin.HandlerFunc {
	requestIDHeaderKey = requestid.ResolveHeaderKey(requestIDHeaderKey)
	if l == nil {
		l = log.New(os.Stdout, "", 0)
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		latency := time.Since(start)
		l.Println(f.Format(logx.AccessLine{
			Time:     time.Now(),
			Status:   c.Writer.Status(),
			Latency:  latency,
			ClientIP: c.ClientIP(),
			Method:   c.Request.Method,
			Path:     c.Request.URL.Path,
			Fields:   accessLogFields(c, requestIDHeaderKey),
		}, color))
	}
}

func accessLogFields(c *gin.Context, requestIDHeaderKey string) map[string]any {
	out := map[string]any{
		"request_id": c.GetString(requestIDHeaderKey),
	}
	for _, s := range accessLogContextFieldSpecs {
		if v, ok := c.Get(s.ctxKey); ok {
			out[s.logKey] = v
		}
	}
	if v, ok := c.Get(ctxKeyDirectives); ok {
		if set, ok := v.(directive.Set); ok {
			out["include_keys"] = set.Includes.String()
			out["exclude_keys"] = set.Excludes.String()
			out["option_paths"] = len(set.Options.Paths())
		}
	}
	return out
}

// directivesMiddleware parses the include/exclude/preset query parameters of
// every request and stores the resulting Set in both the gin context and the
// request context.
func (s *Server) directivesMiddleware() gin.HandlerFunc {
	dc := s.cfg.Directives
	return func(c *gin.Context) {
		include := c.Query(dc.IncludeParam)
		exclude := c.Query(dc.ExcludeParam)
		preset := c.Query(dc.PresetParam)
		if preset == "" {
			preset = c.Param("preset")
		}
		if !s.bindDirectives(c, include, exclude, preset) {
			return
		}
		c.Next()
	}
}

// bindDirectives resolves the raw values and stores them on c. On failure it
// aborts c with a JSON error and returns false.
func (s *Server) bindDirectives(c *gin.Context, include, exclude, preset string) bool {
	dc := s.cfg.Directives
	if err := s.checkLength(dc.IncludeParam, include); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	if err := s.checkLength(dc.ExcludeParam, exclude); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	res, err := s.resolve(include, exclude, preset)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errUnknownPreset) {
			status = http.StatusNotFound
		}
		c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
		return false
	}
	c.Set(ctxKeyDirectives, res.set)
	c.Set(ctxKeyInclude, include)
	c.Set(ctxKeyExclude, exclude)
	presetName := ""
	if res.preset != nil {
		presetName = res.preset.Name
	}
	c.Set(ctxKeyPreset, presetName)
	cache := "miss"
	if res.cached {
		cache = "hit"
	}
	c.Set(ctxKeyCache, cache)
	c.Request = c.Request.WithContext(directive.NewContext(c.Request.Context(), res.set))
	return true
}

// Directives returns the Set stored by the directives middleware.
func Directives(c *gin.Context) (directive.Set, bool) {
	if c == nil {
		return directive.Set{}, false
	}
	if v, ok := c.Get(ctxKeyDirectives); ok {
		if set, ok := v.(directive.Set); ok {
			return set, true
		}
	}
	return directive.FromContext(c.Request.Context())
}
