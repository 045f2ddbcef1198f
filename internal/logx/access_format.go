package logx

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"
)

type formatPart struct {
	literal string
	varName string
}

// AccessLogFormatter renders access lines from a "$var" template.
type AccessLogFormatter struct {
	parts []formatPart
}

const defaultAccessLogFormat = "$time_local | $status | $latency | $client_ip | $method $path | request_id=$request_id preset=$preset include=$include exclude=$exclude"

var accessLogFormatPresets = map[string]string{
	"fractal_combined": defaultAccessLogFormat + " include_keys=$include_keys exclude_keys=$exclude_keys option_paths=$option_paths cache=$cache",
	"fractal_minimal":  "$time_local | $status | $latency | $method $path | request_id=$request_id",
}

var allowedAccessLogVars = map[string]struct{}{
	"time_local":   {},
	"status":       {},
	"latency":      {},
	"latency_ms":   {},
	"client_ip":    {},
	"method":       {},
	"path":         {},
	"request_id":   {},
	"preset":       {},
	"include":      {},
	"exclude":      {},
	"include_keys": {},
	"exclude_keys": {},
	"option_paths": {},
	"cache":        {},
}

// ResolveAccessLogFormat picks the explicit format, then the preset, then the default line.
func ResolveAccessLogFormat(format string, preset string) (string, error) {
	if strings.TrimSpace(format) != "" {
		return format, nil
	}
	p := strings.ToLower(strings.TrimSpace(preset))
	if p == "" {
		return defaultAccessLogFormat, nil
	}
	out, ok := accessLogFormatPresets[p]
	if !ok {
		return "", fmt.Errorf("invalid access_log_format_preset: %q", preset)
	}
	return out, nil
}

func CompileAccessLogFormat(format string) (*AccessLogFormatter, error) {
	s := strings.TrimSpace(format)
	if s == "" {
		return nil, nil
	}
	parts := make([]formatPart, 0, 8)
	var lit strings.Builder

	flushLiteral := func() {
		if lit.Len() == 0 {
			return
		}
		parts = append(parts, formatPart{literal: lit.String()})
		lit.Reset()
	}

	for i := 0; i < len(format); i++ {
		ch := format[i]
		if ch != '$' {
			lit.WriteByte(ch)
			continue
		}
		if i+1 < len(format) && format[i+1] == '$' {
			lit.WriteByte('$')
			i++
			continue
		}
		flushLiteral()
		j := i + 1
		for j < len(format) {
			r := rune(format[j])
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
				break
			}
			j++
		}
		if j == i+1 {
			return nil, fmt.Errorf("invalid access_log_format: missing variable name after '$' at pos %d", i)
		}
		name := format[i+1 : j]
		if _, ok := allowedAccessLogVars[name]; !ok {
			return nil, fmt.Errorf("invalid access_log_format: unknown variable $%s", name)
		}
		parts = append(parts, formatPart{varName: name})
		i = j - 1
	}
	flushLiteral()
	return &AccessLogFormatter{parts: parts}, nil
}

// AccessLine is one finished request.
type AccessLine struct {
	Time     time.Time
	Status   int
	Latency  time.Duration
	ClientIP string
	Method   string
	Path     string
	Fields   map[string]any
}

func (f *AccessLogFormatter) Format(line AccessLine, color bool) string {
	if f == nil || len(f.parts) == 0 {
		return ""
	}
	vars := map[string]string{
		"time_local": line.Time.Format("2006/01/02 - 15:04:05"),
		"status":     ColorizeStatusWith(line.Status, color),
		"latency":    line.Latency.String(),
		"latency_ms": fmt.Sprintf("%d", line.Latency.Milliseconds()),
		"client_ip":  strings.TrimSpace(line.ClientIP),
		"method":     strings.TrimSpace(line.Method),
		"path":       line.Path,
	}
	for k, v := range line.Fields {
		s := strings.TrimSpace(fmt.Sprintf("%v", v))
		if s == "" || s == "<nil>" {
			continue
		}
		vars[k] = s
	}

	var b strings.Builder
	for _, p := range f.parts {
		if p.literal != "" {
			b.WriteString(p.literal)
			continue
		}
		v := strings.TrimSpace(vars[p.varName])
		if v == "" {
			b.WriteByte('-')
			continue
		}
		b.WriteString(v)
	}
	return b.String()
}

func AccessLogAllowedVars() []string {
	keys := make([]string, 0, len(allowedAccessLogVars))
	for k := range allowedAccessLogVars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
