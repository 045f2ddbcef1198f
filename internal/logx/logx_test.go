package logx

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestCompileAccessLogFormat(t *testing.T) {
	t.Run("empty returns nil", func(t *testing.T) {
		f, err := CompileAccessLogFormat("   ")
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if f != nil {
			t.Fatalf("expected nil formatter")
		}
	})

	t.Run("unknown variable fails", func(t *testing.T) {
		_, err := CompileAccessLogFormat("$unknown")
		if err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("render with missing var uses dash", func(t *testing.T) {
		f, err := CompileAccessLogFormat("$method $path $include")
		if err != nil {
			t.Fatalf("compile: %v", err)
		}
		out := f.Format(AccessLine{Time: time.Unix(0, 0), Status: 200, Latency: 1500 * time.Millisecond, Method: "GET", Path: "/v1/directives"}, false)
		if out != "GET /v1/directives -" {
			t.Fatalf("unexpected out: %q", out)
		}
	})

	t.Run("fields are rendered", func(t *testing.T) {
		f, err := CompileAccessLogFormat("include=$include cache=$cache")
		if err != nil {
			t.Fatalf("compile: %v", err)
		}
		out := f.Format(AccessLine{Fields: map[string]any{"include": "author", "cache": "hit"}}, false)
		if out != "include=author cache=hit" {
			t.Fatalf("unexpected out: %q", out)
		}
	})

	t.Run("dollar escape", func(t *testing.T) {
		f, err := CompileAccessLogFormat("$$ $status")
		if err != nil {
			t.Fatalf("compile: %v", err)
		}
		out := f.Format(AccessLine{Time: time.Unix(0, 0), Status: 200}, false)
		if !strings.HasPrefix(out, "$ 200") {
			t.Fatalf("unexpected out: %q", out)
		}
	})
}

func TestResolveAccessLogFormat(t *testing.T) {
	got, err := ResolveAccessLogFormat("", "")
	if err != nil || got != defaultAccessLogFormat {
		t.Fatalf("default format=%q err=%v", got, err)
	}
	got, err = ResolveAccessLogFormat("", " Fractal_Minimal ")
	if err != nil || got != accessLogFormatPresets["fractal_minimal"] {
		t.Fatalf("preset format=%q err=%v", got, err)
	}
	if _, err := ResolveAccessLogFormat("", "nope"); err == nil {
		t.Fatalf("expected error for unknown preset")
	}
	for _, p := range accessLogFormatPresets {
		if _, err := CompileAccessLogFormat(p); err != nil {
			t.Fatalf("preset %q does not compile: %v", p, err)
		}
	}
}

func TestColorizeStatusWith(t *testing.T) {
	if got := ColorizeStatusWith(404, false); got != "404" {
		t.Fatalf("plain=%q", got)
	}
	if got := ColorizeStatusWith(500, true); !strings.HasPrefix(got, colorRed) || !strings.HasSuffix(got, colorReset) {
		t.Fatalf("colored=%q", got)
	}
	if IsTerminal(&bytes.Buffer{}) {
		t.Fatalf("buffer is not a terminal")
	}
}

func TestNewLogger(t *testing.T) {
	l, err := New("debug", true)
	if err != nil || l == nil {
		t.Fatalf("New err=%v", err)
	}
	if _, err := New("loud", false); err == nil {
		t.Fatalf("expected error for invalid level")
	}
}
