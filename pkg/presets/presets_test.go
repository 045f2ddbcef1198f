package presets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writePresetsFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "presets.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write presets: %v", err)
	}
	return p
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	r, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if len(r.Names()) != 0 {
		t.Fatalf("expected no presets, got %v", r.Names())
	}
}

func TestLoad_ParsesPresets(t *testing.T) {
	path := writePresetsFile(t, `
presets:
  posts:
    include: "author,comments:limit[5],author"
    exclude: "author.email"
    externals:
      api_version: "v1"
      kind: "post"
  users:
    include: "roles"
`)
	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if got := r.Names(); len(got) != 2 || got[0] != "posts" || got[1] != "users" {
		t.Fatalf("names=%v", got)
	}
	p, ok := r.Get(" posts ")
	if !ok {
		t.Fatalf("posts preset missing")
	}
	if got := p.Defaults().Directive(); got != "author,comments:limit[5]" {
		t.Fatalf("defaults=%q", got)
	}
	s := p.Set()
	if !s.IncludesHas("comments") || !s.ExcludesHas("author.email") {
		t.Fatalf("unexpected set: %+v", s)
	}
	if !s.OptionsHasOption("comments", "limit") {
		t.Fatalf("expected limit option on comments")
	}
	ext := p.ExternalSet().Resolve(nil)
	if ext["api_version"] != "v1" || ext["kind"] != "post" {
		t.Fatalf("externals=%v", ext)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writePresetsFile(t, "presets: [")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestReload_ReportsChangedPresets(t *testing.T) {
	path := writePresetsFile(t, `
presets:
  posts:
    include: "author"
  users:
    include: "roles"
`)
	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if err := os.WriteFile(path, []byte(`
presets:
  posts:
    include: "author,comments"
  tags:
    include: "posts"
`), 0o600); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	changed, err := r.Reload()
	if err != nil {
		t.Fatalf("Reload err=%v", err)
	}
	want := []string{"posts", "tags", "users"}
	if len(changed) != len(want) {
		t.Fatalf("changed=%v want=%v", changed, want)
	}
	for i := range want {
		if changed[i] != want[i] {
			t.Fatalf("changed=%v want=%v", changed, want)
		}
	}
	if _, ok := r.Get("users"); ok {
		t.Fatalf("users should be gone after reload")
	}
}

func TestValidate(t *testing.T) {
	path := writePresetsFile(t, `
presets:
  "bad name":
    include: "a"
  empty:
    include: " , "
  overlap:
    include: "author,comments"
    exclude: "author,comments.likes"
  numeric:
    include: "a"
    externals:
      "42": "x"
`)
	res, err := Validate(path)
	if err != nil {
		t.Fatalf("Validate err=%v", err)
	}
	if res.Presets != 4 {
		t.Fatalf("presets=%d", res.Presets)
	}
	if len(res.Errors) != 3 {
		t.Fatalf("errors=%v", res.Errors)
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Preset != "overlap" {
		t.Fatalf("warnings=%v", res.Warnings)
	}
	if !errors.Is(res.Err(), errEmptyPreset) || !errors.Is(res.Err(), errInvalidName) {
		t.Fatalf("joined err=%v", res.Err())
	}
	if !errors.Is(res.Warnings[0], errIncludeAndOut) {
		t.Fatalf("warning should wrap errIncludeAndOut")
	}
}

func TestValidate_MissingFile(t *testing.T) {
	if _, err := Validate(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestValidate_DuplicateDefaults(t *testing.T) {
	path := writePresetsFile(t, `
presets:
  posts:
    include: "author, comments ,author"
`)
	res, err := Validate(path)
	if err != nil {
		t.Fatalf("Validate err=%v", err)
	}
	if res.Err() != nil {
		t.Fatalf("unexpected errors: %v", res.Err())
	}
	if len(res.Warnings) != 1 || !errors.Is(res.Warnings[0], errDuplicate) {
		t.Fatalf("warnings=%v", res.Warnings)
	}
}
