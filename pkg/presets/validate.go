package presets

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/r9s-ai/fractal/pkg/external"
)

// ValidationIssue ties a validation error to the preset and field it came from.
type ValidationIssue struct {
	Preset string
	Field  string
	Err    error
}

func (e *ValidationIssue) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return fmt.Sprintf("preset %q %s: %v", e.Preset, e.Field, e.Err)
}

func (e *ValidationIssue) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

type ValidateResult struct {
	Presets  int
	Errors   []*ValidationIssue
	Warnings []*ValidationIssue
}

func (r ValidateResult) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Errors))
	for _, e := range r.Errors {
		errs = append(errs, e)
	}
	return errors.Join(errs...)
}

var (
	errInvalidName   = errors.New("name must match [A-Za-z0-9_.-]+")
	errEmptyPreset   = errors.New("include and exclude are both empty")
	errIncludeAndOut = errors.New("path is both included and excluded")
	errDuplicate     = errors.New("duplicate default include")
)

// Validate checks a presets file. A missing file is an error here, unlike Load.
func Validate(path string) (ValidateResult, error) {
	if _, err := os.Stat(path); err != nil {
		return ValidateResult{}, fmt.Errorf("stat presets file %q: %w", path, err)
	}
	presets, err := readFile(path)
	if err != nil {
		return ValidateResult{}, err
	}
	res := ValidateResult{Presets: len(presets)}
	for _, name := range sortedNames(presets) {
		validatePreset(presets[name], &res)
	}
	return res, nil
}

func validatePreset(p Preset, res *ValidateResult) {
	if !presetNamePattern.MatchString(p.Name) {
		res.Errors = append(res.Errors, &ValidationIssue{Preset: p.Name, Field: "name", Err: errInvalidName})
	}
	s := p.Set()
	if s.Empty() {
		res.Errors = append(res.Errors, &ValidationIssue{Preset: p.Name, Field: "include", Err: errEmptyPreset})
	}
	seen := map[string]struct{}{}
	for _, item := range strings.Split(p.Include, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, dup := seen[item]; dup {
			res.Warnings = append(res.Warnings, &ValidationIssue{
				Preset: p.Name,
				Field:  "include",
				Err:    fmt.Errorf("%w: %s", errDuplicate, item),
			})
			continue
		}
		seen[item] = struct{}{}
	}
	included := map[string]struct{}{}
	for _, path := range s.Includes.Paths() {
		included[path] = struct{}{}
	}
	for _, path := range s.Excludes.Paths() {
		if _, ok := included[path]; ok {
			res.Warnings = append(res.Warnings, &ValidationIssue{
				Preset: p.Name,
				Field:  "exclude",
				Err:    fmt.Errorf("%w: %s", errIncludeAndOut, path),
			})
		}
	}
	probe := external.NewSet()
	for _, k := range sortedKeys(p.Externals) {
		if err := probe.Add(k, external.Const(p.Externals[k])); err != nil {
			res.Errors = append(res.Errors, &ValidationIssue{Preset: p.Name, Field: "externals", Err: err})
		}
	}
}

func sortedNames(m map[string]Preset) []string {
	r := &Registry{presets: m}
	return r.Names()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
