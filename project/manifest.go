// Copyright © 2024 The wlscope authors

// Package project reads the wlproject.toml manifest of a workspace.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

// ManifestName is the file name of a project manifest.
const ManifestName = "wlproject.toml"

// DefaultLanguageLevel is assumed when a manifest does not set one.
const DefaultLanguageLevel = "14.0"

// ErrInvalidManifest is wrapped by errors about manifest content.
var ErrInvalidManifest = errors.New("invalid project manifest")

// Manifest is the decoded content of wlproject.toml.
type Manifest struct {
	// LanguageLevel is the oldest Wolfram Language version the project
	// supports, such as "12.3".
	LanguageLevel string   `toml:"language_level" validate:"omitempty,langlevel"`
	Exclude       []string `toml:"exclude" validate:"dive,required"`
	Lint          Lint     `toml:"lint"`
}

// Lint configures the linter for the project.
type Lint struct {
	Disable []string `toml:"disable" validate:"dive,required"`
}

// Project is a manifest together with its location.
type Project struct {
	Path     string
	Root     string
	Manifest Manifest
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("langlevel", func(fl validator.FieldLevel) bool {
		_, err := ParseLanguageLevel(fl.Field().String())
		return err == nil
	})
	return v
}

// ParseLanguageLevel parses a version such as "13" or "12.3".
func ParseLanguageLevel(s string) (float64, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%w: bad language level %q", ErrInvalidManifest, s)
	}
	return v, nil
}

// Level returns the numeric language level of m.
func (m *Manifest) Level() float64 {
	s := m.LanguageLevel
	if s == "" {
		s = DefaultLanguageLevel
	}
	v, err := ParseLanguageLevel(s)
	if err != nil {
		v, _ = ParseLanguageLevel(DefaultLanguageLevel)
	}
	return v
}

// Excluded reports whether path matches one of the exclude globs.  Globs
// are relative to the project root.  A glob containing a slash matches the
// relative path or one of its parent directories; any other glob matches a
// single path element.
func (p *Project) Excluded(path string) bool {
	rel, err := filepath.Rel(p.Root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return false
	}
	elems := strings.Split(rel, "/")
	for _, glob := range p.Manifest.Exclude {
		glob = strings.TrimSuffix(filepath.ToSlash(glob), "/")
		if !strings.Contains(glob, "/") {
			for _, e := range elems {
				if ok, _ := filepath.Match(glob, e); ok {
					return true
				}
			}
			continue
		}
		for i := len(elems); i > 0; i-- {
			if ok, _ := filepath.Match(glob, strings.Join(elems[:i], "/")); ok {
				return true
			}
		}
	}
	return false
}

// Decode parses manifest content.  name is used in error messages.
func Decode(name, content string) (Manifest, error) {
	var m Manifest
	meta, err := toml.Decode(content, &m)
	if err != nil {
		return Manifest{}, fmt.Errorf("%s: %w: %w", name, ErrInvalidManifest, err)
	}
	if undec := meta.Undecoded(); len(undec) > 0 {
		return Manifest{}, fmt.Errorf("%s: %w: unknown key %s", name, ErrInvalidManifest, undec[0])
	}
	if err := validate.Struct(&m); err != nil {
		return Manifest{}, fmt.Errorf("%s: %w: %w", name, ErrInvalidManifest, err)
	}
	return m, nil
}

// Load reads the manifest at path.
func Load(path string) (*Project, error) {
	b, err := os.ReadFile(path) //nolint:gosec // manifest path comes from the user
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	m, err := Decode(path, string(b))
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return &Project{Path: abs, Root: filepath.Dir(abs), Manifest: m}, nil
}

// Find returns the path of the nearest manifest in dir or one of its
// parents.  The second result is false when there is none.
func Find(dir string) (string, bool, error) {
	if dir == "" {
		dir = "."
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", false, fmt.Errorf("resolving %s: %w", dir, err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("stat %s: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// Discover loads the nearest manifest above dir.  Without one it returns a
// project rooted at dir with an empty manifest.
func Discover(dir string) (*Project, error) {
	path, ok, err := Find(dir)
	if err != nil {
		return nil, err
	}
	if ok {
		return Load(path)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	return &Project{Root: abs}, nil
}
