// Package locale serves the dashboard's static key -> string tables, one per
// supported language.
package locale

import (
	"embed"
	"fmt"
	"io/fs"
	"maps"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed catalogs/*.yaml
var embedded embed.FS

// Language describes one available catalog.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type catalogFile struct {
	Name    string            `yaml:"name"`
	Strings map[string]string `yaml:"strings"`
}

// Catalog resolves keys per language. Missing keys fall back to the default
// language and then to the key itself.
type Catalog struct {
	defaultLang string
	files       map[string]catalogFile
	codes       []string
	matcher     language.Matcher
}

// Load reads the catalogs built into the binary.
func Load(defaultLang string) (*Catalog, error) {
	sub, err := fs.Sub(embedded, "catalogs")
	if err != nil {
		return nil, err
	}
	return LoadFS(sub, defaultLang)
}

// LoadFS reads every <code>.yaml file at the root of fsys.
func LoadFS(fsys fs.FS, defaultLang string) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read catalogs: %w", err)
	}

	c := &Catalog{defaultLang: defaultLang, files: map[string]catalogFile{}}
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".yaml" {
			continue
		}
		code := strings.TrimSuffix(entry.Name(), ".yaml")
		if _, err := language.Parse(code); err != nil {
			return nil, fmt.Errorf("catalog %s: %w", entry.Name(), err)
		}
		raw, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", entry.Name(), err)
		}
		var file catalogFile
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", entry.Name(), err)
		}
		if file.Strings == nil {
			file.Strings = map[string]string{}
		}
		c.files[code] = file
		c.codes = append(c.codes, code)
	}

	if _, ok := c.files[defaultLang]; !ok {
		return nil, fmt.Errorf("default language %q has no catalog", defaultLang)
	}

	// The matcher falls back to its first tag, so the default goes first.
	sort.Strings(c.codes)
	tags := []language.Tag{language.MustParse(defaultLang)}
	for _, code := range c.codes {
		if code != defaultLang {
			tags = append(tags, language.MustParse(code))
		}
	}
	c.matcher = language.NewMatcher(tags)
	return c, nil
}

// Default returns the fallback language code.
func (c *Catalog) Default() string { return c.defaultLang }

// Languages lists the available catalogs sorted by code.
func (c *Catalog) Languages() []Language {
	out := make([]Language, 0, len(c.codes))
	for _, code := range c.codes {
		out = append(out, Language{Code: code, Name: c.files[code].Name})
	}
	return out
}

// Supports reports whether a catalog exists for code.
func (c *Catalog) Supports(code string) bool {
	_, ok := c.files[code]
	return ok
}

// Resolve picks the best catalog for an Accept-Language header value or a
// bare language tag. Anything unparseable yields the default.
func (c *Catalog) Resolve(preference string) string {
	if c.Supports(preference) {
		return preference
	}
	tags, _, err := language.ParseAcceptLanguage(preference)
	if err != nil || len(tags) == 0 {
		return c.defaultLang
	}
	_, idx, conf := c.matcher.Match(tags...)
	if conf == language.No {
		return c.defaultLang
	}
	if idx == 0 {
		return c.defaultLang
	}
	return c.nonDefaultCodes()[idx-1]
}

// T translates key into lang.
func (c *Catalog) T(lang, key string) string {
	if s, ok := c.lookup(lang, key); ok {
		return s
	}
	return key
}

// Tf translates key and formats it with args. An unknown key comes back
// unformatted.
func (c *Catalog) Tf(lang, key string, args ...any) string {
	s, ok := c.lookup(lang, key)
	if !ok {
		return key
	}
	return fmt.Sprintf(s, args...)
}

func (c *Catalog) lookup(lang, key string) (string, bool) {
	if s, ok := c.files[lang].Strings[key]; ok {
		return s, true
	}
	s, ok := c.files[c.defaultLang].Strings[key]
	return s, ok
}

// Strings returns the full table for lang with default-language entries
// filling any gaps.
func (c *Catalog) Strings(lang string) (map[string]string, bool) {
	file, ok := c.files[lang]
	if !ok {
		return nil, false
	}
	out := maps.Clone(c.files[c.defaultLang].Strings)
	maps.Copy(out, file.Strings)
	return out, true
}

func (c *Catalog) nonDefaultCodes() []string {
	out := make([]string, 0, len(c.codes))
	for _, code := range c.codes {
		if code != c.defaultLang {
			out = append(out, code)
		}
	}
	return out
}
