// Package i18n holds the message catalogs behind every API error and
// success message. Catalogs are JSON files keyed by language tag.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
)

//go:embed locales/*.json
var localesFS embed.FS

// DefaultLanguage is used when a request names no language the catalog knows.
const DefaultLanguage = "en"

// aliases maps request tags (normalized to underscores) onto catalog names.
var aliases = map[string]string{
	"zh":      "zh_TW",
	"zh_Hant": "zh_TW",
	"zh_HK":   "zh_TW",
	"zh_MO":   "zh_TW",
}

type Catalog struct {
	mu       sync.RWMutex
	messages map[string]map[string]string
	fallback string
}

func NewCatalog(fallback string) *Catalog {
	if fallback == "" {
		fallback = DefaultLanguage
	}
	return &Catalog{messages: make(map[string]map[string]string), fallback: fallback}
}

// Load reads every <lang>.json file in dir. A file that fails to parse aborts
// the load and leaves the catalog unchanged.
func (c *Catalog) Load(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("failed to list locale directory %s: %w", dir, err)
	}

	loaded := make(map[string]map[string]string, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || path.Ext(name) != ".json" {
			continue
		}
		file := path.Join(dir, name)
		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			return fmt.Errorf("failed to read locale file %s: %w", file, err)
		}
		var messages map[string]string
		if err := json.Unmarshal(data, &messages); err != nil {
			return fmt.Errorf("failed to parse locale file %s: %w", file, err)
		}
		loaded[strings.TrimSuffix(name, ".json")] = messages
	}

	c.mu.Lock()
	for lang, messages := range loaded {
		c.messages[lang] = messages
	}
	c.mu.Unlock()
	return nil
}

// T renders key in lang, falling back to the catalog default and finally to
// the key itself.
func (c *Catalog) T(lang, key string, args ...interface{}) string {
	c.mu.RLock()
	text, ok := c.messages[lang][key]
	if !ok {
		text, ok = c.messages[c.fallback][key]
	}
	c.mu.RUnlock()

	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(text, args...)
	}
	return text
}

// Languages returns the loaded catalog names in sorted order.
func (c *Catalog) Languages() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	langs := make([]string, 0, len(c.messages))
	for lang := range c.messages {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

func (c *Catalog) has(lang string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.messages[lang]
	return ok
}

// Negotiate picks the best catalog for an Accept-Language header such as
// "zh-TW,zh;q=0.9,en;q=0.8". Tags are tried by descending quality, then by
// their base language. It reports false when no tag matches.
func (c *Catalog) Negotiate(header string) (string, bool) {
	for _, tag := range parseAcceptLanguage(header) {
		if alias, ok := aliases[tag]; ok && c.has(alias) {
			return alias, true
		}
		if c.has(tag) {
			return tag, true
		}
		base, _, _ := strings.Cut(tag, "_")
		if alias, ok := aliases[base]; ok && c.has(alias) {
			return alias, true
		}
		if c.has(base) {
			return base, true
		}
	}
	return "", false
}

type weightedTag struct {
	tag string
	q   float64
}

func parseAcceptLanguage(header string) []string {
	var tags []weightedTag
	for _, part := range strings.Split(header, ",") {
		tag, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		tag = strings.ReplaceAll(strings.TrimSpace(tag), "-", "_")
		if tag == "" || tag == "*" {
			continue
		}
		q := 1.0
		if v, ok := strings.CutPrefix(strings.TrimSpace(params), "q="); ok {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				q = parsed
			}
		}
		if q > 0 {
			tags = append(tags, weightedTag{tag: tag, q: q})
		}
	}
	sort.SliceStable(tags, func(i, j int) bool { return tags[i].q > tags[j].q })

	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = t.tag
	}
	return out
}

var (
	global   = NewCatalog(DefaultLanguage)
	initOnce sync.Once
	initErr  error
)

// Initialize loads the embedded catalogs into the process-wide catalog.
func Initialize() error {
	initOnce.Do(func() {
		initErr = global.Load(localesFS, "locales")
	})
	return initErr
}

func T(lang, key string, args ...interface{}) string {
	return global.T(lang, key, args...)
}

func Negotiate(header string) (string, bool) {
	return global.Negotiate(header)
}

func SupportedLanguages() []string {
	return global.Languages()
}
