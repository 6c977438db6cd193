// Package urlmap resolves the portal link shown for each Secure Score control.
//
// A Table is loaded once from a JSON document with three sections:
// controlMappings (category → control title → URL), fallbackRules
// (rule name → keywords and portal URL) and urlReplacements (legacy URL
// fragment → replacement). Document order is significant for the last two
// sections, so the loader walks the token stream instead of decoding into maps.
package urlmap

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

//go:embed mappings.json
var defaultMappings []byte

// ErrMappingFile reports a mapping document that is missing or unparsable.
var ErrMappingFile = errors.New("url mapping file")

// FallbackRule routes a control to a portal page by keyword when no exact
// mapping exists.
type FallbackRule struct {
	Name     string
	Keywords []string
	URL      string

	patterns []*regexp.Regexp
}

// Matches reports whether title matches any of the rule's keywords.
func (r FallbackRule) Matches(title string) bool {
	for _, re := range r.patterns {
		if re.MatchString(title) {
			return true
		}
	}
	return false
}

// Replacement rewrites a legacy URL fragment.
type Replacement struct {
	Old string
	New string
}

// Collision records a control title mapped in more than one category.
// The later category wins.
type Collision struct {
	Name             string
	PreviousCategory string
	PreviousURL      string
	Category         string
	URL              string
}

// Stats summarizes a loaded table.
type Stats struct {
	Mappings     int
	Categories   int
	Rules        int
	Replacements int
	Collisions   int
}

// Table is the loaded mapping document. It is immutable after Load.
type Table struct {
	exact        map[string]string
	exactSource  map[string]string // title → category it was taken from
	categories   int
	rules        []FallbackRule
	replacements []Replacement
	collisions   []Collision
}

type ruleDoc struct {
	Keywords []string `json:"keywords"`
	URL      string   `json:"url"`
}

// Default returns the table built from the mapping document compiled into
// the binary.
func Default() (*Table, error) {
	return Load(bytes.NewReader(defaultMappings))
}

// LoadFile reads a mapping document from disk.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMappingFile, err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes a mapping document. Any syntax or structural problem is
// reported as ErrMappingFile.
func Load(r io.Reader) (*Table, error) {
	t := &Table{
		exact:       make(map[string]string),
		exactSource: make(map[string]string),
	}
	dec := jsontext.NewDecoder(r)
	if err := t.decode(dec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMappingFile, err)
	}
	if _, err := dec.ReadToken(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("unexpected data after the mapping object")
		}
		return nil, fmt.Errorf("%w: %w", ErrMappingFile, err)
	}
	return t, nil
}

// LogCollisions writes one warning per duplicated control title.
func (t *Table) LogCollisions(logger *slog.Logger) {
	for _, c := range t.collisions {
		logger.Warn("duplicate control mapping, later category wins",
			"control", c.Name,
			"previous_category", c.PreviousCategory,
			"category", c.Category,
			"url", c.URL,
		)
	}
}

// Lookup returns the exact mapping for a control title.
func (t *Table) Lookup(title string) (string, bool) {
	u, ok := t.exact[title]
	return u, ok
}

// Rules returns the fallback rules in document order.
func (t *Table) Rules() []FallbackRule {
	return append([]FallbackRule(nil), t.rules...)
}

// Replacements returns the literal replacements in document order.
func (t *Table) Replacements() []Replacement {
	return append([]Replacement(nil), t.replacements...)
}

// Collisions returns every title that was mapped more than once.
func (t *Table) Collisions() []Collision {
	return append([]Collision(nil), t.collisions...)
}

// Stats returns counts for the loaded document.
func (t *Table) Stats() Stats {
	return Stats{
		Mappings:     len(t.exact),
		Categories:   t.categories,
		Rules:        len(t.rules),
		Replacements: len(t.replacements),
		Collisions:   len(t.collisions),
	}
}

func (t *Table) decode(dec *jsontext.Decoder) error {
	return readObject(dec, func(section string) error {
		switch section {
		case "controlMappings":
			return readObject(dec, func(category string) error {
				t.categories++
				return readObject(dec, func(name string) error {
					u, err := readString(dec)
					if err != nil {
						return fmt.Errorf("controlMappings.%s.%s: %w", category, name, err)
					}
					t.addMapping(category, name, u)
					return nil
				})
			})
		case "fallbackRules":
			return readObject(dec, func(name string) error {
				v, err := dec.ReadValue()
				if err != nil {
					return err
				}
				var doc ruleDoc
				if err := json.Unmarshal(v, &doc); err != nil {
					return fmt.Errorf("fallbackRules.%s: %w", name, err)
				}
				rule, err := compileRule(name, doc)
				if err != nil {
					return err
				}
				t.rules = append(t.rules, rule)
				return nil
			})
		case "urlReplacements":
			return readObject(dec, func(old string) error {
				u, err := readString(dec)
				if err != nil {
					return fmt.Errorf("urlReplacements.%s: %w", old, err)
				}
				if old == "" {
					return fmt.Errorf("urlReplacements: empty source URL")
				}
				t.replacements = append(t.replacements, Replacement{Old: old, New: u})
				return nil
			})
		default:
			return dec.SkipValue()
		}
	})
}

func (t *Table) addMapping(category, name, u string) {
	if prev, ok := t.exact[name]; ok {
		t.collisions = append(t.collisions, Collision{
			Name:             name,
			PreviousCategory: t.exactSource[name],
			PreviousURL:      prev,
			Category:         category,
			URL:              u,
		})
	}
	t.exact[name] = u
	t.exactSource[name] = category
}

func compileRule(name string, doc ruleDoc) (FallbackRule, error) {
	if len(doc.Keywords) == 0 {
		return FallbackRule{}, fmt.Errorf("fallbackRules.%s: no keywords", name)
	}
	if strings.TrimSpace(doc.URL) == "" {
		return FallbackRule{}, fmt.Errorf("fallbackRules.%s: empty url", name)
	}
	rule := FallbackRule{Name: name, Keywords: doc.Keywords, URL: doc.URL}
	for _, kw := range doc.Keywords {
		if kw == "" {
			return FallbackRule{}, fmt.Errorf("fallbackRules.%s: empty keyword", name)
		}
		re, err := regexp.Compile("(?i)" + kw)
		if err != nil {
			return FallbackRule{}, fmt.Errorf("fallbackRules.%s: keyword %q: %w", name, kw, err)
		}
		rule.patterns = append(rule.patterns, re)
	}
	return rule, nil
}

// readObject consumes one JSON object, calling fn for every member name.
// fn must consume the member's value.
func readObject(dec *jsontext.Decoder, fn func(name string) error) error {
	tok, err := dec.ReadToken()
	if err != nil {
		return err
	}
	if tok.Kind() != '{' {
		return fmt.Errorf("expected object, found %v", tok.Kind())
	}
	for dec.PeekKind() != '}' {
		name, err := dec.ReadToken()
		if err != nil {
			return err
		}
		if err := fn(name.String()); err != nil {
			return err
		}
	}
	_, err = dec.ReadToken()
	return err
}

func readString(dec *jsontext.Decoder) (string, error) {
	tok, err := dec.ReadToken()
	if err != nil {
		return "", err
	}
	if tok.Kind() != '"' {
		return "", fmt.Errorf("expected string, found %v", tok.Kind())
	}
	return tok.String(), nil
}
