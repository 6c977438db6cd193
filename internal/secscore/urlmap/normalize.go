package urlmap

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

// ErrNotLoaded is returned when a Normalizer is used without a mapping table.
var ErrNotLoaded = errors.New("url mapping table not loaded")

var (
	httpRe        = regexp.MustCompile(`(?i)^https?://`)
	tidRe         = regexp.MustCompile(`[?&#]tid=[^&#]*`)
	azurePortalRe = regexp.MustCompile(`(?i)^https://portal\.azure\.com/`)
)

const (
	learnHost  = "learn.microsoft.com"
	entraHost  = "entra.microsoft.com"
	aadSegment = "Microsoft_AAD"
)

// portalHosts are the admin portals that accept a tid query parameter,
// commercial and sovereign.
var portalHosts = map[string]bool{
	"portal.azure.com":             true,
	"entra.microsoft.com":          true,
	"aad.portal.azure.com":         true,
	"portal.azure.us":              true,
	"entra.microsoft.us":           true,
	"aad.portal.azure.us":          true,
	"portal.azure.cn":              true,
	"entra.microsoftonline.cn":     true,
	"aad.portal.azure.cn":          true,
	"portal.microsoftazure.de":     true,
	"aad.portal.microsoftazure.de": true,
}

// Normalizer produces the link presented for each control.
type Normalizer struct {
	table *Table
}

// NewNormalizer binds a normalizer to a loaded table.
func NewNormalizer(table *Table) *Normalizer {
	return &Normalizer{table: table}
}

// Resolve returns the URL to show for a control.
//
// Order of precedence:
//   - an exact mapping for the title replaces rawURL
//   - a non-HTTP rawURL is replaced by a keyword fallback, or dropped
//   - a learn.microsoft.com rawURL is replaced by a keyword fallback if one matches
//
// The chosen URL then has legacy fragments rewritten, commercial Azure AD
// blades moved to the Entra admin center and, when tenantID is set, the
// tenant context injected.
func (n *Normalizer) Resolve(rawURL, title, tenantID string) (string, error) {
	if n == nil || n.table == nil {
		return "", ErrNotLoaded
	}

	u, ok := n.table.Lookup(title)
	switch {
	case ok:
	case !httpRe.MatchString(rawURL):
		u, _ = n.Fallback(title)
	case strings.Contains(strings.ToLower(rawURL), learnHost):
		u = rawURL
		if fb, ok := n.Fallback(title); ok {
			u = fb
		}
	default:
		u = rawURL
	}
	if u == "" {
		return "", nil
	}

	u = n.ApplyReplacements(u)
	u = toEntra(u)
	return InjectTenant(u, tenantID), nil
}

// Fallback returns the URL of the first rule, in document order, whose
// keywords match title.
func (n *Normalizer) Fallback(title string) (string, bool) {
	if n == nil || n.table == nil {
		return "", false
	}
	for _, r := range n.table.rules {
		if r.Matches(title) {
			return r.URL, true
		}
	}
	return "", false
}

// ApplyReplacements runs every literal replacement over u in table order.
// Each replacement sees the output of the previous one.
func (n *Normalizer) ApplyReplacements(u string) string {
	if n == nil || n.table == nil {
		return u
	}
	for _, r := range n.table.replacements {
		u = strings.ReplaceAll(u, r.Old, r.New)
	}
	return u
}

// toEntra moves Azure AD blades from the commercial Azure portal to the
// Entra admin center. Sovereign portals have no Entra equivalent and are
// left alone.
func toEntra(u string) string {
	if !strings.Contains(u, aadSegment) || strings.Contains(strings.ToLower(u), entraHost) {
		return u
	}
	return azurePortalRe.ReplaceAllString(u, "https://"+entraHost+"/")
}

// InjectTenant adds tenant context to portal links. The value of an
// existing tid parameter is replaced wherever it appears; otherwise tid is
// added to the query of known portal hosts, ahead of any fragment.
func InjectTenant(u, tenantID string) string {
	if tenantID == "" || u == "" {
		return u
	}
	if tidRe.MatchString(u) {
		return tidRe.ReplaceAllStringFunc(u, func(m string) string {
			return m[:1] + "tid=" + tenantID
		})
	}
	parsed, err := url.Parse(u)
	if err != nil || !portalHosts[strings.ToLower(parsed.Hostname())] {
		return u
	}

	tid := "tid=" + tenantID
	q, h := strings.IndexByte(u, '?'), strings.IndexByte(u, '#')
	switch {
	case q >= 0 && (h < 0 || q < h):
		return u[:q+1] + tid + "&" + u[q+1:]
	case h >= 0:
		return u[:h] + "?" + tid + u[h:]
	default:
		return u + "?" + tid
	}
}
