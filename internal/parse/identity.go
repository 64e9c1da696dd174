package parse

import (
	"crypto/sha256"
	"encoding/base64"
	"net/url"
	"strings"
	"unicode"
)

const (
	maxURLIDLen = 200
	hashIDLen   = 32
)

// NormalizeURL turns raw into an absolute http(s) URL on p's board. A bare
// native key becomes the board's view URL, relative paths resolve against
// p.Host, and fragments are dropped. Returns "" when raw is unusable.
func NormalizeURL(raw string, p *Profile) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if p == nil {
		p = Generic
	}
	if p.BareKey != nil && p.BareKey.MatchString(raw) && p.Host != "" {
		return p.Host + "/viewjob?jk=" + strings.ToLower(raw)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if !u.IsAbs() {
		switch {
		case u.Host != "":
			u.Scheme = "https"
		case strings.HasPrefix(raw, "/") && p.Host != "":
			base, _ := url.Parse(p.Host)
			u = base.ResolveReference(u)
		default:
			return ""
		}
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}

	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	if p.StripQuery {
		u.RawQuery = ""
	}
	return u.String()
}

// ResolveURL resolves href against base when href is relative and base is
// absolute. Otherwise href is returned trimmed.
func ResolveURL(href, base string) string {
	href = strings.TrimSpace(href)
	b, err := url.Parse(strings.TrimSpace(base))
	if err != nil || !b.IsAbs() {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil || ref.IsAbs() {
		return href
	}
	return b.ResolveReference(ref).String()
}

// ExternalID derives the dedup key for a posting URL: the board's native
// job key, else the normalized URL when short enough, else HashID.
func ExternalID(rawURL string, p *Profile) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	if p == nil {
		p = Generic
	}
	if key := p.Key(rawURL); key != "" {
		return key
	}
	if p.BareKey != nil && p.BareKey.MatchString(rawURL) {
		return strings.ToLower(rawURL)
	}

	norm := NormalizeURL(rawURL, p)
	if key := p.Key(norm); key != "" {
		return key
	}
	if norm != "" && len(norm) <= maxURLIDLen {
		return norm
	}
	if norm != "" {
		return HashID(norm)
	}
	return HashID(rawURL)
}

// HashID is a deterministic 32-character alphanumeric digest of s.
func HashID(s string) string {
	sum := sha256.Sum256([]byte(s))
	enc := base64.StdEncoding.EncodeToString(sum[:])
	id := strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return r
		}
		return -1
	}, enc)
	if len(id) > hashIDLen {
		id = id[:hashIDLen]
	}
	return id
}
