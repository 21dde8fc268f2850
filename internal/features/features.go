// Package features turns a URL string into the ten descriptive values the
// scoring models consume, and scales them into a fixed [0,1] vector.
package features

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
)

// ErrInvalidURL is matched (errors.Is) by every InvalidURLError.
var ErrInvalidURL = errors.New("invalid url")

// InvalidURLError reports an input that cannot be read as an absolute URL.
type InvalidURLError struct {
	Input  string
	Reason string
	Err    error
}

func (e *InvalidURLError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid url %q: %s: %v", e.Input, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid url %q: %s", e.Input, e.Reason)
}

func (e *InvalidURLError) Unwrap() error { return e.Err }

func (e *InvalidURLError) Is(target error) bool { return target == ErrInvalidURL }

// RawFeatures are the unscaled values read off a URL. JSON keys keep the
// names the dashboard already displays.
type RawFeatures struct {
	DomainLength    int  `json:"domainLength"`
	HasSubdomain    bool `json:"hasSubdomain"`
	HasHTTPS        bool `json:"hasHttps"`
	PathLength      int  `json:"pathLength"`
	HasSpecialChars bool `json:"hasSpecialChars"`
	HasNumbers      bool `json:"hasNumbers"`
	HasDash         bool `json:"hasDash"`
	TLDLength       int  `json:"tldLength"`
	QueryParamCount int  `json:"queryParamCount"`
	DomainDotsCount int  `json:"domainDotsCount"`
}

// Schemes whose empty path is reported as "/".
var hierarchicalSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"ws":    true,
	"wss":   true,
	"ftp":   true,
	"file":  true,
}

// Extract parses rawURL and derives its RawFeatures. It fails with an
// *InvalidURLError when the input has no scheme or no host.
func Extract(rawURL string) (RawFeatures, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return RawFeatures{}, &InvalidURLError{Input: rawURL, Reason: "parse failed", Err: err}
	}
	if u.Scheme == "" {
		return RawFeatures{}, &InvalidURLError{Input: rawURL, Reason: "missing scheme"}
	}
	if u.Hostname() == "" {
		return RawFeatures{}, &InvalidURLError{Input: rawURL, Reason: "missing host"}
	}

	host := hostname(u)
	labels := strings.Split(host, ".")

	path := u.EscapedPath()
	if hierarchicalSchemes[strings.ToLower(u.Scheme)] {
		if path == "" {
			path = "/"
		}
		path = removeDotSegments(path)
	}

	return RawFeatures{
		DomainLength:    utf8.RuneCountInString(host),
		HasSubdomain:    len(labels) > 2,
		HasHTTPS:        strings.HasPrefix(rawURL, "https://"),
		PathLength:      utf8.RuneCountInString(path),
		HasSpecialChars: strings.IndexFunc(host, isSpecialHostRune) >= 0,
		HasNumbers:      strings.ContainsAny(host, "0123456789"),
		HasDash:         strings.Contains(host, "-"),
		TLDLength:       utf8.RuneCountInString(labels[len(labels)-1]),
		QueryParamCount: countQueryParams(u.RawQuery),
		DomainDotsCount: strings.Count(host, "."),
	}, nil
}

// removeDotSegments resolves "." and ".." segments the way a browser does
// for an absolute path. A trailing dot segment leaves a trailing slash.
func removeDotSegments(p string) string {
	if !strings.HasPrefix(p, "/") {
		return p
	}
	segs := strings.Split(p[1:], "/")
	out := make([]string, 0, len(segs))
	for i, seg := range segs {
		last := i == len(segs)-1
		switch strings.ToLower(seg) {
		case "..", ".%2e", "%2e.", "%2e%2e":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
			if last {
				out = append(out, "")
			}
		case ".", "%2e":
			if last {
				out = append(out, "")
			}
		default:
			out = append(out, seg)
		}
	}
	return "/" + strings.Join(out, "/")
}

// hostname returns the host the way a browser reports it: lower case,
// internationalized labels in punycode, IPv6 literals bracketed.
func hostname(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	if strings.Contains(host, ":") {
		return "[" + host + "]"
	}
	if isASCII(host) {
		return host
	}
	if ascii, err := idna.Lookup.ToASCII(host); err == nil && ascii != "" {
		return ascii
	}
	if ascii, err := idna.Punycode.ToASCII(host); err == nil && ascii != "" {
		return ascii
	}
	return host
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func isSpecialHostRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	case r == '.' || r == '-':
		return false
	}
	return true
}

// countQueryParams counts the non-empty "&"-separated entries of a raw query.
func countQueryParams(rawQuery string) int {
	if rawQuery == "" {
		return 0
	}
	n := 0
	for _, part := range strings.Split(rawQuery, "&") {
		if part != "" {
			n++
		}
	}
	return n
}
