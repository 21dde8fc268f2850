package features

import "math"

// VectorLen is the fixed number of normalized features.
const VectorLen = 10

// Positions of each feature inside a Vector.
const (
	IdxDomainLength = iota
	IdxSubdomain
	IdxNoHTTPS
	IdxPathLength
	IdxSpecialChars
	IdxNumbers
	IdxDash
	IdxTLDLength
	IdxQueryParams
	IdxDomainDots
)

// Scaling constants. Hand-picked, not derived from any corpus.
const (
	domainLengthScale = 30.0
	pathLengthScale   = 50.0
	tldLengthScale    = 10.0
	queryParamScale   = 5.0
	domainDotsScale   = 5.0
)

// Vector is the normalized encoding of RawFeatures; every element is in [0,1].
type Vector [VectorLen]float64

// Names labels each Vector position for display.
var Names = [VectorLen]string{
	"domain_length",
	"has_subdomain",
	"no_https",
	"path_length",
	"has_special_chars",
	"has_numbers",
	"has_dash",
	"tld_length",
	"query_param_count",
	"domain_dots_count",
}

// Normalize scales f into a Vector. Note that HTTPS is inverted: a missing
// HTTPS scheme yields 1.
func Normalize(f RawFeatures) Vector {
	return Vector{
		scale(f.DomainLength, domainLengthScale),
		flag(f.HasSubdomain),
		flag(!f.HasHTTPS),
		scale(f.PathLength, pathLengthScale),
		flag(f.HasSpecialChars),
		flag(f.HasNumbers),
		flag(f.HasDash),
		scale(f.TLDLength, tldLengthScale),
		scale(f.QueryParamCount, queryParamScale),
		scale(f.DomainDotsCount, domainDotsScale),
	}
}

// Valid reports whether every element lies within [0,1].
func (v Vector) Valid() bool {
	for _, x := range v {
		if math.IsNaN(x) || x < 0 || x > 1 {
			return false
		}
	}
	return true
}

// Map returns the vector keyed by feature name.
func (v Vector) Map() map[string]float64 {
	m := make(map[string]float64, VectorLen)
	for i, x := range v {
		m[Names[i]] = x
	}
	return m
}

func scale(n int, limit float64) float64 {
	if n <= 0 {
		return 0
	}
	return math.Min(float64(n)/limit, 1)
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
