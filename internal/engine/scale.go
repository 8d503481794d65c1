package engine

import "math"

// ScaleMode selects how an axis maps data values to pixels.
type ScaleMode string

const (
	ScaleAuto   ScaleMode = "auto"
	ScaleLinear ScaleMode = "linear"
	ScaleSymlog ScaleMode = "symlog"
)

const (
	DefaultPaddingPercent  = 5.0
	MinDomainPadding       = 1.0
	DefaultSymlogThreshold = 1e6

	// symlogConstant is the width of the linear region around zero.
	symlogConstant = 1.0
)

// DefaultDomain replaces empty, degenerate or non-finite domains.
var DefaultDomain = Domain{Min: 0, Max: 100}

// Domain is the data-space interval covered by an axis.
type Domain struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (d Domain) Span() float64 {
	return d.Max - d.Min
}

// IsDegenerate reports whether the domain cannot back a scale.
func (d Domain) IsDegenerate() bool {
	return !isFinite(d.Min) || !isFinite(d.Max) || d.Min >= d.Max
}

// PaddedDomain returns the extent of values widened on both sides by
// max(span*paddingPercent/100, MinDomainPadding). Non-finite values are
// ignored; an empty input yields DefaultDomain.
func PaddedDomain(values []float64, paddingPercent float64) Domain {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if !isFinite(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo > hi {
		return DefaultDomain
	}
	if !isFinite(paddingPercent) || paddingPercent < 0 {
		paddingPercent = DefaultPaddingPercent
	}

	pad := math.Max((hi-lo)*paddingPercent/100, MinDomainPadding)
	d := Domain{Min: lo - pad, Max: hi + pad}
	if d.IsDegenerate() {
		return DefaultDomain
	}
	return d
}

// ResolveMode applies an explicit linear/symlog override unconditionally.
// Otherwise symlog is chosen when the span exceeds threshold.
func ResolveMode(d Domain, override ScaleMode, threshold float64) ScaleMode {
	switch override {
	case ScaleLinear, ScaleSymlog:
		return override
	}
	if threshold <= 0 || !isFinite(threshold) {
		threshold = DefaultSymlogThreshold
	}
	if d.Span() > threshold {
		return ScaleSymlog
	}
	return ScaleLinear
}

// Scale maps a data domain onto a pixel range and back.
type Scale struct {
	mode   ScaleMode
	domain Domain
	r0, r1 float64
	t0, t1 float64 // domain bounds after the mode's transfer function
}

// BuildScale never returns a degenerate scale: bad domains fall back to
// DefaultDomain and unknown modes to linear.
func BuildScale(d Domain, r0, r1 float64, mode ScaleMode) Scale {
	if d.IsDegenerate() {
		d = DefaultDomain
	}
	if mode != ScaleSymlog {
		mode = ScaleLinear
	}
	s := Scale{mode: mode, domain: d, r0: r0, r1: r1}
	s.t0, s.t1 = s.forward(d.Min), s.forward(d.Max)
	return s
}

func (s Scale) Mode() ScaleMode { return s.mode }

func (s Scale) Domain() Domain { return s.domain }

func (s Scale) Range() (float64, float64) { return s.r0, s.r1 }

// Apply maps a data value to a pixel.
func (s Scale) Apply(v float64) float64 {
	return s.r0 + (s.forward(v)-s.t0)*(s.r1-s.r0)/(s.t1-s.t0)
}

// Invert maps a pixel back to a data value.
func (s Scale) Invert(px float64) float64 {
	if s.r1 == s.r0 {
		return s.domain.Min
	}
	return s.backward(s.t0 + (px-s.r0)*(s.t1-s.t0)/(s.r1-s.r0))
}

func (s Scale) forward(v float64) float64 {
	if s.mode == ScaleSymlog {
		return symlog(v)
	}
	return v
}

func (s Scale) backward(v float64) float64 {
	if s.mode == ScaleSymlog {
		return symexp(v)
	}
	return v
}

func symlog(v float64) float64 {
	return math.Copysign(math.Log1p(math.Abs(v)/symlogConstant), v)
}

func symexp(v float64) float64 {
	return math.Copysign(math.Expm1(math.Abs(v))*symlogConstant, v)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
