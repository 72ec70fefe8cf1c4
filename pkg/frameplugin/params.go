// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package frameplugin

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// ParamKind is the value type of a parameter.
type ParamKind uint8

// Parameter kinds.
const (
	ParamString ParamKind = iota
	ParamInt
	ParamFloat
	ParamBool
)

func (k ParamKind) String() string {
	switch k {
	case ParamInt:
		return "int"
	case ParamFloat:
		return "float"
	case ParamBool:
		return "bool"
	default:
		return "string"
	}
}

// ParamSpec declares one recognized parameter and its coercion rules.
//
// Numeric values are clamped to [Min, Max]. With Odd set, even integers
// are bumped up by one before clamping.
type ParamSpec struct {
	Key         string    `json:"key" yaml:"key"`
	Kind        ParamKind `json:"kind" yaml:"kind"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Default     string    `json:"default" yaml:"default"`
	Min         float64   `json:"min" yaml:"min"`
	Max         float64   `json:"max" yaml:"max"`
	Odd         bool      `json:"odd,omitempty" yaml:"odd,omitempty"`
}

// IntParam declares an integer parameter clamped to [lo, hi].
func IntParam(key string, def, lo, hi int, desc string) ParamSpec {
	return ParamSpec{Key: key, Kind: ParamInt, Description: desc, Default: strconv.Itoa(def), Min: float64(lo), Max: float64(hi)}
}

// OddIntParam declares an integer parameter forced odd and clamped to
// [lo, hi]. An even value is bumped up by one, or down when that would
// exceed hi.
func OddIntParam(key string, def, lo, hi int, desc string) ParamSpec {
	s := IntParam(key, def, lo, hi, desc)
	s.Odd = true
	return s
}

// FloatParam declares a float parameter clamped to [lo, hi].
func FloatParam(key string, def, lo, hi float64, desc string) ParamSpec {
	return ParamSpec{Key: key, Kind: ParamFloat, Description: desc, Default: strconv.FormatFloat(def, 'g', -1, 64), Min: lo, Max: hi}
}

// BoolParam declares a boolean parameter.
func BoolParam(key string, def bool, desc string) ParamSpec {
	return ParamSpec{Key: key, Kind: ParamBool, Description: desc, Default: strconv.FormatBool(def)}
}

// StringParam declares a free-form parameter.
func StringParam(key, def, desc string) ParamSpec {
	return ParamSpec{Key: key, Kind: ParamString, Description: desc, Default: def}
}

// ParamIssue records a parameter that was ignored or coerced.
type ParamIssue struct {
	Key    string
	Value  string
	Reason string
}

func (i ParamIssue) String() string {
	if i.Key == "" {
		return fmt.Sprintf("%q: %s", i.Value, i.Reason)
	}
	return fmt.Sprintf("%s=%q: %s", i.Key, i.Value, i.Reason)
}

// Pair is one key=value entry of a parameter string.
type Pair struct {
	Key   string
	Value string
}

var paramLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_.\-]*`},
	{Name: "Eq", Pattern: `=`},
	{Name: "Sep", Pattern: `[:,;]`},
	{Name: "Value", Pattern: `[^\s=:,;]+`},
	{Name: "whitespace", Pattern: `\s+`},
})

// paramList is the grammar of a parameter string:
//
//	list  = sep* (entry sep*)*
//	entry = Ident ("=" value?)? | junk
type paramList struct {
	Entries []*paramEntry `parser:"Sep* ( @@ Sep* )*"`
}

type paramEntry struct {
	Pos  lexer.Position
	Pair *paramPair `parser:"  @@"`
	Junk string     `parser:"| @( Value | Eq )"`
}

type paramPair struct {
	Key    string       `parser:"@Ident"`
	Assign *paramAssign `parser:"@@?"`
}

type paramAssign struct {
	Eq    string `parser:"@Eq"`
	Value string `parser:"@( Ident | Value )?"`
}

var paramParser = participle.MustBuild[paramList](participle.Lexer(paramLexer))

// ParsePairs splits a parameter string into key=value pairs. Entries that
// are not pairs are reported as issues and skipped.
func ParsePairs(raw string) ([]Pair, []ParamIssue) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	list, err := paramParser.ParseString("", raw)
	if err != nil {
		return nil, []ParamIssue{{Value: raw, Reason: err.Error()}}
	}

	var (
		pairs  []Pair
		issues []ParamIssue
	)
	for _, e := range list.Entries {
		switch {
		case e.Pair == nil:
			issues = append(issues, ParamIssue{Value: e.Junk, Reason: "not a key=value pair"})
		case e.Pair.Assign == nil:
			issues = append(issues, ParamIssue{Key: e.Pair.Key, Reason: "missing value"})
		default:
			pairs = append(pairs, Pair{Key: e.Pair.Key, Value: e.Pair.Assign.Value})
		}
	}
	return pairs, issues
}

// Params holds the decoded values of a parameter string. Keys that were
// not supplied, or whose value was rejected, hold their declared default.
type Params struct {
	specs  map[string]ParamSpec
	values map[string]string
	set    map[string]bool
}

// ParseParams decodes raw against specs. Unknown keys, duplicates and
// unparsable values are ignored; out-of-range numbers are clamped. Every
// deviation is reported as an issue. Parsing itself never fails.
func ParseParams(raw string, specs []ParamSpec) (Params, []ParamIssue) {
	p := Params{
		specs:  make(map[string]ParamSpec, len(specs)),
		values: make(map[string]string, len(specs)),
		set:    make(map[string]bool),
	}
	for _, s := range specs {
		p.specs[s.Key] = s
		p.values[s.Key] = s.Default
	}

	pairs, issues := ParsePairs(raw)
	for _, kv := range pairs {
		spec, ok := p.specs[kv.Key]
		if !ok {
			issues = append(issues, ParamIssue{Key: kv.Key, Value: kv.Value, Reason: "unknown parameter"})
			continue
		}
		if p.set[kv.Key] {
			issues = append(issues, ParamIssue{Key: kv.Key, Value: kv.Value, Reason: "duplicate parameter ignored"})
			continue
		}
		v, reason := coerce(spec, kv.Value)
		if v == "" && reason != "" {
			issues = append(issues, ParamIssue{Key: kv.Key, Value: kv.Value, Reason: reason})
			continue
		}
		if reason != "" {
			issues = append(issues, ParamIssue{Key: kv.Key, Value: kv.Value, Reason: reason})
		}
		p.values[kv.Key] = v
		p.set[kv.Key] = true
	}
	return p, issues
}

// coerce normalizes value for spec. It returns the empty string with a
// reason when the value is unusable, or a value and a non-empty reason
// when it had to be adjusted.
func coerce(spec ParamSpec, value string) (string, string) {
	switch spec.Kind {
	case ParamInt:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || math.IsNaN(f) {
			return "", "not a number"
		}
		lo, hi := intRange(spec)
		t := math.Trunc(f)
		reason := ""
		if t != f {
			reason = "truncated to integer"
		}
		// Clamp before converting: int() of a huge or infinite float is
		// undefined.
		c := math.Max(lo, math.Min(hi, t))
		if c != t {
			reason = "clamped to range"
		}
		n := int(c)
		if spec.Odd && n%2 == 0 {
			if float64(n+1) <= hi {
				n++
				reason = "rounded up to odd"
			} else {
				n--
				reason = "clamped to range"
			}
		}
		return strconv.Itoa(n), reason
	case ParamFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || math.IsNaN(f) {
			return "", "not a number"
		}
		c := clamp(f, spec.Min, spec.Max)
		reason := ""
		if c != f {
			reason = "clamped to range"
		}
		return strconv.FormatFloat(c, 'g', -1, 64), reason
	case ParamBool:
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return "", "not a boolean"
		}
		return strconv.FormatBool(b), ""
	default:
		return value, ""
	}
}

// intRange returns the bounds for an integer spec. Without a declared
// range values are kept within int32.
func intRange(spec ParamSpec) (float64, float64) {
	if spec.Min == 0 && spec.Max == 0 {
		return math.MinInt32, math.MaxInt32
	}
	return spec.Min, spec.Max
}

func clamp(v, lo, hi float64) float64 {
	if lo == 0 && hi == 0 {
		return v
	}
	return math.Max(lo, math.Min(hi, v))
}

// IsSet reports whether key was supplied with a usable value.
func (p Params) IsSet(key string) bool { return p.set[key] }

// String returns the value of key, or "" for undeclared keys.
func (p Params) String(key string) string { return p.values[key] }

// Int returns the integer value of key.
func (p Params) Int(key string) int {
	n, _ := strconv.Atoi(p.values[key])
	return n
}

// Float returns the float value of key.
func (p Params) Float(key string) float64 {
	f, _ := strconv.ParseFloat(p.values[key], 64)
	return f
}

// Bool returns the boolean value of key.
func (p Params) Bool(key string) bool {
	b, _ := strconv.ParseBool(p.values[key])
	return b
}
