package domain

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// FieldSet is the decoded form body of one gateway upload. It is read-only.
type FieldSet map[string]string

// FieldSetFromValues flattens decoded form values, keeping the first value of
// repeated keys.
func FieldSetFromValues(values url.Values) FieldSet {
	fields := make(FieldSet, len(values))
	for k, v := range values {
		if len(v) > 0 {
			fields[k] = v[0]
		}
	}
	return fields
}

// Has reports whether key was sent, regardless of its value.
func (f FieldSet) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// Float parses key as a finite number. Missing keys, non-numeric strings,
// NaN and ±Inf all report ok=false.
func (f FieldSet) Float(key string) (float64, bool) {
	s, ok := f[key]
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Int parses key as a number and truncates it toward zero, so "3.7" is 3.
// Magnitudes beyond math.MaxInt32 report ok=false.
func (f FieldSet) Int(key string) (int, bool) {
	v, ok := f.Float(key)
	if !ok || math.Abs(v) > math.MaxInt32 {
		return 0, false
	}
	return int(math.Trunc(v)), true
}

// Observation is one Signal K path and its SI value.
type Observation struct {
	Path  string  `json:"path"`
	Value float64 `json:"value"`
}

// Batch is the ordered list of observations produced from one upload.
// Duplicate paths are allowed; order of insertion is preserved.
type Batch []Observation

// add appends an observation unless value is NaN or ±Inf. Extreme but
// parseable inputs can overflow a conversion, and a non-finite value would
// make the whole delta unencodable.
func (b *Batch) add(path string, value float64) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return
	}
	*b = append(*b, Observation{Path: path, Value: value})
}

// Paths returns the observation paths in batch order.
func (b Batch) Paths() []string {
	paths := make([]string, len(b))
	for i, o := range b {
		paths[i] = o.Path
	}
	return paths
}

// Lookup returns the value of the first observation at path.
func (b Batch) Lookup(path string) (float64, bool) {
	for _, o := range b {
		if o.Path == path {
			return o.Value, true
		}
	}
	return 0, false
}

// ChannelPaths holds the destination paths for one auxiliary sensor channel.
// An empty path suppresses that observation.
type ChannelPaths struct {
	TemperaturePath string
	HumidityPath    string
	HeatIndexPath   string
}

// ChannelCount is the number of auxiliary channels the translator reads.
const ChannelCount = 3

// TranslatorConfig is the resolved configuration consumed by [Translator].
type TranslatorConfig struct {
	// WindTrue selects the true-wind paths; false selects apparent wind.
	WindTrue bool

	// Channels[i] configures auxiliary channel i+1.
	Channels [ChannelCount]ChannelPaths

	// IntegratedModelPrefixes lists gateway model prefixes that carry a
	// station-integrated outdoor sensor (tempf/humidity).
	IntegratedModelPrefixes []string
}

// DefaultTranslatorConfig returns the stock channel layout with true wind and GW2000 detection.
func DefaultTranslatorConfig() TranslatorConfig {
	return TranslatorConfig{
		WindTrue: true,
		Channels: [ChannelCount]ChannelPaths{
			{TemperaturePath: "environment.outside.temperature", HumidityPath: "environment.outside.humidity"},
			{TemperaturePath: "environment.mainCabin.temperature", HumidityPath: "environment.mainCabin.humidity"},
			{TemperaturePath: "environment.refrigerator.temperature", HumidityPath: "environment.refrigerator.humidity"},
		},
		IntegratedModelPrefixes: []string{"GW2000"},
	}
}
