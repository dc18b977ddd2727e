// Copyright 2018 the splunkd authors.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

package splunkd

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Converter represents a single method for converting a wire string to a
// typed value. Conversion failures are format errors carrying the offending
// text.
type Converter interface {
	Convert(field string) (interface{}, error)
}

// StringConverter is the identity converter.
type StringConverter struct {
}

// IntConverter converts signed integers of the given bit width.
type IntConverter struct {
	Bits int
}

// UintConverter converts unsigned integers of the given bit width.
type UintConverter struct {
	Bits int
}

// FloatConverter converts floating point values.
type FloatConverter struct {
}

// BoolConverter converts the wire forms "0"/"1" and "true"/"false"
// (case-insensitive).
type BoolConverter struct {
}

// TimeConverter converts timestamps. It tries each layout in Layouts, and
// falls back to interpreting the field as epoch seconds. A zero-value
// TimeConverter uses the feed's known timestamp shapes.
type TimeConverter struct {
	Layouts []string
}

// URLConverter converts URIs.
type URLConverter struct {
}

// VersionConverter converts dotted version strings like "6.2.1".
type VersionConverter struct {
}

// Convert returns the field unchanged.
func (c StringConverter) Convert(field string) (interface{}, error) {
	return field, nil
}

// Convert parses a signed integer, returning an int64.
func (c IntConverter) Convert(field string) (interface{}, error) {
	bits := c.Bits
	if bits == 0 {
		bits = 64
	}
	n, err := strconv.ParseInt(field, 10, bits)
	if err != nil {
		return nil, formatErrorf("'%v' is not a valid %v-bit integer", field, bits)
	}
	return n, nil
}

// Convert parses an unsigned integer, returning a uint64.
func (c UintConverter) Convert(field string) (interface{}, error) {
	bits := c.Bits
	if bits == 0 {
		bits = 64
	}
	n, err := strconv.ParseUint(field, 10, bits)
	if err != nil {
		return nil, formatErrorf("'%v' is not a valid %v-bit unsigned integer", field, bits)
	}
	return n, nil
}

// Convert parses a float, returning a float64.
func (c FloatConverter) Convert(field string) (interface{}, error) {
	f, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return nil, formatErrorf("'%v' is not a valid float", field)
	}
	return f, nil
}

// Convert parses a boolean, returning a bool.
func (c BoolConverter) Convert(field string) (interface{}, error) {
	switch strings.ToLower(strings.TrimSpace(field)) {
	case "1", "true":
		return true, nil
	case "0", "false":
		return false, nil
	}
	return nil, formatErrorf("'%v' is not a valid boolean", field)
}

// feedTimeLayouts are the timestamp shapes splunkd is known to emit in Atom
// feeds, most specific first.
var feedTimeLayouts = []string{
	"2006-01-02T15:04:05.000-07:00",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// Convert parses a timestamp, returning a time.Time.
func (c TimeConverter) Convert(field string) (interface{}, error) {
	layouts := c.Layouts
	if len(layouts) == 0 {
		layouts = feedTimeLayouts
	}
	field = strings.TrimSpace(field)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, field); err == nil {
			return t, nil
		}
	}
	if secs, err := strconv.ParseInt(field, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return nil, formatErrorf("'%v' is not a valid timestamp", field)
}

// Convert parses a URI, returning a *url.URL.
func (c URLConverter) Convert(field string) (interface{}, error) {
	u, err := url.Parse(strings.TrimSpace(field))
	if err != nil {
		return nil, formatErrorf("'%v' is not a valid URI: %v", field, err)
	}
	return u, nil
}

// Version is a dotted version number, e.g. the feed generator's "6.2.1".
type Version []int

func (v Version) String() string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}

// Convert parses a dotted version string, returning a Version.
func (c VersionConverter) Convert(field string) (interface{}, error) {
	parts := strings.Split(strings.TrimSpace(field), ".")
	v := make(Version, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, formatErrorf("'%v' is not a valid dotted version", field)
		}
		v[i] = n
	}
	return v, nil
}

// EnumConverter converts enum wire names to values. Values maps each wire
// name (or alias) to the value it denotes; lookups are case-insensitive.
// Unmapped text is a format error naming the enum type and the offending
// value.
type EnumConverter struct {
	Enum   string
	Values map[string]interface{}
}

// NewEnumConverter builds an EnumConverter from a value table and an optional
// alias table mapping alternate wire names onto canonical ones.
func NewEnumConverter(enum string, values map[string]interface{}, aliases map[string]string) EnumConverter {
	merged := make(map[string]interface{}, len(values)+len(aliases))
	for name, v := range values {
		merged[strings.ToLower(name)] = v
	}
	for alias, name := range aliases {
		v, ok := values[name]
		if !ok {
			continue
		}
		merged[strings.ToLower(alias)] = v
	}
	return EnumConverter{Enum: enum, Values: merged}
}

// Convert looks the field up in the enum's wire-name table.
func (c EnumConverter) Convert(field string) (interface{}, error) {
	v, ok := c.Values[strings.ToLower(strings.TrimSpace(field))]
	if !ok {
		return nil, formatErrorf("'%v' is not a recognized %v value", field, c.Enum)
	}
	return v, nil
}
