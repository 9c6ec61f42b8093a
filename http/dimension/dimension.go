// Package dimension enumerates the negotiation axes a response may depend on, reported
// to caches via the Vary header.
package dimension

import (
	"slices"
	"strings"

	"github.com/indigo-web/connector/http/headers"
	"github.com/indigo-web/connector/internal/strutil"
)

type Dimension uint8

const (
	Unspecified Dimension = iota
	MediaType
	CharacterSet
	Encoding
	Language
	Authorization
	ClientAgent
)

var table = [...]struct {
	dimension Dimension
	header    string
}{
	{MediaType, headers.Accept},
	{CharacterSet, headers.AcceptCharset},
	{Encoding, headers.AcceptEncoding},
	{Language, headers.AcceptLanguage},
	{Authorization, headers.Authorization},
	{ClientAgent, headers.UserAgent},
	{Unspecified, "*"},
}

// Header returns the request header the dimension corresponds to.
func Header(d Dimension) string {
	for _, entry := range table {
		if entry.dimension == d {
			return entry.header
		}
	}

	return "*"
}

// FromHeader is the inverse of Header. Headers outside the table aren't dimensions.
func FromHeader(name string) (Dimension, bool) {
	for _, entry := range table {
		if strutil.CmpFold(entry.header, name) {
			return entry.dimension, true
		}
	}

	return Unspecified, false
}

// Set is an ordered set of dimensions.
type Set []Dimension

// Add appends the dimension unless it's already present.
func (s Set) Add(d Dimension) Set {
	if slices.Contains(s, d) {
		return s
	}

	return append(s, d)
}

// Vary renders the value of the Vary header. Unspecified dimension overrides everything
// else, as the response then varies on something outside the request headers.
func (s Set) Vary() string {
	if slices.Contains(s, Unspecified) {
		return "*"
	}

	names := make([]string, len(s))
	for i, d := range s {
		names[i] = Header(d)
	}

	return strings.Join(names, ", ")
}

// ParseVary builds the set back out of the Vary header values.
func ParseVary(values []string) (s Set) {
	for _, name := range headers.List(values) {
		if d, ok := FromHeader(name); ok {
			s = s.Add(d)
		}
	}

	return s
}
