// Package enrich maps hosts to demo geography for reports.
//
// The table only covers documentation and loopback networks (RFC 5737);
// no external provider is consulted.
package enrich

import (
	"strings"
)

// Geo is the enrichment attached to a host
type Geo struct {
	IP          string `json:"ip"`
	CountryCode string `json:"cc"`
	City        string `json:"city"`
}

type prefixEntry struct {
	prefix      string
	countryCode string
	city        string
}

var demoTable = []prefixEntry{
	{"203.0.113.", "EX", "Exampleville"},
	{"198.51.100.", "EX", "Example City"},
	{"192.0.2.", "EX", "Demo Town"},
	{"127.0.0.", "LO", "Loopback"},
}

// Lookup returns the first table entry whose prefix matches host
func Lookup(host string) (*Geo, bool) {
	for _, e := range demoTable {
		if strings.HasPrefix(host, e.prefix) {
			return &Geo{IP: host, CountryCode: e.countryCode, City: e.city}, true
		}
	}
	return nil, false
}

// Label renders "CC City" for known hosts and "-" otherwise
func Label(host string) string {
	geo, ok := Lookup(host)
	if !ok {
		return "-"
	}
	label := strings.TrimSpace(geo.CountryCode + " " + geo.City)
	if label == "" {
		return "-"
	}
	return label
}
