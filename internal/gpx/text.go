package gpx

import (
	"bytes"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	cdataOpen  = []byte("<![CDATA[")
	cdataClose = []byte("]]>")
)

// decodeText turns raw character data into text.
// CDATA sections are copied verbatim, everything else has entity references resolved.
func decodeText(raw []byte) string {
	var b strings.Builder
	b.Grow(len(raw))

	for len(raw) > 0 {
		i := bytes.Index(raw, cdataOpen)
		if i < 0 {
			unescapeInto(&b, raw)
			break
		}
		unescapeInto(&b, raw[:i])
		raw = raw[i+len(cdataOpen):]

		j := bytes.Index(raw, cdataClose)
		if j < 0 {
			b.Write(raw)
			break
		}
		b.Write(raw[:j])
		raw = raw[j+len(cdataClose):]
	}

	return b.String()
}

// unescapeInto resolves the predefined XML entities and numeric character references.
// Unknown references are kept as written.
func unescapeInto(b *strings.Builder, raw []byte) {
	for len(raw) > 0 {
		amp := bytes.IndexByte(raw, '&')
		if amp < 0 {
			b.Write(raw)
			return
		}
		b.Write(raw[:amp])
		raw = raw[amp:]

		semi := bytes.IndexByte(raw, ';')
		if semi < 0 {
			b.Write(raw)
			return
		}

		if r, ok := resolveEntity(raw[1:semi]); ok {
			b.WriteRune(r)
		} else {
			b.Write(raw[:semi+1])
		}
		raw = raw[semi+1:]
	}
}

func resolveEntity(name []byte) (rune, bool) {
	switch string(name) {
	case "amp":
		return '&', true
	case "lt":
		return '<', true
	case "gt":
		return '>', true
	case "quot":
		return '"', true
	case "apos":
		return '\'', true
	}

	if len(name) < 2 || name[0] != '#' {
		return 0, false
	}

	var (
		n   uint64
		err error
	)
	if name[1] == 'x' || name[1] == 'X' {
		n, err = strconv.ParseUint(string(name[2:]), 16, 32)
	} else {
		n, err = strconv.ParseUint(string(name[1:]), 10, 32)
	}
	if err != nil || !utf8.ValidRune(rune(n)) {
		return 0, false
	}

	return rune(n), true
}

// GPX 1.1 mandates xsd:dateTime, but GPX 1.0 exports often omit the zone.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05.999999999Z07",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
}

// parseTime parses an ISO-8601 instant. Values without a zone are taken as UTC.
func parseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}
