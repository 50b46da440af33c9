package gpx

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/muktihari/xmltokenizer"
	"github.com/rs/zerolog/log"
)

// Parse reads a GPX document in a single forward pass.
//
// Elements are matched by local name only, so GPX 1.0 and 1.1 files parse the same way
// with or without namespace prefixes. Unknown elements, including <extensions>, are
// skipped as opaque subtrees. The first structural error aborts the parse.
func Parse(r io.Reader) (*Document, error) {
	d := &decoder{tok: xmltokenizer.New(r)}
	return d.document()
}

// ParseString parses a GPX document held in memory.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// ParseBytes parses a GPX document held in memory.
func ParseBytes(b []byte) (*Document, error) {
	return Parse(bytes.NewReader(b))
}

// decoder holds the per-call tokenizer and the stack of open element names.
type decoder struct {
	tok  *xmltokenizer.Tokenizer
	path []string
	eof  bool
}

func (d *decoder) document() (*Document, error) {
	var doc *Document

	for {
		token, err := d.next()
		if errors.Is(err, io.EOF) {
			if doc == nil {
				return nil, d.fail("missing <gpx> root element", nil)
			}
			return doc, nil
		}
		if err != nil {
			return nil, err
		}

		if isMarkup(&token) {
			continue
		}
		if token.IsEndElement() {
			return nil, d.fail(fmt.Sprintf("unexpected closing tag </%s>", localName(&token.Name)), nil)
		}
		if doc != nil {
			return nil, d.fail(fmt.Sprintf("unexpected element <%s> after root element", localName(&token.Name)), nil)
		}

		name := string(localName(&token.Name))
		if name != "gpx" {
			return nil, d.fail(fmt.Sprintf("unexpected root element <%s>", name), nil)
		}

		doc = &Document{
			Waypoints: []Waypoint{},
			Routes:    []Route{},
			Tracks:    []Track{},
		}

		se := xmltokenizer.GetToken().Copy(token)
		d.path = append(d.path, name)
		err = d.gpx(doc, se)
		d.path = d.path[:0]
		xmltokenizer.PutToken(se)
		if err != nil {
			return nil, err
		}
	}
}

func (d *decoder) gpx(doc *Document, se *xmltokenizer.Token) error {
	for i := range se.Attrs {
		attr := &se.Attrs[i]
		switch string(localName(&attr.Name)) {
		case "version":
			doc.Version = decodeText(attr.Value)
		case "creator":
			doc.Creator = decodeText(attr.Value)
		}
	}

	return d.children(se, func(name string, child *xmltokenizer.Token) error {
		switch name {
		case "wpt":
			pt, err := d.point(child)
			if err != nil {
				return err
			}
			doc.Waypoints = append(doc.Waypoints, Waypoint{Point: pt})

		case "rte":
			rte, err := d.route(child)
			if err != nil {
				return err
			}
			doc.Routes = append(doc.Routes, rte)

		case "trk":
			trk, err := d.track(child)
			if err != nil {
				return err
			}
			doc.Tracks = append(doc.Tracks, trk)

		case "metadata":
			meta, err := d.metadata(child)
			if err != nil {
				return err
			}
			doc.Metadata = meta

		default:
			return d.skip(child)
		}

		return nil
	})
}

func (d *decoder) metadata(se *xmltokenizer.Token) (*Metadata, error) {
	meta := &Metadata{}

	err := d.children(se, func(name string, child *xmltokenizer.Token) error {
		var err error
		switch name {
		case "name":
			meta.Name, err = d.text(child)
		case "desc":
			meta.Description, err = d.text(child)
		case "keywords":
			meta.Keywords, err = d.text(child)
		case "time":
			var s string
			if s, err = d.text(child); err == nil {
				meta.Time = d.timestamp(s)
			}
		case "link":
			meta.Link, err = d.link(child)
		case "author":
			err = d.children(child, func(name string, grandchild *xmltokenizer.Token) error {
				if name != "name" {
					return d.skip(grandchild)
				}
				var err error
				meta.Author, err = d.text(grandchild)
				return err
			})
		default:
			err = d.skip(child)
		}

		return err
	})

	return meta, err
}

func (d *decoder) route(se *xmltokenizer.Token) (Route, error) {
	rte := Route{Points: []Point{}}

	err := d.children(se, func(name string, child *xmltokenizer.Token) error {
		if name == "rtept" {
			pt, err := d.point(child)
			if err != nil {
				return err
			}
			rte.Points = append(rte.Points, pt)
			return nil
		}

		if ok, err := d.info(&rte.Info, name, child); ok {
			return err
		}

		return d.skip(child)
	})

	return rte, err
}

func (d *decoder) track(se *xmltokenizer.Token) (Track, error) {
	trk := Track{Segments: []Segment{}}

	err := d.children(se, func(name string, child *xmltokenizer.Token) error {
		if name == "trkseg" {
			seg, err := d.segment(child)
			if err != nil {
				return err
			}
			trk.Segments = append(trk.Segments, seg)
			return nil
		}

		if ok, err := d.info(&trk.Info, name, child); ok {
			return err
		}

		return d.skip(child)
	})

	return trk, err
}

func (d *decoder) segment(se *xmltokenizer.Token) (Segment, error) {
	seg := Segment{Points: []Point{}}

	err := d.children(se, func(name string, child *xmltokenizer.Token) error {
		if name != "trkpt" {
			return d.skip(child)
		}

		pt, err := d.point(child)
		if err != nil {
			return err
		}
		seg.Points = append(seg.Points, pt)

		return nil
	})

	return seg, err
}

// info fills the descriptive route/track fields. It reports false for names it does not own.
func (d *decoder) info(info *Info, name string, child *xmltokenizer.Token) (bool, error) {
	var err error

	switch name {
	case "name":
		info.Name, err = d.text(child)
	case "cmt":
		info.Comment, err = d.text(child)
	case "desc":
		info.Description, err = d.text(child)
	case "src":
		info.Source, err = d.text(child)
	case "type":
		info.Type, err = d.text(child)
	case "link":
		info.Link, err = d.link(child)
	case "number":
		var s string
		if s, err = d.text(child); err == nil {
			if n, perr := strconv.ParseUint(s, 10, 32); perr == nil {
				v := uint32(n)
				info.Number = &v
			}
		}
	default:
		return false, nil
	}

	return true, err
}

func (d *decoder) point(se *xmltokenizer.Token) (Point, error) {
	var (
		pt             Point
		hasLat, hasLon bool
	)

	for i := range se.Attrs {
		attr := &se.Attrs[i]
		var err error

		switch string(localName(&attr.Name)) {
		case "lat":
			pt.Latitude, err = d.coordinate("lat", attr.Value, 90)
			hasLat = true
		case "lon":
			pt.Longitude, err = d.coordinate("lon", attr.Value, 180)
			hasLon = true
		}

		if err != nil {
			return Point{}, err
		}
	}

	if !hasLat {
		return Point{}, d.fail("missing required attribute lat", nil)
	}
	if !hasLon {
		return Point{}, d.fail("missing required attribute lon", nil)
	}

	err := d.children(se, func(name string, child *xmltokenizer.Token) error {
		var err error

		switch name {
		case "ele":
			var s string
			if s, err = d.text(child); err == nil {
				if v, perr := strconv.ParseFloat(s, 64); perr == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
					pt.Elevation = &v
				}
			}
		case "time":
			var s string
			if s, err = d.text(child); err == nil {
				pt.Time = d.timestamp(s)
			}
		case "name":
			pt.Name, err = d.text(child)
		case "cmt":
			pt.Comment, err = d.text(child)
		case "desc":
			pt.Description, err = d.text(child)
		case "src":
			pt.Source, err = d.text(child)
		case "sym":
			pt.Symbol, err = d.text(child)
		case "type":
			pt.Type, err = d.text(child)
		case "link":
			pt.Link, err = d.link(child)
		default:
			err = d.skip(child)
		}

		return err
	})
	if err != nil {
		return Point{}, err
	}

	return pt, nil
}

func (d *decoder) link(se *xmltokenizer.Token) (*Link, error) {
	link := &Link{}
	for i := range se.Attrs {
		attr := &se.Attrs[i]
		if string(localName(&attr.Name)) == "href" {
			link.Href = strings.TrimSpace(decodeText(attr.Value))
		}
	}

	err := d.children(se, func(name string, child *xmltokenizer.Token) error {
		var err error
		switch name {
		case "text":
			link.Text, err = d.text(child)
		case "type":
			link.Type, err = d.text(child)
		default:
			err = d.skip(child)
		}
		return err
	})

	return link, err
}

// coordinate parses a lat/lon attribute value and checks it against ±limit degrees.
func (d *decoder) coordinate(attr string, raw []byte, limit float64) (float64, error) {
	s := strings.TrimSpace(decodeText(raw))

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, d.fail(fmt.Sprintf("invalid value %q for attribute %s", s, attr), err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > limit {
		return 0, d.fail(fmt.Sprintf("attribute %s value %q out of range [-%g, %g]", attr, s, limit, limit), nil)
	}

	return v, nil
}

// timestamp downgrades malformed times to absent values.
func (d *decoder) timestamp(s string) *Timestamp {
	t, ok := parseTime(s)
	if !ok {
		log.Debug().
			Str("value", s).
			Str("path", strings.Join(d.path, "/")).
			Msg("Ignoring malformed timestamp")
		return nil
	}

	return &Timestamp{Time: t, Text: s}
}

// children walks the direct children of se. fn receives each child start element and must
// consume its subtree, either through a typed handler or skip.
func (d *decoder) children(se *xmltokenizer.Token, fn func(name string, child *xmltokenizer.Token) error) error {
	if se.SelfClosing {
		return nil
	}

	for {
		token, err := d.expect()
		if err != nil {
			return err
		}

		if isMarkup(&token) {
			continue
		}
		if token.IsEndElement() {
			if token.IsEndElementOf(se) {
				return nil
			}
			return d.fail(fmt.Sprintf("mismatched closing tag </%s>", localName(&token.Name)), nil)
		}

		child := xmltokenizer.GetToken().Copy(token)
		d.path = append(d.path, string(localName(&child.Name)))
		err = fn(d.path[len(d.path)-1], child)
		d.path = d.path[:len(d.path)-1]
		xmltokenizer.PutToken(child)

		if err != nil {
			return err
		}
	}
}

// text returns the trimmed character data of a leaf element.
// Nested elements are skipped but the text around them, and around comments, is kept.
func (d *decoder) text(se *xmltokenizer.Token) (string, error) {
	raw := append([]byte(nil), se.Data...)

	if !se.SelfClosing {
		for {
			token, err := d.expect()
			if err != nil {
				return "", err
			}

			if isMarkup(&token) {
				raw = append(raw, token.Data...)
				continue
			}
			if token.IsEndElement() {
				if token.IsEndElementOf(se) {
					break
				}
				return "", d.fail(fmt.Sprintf("mismatched closing tag </%s>", localName(&token.Name)), nil)
			}

			child := xmltokenizer.GetToken().Copy(token)
			tail, err := d.skipTail(child)
			xmltokenizer.PutToken(child)
			if err != nil {
				return "", err
			}
			raw = append(raw, tail...)
		}
	}

	return strings.TrimSpace(decodeText(raw)), nil
}

// skip consumes an unrecognised element and everything nested in it without
// interpreting any of the content.
func (d *decoder) skip(se *xmltokenizer.Token) error {
	_, err := d.skipTail(se)
	return err
}

// skipTail is skip that also returns the character data following the element,
// which the tokenizer attaches to the element's last token.
func (d *decoder) skipTail(se *xmltokenizer.Token) ([]byte, error) {
	if se.SelfClosing {
		return append([]byte(nil), se.Data...), nil
	}

	depth := 1
	for {
		token, err := d.expect()
		if err != nil {
			return nil, err
		}

		switch {
		case isMarkup(&token):
		case token.IsEndElement():
			depth--
			if depth == 0 {
				if !token.IsEndElementOf(se) {
					return nil, d.fail(fmt.Sprintf("mismatched closing tag </%s>", localName(&token.Name)), nil)
				}
				return append([]byte(nil), token.Data...), nil
			}
		case !token.SelfClosing:
			depth++
		}
	}
}

// expect is next for positions where the document must continue.
func (d *decoder) expect() (xmltokenizer.Token, error) {
	token, err := d.next()
	if errors.Is(err, io.EOF) {
		return token, d.fail("unexpected end of document", io.ErrUnexpectedEOF)
	}

	return token, err
}

// next returns the following token, rejecting bytes that are not valid UTF-8.
func (d *decoder) next() (xmltokenizer.Token, error) {
	if d.eof {
		return xmltokenizer.Token{}, io.EOF
	}

	token, err := d.tok.Token()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return token, d.fail("malformed XML", err)
		}
		d.eof = true
		if len(token.Name.Full) == 0 {
			return token, io.EOF
		}
	}

	if !validToken(&token) {
		return token, d.fail("invalid UTF-8 encoding", nil)
	}

	return token, nil
}

func (d *decoder) fail(msg string, err error) error {
	return &ParseError{
		Msg:  msg,
		Err:  err,
		Path: append([]string(nil), d.path...),
	}
}

func validToken(token *xmltokenizer.Token) bool {
	if !utf8.Valid(token.Name.Full) || !utf8.Valid(token.Data) {
		return false
	}
	for i := range token.Attrs {
		if !utf8.Valid(token.Attrs[i].Value) {
			return false
		}
	}

	return true
}

// isMarkup reports declarations, processing instructions, comments and doctypes.
func isMarkup(token *xmltokenizer.Token) bool {
	full := token.Name.Full
	return len(full) == 0 || full[0] == '?' || full[0] == '!'
}

// localName strips the namespace prefix and the closing slash from an XML name.
func localName(n *xmltokenizer.Name) []byte {
	full := n.Full
	if len(full) == 0 {
		full = n.Local
	}
	if len(full) > 0 && full[0] == '/' {
		full = full[1:]
	}
	if i := bytes.LastIndexByte(full, ':'); i >= 0 {
		return full[i+1:]
	}

	return full
}
