// Package gpx parses GPX documents into a plain document model.
package gpx

import "time"

// Document is the root of a parsed GPX file.
// It is built once per parse call and never shared between calls.
type Document struct {
	Metadata  *Metadata  `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Version   string     `json:"version,omitempty" yaml:"version,omitempty"`
	Creator   string     `json:"creator,omitempty" yaml:"creator,omitempty"`
	Waypoints []Waypoint `json:"waypoints" yaml:"waypoints"`
	Routes    []Route    `json:"routes" yaml:"routes"`
	Tracks    []Track    `json:"tracks" yaml:"tracks"`
}

// Metadata is the document level <metadata> block.
type Metadata struct {
	Time        *Timestamp `json:"time,omitempty" yaml:"time,omitempty"`
	Link        *Link      `json:"link,omitempty" yaml:"link,omitempty"`
	Name        string     `json:"name,omitempty" yaml:"name,omitempty"`
	Description string     `json:"desc,omitempty" yaml:"desc,omitempty"`
	Author      string     `json:"author,omitempty" yaml:"author,omitempty"`
	Keywords    string     `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

// Timestamp is a <time> value that parsed as an ISO-8601 instant.
// Text keeps the source spelling, which is what gets emitted.
type Timestamp struct {
	Time time.Time
	Text string
}

// String returns the source text.
func (t Timestamp) String() string { return t.Text }

// MarshalText renders the source text unchanged.
func (t Timestamp) MarshalText() ([]byte, error) {
	return []byte(t.Text), nil
}

// Link is a <link href="..."> element.
type Link struct {
	Href string `json:"href" yaml:"href"`
	Text string `json:"text,omitempty" yaml:"text,omitempty"`
	Type string `json:"type,omitempty" yaml:"type,omitempty"`
}

// Point is a single wpt, rtept or trkpt.
// Latitude and Longitude are always set; nil pointers and empty strings mean absent.
type Point struct {
	Elevation   *float64   `json:"ele,omitempty" yaml:"ele,omitempty"`
	Time        *Timestamp `json:"time,omitempty" yaml:"time,omitempty"`
	Link        *Link      `json:"link,omitempty" yaml:"link,omitempty"`
	Name        string     `json:"name,omitempty" yaml:"name,omitempty"`
	Comment     string     `json:"cmt,omitempty" yaml:"cmt,omitempty"`
	Description string     `json:"desc,omitempty" yaml:"desc,omitempty"`
	Source      string     `json:"src,omitempty" yaml:"src,omitempty"`
	Symbol      string     `json:"sym,omitempty" yaml:"sym,omitempty"`
	Type        string     `json:"type,omitempty" yaml:"type,omitempty"`
	Latitude    float64    `json:"lat" yaml:"lat"`
	Longitude   float64    `json:"lon" yaml:"lon"`
}

// Waypoint is a standalone named point.
type Waypoint struct {
	Point `yaml:",inline"`
}

// Info holds the descriptive fields shared by routes and tracks.
type Info struct {
	Number      *uint32 `json:"number,omitempty" yaml:"number,omitempty"`
	Link        *Link   `json:"link,omitempty" yaml:"link,omitempty"`
	Name        string  `json:"name,omitempty" yaml:"name,omitempty"`
	Comment     string  `json:"cmt,omitempty" yaml:"cmt,omitempty"`
	Description string  `json:"desc,omitempty" yaml:"desc,omitempty"`
	Source      string  `json:"src,omitempty" yaml:"src,omitempty"`
	Type        string  `json:"type,omitempty" yaml:"type,omitempty"`
}

// Route is an ordered list of route points.
type Route struct {
	Info   `yaml:",inline"`
	Points []Point `json:"points" yaml:"points"`
}

// Segment is a contiguous run of track points.
type Segment struct {
	Points []Point `json:"points" yaml:"points"`
}

// Track is an ordered list of segments. Segment boundaries are recording gaps.
type Track struct {
	Info     `yaml:",inline"`
	Segments []Segment `json:"segments" yaml:"segments"`
}

// PointCount returns the number of points across all segments.
func (t *Track) PointCount() int {
	n := 0
	for i := range t.Segments {
		n += len(t.Segments[i].Points)
	}

	return n
}
