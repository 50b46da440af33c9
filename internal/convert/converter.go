package convert

import (
	"github.com/woozymasta/gpx2geojson/internal/geo"
	"github.com/woozymasta/gpx2geojson/internal/gpx"
)

// ToFeatureCollection converts a parsed document into a FeatureCollection.
//
// Features are ordered waypoints, routes, tracks, each in document order.
// A nil opts means DefaultOptions. The conversion is deterministic and never fails.
func ToFeatureCollection(doc *gpx.Document, opts *Options) geo.GeoJSONFeatureCollection {
	if opts == nil {
		defaults := DefaultOptions()
		opts = &defaults
	}

	fc := geo.NewFeatureCollection()
	if doc == nil {
		return fc
	}

	c := converter{opts: opts}

	if opts.Includes(TypeWaypoint) {
		for i := range doc.Waypoints {
			fc.Features = append(fc.Features, c.pointFeature(&doc.Waypoints[i].Point, TypeWaypoint, nil))
		}
	}

	if opts.Includes(TypeRoute) {
		for i := range doc.Routes {
			fc.Features = append(fc.Features, c.routeFeatures(&doc.Routes[i])...)
		}
	}

	if opts.Includes(TypeTrack) {
		for i := range doc.Tracks {
			fc.Features = append(fc.Features, c.trackFeatures(&doc.Tracks[i])...)
		}
	}

	return fc
}

type converter struct {
	opts *Options
}

func (c converter) routeFeatures(rte *gpx.Route) []geo.GeoJSONFeature {
	switch len(rte.Points) {
	case 0:
		return nil
	case 1:
		return []geo.GeoJSONFeature{c.pointFeature(&rte.Points[0], TypeRoute, &rte.Info)}
	default:
		return []geo.GeoJSONFeature{c.lineFeature(rte.Points, TypeRoute, &rte.Info)}
	}
}

func (c converter) trackFeatures(trk *gpx.Track) []geo.GeoJSONFeature {
	switch trk.PointCount() {
	case 0:
		return nil
	case 1:
		// A lone point is never a zero-length line, whatever the segment layout.
		for i := range trk.Segments {
			if len(trk.Segments[i].Points) == 1 {
				return []geo.GeoJSONFeature{c.pointFeature(&trk.Segments[i].Points[0], TypeTrack, &trk.Info)}
			}
		}
	}

	if c.opts.JoinTrackSegments {
		return c.joinedTrackFeatures(trk)
	}

	features := make([]geo.GeoJSONFeature, 0, len(trk.Segments))
	for i := range trk.Segments {
		seg := &trk.Segments[i]
		switch len(seg.Points) {
		case 0:
		case 1:
			features = append(features, c.pointFeature(&seg.Points[0], TypeTrack, &trk.Info))
		default:
			features = append(features, c.lineFeature(seg.Points, TypeTrack, &trk.Info))
		}
	}

	return features
}

// joinedTrackFeatures emits one MultiLineString with a component per segment of two or
// more points. Single point segments cannot form a component and are dropped.
func (c converter) joinedTrackFeatures(trk *gpx.Track) []geo.GeoJSONFeature {
	var (
		lines [][]geo.Position
		times [][]interface{}
		timed bool
	)

	for i := range trk.Segments {
		points := trk.Segments[i].Points
		if len(points) < 2 {
			continue
		}

		lines = append(lines, c.positions(points))
		if c.opts.IncludeTime {
			t, ok := coordinateTimes(points)
			times = append(times, t)
			timed = timed || ok
		}
	}

	if len(lines) == 0 {
		return nil
	}

	props := c.infoProperties(TypeTrack, &trk.Info)
	if timed {
		nested := make([]interface{}, len(times))
		for i := range times {
			nested[i] = times[i]
		}
		props["coordinateProperties"] = map[string]interface{}{"times": nested}
	}

	return []geo.GeoJSONFeature{geo.NewFeature(geo.MultiLineStringGeometry(lines), props)}
}

func (c converter) lineFeature(points []gpx.Point, kind ElementType, info *gpx.Info) geo.GeoJSONFeature {
	props := c.infoProperties(kind, info)

	if c.opts.IncludeTime {
		if times, ok := coordinateTimes(points); ok {
			props["coordinateProperties"] = map[string]interface{}{"times": times}
		}
	}

	return geo.NewFeature(geo.LineStringGeometry(c.positions(points)), props)
}

// pointFeature converts a single point. Points taken from a route or track fall back to
// the parent's name and description when they carry none of their own.
func (c converter) pointFeature(pt *gpx.Point, kind ElementType, parent *gpx.Info) geo.GeoJSONFeature {
	props := map[string]interface{}{"gpxType": string(kind)}

	if c.opts.IncludeMetadata {
		name, desc := pt.Name, pt.Description
		if parent != nil {
			name = firstNonEmpty(name, parent.Name)
			desc = firstNonEmpty(desc, parent.Description)
		}

		setString(props, "name", name)
		setString(props, "cmt", pt.Comment)
		setString(props, "desc", desc)
		setString(props, "src", pt.Source)
		setString(props, "sym", pt.Symbol)
		setString(props, "type", pt.Type)
		if pt.Elevation != nil {
			props["ele"] = *pt.Elevation
		}
		setLink(props, pt.Link)

		if c.opts.IncludeTime && pt.Time != nil {
			props["time"] = pt.Time.Text
		}
	}

	return geo.NewFeature(geo.PointGeometry(c.position(pt)), props)
}

func (c converter) infoProperties(kind ElementType, info *gpx.Info) map[string]interface{} {
	props := map[string]interface{}{"gpxType": string(kind)}
	if !c.opts.IncludeMetadata {
		return props
	}

	setString(props, "name", info.Name)
	setString(props, "cmt", info.Comment)
	setString(props, "desc", info.Description)
	setString(props, "src", info.Source)
	setString(props, "type", info.Type)
	if info.Number != nil {
		props["number"] = *info.Number
	}
	setLink(props, info.Link)

	return props
}

func (c converter) position(pt *gpx.Point) geo.Position {
	if !c.opts.IncludeElevation {
		return geo.NewPosition(pt.Longitude, pt.Latitude, nil)
	}

	return geo.NewPosition(pt.Longitude, pt.Latitude, pt.Elevation)
}

func (c converter) positions(points []gpx.Point) []geo.Position {
	out := make([]geo.Position, len(points))
	for i := range points {
		out[i] = c.position(&points[i])
	}

	return out
}

// coordinateTimes returns one entry per point, nil where the point has no time.
// The second result is false when no point carries a time at all.
func coordinateTimes(points []gpx.Point) ([]interface{}, bool) {
	times := make([]interface{}, len(points))
	found := false
	for i := range points {
		if points[i].Time != nil {
			times[i] = points[i].Time.Text
			found = true
		}
	}

	return times, found
}

func setString(props map[string]interface{}, key, value string) {
	if value != "" {
		props[key] = value
	}
}

func setLink(props map[string]interface{}, link *gpx.Link) {
	if link == nil {
		return
	}

	obj := map[string]interface{}{"href": link.Href}
	setString(obj, "text", link.Text)
	setString(obj, "type", link.Type)
	props["link"] = obj
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
