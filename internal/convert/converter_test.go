package convert

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woozymasta/gpx2geojson/internal/geo"
	"github.com/woozymasta/gpx2geojson/internal/gpx"
)

const fixtureComplete = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="fixture" xmlns="http://www.topografix.com/GPX/1/1">
  <wpt lat="35.6762" lon="139.6503"><name>Tokyo Tower</name><ele>40.5</ele></wpt>
  <wpt lat="35.7101" lon="139.8107"><name>Skytree</name></wpt>
  <rte>
    <name>Loop</name>
    <rtept lat="35.0" lon="139.0"><ele>5</ele></rtept>
    <rtept lat="35.1" lon="139.1"/>
  </rte>
  <trk>
    <name>Run</name>
    <trkseg>
      <trkpt lat="35.0" lon="139.0"><ele>10</ele><time>2025-01-01T06:00:00Z</time></trkpt>
      <trkpt lat="35.001" lon="139.001"><ele>11</ele><time>2025-01-01T06:01:00Z</time></trkpt>
    </trkseg>
  </trk>
</gpx>`

func convertString(t *testing.T, in string, opts *Options) geo.GeoJSONFeatureCollection {
	t.Helper()
	doc, err := gpx.ParseString(in)
	require.NoError(t, err)
	return ToFeatureCollection(doc, opts)
}

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func gpxTypes(fc geo.GeoJSONFeatureCollection) []string {
	out := make([]string, 0, len(fc.Features))
	for _, f := range fc.Features {
		out = append(out, f.Properties["gpxType"].(string))
	}
	return out
}

func geometryTypes(fc geo.GeoJSONFeatureCollection) []string {
	out := make([]string, 0, len(fc.Features))
	for _, f := range fc.Features {
		out = append(out, f.Geometry.Type)
	}
	return out
}

func TestToFeatureCollection_Waypoint(t *testing.T) {
	fc := convertString(t, `<gpx><wpt lat="35.6762" lon="139.6503"><name>Tokyo Tower</name><ele>40.5</ele></wpt></gpx>`, nil)

	require.Len(t, fc.Features, 1)
	assert.JSONEq(t, `{
		"type": "Feature",
		"geometry": {"type": "Point", "coordinates": [139.6503, 35.6762, 40.5]},
		"properties": {"gpxType": "waypoint", "name": "Tokyo Tower", "ele": 40.5}
	}`, mustJSON(t, fc.Features[0]))
}

func TestToFeatureCollection_FeatureOrder(t *testing.T) {
	fc := convertString(t, fixtureComplete, nil)

	assert.Equal(t, []string{"waypoint", "waypoint", "route", "track"}, gpxTypes(fc))
	assert.Equal(t, "Tokyo Tower", fc.Features[0].Properties["name"])
	assert.Equal(t, "Skytree", fc.Features[1].Properties["name"])
}

func TestToFeatureCollection_ElevationAbsentStaysTwoD(t *testing.T) {
	fc := convertString(t, fixtureComplete, nil)

	assert.Equal(t, geo.Position{139.8107, 35.7101}, fc.Features[1].Geometry.Coordinates)

	// Mixed tuples pass through untouched.
	assert.Equal(t, []geo.Position{{139.0, 35.0, 5}, {139.1, 35.1}}, fc.Features[2].Geometry.Coordinates)
}

func TestToFeatureCollection_NoElevation(t *testing.T) {
	opts := DefaultOptions()
	opts.IncludeElevation = false
	fc := convertString(t, fixtureComplete, &opts)

	for _, f := range fc.Features {
		switch coords := f.Geometry.Coordinates.(type) {
		case geo.Position:
			assert.Len(t, coords, 2)
		case []geo.Position:
			for _, p := range coords {
				assert.Len(t, p, 2)
			}
		default:
			t.Fatalf("unexpected coordinates %T", coords)
		}
	}
}

func TestToFeatureCollection_Routes(t *testing.T) {
	fc := convertString(t, `<gpx>
  <rte><name>Empty</name></rte>
  <rte><name>Single</name><rtept lat="1" lon="2"><time>2025-01-01T00:00:00Z</time></rtept></rte>
  <rte><name>Line</name><rtept lat="1" lon="2"/><rtept lat="3" lon="4"/></rte>
</gpx>`, nil)

	require.Len(t, fc.Features, 2)
	assert.Equal(t, []string{"Point", "LineString"}, geometryTypes(fc))

	assert.JSONEq(t, `{"gpxType":"route","name":"Single","time":"2025-01-01T00:00:00Z"}`,
		mustJSON(t, fc.Features[0].Properties))
	assert.JSONEq(t, `{"gpxType":"route","name":"Line"}`, mustJSON(t, fc.Features[1].Properties),
		"no coordinateProperties when no point has a time")
}

func TestToFeatureCollection_TrackTimes(t *testing.T) {
	fc := convertString(t, `<gpx><trk><name>Run</name><trkseg>
  <trkpt lat="35.0" lon="139.0"><time>2025-01-01T00:00:00Z</time></trkpt>
  <trkpt lat="35.001" lon="139.001"/>
  <trkpt lat="35.002" lon="139.002"><time>2025-01-01T09:02:00.5+09:00</time></trkpt>
</trkseg></trk></gpx>`, nil)

	require.Len(t, fc.Features, 1)
	assert.JSONEq(t, `{
		"gpxType": "track",
		"name": "Run",
		"coordinateProperties": {"times": ["2025-01-01T00:00:00Z", null, "2025-01-01T09:02:00.5+09:00"]}
	}`, mustJSON(t, fc.Features[0].Properties))

	opts := DefaultOptions()
	opts.IncludeTime = false
	fc = convertString(t, `<gpx><trk><trkseg>
  <trkpt lat="1" lon="1"><time>2025-01-01T00:00:00Z</time></trkpt>
  <trkpt lat="2" lon="2"><time>2025-01-01T00:01:00Z</time></trkpt>
</trkseg></trk></gpx>`, &opts)
	assert.NotContains(t, fc.Features[0].Properties, "coordinateProperties")
}

func TestToFeatureCollection_SinglePointTrack(t *testing.T) {
	in := `<gpx><trk><name>Blip</name><trkseg><trkpt lat="1" lon="2"><ele>3</ele></trkpt></trkseg></trk></gpx>`

	for _, join := range []bool{false, true} {
		opts := DefaultOptions()
		opts.JoinTrackSegments = join
		fc := convertString(t, in, &opts)

		require.Len(t, fc.Features, 1, "join=%v", join)
		assert.Equal(t, geo.GeometryPoint, fc.Features[0].Geometry.Type, "join=%v", join)
		assert.JSONEq(t, `{"gpxType":"track","name":"Blip","ele":3}`, mustJSON(t, fc.Features[0].Properties))
	}
}

const fixtureSegments = `<gpx><trk><name>Segments</name>
  <trkseg><trkpt lat="1" lon="1"/><trkpt lat="1.1" lon="1.1"/></trkseg>
  <trkseg></trkseg>
  <trkseg><trkpt lat="2" lon="2"/></trkseg>
  <trkseg><trkpt lat="3" lon="3"/><trkpt lat="3.1" lon="3.1"/><trkpt lat="3.2" lon="3.2"/></trkseg>
</trk></gpx>`

func TestToFeatureCollection_SeparateSegments(t *testing.T) {
	fc := convertString(t, fixtureSegments, nil)

	assert.Equal(t, []string{"LineString", "Point", "LineString"}, geometryTypes(fc))
	for _, f := range fc.Features {
		assert.Equal(t, "Segments", f.Properties["name"])
		assert.Equal(t, "track", f.Properties["gpxType"])
	}
}

func TestToFeatureCollection_JoinedSegments(t *testing.T) {
	opts := DefaultOptions()
	opts.JoinTrackSegments = true
	fc := convertString(t, fixtureSegments, &opts)

	require.Len(t, fc.Features, 1)
	assert.JSONEq(t, `{
		"type": "MultiLineString",
		"coordinates": [[[1, 1], [1.1, 1.1]], [[3, 3], [3.1, 3.1], [3.2, 3.2]]]
	}`, mustJSON(t, fc.Features[0].Geometry), "single point segment is dropped from the join")
}

// A lone segment still yields a MultiLineString in join mode, so the geometry type
// depends only on the option. Converters that collapse it to a LineString differ here.
func TestToFeatureCollection_JoinedSingleSegment(t *testing.T) {
	opts := DefaultOptions()
	opts.JoinTrackSegments = true
	fc := convertString(t, `<gpx><trk><trkseg><trkpt lat="1" lon="1"/><trkpt lat="2" lon="2"/></trkseg></trk></gpx>`, &opts)

	require.Len(t, fc.Features, 1)
	assert.Equal(t, geo.GeometryMultiLineString, fc.Features[0].Geometry.Type)
}

func TestToFeatureCollection_JoinedOnlySinglePointSegments(t *testing.T) {
	opts := DefaultOptions()
	opts.JoinTrackSegments = true
	fc := convertString(t, `<gpx><trk>
  <trkseg><trkpt lat="1" lon="1"/></trkseg>
  <trkseg><trkpt lat="2" lon="2"/></trkseg>
</trk></gpx>`, &opts)

	assert.Empty(t, fc.Features)
}

func TestToFeatureCollection_JoinedTimes(t *testing.T) {
	opts := DefaultOptions()
	opts.JoinTrackSegments = true
	fc := convertString(t, `<gpx><trk>
  <trkseg><trkpt lat="1" lon="1"><time>2025-01-01T00:00:00Z</time></trkpt><trkpt lat="2" lon="2"/></trkseg>
  <trkseg><trkpt lat="3" lon="3"/><trkpt lat="4" lon="4"/></trkseg>
</trk></gpx>`, &opts)

	require.Len(t, fc.Features, 1)
	assert.JSONEq(t, `{"times": [["2025-01-01T00:00:00Z", null], [null, null]]}`,
		mustJSON(t, fc.Features[0].Properties["coordinateProperties"]))
}

func TestToFeatureCollection_TypeFilter(t *testing.T) {
	opts := DefaultOptions()
	opts.Types = []ElementType{TypeWaypoint}
	fc := convertString(t, fixtureComplete, &opts)
	assert.Equal(t, []string{"waypoint", "waypoint"}, gpxTypes(fc))
	assert.Equal(t, "Tokyo Tower", fc.Features[0].Properties["name"])

	opts.Types = []ElementType{TypeTrack, TypeRoute}
	fc = convertString(t, fixtureComplete, &opts)
	assert.Equal(t, []string{"route", "track"}, gpxTypes(fc), "output order does not follow the filter order")

	opts.Types = []ElementType{}
	fc = convertString(t, fixtureComplete, &opts)
	assert.Empty(t, fc.Features)
	assert.JSONEq(t, `{"type":"FeatureCollection","features":[]}`, mustJSON(t, fc))
}

func TestToFeatureCollection_NoMetadata(t *testing.T) {
	opts := DefaultOptions()
	opts.IncludeMetadata = false
	opts.IncludeTime = false
	fc := convertString(t, fixtureComplete, &opts)

	for _, f := range fc.Features {
		assert.Len(t, f.Properties, 1)
		assert.Contains(t, f.Properties, "gpxType")
	}
}

func TestToFeatureCollection_NoMetadataKeepsOnlyGpxTypeOnPoints(t *testing.T) {
	opts := DefaultOptions()
	opts.IncludeMetadata = false
	opts.IncludeTime = true
	fc := convertString(t, `<gpx>
  <wpt lat="1" lon="2"><time>2025-01-01T00:00:00Z</time></wpt>
  <trk><trkseg>
    <trkpt lat="1" lon="1"><time>2025-01-01T00:00:00Z</time></trkpt>
    <trkpt lat="2" lon="2"><time>2025-01-01T00:01:00Z</time></trkpt>
  </trkseg></trk>
</gpx>`, &opts)

	require.Len(t, fc.Features, 2)
	assert.Equal(t, map[string]interface{}{"gpxType": "waypoint"}, fc.Features[0].Properties)
	assert.JSONEq(t, `{
		"gpxType": "track",
		"coordinateProperties": {"times": ["2025-01-01T00:00:00Z", "2025-01-01T00:01:00Z"]}
	}`, mustJSON(t, fc.Features[1].Properties), "line times follow includeTime alone")
}

func TestToFeatureCollection_TimesKeepSourceText(t *testing.T) {
	fc := convertString(t, `<gpx>
  <wpt lat="1" lon="2"><time>2025-01-01T00:00:00.000Z</time></wpt>
  <wpt lat="1" lon="2"><time> 2025-01-01T12:00:00 </time></wpt>
  <trk><trkseg>
    <trkpt lat="1" lon="1"><time>2025-01-01T12:00Z</time></trkpt>
    <trkpt lat="2" lon="2"><time>2025-01-01T21:00:00.000+0900</time></trkpt>
  </trkseg></trk>
</gpx>`, nil)

	require.Len(t, fc.Features, 3)
	assert.Equal(t, "2025-01-01T00:00:00.000Z", fc.Features[0].Properties["time"])
	assert.Equal(t, "2025-01-01T12:00:00", fc.Features[1].Properties["time"])
	assert.JSONEq(t, `{"times": ["2025-01-01T12:00Z", "2025-01-01T21:00:00.000+0900"]}`,
		mustJSON(t, fc.Features[2].Properties["coordinateProperties"]))
}

func TestToFeatureCollection_SupplementaryMetadata(t *testing.T) {
	fc := convertString(t, `<gpx>
  <wpt lat="1" lon="2">
    <cmt>c</cmt><src>s</src><sym>Flag</sym><type>POI</type>
    <link href="https://example.com"><text>t</text></link>
  </wpt>
  <trk><name>T</name><number>3</number><type>running</type>
    <trkseg><trkpt lat="1" lon="1"/><trkpt lat="2" lon="2"/></trkseg>
  </trk>
</gpx>`, nil)

	require.Len(t, fc.Features, 2)
	assert.JSONEq(t, `{
		"gpxType": "waypoint", "cmt": "c", "src": "s", "sym": "Flag", "type": "POI",
		"link": {"href": "https://example.com", "text": "t"}
	}`, mustJSON(t, fc.Features[0].Properties))
	assert.JSONEq(t, `{"gpxType": "track", "name": "T", "number": 3, "type": "running"}`,
		mustJSON(t, fc.Features[1].Properties))
}

func TestToFeatureCollection_NamespaceIndependent(t *testing.T) {
	prefixed := `<g:gpx xmlns:g="http://www.topografix.com/GPX/1/1" version="1.1">
  <g:wpt lat="35.6762" lon="139.6503"><g:name>Tokyo Tower</g:name><g:ele>40.5</g:ele></g:wpt>
  <g:wpt lat="35.7101" lon="139.8107"><g:name>Skytree</g:name></g:wpt>
  <g:rte>
    <g:name>Loop</g:name>
    <g:rtept lat="35.0" lon="139.0"><g:ele>5</g:ele></g:rtept>
    <g:rtept lat="35.1" lon="139.1"/>
  </g:rte>
  <g:trk>
    <g:name>Run</g:name>
    <g:trkseg>
      <g:trkpt lat="35.0" lon="139.0"><g:ele>10</g:ele><g:time>2025-01-01T06:00:00Z</g:time></g:trkpt>
      <g:trkpt lat="35.001" lon="139.001"><g:ele>11</g:ele><g:time>2025-01-01T06:01:00Z</g:time></g:trkpt>
    </g:trkseg>
  </g:trk>
</g:gpx>`

	assert.Equal(t,
		mustJSON(t, convertString(t, fixtureComplete, nil)),
		mustJSON(t, convertString(t, prefixed, nil)))
}

func TestToFeatureCollection_RoundTripIsStable(t *testing.T) {
	first := mustJSON(t, convertString(t, fixtureComplete, nil))

	reparse := func(in string) string {
		var decoded interface{}
		require.NoError(t, json.Unmarshal([]byte(in), &decoded))
		return mustJSON(t, decoded)
	}

	second := reparse(first)
	assert.JSONEq(t, first, second)
	assert.Equal(t, second, reparse(second))
}

func TestToFeatureCollection_NilDocument(t *testing.T) {
	fc := ToFeatureCollection(nil, nil)
	assert.Equal(t, geo.TypeFeatureCollection, fc.Type)
	assert.NotNil(t, fc.Features)
	assert.Empty(t, fc.Features)
}
