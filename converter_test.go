package osm2lanes

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportGeoJSON(t *testing.T) {
	g, err := NewPipeline(nil, nil).Process(fourWayTopology())
	require.NoError(t, err)
	b, err := ExportGeoJSON(g)
	require.NoError(t, err)

	fc, err := geojson.UnmarshalFeatureCollection(b)
	require.NoError(t, err)
	centerlines, polygons := 0, 0
	connectors := 0
	for _, feature := range fc.Features {
		switch feature.Properties["kind"] {
		case "centerline":
			centerlines++
			assert.True(t, feature.Geometry.IsLineString())
			if feature.Properties["connector"] == true {
				connectors++
				assert.Contains(t, []interface{}{"thru", "left", "right", "uturn"}, feature.Properties["movement"])
			}
		case "polygon":
			polygons++
			assert.True(t, feature.Geometry.IsPolygon())
		}
		assert.Equal(t, "primary", feature.Properties["layer"])
		// No projection: no polyline property
		assert.NotContains(t, feature.Properties, "polyline")
	}
	assert.Equal(t, g.LanesNum(), centerlines)
	assert.Equal(t, g.LanesNum(), polygons)
	assert.Equal(t, 3, connectors)
}

func TestExportLanesCSV(t *testing.T) {
	g, err := NewPipeline(nil, nil).Process(straightTopology())
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, ExportLanesCSV(g, &buf))

	reader := csv.NewReader(&buf)
	reader.Comma = ';'
	records, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, g.LanesNum()+1)
	assert.Equal(t, []string{"layer", "lane_id", "edge_id", "forward", "connector", "movement", "start_width", "end_width", "length", "successors", "geom"}, records[0])
	for _, row := range records[1:] {
		assert.Equal(t, "primary", row[0])
		assert.Equal(t, "false", row[4])
		assert.True(t, strings.HasPrefix(row[10], "LINESTRING("), row[10])
	}
}

func TestPrepareWKTLinestring(t *testing.T) {
	line := orb.LineString{{0, 0}, {10, 5}}
	assert.Equal(t, "LINESTRING(0 0,10 5)", PrepareWKTLinestring(line, nil))

	proj := NewLocalProjection(orb.Point{37.6, 55.75})
	parsed, err := wkt.UnmarshalLineString(PrepareWKTLinestring(orb.LineString{{0, 0}, {100, 0}}, proj))
	require.NoError(t, err)
	require.Len(t, parsed, 2)
	assertPointInDelta(t, orb.Point{37.6, 55.75}, parsed[0], 1e-9)
	assert.Greater(t, parsed[1][0], 37.6)
	assert.InDelta(t, 55.75, parsed[1][1], 1e-9)
}

func TestPrepareGeoJSONLinestring(t *testing.T) {
	s, err := PrepareGeoJSONLinestring(orb.LineString{{0, 0}, {1, 2}}, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"LineString","coordinates":[[0,0],[1,2]]}`, s)
}

func TestEncodePolyline(t *testing.T) {
	// Reference value from polyline algorithm description
	coords := [][]float64{{-120.2, 38.5}, {-120.95, 40.7}, {-126.453, 43.252}}
	assert.Equal(t, "_p~iF~ps|U_ulLnnqC_mqNvxq`@", encodePolyline(coords))
}
