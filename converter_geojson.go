package osm2lanes

import (
	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	polyline "github.com/twpayne/go-polyline"
)

// lineCoordinates returns coordinates of the line in WGS84 when projection is known, in local plane otherwise
func lineCoordinates(line orb.LineString, proj *LocalProjection) [][]float64 {
	if proj != nil {
		line = proj.InverseLine(line)
	}
	pts2d := make([][]float64, len(line))
	for i, pt := range line {
		pts2d[i] = []float64{pt[0], pt[1]}
	}
	return pts2d
}

// encodePolyline returns Google encoded polyline of WGS84 line
func encodePolyline(coords [][]float64) string {
	latLon := make([][]float64, len(coords))
	for i, pt := range coords {
		latLon[i] = []float64{pt[1], pt[0]}
	}
	return string(polyline.EncodeCoords(latLon))
}

// PrepareGeoJSONLinestring returns GeoJSON geometry of the line
func PrepareGeoJSONLinestring(line orb.LineString, proj *LocalProjection) (string, error) {
	b, err := geojson.NewLineStringGeometry(lineCoordinates(line, proj)).MarshalJSON()
	if err != nil {
		return "", errors.Wrap(err, "Can't convert geometry to GeoJSON")
	}
	return string(b), nil
}

// ExportGeoJSON returns feature collection with centerline and polygon of every lane of every layer
func ExportGeoJSON(g *Graph) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for _, layer := range g.layers() {
		for _, lid := range layer.SortedLaneIDs() {
			lane := layer.Lane(lid)
			coords := lineCoordinates(lane.Centerline, layer.Projection)
			centerline := geojson.NewLineStringFeature(coords)
			setLaneProperties(centerline, layer, lane)
			centerline.SetProperty("kind", "centerline")
			if layer.Projection != nil {
				centerline.SetProperty("polyline", encodePolyline(coords))
			}
			fc.AddFeature(centerline)

			if len(lane.LeftBoundary) < 2 || len(lane.RightBoundary) < 2 {
				continue
			}
			ring := lane.Polygon()
			polygon := geojson.NewPolygonFeature([][][]float64{lineCoordinates(orb.LineString(ring), layer.Projection)})
			setLaneProperties(polygon, layer, lane)
			polygon.SetProperty("kind", "polygon")
			fc.AddFeature(polygon)
		}
	}
	b, err := fc.MarshalJSON()
	if err != nil {
		return nil, errors.Wrap(err, "Can't marshal feature collection")
	}
	return b, nil
}

func setLaneProperties(feature *geojson.Feature, layer *Graph, lane *Lane) {
	feature.SetProperty("layer", layer.Layer.String())
	feature.SetProperty("lane_id", int(lane.ID))
	feature.SetProperty("edge_id", int(lane.EdgeID))
	feature.SetProperty("forward", lane.Forward)
	feature.SetProperty("connector", lane.IsConnector())
	feature.SetProperty("start_width", lane.StartWidth)
	feature.SetProperty("end_width", lane.EndWidth)
	if lane.IsConnector() {
		feature.SetProperty("junction", int(lane.Junction))
		feature.SetProperty("movement", lane.Movement.String())
		feature.SetProperty("composite_movement", lane.CompositeMovement.String())
	} else {
		feature.SetProperty("turns", lane.Turns.String())
	}
	successors := make([]int, len(lane.Successors()))
	for i, succ := range lane.Successors() {
		successors[i] = int(succ)
	}
	feature.SetProperty("successors", successors)
}
