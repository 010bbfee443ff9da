package osm2lanes

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/pkg/errors"
)

// PrepareWKTLinestring returns WKT representation of the line (in WGS84 when projection is provided)
func PrepareWKTLinestring(line orb.LineString, proj *LocalProjection) string {
	if proj != nil {
		line = proj.InverseLine(line)
	}
	return wkt.MarshalString(line)
}

// ExportLanesCSV writes lanes of every layer with semicolon separator:
//
//	layer;lane_id;edge_id;forward;connector;movement;start_width;end_width;length;successors;geom
//
// Successors are comma separated. Geometry is WKT of centerline.
func ExportLanesCSV(g *Graph, w io.Writer) error {
	writer := csv.NewWriter(w)
	writer.Comma = ';'
	err := writer.Write([]string{"layer", "lane_id", "edge_id", "forward", "connector", "movement", "start_width", "end_width", "length", "successors", "geom"})
	if err != nil {
		return errors.Wrap(err, "Can't write header")
	}
	for _, layer := range g.layers() {
		for _, lid := range layer.SortedLaneIDs() {
			lane := layer.Lane(lid)
			successors := make([]string, len(lane.Successors()))
			for i, succ := range lane.Successors() {
				successors[i] = fmt.Sprintf("%d", succ)
			}
			err = writer.Write([]string{
				layer.Layer.String(),
				fmt.Sprintf("%d", lane.ID),
				fmt.Sprintf("%d", lane.EdgeID),
				fmt.Sprintf("%t", lane.Forward),
				fmt.Sprintf("%t", lane.IsConnector()),
				lane.Movement.String(),
				fmt.Sprintf("%f", lane.StartWidth),
				fmt.Sprintf("%f", lane.EndWidth),
				fmt.Sprintf("%f", lane.Length()),
				strings.Join(successors, ","),
				PrepareWKTLinestring(lane.Centerline, layer.Projection),
			})
			if err != nil {
				return errors.Wrapf(err, "Can't write lane %d", lid)
			}
		}
	}
	writer.Flush()
	return writer.Error()
}
