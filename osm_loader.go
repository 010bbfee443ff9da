package osm2lanes

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type OSMScanner interface {
	Scan() bool
	Close() error
	Err() error
	Object() osm.Object
}

var (
	mphRegExp   = regexp.MustCompile(`\d+\.?\d*\s*mph`)
	kmhRegExp   = regexp.MustCompile(`^\d+\.?\d*\s*(km/h)?$`)
	numberRegEx = regexp.MustCompile(`\d+\.?\d*`)
	lanesRegExp = regexp.MustCompile(`^\d+`)
)

const mphToKmh = 1.609344

var (
	junctionTypes = map[string]struct{}{
		"circular":   {},
		"roundabout": {},
	}
	// See ref.: https://wiki.openstreetmap.org/wiki/Tag:oneway%3Dreversible
	onewayReversible = map[string]struct{}{
		"reversible":  {},
		"alternating": {},
	}
)

// ReadOSM reads road ways, their nodes, turn restrictions and traffic controls from *.osm, *.xml or *.pbf file.
// Node coordinates are projected into local plane around the center of used nodes.
func ReadOSM(filename string, logger *zap.Logger) (*Topology, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("Opening file", zap.String("filename", filename))
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't open file '%s'", filename)
	}
	defer file.Close()
	return readOSMStream(file, osmExtension(filename), logger)
}

func osmExtension(filename string) string {
	if strings.HasSuffix(filename, ".osm.pbf") {
		return ".pbf"
	}
	return filepath.Ext(filename)
}

func newOSMScanner(ctx context.Context, r io.Reader, ext string) (OSMScanner, error) {
	switch ext {
	case ".osm", ".xml":
		return osmxml.New(ctx, r), nil
	case ".pbf":
		return osmpbf.New(ctx, r, 4), nil
	default:
		return nil, fmt.Errorf("File extension '%s' is not handled yet", ext)
	}
}

// scanOSM runs single pass over the stream, calling handler for every object
func scanOSM(r io.ReadSeeker, ext string, handler func(obj osm.Object)) error {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return errors.Wrap(err, "Can't seek to the start of data")
	}
	scanner, err := newOSMScanner(context.Background(), r, ext)
	if err != nil {
		return err
	}
	defer scanner.Close()
	for scanner.Scan() {
		handler(scanner.Object())
	}
	return scanner.Err()
}

func readOSMStream(r io.ReadSeeker, ext string, logger *zap.Logger) (*Topology, error) {
	topology := NewTopology()

	/* Process ways */
	st := time.Now()
	nodesSeen := make(map[osm.NodeID]struct{})
	unhandledOneway := 0
	err := scanOSM(r, ext, func(obj osm.Object) {
		way, ok := obj.(*osm.Way)
		if !ok {
			return
		}
		highway := way.Tags.Find("highway")
		if _, ok := ParseRoadType(highway); !ok {
			return
		}
		if way.Tags.Find("area") == "yes" || len(way.Nodes) < 2 {
			return
		}
		record := NewWayRecord(way.ID, highway, make([]osm.NodeID, 0, len(way.Nodes)))
		for _, node := range way.Nodes {
			nodesSeen[node.ID] = struct{}{}
			record.Nodes = append(record.Nodes, node.ID)
		}
		if !flattenWayTags(record, way.Tags, logger) {
			unhandledOneway++
		}
		topology.Ways = append(topology.Ways, record)
		topology.Controls = append(topology.Controls, wayControls(way)...)
	})
	if err != nil {
		return nil, errors.Wrap(err, "Can't scan ways")
	}
	if unhandledOneway > 0 {
		logger.Warn("Unhandled `oneway` tag values have been met. Such ways are considered as two-way", zap.Int("ways", unhandledOneway))
	}
	logger.Info("Ways have been processed", zap.Int("ways", len(topology.Ways)), zap.Duration("elapsed", time.Since(st)))

	/* Process nodes */
	st = time.Now()
	type rawNode struct {
		id       osm.NodeID
		point    orb.Point
		controls []ControlType
	}
	rawNodes := make([]rawNode, 0, len(nodesSeen))
	err = scanOSM(r, ext, func(obj osm.Object) {
		node, ok := obj.(*osm.Node)
		if !ok {
			return
		}
		if _, ok := nodesSeen[node.ID]; !ok {
			return
		}
		delete(nodesSeen, node.ID)
		rawNodes = append(rawNodes, rawNode{
			id:       node.ID,
			point:    orb.Point{node.Lon, node.Lat},
			controls: nodeControls(node.Tags),
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "Can't scan nodes")
	}
	if len(nodesSeen) > 0 {
		logger.Warn("Some nodes referenced by ways are missing in data", zap.Int("missing", len(nodesSeen)))
	}
	if len(rawNodes) > 0 {
		points := make(orb.MultiPoint, len(rawNodes))
		for i := range rawNodes {
			points[i] = rawNodes[i].point
		}
		topology.Projection = NewLocalProjection(points.Bound().Center())
		for _, node := range rawNodes {
			topology.AddNode(node.id, topology.Projection.Forward(node.point), node.controls...)
		}
	}
	logger.Info("Nodes have been processed", zap.Int("nodes", len(topology.Nodes)), zap.Duration("elapsed", time.Since(st)))

	/* Process maneuvers (turn restrictions only) */
	st = time.Now()
	skippedRestrictions := 0
	err = scanOSM(r, ext, func(obj osm.Object) {
		relation, ok := obj.(*osm.Relation)
		if !ok {
			return
		}
		tag := relation.Tags.Find("restriction")
		if tag == "" {
			return
		}
		restriction, ok := parseRestriction(relation, tag)
		if !ok {
			skippedRestrictions++
			return
		}
		topology.Restrictions = append(topology.Restrictions, restriction)
	})
	if err != nil {
		return nil, errors.Wrap(err, "Can't scan relations")
	}
	if skippedRestrictions > 0 {
		logger.Warn("Restrictions with unsupported type or members have been skipped", zap.Int("skipped", skippedRestrictions))
	}
	logger.Info("Maneuvers have been processed", zap.Int("restrictions", len(topology.Restrictions)), zap.Duration("elapsed", time.Since(st)))
	return topology, nil
}

// parseRestriction extracts from/via/to members. Exactly one 'from' way, one 'to' way and one 'via' node or way are expected
func parseRestriction(relation *osm.Relation, tag string) (Restriction, bool) {
	kind, ok := ParseRestrictionType(tag)
	if !ok {
		return Restriction{}, false
	}
	restriction := Restriction{Type: kind}
	from, to, via := 0, 0, 0
	for _, member := range relation.Members {
		switch member.Role {
		case "from":
			if member.Type != osm.TypeWay {
				return Restriction{}, false
			}
			restriction.From = osm.WayID(member.Ref)
			from++
		case "to":
			if member.Type != osm.TypeWay {
				return Restriction{}, false
			}
			restriction.To = osm.WayID(member.Ref)
			to++
		case "via":
			switch member.Type {
			case osm.TypeNode:
				restriction.ViaNode = osm.NodeID(member.Ref)
			case osm.TypeWay:
				restriction.ViaWay = osm.WayID(member.Ref)
			default:
				return Restriction{}, false
			}
			via++
		default:
			return Restriction{}, false
		}
	}
	if from != 1 || to != 1 || via != 1 {
		return Restriction{}, false
	}
	return restriction, true
}

// flattenWayTags fills numeric and turn fields of the record. Returns false if `oneway` value is not handled
func flattenWayTags(record *WayRecord, tags osm.Tags, logger *zap.Logger) bool {
	handled := true
	onewayText := tags.Find("oneway")
	switch {
	case onewayText == "yes" || onewayText == "1" || onewayText == "true":
		record.Oneway = ONEWAY_YES
	case onewayText == "no" || onewayText == "0" || onewayText == "false":
		record.Oneway = ONEWAY_NO
	case onewayText == "-1" || onewayText == "reverse":
		record.Oneway = ONEWAY_REVERSE
	case onewayText == "":
		if _, ok := junctionTypes[tags.Find("junction")]; ok {
			record.Oneway = ONEWAY_YES
		}
	default:
		// Reversible or alternating depend on time conditions
		record.Oneway = ONEWAY_NO
		if _, ok := onewayReversible[onewayText]; !ok {
			handled = false
			logger.Debug("Unhandled `oneway` tag value", zap.String("value", onewayText), zap.Int64("way_id", int64(record.ID)))
		}
	}

	record.TurnLanes = tags.Find("turn:lanes")
	record.TurnLanesForward = tags.Find("turn:lanes:forward")
	record.TurnLanesBackward = tags.Find("turn:lanes:backward")

	record.Lanes = parseLanesTag(tags.Find("lanes"), "lanes", record.ID, logger)
	record.LanesForward = parseLanesTag(tags.Find("lanes:forward"), "lanes:forward", record.ID, logger)
	record.LanesBackward = parseLanesTag(tags.Find("lanes:backward"), "lanes:backward", record.ID, logger)
	record.MaxSpeed = parseMaxSpeed(tags.Find("maxspeed"))
	return handled
}

// parseLanesTag returns -1 for empty or malformed value. Values like "2;3" take the leading number
func parseLanesTag(value, key string, wayID osm.WayID, logger *zap.Logger) int {
	if value == "" {
		return -1
	}
	lanesNum := lanesRegExp.FindString(strings.TrimSpace(value))
	if lanesNum == "" {
		logger.Debug("Tag value should be an integer", zap.String("tag", key), zap.String("value", value), zap.Int64("way_id", int64(wayID)))
		return -1
	}
	lanes, err := strconv.Atoi(lanesNum)
	if err != nil {
		return -1
	}
	return lanes
}

// parseMaxSpeed converts `maxspeed` value to km/h. Returns -1 for unparsable values such as "none" or "signals"
func parseMaxSpeed(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return -1
	}
	if mph := mphRegExp.FindString(value); mph != "" {
		speed, err := strconv.ParseFloat(numberRegEx.FindString(mph), 64)
		if err != nil {
			return -1
		}
		return speed * mphToKmh
	}
	if kmhRegExp.MatchString(value) {
		speed, err := strconv.ParseFloat(numberRegEx.FindString(value), 64)
		if err != nil {
			return -1
		}
		return speed
	}
	return -1
}

func nodeControls(tags osm.Tags) []ControlType {
	controls := []ControlType{}
	if control, ok := controlTypeByTag[tags.Find("highway")]; ok {
		controls = append(controls, control)
	}
	if tags.Find("crossing") != "" && tags.Find("highway") != "crossing" {
		controls = appendControlUnique(controls, CONTROL_CROSSING)
	}
	if len(controls) == 0 {
		return nil
	}
	return controls
}

// wayControls annotates whole crossing ways (footway=crossing), signalized ones get traffic signals as well
func wayControls(way *osm.Way) []ControlAnnotation {
	if way.Tags.Find("footway") != "crossing" && way.Tags.Find("highway") != "crossing" {
		return nil
	}
	annotations := []ControlAnnotation{{WayID: way.ID, Type: CONTROL_CROSSING}}
	if way.Tags.Find("crossing") == "traffic_signals" {
		annotations = append(annotations, ControlAnnotation{WayID: way.ID, Type: CONTROL_TRAFFIC_SIGNALS})
	}
	return annotations
}
