package osm2lanes

type RoadType uint16

const (
	ROAD_MOTORWAY = RoadType(iota + 1)
	ROAD_TRUNK
	ROAD_PRIMARY
	ROAD_SECONDARY
	ROAD_TERTIARY
	ROAD_RESIDENTIAL
	ROAD_LIVING_STREET
	ROAD_SERVICE
	ROAD_UNCLASSIFIED
	ROAD_FOOTWAY
	ROAD_PEDESTRIAN
	ROAD_STEPS
	ROAD_PATH
)

func (iotaIdx RoadType) String() string {
	if iotaIdx == 0 || int(iotaIdx) > len(roadTypeNames) {
		return "undefined"
	}
	return roadTypeNames[iotaIdx-1]
}

var roadTypeNames = [...]string{"motorway", "trunk", "primary", "secondary", "tertiary", "residential", "living_street", "service", "unclassified", "footway", "pedestrian", "steps", "path"}

// LayerType tells which graph layer a road belongs to
type LayerType uint16

const (
	LAYER_PRIMARY = LayerType(iota + 1)
	LAYER_SUB
)

func (iotaIdx LayerType) String() string {
	return [...]string{"primary", "sub"}[iotaIdx-1]
}

type roadComposition struct {
	roadType RoadType
	isLink   bool
}

// ParseRoadType returns road type for given value of `highway` tag.
// Second returned value is false for values which are not handled.
func ParseRoadType(highway string) (RoadType, bool) {
	if found, ok := roadTypeByHighway[highway]; ok {
		return found.roadType, true
	}
	return 0, false
}

// Layer returns graph layer for the road type
func (iotaIdx RoadType) Layer() LayerType {
	switch iotaIdx {
	case ROAD_FOOTWAY, ROAD_PEDESTRIAN, ROAD_STEPS, ROAD_PATH:
		return LAYER_SUB
	default:
		return LAYER_PRIMARY
	}
}

var (
	roadTypeByHighway = map[string]roadComposition{
		"motorway":       {ROAD_MOTORWAY, false},
		"motorway_link":  {ROAD_MOTORWAY, true},
		"trunk":          {ROAD_TRUNK, false},
		"trunk_link":     {ROAD_TRUNK, true},
		"primary":        {ROAD_PRIMARY, false},
		"primary_link":   {ROAD_PRIMARY, true},
		"secondary":      {ROAD_SECONDARY, false},
		"secondary_link": {ROAD_SECONDARY, true},
		"tertiary":       {ROAD_TERTIARY, false},
		"tertiary_link":  {ROAD_TERTIARY, true},
		"residential":    {ROAD_RESIDENTIAL, false},
		"living_street":  {ROAD_LIVING_STREET, false},
		"service":        {ROAD_SERVICE, false},
		"unclassified":   {ROAD_UNCLASSIFIED, false},
		"footway":        {ROAD_FOOTWAY, false},
		"pedestrian":     {ROAD_PEDESTRIAN, false},
		"steps":          {ROAD_STEPS, false},
		"path":           {ROAD_PATH, false},
	}

	onewayDefaultByRoad = map[RoadType]bool{
		ROAD_MOTORWAY: true,
	}

	// Lanes per direction
	defaultLanesByRoadType = map[RoadType]int{
		ROAD_MOTORWAY:      2,
		ROAD_TRUNK:         2,
		ROAD_PRIMARY:       2,
		ROAD_SECONDARY:     1,
		ROAD_TERTIARY:      1,
		ROAD_RESIDENTIAL:   1,
		ROAD_LIVING_STREET: 1,
		ROAD_SERVICE:       1,
		ROAD_UNCLASSIFIED:  1,
		ROAD_FOOTWAY:       1,
		ROAD_PEDESTRIAN:    1,
		ROAD_STEPS:         1,
		ROAD_PATH:          1,
	}

	// km/h
	defaultSpeedByRoadType = map[RoadType]float64{
		ROAD_MOTORWAY:      120,
		ROAD_TRUNK:         100,
		ROAD_PRIMARY:       80,
		ROAD_SECONDARY:     60,
		ROAD_TERTIARY:      40,
		ROAD_RESIDENTIAL:   30,
		ROAD_LIVING_STREET: 20,
		ROAD_SERVICE:       30,
		ROAD_UNCLASSIFIED:  30,
		ROAD_FOOTWAY:       5,
		ROAD_PEDESTRIAN:    5,
		ROAD_STEPS:         3,
		ROAD_PATH:          5,
	}

	// meters
	defaultLaneWidthByRoadType = map[RoadType]float64{
		ROAD_MOTORWAY:      3.75,
		ROAD_TRUNK:         3.75,
		ROAD_PRIMARY:       3.5,
		ROAD_SECONDARY:     3.5,
		ROAD_TERTIARY:      3.25,
		ROAD_RESIDENTIAL:   3.0,
		ROAD_LIVING_STREET: 3.0,
		ROAD_SERVICE:       3.0,
		ROAD_UNCLASSIFIED:  3.0,
		ROAD_FOOTWAY:       1.0,
		ROAD_PEDESTRIAN:    1.5,
		ROAD_STEPS:         1.0,
		ROAD_PATH:          1.0,
	}
)
