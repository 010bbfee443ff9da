package osm2lanes

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config holds every tunable of the pipeline. Distances are in units of projected coordinates (meters for OSM input)
type Config struct {
	// Junction nodes closer than this are merged into one
	MergeDistance float64 `mapstructure:"merge_distance"`
	// Angle (degrees) between outward directions of two edges must exceed it to treat them as continuation of each other
	ContinuationAngle float64 `mapstructure:"continuation_angle"`
	// Distance along edge used to estimate its direction at a node
	LookAhead float64 `mapstructure:"look_ahead"`
	// Spacing of points produced by Bezier interpolation
	InterpolationSpacing float64 `mapstructure:"interpolation_spacing"`
	// Max distance edges are cut back from a junction
	CropMargin float64 `mapstructure:"crop_margin"`
	// Multiplier of CropMargin at pedestrian crossings
	CrossingMarginRatio float64 `mapstructure:"crossing_margin_ratio"`
	// Share of endpoint separation used to place cubic Bezier control points
	BezierTension float64 `mapstructure:"bezier_tension"`
	// Connectors with max curvature below this value are straight continuations
	StraightCurvature float64 `mapstructure:"straight_curvature"`
	// Max gap between ends of two lanes of the same road which may be joined directly, without connector
	JoinTolerance float64 `mapstructure:"join_tolerance"`
	// Zero disables the corresponding simplification pass
	SimplifyDistance    float64 `mapstructure:"simplify_distance"`
	SimplifyCompression float64 `mapstructure:"simplify_compression"`
	// Zero keeps average natural number of points
	TargetSpacing      float64 `mapstructure:"target_spacing"`
	AllowDeadEndUTurns bool    `mapstructure:"allow_dead_end_u_turns"`
	// Build pedestrian sub-layer graph
	SubLayer bool `mapstructure:"sub_layer"`
	// Number of goroutines for per-edge work. Values below 2 mean sequential processing
	Workers int `mapstructure:"workers"`
	// Overrides of road type defaults. Keys are road type names: "residential", "primary", etc.
	DefaultLaneWidth map[string]float64 `mapstructure:"default_lane_width"`
	DefaultLanes     map[string]int     `mapstructure:"default_lanes"`
	DefaultSpeed     map[string]float64 `mapstructure:"default_speed"`
}

// DefaultConfig returns configuration suitable for OSM data projected to meters
func DefaultConfig() *Config {
	return &Config{
		MergeDistance:        2.0,
		ContinuationAngle:    150.0,
		LookAhead:            5.0,
		InterpolationSpacing: 2.0,
		CropMargin:           12.0,
		CrossingMarginRatio:  0.1,
		BezierTension:        0.35,
		StraightCurvature:    0.01,
		JoinTolerance:        1.0,
		SimplifyDistance:     0.0,
		SimplifyCompression:  0.0,
		TargetSpacing:        0.0,
		AllowDeadEndUTurns:   false,
		SubLayer:             false,
		Workers:              1,
		DefaultLaneWidth:     map[string]float64{},
		DefaultLanes:         map[string]int{},
		DefaultSpeed:         map[string]float64{},
	}
}

func setConfigDefaults(v *viper.Viper) {
	def := DefaultConfig()
	v.SetDefault("merge_distance", def.MergeDistance)
	v.SetDefault("continuation_angle", def.ContinuationAngle)
	v.SetDefault("look_ahead", def.LookAhead)
	v.SetDefault("interpolation_spacing", def.InterpolationSpacing)
	v.SetDefault("crop_margin", def.CropMargin)
	v.SetDefault("crossing_margin_ratio", def.CrossingMarginRatio)
	v.SetDefault("bezier_tension", def.BezierTension)
	v.SetDefault("straight_curvature", def.StraightCurvature)
	v.SetDefault("join_tolerance", def.JoinTolerance)
	v.SetDefault("simplify_distance", def.SimplifyDistance)
	v.SetDefault("simplify_compression", def.SimplifyCompression)
	v.SetDefault("target_spacing", def.TargetSpacing)
	v.SetDefault("allow_dead_end_u_turns", def.AllowDeadEndUTurns)
	v.SetDefault("sub_layer", def.SubLayer)
	v.SetDefault("workers", def.Workers)
}

// LoadConfig reads configuration file (YAML, TOML or JSON, guessed by extension).
// Options missing in the file keep default values.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return readConfig(v)
}

// ConfigFromViper builds configuration from already prepared viper instance (e.g. with bound CLI flags)
func ConfigFromViper(v *viper.Viper) (*Config, error) {
	setConfigDefaults(v)
	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "Can't decode configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readConfig(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "Can't read configuration file")
	}
	return ConfigFromViper(v)
}

// Validate checks ranges of numeric options
func (cfg *Config) Validate() error {
	if cfg.MergeDistance < 0 {
		return fmt.Errorf("merge_distance should be non-negative. Got %f", cfg.MergeDistance)
	}
	if cfg.ContinuationAngle <= 0 || cfg.ContinuationAngle > 180 {
		return fmt.Errorf("continuation_angle should be in (0, 180]. Got %f", cfg.ContinuationAngle)
	}
	if cfg.InterpolationSpacing <= 0 {
		return fmt.Errorf("interpolation_spacing should be positive. Got %f", cfg.InterpolationSpacing)
	}
	if cfg.CropMargin < 0 {
		return fmt.Errorf("crop_margin should be non-negative. Got %f", cfg.CropMargin)
	}
	if cfg.CrossingMarginRatio < 0 || cfg.CrossingMarginRatio > 1 {
		return fmt.Errorf("crossing_margin_ratio should be in [0, 1]. Got %f", cfg.CrossingMarginRatio)
	}
	if cfg.BezierTension <= 0 || cfg.BezierTension >= 1 {
		return fmt.Errorf("bezier_tension should be in (0, 1). Got %f", cfg.BezierTension)
	}
	if cfg.StraightCurvature < 0 || cfg.JoinTolerance < 0 || cfg.SimplifyDistance < 0 || cfg.SimplifyCompression < 0 || cfg.TargetSpacing < 0 {
		return fmt.Errorf("Thresholds should be non-negative")
	}
	for road, width := range cfg.DefaultLaneWidth {
		if width <= 0 {
			return fmt.Errorf("Lane width for '%s' should be positive. Got %f", road, width)
		}
	}
	for road, lanes := range cfg.DefaultLanes {
		if lanes <= 0 {
			return fmt.Errorf("Default lanes for '%s' should be positive. Got %d", road, lanes)
		}
	}
	return nil
}

func (cfg *Config) continuationAngleRad() float64 {
	return cfg.ContinuationAngle * math.Pi / 180.0
}

func (cfg *Config) laneWidth(road RoadType) float64 {
	if width, ok := cfg.DefaultLaneWidth[road.String()]; ok {
		return width
	}
	if width, ok := defaultLaneWidthByRoadType[road]; ok {
		return width
	}
	return 3.0
}

// lanesPerDirection returns default number of lanes for single direction
func (cfg *Config) lanesPerDirection(road RoadType) int {
	if lanes, ok := cfg.DefaultLanes[road.String()]; ok {
		return lanes
	}
	if lanes, ok := defaultLanesByRoadType[road]; ok {
		return lanes
	}
	return 1
}

func (cfg *Config) speed(road RoadType) float64 {
	if speed, ok := cfg.DefaultSpeed[road.String()]; ok {
		return speed
	}
	if speed, ok := defaultSpeedByRoadType[road]; ok {
		return speed
	}
	return 30
}

func (cfg *Config) String() string {
	return fmt.Sprintf(`
Pipeline parameters:
	merge_distance: %f
	continuation_angle: %f
	look_ahead: %f
	interpolation_spacing: %f
	crop_margin: %f
	crossing_margin_ratio: %f
	bezier_tension: %f
	straight_curvature: %f
	join_tolerance: %f
	simplify_distance: %f
	simplify_compression: %f
	target_spacing: %f
	allow_dead_end_u_turns: %t
	sub_layer: %t
	workers: %d
	default_lane_width: %v
	default_lanes: %v
	default_speed: %v
	`,
		cfg.MergeDistance,
		cfg.ContinuationAngle,
		cfg.LookAhead,
		cfg.InterpolationSpacing,
		cfg.CropMargin,
		cfg.CrossingMarginRatio,
		cfg.BezierTension,
		cfg.StraightCurvature,
		cfg.JoinTolerance,
		cfg.SimplifyDistance,
		cfg.SimplifyCompression,
		cfg.TargetSpacing,
		cfg.AllowDeadEndUTurns,
		cfg.SubLayer,
		cfg.Workers,
		cfg.DefaultLaneWidth,
		cfg.DefaultLanes,
		cfg.DefaultSpeed,
	)
}
