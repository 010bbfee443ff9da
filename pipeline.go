package osm2lanes

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Stage uint16

const (
	STAGE_BUILT = Stage(iota + 1)
	STAGE_MERGED
	STAGE_LINKED
	STAGE_WAYPOINTS_READY
	STAGE_LANE_LINKS_READY
	STAGE_FINALIZED
)

func (iotaIdx Stage) String() string {
	if iotaIdx < STAGE_BUILT || iotaIdx > STAGE_FINALIZED {
		return "undefined"
	}
	return [...]string{"built", "merged", "linked", "waypoints_ready", "lane_links_ready", "finalized"}[iotaIdx-1]
}

// EditHook is called on every graph layer when pipeline reaches pause point. Hook may edit the graph
// through Graph methods. Returned error aborts the run.
type EditHook func(g *Graph) error

// Stats summarizes pipeline run over all layers
type Stats struct {
	Nodes         int
	Edges         int
	Lanes         int
	Connectors    int
	PrunedLinks   int
	MergedNodes   int
	DeletedEdges  int
	DeletedLanes  int
	Continuations int
}

func (stats Stats) String() string {
	return fmt.Sprintf("nodes: %d, edges: %d, lanes: %d, connectors: %d, pruned links: %d, merged nodes: %d, deleted edges: %d, deleted lanes: %d",
		stats.Nodes, stats.Edges, stats.Lanes, stats.Connectors, stats.PrunedLinks, stats.MergedNodes, stats.DeletedEdges, stats.DeletedLanes)
}

// Pipeline advances graph (and its sub-layer) through Built -> Merged -> Linked -> WaypointsReady -> LaneLinksReady -> Finalized
type Pipeline struct {
	cfg    *Config
	alloc  *IDAllocator
	logger *zap.Logger
	hooks  map[Stage][]EditHook
	stats  Stats
	err    error
}

// NewPipeline creates pipeline. Configuration is copied, so options don't affect the caller's one
func NewPipeline(cfg *Config, alloc *IDAllocator, options ...func(*Pipeline)) *Pipeline {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfgCopy := *cfg
	if alloc == nil {
		alloc = NewIDAllocator()
	}
	pipeline := &Pipeline{
		cfg:    &cfgCopy,
		alloc:  alloc,
		logger: zap.NewNop(),
		hooks:  make(map[Stage][]EditHook),
	}
	for _, option := range options {
		option(pipeline)
	}
	return pipeline
}

func WithLogger(logger *zap.Logger) func(*Pipeline) {
	return func(pipeline *Pipeline) {
		if logger != nil {
			pipeline.logger = logger
		}
	}
}

// WithEditHook registers hook for pause point. Only 'linked' and 'waypoints_ready' stages are pause points
func WithEditHook(stage Stage, hook EditHook) func(*Pipeline) {
	return func(pipeline *Pipeline) {
		if stage != STAGE_LINKED && stage != STAGE_WAYPOINTS_READY {
			pipeline.err = errors.Wrapf(ErrWrongPausePoint, "Can't register hook for stage '%s'", stage)
			return
		}
		pipeline.hooks[stage] = append(pipeline.hooks[stage], hook)
	}
}

// WithSubLayer enables or disables pedestrian sub-layer graph
func WithSubLayer(enabled bool) func(*Pipeline) {
	return func(pipeline *Pipeline) {
		pipeline.cfg.SubLayer = enabled
	}
}

func (pipeline *Pipeline) Config() *Config {
	return pipeline.cfg
}

func (pipeline *Pipeline) Stats() Stats {
	return pipeline.stats
}

// Build creates graph in 'built' stage from topology
func (pipeline *Pipeline) Build(topology *Topology) (*Graph, error) {
	if pipeline.err != nil {
		return nil, pipeline.err
	}
	if err := pipeline.cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "Invalid configuration")
	}
	return NewBuilder(pipeline.cfg, pipeline.alloc, pipeline.logger).Build(topology)
}

// Process builds graph from topology and runs every stage on it
func (pipeline *Pipeline) Process(topology *Topology) (*Graph, error) {
	g, err := pipeline.Build(topology)
	if err != nil {
		return nil, errors.Wrap(err, "Can't build graph")
	}
	if err := pipeline.Run(g); err != nil {
		return nil, err
	}
	return g, nil
}

// Run advances graph till 'finalized' stage, calling edit hooks at pause points, and validates the result
func (pipeline *Pipeline) Run(g *Graph) error {
	if pipeline.err != nil {
		return pipeline.err
	}
	st := time.Now()
	pipeline.logger.Info("Running pipeline", zap.String("stage", g.Stage.String()), zap.Bool("sub_layer", g.HasSubLayer()))
	for g.Stage < STAGE_FINALIZED {
		if err := pipeline.Step(g); err != nil {
			return err
		}
		for _, hook := range pipeline.hooks[g.Stage] {
			for _, layer := range g.layers() {
				if err := hook(layer); err != nil {
					return errors.Wrapf(err, "Edit hook failed at stage '%s'", g.Stage)
				}
				layer.sweep()
			}
		}
	}
	if err := Validate(g); err != nil {
		return errors.Wrap(err, "Finalized graph is invalid")
	}
	pipeline.collectStats(g)
	pipeline.logger.Info("Pipeline is done",
		zap.String("stats", pipeline.stats.String()),
		zap.Duration("elapsed", time.Since(st)),
	)
	return nil
}

// Step advances graph and its sub-layer by exactly one stage
func (pipeline *Pipeline) Step(g *Graph) error {
	if pipeline.err != nil {
		return pipeline.err
	}
	if g == nil {
		return errors.New("graph is nil")
	}
	stage := g.Stage
	if stage < STAGE_BUILT || stage >= STAGE_FINALIZED {
		return errors.Wrapf(ErrStageOrder, "Can't advance graph from stage '%s'", stage)
	}
	for _, layer := range g.layers() {
		if layer.Stage != stage {
			return errors.Wrapf(ErrStageOrder, "Layer '%s' is at stage '%s' while primary layer is at '%s'", layer.Layer, layer.Stage, stage)
		}
	}
	for _, layer := range g.layers() {
		if err := pipeline.runPhase(layer, stage+1); err != nil {
			return errors.Wrapf(err, "Can't advance %s layer to stage '%s'", layer.Layer, stage+1)
		}
		layer.Stage = stage + 1
	}
	return nil
}

func (pipeline *Pipeline) runPhase(g *Graph, target Stage) error {
	cfg, logger := pipeline.cfg, pipeline.logger
	switch target {
	case STAGE_MERGED:
		merged, err := MergeIntersections(g, cfg, logger)
		if err != nil {
			return err
		}
		pipeline.stats.MergedNodes += merged
	case STAGE_LINKED:
		pipeline.stats.Continuations += LinkEdges(g, cfg, logger)
	case STAGE_WAYPOINTS_READY:
		deleted, err := PrepareWaypoints(g, cfg, logger)
		if err != nil {
			return err
		}
		pipeline.stats.DeletedEdges += deleted
	case STAGE_LANE_LINKS_READY:
		stats, err := SynthesizeLaneLinks(g, pipeline.alloc, cfg, logger)
		if err != nil {
			return err
		}
		pipeline.stats.PrunedLinks += stats.Pruned
	case STAGE_FINALIZED:
		deleted, err := FinalizeBounds(g, cfg, logger)
		if err != nil {
			return err
		}
		pipeline.stats.DeletedLanes += deleted
	default:
		return errors.Wrapf(ErrStageOrder, "No phase leads to stage '%s'", target)
	}
	return nil
}

func (pipeline *Pipeline) collectStats(g *Graph) {
	pipeline.stats.Nodes, pipeline.stats.Edges, pipeline.stats.Lanes, pipeline.stats.Connectors = 0, 0, 0, 0
	for _, layer := range g.layers() {
		pipeline.stats.Nodes += layer.NodesNum()
		pipeline.stats.Edges += layer.EdgesNum()
		pipeline.stats.Lanes += layer.LanesNum()
		pipeline.stats.Connectors += len(layer.LaneLinks())
	}
}
