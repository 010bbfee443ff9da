package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/LdDl/osm2lanes"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configFile string
	verbose    bool
)

func main() {
	root := &cobra.Command{
		Use:          "osm2lanes",
		Short:        "osm2lanes builds lane-level road graph from OSM data",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "Configuration file (YAML, TOML or JSON). Defaults are used if not provided")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newConvertCmd())
	root.AddCommand(newRouteCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

// prepareConfig merges configuration file (if any) with command flags. Changed flags win
func prepareConfig(cmd *cobra.Command) (*osm2lanes.Config, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "Can't read configuration file '%s'", configFile)
		}
	}
	for key, flagName := range map[string]string{"sub_layer": "sub-layer", "workers": "workers"} {
		if flag := cmd.Flags().Lookup(flagName); flag != nil {
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, errors.Wrapf(err, "Can't bind flag '%s'", flagName)
			}
		}
	}
	return osm2lanes.ConfigFromViper(v)
}

// processFile reads OSM file and runs every pipeline stage on it
func processFile(cmd *cobra.Command, filename string, logger *zap.Logger) (*osm2lanes.Graph, *osm2lanes.Pipeline, error) {
	cfg, err := prepareConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("Configuration", zap.String("config", cfg.String()))
	topology, err := osm2lanes.ReadOSM(filename, logger)
	if err != nil {
		return nil, nil, errors.Wrap(err, "Can't read OSM data")
	}
	pipeline := osm2lanes.NewPipeline(cfg, osm2lanes.NewIDAllocator(), osm2lanes.WithLogger(logger))
	g, err := pipeline.Process(topology)
	if err != nil {
		return nil, nil, errors.Wrap(err, "Can't process OSM data")
	}
	return g, pipeline, nil
}

func newConvertCmd() *cobra.Command {
	var (
		osmFileName string
		out         string
		format      string
	)
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert OSM file into lane-level graph",
		Long:  "Convert *.osm, *.xml or *.pbf file into lane-level graph. If output name is 'map' then 'map.geojson' and/or 'map_lanes.csv' are produced",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			g, pipeline, err := processFile(cmd, osmFileName, logger)
			if err != nil {
				return err
			}
			fnamePart := strings.TrimSuffix(strings.TrimSuffix(out, ".geojson"), ".csv")
			format = strings.ToLower(format)
			if format == "geojson" || format == "both" {
				b, err := osm2lanes.ExportGeoJSON(g)
				if err != nil {
					return err
				}
				if err := os.WriteFile(fnamePart+".geojson", b, 0644); err != nil {
					return errors.Wrap(err, "Can't write GeoJSON file")
				}
			}
			if format == "csv" || format == "both" {
				file, err := os.Create(fnamePart + "_lanes.csv")
				if err != nil {
					return errors.Wrap(err, "Can't create CSV file")
				}
				defer file.Close()
				if err := osm2lanes.ExportLanesCSV(g, file); err != nil {
					return err
				}
			}
			logger.Info("Done", zap.String("stats", pipeline.Stats().String()))
			return nil
		},
	}
	cmd.Flags().StringVar(&osmFileName, "file", "my_graph.osm.pbf", "Filename of *.osm, *.xml or *.osm.pbf file")
	cmd.Flags().StringVar(&out, "out", "my_graph", "Base name of output files")
	cmd.Flags().StringVar(&format, "format", "both", "Output format. Expected values: geojson / csv / both")
	cmd.Flags().Bool("sub-layer", false, "Build pedestrian sub-layer")
	cmd.Flags().Int("workers", 1, "Number of goroutines for per-edge processing")
	return cmd
}

func newRouteCmd() *cobra.Command {
	var (
		osmFileName string
		from        int
		to          int
	)
	cmd := &cobra.Command{
		Use:   "route",
		Short: "Find shortest path between two lanes",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			g, _, err := processFile(cmd, osmFileName, logger)
			if err != nil {
				return err
			}
			router, err := osm2lanes.NewLaneRouter(g, logger)
			if err != nil {
				return err
			}
			cost, path, err := router.ShortestPath(osm2lanes.LaneID(from), osm2lanes.LaneID(to))
			if err != nil {
				return err
			}
			ids := make([]string, len(path))
			for i, lid := range path {
				ids[i] = fmt.Sprintf("%d", lid)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cost: %f\npath: %s\n", cost, strings.Join(ids, ","))
			return nil
		},
	}
	cmd.Flags().StringVar(&osmFileName, "file", "my_graph.osm.pbf", "Filename of *.osm, *.xml or *.osm.pbf file")
	cmd.Flags().IntVar(&from, "from", 0, "Source lane ID")
	cmd.Flags().IntVar(&to, "to", 0, "Target lane ID")
	return cmd
}
