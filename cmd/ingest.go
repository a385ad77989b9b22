package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"linegraph/algo"
	"linegraph/config"
	"linegraph/db"
	"linegraph/logger"
	"linegraph/metrics"
	"linegraph/reader"
	"linegraph/utils"
)

var (
	storeDriver string
	strict      bool
	simplify    bool
	precision   int
	metricsOut  string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file.geojson|file.shp|dir...]",
	Short: "Ingest GeoJSON or Shapefile line features into the graph store",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}
		applyIngestFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}

		log, err := logger.New(cfg.LogMode)
		if err != nil {
			return fmt.Errorf("初始化日志失败: %w", err)
		}
		defer log.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, err := db.Open(ctx, cfg.Store, log)
		if err != nil {
			return err
		}
		defer store.Close(context.Background())

		reg := prometheus.NewRegistry()
		rec := metrics.New(reg)

		resolver := utils.Resolver{Precision: cfg.Ingest.CoordPrecision}
		driver := &algo.Driver{
			Engine:     algo.NewEngine(store, log, algo.WithResolver(resolver), algo.WithMetrics(rec)),
			Decomposer: reader.Decomposer{Simplify: cfg.Ingest.Simplify, Resolver: resolver},
			Strict:     cfg.Ingest.Strict,
			Log:        log,
			Metrics:    rec,
		}

		runErr := ingestAll(ctx, cmd.OutOrStdout(), driver, args)
		if metricsOut != "" {
			// node_exporter textfile 格式，出错时也写出已处理部分
			if err := prometheus.WriteToTextfile(metricsOut, reg); err != nil {
				log.Warn("写入指标文件失败", "path", metricsOut, "error", err)
			}
		}
		if runErr != nil {
			return runErr
		}

		if mem, ok := store.(*db.MemoryStore); ok {
			fmt.Fprintf(cmd.OutOrStdout(), "内存图: %d 个节点, %d 条边\n", len(mem.Nodes()), len(mem.Edges()))
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&storeDriver, "store", "", "store driver: neo4j, postgres, sqlite, memory")
	ingestCmd.Flags().BoolVar(&strict, "strict", true, "abort on features with missing or unsupported geometry")
	ingestCmd.Flags().BoolVar(&simplify, "simplify", true, "use only the first and last point of each line")
	ingestCmd.Flags().IntVar(&precision, "precision", 0, "round coordinates to this many decimals (0 disables)")
	ingestCmd.Flags().StringVar(&metricsOut, "metrics-out", "", "write Prometheus metrics to this textfile after the run")
}

// ingestAll 依次导入每个参数下的所有图层 (目录中的每个文件是一个图层)
func ingestAll(ctx context.Context, w io.Writer, driver *algo.Driver, paths []string) error {
	for _, path := range paths {
		sources, err := reader.Layers(path)
		if err != nil {
			return err
		}
		for _, src := range sources {
			report, err := driver.Ingest(ctx, src.Features())
			printReport(w, src.Path, report)
			if err != nil {
				return fmt.Errorf("%s: %w", src.Path, err)
			}
		}
	}
	return nil
}

// applyIngestFlags 命令行参数优先于环境变量和配置文件
func applyIngestFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("store") {
		cfg.Store.Driver = storeDriver
	}
	if flags.Changed("strict") {
		cfg.Ingest.Strict = strict
	}
	if flags.Changed("simplify") {
		cfg.Ingest.Simplify = simplify
	}
	if flags.Changed("precision") {
		cfg.Ingest.CoordPrecision = precision
	}
}

func printReport(w io.Writer, path string, r *algo.Report) {
	if r == nil {
		return
	}
	fmt.Fprintf(w, "%s (run %s)\n", path, r.RunID)
	fmt.Fprintf(w, "  要素: %d, 跳过: %d\n", r.FeaturesRead, r.FeaturesSkipped)
	fmt.Fprintf(w, "  边: 新建 %d, 重复 %d, 失败 %d\n", r.Applied, r.Duplicates, r.Failed)
	for _, f := range r.Failures {
		fmt.Fprintf(w, "  失败: %s -> %s: %v\n", f.FromID, f.ToID, f.Err)
	}
}
