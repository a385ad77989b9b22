package algo

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"linegraph/logger"
	"linegraph/metrics"
	"linegraph/model"
	"linegraph/reader"
)

// Report 一次导入的汇总
type Report struct {
	RunID           string
	FeaturesRead    int
	FeaturesSkipped int
	Applied         int
	Duplicates      int
	Failed          int
	Cases           map[Case]int
	Failures        []Outcome // 合并失败的边及原因
	SkippedErrors   []error   // 非严格模式下跳过的要素及原因
}

func newReport() *Report {
	return &Report{
		RunID: uuid.NewString(),
		Cases: make(map[Case]int),
	}
}

// Edges 处理过的边总数
func (r *Report) Edges() int {
	return r.Applied + r.Duplicates + r.Failed
}

func (r *Report) add(o Outcome) {
	switch o.Status {
	case StatusApplied:
		r.Applied++
	case StatusDuplicate:
		r.Duplicates++
	case StatusFailed:
		r.Failed++
		r.Failures = append(r.Failures, o)
	}
	if o.Case != CaseUnknown {
		r.Cases[o.Case]++
	}
}

// Err 把所有失败的边合并成一个错误，没有失败时返回 nil
func (r *Report) Err() error {
	var result *multierror.Error
	for _, f := range r.Failures {
		result = multierror.Append(result, fmt.Errorf("%s -> %s: %w", f.FromID, f.ToID, f.Err))
	}
	return result.ErrorOrNil()
}

// Driver 按顺序把要素拆成边并逐条合并
type Driver struct {
	Engine     *Engine
	Decomposer reader.Decomposer
	Strict     bool // 严格模式: 要素级的结构错误中止整个导入
	Log        *logger.Logger
	Metrics    *metrics.Recorder
}

// Ingest 消费要素流
// 单条边的合并失败永远不会中止导入；要素无法拆分时，严格模式返回错误，否则跳过该要素。
// 文件级的读取错误总是致命的。返回的 Report 在出错时也包含已处理部分的统计。
func (d *Driver) Ingest(ctx context.Context, features iter.Seq2[reader.Feature, error]) (*Report, error) {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	report := newReport()
	log = log.With("run_id", report.RunID)

	for feat, err := range features {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return report, ctxErr
		}

		var fe *reader.FeatureError
		if err != nil && !errors.As(err, &fe) {
			// 文件级错误，不是一个要素
			return report, err
		}

		report.FeaturesRead++
		if err == nil {
			edges, decErr := d.Decomposer.Edges(feat)
			if decErr == nil {
				d.Metrics.ObserveFeature("ok")
				if err := d.mergeAll(ctx, edges, report); err != nil {
					return report, err
				}
				continue
			}
			err = decErr
		}

		if !errors.As(err, &fe) {
			return report, err
		}
		if d.Strict {
			return report, fmt.Errorf("数据错误 (严格模式): %w", err)
		}
		report.FeaturesSkipped++
		report.SkippedErrors = append(report.SkippedErrors, err)
		d.Metrics.ObserveFeature("skipped")
		log.Warn("跳过要素", "layer", fe.Layer, "index", fe.Index, "error", fe.Err)
	}

	log.Info("导入完成",
		"features", report.FeaturesRead,
		"skipped", report.FeaturesSkipped,
		"applied", report.Applied,
		"duplicates", report.Duplicates,
		"failed", report.Failed,
	)
	return report, nil
}

func (d *Driver) mergeAll(ctx context.Context, edges []model.CandidateEdge, report *Report) error {
	for _, edge := range edges {
		if err := ctx.Err(); err != nil {
			return err
		}
		report.add(d.Engine.Merge(ctx, edge))
	}
	return nil
}
