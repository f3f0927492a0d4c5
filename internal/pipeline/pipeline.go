// Package pipeline orchestrates the analytics stages over a loaded
// dataset: filter, KPI aggregation, route risk, recommendations, model
// fits, emissions, and anomaly detection. A run is pure with respect to
// the loaded dataset, so results are cached until the next reload.
package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/nexgen-logistics/lanewatch/internal/dataset"
	"github.com/nexgen-logistics/lanewatch/internal/domain"
	"github.com/nexgen-logistics/lanewatch/internal/filter"
	"github.com/nexgen-logistics/lanewatch/internal/kpi"
	"github.com/nexgen-logistics/lanewatch/internal/merge"
	"github.com/nexgen-logistics/lanewatch/internal/model"
	"github.com/nexgen-logistics/lanewatch/internal/risk"
)

var tracer = otel.Tracer("lanewatch-pipeline")

// Metadata carries per-run diagnostics.
type Metadata struct {
	StageMs map[string]int64 `json:"stage_ms"`
	TotalMs int64            `json:"total_ms"`
	Cached  bool             `json:"cached"`
}

// Result is one complete pipeline run over a filtered view.
type Result struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	RecordCount int       `json:"record_count"`

	Orders          []domain.EnrichedOrder   `json:"orders"`
	KPIs            domain.KPISummary        `json:"kpis"`
	RouteRisk       []domain.RouteRisk       `json:"route_risk"`
	Recommendations []domain.Recommendation  `json:"recommendations"`
	RouteEfficiency []domain.RouteEfficiency `json:"route_efficiency"`

	CostModel       *model.FitSummary `json:"cost_model"`
	DelayModel      *model.FitSummary `json:"delay_model"`
	DelayClassifier *model.FitSummary `json:"delay_classifier"`

	Emissions kpi.EmissionsReport `json:"emissions"`
	Anomalies risk.AnomalyReport  `json:"anomalies"`

	Fleet     []kpi.StatusCount   `json:"fleet"`
	Warehouse kpi.WarehouseReport `json:"warehouse"`

	Metadata Metadata `json:"metadata"`
}

// ModelSet holds the fitted models behind one filtered view's predict
// endpoints. Any member may be nil when training data was insufficient.
type ModelSet struct {
	Cost       *model.Regressor
	Delay      *model.Regressor
	Classifier *model.Classifier
}

// Runner executes pipeline runs over the currently loaded dataset.
type Runner struct {
	dataDir  string
	modelCfg domain.ModelConfig
	cache    domain.Cache
	cacheTTL time.Duration
	logger   *slog.Logger

	mu         sync.RWMutex
	store      *dataset.Store
	records    []domain.EnrichedOrder
	generation string

	// runMu serializes computation after a cache miss so identical
	// concurrent requests do not duplicate work.
	runMu sync.Mutex

	modelMu sync.Mutex
	models  map[string]*ModelSet
}

// NewRunner loads the dataset from dataDir and prepares the merged record
// set. The only load error is domain.ErrNoOrders.
func NewRunner(dataDir string, modelCfg domain.ModelConfig, c domain.Cache, cacheTTL time.Duration, logger *slog.Logger) (*Runner, error) {
	if logger == nil {
		logger = slog.Default()
	}

	r := &Runner{
		dataDir:  dataDir,
		modelCfg: modelCfg,
		cache:    c,
		cacheTTL: cacheTTL,
		logger:   logger,
		models:   make(map[string]*ModelSet),
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Runner) load() error {
	st := dataset.Load(r.dataDir)
	if err := st.Validate(); err != nil {
		return err
	}

	records := merge.Merge(st)

	r.mu.Lock()
	r.store = st
	r.records = records
	r.generation = uuid.New().String()
	r.mu.Unlock()

	r.modelMu.Lock()
	r.models = make(map[string]*ModelSet)
	r.modelMu.Unlock()

	r.logger.Info("dataset loaded",
		"orders", len(st.Orders),
		"merged_records", len(records),
		"fleet", len(st.Fleet),
	)
	return nil
}

// Reload re-ingests the data directory. On error the previous dataset
// keeps serving.
func (r *Runner) Reload(ctx context.Context) error {
	r.runMu.Lock()
	defer r.runMu.Unlock()
	return r.load()
}

// Generation identifies the currently loaded dataset. It rotates on every
// successful reload, which retires all cached results for prior datasets.
func (r *Runner) Generation() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.generation
}

// RecordCount returns the size of the merged record set.
func (r *Runner) RecordCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

func (r *Runner) snapshot() (*dataset.Store, []domain.EnrichedOrder, string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.store, r.records, r.generation
}

// Run executes the full pipeline for one filter parameter set, serving
// from cache when an identical run already happened on this dataset.
func (r *Runner) Run(ctx context.Context, params filter.Params) (*Result, error) {
	ctx, span := tracer.Start(ctx, "pipeline.run")
	defer span.End()

	st, records, gen := r.snapshot()
	key := gen + "|" + params.Key()

	if res := r.cached(ctx, key); res != nil {
		return res, nil
	}

	r.runMu.Lock()
	defer r.runMu.Unlock()

	// Re-check after acquiring the run lock: another request may have
	// computed this view while we waited.
	if res := r.cached(ctx, key); res != nil {
		return res, nil
	}

	started := time.Now()
	res := &Result{
		RunID:       uuid.New().String(),
		GeneratedAt: started.UTC(),
		Metadata:    Metadata{StageMs: make(map[string]int64)},
	}

	var view []domain.EnrichedOrder
	var err error
	if err = r.stage(ctx, res, "filter", func() error {
		view, err = filter.Apply(records, st.Caps, params)
		return err
	}); err != nil {
		return nil, err
	}
	res.RecordCount = len(view)
	res.Orders = view

	_ = r.stage(ctx, res, "kpi", func() error {
		res.KPIs = kpi.Compute(view)
		return nil
	})

	_ = r.stage(ctx, res, "risk", func() error {
		res.RouteRisk = risk.ComputeRouteRisk(view)
		return nil
	})

	_ = r.stage(ctx, res, "recommend", func() error {
		res.Recommendations = risk.RecommendAlternatives(res.RouteRisk, st.Fleet)
		return nil
	})

	_ = r.stage(ctx, res, "models", func() error {
		set := &ModelSet{}
		var cs, ds, cls *model.FitSummary
		set.Cost, cs = model.FitCostModel(view, r.modelCfg)
		set.Delay, ds = model.FitDelayModel(view, r.modelCfg)
		set.Classifier, cls = model.FitDelayClassifier(view, st.Caps, r.modelCfg)
		res.CostModel, res.DelayModel, res.DelayClassifier = cs, ds, cls

		r.modelMu.Lock()
		r.models[key] = set
		r.modelMu.Unlock()
		return nil
	})

	_ = r.stage(ctx, res, "emissions", func() error {
		res.Emissions = kpi.Emissions(view)
		return nil
	})

	_ = r.stage(ctx, res, "anomalies", func() error {
		res.Anomalies = risk.DetectCostAnomalies(view)
		return nil
	})

	_ = r.stage(ctx, res, "summaries", func() error {
		res.Fleet = kpi.FleetSummary(st.Fleet)
		res.Warehouse = kpi.WarehouseSummary(st.Warehouse)
		res.RouteEfficiency = risk.RouteEfficiencies(st.Routes)
		return nil
	})

	res.Metadata.TotalMs = time.Since(started).Milliseconds()

	r.storeResult(ctx, key, res)

	r.logger.Info("pipeline run",
		"run_id", res.RunID,
		"records", res.RecordCount,
		"routes", len(res.RouteRisk),
		"duration_ms", res.Metadata.TotalMs,
	)
	return res, nil
}

// Models returns the fitted models for one filtered view, memoized per
// dataset generation. On a miss it fits from a single snapshot rather
// than delegating to Run, so a reload landing mid-call cannot leave the
// caller keyless: the returned set is never nil, though its members are
// when training data was insufficient.
func (r *Runner) Models(ctx context.Context, params filter.Params) (*ModelSet, error) {
	_, span := tracer.Start(ctx, "pipeline.models")
	defer span.End()

	st, records, gen := r.snapshot()
	key := gen + "|" + params.Key()

	r.modelMu.Lock()
	set, ok := r.models[key]
	r.modelMu.Unlock()
	if ok {
		return set, nil
	}

	view, err := filter.Apply(records, st.Caps, params)
	if err != nil {
		return nil, err
	}

	set = &ModelSet{}
	set.Cost, _ = model.FitCostModel(view, r.modelCfg)
	set.Delay, _ = model.FitDelayModel(view, r.modelCfg)
	set.Classifier, _ = model.FitDelayClassifier(view, st.Caps, r.modelCfg)

	r.modelMu.Lock()
	r.models[key] = set
	r.modelMu.Unlock()
	return set, nil
}

func (r *Runner) stage(ctx context.Context, res *Result, name string, fn func() error) error {
	_, span := tracer.Start(ctx, "pipeline."+name)
	defer span.End()

	started := time.Now()
	err := fn()
	res.Metadata.StageMs[name] = time.Since(started).Milliseconds()
	return err
}

func (r *Runner) cached(ctx context.Context, key string) *Result {
	if r.cache == nil {
		return nil
	}
	data, err := r.cache.Get(ctx, key)
	if err != nil || data == nil {
		return nil
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		r.logger.Warn("discarding undecodable cached result", "error", err)
		return nil
	}
	res.Metadata.Cached = true
	return &res
}

func (r *Runner) storeResult(ctx context.Context, key string, res *Result) {
	if r.cache == nil {
		return
	}
	data, err := json.Marshal(res)
	if err != nil {
		r.logger.Warn("failed to serialize result for cache", "error", err)
		return
	}
	if err := r.cache.Set(ctx, key, data, r.cacheTTL); err != nil {
		r.logger.Warn("failed to cache result", "error", err)
	}
}
