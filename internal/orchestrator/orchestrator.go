// Package orchestrator plans and executes benchmark suites: every test case
// against every registered backend at every concurrency level, collecting
// latency, throughput, quality, and cost figures per run.
package orchestrator

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"

	"storebench/internal/backend"
	"storebench/internal/datagen"
	"storebench/internal/logging"
	"storebench/internal/metrics"
	"storebench/internal/ratelimit"
	"storebench/internal/tracing"
)

// Domain selects which capability interface a test case exercises.
type Domain string

const (
	DomainKnowledgeBase Domain = "knowledge_base"
	DomainMemory        Domain = "memory"
)

// Document counts per data scale for knowledge-base runs.
var kbScaleCounts = map[string]int{
	"tiny":   10,
	"small":  100,
	"medium": 1000,
	"large":  10000,
}

// Memory record counts per data scale.
var memoryScaleCounts = map[string]int{
	"tiny":   20,
	"small":  200,
	"medium": 2000,
	"large":  20000,
}

// TestCase describes one workload to run against a backend.
type TestCase struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Domain      Domain            `json:"domain"`
	Description string            `json:"description,omitempty"`
	DataScale   string            `json:"data_scale"`
	NumQueries  int               `json:"num_queries"`
	TopK        int               `json:"top_k"`
	Filters     map[string]string `json:"filters,omitempty"`
}

// TestResult holds everything measured during one run.
type TestResult struct {
	TestCaseID  string                  `json:"test_case_id"`
	BackendName string                  `json:"backend_name"`
	DataScale   string                  `json:"data_scale"`
	Concurrency int                     `json:"concurrency"`
	Latency     metrics.LatencyStats    `json:"latency"`
	Throughput  metrics.ThroughputStats `json:"throughput"`
	Quality     *metrics.QualityStats   `json:"quality,omitempty"`
	Cost        *metrics.CostEstimate   `json:"cost,omitempty"`
	Timestamp   time.Time               `json:"timestamp"`
	Details     map[string]interface{}  `json:"details,omitempty"`
}

// SuiteResult aggregates every run of one suite invocation.
type SuiteResult struct {
	SuiteName     string                 `json:"suite_name"`
	Results       []TestResult           `json:"results"`
	StartTime     time.Time              `json:"start_time"`
	EndTime       time.Time              `json:"end_time"`
	TotalDuration float64                `json:"total_duration_seconds"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

// Options configure an Orchestrator.
type Options struct {
	Logger   *logging.Logger
	Tracer   *tracing.Service
	Seed     int64
	NumUsers int
	// Limiters throttles backend calls per service. Nil disables limiting.
	Limiters *ratelimit.Registry
}

// Orchestrator owns the backend registry and runs suites against it.
type Orchestrator struct {
	mu          sync.RWMutex
	kbBackends  map[string]backend.KnowledgeBase
	memBackends map[string]backend.MemoryStore

	logger   *logging.Logger
	tracer   *tracing.Service
	seed     int64
	numUsers int
	limiters *ratelimit.Registry
}

// New creates an orchestrator with no registered backends.
func New(opts Options) *Orchestrator {
	numUsers := opts.NumUsers
	if numUsers <= 0 {
		numUsers = 10
	}
	return &Orchestrator{
		kbBackends:  make(map[string]backend.KnowledgeBase),
		memBackends: make(map[string]backend.MemoryStore),
		logger:      opts.Logger,
		tracer:      opts.Tracer,
		seed:        opts.Seed,
		numUsers:    numUsers,
		limiters:    opts.Limiters,
	}
}

// RegisterBackend adds a backend under its own name. A backend may serve
// both domains if it implements both interfaces.
func (o *Orchestrator) RegisterBackend(b backend.Backend) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	registered := false
	if kb, ok := b.(backend.KnowledgeBase); ok {
		o.kbBackends[b.Name()] = kb
		registered = true
	}
	if mem, ok := b.(backend.MemoryStore); ok {
		o.memBackends[b.Name()] = mem
		registered = true
	}
	if !registered {
		return fmt.Errorf("backend %q implements neither capability interface", b.Name())
	}
	return nil
}

// lookup returns the backend serving the given domain under name.
func (o *Orchestrator) lookup(name string, domain Domain) (backend.Backend, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	switch domain {
	case DomainKnowledgeBase:
		b, ok := o.kbBackends[name]
		return b, ok
	case DomainMemory:
		b, ok := o.memBackends[name]
		return b, ok
	}
	return nil, false
}

// registered reports whether a backend name is known under any domain.
func (o *Orchestrator) registered(name string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if _, ok := o.kbBackends[name]; ok {
		return true
	}
	_, ok := o.memBackends[name]
	return ok
}

// planned is one (case, backend, concurrency) combination.
type planned struct {
	testCase    TestCase
	backendName string
	concurrency int
}

// plan validates the requested combinations and expands them. Any backend
// name that is not registered at all fails the whole suite before a single
// run starts. Each case pairs only with the named backends that serve its
// domain.
func (o *Orchestrator) plan(backendNames []string, cases []TestCase, levels []int) ([]planned, error) {
	if len(cases) == 0 {
		return nil, fmt.Errorf("no test cases given")
	}
	if len(backendNames) == 0 {
		return nil, fmt.Errorf("no backends given")
	}
	if len(levels) == 0 {
		return nil, fmt.Errorf("no concurrency levels given")
	}

	for _, name := range backendNames {
		if !o.registered(name) {
			return nil, fmt.Errorf("backend %q is not registered", name)
		}
	}
	for _, tc := range cases {
		if tc.Domain != DomainKnowledgeBase && tc.Domain != DomainMemory {
			return nil, fmt.Errorf("test case %q has unknown domain %q", tc.ID, tc.Domain)
		}
		if _, ok := kbScaleCounts[tc.DataScale]; !ok {
			return nil, fmt.Errorf("test case %q has unknown data scale %q", tc.ID, tc.DataScale)
		}
	}
	for _, level := range levels {
		if level <= 0 {
			return nil, fmt.Errorf("invalid concurrency level %d", level)
		}
	}

	var plans []planned
	for _, tc := range cases {
		for _, name := range backendNames {
			if _, ok := o.lookup(name, tc.Domain); !ok {
				continue
			}
			for _, level := range levels {
				plans = append(plans, planned{testCase: tc, backendName: name, concurrency: level})
			}
		}
	}
	if len(plans) == 0 {
		return nil, fmt.Errorf("no backend serves any requested test case domain")
	}
	return plans, nil
}

// RunSuite executes every combination of case, backend, and concurrency
// level. A failing run yields a zero-valued result carrying the error in its
// details; the rest of the suite continues, so the result count always
// equals the planned combination count.
func (o *Orchestrator) RunSuite(ctx context.Context, suiteName string, backendNames []string, cases []TestCase, levels []int) (SuiteResult, error) {
	plans, err := o.plan(backendNames, cases, levels)
	if err != nil {
		return SuiteResult{}, fmt.Errorf("suite planning failed: %w", err)
	}

	suite := SuiteResult{
		SuiteName: suiteName,
		StartTime: time.Now(),
		Results:   make([]TestResult, 0, len(plans)),
		Metadata: map[string]interface{}{
			"backends":           backendNames,
			"concurrency_levels": levels,
			"num_cases":          len(cases),
		},
	}

	for _, p := range plans {
		if o.logger != nil {
			o.logger.RunStart(ctx, p.testCase.ID, p.backendName, p.concurrency)
		}
		start := time.Now()
		result, err := o.runSingle(ctx, p)
		if err != nil {
			result = o.failedResult(p, err)
		}
		if o.logger != nil {
			o.logger.RunEnd(ctx, p.testCase.ID, p.backendName, time.Since(start), err)
		}
		suite.Results = append(suite.Results, result)
	}

	suite.EndTime = time.Now()
	suite.TotalDuration = suite.EndTime.Sub(suite.StartTime).Seconds()
	return suite, nil
}

// failedResult converts a run error into a zero-valued result so the suite
// keeps its planned shape.
func (o *Orchestrator) failedResult(p planned, err error) TestResult {
	return TestResult{
		TestCaseID:  p.testCase.ID,
		BackendName: p.backendName,
		DataScale:   p.testCase.DataScale,
		Concurrency: p.concurrency,
		Timestamp:   time.Now(),
		Details: map[string]interface{}{
			"error": err.Error(),
		},
	}
}

// runSingle executes one combination with a fresh collector.
func (o *Orchestrator) runSingle(ctx context.Context, p planned) (result TestResult, err error) {
	if o.tracer != nil {
		spanCtx, span := o.tracer.InstrumentRun(ctx, p.testCase.ID, p.backendName, p.concurrency)
		defer func() {
			if err != nil {
				o.tracer.RecordError(span, err)
			}
			span.End()
		}()
		ctx = spanCtx
	}

	collector := metrics.NewCollector()
	switch p.testCase.Domain {
	case DomainKnowledgeBase:
		return o.runKnowledgeBase(ctx, p, collector)
	case DomainMemory:
		return o.runMemory(ctx, p, collector)
	}
	return TestResult{}, fmt.Errorf("unknown domain %q", p.testCase.Domain)
}

// acquire waits on the backend's rate limiter when limiting is enabled.
func (o *Orchestrator) acquire(ctx context.Context, service string) error {
	if o.limiters == nil {
		return nil
	}
	limiter, err := o.limiters.ForService(service)
	if err != nil {
		return err
	}
	_, err = limiter.Acquire(ctx, 1)
	return err
}

// traceOp wraps a run phase in a span when tracing is enabled.
func (o *Orchestrator) traceOp(ctx context.Context, name string, fn func(context.Context) error) error {
	if o.tracer == nil {
		return fn(ctx)
	}
	return o.tracer.TraceOperation(ctx, name, func(ctx context.Context, _ oteltrace.Span) error {
		return fn(ctx)
	})
}

// instrumentCall opens a span for one backend call. The returned finish
// records the call error and ends the span.
func (o *Orchestrator) instrumentCall(ctx context.Context, backendName, operation string) (context.Context, func(error)) {
	if o.tracer == nil {
		return ctx, func(error) {}
	}
	callCtx, span := o.tracer.InstrumentBackendCall(ctx, backendName, operation)
	return callCtx, func(err error) {
		if err != nil {
			o.tracer.RecordError(span, err)
		}
		span.End()
	}
}

// runKnowledgeBase loads a synthetic corpus into the backend, builds the
// index, then issues the case's queries serially or in concurrent batches,
// scoring retrieval quality against ground truth.
func (o *Orchestrator) runKnowledgeBase(ctx context.Context, p planned, collector *metrics.Collector) (TestResult, error) {
	kb, ok := o.lookup(p.backendName, DomainKnowledgeBase)
	if !ok {
		return TestResult{}, fmt.Errorf("backend %q not registered for knowledge base domain", p.backendName)
	}
	store := kb.(backend.KnowledgeBase)

	docCount := kbScaleCounts[p.testCase.DataScale]
	numQueries := p.testCase.NumQueries
	if numQueries <= 0 {
		numQueries = 50
	}
	topK := p.testCase.TopK
	if topK <= 0 {
		topK = 10
	}

	gen := datagen.NewGenerator(o.seed)
	docs := gen.Documents(docCount, 400)
	queries, truth := gen.QueriesWithGroundTruth(numQueries, docs)

	if err := store.Initialize(ctx); err != nil {
		return TestResult{}, fmt.Errorf("initialize failed: %w", err)
	}
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if cerr := store.Cleanup(cleanupCtx); cerr != nil && o.logger != nil {
			o.logger.WithError(cerr).Warn("Backend cleanup failed", "backend", p.backendName)
		}
	}()

	details := make(map[string]interface{})

	var upload backend.UploadResult
	err := o.traceOp(ctx, "phase.upload", func(ctx context.Context) error {
		var uerr error
		upload, uerr = store.UploadDocuments(ctx, docs)
		return uerr
	})
	if err != nil {
		return TestResult{}, fmt.Errorf("upload failed: %w", err)
	}
	details["upload_ms"] = upload.TotalTimeMS
	details["upload_success"] = upload.SuccessCount
	details["upload_failed"] = upload.FailedCount

	var index backend.IndexResult
	err = o.traceOp(ctx, "phase.index", func(ctx context.Context) error {
		var ierr error
		index, ierr = store.BuildIndex(ctx)
		return ierr
	})
	if err != nil {
		return TestResult{}, fmt.Errorf("index build failed: %w", err)
	}
	if !index.Success {
		return TestResult{}, fmt.Errorf("index build reported failure")
	}
	details["index_ms"] = index.IndexTimeMS

	// Predictions are filled per query slot; a failed query leaves nil,
	// which scores as zero quality for that slot.
	preds := make([][]string, numQueries)

	queryOne := func(i int) {
		if err := o.acquire(ctx, p.backendName); err != nil {
			collector.RecordLatency("query", 0, false)
			return
		}
		callCtx, finish := o.instrumentCall(ctx, p.backendName, "query")
		start := time.Now()
		qr, qerr := store.Query(callCtx, queries[i], topK, p.testCase.Filters)
		latencyMS := float64(time.Since(start)) / float64(time.Millisecond)
		finish(qerr)
		collector.RecordLatency("query", latencyMS, qerr == nil)
		if qerr != nil {
			return
		}
		ids := make([]string, 0, len(qr.Documents))
		for _, d := range qr.Documents {
			ids = append(ids, d.ID)
		}
		preds[i] = ids
	}

	collector.Start()
	if p.concurrency <= 1 {
		for i := 0; i < numQueries; i++ {
			queryOne(i)
		}
	} else {
		for base := 0; base < numQueries; base += p.concurrency {
			end := base + p.concurrency
			if end > numQueries {
				end = numQueries
			}
			var wg sync.WaitGroup
			for i := base; i < end; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					queryOne(i)
				}(i)
			}
			wg.Wait()
		}
	}
	collector.Stop()

	quality := metrics.QualityMetrics(preds, truth)
	throughput := collector.ThroughputMetrics("query")
	cost := metrics.EstimateCost(p.backendName, throughput.QPS*86400,
		float64(docCount)*400/1e9)

	return TestResult{
		TestCaseID:  p.testCase.ID,
		BackendName: p.backendName,
		DataScale:   p.testCase.DataScale,
		Concurrency: p.concurrency,
		Latency:     collector.LatencyMetrics("query"),
		Throughput:  throughput,
		Quality:     &quality,
		Cost:        &cost,
		Timestamp:   time.Now(),
		Details:     details,
	}, nil
}

// pickUser deterministically assigns a search query to one of the synthetic
// users.
func pickUser(query string, numUsers int) string {
	h := fnv.New32a()
	h.Write([]byte(query))
	return datagen.UserIDs(numUsers)[int(h.Sum32())%numUsers]
}

// runMemory bulk-loads memory records and then searches them per user.
// Memory runs report latency and throughput only; retrieval quality is not
// scored for this domain.
func (o *Orchestrator) runMemory(ctx context.Context, p planned, collector *metrics.Collector) (TestResult, error) {
	mem, ok := o.lookup(p.backendName, DomainMemory)
	if !ok {
		return TestResult{}, fmt.Errorf("backend %q not registered for memory domain", p.backendName)
	}
	store := mem.(backend.MemoryStore)

	recordCount := memoryScaleCounts[p.testCase.DataScale]
	numQueries := p.testCase.NumQueries
	if numQueries <= 0 {
		numQueries = 50
	}
	topK := p.testCase.TopK
	if topK <= 0 {
		topK = 10
	}

	gen := datagen.NewGenerator(o.seed)
	records := gen.MemoryRecords(recordCount, o.numUsers)
	queries := gen.Queries(numQueries)

	if err := store.Initialize(ctx); err != nil {
		return TestResult{}, fmt.Errorf("initialize failed: %w", err)
	}
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if cerr := store.Cleanup(cleanupCtx); cerr != nil && o.logger != nil {
			o.logger.WithError(cerr).Warn("Backend cleanup failed", "backend", p.backendName)
		}
	}()

	details := make(map[string]interface{})

	addStart := time.Now()
	var addResults []backend.MemoryAddResult
	err := o.traceOp(ctx, "phase.add", func(ctx context.Context) error {
		var aerr error
		addResults, aerr = store.AddMemories(ctx, records)
		return aerr
	})
	if err != nil {
		return TestResult{}, fmt.Errorf("bulk add failed: %w", err)
	}
	added, failed := 0, 0
	for _, r := range addResults {
		if r.Success {
			added++
		} else {
			failed++
		}
	}
	details["add_ms"] = float64(time.Since(addStart)) / float64(time.Millisecond)
	details["add_success"] = added
	details["add_failed"] = failed

	searchOne := func(i int) {
		if err := o.acquire(ctx, p.backendName); err != nil {
			collector.RecordLatency("search", 0, false)
			return
		}
		user := pickUser(queries[i], o.numUsers)
		callCtx, finish := o.instrumentCall(ctx, p.backendName, "search")
		start := time.Now()
		_, serr := store.SearchMemory(callCtx, queries[i], user, topK)
		latencyMS := float64(time.Since(start)) / float64(time.Millisecond)
		finish(serr)
		collector.RecordLatency("search", latencyMS, serr == nil)
	}

	collector.Start()
	if p.concurrency <= 1 {
		for i := 0; i < numQueries; i++ {
			searchOne(i)
		}
	} else {
		for base := 0; base < numQueries; base += p.concurrency {
			end := base + p.concurrency
			if end > numQueries {
				end = numQueries
			}
			var wg sync.WaitGroup
			for i := base; i < end; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					searchOne(i)
				}(i)
			}
			wg.Wait()
		}
	}
	collector.Stop()

	throughput := collector.ThroughputMetrics("search")
	cost := metrics.EstimateCost(p.backendName, throughput.QPS*86400,
		float64(recordCount)*100/1e9)

	return TestResult{
		TestCaseID:  p.testCase.ID,
		BackendName: p.backendName,
		DataScale:   p.testCase.DataScale,
		Concurrency: p.concurrency,
		Latency:     collector.LatencyMetrics("search"),
		Throughput:  throughput,
		Cost:        &cost,
		Timestamp:   time.Now(),
		Details:     details,
	}, nil
}
