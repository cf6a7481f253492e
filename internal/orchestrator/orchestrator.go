// Package orchestrator is the Crawl Orchestrator: the single control-plane
// authority that decides which URLs enter the crawl, runs the fetch/file
// worker pools, and wires every pipeline stage (robots, classification,
// extraction, validation, citation, coverage telemetry, storage) around a
// shared Frontier. It generalizes the teacher's single-seed, single-worker
// Scheduler into an N-fetch-worker, M-file-worker pool over many seed
// domains, but keeps the same admission-choke-point discipline: only this
// package imports internal/frontier and constructs
// frontier.CrawlAdmissionCandidate values.
package orchestrator

import (
	"context"
	"errors"
	"net/url"
	"path"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/boltoncivic/crawlctl/internal/citation"
	"github.com/boltoncivic/crawlctl/internal/classify"
	"github.com/boltoncivic/crawlctl/internal/config"
	"github.com/boltoncivic/crawlctl/internal/coverage"
	"github.com/boltoncivic/crawlctl/internal/extract/csvextract"
	"github.com/boltoncivic/crawlctl/internal/extract/pdfextract"
	"github.com/boltoncivic/crawlctl/internal/extract/textextract"
	"github.com/boltoncivic/crawlctl/internal/extract/xlsxextract"
	"github.com/boltoncivic/crawlctl/internal/fetcher"
	"github.com/boltoncivic/crawlctl/internal/filepipeline"
	"github.com/boltoncivic/crawlctl/internal/frontier"
	"github.com/boltoncivic/crawlctl/internal/linkextract"
	"github.com/boltoncivic/crawlctl/internal/model"
	"github.com/boltoncivic/crawlctl/internal/planningextract"
	"github.com/boltoncivic/crawlctl/internal/quality"
	"github.com/boltoncivic/crawlctl/internal/robots"
	"github.com/boltoncivic/crawlctl/internal/robots/cache"
	"github.com/boltoncivic/crawlctl/internal/seedregistry"
	"github.com/boltoncivic/crawlctl/internal/storage"
	"github.com/boltoncivic/crawlctl/internal/validate"
	"github.com/boltoncivic/crawlctl/pkg/failure"
	"github.com/boltoncivic/crawlctl/pkg/limiter"
	"github.com/boltoncivic/crawlctl/pkg/retry"
)

// hardKillGrace is how long Run waits after ctx is cancelled for workers to
// stop cooperatively before it gives up waiting and returns anyway, per the
// concurrency model's cancellation grace period.
const hardKillGrace = 30 * time.Second

// idlePollInterval is how often an idle fetch worker rechecks the frontier
// before concluding the crawl is finished. Termination is driven by the
// pending counter, not by this interval; it only bounds how promptly a
// worker notices the frontier has drained.
const idlePollInterval = 20 * time.Millisecond

// errEmptyGeneralScan is logged when a general-mode PDF scan turns up no
// findings at all, so the coverage log still records that the document was
// looked at even though nothing structured came out of it.
var errEmptyGeneralScan = errors.New("general-mode scan found no extractable signals")

// Orchestrator is the Crawl Orchestrator. Construct with New, then call
// Run once per crawl.
type Orchestrator struct {
	cfg        config.Config
	registry   *seedregistry.Registry
	frontier   *frontier.CrawlFrontier
	robot      *robots.Checker
	fetcher    fetcher.Fetcher
	rateLimiter limiter.RateLimiter
	recorder   coverage.Recorder
	monitor    *coverage.Monitor
	citations  *citation.Service
	files      *filepipeline.Pipeline
	sink       storage.Sink
	retryParam retry.RetryParam

	// parents maps a fetched resource's own URL string to the page that
	// linked to it, populated at admission time from
	// model.FrontierItem.DiscoveredFrom. The Frontier itself carries no
	// notion of "parent", so this is the Orchestrator's own bookkeeping.
	parents sync.Map

	writeMu      sync.Mutex
	writeResults []storage.WriteResult

	totalErrors   int64
	pending       int64
	pendingWrites int64
}

// New wires every supporting package into an Orchestrator. sink, recorder,
// and monitor are injected so the CLI layer controls storage kind
// (JSONFileSink/PostgresSink/NullSink for --dry-run) and whether telemetry
// is wrapped in logging.Recorder.
func New(cfg config.Config, registry *seedregistry.Registry, sink storage.Sink, recorder coverage.Recorder, monitor *coverage.Monitor) *Orchestrator {
	rateLimiter := limiter.NewConcurrentRateLimiter()
	rateLimiter.SetBaseDelay(cfg.BaseDelay())
	rateLimiter.SetJitter(cfg.Jitter())
	rateLimiter.SetRandomSeed(cfg.RandomSeed())
	rateLimiter.SetBackoffParam(cfg.BackoffParam())

	robotsCache := cache.NewMemoryCache(24 * time.Hour)
	robot := robots.NewChecker(cfg.UserAgent(), robotsCache)

	rf := fetcher.NewResourceFetcher(
		cfg.UserAgent(),
		cfg.MaxFileSize(),
		cfg.MaxRedirects(),
		cfg.Timeout(),
		rateLimiter,
		recorder,
	)

	cf := frontier.NewCrawlFrontier()
	cf.Init(cfg)
	cf.SetHostQuotas(registry.HostQuotas())

	return &Orchestrator{
		cfg:         cfg,
		registry:    registry,
		frontier:    cf,
		robot:       robot,
		fetcher:     rf,
		rateLimiter: rateLimiter,
		recorder:    recorder,
		monitor:     monitor,
		citations:   citation.NewService(),
		files:       filepipeline.NewPipeline(recorder),
		sink:        sink,
		retryParam:  retryParamFor(cfg),
	}
}

func retryParamFor(cfg config.Config) retry.RetryParam {
	return retry.NewRetryParam(
		cfg.BaseDelay(),
		cfg.Jitter(),
		cfg.RandomSeed(),
		cfg.MaxAttempt(),
		cfg.BackoffParam(),
	)
}

// Run seeds the frontier, launches cfg.Workers() fetch workers and
// cfg.FileWorkers() file workers, and blocks until every admitted URL has
// been fully processed or ctx is cancelled. It is safe to call exactly
// once per Orchestrator.
func (o *Orchestrator) Run(ctx context.Context) (Result, error) {
	if o.cfg.Resume() {
		o.frontier.RestoreSeen(loadSeenSnapshot(o.cfg.DataDir()))
	}

	for _, item := range o.registry.GetSeeds() {
		o.submitForAdmission(ctx, item, frontier.SourceSeed)
	}

	fileJobs := make(chan fileJob, o.cfg.FileWorkers()*4)

	var fetchWg sync.WaitGroup
	for i := 0; i < o.cfg.Workers(); i++ {
		fetchWg.Add(1)
		go func() {
			defer fetchWg.Done()
			o.runFetchWorker(ctx, fileJobs)
		}()
	}

	var fileWg sync.WaitGroup
	for i := 0; i < o.cfg.FileWorkers(); i++ {
		fileWg.Add(1)
		go func() {
			defer fileWg.Done()
			o.runFileWorker(ctx, fileJobs)
		}()
	}

	fetchDone := make(chan struct{})
	go func() {
		fetchWg.Wait()
		close(fileJobs)
		close(fetchDone)
	}()

	select {
	case <-fetchDone:
		fileWg.Wait()
	case <-ctx.Done():
		workersDone := make(chan struct{})
		go func() {
			fetchWg.Wait()
			fileWg.Wait()
			close(workersDone)
		}()
		select {
		case <-workersDone:
		case <-time.After(hardKillGrace):
			// workers did not stop within the grace period; give up waiting
			// rather than block the process forever.
		}
	}

	if o.cfg.Resume() {
		_ = saveSeenSnapshot(o.cfg.DataDir(), o.frontier.SeenSnapshot())
	}

	report := o.monitor.Report()
	o.write(storage.KindCoverageReport, report)

	result := Result{
		WriteResults: o.snapshotWriteResults(),
		Report:       report,
		TotalErrors:  int(atomic.LoadInt64(&o.totalErrors)),
		Cancelled:    ctx.Err() != nil,
	}
	if result.Cancelled {
		return result, &CancelledError{Reason: ctx.Err().Error()}
	}
	return result, nil
}

func (o *Orchestrator) snapshotWriteResults() []storage.WriteResult {
	o.writeMu.Lock()
	defer o.writeMu.Unlock()
	out := make([]storage.WriteResult, len(o.writeResults))
	copy(out, o.writeResults)
	return out
}

// runFetchWorker repeatedly dequeues a CrawlToken and processes it until
// ctx is cancelled or the frontier has drained and nothing is left
// in-flight anywhere in the pipeline (tracked by o.pending).
func (o *Orchestrator) runFetchWorker(ctx context.Context, fileJobs chan<- fileJob) {
	for {
		if ctx.Err() != nil {
			return
		}

		token, ok := o.frontier.Dequeue()
		if !ok {
			if o.idle() {
				return
			}
			select {
			case <-time.After(idlePollInterval):
			case <-ctx.Done():
				return
			}
			continue
		}

		o.processToken(ctx, token, fileJobs)
	}
}

func (o *Orchestrator) idle() bool {
	return o.frontier.Size() == 0 && atomic.LoadInt64(&o.pending) == 0
}

// processToken fetches one admitted URL and routes the result. The pending
// counter is decremented here for every outcome except a non-HTML
// resource, whose completion is instead signalled by the file worker that
// eventually finishes it.
func (o *Orchestrator) processToken(ctx context.Context, token frontier.CrawlToken, fileJobs chan<- fileJob) {
	target := token.URL()
	category := token.Category()
	depth := token.Depth()

	fetchParam := fetcher.NewFetchParam(target, o.cfg.UserAgent(), category, depth)
	result, err := o.fetcher.Fetch(ctx, fetchParam, o.retryParam)
	if err != nil {
		// The Fetcher has already recorded this failure to coverage; the
		// Orchestrator only needs to keep its own run-level tally.
		o.countError()
		o.donePending()
		return
	}

	switch classify.Classify(result) {
	case model.ResourceHTMLPage:
		o.processPage(ctx, result, category, depth)
		o.donePending()
	case model.ResourceOther:
		o.donePending()
	default:
		select {
		case fileJobs <- fileJob{result: result, parentPageURL: o.parentOf(target.String()), category: category}:
		case <-ctx.Done():
			o.donePending()
		}
	}
}

func (o *Orchestrator) parentOf(targetURL string) string {
	v, ok := o.parents.Load(targetURL)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// processPage scores and stores a crawled HTML page, pulls any
// PlanningApplication rows out of it when its category calls for that, and
// submits every in-scope outbound link for admission.
func (o *Orchestrator) processPage(ctx context.Context, result model.FetchResult, category string, depth int) {
	items, err := linkextract.Extract(result.URL, category, depth+1, result.Body, o.domainAllowed)
	if err != nil {
		o.countError()
		o.logPipelineError("linkextract", "Extract", coverage.CauseContentInvalid, err, result.URL, category, model.ErrorParsing)
	}

	sameDomainLinks := 0
	hasDataFileLink := false
	citesAgendaOrMinutes := false
	resultHost := hostOf(result.URL)
	for _, item := range items {
		if hostOf(item.URL) == resultHost {
			sameDomainLinks++
		}
		if classify.IsDataFileExtension(item.URL) {
			hasDataFileLink = true
			if category == "meetings" && pdfextract.DetectMode(item.URL) != pdfextract.ModeGeneral {
				citesAgendaOrMinutes = true
			}
		}
	}

	score := quality.Score(quality.ScoreParams{
		Category:             category,
		Body:                 result.Body,
		SameDomainLinkCount:  sameDomainLinks,
		HasDataFileLink:      hasDataFileLink,
		CitesAgendaOrMinutes: citesAgendaOrMinutes,
	})

	page := model.PageRecord{
		URL:           result.URL,
		ParentURL:     o.parentOf(result.URL),
		Title:         pageTitle(result.Body),
		Category:      category,
		ContentLength: len(result.Body),
		QualityScore:  score.OverallScore,
		CrawledAt:     result.FetchedAt,
	}
	o.write(storage.KindPageRecord, page)

	if category == "planning_applications" {
		apps, perr := planningextract.Extract(result.URL, result.Body)
		if perr != nil {
			o.countError()
			o.logPipelineError("planningextract", "Extract", coverage.CauseContentInvalid, perr, result.URL, category, model.ErrorParsing)
		}
		for _, app := range apps {
			validateAndWrite(o, storage.KindPlanningApplication, category, result.URL, "planning_application", validate.PlanningApplication(app))
		}
	}

	for _, item := range items {
		o.submitForAdmission(ctx, item, frontier.SourceCrawl)
	}
}

// domainAllowed reports whether host may be added to the Frontier: either
// it is one of the seed registry's fixed allowlisted domains, or it
// matches one of cfg.DomainGlobs()'s shell-style wildcard patterns. No
// library in the crawler's dependency stack does domain-glob matching, and
// path.Match's "*"/"?" wildcard semantics are exactly what a domain glob
// like "*.bolton.gov.uk" needs, so reaching for a third-party glob library
// here would add a dependency for a single two-line call.
func (o *Orchestrator) domainAllowed(host string) bool {
	host = strings.ToLower(host)
	if o.registry.IsAllowedDomain(host) {
		return true
	}
	for _, glob := range o.cfg.DomainGlobs() {
		if ok, err := path.Match(strings.ToLower(glob), host); err == nil && ok {
			return true
		}
	}
	return false
}

// submitForAdmission is the Orchestrator's single admission choke point,
// mirroring the teacher's Scheduler.SubmitUrlForAdmission: every semantic
// check a candidate must pass before it may reach the Frontier happens
// here, and nowhere else constructs a frontier.CrawlAdmissionCandidate.
//
// A robots.txt disallow, an out-of-scope domain, or a malformed URL are
// normal, terminal outcomes: they return nil and the candidate is simply
// never submitted. Only an infrastructure failure fetching robots.txt
// itself is counted and logged here and returned to the caller, which does
// not abort the run on it: with many independent seed
// domains in play, one domain's robots.txt being unreachable must never
// stop the crawl of every other domain.
func (o *Orchestrator) submitForAdmission(ctx context.Context, item model.FrontierItem, source frontier.SourceContext) failure.ClassifiedError {
	target, parseErr := url.Parse(item.URL)
	if parseErr != nil || target.Host == "" {
		return nil
	}
	host := strings.ToLower(target.Hostname())
	if !o.domainAllowed(host) {
		return nil
	}

	allowed, crawlDelay, robotsErr := o.robot.Allowed(ctx, target)
	if robotsErr != nil {
		if robotsErr.Cause == robots.ErrCauseHttpTooManyRequests || robotsErr.Cause == robots.ErrCauseHttpServerError {
			o.rateLimiter.Backoff(host)
		}
		o.countError()
		o.logPipelineError("robots", "Checker.Allowed", coverage.CausePolicyDisallow, robotsErr, item.URL, item.Category, model.ErrorAccessDenied)
		return robotsErr
	}

	o.rateLimiter.ResetBackoff(host)
	if crawlDelay != nil {
		o.rateLimiter.SetCrawlDelay(host, *crawlDelay)
	}
	if !allowed {
		return nil
	}

	if item.DiscoveredFrom != "" {
		o.parents.Store(target.String(), item.DiscoveredFrom)
	}

	candidate := frontier.NewCrawlAdmissionCandidate(
		*target,
		source,
		frontier.NewDiscoveryMetadata(item.Depth, nil),
		item.Category,
		item.Priority,
	)
	if o.frontier.Submit(candidate) {
		atomic.AddInt64(&o.pending, 1)
	}
	return nil
}

// runFileWorker drains fileJobs until the channel is closed (by Run, once
// every fetch worker has exited) and ctx is not yet cancelled.
func (o *Orchestrator) runFileWorker(ctx context.Context, fileJobs <-chan fileJob) {
	for {
		select {
		case job, ok := <-fileJobs:
			if !ok {
				return
			}
			o.processFile(ctx, job)
			o.donePending()
		case <-ctx.Done():
			return
		}
	}
}

func (o *Orchestrator) donePending() {
	atomic.AddInt64(&o.pending, -1)
}

// processFile writes the fetched resource as a FileArtifact before any of
// the records extracted from it, per the concurrency model's ordering
// guarantee, then dispatches to the extractor matching its ResourceKind.
func (o *Orchestrator) processFile(ctx context.Context, job fileJob) {
	resolveParam := filepipeline.NewResolveParam(o.cfg.DataDir(), o.cfg.MaxFileSize())
	res, err := o.files.Resolve(job.result, job.parentPageURL, job.category, resolveParam)
	if err != nil {
		o.countError()
		o.logPipelineError("filepipeline", "Pipeline.Resolve", coverage.CauseContentInvalid, err, job.result.URL, job.category, model.ErrorParsing)
		return
	}

	o.citations.RecordEdge(res.Artifact.FileURL, job.parentPageURL)
	o.write(storage.KindFileArtifact, res.Artifact)

	if res.Deduplicated {
		return
	}

	switch classify.Classify(job.result) {
	case model.ResourceCSV:
		o.writeCSVResult(csvextract.Extract(job.result.Body, res.Artifact.FileURL, job.category), res.Artifact.FileURL, job.category)
	case model.ResourceExcel:
		xres, xerr := xlsxextract.Extract(job.result.Body, res.Artifact.FileURL, job.category)
		if xerr != nil {
			o.countError()
			o.logPipelineError("xlsxextract", "Extract", coverage.CauseContentInvalid, xerr, res.Artifact.FileURL, job.category, model.ErrorParsing)
			return
		}
		o.writeCSVResult(xres, res.Artifact.FileURL, job.category)
	case model.ResourcePDF:
		o.processPDF(res.Artifact.FileURL, job.result.Body, job.category)
	case model.ResourceText:
		for _, datum := range textextract.Extract(string(job.result.Body), res.Artifact.FileURL, job.category) {
			validateAndWrite(o, storage.KindStatisticalDatum, job.category, res.Artifact.FileURL, "statistical_datum", validate.StatisticalDatum(datum))
		}
	}
}

func (o *Orchestrator) writeCSVResult(res csvextract.Result, sourceURL, category string) {
	for _, r := range res.SpendingRecords {
		validateAndWrite(o, storage.KindSpendingRecord, category, sourceURL, "spending_record", validate.SpendingRecord(r))
	}
	for _, b := range res.BudgetItems {
		validateAndWrite(o, storage.KindBudgetItem, category, sourceURL, "budget_item", validate.BudgetItem(b))
	}
	for _, d := range res.StatisticalData {
		validateAndWrite(o, storage.KindStatisticalDatum, category, sourceURL, "statistical_datum", validate.StatisticalDatum(d))
	}
}

func (o *Orchestrator) processPDF(fileURL string, body []byte, category string) {
	res, err := pdfextract.Extract(body, fileURL)
	if err != nil {
		o.countError()
		o.logPipelineError("pdfextract", "Extract", coverage.CauseContentInvalid, err, fileURL, category, model.ErrorParsing)
		return
	}
	switch res.Mode {
	case pdfextract.ModeAgenda:
		if res.Agenda != nil {
			o.write(storage.KindAgendaDocument, *res.Agenda)
		}
	case pdfextract.ModeMinutes:
		if res.Minutes != nil {
			o.write(storage.KindMinutesDocument, *res.Minutes)
		}
	default:
		// General-mode findings are weak, unstructured signals with no
		// storage kind of their own; they exist for the coverage error log
		// only when nothing else about the PDF was extractable.
		if len(res.Findings) == 0 {
			o.logPipelineError("pdfextract", "Extract", coverage.CauseContentInvalid, errEmptyGeneralScan, fileURL, category, model.ErrorParsing)
		}
	}
}

// validateAndWrite runs outcome through its schema result and either writes
// the cleaned record or logs its field errors and drops it, matching the
// "validation failure drops the record" rule every extracted record kind
// follows. It is a free function rather than a method because Go does not
// allow a method to introduce its own type parameter beyond its receiver's.
func validateAndWrite[T any](o *Orchestrator, kind storage.RecordKind, category, sourceURL, label string, outcome validate.Outcome[T]) {
	if !outcome.Valid {
		validate.LogDropped(o.recorder, category, sourceURL, label, outcome.Errors)
		o.countError()
		return
	}
	o.write(kind, outcome.Record)
}

func (o *Orchestrator) countError() {
	atomic.AddInt64(&o.totalErrors, 1)
}

func (o *Orchestrator) logPipelineError(packageName, action string, cause coverage.ErrorCause, err error, url, category string, kind model.CrawlErrorType) {
	if o.recorder == nil {
		return
	}
	o.recorder.RecordError(
		coverage.ErrorRecord{
			PackageName: packageName,
			Action:      action,
			Cause:       cause,
			ErrorString: err.Error(),
			ObservedAt:  time.Now(),
			Attrs:       []coverage.Attribute{coverage.NewAttr(coverage.AttrURL, url)},
		},
		hostOf(url), category, kind, url,
	)
}

func (o *Orchestrator) write(kind storage.RecordKind, record any) {
	atomic.AddInt64(&o.pendingWrites, 1)
	o.applyBackpressure()
	result, err := o.sink.Write(kind, record)
	atomic.AddInt64(&o.pendingWrites, -1)
	o.applyBackpressure()

	if err != nil {
		o.countError()
		o.logPipelineError("storage", "Sink.Write", coverage.CauseStorageFailure, err, "", "", model.ErrorParsing)
		return
	}

	o.writeMu.Lock()
	o.writeResults = append(o.writeResults, result)
	o.writeMu.Unlock()
}

// applyBackpressure pauses Frontier dequeuing once the number of Write
// calls in flight across every worker crosses cfg.BackpressureCap(),
// resuming once it has drained below cap/2, per the concurrency model's
// backpressure rule. Storage.Sink here is a synchronous call rather than a
// queue fed by a background writer, so "pending writes" is approximated by
// concurrent in-flight Write calls rather than a literal queue depth.
func (o *Orchestrator) applyBackpressure() {
	capacity := o.cfg.BackpressureCap()
	if capacity <= 0 {
		return
	}
	n := atomic.LoadInt64(&o.pendingWrites)
	switch {
	case n > int64(capacity):
		o.frontier.SetPaused(true)
	case n < int64(capacity/2):
		o.frontier.SetPaused(false)
	}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func pageTitle(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
