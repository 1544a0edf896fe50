// Command enginectl demonstrates the full engine end to end: a
// genesis ontology, a compiled workflow specification, a handful of
// firings through the μ-kernel hot path, and one MAPE-K governor cycle,
// wired together with in-memory collaborators so the demonstration needs no external
// services. It also mounts a minimal chi-routed HTTP surface exposing
// prometheus metrics and a couple of read-only health/status endpoints.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/jordigilh/ontoengine/internal/config"
	"github.com/jordigilh/ontoengine/internal/obslog"
	"github.com/jordigilh/ontoengine/pkg/governor"
	"github.com/jordigilh/ontoengine/pkg/governor/verify"
	"github.com/jordigilh/ontoengine/pkg/ingest"
	"github.com/jordigilh/ontoengine/pkg/observation"
	"github.com/jordigilh/ontoengine/pkg/ontology"
	"github.com/jordigilh/ontoengine/pkg/store"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML configuration file (defaults applied if unset)")
	addr := flag.String("addr", ":8080", "address the demonstration HTTP surface listens on")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := loadConfig(*configPath, log)
	if err != nil {
		log.WithFields(obslog.NewFields().Component("enginectl").Error(err).ToLogrus()).Fatal("failed to load configuration")
	}

	genesis := buildGenesisSnapshot()
	pointer := ontology.NewPointer(genesis)
	log.WithFields(obslog.SnapshotFields(genesis.Version, hex.EncodeToString(genesis.SnapshotHash[:])).ToLogrus()).
		Info("installed genesis ontology")

	ring := observation.NewRing()
	spec := buildDemoSpecification()
	engine := NewEngine(spec, pointer, ring, cfg.MultiInstanceHardCap, cfg.HotTickLimit, 0, log)

	receiptLog := store.NewInMemoryReceiptLog(1024)
	overlayLog := store.NewInMemoryOverlayLog()

	cache := verify.NewProofCache(cfg.ProofCacheCapacity, cfg.ProofCacheTTL)
	checker := verify.NewOPAProofChecker(baseObligationModule, cfg.SMTTimeout, cache)
	knowledge := governor.NewKnowledge(overlayLog, log)
	gov := governor.New(ring, cfg.MonitorBatchSize, receiptLog, checker, pointer, knowledge, log)

	ctx := context.Background()
	runDemonstrationFirings(ctx, engine, cfg.HotTickLimit, log)

	result := gov.RunOnce(ctx)
	logCycleResult(log, result)

	router := buildRouter(pointer, ring)
	log.WithFields(obslog.NewFields().Component("enginectl").Custom("addr", *addr).ToLogrus()).
		Info("demonstration HTTP surface listening")
	if err := http.ListenAndServe(*addr, router); err != nil {
		log.WithFields(obslog.NewFields().Component("enginectl").Error(err).ToLogrus()).Fatal("http server exited")
	}
}

func loadConfig(path string, log *logrus.Logger) (*config.Config, error) {
	if path == "" {
		log.Info("no --config given, using documented defaults")
		return config.Default(), nil
	}
	return config.Load(path)
}

// runDemonstrationFirings drives one case through a sequence firing, a
// second through an AND-split then AND-join, a third through a deferred
// choice, and a fourth through a cancellation region three times — the
// region seeds three live tokens and cancel region drains one per
// firing, so three firings produce the region's three cancellation
// receipts.
func runDemonstrationFirings(ctx context.Context, engine *Engine, tickLimit uint8, log *logrus.Logger) {
	cancelReg := ingest.FiringRequest{CaseID: 4, SpecID: demoSpecID, TaskID: taskCancelReg, PatternID: 20, IncomingTokens: []uint64{condRegionIn}}
	firings := []ingest.FiringRequest{
		{CaseID: 1, SpecID: demoSpecID, TaskID: taskSequence, PatternID: 1, IncomingTokens: []uint64{condStart}},
		{CaseID: 2, SpecID: demoSpecID, TaskID: taskAndSplit, PatternID: 2, IncomingTokens: []uint64{condSplit}},
		{CaseID: 2, SpecID: demoSpecID, TaskID: taskAndJoin, PatternID: 3, IncomingTokens: []uint64{condBranchA, condBranchB}},
		{CaseID: 3, SpecID: demoSpecID, TaskID: taskDeferred, PatternID: 16, IncomingTokens: []uint64{condChoiceA}},
		cancelReg, cancelReg, cancelReg,
	}

	for _, req := range firings {
		req.CorrelationID = ingest.NewCorrelationID()
		receipt, err := engine.Submit(ctx, req)
		fields := obslog.KernelFields(req.PatternID, fmt.Sprint(req.CaseID), receipt.TicksUsed, tickLimit)
		if err != nil {
			log.WithFields(fields.Error(err).ToLogrus()).Error("firing rejected")
			continue
		}
		log.WithFields(fields.Custom("fault", receipt.Fault.String()).ToLogrus()).Info("firing evaluated")
	}
}

func logCycleResult(log *logrus.Logger, result governor.CycleResult) {
	fields := obslog.GovernorFields("cycle").
		Count(result.Drain.Processed).
		Custom("gaps", len(result.Gaps)).
		Custom("installed", result.DidInstall)
	if result.Overlay != nil {
		fields = fields.Custom("overlay_state", string(result.Overlay.State))
	}
	log.WithFields(fields.ToLogrus()).Info("governor cycle complete")
}

// buildRouter mounts the demonstration's read-only HTTP surface: a
// health check, the current Σ version/hash, and the prometheus scrape
// endpoint. No firing submission endpoint is exposed here — this module
// intentionally stops at an in-process Submitter; concrete transports
// live with the connector implementations, not here.
func buildRouter(pointer *ontology.Pointer, ring *observation.Ring) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/ontology/current", func(w http.ResponseWriter, _ *http.Request) {
		snap := pointer.Load()
		fmt.Fprintf(w, "version=%d hash=%s\n", snap.Version, hex.EncodeToString(snap.SnapshotHash[:]))
	})

	r.Get("/observation/ring", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, "queued=%d dropped=%d\n", ring.Len(), ring.Dropped())
	})

	r.Handle("/metrics", promhttp.Handler())
	return r
}
