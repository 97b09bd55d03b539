package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"quantfeed/internal/cli"
	"quantfeed/internal/config"
	"quantfeed/internal/svc"
	"quantfeed/pkg/feed"
	"quantfeed/pkg/journal"
)

const shutdownTimeout = 10 * time.Second // Grace period for shutdown

var (
	configFile = flag.String("f", "etc/quantfeed.yaml", "application config file")
	startFlag  = flag.String("start", "", "history start date (YYYY-MM-DD)")
	endFlag    = flag.String("end", "", "history end date (YYYY-MM-DD)")
	journalDir = flag.String("journal", "journal", "session journal output directory")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Println("[main] Starting feed daemon...")

	appCfg, err := config.Load(*configFile)
	if err != nil {
		log.Printf("[main] Warning: Failed to load app config: %v", err)
		log.Printf("[main] Using default configuration")
		appCfg = &config.Config{Env: "test", DataDir: "data"}
	}

	log.Printf("[main] Configuration loaded:")
	for _, line := range cli.ConfigSummaryLines(appCfg) {
		log.Printf("  - %s", line)
	}

	feedCfg := appCfg.Feed.Value
	if feedCfg == nil {
		feedCfg = feed.MustLoad()
	}

	start, end, err := resolveWindow(*startFlag, *endFlag, feedCfg.Location())
	if err != nil {
		log.Fatalf("[main] %v", err)
	}
	log.Printf("  - Window: %s .. %s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	log.Printf("  - Symbols: %d", len(feedCfg.Symbols))

	svcCtx := svc.NewServiceContext(*appCfg)
	svcCtx.Bus.Subscribe(func(e feed.Event) {
		log.Printf("[feed.%s] %+v", e.Kind(), e)
	})

	// Create context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svcCtx.StartCoordinator()
	defer svcCtx.Coordinator.Stop()

	writer := journal.NewWriter(*journalDir)
	var journalMu sync.Mutex

	var wg sync.WaitGroup
	for _, req := range feedCfg.BuildRequests(start, end) {
		sub, err := svcCtx.Coordinator.CreateSubscription(req)
		if err != nil {
			log.Printf("[main] Failed to create subscription for %s: %v", req.Symbol, err)
			continue
		}
		if sub == nil {
			// Fast-fail path: already reported via the event bus.
			continue
		}
		if !sub.WorkerScheduled {
			log.Printf("[main] Subscription for %s is caller-pumped, skipping worker", req.Symbol)
			continue
		}

		wg.Add(1)
		go func(sub *feed.Subscription) {
			defer wg.Done()
			rec := pumpSubscription(ctx, svcCtx.Coordinator.Context(), sub)
			journalMu.Lock()
			defer journalMu.Unlock()
			if path, err := writer.WriteSession(rec); err != nil {
				log.Printf("[pump.%s] journal write failed: %v", sub.Request.Symbol, err)
			} else {
				log.Printf("[pump.%s] session journaled to %s", sub.Request.Symbol, path)
			}
		}(sub)
	}

	log.Println("[main] Feed daemon started. Press Ctrl+C to stop.")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("[main] All subscriptions drained")
	case <-ctx.Done():
		log.Println("[main] Shutdown signal received, stopping pumps...")
		svcCtx.Coordinator.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		select {
		case <-done:
			log.Println("[main] All pumps stopped cleanly")
		case <-shutdownCtx.Done():
			log.Println("[main] Shutdown timeout exceeded, forcing exit")
		}
	}

	log.Println("[main] Feed daemon stopped")
}

// pumpSubscription drains one subscription stream to exhaustion or
// cancellation and summarises the run.
func pumpSubscription(signalCtx, coordCtx context.Context, sub *feed.Subscription) *journal.SessionRecord {
	req := sub.Request
	rec := &journal.SessionRecord{
		Symbol:     req.Symbol.Value,
		Market:     req.Symbol.Market,
		Resolution: string(req.Resolution),
		Start:      req.Start,
		End:        req.End,
	}

	for {
		if signalCtx.Err() != nil || coordCtx.Err() != nil {
			rec.ErrorMessage = "cancelled"
			return rec
		}
		record, ok, err := sub.Enumerator.Next(coordCtx)
		if err != nil {
			log.Printf("[pump.%s] [ERROR] %v", req.Symbol, err)
			rec.ErrorMessage = err.Error()
			return rec
		}
		if !ok {
			rec.Completed = true
			return rec
		}
		rec.Records++
		if rec.FirstRecord.IsZero() {
			rec.FirstRecord = record.EndTime()
		}
		rec.LastRecord = record.EndTime()
	}
}

// resolveWindow applies the default one-year backfill when no explicit
// window is given.
func resolveWindow(startStr, endStr string, loc *time.Location) (time.Time, time.Time, error) {
	now := time.Now().In(loc)
	end := now
	start := now.AddDate(-1, 0, 0)
	var err error
	if startStr != "" {
		start, err = time.ParseInLocation("2006-01-02", startStr, loc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if endStr != "" {
		end, err = time.ParseInLocation("2006-01-02", endStr, loc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if end.Before(start) {
		start, end = end, start
	}
	return start, end, nil
}
