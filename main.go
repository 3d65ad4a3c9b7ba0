package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"yard-sniper/comps"
	"yard-sniper/config"
	"yard-sniper/scraper"
	"yard-sniper/scraper/budget"
	"yard-sniper/scraper/budgets3"
	"yard-sniper/scraper/lkq"
	"yard-sniper/scraper/pickandpay"
	"yard-sniper/services"
	"yard-sniper/storage"
	"yard-sniper/utils"
	"yard-sniper/vin"
)

const usage = `usage:
  yard-sniper scan [query ...]   scan enabled yards (queries default to SCAN_QUERIES)
  yard-sniper vin <VIN>          score front/rear cradle lanes for a VIN
  yard-sniper modules <VIN>      rank electronic modules for a VIN
  yard-sniper part <query>       score a free-text part query`

const maxDisplayRows = 200

// app holds the long-lived collaborators shared by every command.
type app struct {
	cfg      *config.Config
	logger   *utils.Logger
	fetcher  *scraper.CollyFetcher
	browser  *scraper.BrowserFetcher
	decoder  *vin.Decoder
	store    storage.CompCacheStore
	reporter *services.Reporter
}

func main() {
	cfg := config.Load()
	logger := utils.NewLoggerWithLevel(cfg.LogLevel)

	cmd, args := "scan", []string(nil)
	if len(os.Args) > 1 {
		cmd, args = os.Args[1], os.Args[2:]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := &app{
		cfg:      cfg,
		logger:   logger,
		fetcher:  scraper.NewCollyFetcher(cfg.SourceTimeout),
		decoder:  vin.NewDecoder(cfg.VINDecodeURL, cfg.VINTimeout, logger),
		reporter: services.NewReporter(os.Stdout),
	}
	defer a.close()

	var code int
	switch cmd {
	case "scan":
		code = a.scan(ctx, args)
	case "vin", "modules", "part":
		if len(args) == 0 {
			fmt.Fprintln(os.Stderr, usage)
			os.Exit(2)
		}
		code = a.analyze(ctx, cmd, strings.Join(args, " "))
	default:
		fmt.Fprintln(os.Stderr, usage)
		code = 2
	}
	if code != 0 {
		a.close()
		os.Exit(code)
	}
}

func (a *app) scan(ctx context.Context, args []string) int {
	cfg := a.cfg
	a.logger.Info("=== Yard scan starting ===")
	a.logger.Info("Config: concurrency %d | rate %dms | source timeout %v | render %v",
		cfg.MaxConcurrency, cfg.RateLimitMs, cfg.SourceTimeout, cfg.BudgetRender)

	yards, err := config.LoadYards(cfg.YardsPath)
	if err != nil {
		a.logger.Error("Failed to load yards: %v", err)
		return 1
	}

	lines := args
	if len(lines) == 0 {
		lines = cfg.Queries
	}
	if len(lines) == 0 {
		a.logger.Error("No queries given. Pass them as arguments or set SCAN_QUERIES.")
		return 2
	}

	var history storage.ScanHistoryWriter
	if w, err := storage.NewCSVHistoryWriter(cfg.HistoryPath); err != nil {
		a.logger.Warn("Scan history disabled: %v", err)
	} else {
		history = w
		defer w.Close()
	}

	sources := services.Sources{
		Fetcher: a.fetcher,
		Decoder: a.decoder,
		LKQ:     lkq.Config{BaseURL: cfg.LKQBaseURL, FollowDetails: cfg.LKQFollowDetails},
		PickAndPay: pickandpay.Config{
			URL:           cfg.PickAndPayURL,
			MinLineTokens: cfg.MinLineTokens,
			SnippetRadius: cfg.VINSnippetRadius,
			Narrow:        cfg.PickAndPayNarrow,
		},
		Budget: budget.Config{
			BaseURL:       cfg.BudgetBaseURL,
			SnippetRadius: cfg.VINSnippetRadius,
			Narrow:        cfg.BudgetNarrow,
		},
		BudgetS3: budgets3.Config{URL: cfg.BudgetS3URL},
		Logger:   a.logger,
	}
	if cfg.BudgetRender {
		a.browser = scraper.NewBrowserFetcher(cfg.ChromeBin, cfg.BrowserWait, cfg.SourceTimeout, a.logger)
		sources.RenderFetcher = a.browser
	}

	scanner := services.NewScanner(services.ScannerConfig{
		Registry:       services.NewDefaultRegistry(sources),
		Decoder:        a.decoder,
		History:        history,
		MaxConcurrency: cfg.MaxConcurrency,
		RateLimitMs:    cfg.RateLimitMs,
		Logger:         a.logger,
	})

	report := scanner.Scan(ctx, services.ScanRequest{
		Lines: lines,
		Yards: yards,
		Options: services.RefineOptions{
			Drivetrain: cfg.DriveFilter,
			Engine:     cfg.EngineFilter,
			MaxAge:     time.Duration(cfg.MaxAgeDays) * 24 * time.Hour,
		},
	})
	a.reporter.PrintScan(report, maxDisplayRows)

	if !cfg.CompsEnabled || len(report.Listings) == 0 {
		return 0
	}

	analyzer := a.newAnalyzer()
	opts := a.analyzeOptions()
	for i, l := range report.Listings {
		if i >= cfg.AnalyzeLimit {
			a.logger.Info("Comparables limited to the first %d listings (ANALYZE_LIMIT)", cfg.AnalyzeLimit)
			break
		}
		if ctx.Err() != nil {
			break
		}
		a.reporter.PrintAnalysis(analyzer.AnalyzeListing(ctx, l, opts))
	}
	return 0
}

func (a *app) analyze(ctx context.Context, cmd, arg string) int {
	analyzer := a.newAnalyzer()
	opts := a.analyzeOptions()

	var an services.Analysis
	switch cmd {
	case "vin":
		an = analyzer.AnalyzeVIN(ctx, arg, opts)
	case "modules":
		an = analyzer.ModuleRadar(ctx, arg, opts)
	case "part":
		an = analyzer.AnalyzeQuery(ctx, arg, opts)
	}
	a.reporter.PrintAnalysis(an)
	if !an.HasBest {
		return 1
	}
	return 0
}

func (a *app) newAnalyzer() *services.Analyzer {
	cfg := a.cfg
	a.store = a.openCacheStore()

	estimator := comps.NewEstimator(comps.Config{
		Primary:       comps.NewSoldScraper(cfg.EbayURL, scraper.NewCollyFetcher(cfg.EbayTimeout)),
		Fallback:      comps.NewSerpAPI(cfg.SerpAPIURL, cfg.SerpAPIKey, cfg.SerpAPITimeout),
		Cache:         comps.NewCache(a.store, cfg.CacheTTL, a.logger),
		FailThreshold: cfg.FailThreshold,
		Logger:        a.logger,
	})

	features, err := config.LoadPlatformFeatures(cfg.FeaturesPath)
	if err != nil {
		a.logger.Warn("Platform features unreadable, using built-in map: %v", err)
	}
	return services.NewAnalyzer(estimator, a.decoder, features, a.logger)
}

func (a *app) openCacheStore() storage.CompCacheStore {
	if strings.EqualFold(a.cfg.CacheBackend, "postgres") {
		pg, err := storage.NewPostgresCacheStore(a.cfg.DSN(), a.cfg.MaxRetries, a.logger)
		if err == nil {
			a.logger.Info("Comparable cache stored in PostgreSQL (table: comp_cache)")
			return pg
		}
		a.logger.Warn("PostgreSQL cache unavailable, falling back to %s: %v", a.cfg.CachePath, err)
	}
	return storage.NewJSONCacheStore(a.cfg.CachePath)
}

func (a *app) analyzeOptions() services.AnalyzeOptions {
	return services.AnalyzeOptions{
		PartType:          a.cfg.PartType,
		CradlePos:         a.cfg.CradlePos,
		Cost:              a.cfg.Cost,
		Ship:              a.cfg.Ship,
		BuyerPaysShipping: a.cfg.BuyerPaysShip,
		MaxSamples:        a.cfg.MaxSamples,
	}
}

func (a *app) close() {
	if a.browser != nil {
		a.browser.Close()
		a.browser = nil
	}
	if a.store != nil {
		_ = a.store.Close()
		a.store = nil
	}
}
