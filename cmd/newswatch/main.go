package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"newswatch/internal/config"
	"newswatch/internal/database"
	"newswatch/internal/scanner"
	"newswatch/internal/server"
	"newswatch/internal/suggest"
	"newswatch/internal/trends"
)

var (
	// Version is set during build
	Version = "dev"

	port     = flag.Int("port", 0, "Port to run the server on (default: 3001 or NEWSWATCH_PORT)")
	dbPath   = flag.String("db", "", "Path to database file (default: data/newswatch.db or NEWSWATCH_DB_PATH)")
	cfgPath  = flag.String("config", "newswatch.yaml", "Path to YAML configuration file")
	version  = flag.Bool("version", false, "Print version information")
	scanOnce = flag.Bool("scan-once", false, "Run a single scan cycle and exit")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("Newswatch version %s\n", Version)
		return
	}

	logger := log.New(os.Stdout, "newswatch: ", log.LstdFlags|log.Lshortfile)

	cfg := config.GetConfig()
	cfg, err := config.LoadFile(*cfgPath, cfg)
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	if *port > 0 {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	logger.Printf("Starting Newswatch v%s", Version)
	logger.Printf("Port: %d", cfg.Port)
	logger.Printf("Database: %s", cfg.DBPath)
	logger.Printf("Region: %s (%s)", cfg.Geo, cfg.Language)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		logger.Fatalf("Failed to create database directory: %v", err)
	}

	db, err := database.NewDB(cfg.DBPath, database.DefaultConfig())
	if err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.SeedKeywords(ctx, cfg.SeedKeywords); err != nil {
		logger.Fatalf("Failed to seed keywords: %v", err)
	}

	feedClient := scanner.NewGoogleNewsClient(logger, cfg.Language, cfg.Geo)
	scanSvc := scanner.NewService(db, logger, feedClient, scanner.Options{
		Interval:     cfg.ScanInterval,
		KeywordDelay: cfg.KeywordDelay,
		FetchTimeout: cfg.FetchTimeout,
	})

	if *scanOnce {
		result, err := scanSvc.RunCycle(ctx)
		if err != nil {
			logger.Fatalf("Scan failed: %v", err)
		}
		logger.Printf("Scan finished: %d new articles", result.TotalAdded)
		return
	}

	trendsClient := trends.NewGoogleClient(cfg.Language)
	trendsSvc := trends.NewService(db, logger, trendsClient, trends.Options{
		Geo:          cfg.Geo,
		Interval:     cfg.TrendsInterval,
		FetchTimeout: cfg.FetchTimeout,
	})

	mineCfg := suggest.DefaultConfig()
	if len(cfg.StopWords) > 0 {
		mineCfg.StopWords = cfg.StopWords
	}
	mineCfg.MinWordLen = cfg.MinWordLen
	mineCfg.MinPairWordLen = cfg.MinPairWordLen
	mineCfg.WordThreshold = cfg.WordThreshold
	mineCfg.PairThreshold = cfg.PairThreshold
	mineCfg.TopN = cfg.TopN
	mineCfg.Window = cfg.SuggestWindow
	suggestSvc := suggest.NewService(db, logger, mineCfg)

	scanSvc.Start()
	defer scanSvc.Stop()
	trendsSvc.Start()
	defer trendsSvc.Stop()

	// Initial scan and trends refresh so a fresh install has data to serve.
	go func() {
		if _, err := scanSvc.RunCycle(context.Background()); err != nil &&
			!errors.Is(err, scanner.ErrScanInProgress) {
			logger.Printf("Initial scan failed: %v", err)
		}
		trendsSvc.Refresh(context.Background())
	}()

	srv := server.NewServer(db, logger, scanSvc, trendsSvc, suggestSvc)
	if err := srv.Start(cfg.GetAddress()); err != nil {
		logger.Fatalf("Server error: %v", err)
	}
}
