package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"time"

	"photobatch/capacity"
	"photobatch/config"
	"photobatch/database"
	"photobatch/imageprocessor"
	"photobatch/logging"
	"photobatch/pipeline"
	"photobatch/server"
	"photobatch/session"
	"photobatch/signalhandler"
	"photobatch/utils"
)

// app holds the wired components shared by every command
type app struct {
	cfg       *config.Config
	db        *sql.DB
	queue     *database.CleanupQueue
	store     *session.Store
	extractor *imageprocessor.MetadataExtractor
	processor *pipeline.Processor
	merger    *session.Merger
	planner   *capacity.Planner
	closers   []func() error
}

func main() {
	runtime.GOMAXPROCS(signalhandler.GetOptimalProcs())

	args := utils.ParseArguments()
	command, hasCommand := args["command"]

	showUsage := !hasCommand
	if command == "process" && args["folder"] == "" {
		showUsage = true
	}
	if command == "merge" && args["sessions"] == "" {
		showUsage = true
	}
	if command == "status" && args["session"] == "" {
		showUsage = true
	}
	if showUsage {
		utils.PrintUsage()
		os.Exit(1)
	}

	configPath := utils.GetDefaultConfigPath()
	if custom, ok := args["config"]; ok && custom != "" {
		configPath = custom
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	if _, ok := args["debug"]; ok {
		cfg.Log.Debug = true
	}
	if logPath, ok := args["logfile"]; ok && logPath != "" {
		cfg.Log.Path = logPath
	}
	if err := logging.SetupLogger(logging.Options{
		Level:      cfg.Log.Level,
		Path:       cfg.Log.Path,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
		Debug:      cfg.Log.Debug,
	}); err != nil {
		fmt.Printf("Warning: Failed to setup logging: %v\n", err)
	}
	defer logging.CloseLogger()

	ctx, cancel := signalhandler.SetupHandler(context.Background())
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		log.Fatalf("Error initializing: %v", err)
	}
	defer a.close()

	switch command {
	case "serve":
		err = handleServeCommand(ctx, a)
	case "process":
		err = handleProcessCommand(ctx, a, args)
	case "merge":
		err = handleMergeCommand(ctx, a, args)
	case "status":
		err = handleStatusCommand(ctx, a, args)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		utils.PrintUsage()
		os.Exit(1)
	}

	if err != nil {
		a.close()
		logging.CloseLogger()
		log.Fatalf("Error: %v", err)
	}
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	if err := cfg.EnsureDirs(); err != nil {
		return nil, err
	}
	if cfg.Processing.Workers <= 0 {
		cfg.Processing.Workers = signalhandler.GetOptimalProcs()
	}

	a := &app{cfg: cfg}

	// sqlite can be briefly locked by a concurrent process
	var db *sql.DB
	var err error
	const maxRetries = 3
	for i := 0; i < maxRetries; i++ {
		db, err = database.InitDatabase(cfg.Database.Path)
		if err == nil {
			break
		}
		if i < maxRetries-1 {
			logging.LogWarning("Error initializing database (attempt %d/%d): %v - retrying...", i+1, maxRetries, err)
			time.Sleep(time.Second * time.Duration(i+1))
		}
	}
	if err != nil {
		return nil, fmt.Errorf("cannot initialize database %s: %v", cfg.Database.Path, err)
	}
	a.db = db
	a.closers = append(a.closers, db.Close)
	a.queue = database.NewCleanupQueue(db)

	var kv session.KV
	switch cfg.Storage.Backend {
	case "redis":
		rkv, err := session.NewRedisKV(ctx, cfg.Storage.RedisAddr, cfg.Storage.RedisPassword, cfg.Storage.RedisDB, cfg.Cleanup.TTL*2)
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, rkv.Close)
		kv = rkv
	default:
		fkv, err := session.NewFileKV(cfg.Storage.Root)
		if err != nil {
			a.close()
			return nil, err
		}
		kv = fkv
	}

	store, err := session.NewStore(kv, cfg.Storage.Root, cfg.Storage.CacheTTL, a.queue)
	if err != nil {
		a.close()
		return nil, err
	}
	a.store = store

	a.extractor = imageprocessor.NewMetadataExtractor()
	a.closers = append(a.closers, a.extractor.Close)

	a.processor = a.newProcessor(nil)
	a.merger = session.NewMerger(store, cfg.Cleanup.TTL)
	a.planner = capacity.NewPlanner(cfg.Limits)

	logging.DebugLog("Initialized with storage %s (%s), database %s, %d workers",
		cfg.Storage.Root, cfg.Storage.Backend, cfg.Database.Path, cfg.Processing.Workers)
	return a, nil
}

// newProcessor builds a batch processor; progress, when set, receives a console progress line
func (a *app) newProcessor(progress io.Writer) *pipeline.Processor {
	return pipeline.NewProcessor(
		imageprocessor.NewUploadValidator(a.cfg.Limits.MaxFileSizeBytes()),
		a.extractor,
		imageprocessor.NewImageTransformer(),
		a.store,
		pipeline.Options{
			Workers:    a.cfg.Processing.Workers,
			CleanupTTL: a.cfg.Cleanup.TTL,
			Recorder:   a.queue,
			Progress:   progress,
		},
	)
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logging.LogWarning("Error during close: %v", err)
		}
	}
	a.closers = nil
}

func handleServeCommand(ctx context.Context, a *app) error {
	srv := server.New(a.cfg, server.Deps{
		Store:         a.store,
		Processor:     a.processor,
		Merger:        a.merger,
		Planner:       a.planner,
		History:       a.queue,
		ExifSupported: a.extractor.ExifSupported(),
	}, logging.Logger())

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func handleProcessCommand(ctx context.Context, a *app, args map[string]string) error {
	folderPath := args["folder"]
	folderInfo, err := os.Stat(folderPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("folder path does not exist: %s", folderPath)
		}
		return fmt.Errorf("cannot access folder path: %s (%v)", folderPath, err)
	}
	if !folderInfo.IsDir() {
		return fmt.Errorf("path is not a directory: %s", folderPath)
	}

	cfg := config.ParseProcessingConfig(args, a.cfg.Processing)
	ws, err := a.store.Create(ctx, session.PrefixNormal, &cfg)
	if err != nil {
		return err
	}

	uploads, rejected, err := pipeline.StageFolder(ws, folderPath)
	if err != nil {
		ws.Remove()
		return err
	}

	fmt.Printf("Processing %d files from %s\n", len(uploads)+len(rejected), folderPath)
	fmt.Printf("Max size: %d, quality: %d, sort: %s %s, output: %s\n",
		cfg.MaxSize, cfg.Quality, cfg.SortBy, cfg.SortOrder, cfg.OutputFormat)

	startTime := time.Now()
	result, err := a.newProcessor(os.Stdout).Process(ctx, pipeline.Batch{Workspace: ws, Uploads: uploads, Rejected: rejected, Config: cfg})
	if result != nil {
		for _, f := range result.Failures {
			fmt.Printf("  skipped %s (%s): %s\n", f.Name, f.Stage, f.Reason)
		}
	}
	if err != nil {
		if errors.Is(err, pipeline.ErrNoValidFiles) {
			return fmt.Errorf("no file could be processed")
		}
		return err
	}

	fmt.Printf("\nProcessed %d/%d images in %v.\n", result.Processed, result.Total, time.Since(startTime).Round(time.Millisecond))
	fmt.Printf("Size: %s -> %s\n",
		utils.FormatFileSize(result.Stats.TotalOriginalSize), utils.FormatFileSize(result.Stats.TotalSize))
	fmt.Printf("Session: %s\n", result.SessionID)
	if path, err := ws.ArchivePath(); err == nil && path != "" {
		fmt.Printf("Archive: %s\n", path)
	}
	return nil
}

func handleMergeCommand(ctx context.Context, a *app, args map[string]string) error {
	result, err := a.merger.Merge(ctx, utils.SplitList(args["sessions"]))
	if err != nil {
		return err
	}

	fmt.Printf("Merged %d files from %d sessions into %s\n",
		result.TotalFiles, len(result.SourceSessions), result.CombinedSessionID)
	for _, f := range result.Files {
		fmt.Printf("  %s (from %s)\n", f.ProcessedName, f.SourceSession)
	}
	if ws, err := a.store.Workspace(result.CombinedSessionID); err == nil {
		if path, err := ws.ArchivePath(); err == nil && path != "" {
			fmt.Printf("Archive: %s\n", path)
		}
	}
	return nil
}

func handleStatusCommand(ctx context.Context, a *app, args map[string]string) error {
	sess, err := a.store.Read(ctx, args["session"])
	switch {
	case errors.Is(err, session.ErrIncomplete):
		fmt.Println("Session is still being processed.")
		return nil
	case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrInvalidID):
		return fmt.Errorf("session %s does not exist", args["session"])
	case err != nil:
		return err
	}

	out, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
