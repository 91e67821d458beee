package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/saturnines/nexus-smapi/pkg/config"
	"github.com/saturnines/nexus-smapi/pkg/export"
	"github.com/saturnines/nexus-smapi/pkg/pipeline"
	"github.com/saturnines/nexus-smapi/pkg/transport/rest"
	"github.com/saturnines/nexus-smapi/pkg/youtube"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env file not loaded:", err)
	}

	path := "demo/youtube/youtube.yaml"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	cfg, err := config.NewDefaultLoader().LoadPipeline(path)
	if err != nil {
		log.Fatal(err)
	}

	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	composer, err := pipeline.FromConfig(cfg, rest.NewHTTPClient(), logger)
	if err != nil {
		log.Fatal("Failed to create pipeline:", err)
	}

	result, err := composer.Run(ctx, cfg.Query)
	if err != nil {
		log.Fatal("Run failed:", err)
	}

	tables := result.Tables(pipeline.TableOptions{
		DefaultColumns: cfg.Export.DefaultCols,
		ShortenColumns: cfg.Export.ShortenCols,
	})

	opts := export.Options{
		Dir:         cfg.Export.Dir,
		Force:       cfg.Export.ForceOutput,
		StripCommas: cfg.Export.ShortenCols,
		Logger:      logger,
	}
	for _, format := range cfg.Export.Formats {
		sink, err := export.NewSink(string(format), opts, cfg.Export.SQLitePath)
		if err != nil {
			log.Fatal(err)
		}
		if err := sink.Write(ctx, result.RunID, tables); err != nil {
			sink.Close()
			log.Fatal("Failed to export:", err)
		}
		if err := sink.Close(); err != nil {
			log.Fatal(err)
		}
	}

	fmt.Printf("Collected %d videos for %q (run %s)\n", result.Len(), result.Query, result.RunID)
	for _, t := range tables {
		fmt.Printf("  %-22s %d rows\n", t.Name, t.Len())
		if t.Name != string(youtube.KindVideos) {
			continue
		}
		records := t.Records()
		for i := 0; i < len(records) && i < 5; i++ {
			fmt.Printf("    %d. %v\n", i+1, records[i]["id"])
		}
	}
}
