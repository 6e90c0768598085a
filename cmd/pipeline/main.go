package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"platereader/internal/app"
	"platereader/internal/config"
	"platereader/internal/logger"
	"platereader/internal/models"
	"platereader/internal/repository/sqlite"
	"platereader/internal/services/pipeline"
)

func main() {
	stage := flag.String("stage", "all", "Comma separated stages to run: car, plate, characters")
	envFile := flag.String("env", ".env", "Optional dotenv file")
	noDB := flag.Bool("no-db", false, "Do not record the run and results in the database")
	flag.Parse()

	if err := run(*envFile, pipeline.ParseStages(*stage), !*noDB); err != nil {
		log.Fatalf("Pipeline failed: %v", err)
	}
}

func run(envFile string, only []string, record bool) error {
	cfg := config.Load(envFile)
	logs := logger.NewLogger(cfg)
	defer logs.Close()

	var recorders []pipeline.Recorder
	var runs *sqlite.RunRepository
	if record {
		db, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		runs = sqlite.NewRunRepository(db)
		recorders = append(recorders, pipeline.NewRepositoryRecorder(sqlite.NewPlateRepository(db)))
	}

	p, detectors, err := app.BuildPipeline(cfg, logs, only, recorders...)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	defer detectors.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	current := &models.Run{Stages: strings.Join(p.Stages(), ","), Status: models.RunRunning}
	if runs != nil {
		if _, err := runs.Insert(current); err != nil {
			return fmt.Errorf("failed to record run: %w", err)
		}
		ctx = pipeline.WithRunID(ctx, current.ID)
	}

	reports, runErr := p.Run(ctx)

	fmt.Printf("\nPipeline summary:\n")
	for _, r := range reports {
		fmt.Printf("   %-10s %4d images, %4d succeeded, %4d failed, %4d outputs\n",
			r.Stage, r.Images, r.Succeeded, r.Failed, len(r.Outputs))
		current.Images += r.Images
		current.Succeeded += r.Succeeded
		current.Failed += r.Failed
	}

	current.Status = models.RunFinished
	if runErr != nil {
		current.Status = models.RunFailed
	}
	current.FinishedAt = time.Now()
	if runs != nil {
		if err := runs.Finish(current); err != nil {
			logs.Error("Failed to store run %d: %v", current.ID, err)
		}
	}

	return runErr
}
