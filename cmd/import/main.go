package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"platereader/internal/models"
	"platereader/internal/repository/sqlite"
	"platereader/internal/services/pipeline"
	"platereader/internal/services/storage"
)

func main() {
	resultsDir := flag.String("results", "e_characters", "Directory containing results.csv and the text files")
	dbPath := flag.String("db", "data/plates.db", "Database path")
	replace := flag.Bool("replace", false, "Delete stored results before importing")
	flag.Parse()

	table := filepath.Join(*resultsDir, storage.ResultsFile)
	fmt.Printf("Importing %s into database %s\n", table, *dbPath)

	rows, err := storage.ReadResults(table)
	if err != nil {
		log.Fatalf("Failed to read results: %v", err)
	}
	if len(rows) == 0 {
		fmt.Println("No results found to import")
		return
	}

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	plates := sqlite.NewPlateRepository(db)
	runs := sqlite.NewRunRepository(db)

	if *replace {
		if err := plates.DeleteAll(); err != nil {
			log.Fatalf("Failed to clear results: %v", err)
		}
	}

	run := &models.Run{Stages: "import", Status: models.RunRunning}
	if _, err := runs.Insert(run); err != nil {
		log.Fatalf("Failed to record import: %v", err)
	}

	for _, row := range rows {
		run.Images++
		result := &models.PlateResult{
			RunID:     run.ID,
			Image:     row[0],
			PlateText: row[1],
			TextPath:  filepath.Join(*resultsDir, pipeline.TextName(row[0])),
		}

		// the text file wins when it disagrees with the table
		if text, err := storage.ReadText(result.TextPath); err == nil && text != result.PlateText {
			log.Printf("%s: table says %q, text file says %q", row[0], row[1], text)
			result.PlateText = text
		}

		if _, err := plates.Insert(result); err != nil {
			log.Printf("Skipping %s: %v", row[0], err)
			run.Failed++
			continue
		}
		run.Succeeded++
	}

	run.Status = models.RunFinished
	if err := runs.Finish(run); err != nil {
		log.Fatalf("Failed to finish import: %v", err)
	}

	fmt.Printf("Imported %d results (run %d)\n", run.Succeeded, run.ID)
	if run.Failed > 0 {
		fmt.Printf("Skipped %d rows\n", run.Failed)
	}

	stats, err := plates.GetStats()
	if err == nil {
		fmt.Printf("\nDatabase Statistics:\n")
		fmt.Printf("   Total results: %d\n", stats.TotalResults)
		fmt.Printf("   Recognized: %d\n", stats.Recognized)
		fmt.Printf("   Empty: %d\n", stats.Empty)
		fmt.Printf("   Runs: %d\n", stats.TotalRuns)
		for length, count := range stats.ByLength {
			if length > 0 {
				fmt.Printf("      - %d chars: %s\n", length, strings.Repeat("#", min(count, 60)))
			}
		}
	}
}
