// Package main implements runreport, a read-only CLI that reconstructs a
// pipeline run from its recorded steps: per-stage status, duration, retry
// count, and validation outcome.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/edforge/edforge-api/internal/config"
	"github.com/edforge/edforge-api/internal/domain"
	"github.com/edforge/edforge-api/internal/platform/postgres"
	"github.com/edforge/edforge-api/internal/store"
)

func main() {
	processID := flag.String("process", "", "process ID to report on (required)")
	flag.Parse()

	if *processID == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*processID, os.Stdout); err != nil {
		log.Fatalf("runreport failed: %v", err)
	}
}

func run(rawProcessID string, out io.Writer) error {
	processID, err := uuid.Parse(rawProcessID)
	if err != nil {
		return fmt.Errorf("invalid process ID %q: %w", rawProcessID, err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}
	defer func() { _ = db.Close() }()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	processes := postgres.NewPostgresProcessStore(db, logger)
	steps := postgres.NewPostgresStepStore(db, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	process, err := processes.GetByID(ctx, processID)
	if err != nil {
		return fmt.Errorf("failed to load process: %w", err)
	}

	recorded, err := steps.GetByProcessID(ctx, processID)
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to load steps: %w", err)
	}

	return writeReport(out, process, recorded)
}

func isNotFound(err error) bool {
	return err != nil && (err == store.ErrStepNotFound || err == store.ErrNotFound)
}

// writeReport renders the run summary followed by one row per recorded step.
func writeReport(out io.Writer, process *domain.Process, steps []*domain.PipelineStep) error {
	fmt.Fprintf(out, "Process %s\n", process.ID)
	fmt.Fprintf(out, "  question:     %s\n", process.QuestionID)
	fmt.Fprintf(out, "  status:       %s\n", process.Status)
	fmt.Fprintf(out, "  progress:     %d%%\n", process.Progress)
	fmt.Fprintf(out, "  current step: %s\n", process.CurrentStep)
	if process.ErrorMessage != "" {
		fmt.Fprintf(out, "  error:        %s\n", process.ErrorMessage)
	}
	fmt.Fprintln(out)

	if len(steps) == 0 {
		fmt.Fprintln(out, "No steps recorded.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tSTEP\tSTATUS\tDURATION\tRETRIES\tVALIDATION\tERROR")
	for _, step := range steps {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\t%s\n",
			step.StepNumber,
			step.StepName,
			step.Status,
			formatDuration(step),
			step.RetryCount,
			summarizeValidation(step.Validation),
			step.ErrorMessage)
	}
	return w.Flush()
}

func formatDuration(step *domain.PipelineStep) string {
	if step.FinishedAt == nil {
		return "-"
	}
	return step.FinishedAt.Sub(step.StartedAt).Round(time.Millisecond).String()
}

// summarizeValidation collapses a stored validation result into a short
// cell: "ok", "ok (N warnings)", or "failed: first error".
func summarizeValidation(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "-"
	}

	var result struct {
		IsValid  bool     `json:"is_valid"`
		Errors   []string `json:"errors"`
		Warnings []string `json:"warnings"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return "-"
	}

	if !result.IsValid {
		if len(result.Errors) > 0 {
			return "failed: " + result.Errors[0]
		}
		return "failed"
	}
	if len(result.Warnings) > 0 {
		return fmt.Sprintf("ok (%d warnings)", len(result.Warnings))
	}
	return "ok"
}
