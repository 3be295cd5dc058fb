package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/studioluxe/leadflow/internal/httpapi"
	"github.com/studioluxe/leadflow/internal/model"
)

var (
	submitFile        string
	submitCSV         string
	submitConcurrency int
	submitOutput      string
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Run the pipeline for submissions from a JSON or CSV file",
	Long: `Replays contact-form submissions through the same pipeline the server uses,
e.g. leads collected while the site was down.

Examples:
  # One submission object or an array of them
  leadflow submit --file lead.json

  # CSV with a header row: name,email,website,budget,goals
  leadflow submit --csv leads.csv --concurrency 4 --output results.json`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		subs, err := loadSubmissions(submitFile, submitCSV)
		if err != nil {
			return err
		}
		zap.L().Info("submit: loaded submissions", zap.Int("count", len(subs)))

		env, err := initPipeline(cfg, "submit")
		if err != nil {
			return err
		}

		concurrency := submitConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Submit.MaxConcurrent
		}

		outcomes, failed := runSubmissions(ctx, env.Pipeline, subs, concurrency)

		out := os.Stdout
		if submitOutput != "" {
			f, err := os.Create(submitOutput)
			if err != nil {
				return eris.Wrap(err, "submit: create output")
			}
			defer f.Close() //nolint:errcheck
			out = f
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(outcomes); err != nil {
			return eris.Wrap(err, "submit: write output")
		}

		if failed > 0 {
			return eris.Errorf("submit: %d of %d submissions failed", failed, len(subs))
		}
		return nil
	},
}

// submitOutcome pairs a submission with its pipeline result.
type submitOutcome struct {
	SubmissionID string `json:"submission_id"`
	Email        string `json:"email"`
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`
}

// runSubmissions processes subs with at most concurrency in flight. A failed
// submission never aborts the rest. Outcomes keep input order.
func runSubmissions(ctx context.Context, p httpapi.Processor, subs []model.LeadSubmission, concurrency int) ([]submitOutcome, int64) {
	if concurrency <= 0 {
		concurrency = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	outcomes := make([]submitOutcome, len(subs))
	var failed atomic.Int64

	for i, sub := range subs {
		g.Go(func() error {
			rep := p.Process(gctx, sub)
			outcomes[i] = submitOutcome{
				SubmissionID: rep.SubmissionID,
				Email:        sub.Email,
				Success:      rep.Result.Success,
				Error:        rep.Result.Error,
			}
			if !rep.Result.Success {
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	zap.L().Info("submit: batch complete",
		zap.Int("total", len(subs)),
		zap.Int64("failed", failed.Load()),
	)
	return outcomes, failed.Load()
}

func loadSubmissions(jsonPath, csvPath string) ([]model.LeadSubmission, error) {
	switch {
	case jsonPath != "" && csvPath != "":
		return nil, eris.New("submit: use either --file or --csv, not both")
	case jsonPath != "":
		f, err := os.Open(jsonPath)
		if err != nil {
			return nil, eris.Wrap(err, "submit: open file")
		}
		defer f.Close() //nolint:errcheck
		return parseSubmissionsJSON(f)
	case csvPath != "":
		f, err := os.Open(csvPath)
		if err != nil {
			return nil, eris.Wrap(err, "submit: open csv")
		}
		defer f.Close() //nolint:errcheck
		return parseSubmissionsCSV(f)
	default:
		return nil, eris.New("submit: --file or --csv is required")
	}
}

// parseSubmissionsJSON accepts a single submission object or an array.
func parseSubmissionsJSON(r io.Reader) ([]model.LeadSubmission, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "submit: read json")
	}
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var subs []model.LeadSubmission
		if err := json.Unmarshal(data, &subs); err != nil {
			return nil, eris.Wrap(err, "submit: decode json array")
		}
		return subs, nil
	}
	var sub model.LeadSubmission
	if err := json.Unmarshal(data, &sub); err != nil {
		return nil, eris.Wrap(err, "submit: decode json")
	}
	return []model.LeadSubmission{sub}, nil
}

// parseSubmissionsCSV reads a CSV whose header names the submission fields
// (case-insensitive, any order). Unknown columns are ignored.
func parseSubmissionsCSV(r io.Reader) ([]model.LeadSubmission, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, eris.Wrap(err, "submit: read csv header")
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"name", "email", "budget", "goals"} {
		if _, ok := cols[required]; !ok {
			return nil, eris.Errorf("submit: csv header missing %q column", required)
		}
	}

	get := func(row []string, col string) string {
		i, ok := cols[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var subs []model.LeadSubmission
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, fmt.Sprintf("submit: read csv line %d", line))
		}
		subs = append(subs, model.LeadSubmission{
			Name:    get(row, "name"),
			Email:   get(row, "email"),
			Website: get(row, "website"),
			Budget:  model.Budget(get(row, "budget")),
			Goals:   get(row, "goals"),
		})
	}
	return subs, nil
}

func init() {
	submitCmd.Flags().StringVar(&submitFile, "file", "", "JSON file with one submission or an array")
	submitCmd.Flags().StringVar(&submitCSV, "csv", "", "CSV file of submissions")
	submitCmd.Flags().IntVar(&submitConcurrency, "concurrency", 0, "max submissions in flight (default from config)")
	submitCmd.Flags().StringVarP(&submitOutput, "output", "o", "", "write results JSON to file instead of stdout")
	rootCmd.AddCommand(submitCmd)
}
