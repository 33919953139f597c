package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/wsuduce/ghost-rank/adapters/dataset"
	"github.com/wsuduce/ghost-rank/adapters/postgres"
	"github.com/wsuduce/ghost-rank/app"
	"github.com/wsuduce/ghost-rank/internal/config"
	"github.com/wsuduce/ghost-rank/internal/detector"
	"github.com/wsuduce/ghost-rank/internal/figures"
	"github.com/wsuduce/ghost-rank/internal/metric"
	"github.com/wsuduce/ghost-rank/ports"
)

func main() {
	// Optional .env, matching the server binary.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "ghostrank",
		Short: "Ghost Rank pipeline: detect ghost curves, calibrate the diffusion law, render figures",
	}

	rootCmd.AddCommand(
		newDetectCmd(),
		newCalibrateCmd(),
		newAnalyzeCmd(),
		newFiguresCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newDetectCmd() *cobra.Command {
	var (
		input     string
		output    string
		xlsxOut   string
		topN      int
		threshold float64
		rank      int
		store     bool
	)

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Scan a curve dataset for ghosts",
		Long: `Scan a CSV or XLSX curve dataset, classify every rank-matching curve
against the stability threshold, and write the detections.

Example: ghostrank detect -i curves.csv -o ghosts.csv --top 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(cmd.Context(), input, output, xlsxOut, topN, threshold, rank, store)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Curve dataset (.csv or .xlsx)")
	cmd.Flags().StringVarP(&output, "output", "o", "ghosts.csv", "Output CSV path")
	cmd.Flags().StringVar(&xlsxOut, "xlsx", "", "Optional XLSX export path")
	cmd.Flags().IntVarP(&topN, "top", "n", 50, "Rows in the printed top table")
	cmd.Flags().Float64Var(&threshold, "threshold", metric.GhostThreshold, "Stability threshold (must be positive)")
	cmd.Flags().IntVar(&rank, "rank", 0, "Analytic rank filter")
	cmd.Flags().BoolVar(&store, "store", false, "Archive the run (requires DATABASE_URL)")
	cmd.MarkFlagRequired("input")

	return cmd
}

func runDetect(ctx context.Context, input, output, xlsxOut string, topN int, threshold float64, rank int, store bool) error {
	if threshold <= 0 {
		return fmt.Errorf("threshold must be positive, got %g", threshold)
	}

	var archive ports.RunArchive
	if store {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		db, err := connectArchive(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		archive = postgres.NewRunArchive(db)
	}

	svc := app.NewDetectionService(archive)
	result, err := svc.Run(ctx, app.DetectionRequest{
		Reader:     dataset.NewDataReader(input),
		Threshold:  threshold,
		RankFilter: rank,
		Archive:    store,
	})
	if err != nil {
		return err
	}

	fmt.Println("👻 GHOST RANK DETECTOR")
	fmt.Printf("   Source: %s · threshold %g · rank %d\n\n", filepath.Base(input), threshold, rank)

	stats := result.Stats
	fmt.Printf("Curves scanned:       %d\n", stats.TotalCurves)
	fmt.Printf("In scan population:   %d\n", stats.Rank0Curves)
	fmt.Printf("Ghosts detected:      %d\n", stats.GhostsDetected)
	fmt.Printf("  with |Ш| > 1:       %d  (P = %.3f)\n", stats.GhostsShaGt1, stats.PGhostGivenShaGt1)
	fmt.Printf("  with |Ш| = 1:       %d  (P = %.3f)\n", stats.GhostsShaEq1, stats.PGhostGivenShaEq1)
	fmt.Printf("Perfect separation:   %v\n\n", stats.PerfectSeparation)

	detector.WriteTopTable(os.Stdout, result.Ghosts, topN)

	if err := dataset.WriteGhostsCSV(output, result.Ghosts); err != nil {
		return err
	}
	if xlsxOut != "" {
		if err := dataset.ExportGhostsXLSX(xlsxOut, result.Ghosts); err != nil {
			return err
		}
	}
	if result.Run != nil {
		fmt.Printf("\nRun archived as %s\n", result.Run.ID)
	}
	return nil
}

func newCalibrateCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Fit the diffusion law to the reference catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalibrate(output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "calibration_curve.json", "Report JSON path")

	return cmd
}

func runCalibrate(output string) error {
	report, err := app.NewCalibrationService().SaveReport(output)
	if err != nil {
		return err
	}

	fit := report.FitExcludingD3
	fmt.Println("📐 CALIBRATION FIT (excluding d3 anomaly)")
	fmt.Printf("   Slope:     %.4f  (theory 1/√e = %.4f, ratio %.4f)\n", fit.Slope, fit.TheoreticalSlope, fit.SlopeRatio)
	fmt.Printf("   Intercept: %.4f\n", fit.Intercept)
	fmt.Printf("   R²:        %.4f  over %d points\n\n", fit.RSquared, fit.NPoints)

	test := report.HypothesisTest
	fmt.Printf("Hypothesis test: t = %.4f (df %d), p = %.4f\n", test.TStatistic, test.DegreesOfFreedom, test.PValue)
	fmt.Printf("  %s\n\n", test.Interpretation)

	d3 := report.D3Anomaly
	fmt.Printf("d3 anomaly %s: z = %.2fσ\n", d3.Label, d3.ZScore)
	fmt.Printf("\nReport saved to %s\n", output)
	return nil
}

func newAnalyzeCmd() *cobra.Command {
	var (
		lPrime    float64
		lValue    float64
		conductor int
		rank      int
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze one curve's L-function data",
		RunE: func(cmd *cobra.Command, args []string) error {
			analysis, err := app.NewCalibrationService().AnalyzeCurve(lPrime, lValue, conductor, rank)
			if err != nil {
				return err
			}

			fmt.Printf("Stability:      %.6f\n", analysis.Stability)
			fmt.Printf("Diffusion:      %.4f\n", analysis.Diffusion)
			fmt.Printf("Ghost:          %v\n", analysis.IsGhost)
			fmt.Printf("Predicted |Ш|:  %.1f\n", analysis.PredictedSha)
			fmt.Printf("Confidence:     %.2f\n", analysis.Confidence)
			return nil
		},
	}

	cmd.Flags().Float64Var(&lPrime, "l-prime", 0, "|L'(E,1)|")
	cmd.Flags().Float64Var(&lValue, "l-value", 0, "|L(E,1)|")
	cmd.Flags().IntVar(&conductor, "conductor", 0, "Conductor N")
	cmd.Flags().IntVar(&rank, "rank", 0, "Analytic rank")
	cmd.MarkFlagRequired("l-prime")
	cmd.MarkFlagRequired("l-value")
	cmd.MarkFlagRequired("conductor")

	return cmd
}

func newFiguresCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "figures",
		Short: "Render the diagnostic figures",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := figures.RenderAll(dir); err != nil {
				return err
			}
			fmt.Printf("Figures written to %s\n", dir)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "results", "Output directory")

	return cmd
}

func connectArchive(cfg *config.Config) (*sqlx.DB, error) {
	if !cfg.Database.Enabled() {
		return nil, fmt.Errorf("--store requires DATABASE_URL")
	}
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to archive database: %w", err)
	}
	return db, nil
}
