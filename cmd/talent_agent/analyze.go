package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonathan/talent-reconciler/internal/memstore"
	"github.com/jonathan/talent-reconciler/internal/observability"
	"github.com/jonathan/talent-reconciler/internal/schemas"
	"github.com/jonathan/talent-reconciler/internal/talent"
	"github.com/jonathan/talent-reconciler/internal/types"
	schemafiles "github.com/jonathan/talent-reconciler/schemas"
	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compare an extracted CV against a talent profile offline",
	Long:  "Loads a talent profile, the catalogs and an extracted CV from JSON files, prints the comparison and optionally applies a reviewer decision to the profile. Nothing is read from or written to the database.",
	RunE:  runAnalyze,
}

var (
	analyzeProfile    string
	analyzeCatalogs   string
	analyzeCV         string
	analyzeDecision   string
	analyzeOutput     string
	analyzeProfileOut string
	analyzeQuiet      bool
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeProfile, "profile", "p", "", "Path to input TalentProfile JSON file (required)")
	analyzeCmd.Flags().StringVarP(&analyzeCatalogs, "catalogs", "k", "", "Path to input Catalogs JSON file (required)")
	analyzeCmd.Flags().StringVarP(&analyzeCV, "cv", "i", "", "Path to input ExtractedCVData JSON file (required)")
	analyzeCmd.Flags().StringVarP(&analyzeDecision, "decision", "d", "", "Path to an UpdateDecision JSON file to apply to the result")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "out", "o", "", "Path to output Analysis JSON file")
	analyzeCmd.Flags().StringVar(&analyzeProfileOut, "profile-out", "", "Path to output the updated TalentProfile JSON file (with --decision)")
	analyzeCmd.Flags().BoolVarP(&analyzeQuiet, "quiet", "q", false, "Do not print summaries")

	for _, name := range []string{"profile", "catalogs", "cv"} {
		if err := analyzeCmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("failed to mark %s flag as required: %v", name, err))
		}
	}

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	if analyzeProfileOut != "" && analyzeDecision == "" {
		return errors.New("--profile-out requires --decision")
	}

	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	validator, err := schemas.NewValidator(schemafiles.Files)
	if err != nil {
		return err
	}

	// 1. Load inputs
	var profile types.TalentProfile
	if err := readJSON(analyzeProfile, &profile); err != nil {
		return err
	}
	var catalogs types.Catalogs
	if err := readJSON(analyzeCatalogs, &catalogs); err != nil {
		return err
	}
	cvContent, err := validator.ValidateFile(schemafiles.ExtractedCV, analyzeCV)
	if err != nil {
		return fmt.Errorf("invalid extracted CV %s: %w", analyzeCV, err)
	}
	var extracted types.ExtractedCVData
	if err := json.Unmarshal(cvContent, &extracted); err != nil {
		return fmt.Errorf("failed to unmarshal extracted CV JSON: %w", err)
	}

	// 2. Analyze against an in-memory copy
	store := memstore.New()
	store.PutProfile(profile)
	store.SetCatalogs(catalogs)
	svc := talent.NewService(talent.Stores{
		Profiles:      store,
		Catalogs:      store,
		Analyses:      store,
		Verifications: store,
		Experts:       store,
		GroupSkills:   store,
	}, talent.Options{Matching: cfg.Matching, Logger: logger})

	ctx := cmd.Context()
	analysis, err := svc.Analyze(ctx, profile.TalentID, &extracted)
	if err != nil {
		return fmt.Errorf("failed to analyze CV: %w", err)
	}

	printer := observability.NewPrinter(cmd.OutOrStdout())
	if !analyzeQuiet {
		printer.PrintComparison(&analysis.Result)
	}

	// 3. Optionally apply a decision
	if analyzeDecision != "" {
		decisionContent, err := validator.ValidateFile(schemafiles.UpdateDecision, analyzeDecision)
		if err != nil {
			return fmt.Errorf("invalid decision %s: %w", analyzeDecision, err)
		}
		var decision types.UpdateDecision
		if err := json.Unmarshal(decisionContent, &decision); err != nil {
			return fmt.Errorf("failed to unmarshal decision JSON: %w", err)
		}
		// a decision file is written before the run exists, so it binds to this run
		decision.AnalysisID = analysis.ID

		stats, err := svc.ApplyDecisions(ctx, profile.TalentID, &decision)
		var partial *types.PartialApplyError
		if err != nil && !errors.As(err, &partial) {
			return fmt.Errorf("failed to apply decision: %w", err)
		}
		if !analyzeQuiet {
			printer.PrintStatistics(stats)
		}

		if analyzeProfileOut != "" {
			updated, err := store.GetProfile(ctx, profile.TalentID)
			if err != nil {
				return err
			}
			if err := writeJSON(analyzeProfileOut, updated); err != nil {
				return err
			}
		}
		if partial != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", partial)
		}
		stored, err := svc.GetAnalysis(ctx, profile.TalentID, analysis.ID)
		if err != nil {
			return err
		}
		analysis = stored
	}

	// 4. Write the run
	if analyzeOutput != "" {
		if err := writeJSON(analyzeOutput, analysis); err != nil {
			return err
		}
		if !analyzeQuiet {
			fmt.Fprintf(cmd.OutOrStdout(), "Analysis written to %s\n", analyzeOutput)
		}
	}
	return nil
}

func readJSON(path string, v any) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", path, err)
	}
	if err := json.Unmarshal(content, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	jsonOutput, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	// Ensure output directory exists
	outputDir := filepath.Dir(path)
	if outputDir != "" && outputDir != "." {
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if err := os.WriteFile(path, jsonOutput, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
