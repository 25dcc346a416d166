package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/talent-reconciler/internal/observability"
	"github.com/jonathan/talent-reconciler/internal/verification"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the verification status and history of a talent's skill group",
	RunE:  runStatus,
}

var (
	statusTalent string
	statusGroup  string
)

func init() {
	statusCmd.Flags().StringVarP(&statusTalent, "talent", "t", "", "Talent ID (required)")
	statusCmd.Flags().StringVarP(&statusGroup, "group", "g", "", "Skill group ID (required)")
	for _, name := range []string{"talent", "group"} {
		if err := statusCmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("failed to mark %s flag as required: %v", name, err))
		}
	}
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	talentID, err := uuid.Parse(statusTalent)
	if err != nil {
		return fmt.Errorf("invalid talent ID: %w", err)
	}
	groupID, err := uuid.Parse(statusGroup)
	if err != nil {
		return fmt.Errorf("invalid skill group ID: %w", err)
	}

	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}

	ctx := cmd.Context()
	database, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer database.Close()

	svc := newDatabaseService(database, cfg, verification.Options{}, logger)
	status, err := svc.GetVerificationStatus(ctx, talentID, groupID)
	if err != nil {
		return err
	}
	history, err := svc.GetAssessmentHistory(ctx, talentID, groupID)
	if err != nil {
		return err
	}

	observability.NewPrinter(cmd.OutOrStdout()).PrintVerification(status, history)
	return nil
}
