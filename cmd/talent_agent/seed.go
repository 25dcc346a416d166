package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/talent-reconciler/internal/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load catalogs, expert assignments and talents into the database",
	Long:  "Reads a seed JSON file naming skills, skill groups with their experts, certificate types, job roles and talents, and inserts them. Skill groups reference skills by name.",
	RunE:  runSeed,
}

var seedFile string

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "Path to the seed JSON file (required)")
	if err := seedCmd.MarkFlagRequired("file"); err != nil {
		panic(fmt.Sprintf("failed to mark file flag as required: %v", err))
	}
	rootCmd.AddCommand(seedCmd)
}

// seedData is the seed file format
type seedData struct {
	Skills      []string `json:"skills"`
	SkillGroups []struct {
		Name    string      `json:"name"`
		Skills  []string    `json:"skills"`
		Experts []uuid.UUID `json:"experts"`
	} `json:"skill_groups"`
	CertificateTypes []types.CertificateType `json:"certificate_types"`
	JobRoles         []struct {
		Name   string   `json:"name"`
		Levels []string `json:"levels"`
	} `json:"job_roles"`
	Talents []types.BasicInfo `json:"talents"`
}

// skillIDs resolves skill names to the ids created for them
func skillIDs(names []string, created map[string]uuid.UUID) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(names))
	for _, name := range names {
		id, ok := created[name]
		if !ok {
			return nil, fmt.Errorf("skill %q is not listed under skills", name)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func runSeed(cmd *cobra.Command, _ []string) error {
	var data seedData
	if err := readJSON(seedFile, &data); err != nil {
		return err
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

	created := make(map[string]uuid.UUID, len(data.Skills))
	for _, name := range data.Skills {
		id, err := database.CreateSkill(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to create skill %q: %w", name, err)
		}
		created[name] = id
	}

	for _, g := range data.SkillGroups {
		ids, err := skillIDs(g.Skills, created)
		if err != nil {
			return fmt.Errorf("skill group %q: %w", g.Name, err)
		}
		groupID, err := database.CreateSkillGroup(ctx, g.Name, ids)
		if err != nil {
			return fmt.Errorf("failed to create skill group %q: %w", g.Name, err)
		}
		for _, expertID := range g.Experts {
			if err := database.AssignExpert(ctx, expertID, groupID); err != nil {
				return fmt.Errorf("failed to assign expert %s: %w", expertID, err)
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "skill group %s %s\n", groupID, g.Name)
	}

	for _, c := range data.CertificateTypes {
		if _, err := database.CreateCertificateType(ctx, c.Name, c.Issuer); err != nil {
			return fmt.Errorf("failed to create certificate type %q: %w", c.Name, err)
		}
	}

	for _, r := range data.JobRoles {
		if _, err := database.CreateJobRole(ctx, r.Name, r.Levels); err != nil {
			return fmt.Errorf("failed to create job role %q: %w", r.Name, err)
		}
	}

	for _, info := range data.Talents {
		id, err := database.CreateTalent(ctx, info)
		if err != nil {
			return fmt.Errorf("failed to create talent %q: %w", info.FullName, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "talent %s %s\n", id, info.FullName)
	}

	logger.Info("seed loaded",
		zap.Int("skills", len(data.Skills)),
		zap.Int("skill_groups", len(data.SkillGroups)),
		zap.Int("talents", len(data.Talents)),
	)
	return nil
}
