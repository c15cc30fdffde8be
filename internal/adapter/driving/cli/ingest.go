package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	githubadapter "github.com/vakalapa/codesteward/internal/adapter/driven/github"
	"github.com/vakalapa/codesteward/internal/adapter/driven/sqlite"
	"github.com/vakalapa/codesteward/internal/application"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest repo ownership and historical PR review data",
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().String("repo", "", "GitHub repo (owner/name)")
	ingestCmd.Flags().String("since", "180d", "lookback window (e.g. 180d, 6m, 1y)")
	ingestCmd.Flags().String("areas", "", "comma-separated area filters")
	ingestCmd.Flags().Int("max-prs", 300, "maximum PRs to ingest")
	ingestCmd.Flags().Bool("resume", false, "only ingest PRs newer than last run")
	_ = ingestCmd.MarkFlagRequired("repo")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !cfg.HasGitHubToken() {
		return fmt.Errorf("GITHUB_TOKEN is required for ingest")
	}

	repo, _ := cmd.Flags().GetString("repo")
	since, _ := cmd.Flags().GetString("since")
	maxPRs, _ := cmd.Flags().GetInt("max-prs")
	resume, _ := cmd.Flags().GetBool("resume")

	sinceDays, err := parseSince(since)
	if err != nil {
		return err
	}

	var areas []string
	if raw, _ := cmd.Flags().GetString("areas"); raw != "" {
		for _, a := range strings.Split(raw, ",") {
			if a = strings.TrimSpace(a); a != "" {
				areas = append(areas, a)
			}
		}
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	history := sqlite.NewHistoryRepo(db)
	ownership := sqlite.NewOwnershipRepo(db)
	gh := githubadapter.NewClient(cfg.GitHubToken)
	mapper := application.NewRepoMapper(ownership, history, gh)

	ingestor, err := application.NewIngestor(history, gh, mapper, cfg.PRFilter)
	if err != nil {
		return err
	}

	fmt.Printf("Ingesting data from %s...\n", repo)
	stats, err := ingestor.Ingest(cmd.Context(), repo, application.IngestOptions{
		SinceDays: sinceDays,
		MaxPRs:    maxPRs,
		Areas:     areas,
		Resume:    resume,
	})
	if err != nil {
		return err
	}

	fmt.Println("Ingestion summary:")
	fmt.Printf("  PRs:             %d\n", stats.PRs)
	fmt.Printf("  Files:           %d\n", stats.Files)
	fmt.Printf("  Reviews:         %d\n", stats.Reviews)
	fmt.Printf("  Comments:        %d\n", stats.Comments)
	fmt.Printf("  Ownership rules: %d\n", stats.OwnershipRules)
	fmt.Printf("  Skipped (area):  %d\n", stats.SkippedArea)
	fmt.Printf("  Skipped (bot):   %d\n", stats.SkippedBotCVE)
	return nil
}
