package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	geminiadapter "github.com/vakalapa/codesteward/internal/adapter/driven/gemini"
	githubadapter "github.com/vakalapa/codesteward/internal/adapter/driven/github"
	"github.com/vakalapa/codesteward/internal/adapter/driven/sqlite"
	"github.com/vakalapa/codesteward/internal/adapter/driving/report"
	"github.com/vakalapa/codesteward/internal/application"
	"github.com/vakalapa/codesteward/internal/diff"
	"github.com/vakalapa/codesteward/internal/domain/port/driven"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Run a simulated multi-reviewer review on a PR or diff",
	Long: `Run a simulated multi-reviewer review on a GitHub PR or a local
diff file, then write the aggregated maintainer report.

Examples:
  codesteward review --repo owner/name --pr 1234
  codesteward review --repo owner/name --diff changes.patch`,
	RunE: runReview,
}

func init() {
	reviewCmd.Flags().String("repo", "", "GitHub repo (owner/name)")
	reviewCmd.Flags().Int("pr", 0, "PR number to review")
	reviewCmd.Flags().String("diff", "", "path to a local diff/patch file")
	reviewCmd.Flags().IntP("reviewers", "n", 5, "number of reviewers to simulate")
	reviewCmd.Flags().StringP("output", "o", "./out", "output directory")
	_ = reviewCmd.MarkFlagRequired("repo")
}

func runReview(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	repo, _ := cmd.Flags().GetString("repo")
	prNumber, _ := cmd.Flags().GetInt("pr")
	diffPath, _ := cmd.Flags().GetString("diff")
	reviewerCount, _ := cmd.Flags().GetInt("reviewers")
	outputDir, _ := cmd.Flags().GetString("output")

	if prNumber == 0 && diffPath == "" {
		return fmt.Errorf("provide either --pr or --diff")
	}

	req := application.ReviewRequest{
		Repo:          repo,
		PRNumber:      prNumber,
		ReviewerCount: reviewerCount,
	}

	var gh driven.GitHubClient
	if prNumber > 0 {
		if !cfg.HasGitHubToken() {
			return fmt.Errorf("GITHUB_TOKEN is required to review a PR")
		}
		gh = githubadapter.NewClient(cfg.GitHubToken)
	} else {
		raw, err := os.ReadFile(diffPath)
		if err != nil {
			return fmt.Errorf("read diff file: %w", err)
		}
		files, err := diff.ParseChangedFiles(string(raw))
		if err != nil {
			return fmt.Errorf("parse diff: %w", err)
		}
		req.DiffText = string(raw)
		req.ChangedFiles = files
	}

	var llm driven.ReviewerLLM
	if cfg.HasGeminiKey() {
		client, err := geminiadapter.NewClient(cmd.Context(), cfg.GeminiAPIKey, cfg.LLM.Model)
		if err != nil {
			return err
		}
		llm = client
	} else {
		fmt.Println("GEMINI_API_KEY not set, using heuristic reviews only.")
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	history := sqlite.NewHistoryRepo(db)
	ownership := sqlite.NewOwnershipRepo(db)
	cards := sqlite.NewCardRepo(db)

	svc := application.NewReviewService(
		application.NewRepoMapper(ownership, history, gh),
		application.NewReviewerDiscovery(ownership, history, cards),
		cards,
		application.NewReviewSimulator(llm, cfg.StrictEvidenceMode, cfg.LLM.MaxTokens, cfg.LLM.MaxDiffChars),
		application.NewMaintainerAggregator(),
		gh,
	)

	summary, err := svc.Run(cmd.Context(), req)
	if err != nil {
		return err
	}

	mdPath, jsonPath, err := report.WriteOutputs(&summary, outputDir)
	if err != nil {
		return err
	}

	fmt.Printf("\nMerge verdict: %s\n", summary.Verdict)
	if len(summary.RiskFlags) > 0 {
		fmt.Printf("  Risk flags:    %s\n", strings.Join(summary.RiskFlags, ", "))
	}
	fmt.Printf("  Reviewers:     %d\n", len(summary.ReviewerReviews))
	fmt.Printf("  Blockers:      %d\n", len(summary.MergedBlockers))
	fmt.Printf("  Suggestions:   %d\n", len(summary.MergedSuggestions))
	if len(summary.Disagreements) > 0 {
		fmt.Printf("  Disagreements: %d\n", len(summary.Disagreements))
	}
	fmt.Printf("\nReport written to %s\n", mdPath)
	fmt.Printf("JSON written to %s\n", jsonPath)
	return nil
}
