package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vakalapa/codesteward/internal/adapter/driven/sqlite"
	"github.com/vakalapa/codesteward/internal/application"
	"github.com/vakalapa/codesteward/internal/domain/model"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Build or update reviewer skill cards",
	RunE:  runProfile,
}

func init() {
	profileCmd.Flags().String("repo", "", "GitHub repo (owner/name)")
	profileCmd.Flags().Int("top-reviewers", 50, "number of top reviewers to profile")
	_ = profileCmd.MarkFlagRequired("repo")
}

func runProfile(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	repo, _ := cmd.Flags().GetString("repo")
	topN, _ := cmd.Flags().GetInt("top-reviewers")

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	history := sqlite.NewHistoryRepo(db)
	cards := sqlite.NewCardRepo(db)
	profiler := application.NewReviewerProfiler(history, cards, cfg.RedactQuotes)

	fmt.Printf("Profiling top %d reviewers for %s...\n", topN, repo)
	profiled, err := profiler.ProfileAll(cmd.Context(), repo, topN)
	if err != nil {
		return err
	}
	if len(profiled) == 0 {
		return fmt.Errorf("no reviewers found, run 'ingest' first")
	}

	fmt.Printf("Built %d reviewer profiles:\n", len(profiled))
	for _, card := range profiled {
		blockers := "-"
		if len(card.CommonBlockers) > 0 {
			blockers = card.CommonBlockers[0]
		}
		fmt.Printf("  %-24s reviews=%-4d approval=%3.0f%% blocking=%-6s focus=%-15s blockers=%s\n",
			card.Reviewer,
			card.TotalReviews,
			card.ApprovalRate*100,
			card.BlockingThreshold,
			topFocus(card.FocusWeights),
			blockers,
		)
	}
	return nil
}

// topFocus picks the strongest focus topic, or "general" when the card
// carries no signal.
func topFocus(w model.FocusWeights) string {
	best := model.FocusWeight{Topic: "general"}
	for _, fw := range w.Named() {
		if fw.Weight > best.Weight {
			best = fw
		}
	}
	if best.Weight == 0 {
		return "general"
	}
	return best.Topic
}
