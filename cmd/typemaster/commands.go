package main

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/typemaster/internal/config"
	"github.com/verte-zerg/typemaster/internal/logging"
	"github.com/verte-zerg/typemaster/internal/model"
	"github.com/verte-zerg/typemaster/internal/records"
	"github.com/verte-zerg/typemaster/internal/stats"
	"github.com/verte-zerg/typemaster/internal/statsui"
	"github.com/verte-zerg/typemaster/internal/store"
)

const defaultMistakesTop = 10

var (
	statsTier  string
	statsLast  int
	statsPlain bool

	resetTier string
	resetAll  bool
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show tier records and paragraph history",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsTier, "tier", "", "tier filter")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N paragraphs")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print plain text instead of the interactive view")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	cfg := model.StatsConfig{Last: statsLast}
	if statsTier != "" {
		tier, err := model.ParseTier(statsTier)
		if err != nil {
			return fmt.Errorf("invalid --tier: %w", err)
		}
		cfg.Tier = tier
	}
	if cfg.Last < 0 {
		return fmt.Errorf("--last must be >= 0")
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	repo := records.NewRepo(st, logging.Discard())

	if statsPlain || !term.IsTerminal(int(os.Stdout.Fd())) {
		return renderPlainStats(cmd.Context(), cmd.OutOrStdout(), st, repo, cfg)
	}

	m := statsui.NewModel(st, repo, cfg)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func renderPlainStats(ctx context.Context, w io.Writer, hist stats.HistorySource, recs stats.RecordSource, cfg model.StatsConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	report, err := stats.BuildReport(ctx, hist, recs, cfg)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	if err := stats.RenderTierTable(w, report.Records); err != nil {
		return err
	}
	if err := stats.RenderParagraphCurves(w, report.Records); err != nil {
		return err
	}
	if err := stats.RenderSummary(w, report.Paragraphs); err != nil {
		return err
	}
	return stats.RenderMistakes(w, report.Mistakes, defaultMistakesTop)
}

func newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset a tier's record and history",
		Args:  cobra.NoArgs,
		RunE:  runResetCmd,
	}
	cmd.Flags().StringVar(&resetTier, "tier", "", "tier to reset")
	cmd.Flags().BoolVar(&resetAll, "all", false, "reset every tier")
	return cmd
}

func runResetCmd(cmd *cobra.Command, _ []string) error {
	tiers, err := resolveResetTiers(resetTier, resetAll)
	if err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := resetTiers(ctx, records.NewRepo(st, logging.Discard()), st, tiers); err != nil {
		return err
	}
	for _, tier := range tiers {
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "reset %s\n", tier); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func resolveResetTiers(tier string, all bool) ([]model.Tier, error) {
	switch {
	case all && tier != "":
		return nil, fmt.Errorf("use either --tier or --all")
	case all:
		return append([]model.Tier(nil), model.Tiers...), nil
	case tier == "":
		return nil, fmt.Errorf("one of --tier or --all is required")
	}
	parsed, err := model.ParseTier(tier)
	if err != nil {
		return nil, fmt.Errorf("invalid --tier: %w", err)
	}
	return []model.Tier{parsed}, nil
}

type recordRepo interface {
	Load(ctx context.Context) model.Records
	Save(ctx context.Context, recs model.Records) error
}

type historyEraser interface {
	DeleteHistory(ctx context.Context, tier model.Tier) error
}

// resetTiers clears records and stored paragraphs for tiers. Other tiers
// keep their records.
func resetTiers(ctx context.Context, repo recordRepo, hist historyEraser, tiers []model.Tier) error {
	recs := repo.Load(ctx)
	for _, tier := range tiers {
		recs[tier] = model.NewDifficultyRecord()
	}
	if err := repo.Save(ctx, recs); err != nil {
		return fmt.Errorf("failed to save records: %w", err)
	}
	for _, tier := range tiers {
		if err := hist.DeleteHistory(ctx, tier); err != nil {
			return fmt.Errorf("failed to delete %s history: %w", tier, err)
		}
	}
	return nil
}

func newLessonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lesson",
		Short: "Print one paragraph from the configured source",
		Args:  cobra.NoArgs,
		RunE:  runLessonCmd,
	}
	addLessonFlags(cmd)
	return cmd
}

func runLessonCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg, err := resolvePracticeConfig(cmd, fileCfg)
	if err != nil {
		return err
	}
	logger := logging.New(cmd.ErrOrStderr(), debugLog)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	// Weak-char focus needs history; the lesson preview runs without it.
	cfg.FocusWeak = false
	src, err := buildSource(ctx, cfg, fileCfg.LLM, nil, logger)
	if err != nil {
		return err
	}
	text := src.Next(ctx, cfg.Tier, 0)
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), text); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
