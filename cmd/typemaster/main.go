// Package main provides the CLI entrypoint for typemaster.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/typemaster/internal/config"
	"github.com/verte-zerg/typemaster/internal/lesson"
	"github.com/verte-zerg/typemaster/internal/llm"
	"github.com/verte-zerg/typemaster/internal/logging"
	"github.com/verte-zerg/typemaster/internal/model"
	"github.com/verte-zerg/typemaster/internal/records"
	"github.com/verte-zerg/typemaster/internal/session"
	"github.com/verte-zerg/typemaster/internal/store"
	"github.com/verte-zerg/typemaster/internal/tui"
)

const (
	defaultTier       = string(model.TierEasy)
	defaultSource     = sourceStatic
	defaultWeakTop    = 8
	defaultWeakFactor = 2.0
	defaultWeakWindow = 20

	sourceStatic = "static"
	sourceWords  = "words"
	sourceLLM    = "llm"
)

var (
	practiceTier       string
	practiceSource     string
	practiceParagraphs int
	practiceWords      int
	practiceCaps       float64
	practicePunct      float64
	practicePunctSet   string
	practiceFocusWeak  bool
	practiceWeakTop    int
	practiceWeakFactor float64
	practiceWeakWindow int
	practiceWordList   string
	debugLog           bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "typemaster",
		Short:         "Tiered TUI typing trainer",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	addLessonFlags(rootCmd)
	rootCmd.Flags().IntVar(&practiceParagraphs, "paragraphs", 0, "finish the run after N paragraphs (0 = endless)")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "write debug records to the log file")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newResetCmd())
	rootCmd.AddCommand(newLessonCmd())

	return rootCmd
}

func addLessonFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&practiceTier, "tier", defaultTier, "difficulty tier (easy, medium, hard)")
	cmd.Flags().StringVar(&practiceSource, "source", defaultSource, "lesson source (static, words, llm)")
	cmd.Flags().IntVar(&practiceWords, "words", 0, "words per generated paragraph (0 = tier default)")
	cmd.Flags().Float64Var(&practiceCaps, "caps", -1, "probability of capitalized first letter (0-1, -1 = tier default)")
	cmd.Flags().Float64Var(&practicePunct, "punct", -1, "punctuation probability per word (0-1, -1 = tier default)")
	cmd.Flags().StringVar(&practicePunctSet, "punct-set", "", "punctuation set (empty = tier default)")
	cmd.Flags().BoolVar(&practiceFocusWeak, "focus-weak", false, "bias generated words toward weak characters")
	cmd.Flags().IntVar(&practiceWeakTop, "weak-top", defaultWeakTop, "number of weak characters to focus on")
	cmd.Flags().Float64Var(&practiceWeakFactor, "weak-factor", defaultWeakFactor, "weight factor for weak characters")
	cmd.Flags().IntVar(&practiceWeakWindow, "weak-window", defaultWeakWindow, "number of recent paragraphs to compute weak chars")
	cmd.Flags().StringVar(&practiceWordList, "wordlist", "", "word list file for the words source (default: built-in)")
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg, err := resolvePracticeConfig(cmd, fileCfg)
	if err != nil {
		return err
	}

	logger, closeLog, err := logging.OpenFile(config.DefaultLogPath(), debugLog)
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	defer func() {
		if cerr := closeLog(); cerr != nil {
			logErrf("failed to close log: %v\n", cerr)
		}
	}()

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src, err := buildSource(ctx, cfg, fileCfg.LLM, st, logger)
	if err != nil {
		return err
	}
	logger.Info("practice started", "tier", cfg.Tier, "source", cfg.Source, "paragraphs", cfg.Paragraphs)

	sess := session.New(session.Options{
		Context:        ctx,
		Source:         src,
		Records:        records.NewRepo(st, logger),
		History:        st,
		Logger:         logger,
		Tier:           cfg.Tier,
		ParagraphLimit: cfg.Paragraphs,
	})
	m := tui.NewModel(tui.Options{
		Session:    sess,
		Source:     src,
		History:    st,
		SourceName: cfg.Source,
		Logger:     logger,
		Context:    ctx,
	})
	program := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen(), tea.WithReportFocus())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// resolvePracticeConfig merges flags over the config file. Flags win only
// when set explicitly.
func resolvePracticeConfig(cmd *cobra.Command, fileCfg config.FileConfig) (model.Config, error) {
	applyStringConfig(cmd, "tier", &practiceTier, fileCfg.Practice.Tier)
	applyIntConfig(cmd, "paragraphs", &practiceParagraphs, fileCfg.Practice.Paragraphs)
	applyStringConfig(cmd, "source", &practiceSource, fileCfg.Lesson.Source)
	applyIntConfig(cmd, "words", &practiceWords, fileCfg.Lesson.Words)
	applyFloatConfig(cmd, "caps", &practiceCaps, fileCfg.Lesson.CapsPct)
	applyFloatConfig(cmd, "punct", &practicePunct, fileCfg.Lesson.PunctPct)
	applyStringConfig(cmd, "punct-set", &practicePunctSet, fileCfg.Lesson.PunctSet)
	applyBoolConfig(cmd, "focus-weak", &practiceFocusWeak, fileCfg.Lesson.FocusWeak)
	applyIntConfig(cmd, "weak-top", &practiceWeakTop, fileCfg.Lesson.WeakTop)
	applyFloatConfig(cmd, "weak-factor", &practiceWeakFactor, fileCfg.Lesson.WeakFactor)
	applyIntConfig(cmd, "weak-window", &practiceWeakWindow, fileCfg.Lesson.WeakWindow)
	applyStringConfig(cmd, "wordlist", &practiceWordList, fileCfg.Lesson.WordList)

	tier, err := model.ParseTier(practiceTier)
	if err != nil {
		return model.Config{}, fmt.Errorf("invalid --tier: %w", err)
	}
	cfg := model.Config{
		Tier:         tier,
		Source:       strings.ToLower(strings.TrimSpace(practiceSource)),
		Paragraphs:   practiceParagraphs,
		Words:        practiceWords,
		CapsPct:      practiceCaps,
		PunctPct:     practicePunct,
		PunctSet:     practicePunctSet,
		FocusWeak:    practiceFocusWeak,
		WeakTop:      practiceWeakTop,
		WeakFactor:   practiceWeakFactor,
		WeakWindow:   practiceWeakWindow,
		WordListPath: practiceWordList,
	}
	if err := validateConfig(cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

// buildSource returns the lesson source named by cfg.Source.
func buildSource(ctx context.Context, cfg model.Config, llmFile config.LLMConfig, st *store.Store, logger *slog.Logger) (lesson.Source, error) {
	switch cfg.Source {
	case sourceStatic:
		return lesson.NewStatic(), nil
	case sourceWords:
		words := lesson.DefaultWords()
		if cfg.WordListPath != "" {
			loaded, err := lesson.LoadWords(cfg.WordListPath, lesson.FilterForLang("en"))
			if err != nil {
				return nil, fmt.Errorf("failed to load word list %s: %w", cfg.WordListPath, err)
			}
			words = loaded
		}
		var weak lesson.WeakFinder
		if cfg.FocusWeak && st != nil {
			weak = st
		}
		return lesson.NewWords(words, cfg, weak, logger), nil
	case sourceLLM:
		llmCfg, err := resolveLLMConfig(llmFile)
		if err != nil {
			return nil, err
		}
		provider, err := llm.NewProvider(ctx, llmCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to set up %s provider: %w", llmCfg.Provider, err)
		}
		return lesson.NewGenerative(provider, llmCfg.Timeout, logger), nil
	default:
		return nil, fmt.Errorf("unknown --source %q (want %s, %s or %s)", cfg.Source, sourceStatic, sourceWords, sourceLLM)
	}
}

// resolveLLMConfig layers the [llm] section, then the environment, over the
// defaults.
func resolveLLMConfig(file config.LLMConfig) (llm.Config, error) {
	cfg := llm.DefaultConfig()
	if file.Provider != nil {
		cfg.Provider = *file.Provider
	}
	if file.Model != nil {
		cfg.Model = *file.Model
	}
	if file.APIKey != nil {
		cfg.APIKey = *file.APIKey
	}
	if file.BaseURL != nil {
		cfg.BaseURL = *file.BaseURL
	}
	if file.Timeout != nil {
		d, err := time.ParseDuration(*file.Timeout)
		if err != nil {
			return llm.Config{}, fmt.Errorf("invalid llm timeout %q: %w", *file.Timeout, err)
		}
		cfg.Timeout = d
	}
	cfg.ApplyEnv()
	return cfg, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# typemaster configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# tier = %q              # easy, medium or hard
# paragraphs = 0           # Finish the run after N paragraphs (0 = endless)

[lesson]
# source = %q          # static, words or llm
# words = 16               # Words per generated paragraph (words source)
# caps = 0.3               # Probability of capitalized first letter (0-1)
# punct = 0.2              # Punctuation probability per word (0-1)
# punct-set = %q
# focus-weak = false       # Bias generated words toward weak characters
# weak-top = %d             # Number of weak characters to focus on
# weak-factor = %.1f        # Weight factor for weak characters
# weak-window = %d         # Recent paragraphs used to compute weak chars
# wordlist = "/path/to/words.txt"

[llm]
# provider = "gemini"      # gemini, openai, openrouter or anthropic
# model = ""               # Provider default when empty
# api-key = ""             # Prefer TYPEMASTER_LLM_API_KEY or the provider's variable
# base-url = ""            # OpenAI-compatible endpoint override
# timeout = "20s"
`,
		defaultTier,
		defaultSource,
		lesson.DefaultPunctSet,
		defaultWeakTop,
		defaultWeakFactor,
		defaultWeakWindow,
	)
}

func validateConfig(cfg model.Config) error {
	switch cfg.Source {
	case sourceStatic, sourceWords, sourceLLM:
	default:
		return fmt.Errorf("--source must be one of %s, %s, %s", sourceStatic, sourceWords, sourceLLM)
	}
	if cfg.Paragraphs < 0 {
		return fmt.Errorf("--paragraphs must be >= 0")
	}
	if cfg.Words < 0 {
		return fmt.Errorf("--words must be >= 0")
	}
	if cfg.CapsPct > 1 {
		return fmt.Errorf("--caps must be between 0 and 1")
	}
	if cfg.PunctPct > 1 {
		return fmt.Errorf("--punct must be between 0 and 1")
	}
	if cfg.WeakTop < 0 {
		return fmt.Errorf("--weak-top must be >= 0")
	}
	if cfg.WeakFactor < 0 {
		return fmt.Errorf("--weak-factor must be >= 0")
	}
	if cfg.WeakWindow < 0 {
		return fmt.Errorf("--weak-window must be >= 0")
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
