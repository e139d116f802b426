// Package cli wires the cobra command tree. Collaborators come in through
// Dependencies so commands stay testable without network or disk.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/benno-ai/benno/internal/adapter/github"
	"github.com/benno-ai/benno/internal/config"
	"github.com/benno-ai/benno/internal/domain"
	"github.com/benno-ai/benno/internal/store"
)

// ErrCriticalFindings signals that the investigation finished but reported
// critical findings; the process should exit non-zero without an error trace.
var ErrCriticalFindings = errors.New("critical findings reported")

// Investigator runs investigations. Satisfied by *review.Reviewer.
type Investigator interface {
	ReviewFiles(ctx context.Context, files []domain.FileChange) (domain.Result, error)
	ReviewDiff(ctx context.Context, unified string) (domain.Result, error)
	ReviewFile(ctx context.Context, path string) (domain.Result, error)
	Close() error
}

// GitEngine provides repository diffs for the staged and diff commands.
type GitEngine interface {
	StagedDiff(ctx context.Context) (string, error)
	BranchDiff(ctx context.Context, baseRef, targetRef string) (string, error)
}

// PRReviewer fetches and posts pull request reviews.
type PRReviewer interface {
	PRDiff(ctx context.Context, number int) (string, error)
	PostReview(ctx context.Context, number int, result domain.Result) (github.PostResult, error)
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	LoadConfig      func(path string) (config.Config, error)
	NewInvestigator func(cfg config.Config, model string) (Investigator, error)
	Git             GitEngine
	NewPRReviewer   func(cfg config.Config) (PRReviewer, error)
	OpenHistory     func(cfg config.Config) (store.Store, error)
	Version         string
	Out             io.Writer
	Err             io.Writer
}

// runFlags holds the persistent flag values shared by review commands.
type runFlags struct {
	configPath string
	provider   string
	model      string
	level      string
	jsonOut    bool
	quiet      bool
}

// NewRootCommand constructs the benno command tree.
func NewRootCommand(deps Dependencies) *cobra.Command {
	version := deps.Version
	if version == "" {
		version = "v0.0.0-dev"
	}

	out := deps.Out
	if out == nil {
		out = os.Stdout
	}
	errOut := deps.Err
	if errOut == nil {
		errOut = os.Stderr
	}

	root := &cobra.Command{
		Use:   "benno",
		Short: "LLM-backed code investigation CLI",
		Long:  "benno investigates code changes with an LLM provider and reports findings by severity.",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true
	root.SetOut(out)
	root.SetErr(errOut)

	flags := &runFlags{}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to config file (default: .benno.yaml discovery)")
	root.PersistentFlags().StringVar(&flags.provider, "provider", "", "Provider override (openai, anthropic, gemini, groq, ollama)")
	root.PersistentFlags().StringVar(&flags.model, "model", "", "Model override for this run")
	root.PersistentFlags().StringVar(&flags.level, "level", "", "Review level override (minimal, standard, detailed)")
	root.PersistentFlags().BoolVar(&flags.jsonOut, "json", false, "Emit the result as JSON")
	root.PersistentFlags().BoolVarP(&flags.quiet, "quiet", "q", false, "Only print findings and the verdict")

	root.AddCommand(
		investigateCommand(deps, flags),
		diffCommand(deps, flags),
		stagedCommand(deps, flags),
		prCommand(deps, flags),
		initCommand(deps),
		historyCommand(deps, flags),
		versionCommand(version),
	)

	return root
}

// loadRunConfig loads configuration and applies the persistent overrides.
func loadRunConfig(deps Dependencies, flags *runFlags) (config.Config, error) {
	cfg, err := deps.LoadConfig(flags.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if flags.provider != "" {
		cfg.Provider.Name = flags.provider
		// A provider switch invalidates a configured model name.
		cfg.Provider.Model = ""
	}
	if flags.level != "" {
		cfg.Review.Level = flags.level
	}
	return cfg, nil
}

// runInvestigation is the shared tail of every review command: run, render,
// persist, and pick the exit status.
func runInvestigation(cmd *cobra.Command, deps Dependencies, flags *runFlags, scope string,
	investigate func(ctx context.Context, inv Investigator, cfg config.Config) (domain.Result, error)) error {

	cfg, err := loadRunConfig(deps, flags)
	if err != nil {
		return err
	}

	inv, err := deps.NewInvestigator(cfg, flags.model)
	if err != nil {
		return err
	}
	defer inv.Close()

	result, err := investigate(cmd.Context(), inv, cfg)
	if err != nil {
		return err
	}

	if err := Render(cmd.OutOrStdout(), result, flags.jsonOut, flags.quiet); err != nil {
		return err
	}

	saveHistory(cmd, deps, cfg, scope, result)

	if result.HasCriticalIssues() {
		return ErrCriticalFindings
	}
	return nil
}

// saveHistory persists the run when the store is enabled. Failures are
// reported but never fail the investigation.
func saveHistory(cmd *cobra.Command, deps Dependencies, cfg config.Config, scope string, result domain.Result) {
	if deps.OpenHistory == nil || !cfg.Store.Enabled {
		return
	}
	history, err := deps.OpenHistory(cfg)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: history store unavailable: %v\n", err)
		return
	}
	defer history.Close()

	run, findings := store.FromResult(scope, cfg.Provider.Name, result)
	if _, err := history.SaveRun(cmd.Context(), run, findings); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: could not save run: %v\n", err)
	}
}

func investigateCommand(deps Dependencies, flags *runFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "investigate PATH...",
		Aliases: []string{"files"},
		Short:   "Investigate files or directories",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInvestigation(cmd, deps, flags, "files",
				func(ctx context.Context, inv Investigator, cfg config.Config) (domain.Result, error) {
					changes, skipped, err := collectFiles(args)
					if err != nil {
						return domain.Result{}, err
					}
					for _, s := range skipped {
						fmt.Fprintf(cmd.ErrOrStderr(), "skipping binary file %s\n", s)
					}
					return inv.ReviewFiles(ctx, changes)
				})
		},
	}
}

func diffCommand(deps Dependencies, flags *runFlags) *cobra.Command {
	var baseRef, targetRef string
	cmd := &cobra.Command{
		Use:   "diff [FILE]",
		Short: "Investigate a unified diff from a file, stdin, or two refs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if baseRef != "" && len(args) == 1 {
				return fmt.Errorf("--base cannot be combined with a diff file")
			}
			return runInvestigation(cmd, deps, flags, "diff",
				func(ctx context.Context, inv Investigator, cfg config.Config) (domain.Result, error) {
					var unified string
					switch {
					case baseRef != "":
						diffText, err := deps.Git.BranchDiff(ctx, baseRef, targetRef)
						if err != nil {
							return domain.Result{}, err
						}
						unified = diffText
					case len(args) == 1:
						raw, err := os.ReadFile(args[0])
						if err != nil {
							return domain.Result{}, fmt.Errorf("read diff: %w", err)
						}
						unified = string(raw)
					default:
						raw, err := io.ReadAll(cmd.InOrStdin())
						if err != nil {
							return domain.Result{}, fmt.Errorf("read diff: %w", err)
						}
						unified = string(raw)
					}
					return inv.ReviewDiff(ctx, unified)
				})
		},
	}
	cmd.Flags().StringVar(&baseRef, "base", "", "Base ref to diff against (enables ref-to-ref mode)")
	cmd.Flags().StringVar(&targetRef, "target", "HEAD", "Target ref to compare with --base")
	return cmd
}

func stagedCommand(deps Dependencies, flags *runFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "staged",
		Short: "Investigate staged changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInvestigation(cmd, deps, flags, "staged",
				func(ctx context.Context, inv Investigator, cfg config.Config) (domain.Result, error) {
					unified, err := deps.Git.StagedDiff(ctx)
					if err != nil {
						return domain.Result{}, err
					}
					if unified == "" {
						fmt.Fprintln(cmd.ErrOrStderr(), "nothing staged")
					}
					return inv.ReviewDiff(ctx, unified)
				})
		},
	}
}

func prCommand(deps Dependencies, flags *runFlags) *cobra.Command {
	var post bool
	cmd := &cobra.Command{
		Use:   "pr NUMBER",
		Short: "Investigate a GitHub pull request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var number int
			if _, err := fmt.Sscanf(args[0], "%d", &number); err != nil || number <= 0 {
				return fmt.Errorf("pull request number must be a positive integer, got %q", args[0])
			}

			return runInvestigation(cmd, deps, flags, "pr",
				func(ctx context.Context, inv Investigator, cfg config.Config) (domain.Result, error) {
					pr, err := deps.NewPRReviewer(cfg)
					if err != nil {
						return domain.Result{}, err
					}

					unified, err := pr.PRDiff(ctx, number)
					if err != nil {
						return domain.Result{}, err
					}

					result, err := inv.ReviewDiff(ctx, unified)
					if err != nil {
						return domain.Result{}, err
					}

					if post {
						posted, err := pr.PostReview(ctx, number, result)
						if err != nil {
							return domain.Result{}, fmt.Errorf("post review: %w", err)
						}
						fmt.Fprintf(cmd.ErrOrStderr(), "posted review %d: %d inline comment(s), %d outside the diff\n",
							posted.ReviewID, posted.Posted, posted.Skipped)
					}
					return result, nil
				})
		},
	}
	cmd.Flags().BoolVar(&post, "post", false, "Post the findings as a PR review with inline comments")
	return cmd
}

func initCommand(deps Dependencies) *cobra.Command {
	var global bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter .benno.yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if global {
				configDir, err := config.GlobalConfigDir()
				if err != nil {
					return err
				}
				if err := os.MkdirAll(configDir, 0o755); err != nil {
					return fmt.Errorf("create config directory: %w", err)
				}
				dir = configDir
			}

			target := filepath.Join(dir, ".benno.yaml")
			if _, err := os.Stat(target); err == nil {
				return fmt.Errorf("%s already exists", target)
			}
			if err := os.WriteFile(target, []byte(configTemplate), 0o644); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", target)
			return nil
		},
	}
	cmd.Flags().BoolVar(&global, "global", false, "Write to the user config directory instead of the working directory")
	return cmd
}

func historyCommand(deps Dependencies, flags *runFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past investigations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadRunConfig(deps, flags)
			if err != nil {
				return err
			}
			if deps.OpenHistory == nil || !cfg.Store.Enabled {
				return fmt.Errorf("history store is disabled")
			}
			history, err := deps.OpenHistory(cfg)
			if err != nil {
				return err
			}
			defer history.Close()

			runs, err := history.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			RenderHistory(cmd.OutOrStdout(), runs)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list (0 for all)")
	return cmd
}

func versionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), "benno "+version)
			return nil
		},
	}
}

const configTemplate = `# benno configuration
provider:
  name: openai            # openai, anthropic, gemini, groq, ollama
  model: ""               # empty uses the provider default
  apiKey: ${OPENAI_API_KEY}
  temperature: 0.3

review:
  level: standard          # minimal, standard, detailed
  maxComments: 10
  guidelines: []
  ignore:
    files:
      - "*.md"
      - "*.lock"

http:
  timeout: 60s

logging:
  enabled: true
  level: info              # debug, info, error
  format: human            # human, json
  redactAPIKeys: true

store:
  enabled: true
  path: ""                 # empty uses ~/.config/benno/benno.db

github:
  token: ${GITHUB_TOKEN}
  repository: ""           # owner/repo, falls back to GITHUB_REPOSITORY
`
