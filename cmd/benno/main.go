// Command benno investigates code changes with an LLM provider.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/benno-ai/benno/internal/adapter/cli"
	"github.com/benno-ai/benno/internal/adapter/git"
	"github.com/benno-ai/benno/internal/adapter/github"
	llm "github.com/benno-ai/benno/internal/adapter/llm"
	llmhttp "github.com/benno-ai/benno/internal/adapter/llm/http"
	"github.com/benno-ai/benno/internal/adapter/llm/registry"
	"github.com/benno-ai/benno/internal/config"
	"github.com/benno-ai/benno/internal/domain"
	"github.com/benno-ai/benno/internal/store"
	"github.com/benno-ai/benno/internal/store/sqlite"
	"github.com/benno-ai/benno/internal/usecase/review"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	root := cli.NewRootCommand(cli.Dependencies{
		LoadConfig:      loadConfig,
		NewInvestigator: newInvestigator,
		Git:             git.NewEngine("."),
		NewPRReviewer:   newPRReviewer,
		OpenHistory:     openHistory,
		Version:         version,
	})

	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, cli.ErrCriticalFindings) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func loadConfig(path string) (config.Config, error) {
	return config.Load(config.LoaderOptions{ConfigFile: path})
}

func newInvestigator(cfg config.Config, model string) (cli.Investigator, error) {
	var logger llmhttp.Logger = llmhttp.NopLogger{}
	if cfg.Logging.Enabled {
		logger = llmhttp.NewDefaultLogger(
			llmhttp.ParseLogLevel(cfg.Logging.Level),
			llmhttp.ParseLogFormat(cfg.Logging.Format),
			cfg.Logging.RedactAPIKeys,
		)
	}

	provider, err := registry.Create(cfg.Provider.Name, llm.Options{
		APIKey:  cfg.Provider.APIKey,
		Model:   cfg.Provider.Model,
		BaseURL: cfg.Provider.BaseURL,
		Timeout: llmhttp.ParseTimeout(cfg.HTTP.Timeout, 60*time.Second),
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	if !provider.ValidateConfig() {
		return nil, fmt.Errorf("provider %s is not configured: missing credential or unreachable server", provider.Name())
	}

	return review.New(review.Params{Config: cfg, Provider: provider, Model: model}), nil
}

// prReviewer pairs the repository client with the inline review poster.
type prReviewer struct {
	*github.Client
	inline *github.InlineReviewer
}

func (p prReviewer) PostReview(ctx context.Context, number int, result domain.Result) (github.PostResult, error) {
	return p.inline.PostReview(ctx, number, result)
}

func newPRReviewer(cfg config.Config) (cli.PRReviewer, error) {
	client, err := github.NewClient(github.Options{
		Token:      cfg.GitHub.Token,
		Repository: cfg.GitHub.Repository,
	})
	if err != nil {
		return nil, err
	}
	return prReviewer{Client: client, inline: github.NewInlineReviewer(client)}, nil
}

func openHistory(cfg config.Config) (store.Store, error) {
	path := cfg.Store.Path
	if path == "" {
		dir, err := config.GlobalConfigDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "benno.db")
	}
	return sqlite.New(path)
}
