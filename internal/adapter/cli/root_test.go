package cli_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benno-ai/benno/internal/adapter/cli"
	"github.com/benno-ai/benno/internal/adapter/github"
	"github.com/benno-ai/benno/internal/config"
	"github.com/benno-ai/benno/internal/domain"
	"github.com/benno-ai/benno/internal/store"
)

type fakeInvestigator struct {
	result     domain.Result
	filesSeen  []domain.FileChange
	diffSeen   string
	closed     bool
	lastModel  string
	lastConfig config.Config
}

func (f *fakeInvestigator) ReviewFiles(_ context.Context, files []domain.FileChange) (domain.Result, error) {
	f.filesSeen = files
	return f.result, nil
}

func (f *fakeInvestigator) ReviewDiff(_ context.Context, unified string) (domain.Result, error) {
	f.diffSeen = unified
	return f.result, nil
}

func (f *fakeInvestigator) ReviewFile(_ context.Context, path string) (domain.Result, error) {
	return f.result, nil
}

func (f *fakeInvestigator) Close() error {
	f.closed = true
	return nil
}

type fakeGit struct {
	diff       string
	branchDiff string
	baseSeen   string
	targetSeen string
}

func (g *fakeGit) StagedDiff(context.Context) (string, error) { return g.diff, nil }

func (g *fakeGit) BranchDiff(_ context.Context, baseRef, targetRef string) (string, error) {
	g.baseSeen = baseRef
	g.targetSeen = targetRef
	return g.branchDiff, nil
}

type fakePR struct {
	diff     string
	posted   bool
	received domain.Result
}

func (p *fakePR) PRDiff(context.Context, int) (string, error) { return p.diff, nil }

func (p *fakePR) PostReview(_ context.Context, _ int, result domain.Result) (github.PostResult, error) {
	p.posted = true
	p.received = result
	return github.PostResult{ReviewID: 5, Posted: 1}, nil
}

type memHistory struct {
	runs     []store.RunRecord
	findings [][]store.FindingRecord
}

func (m *memHistory) SaveRun(_ context.Context, run store.RunRecord, findings []store.FindingRecord) (int64, error) {
	m.runs = append(m.runs, run)
	m.findings = append(m.findings, findings)
	return int64(len(m.runs)), nil
}

func (m *memHistory) ListRuns(context.Context, int) ([]store.RunRecord, error) {
	return m.runs, nil
}

func (m *memHistory) RunFindings(context.Context, int64) ([]store.FindingRecord, error) {
	return nil, nil
}

func (m *memHistory) Close() error { return nil }

func testDeps(inv *fakeInvestigator, history *memHistory) (cli.Dependencies, *bytes.Buffer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	deps := cli.Dependencies{
		LoadConfig: func(path string) (config.Config, error) {
			var cfg config.Config
			cfg.Provider.Name = "openai"
			cfg.Review.MaxComments = 10
			cfg.Store.Enabled = history != nil
			return cfg, nil
		},
		NewInvestigator: func(cfg config.Config, model string) (cli.Investigator, error) {
			inv.lastConfig = cfg
			inv.lastModel = model
			return inv, nil
		},
		Git: &fakeGit{
			diff:       "diff --git a/s.go b/s.go\n+++ b/s.go\n@@ -1 +1,2 @@\n+staged\n",
			branchDiff: "diff --git a/b.go b/b.go\n+++ b/b.go\n@@ -1 +1,2 @@\n+branched\n",
		},
		Version: "v1.2.3",
		Out:     out,
		Err:     errOut,
	}
	if history != nil {
		deps.OpenHistory = func(config.Config) (store.Store, error) { return history, nil }
	}
	return deps, out, errOut
}

func run(t *testing.T, deps cli.Dependencies, args ...string) error {
	t.Helper()
	root := cli.NewRootCommand(deps)
	root.SetArgs(args)
	return root.Execute()
}

func cleanResult() domain.Result {
	return domain.Result{FilesReviewed: 1, ModelUsed: "gpt-4o", TokensUsed: 10, Summary: "clean"}
}

func criticalResult() domain.Result {
	return domain.Result{
		FilesReviewed: 1,
		ModelUsed:     "gpt-4o",
		TokensUsed:    10,
		Comments: []domain.Comment{{
			FilePath: "a.go", LineStart: 2,
			Severity: domain.SeverityCritical, Category: "security", Message: "hardcoded secret",
		}},
	}
}

func TestInvestigate_ReadsFilesAndReports(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.py"), []byte("import os\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blob.bin"), []byte{0x00, 0x01}, 0o644))

	inv := &fakeInvestigator{result: cleanResult()}
	deps, out, errOut := testDeps(inv, nil)

	err := run(t, deps, "investigate", dir)
	require.NoError(t, err)

	require.Len(t, inv.filesSeen, 1)
	assert.Equal(t, "python", inv.filesSeen[0].Language)
	assert.Contains(t, inv.filesSeen[0].Content, "import os")
	assert.Contains(t, errOut.String(), "skipping binary file")
	assert.Contains(t, out.String(), "Case status: CLOSED")
	assert.True(t, inv.closed)
}

func TestDiff_ReadsStdin(t *testing.T) {
	inv := &fakeInvestigator{result: cleanResult()}
	deps, _, _ := testDeps(inv, nil)

	root := cli.NewRootCommand(deps)
	root.SetIn(strings.NewReader("diff --git a/x.go b/x.go\n"))
	root.SetArgs([]string{"diff"})
	require.NoError(t, root.Execute())

	assert.Contains(t, inv.diffSeen, "diff --git a/x.go")
}

func TestDiff_RefModeUsesGitEngine(t *testing.T) {
	inv := &fakeInvestigator{result: cleanResult()}
	deps, _, _ := testDeps(inv, nil)

	require.NoError(t, run(t, deps, "diff", "--base", "main"))

	git := deps.Git.(*fakeGit)
	assert.Equal(t, "main", git.baseSeen)
	assert.Equal(t, "HEAD", git.targetSeen)
	assert.Contains(t, inv.diffSeen, "+branched")
}

func TestDiff_BaseRejectsFileArgument(t *testing.T) {
	inv := &fakeInvestigator{result: cleanResult()}
	deps, _, _ := testDeps(inv, nil)

	err := run(t, deps, "diff", "--base", "main", "some.patch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--base")
}

func TestStaged_UsesGitEngine(t *testing.T) {
	inv := &fakeInvestigator{result: cleanResult()}
	deps, _, _ := testDeps(inv, nil)

	require.NoError(t, run(t, deps, "staged"))
	assert.Contains(t, inv.diffSeen, "+staged")
}

func TestPR_FetchesAndOptionallyPosts(t *testing.T) {
	inv := &fakeInvestigator{result: criticalResult()}
	pr := &fakePR{diff: "diff --git a/a.go b/a.go\n"}
	deps, _, errOut := testDeps(inv, nil)
	deps.NewPRReviewer = func(config.Config) (cli.PRReviewer, error) { return pr, nil }

	err := run(t, deps, "pr", "12", "--post")

	assert.ErrorIs(t, err, cli.ErrCriticalFindings)
	assert.True(t, pr.posted)
	assert.Equal(t, 1, pr.received.CriticalCount())
	assert.Contains(t, errOut.String(), "posted review 5")
}

func TestPR_RejectsBadNumber(t *testing.T) {
	inv := &fakeInvestigator{result: cleanResult()}
	deps, _, _ := testDeps(inv, nil)
	deps.NewPRReviewer = func(config.Config) (cli.PRReviewer, error) { return &fakePR{}, nil }

	err := run(t, deps, "pr", "zero")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "positive integer")
}

func TestCriticalFindingsExitSignal(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a\n"), 0o644))

	inv := &fakeInvestigator{result: criticalResult()}
	deps, out, _ := testDeps(inv, nil)

	err := run(t, deps, "investigate", dir)

	assert.ErrorIs(t, err, cli.ErrCriticalFindings)
	assert.Contains(t, out.String(), "Case status: OPEN")
	assert.Contains(t, out.String(), "Critical (1)")
}

func TestJSONOutput(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a\n"), 0o644))

	inv := &fakeInvestigator{result: cleanResult()}
	deps, out, _ := testDeps(inv, nil)

	require.NoError(t, run(t, deps, "investigate", "--json", dir))

	assert.Contains(t, out.String(), `"filesReviewed": 1`)
	assert.Contains(t, out.String(), `"modelUsed": "gpt-4o"`)
	assert.NotContains(t, out.String(), "Case status")
}

func TestProviderOverrideClearsConfiguredModel(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a\n"), 0o644))

	inv := &fakeInvestigator{result: cleanResult()}
	deps, _, _ := testDeps(inv, nil)
	deps.LoadConfig = func(string) (config.Config, error) {
		var cfg config.Config
		cfg.Provider.Name = "openai"
		cfg.Provider.Model = "gpt-4o-mini"
		return cfg, nil
	}

	require.NoError(t, run(t, deps, "investigate", "--provider", "ollama", "--model", "llama3", dir))

	assert.Equal(t, "ollama", inv.lastConfig.Provider.Name)
	assert.Empty(t, inv.lastConfig.Provider.Model)
	assert.Equal(t, "llama3", inv.lastModel)
}

func TestHistorySavedAfterRun(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a\n"), 0o644))

	history := &memHistory{}
	inv := &fakeInvestigator{result: cleanResult()}
	deps, _, _ := testDeps(inv, history)

	require.NoError(t, run(t, deps, "investigate", dir))

	require.Len(t, history.runs, 1)
	assert.Equal(t, "files", history.runs[0].Scope)
	assert.Equal(t, "openai", history.runs[0].Provider)
}

func TestHistoryCommandLists(t *testing.T) {
	history := &memHistory{runs: []store.RunRecord{{
		ID: 1, Scope: "diff", Provider: "ollama", Model: "codellama", FilesReviewed: 2, FindingCount: 3,
	}}}
	inv := &fakeInvestigator{result: cleanResult()}
	deps, out, _ := testDeps(inv, history)

	require.NoError(t, run(t, deps, "history"))

	assert.Contains(t, out.String(), "codellama")
	assert.Contains(t, out.String(), "diff")
}

func TestInitWritesTemplate(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(cwd)

	inv := &fakeInvestigator{result: cleanResult()}
	deps, out, _ := testDeps(inv, nil)

	require.NoError(t, run(t, deps, "init"))
	assert.Contains(t, out.String(), ".benno.yaml")

	raw, err := os.ReadFile(filepath.Join(dir, ".benno.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "provider:")
	assert.Contains(t, string(raw), "maxComments: 10")

	// Second init must not clobber the existing file.
	err = run(t, deps, "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestVersionCommand(t *testing.T) {
	inv := &fakeInvestigator{result: cleanResult()}
	deps, out, _ := testDeps(inv, nil)

	require.NoError(t, run(t, deps, "version"))
	assert.Equal(t, "benno v1.2.3\n", out.String())
}
