//nolint:testpackage // Tests inject fake external tools through unexported constructors.
package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/covreport/pkg/gate"
)

const demoProfile = `mode: count
example.com/demo/a.go:2.14,4.2 1 3
example.com/demo/a.go:5.14,6.2 1 0
example.com/demo/b.go:1.1,2.2 1 1
`

type fakeTests struct {
	fs afero.Fs
}

func (f fakeTests) RunTests(_ context.Context, _, profile string, _, _ []string) error {
	return afero.WriteFile(f.fs, profile, []byte(demoProfile), 0o644)
}

type fakeHTML struct {
	calls int
}

func (f *fakeHTML) GenerateHTML(context.Context, string, string, string) error {
	f.calls++

	return nil
}

func demoFS(t *testing.T) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/src/go.mod", []byte("module example.com/demo\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/src/a.go", []byte("package demo\nfunc a() {\n\tx()\n}\nfunc b() {\n}\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/src/b.go", []byte("package demo\nvar y = 1\n"), 0o644))

	return fs
}

// emptyConfig keeps tests independent of any .covreport.yaml on the machine.
func emptyConfig(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".covreport.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	return path
}

func execute(cmd *cobra.Command, args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer

	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return stdout.String(), stderr.String(), err
}

func TestReport_TextMet(t *testing.T) {
	t.Parallel()

	fs := demoFS(t)
	cmd := newReportCommand(&toolset{fs: fs, tests: fakeTests{fs: fs}})

	stdout, _, err := execute(cmd, "/src", "--config", emptyConfig(t), "--target", "50", "--no-color")
	require.NoError(t, err)

	assert.Contains(t, stdout, "a.go")
	assert.Contains(t, stdout, "b.go")
	assert.Contains(t, stdout, "5 - 6")
	assert.Contains(t, stdout, "Package total")
	assert.Contains(t, stdout, "2 files, 5 of 7 lines hit")
	assert.Contains(t, stdout, "Coverage target of 50.0% met (actual: 71.4%)")

	exists, err := afero.Exists(fs, "/src/coverage/lcov.info")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestReport_NotMetReturnsGateError(t *testing.T) {
	t.Parallel()

	fs := demoFS(t)
	cmd := newReportCommand(&toolset{fs: fs, tests: fakeTests{fs: fs}})

	stdout, stderr, err := execute(cmd, "/src", "--config", emptyConfig(t), "--format", "json")
	require.ErrorIs(t, err, gate.ErrTargetNotMet)
	assert.NotContains(t, stdout, "Package total")
	assert.NotContains(t, stderr, "{")

	var doc struct {
		Package struct {
			LinesHit     int `json:"lines_hit"`
			LinesTracked int `json:"lines_tracked"`
		} `json:"package"`
		Verdict struct {
			Target  float64 `json:"target"`
			Outcome string  `json:"outcome"`
		} `json:"verdict"`
	}

	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
	assert.Equal(t, 5, doc.Package.LinesHit)
	assert.Equal(t, 7, doc.Package.LinesTracked)
	assert.InDelta(t, 80.0, doc.Verdict.Target, 1e-9)
	assert.Equal(t, "not met", doc.Verdict.Outcome)
}

func TestReport_OpenImpliesHTML(t *testing.T) {
	t.Parallel()

	fs := demoFS(t)
	html := &fakeHTML{}
	cmd := newReportCommand(&toolset{fs: fs, tests: fakeTests{fs: fs}, html: html})

	_, _, err := execute(cmd, "/src", "--config", emptyConfig(t), "--target", "0", "--open", "--format", "yaml")
	require.NoError(t, err)
	assert.Equal(t, 1, html.calls)
}

func TestReport_InvalidFlagValue(t *testing.T) {
	t.Parallel()

	fs := demoFS(t)
	cmd := newReportCommand(&toolset{fs: fs, tests: fakeTests{fs: fs}})

	_, _, err := execute(cmd, "/src", "--config", emptyConfig(t), "--format", "xml")
	require.Error(t, err)
	assert.NotErrorIs(t, err, gate.ErrTargetNotMet)
}

func TestRender_ProfileAndSummary(t *testing.T) {
	t.Parallel()

	fs := demoFS(t)
	require.NoError(t, afero.WriteFile(fs, "/in/coverage.out", []byte(demoProfile), 0o644))

	cfgPath := emptyConfig(t)

	stdout, _, err := execute(newRenderCommand(fs), "/in/coverage.out",
		"--config", cfgPath, "--package-dir", "/src", "--format", "json", "--target", "70")
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, "/in/summary.json", []byte(stdout), 0o644))

	text, _, err := execute(newRenderCommand(fs), "/in/summary.json",
		"--config", cfgPath, "--no-color", "--target", "90")
	require.ErrorIs(t, err, gate.ErrTargetNotMet)
	assert.Contains(t, text, "Coverage target of 90.0% not met (actual: 71.4%)")
}

func TestRender_RequiresInput(t *testing.T) {
	t.Parallel()

	_, _, err := execute(newRenderCommand(afero.NewMemMapFs()))
	require.Error(t, err)
}

func TestRender_MissingInput(t *testing.T) {
	t.Parallel()

	_, _, err := execute(newRenderCommand(afero.NewMemMapFs()), "/nope.info", "--config", emptyConfig(t))
	require.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	stdout, _, err := execute(NewVersionCommand())
	require.NoError(t, err)
	assert.Contains(t, stdout, "covreport")
}
