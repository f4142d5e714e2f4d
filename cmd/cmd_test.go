package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs a fresh command tree with args and returns its output
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append(args, "--log-level", "error"))
	err := root.Execute()
	return out.String(), err
}

func mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, args...)
	require.NoError(t, err)
	return out
}

func TestSummary(t *testing.T) {
	out := mustExecute(t, "summary", "--variant", "multiq", "--obs-dim", "4",
		"--act-dim", "2", "--hidden", "8,8", "--init", "hen")

	assert.Contains(t, out, "type: MultiQActorCritic")
	assert.Contains(t, out, "init: hen")
	for _, name := range []string{"pi", "q", "alpha"} {
		assert.Contains(t, out, "  "+name+" ")
	}
	assert.Contains(t, out, "total:")
}

func TestActWithSavedWeights(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.gob")
	flags := []string{"--variant", "united", "--obs-dim", "3", "--act-dim",
		"2", "--act-limit", "0.5", "--hidden", "16", "--weights", ""}
	mustExecute(t, append([]string{"save", "--out", path}, flags...)...)

	flags[len(flags)-1] = path
	act := append([]string{"act", "--obs", "0.1,-0.2,0.3",
		"--deterministic"}, flags...)
	first := strings.TrimSpace(mustExecute(t, act...))
	second := strings.TrimSpace(mustExecute(t, act...))

	assert.Equal(t, first, second)
	assert.Len(t, strings.Split(first, ","), 2)
}

func TestRepeatedExecutionsAreIndependent(t *testing.T) {
	hidden := func(out string) string {
		for _, line := range strings.Split(out, "\n") {
			if strings.HasPrefix(line, "total:") {
				return line
			}
		}
		return ""
	}

	args := []string{"summary", "--variant", "mlp", "--hidden", "4"}
	first := hidden(mustExecute(t, args...))
	second := hidden(mustExecute(t, args...))
	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestInitFlag(t *testing.T) {
	out := mustExecute(t, "act", "--obs", "1,2,3", "--deterministic",
		"--variant", "mlp", "--hidden", "4", "--init", "zeroes")
	// Zero weights give a zero mean, which squashes to zero
	assert.Equal(t, "0", strings.TrimSpace(out))

	out = mustExecute(t, "summary", "--init",
		`{"Type": "Uniform", "Config": {"Low": -0.1, "High": 0.1}}`)
	assert.Contains(t, out, "total:")

	_, err := execute(t, "summary", "--init", "orthogonal")
	assert.Error(t, err)
}

func TestActInvalidObservation(t *testing.T) {
	_, err := execute(t, "act", "--obs", "1,2", "--obs-dim", "3",
		"--variant", "mlp", "--weights", "")
	assert.Error(t, err)
}

func TestFormatFloats(t *testing.T) {
	assert.Equal(t, "0.5,-1,2.25", formatFloats([]float64{0.5, -1, 2.25}))
	assert.Equal(t, "", formatFloats(nil))
}
