package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const validTaskYAML = `id: pipeline
description: Fetch and render
accumulationType: last
steps:
  - id: fetch
    tool: http_get
    params:
      url: https://example.com
  - id: render
    prompt: "Render {previousResult}"
dependencies:
  render: [fetch]
`

const invalidTaskYAML = `id: pipeline
accumulationType: median
steps:
  - id: fetch
    tool: 42
maxConcurrency: 0
`

func TestValidateTaskBytes_Valid(t *testing.T) {
	errs := ValidateTaskBytes([]byte(validTaskYAML))
	require.Empty(t, errs)
}

func TestValidateTaskBytes_Invalid(t *testing.T) {
	errs := ValidateTaskBytes([]byte(invalidTaskYAML))
	require.NotEmpty(t, errs)

	joined := ""
	for _, e := range errs {
		joined += e + "\n"
	}
	require.Contains(t, joined, "/accumulationType")
	require.Contains(t, joined, "/maxConcurrency")
	require.Contains(t, joined, "/steps/0/tool")
}

func TestValidateTaskBytes_UnknownProperty(t *testing.T) {
	errs := ValidateTaskBytes([]byte("id: x\nbogus: true\n"))
	require.NotEmpty(t, errs)
}

func TestValidateTaskBytes_NestedSteps(t *testing.T) {
	doc := `description: outer
subtasks:
  - description: inner
    steps:
      - data: 1
      - value: "two"
parallel: true
`
	require.Empty(t, ValidateTaskBytes([]byte(doc)))
}

func TestValidateTaskBytes_NotYAML(t *testing.T) {
	errs := ValidateTaskBytes([]byte("{{{: not yaml"))
	require.Len(t, errs, 1)
	require.Contains(t, errs[0], "YAML parse error")
}

func TestValidateTaskFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "task.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validTaskYAML), 0o644))

	errs, err := ValidateTaskFile(path)
	require.NoError(t, err)
	require.Empty(t, errs)

	t.Run("missing file", func(t *testing.T) {
		_, err := ValidateTaskFile(filepath.Join(dir, "missing.yaml"))
		require.Error(t, err)
	})
}
