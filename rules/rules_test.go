package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treegrep/treegrep/syntax"
)

func writeRuleFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAndCompile(t *testing.T) {
	path := writeRuleFile(t, `
rules:
  - name: append-extra
    language: go
    pattern: "$F($...ARGS)"
    rewrite: "$F($...ARGS, extra)"
  - name: swap-args
    language: go
    pattern: "$F(1, 2)"
    rewrite: "$F(2, 1)"
`)

	compiled, err := LoadAndCompile(path)
	require.NoError(t, err)
	require.Len(t, compiled, 2)

	assert.Equal(t, "append-extra", compiled[0].Name)
	assert.Equal(t, syntax.LangGo, compiled[0].Language)
	assert.Equal(t, "append-extra", compiled[0].Rewrite.Pattern().ID)
	assert.Equal(t, "swap-args", compiled[1].Name)
}

func TestCompileRejectsMissingName(t *testing.T) {
	_, err := Compile([]Rule{{Language: "go", Pattern: "foo(1)", Rewrite: "bar(1)"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no name")
}

func TestCompileRejectsUnknownLanguage(t *testing.T) {
	_, err := Compile([]Rule{{Name: "r", Language: "cobol", Pattern: "foo(1)", Rewrite: "bar(1)"}})
	assert.Error(t, err)
}

func TestCompileRejectsBadPattern(t *testing.T) {
	_, err := Compile([]Rule{{Name: "r", Language: "go", Pattern: "$bad", Rewrite: "x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `rule "r"`)
}

func TestCompileRejectsTemplateWithUndefinedVariable(t *testing.T) {
	_, err := Compile([]Rule{{Name: "r", Language: "go", Pattern: "foo(1)", Rewrite: "bar($X)"}})
	assert.Error(t, err)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeRuleFile(t, "rules:\n  - name: [broken\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
