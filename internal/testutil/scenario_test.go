package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "s.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadScenarios(t *testing.T) {
	path := writeYAML(t, `
scenarios:
  - name: add
    source: 1 + 2
    expect:
      value: "3"
  - name: unbound
    cmd: check
    source: x
    options:
      strict: true
    expect:
      diagnostics: [E_UNBOUND]
`)
	scenarios, err := LoadScenarios(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scenarios) != 2 {
		t.Fatalf("expected 2 scenarios, got %d", len(scenarios))
	}
	if scenarios[0].Cmd != "run" {
		t.Errorf("cmd should default to run, got %q", scenarios[0].Cmd)
	}
	if scenarios[1].Expect.Diagnostics[0] != "E_UNBOUND" || !scenarios[1].Options.Strict {
		t.Errorf("check scenario not decoded: %+v", scenarios[1])
	}
}

func TestLoadScenariosRejects(t *testing.T) {
	tests := map[string]string{
		"unknown key":   "scenarios:\n  - name: a\n    source: 1\n    expect: {valu: \"1\"}\n",
		"no name":       "scenarios:\n  - source: 1\n    expect: {value: \"1\"}\n",
		"no outcome":    "scenarios:\n  - name: a\n    source: 1\n",
		"value + error": "scenarios:\n  - name: a\n    source: 1\n    expect: {value: \"1\", error: E_NAME}\n",
		"bad cmd":       "scenarios:\n  - name: a\n    cmd: fmt\n    source: 1\n    expect: {value: \"1\"}\n",
	}
	for name, content := range tests {
		if _, err := LoadScenarios(writeYAML(t, content)); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func TestLoadScenariosEmptyFile(t *testing.T) {
	scenarios, err := LoadScenarios(writeYAML(t, ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scenarios) != 0 {
		t.Errorf("expected no scenarios, got %d", len(scenarios))
	}
}

func TestListScenarioFiles(t *testing.T) {
	files, err := ListScenarioFiles(filepath.Join("..", "..", ScenariosDir))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("expected scenario files")
	}
	for _, f := range files {
		if !strings.HasSuffix(f, ".yaml") {
			t.Errorf("unexpected file %s", f)
		}
		if _, err := LoadScenarios(f); err != nil {
			t.Errorf("%s: %v", f, err)
		}
	}
}
