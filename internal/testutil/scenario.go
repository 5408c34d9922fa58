// Package testutil provides shared test helpers for lambda Go tests.
package testutil

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// ScenariosDir is the path of the shared scenarios relative to the module
// root.
const ScenariosDir = "testdata/scenarios"

// Scenario is one program and the outcome it must produce.
type Scenario struct {
	Name    string          `yaml:"name"`
	Cmd     string          `yaml:"cmd"`
	Source  string          `yaml:"source"`
	Options ScenarioOptions `yaml:"options"`
	Expect  ExpectedResult  `yaml:"expect"`
}

// ScenarioOptions adjusts the session a scenario runs in.
type ScenarioOptions struct {
	MaxDepth     int  `yaml:"max_depth"`
	ShortCircuit bool `yaml:"short_circuit"`
	Strict       bool `yaml:"strict"`
}

// ExpectedResult describes the expected outcome of running a scenario.
// Run scenarios set Value, JSON or Error; check scenarios list the
// diagnostic codes in order.
type ExpectedResult struct {
	Value           string   `yaml:"value"`
	JSON            string   `yaml:"json"`
	Error           string   `yaml:"error"`
	MessageContains string   `yaml:"message_contains"`
	Line            int      `yaml:"line"`
	Diagnostics     []string `yaml:"diagnostics"`
}

type scenarioFile struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// LoadScenarios reads every scenario in a YAML file. Unknown keys are
// rejected so a typo cannot silently drop an expectation.
func LoadScenarios(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var f scenarioFile
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for i := range f.Scenarios {
		s := &f.Scenarios[i]
		if s.Cmd == "" {
			s.Cmd = "run"
		}
		if err := s.validate(); err != nil {
			return nil, fmt.Errorf("%s: scenario %d: %w", path, i+1, err)
		}
	}
	return f.Scenarios, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return errors.New("missing name")
	}
	switch s.Cmd {
	case "run":
		e := s.Expect
		if e.Value == "" && e.JSON == "" && e.Error == "" {
			return fmt.Errorf("%s: run scenario needs value, json or error", s.Name)
		}
		if e.Error != "" && (e.Value != "" || e.JSON != "") {
			return fmt.Errorf("%s: error excludes value and json", s.Name)
		}
	case "check":
		if s.Expect.Value != "" || s.Expect.JSON != "" {
			return fmt.Errorf("%s: check scenario cannot expect a value", s.Name)
		}
	default:
		return fmt.Errorf("%s: unknown cmd %q", s.Name, s.Cmd)
	}
	return nil
}

// ListScenarioFiles returns the YAML files under root in name order.
func ListScenarioFiles(root string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(root, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
