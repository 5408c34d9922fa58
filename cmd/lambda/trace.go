package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/thomasrohde/lambda/pkg/diagnostics"
	"github.com/thomasrohde/lambda/pkg/evaluator"
)

func (a *app) traceCmd() *cobra.Command {
	var text bool
	cmd := &cobra.Command{
		Use:   "trace FILE.jsonl",
		Short: "Summarise a trace written by run --trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return a.fail(diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s", args[0]), nil, ""))
			}
			defer f.Close()

			summary, err := computeTraceSummary(f)
			if err != nil {
				return a.fail(diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s: %s", args[0], err), nil, ""))
			}
			if text {
				printTraceSummaryText(a.stdout, summary)
				return nil
			}
			b, err := json.Marshal(summary)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, string(b))
			return nil
		},
	}
	cmd.Flags().BoolVar(&text, "text", false, "print a human-readable summary instead of JSON")
	return cmd
}

// TraceSummary aggregates the events of one trace file.
type TraceSummary struct {
	RunID           string         `json:"runId"`
	TotalEvents     int            `json:"totalEvents"`
	Calls           int            `json:"calls"`
	CallsByFunction map[string]int `json:"callsByFunction"`
	MaxDepth        int            `json:"maxDepth"`
	Returns         int            `json:"returns"`
	Errors          int            `json:"errors"`
	Skipped         int            `json:"skipped"`
	StartTime       string         `json:"startTime,omitempty"`
	EndTime         string         `json:"endTime,omitempty"`
	DurationMs      float64        `json:"durationMs"`
}

// traceLine is the subset of evaluator.TraceEvent the summary reads.
type traceLine struct {
	Event evaluator.TraceEventType `json:"event"`
	RunID string                   `json:"runId"`
	TS    string                   `json:"ts"`
	Data  map[string]any           `json:"data,omitempty"`
}

func computeTraceSummary(r io.Reader) (*TraceSummary, error) {
	summary := &TraceSummary{
		CallsByFunction: make(map[string]int),
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var event traceLine
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			summary.Skipped++
			continue
		}

		summary.TotalEvents++
		if summary.RunID == "" {
			summary.RunID = event.RunID
		}

		switch event.Event {
		case evaluator.TraceRunStart:
			if summary.StartTime == "" {
				summary.StartTime = event.TS
			}
		case evaluator.TraceRunEnd:
			summary.EndTime = event.TS
			if _, failed := event.Data["error"]; failed {
				summary.Errors++
			}
		case evaluator.TraceCallStart:
			summary.Calls++
			if name, ok := event.Data["function"].(string); ok {
				summary.CallsByFunction[name]++
			}
			// JSON numbers decode as float64.
			if depth, ok := event.Data["depth"].(float64); ok && int(depth) > summary.MaxDepth {
				summary.MaxDepth = int(depth)
			}
		case evaluator.TraceReturn:
			summary.Returns++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if summary.StartTime != "" && summary.EndTime != "" {
		start, err1 := parseTime(summary.StartTime)
		end, err2 := parseTime(summary.EndTime)
		if err1 == nil && err2 == nil {
			summary.DurationMs = float64(end.Sub(start).Microseconds()) / 1000
		}
	}
	return summary, nil
}

func printTraceSummaryText(w io.Writer, s *TraceSummary) {
	fmt.Fprintf(w, "Run: %s\n", s.RunID)
	fmt.Fprintf(w, "Events: %d\n", s.TotalEvents)
	fmt.Fprintf(w, "Calls: %d (max depth %d)\n", s.Calls, s.MaxDepth)
	names := make([]string, 0, len(s.CallsByFunction))
	for name := range s.CallsByFunction {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %d\n", name, s.CallsByFunction[name])
	}
	fmt.Fprintf(w, "Returns: %d\n", s.Returns)
	fmt.Fprintf(w, "Errors: %d\n", s.Errors)
	if s.Skipped > 0 {
		fmt.Fprintf(w, "Skipped lines: %d\n", s.Skipped)
	}
	if s.DurationMs > 0 {
		fmt.Fprintf(w, "Duration: %.3fms\n", s.DurationMs)
	}
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("cannot parse time: %s", s)
}
