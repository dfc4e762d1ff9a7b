package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Stage is one unit of delegated work in the pipeline. Run never panics and
// never returns a language-level error: hard failures are recorded in the
// returned state's Status and Error fields.
type Stage interface {
	Name() string
	Run(ctx context.Context, s State) State
}

// hardFail converts a capability error into a terminal state. The error
// field is set once and never cleared.
func hardFail(s State, stageName string, status Status, err error) State {
	out := s.clone()
	out.Status = status
	if out.Error == "" {
		out.Error = err.Error()
	}
	out.Messages = append(out.Messages, fmt.Sprintf("%s failed: %v", stageName, err))
	out.UpdatedAt = time.Now().UTC()
	return out
}

// gateQuality records the stage metric and appends exactly one warning when
// the metric falls below the configured minimum. Status progression is not
// affected: quality misses are soft failures.
func gateQuality(s State, stageName, metricName string, value, minimum int, elapsed time.Duration) State {
	met := value >= minimum
	out := s.withMetric(stageName, StageMetric{
		DurationSeconds: elapsed.Seconds(),
		MetricName:      metricName,
		MetricValue:     value,
		ThresholdMet:    met,
	})
	if !met {
		out.Messages = append(out.Messages, fmt.Sprintf(
			"Warning: %s produced %d %s, below the configured minimum of %d",
			stageName, value, metricName, minimum))
	}
	return out
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}

// splitFindings turns an LLM list answer into clean finding lines, dropping
// blanks and list markers.
func splitFindings(text string) []string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• \t")
		if rest := strings.TrimLeft(line, "0123456789"); rest != line &&
			(strings.HasPrefix(rest, ". ") || strings.HasPrefix(rest, ") ")) {
			line = rest[2:]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}
