package progress

import (
	"regexp"
	"strconv"
	"strings"
)

// Perceived-progress layout: the transfer phase owns [0, 85] and the
// post-processing phases jump to fixed checkpoints, leaving 100 for the
// completed transition.
const (
	// TransferCap is the highest value the transfer phase can report.
	TransferCap = 85
	// ExtractCheckpoint is reported when the tool enters audio extraction.
	ExtractCheckpoint = 90
	// TagCheckpoint is reported when the tool starts metadata tagging.
	TagCheckpoint = 95
)

// transferPattern matches the tool's primary transfer phase, e.g.
// "[download]  42.3% of 3.40MiB at 1.22MiB/s ETA 00:02".
var transferPattern = regexp.MustCompile(`(?i)\[download\]\s+(\d+(?:\.\d+)?)%`)

// Estimator converts raw tool output lines into a 0-100 perceived progress
// value. Matching is inherently best-effort string inspection of free-form
// tool output; keep the rules here so they can be unit-tested apart from
// process spawning.
type Estimator struct{}

// NewEstimator constructs an estimator with the default matching rules.
func NewEstimator() *Estimator {
	return &Estimator{}
}

// Evaluate inspects one output line and returns the progress value it
// implies, if any. Rules apply in precedence order: transfer percentage,
// extraction phase marker, tagging phase marker. Callers are responsible
// for discarding values that do not move progress forward.
func (e *Estimator) Evaluate(line string) (int, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return 0, false
	}
	if match := transferPattern.FindStringSubmatch(line); match != nil {
		percent, err := strconv.ParseFloat(match[1], 64)
		if err == nil {
			if percent < 0 {
				percent = 0
			}
			if percent > 100 {
				percent = 100
			}
			return int(percent * TransferCap / 100), true
		}
	}
	lower := strings.ToLower(line)
	if strings.Contains(lower, "[extractaudio]") {
		return ExtractCheckpoint, true
	}
	if strings.Contains(lower, "[metadata]") {
		return TagCheckpoint, true
	}
	return 0, false
}
