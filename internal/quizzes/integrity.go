package quizzes

import (
	"fmt"
	"math"
	"strings"

	"github.com/campushive/backend/internal/models"
)

// RuleResult is the structured outcome of one integrity rule. Automated
// consumers key off these, not off the joined reason string.
type RuleResult struct {
	Rule    int    `json:"rule"`
	Fired   bool   `json:"fired"`   // rule reported something
	Flagged bool   `json:"flagged"` // rule wants the attempt flagged
	Reason  string `json:"reason,omitempty"`
}

// IntegrityReport aggregates all rules over one attempt. Flagged is true if
// any rule flags; Reason is the semicolon-joined human-readable summary, nil
// when no rule fired.
type IntegrityReport struct {
	Flagged bool         `json:"flagged"`
	Reason  *string      `json:"reason,omitempty"`
	Rules   []RuleResult `json:"rules"`
}

// timingStats holds the per-answer timing aggregates the rules share.
type timingStats struct {
	n      int
	mean   float64
	stddev float64 // population standard deviation
	cv     float64 // stddev / mean; 0 when mean is 0
}

func computeTiming(answers []models.AttemptAnswer) timingStats {
	s := timingStats{n: len(answers)}
	if s.n == 0 {
		return s
	}
	var sum float64
	for i := range answers {
		sum += float64(answers[i].TimeSpentMs)
	}
	s.mean = sum / float64(s.n)
	var sq float64
	for i := range answers {
		d := float64(answers[i].TimeSpentMs) - s.mean
		sq += d * d
	}
	s.stddev = math.Sqrt(sq / float64(s.n))
	if s.mean > 0 {
		s.cv = s.stddev / s.mean
	}
	return s
}

// EvaluateIntegrity runs all heuristic rules over a submission. Rules are
// independent: each may append a reason and may independently flag; reasons
// accumulate rather than short-circuiting. These are heuristic signals, not
// proof of cheating; staff review flagged attempts before applying penalties.
func EvaluateIntegrity(answers []models.AttemptAnswer, signals models.IntegritySignals) IntegrityReport {
	stats := computeTiming(answers)
	var rules []RuleResult

	report := func(rule int, fired, flagged bool, reason string) {
		r := RuleResult{Rule: rule, Fired: fired, Flagged: flagged}
		if fired {
			r.Reason = reason
		}
		rules = append(rules, r)
	}

	// Rule 1: excessive tab switching.
	report(1, signals.TabSwitches > 3, signals.TabSwitches > 3,
		fmt.Sprintf("excessive tab switching (%d switches)", signals.TabSwitches))

	// Rule 2: implausibly fast overall pace.
	fired := stats.n > 0 && stats.mean < 2000
	report(2, fired, fired,
		fmt.Sprintf("suspiciously fast answers (mean %.0fms)", stats.mean))

	// Rule 3: majority of answers under one second.
	fast := 0
	for i := range answers {
		if answers[i].TimeSpentMs < 1000 {
			fast++
		}
	}
	fired = stats.n > 0 && float64(fast) > 0.5*float64(stats.n)
	report(3, fired, fired,
		fmt.Sprintf("%d of %d answers under 1s", fast, stats.n))

	// Rule 4: repeated AFK incidents.
	report(4, signals.AFKIncidents > 2, signals.AFKIncidents > 2,
		fmt.Sprintf("multiple AFK incidents (%d)", signals.AFKIncidents))

	// Rule 5: external-device pattern. A human consulting a second device
	// tends to produce moderate, unnaturally consistent per-question delays:
	// most answers in a narrow 5-20s band with low variance.
	inBand := 0
	for i := range answers {
		if answers[i].TimeSpentMs >= 5000 && answers[i].TimeSpentMs <= 20000 {
			inBand++
		}
	}
	fired = stats.n > 0 &&
		float64(inBand) > 0.7*float64(stats.n) &&
		stats.cv < 0.3 &&
		stats.mean > 5000
	report(5, fired, fired,
		"answer timing consistent with external device use (uniform moderate delays)")

	// Rule 6: several very slow answers.
	slow := 0
	for i := range answers {
		if answers[i].TimeSpentMs > 30000 {
			slow++
		}
	}
	report(6, slow > 2, slow > 2,
		fmt.Sprintf("%d answers over 30s", slow))

	// Rule 7: long inactivity periods. Asymmetric thresholds: more than one
	// long period is worth noting, only more than three flags the attempt.
	longPauses := 0
	for _, p := range signals.InactivityPeriods {
		if p.DurationMs > 15000 {
			longPauses++
		}
	}
	report(7, longPauses > 1, longPauses > 3,
		fmt.Sprintf("%d inactivity periods over 15s", longPauses))

	// Rule 8: screenshot attempts. Any attempt is noted; more than two flags.
	report(8, signals.ScreenshotAttempts > 0, signals.ScreenshotAttempts > 2,
		fmt.Sprintf("%d screenshot attempts", signals.ScreenshotAttempts))

	// Rule 9: detected browser extensions.
	report(9, len(signals.DetectedExtensions) > 0, len(signals.DetectedExtensions) > 0,
		"suspicious browser extensions detected: "+strings.Join(signals.DetectedExtensions, ", "))

	out := IntegrityReport{Rules: rules}
	var reasons []string
	for _, r := range rules {
		if r.Fired {
			reasons = append(reasons, r.Reason)
		}
		if r.Flagged {
			out.Flagged = true
		}
	}
	if len(reasons) > 0 {
		joined := strings.Join(reasons, "; ")
		out.Reason = &joined
	}
	return out
}
