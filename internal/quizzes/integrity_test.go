package quizzes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushive/backend/internal/models"
)

// answersWithTimings builds answers whose only relevant property is timing.
func answersWithTimings(timings ...int64) []models.AttemptAnswer {
	out := make([]models.AttemptAnswer, len(timings))
	for i, ms := range timings {
		out[i].TimeSpentMs = ms
	}
	return out
}

// calmTimings trip none of the timing rules: mean well above 2s, nothing
// under 1s, under 70% in the 5-20s band, nothing over 30s.
func calmTimings() []models.AttemptAnswer {
	return answersWithTimings(3000, 26000, 4000, 27000)
}

func ruleByNumber(t *testing.T, report IntegrityReport, n int) RuleResult {
	t.Helper()
	for _, r := range report.Rules {
		if r.Rule == n {
			return r
		}
	}
	t.Fatalf("rule %d missing from report", n)
	return RuleResult{}
}

func TestIntegrityCleanAttempt(t *testing.T) {
	report := EvaluateIntegrity(calmTimings(), models.IntegritySignals{})
	assert.False(t, report.Flagged)
	assert.Nil(t, report.Reason)
	for _, r := range report.Rules {
		assert.False(t, r.Fired, "rule %d fired on a clean attempt", r.Rule)
	}
}

func TestIntegrityTabSwitches(t *testing.T) {
	report := EvaluateIntegrity(calmTimings(), models.IntegritySignals{TabSwitches: 3})
	assert.False(t, report.Flagged, "three switches is the threshold, not over it")

	report = EvaluateIntegrity(calmTimings(), models.IntegritySignals{TabSwitches: 4})
	assert.True(t, report.Flagged)
	require.NotNil(t, report.Reason)
	assert.Contains(t, *report.Reason, "tab switching")
}

func TestIntegrityFastMean(t *testing.T) {
	report := EvaluateIntegrity(answersWithTimings(1500, 1500, 1500), models.IntegritySignals{})
	assert.True(t, report.Flagged)
	assert.True(t, ruleByNumber(t, report, 2).Flagged)
}

func TestIntegrityMajorityUnderOneSecond(t *testing.T) {
	// 3 of 4 under 1s; mean 2625 keeps rule 2 quiet.
	report := EvaluateIntegrity(answersWithTimings(500, 500, 500, 9000), models.IntegritySignals{})
	assert.True(t, report.Flagged)
	assert.True(t, ruleByNumber(t, report, 3).Flagged)
	assert.False(t, ruleByNumber(t, report, 2).Fired)
}

func TestIntegrityAFK(t *testing.T) {
	report := EvaluateIntegrity(calmTimings(), models.IntegritySignals{AFKIncidents: 3})
	assert.True(t, report.Flagged)
	assert.True(t, ruleByNumber(t, report, 4).Flagged)
}

func TestIntegrityExternalDevicePattern(t *testing.T) {
	// Ten answers at a uniform 8000ms: 100% in [5s,20s], zero variance, mean
	// above 5s. The textbook second-device signature.
	timings := make([]int64, 10)
	for i := range timings {
		timings[i] = 8000
	}
	report := EvaluateIntegrity(answersWithTimings(timings...), models.IntegritySignals{})
	assert.True(t, report.Flagged)
	require.NotNil(t, report.Reason)
	assert.Contains(t, *report.Reason, "external device")
}

func TestIntegrityExternalDeviceHighVariance(t *testing.T) {
	// Widely spread timings: coefficient of variation far above 0.3, so the
	// pattern rule must stay quiet even though other rules may fire.
	report := EvaluateIntegrity(
		answersWithTimings(500, 25000, 500, 25000, 500, 25000, 500, 25000, 500, 25000),
		models.IntegritySignals{})
	assert.False(t, ruleByNumber(t, report, 5).Fired)
}

func TestIntegritySlowAnswers(t *testing.T) {
	report := EvaluateIntegrity(answersWithTimings(31000, 32000, 33000, 4000), models.IntegritySignals{})
	assert.True(t, ruleByNumber(t, report, 6).Flagged)
	assert.True(t, report.Flagged)
}

func TestIntegrityInactivityAsymmetricThresholds(t *testing.T) {
	pause := models.InactivityPeriod{DurationMs: 16000}

	// Two long pauses: noted in the reason but not flagged.
	report := EvaluateIntegrity(calmTimings(), models.IntegritySignals{
		InactivityPeriods: []models.InactivityPeriod{pause, pause},
	})
	assert.False(t, report.Flagged)
	require.NotNil(t, report.Reason)
	assert.Contains(t, *report.Reason, "inactivity")

	// Four long pauses crosses the flagging threshold.
	report = EvaluateIntegrity(calmTimings(), models.IntegritySignals{
		InactivityPeriods: []models.InactivityPeriod{pause, pause, pause, pause},
	})
	assert.True(t, report.Flagged)
}

func TestIntegrityScreenshotsAsymmetricThresholds(t *testing.T) {
	report := EvaluateIntegrity(calmTimings(), models.IntegritySignals{ScreenshotAttempts: 1})
	assert.False(t, report.Flagged)
	require.NotNil(t, report.Reason)
	assert.Contains(t, *report.Reason, "screenshot")

	report = EvaluateIntegrity(calmTimings(), models.IntegritySignals{ScreenshotAttempts: 3})
	assert.True(t, report.Flagged)
}

func TestIntegrityDetectedExtensions(t *testing.T) {
	report := EvaluateIntegrity(calmTimings(), models.IntegritySignals{
		DetectedExtensions: []string{"answer-helper", "autoclicker"},
	})
	assert.True(t, report.Flagged)
	require.NotNil(t, report.Reason)
	assert.Contains(t, *report.Reason, "answer-helper")
	assert.Contains(t, *report.Reason, "autoclicker")
}

func TestIntegrityReasonsAccumulate(t *testing.T) {
	// Fast mean + tab switches + extensions: all three reasons joined.
	report := EvaluateIntegrity(answersWithTimings(1000, 1000), models.IntegritySignals{
		TabSwitches:        10,
		DetectedExtensions: []string{"x"},
	})
	assert.True(t, report.Flagged)
	require.NotNil(t, report.Reason)
	assert.Contains(t, *report.Reason, "tab switching")
	assert.Contains(t, *report.Reason, "fast")
	assert.Contains(t, *report.Reason, "extensions")
	assert.Contains(t, *report.Reason, "; ")
}
