package exports

import (
	"strconv"
	"time"

	"github.com/campushive/backend/internal/quizzes"
	"github.com/campushive/backend/internal/registrations"
)

// RegistrationRows converts registrations into CSV rows including the header.
func RegistrationRows(regs []registrations.RegistrationWithUser) [][]string {
	rows := make([][]string, 0, len(regs)+1)
	rows = append(rows, []string{
		"registration_id", "user_email", "user_name", "status",
		"checked_in_at", "review_comment", "registered_at",
	})
	for _, r := range regs {
		rows = append(rows, []string{
			r.ID.String(),
			r.UserEmail,
			r.UserFullName,
			string(r.Status),
			formatTime(r.CheckedInAt),
			strOrEmpty(r.ReviewComment),
			r.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return rows
}

// AttemptRows converts quiz attempts into CSV rows including the header.
func AttemptRows(attempts []quizzes.AttemptWithUser) [][]string {
	rows := make([][]string, 0, len(attempts)+1)
	rows = append(rows, []string{
		"attempt_id", "user_email", "user_name", "total_score",
		"flagged", "flag_reason", "submitted_at",
	})
	for _, a := range attempts {
		rows = append(rows, []string{
			a.ID.String(),
			a.UserEmail,
			a.UserFullName,
			strconv.Itoa(a.TotalScore),
			strconv.FormatBool(a.IsFlagged),
			strOrEmpty(a.FlagReason),
			a.SubmittedAt.UTC().Format(time.RFC3339),
		})
	}
	return rows
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
