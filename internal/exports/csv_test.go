package exports

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushive/backend/internal/models"
	"github.com/campushive/backend/internal/registrations"
)

func TestRegistrationRows(t *testing.T) {
	checkedIn := time.Date(2026, 3, 1, 18, 5, 0, 0, time.UTC)
	comment := "id verified"
	regs := []registrations.RegistrationWithUser{
		{
			Registration: models.Registration{
				ID:            uuid.MustParse("11111111-1111-1111-1111-111111111111"),
				Status:        models.RegistrationConfirmed,
				CheckedInAt:   &checkedIn,
				ReviewComment: &comment,
				CreatedAt:     time.Date(2026, 2, 20, 9, 0, 0, 0, time.UTC),
			},
			UserEmail:    "ada@example.edu",
			UserFullName: "Ada Lovelace",
		},
		{
			Registration: models.Registration{
				ID:        uuid.MustParse("22222222-2222-2222-2222-222222222222"),
				Status:    models.RegistrationPending,
				CreatedAt: time.Date(2026, 2, 21, 9, 0, 0, 0, time.UTC),
			},
			UserEmail:    "grace@example.edu",
			UserFullName: "Grace Hopper",
		},
	}

	rows := RegistrationRows(regs)
	require.Len(t, rows, 3)
	assert.Equal(t, "registration_id", rows[0][0])
	assert.Equal(t, []string{
		"11111111-1111-1111-1111-111111111111", "ada@example.edu", "Ada Lovelace",
		"CONFIRMED", "2026-03-01T18:05:00Z", "id verified", "2026-02-20T09:00:00Z",
	}, rows[1])
	// Optional fields render as empty strings, not "nil".
	assert.Equal(t, "", rows[2][4])
	assert.Equal(t, "", rows[2][5])
}
