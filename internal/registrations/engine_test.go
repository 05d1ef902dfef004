package registrations

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campushive/backend/internal/models"
)

type fakeRegStore struct {
	events        map[uuid.UUID]*models.Event
	users         map[uuid.UUID]*models.User
	registrations map[uuid.UUID]*models.Registration
}

func newFakeRegStore() *fakeRegStore {
	return &fakeRegStore{
		events:        make(map[uuid.UUID]*models.Event),
		users:         make(map[uuid.UUID]*models.User),
		registrations: make(map[uuid.UUID]*models.Registration),
	}
}

func (s *fakeRegStore) GetEvent(_ context.Context, id uuid.UUID) (*models.Event, error) {
	e, ok := s.events[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return e, nil
}

func (s *fakeRegStore) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return u, nil
}

func (s *fakeRegStore) CountActive(_ context.Context, eventID uuid.UUID) (int, error) {
	count := 0
	for _, r := range s.registrations {
		if r.EventID == eventID && r.Status != models.RegistrationCancelled {
			count++
		}
	}
	return count, nil
}

func (s *fakeRegStore) GetByEventAndUser(_ context.Context, eventID, userID uuid.UUID) (*models.Registration, error) {
	for _, r := range s.registrations {
		if r.EventID == eventID && r.UserID == userID {
			return r, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *fakeRegStore) Insert(ctx context.Context, reg *models.Registration) error {
	event, ok := s.events[reg.EventID]
	if !ok {
		return models.ErrNotFound
	}
	count, _ := s.CountActive(ctx, reg.EventID)
	if count >= event.Capacity {
		return models.ErrCapacityExceeded
	}
	if _, err := s.GetByEventAndUser(ctx, reg.EventID, reg.UserID); err == nil {
		return models.ErrAlreadyRegistered
	}
	reg.ID = uuid.New()
	reg.CreatedAt = time.Now()
	s.registrations[reg.ID] = reg
	return nil
}

func (s *fakeRegStore) GetByID(_ context.Context, id uuid.UUID) (*models.Registration, error) {
	r, ok := s.registrations[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return r, nil
}

func (s *fakeRegStore) GetByToken(_ context.Context, eventID uuid.UUID, token string) (*models.Registration, error) {
	for _, r := range s.registrations {
		if r.EventID == eventID && r.CheckinToken == token {
			return r, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *fakeRegStore) SetCheckedIn(_ context.Context, id uuid.UUID, at time.Time) error {
	r, ok := s.registrations[id]
	if !ok {
		return models.ErrNotFound
	}
	if r.CheckedInAt != nil {
		return models.ErrAlreadyCheckedIn
	}
	r.CheckedInAt = &at
	return nil
}

func (s *fakeRegStore) Review(_ context.Context, id uuid.UUID, status models.RegistrationStatus, reviewerID uuid.UUID, comment *string, at time.Time) error {
	r, ok := s.registrations[id]
	if !ok || r.Status != models.RegistrationPending {
		return models.ErrInvalidState
	}
	r.Status = status
	r.ReviewedBy = &reviewerID
	r.ReviewedAt = &at
	r.ReviewComment = comment
	return nil
}

func (s *fakeRegStore) SetCancelled(_ context.Context, id uuid.UUID) error {
	r, ok := s.registrations[id]
	if !ok || r.Status == models.RegistrationCancelled || r.Status == models.RegistrationRejected {
		return models.ErrInvalidState
	}
	r.Status = models.RegistrationCancelled
	return nil
}

type notifyCall struct {
	userID uuid.UUID
	title  string
	kind   string
}

type fakeNotifier struct {
	calls []notifyCall
}

func (n *fakeNotifier) Notify(_ context.Context, userID uuid.UUID, title, content, kind string) {
	n.calls = append(n.calls, notifyCall{userID: userID, title: title, kind: kind})
}

type fakeMailer struct {
	sent []string
}

func (m *fakeMailer) SendRegistrationEmail(_ context.Context, emailType string, _ *models.User, _ *models.Event, _ *models.Registration) {
	m.sent = append(m.sent, emailType)
}

type regFixture struct {
	store    *fakeRegStore
	notifier *fakeNotifier
	mailer   *fakeMailer
	engine   *Engine
}

func newRegFixture() *regFixture {
	f := &regFixture{
		store:    newFakeRegStore(),
		notifier: &fakeNotifier{},
		mailer:   &fakeMailer{},
	}
	f.engine = NewEngine(f.store, f.notifier, f.mailer, zap.NewNop())
	return f
}

func (f *regFixture) addEvent(capacity int, requiresApproval bool, levels, programs []string) *models.Event {
	now := time.Now()
	e := &models.Event{
		ID:               uuid.New(),
		Title:            "open day",
		Capacity:         capacity,
		RequiresApproval: requiresApproval,
		EligibleLevels:   levels,
		EligiblePrograms: programs,
		StartsAt:         now.Add(24 * time.Hour),
		EndsAt:           now.Add(26 * time.Hour),
	}
	f.store.events[e.ID] = e
	return e
}

func (f *regFixture) addUser(level, program *string) *models.User {
	u := &models.User{ID: uuid.New(), Email: "u@example.com", FullName: "U", Role: models.RoleUser,
		StudyLevel: level, StudyProgram: program}
	f.store.users[u.ID] = u
	return u
}

func str(s string) *string { return &s }

func TestRegisterNoApproval(t *testing.T) {
	f := newRegFixture()
	event := f.addEvent(10, false, nil, nil)
	user := f.addUser(nil, nil)

	reg, err := f.engine.Register(context.Background(), event.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationRegistered, reg.Status)
	assert.NotEmpty(t, reg.CheckinToken)
	require.Len(t, f.notifier.calls, 1)
	assert.Equal(t, "Registration confirmed", f.notifier.calls[0].title)
	assert.Equal(t, []string{models.EmailTypeRegistrationConfirmed}, f.mailer.sent)
}

func TestRegisterApprovalGoesPending(t *testing.T) {
	f := newRegFixture()
	event := f.addEvent(10, true, []string{"Graduate"}, nil)
	user := f.addUser(str("Graduate"), nil)

	reg, err := f.engine.Register(context.Background(), event.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationPending, reg.Status)
	require.Len(t, f.notifier.calls, 1)
	assert.Equal(t, "Registration received", f.notifier.calls[0].title)
	assert.Equal(t, []string{models.EmailTypeRegistrationPending}, f.mailer.sent)
}

func TestRegisterEventMissing(t *testing.T) {
	f := newRegFixture()
	user := f.addUser(nil, nil)
	_, err := f.engine.Register(context.Background(), uuid.New(), user.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRegisterCapacityExceeded(t *testing.T) {
	f := newRegFixture()
	event := f.addEvent(1, false, nil, nil)
	first := f.addUser(nil, nil)
	second := f.addUser(nil, nil)

	_, err := f.engine.Register(context.Background(), event.ID, first.ID)
	require.NoError(t, err)

	_, err = f.engine.Register(context.Background(), event.ID, second.ID)
	assert.ErrorIs(t, err, models.ErrCapacityExceeded)
	assert.Len(t, f.store.registrations, 1)
}

func TestRegisterCapacityWinsOverDuplicate(t *testing.T) {
	// With the event full AND the user already registered, capacity is
	// reported first: precondition order is fixed.
	f := newRegFixture()
	event := f.addEvent(1, false, nil, nil)
	user := f.addUser(nil, nil)

	_, err := f.engine.Register(context.Background(), event.ID, user.ID)
	require.NoError(t, err)

	_, err = f.engine.Register(context.Background(), event.ID, user.ID)
	assert.ErrorIs(t, err, models.ErrCapacityExceeded)
}

func TestRegisterDuplicate(t *testing.T) {
	f := newRegFixture()
	event := f.addEvent(10, false, nil, nil)
	user := f.addUser(nil, nil)

	_, err := f.engine.Register(context.Background(), event.ID, user.ID)
	require.NoError(t, err)

	_, err = f.engine.Register(context.Background(), event.ID, user.ID)
	assert.ErrorIs(t, err, models.ErrAlreadyRegistered)
	assert.Len(t, f.store.registrations, 1, "registering twice never creates two rows")
}

func TestRegisterNotEligibleMissingAttribute(t *testing.T) {
	f := newRegFixture()
	event := f.addEvent(10, true, []string{"Graduate"}, nil)
	user := f.addUser(nil, nil) // no study level on record

	_, err := f.engine.Register(context.Background(), event.ID, user.ID)
	assert.ErrorIs(t, err, models.ErrNotEligible)
	assert.Empty(t, f.store.registrations, "ineligible users get no row at all")
	assert.Empty(t, f.notifier.calls)
}

func TestRegisterEligibilityIgnoredWithoutApproval(t *testing.T) {
	// Restriction lists only bind approval events.
	f := newRegFixture()
	event := f.addEvent(10, false, []string{"Graduate"}, nil)
	user := f.addUser(nil, nil)

	_, err := f.engine.Register(context.Background(), event.ID, user.ID)
	assert.NoError(t, err)
}

func TestEligible(t *testing.T) {
	grad, cs := str("Graduate"), str("CS")
	tests := []struct {
		name             string
		levels, programs []string
		level, program   *string
		want             bool
	}{
		{"unrestricted", nil, nil, nil, nil, true},
		{"level match", []string{"Graduate"}, nil, grad, nil, true},
		{"level mismatch", []string{"Graduate"}, nil, str("Undergraduate"), nil, false},
		{"level missing", []string{"Graduate"}, nil, nil, nil, false},
		{"both restricted, both match", []string{"Graduate"}, []string{"CS"}, grad, cs, true},
		{"program missing", nil, []string{"CS"}, grad, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &models.Event{EligibleLevels: tt.levels, EligiblePrograms: tt.programs}
			u := &models.User{StudyLevel: tt.level, StudyProgram: tt.program}
			assert.Equal(t, tt.want, Eligible(e, u))
		})
	}
}

func TestCheckInOnce(t *testing.T) {
	f := newRegFixture()
	event := f.addEvent(10, false, nil, nil)
	user := f.addUser(nil, nil)
	reg, err := f.engine.Register(context.Background(), event.ID, user.ID)
	require.NoError(t, err)

	checked, err := f.engine.CheckIn(context.Background(), event.ID, reg.CheckinToken)
	require.NoError(t, err)
	assert.NotNil(t, checked.CheckedInAt)

	_, err = f.engine.CheckIn(context.Background(), event.ID, reg.CheckinToken)
	assert.ErrorIs(t, err, models.ErrAlreadyCheckedIn)
}

func TestCheckInUnknownToken(t *testing.T) {
	f := newRegFixture()
	event := f.addEvent(10, false, nil, nil)
	_, err := f.engine.CheckIn(context.Background(), event.ID, "no-such-token")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestApproveOneShot(t *testing.T) {
	f := newRegFixture()
	event := f.addEvent(10, true, nil, nil)
	user := f.addUser(nil, nil)
	reviewer := f.addUser(nil, nil)
	reg, err := f.engine.Register(context.Background(), event.ID, user.ID)
	require.NoError(t, err)
	require.Equal(t, models.RegistrationPending, reg.Status)

	approved, err := f.engine.Approve(context.Background(), reg.ID, reviewer.ID, str("welcome"))
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationConfirmed, approved.Status)
	require.NotNil(t, approved.ReviewedBy)
	assert.Equal(t, reviewer.ID, *approved.ReviewedBy)

	_, err = f.engine.Approve(context.Background(), reg.ID, reviewer.ID, nil)
	assert.ErrorIs(t, err, models.ErrInvalidState)
	assert.Equal(t, models.RegistrationConfirmed, f.store.registrations[reg.ID].Status,
		"second approve must not change the status set by the first")
	assert.Contains(t, f.mailer.sent, models.EmailTypeRegistrationApproved)
}

func TestRejectNotifiesWithReason(t *testing.T) {
	f := newRegFixture()
	event := f.addEvent(10, true, nil, nil)
	user := f.addUser(nil, nil)
	reviewer := f.addUser(nil, nil)
	reg, err := f.engine.Register(context.Background(), event.ID, user.ID)
	require.NoError(t, err)

	rejected, err := f.engine.Reject(context.Background(), reg.ID, reviewer.ID, str("event is invite only"))
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationRejected, rejected.Status)
	assert.Contains(t, f.mailer.sent, models.EmailTypeRegistrationRejected)
}

func TestCancelOwnRegistration(t *testing.T) {
	f := newRegFixture()
	event := f.addEvent(1, false, nil, nil)
	user := f.addUser(nil, nil)
	other := f.addUser(nil, nil)
	reg, err := f.engine.Register(context.Background(), event.ID, user.ID)
	require.NoError(t, err)

	// Someone else cannot cancel it.
	err = f.engine.Cancel(context.Background(), reg.ID, other.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, f.engine.Cancel(context.Background(), reg.ID, user.ID))
	assert.Equal(t, models.RegistrationCancelled, f.store.registrations[reg.ID].Status)

	// The freed slot is usable again.
	_, err = f.engine.Register(context.Background(), event.ID, other.ID)
	assert.NoError(t, err)
}

func TestCancelTerminalRegistration(t *testing.T) {
	f := newRegFixture()
	event := f.addEvent(10, true, nil, nil)
	user := f.addUser(nil, nil)
	reviewer := f.addUser(nil, nil)
	reg, err := f.engine.Register(context.Background(), event.ID, user.ID)
	require.NoError(t, err)
	_, err = f.engine.Reject(context.Background(), reg.ID, reviewer.ID, nil)
	require.NoError(t, err)

	err = f.engine.Cancel(context.Background(), reg.ID, user.ID)
	assert.ErrorIs(t, err, models.ErrInvalidState)
}
