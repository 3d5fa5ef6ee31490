package ownership

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ram-app/ram-api/internal/models"
	"github.com/ram-app/ram-api/internal/notification"
)

// In-memory stand-ins for the Postgres repositories, mirroring the
// constraints the real schema enforces (unique owner pair, unique code,
// conditional last-owner delete).

type memStore struct {
	pets    map[string]models.Pet
	owners  map[string][]models.Owner // petID -> owners, join order
	invites map[string]models.Invite  // code -> invite
	nextID  int
}

func newMemStore() *memStore {
	return &memStore{
		pets:    map[string]models.Pet{},
		owners:  map[string][]models.Owner{},
		invites: map[string]models.Invite{},
	}
}

func (m *memStore) id() string {
	m.nextID++
	return fmt.Sprintf("id-%d", m.nextID)
}

func uniqueViolation() error {
	return &pq.Error{Code: "23505"}
}

type memPets struct{ store *memStore }

func (m *memPets) CreatePet(_ context.Context, pet models.Pet) (models.Pet, error) {
	pet.ID = m.store.id()
	m.store.pets[pet.ID] = pet
	m.store.owners[pet.ID] = []models.Owner{{PetID: pet.ID, UserID: pet.CreatedBy, Role: "owner", JoinedAt: time.Now()}}
	return pet, nil
}

func (m *memPets) GetPetByID(_ context.Context, petID string) (models.Pet, error) {
	pet, ok := m.store.pets[petID]
	if !ok {
		return models.Pet{}, sql.ErrNoRows
	}
	return pet, nil
}

func (m *memPets) ListPetsByOwner(_ context.Context, _ string) ([]models.Pet, error) {
	return nil, nil
}

func (m *memPets) UpdatePet(_ context.Context, pet models.Pet) (models.Pet, error) {
	return pet, nil
}

func (m *memPets) DeletePet(_ context.Context, _ string) error { return nil }

type memOwners struct{ store *memStore }

func (m *memOwners) ListOwners(_ context.Context, petID string) ([]models.Owner, error) {
	return append([]models.Owner(nil), m.store.owners[petID]...), nil
}

func (m *memOwners) IsOwner(_ context.Context, petID, userID string) (bool, error) {
	for _, owner := range m.store.owners[petID] {
		if owner.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memOwners) AddOwner(_ context.Context, petID, userID string) error {
	for _, owner := range m.store.owners[petID] {
		if owner.UserID == userID {
			return uniqueViolation()
		}
	}
	m.store.owners[petID] = append(m.store.owners[petID], models.Owner{
		PetID:    petID,
		UserID:   userID,
		Role:     "owner",
		Name:     "user " + userID,
		JoinedAt: time.Now(),
	})
	return nil
}

func (m *memOwners) RemoveOwner(_ context.Context, petID, userID string) (bool, error) {
	owners := m.store.owners[petID]
	if len(owners) <= 1 {
		return false, nil
	}
	for i, owner := range owners {
		if owner.UserID == userID {
			m.store.owners[petID] = append(owners[:i:i], owners[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type memInvites struct {
	store       *memStore
	failCreates int // remaining CreateInvite calls to fail with a unique violation
}

func (m *memInvites) CreateInvite(_ context.Context, invite models.Invite) (models.Invite, error) {
	if m.failCreates > 0 {
		m.failCreates--
		return models.Invite{}, uniqueViolation()
	}
	if _, exists := m.store.invites[invite.Code]; exists {
		return models.Invite{}, uniqueViolation()
	}
	invite.ID = m.store.id()
	invite.CreatedAt = time.Now()
	m.store.invites[invite.Code] = invite
	return invite, nil
}

func (m *memInvites) GetActiveByCode(_ context.Context, code string, now time.Time) (models.Invite, error) {
	invite, ok := m.store.invites[code]
	if !ok || !now.Before(invite.ExpiresAt) {
		return models.Invite{}, sql.ErrNoRows
	}
	return invite, nil
}

func (m *memInvites) ListByPet(_ context.Context, petID string) ([]models.Invite, error) {
	var invites []models.Invite
	for _, invite := range m.store.invites {
		if invite.PetID == petID {
			invites = append(invites, invite)
		}
	}
	return invites, nil
}

func (m *memInvites) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var purged int64
	for code, invite := range m.store.invites {
		if !now.Before(invite.ExpiresAt) {
			delete(m.store.invites, code)
			purged++
		}
	}
	return purged, nil
}

type recordedNotification struct {
	recipient string
	event     models.NotificationEvent
}

type memNotifications struct {
	sent []recordedNotification
}

func (m *memNotifications) Publish(_ context.Context, evt notification.Event) (models.Notification, error) {
	m.sent = append(m.sent, recordedNotification{recipient: evt.UserID, event: evt.Event})
	return models.Notification{}, nil
}

func (m *memNotifications) NotifyOwnerJoined(ctx context.Context, recipientID, _, _ string) {
	m.Publish(ctx, notification.Event{UserID: recipientID, Event: models.NotificationEventOwnerJoined})
}

func (m *memNotifications) NotifyOwnerRemoved(ctx context.Context, recipientID, _ string) {
	m.Publish(ctx, notification.Event{UserID: recipientID, Event: models.NotificationEventOwnerRemoved})
}

func (m *memNotifications) NotifyInviteCreated(ctx context.Context, recipientID, _ string) {
	m.Publish(ctx, notification.Event{UserID: recipientID, Event: models.NotificationEventInviteCreated})
}

func (m *memNotifications) ListRecent(_ context.Context, _ string, _ int) ([]models.Notification, error) {
	return nil, nil
}

func (m *memNotifications) MarkRead(_ context.Context, _, _ string) (models.Notification, error) {
	return models.Notification{}, nil
}

type fixture struct {
	svc     *Service
	store   *memStore
	invites *memInvites
	notifs  *memNotifications
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	invites := &memInvites{store: store}
	notifs := &memNotifications{}
	svc := NewService(
		&memPets{store: store},
		&memOwners{store: store},
		invites,
		notifs,
		zerolog.Nop(),
	)
	return &fixture{svc: svc, store: store, invites: invites, notifs: notifs}
}

func (f *fixture) addPet(t *testing.T, ownerID string) models.Pet {
	t.Helper()
	pet, err := (&memPets{store: f.store}).CreatePet(context.Background(), models.Pet{Name: "Rex", Species: "dog", CreatedBy: ownerID})
	require.NoError(t, err)
	return pet
}

func TestListOwnersUnknownPet(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ListOwners(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrPetNotFound)
}

func TestCreateInviteShape(t *testing.T) {
	f := newFixture(t)
	pet := f.addPet(t, "alice")

	before := time.Now()
	invite, err := f.svc.CreateInvite(context.Background(), pet.ID, "alice")
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{6}$`), invite.Code)
	assert.Equal(t, pet.ID, invite.PetID)
	assert.WithinDuration(t, before.Add(InviteTTL), invite.ExpiresAt, 5*time.Second)
}

func TestCreateInviteKeepsPriorCodesValid(t *testing.T) {
	f := newFixture(t)
	pet := f.addPet(t, "alice")

	first, err := f.svc.CreateInvite(context.Background(), pet.ID, "alice")
	require.NoError(t, err)
	second, err := f.svc.CreateInvite(context.Background(), pet.ID, "alice")
	require.NoError(t, err)
	require.NotEqual(t, first.Code, second.Code)

	// Both codes still redeem.
	_, err = f.svc.RedeemInvite(context.Background(), first.Code, "bob")
	assert.NoError(t, err)
	_, err = f.svc.RedeemInvite(context.Background(), second.Code, "carol")
	assert.NoError(t, err)
}

func TestCreateInviteRetriesOnCodeCollision(t *testing.T) {
	f := newFixture(t)
	pet := f.addPet(t, "alice")
	f.invites.failCreates = 2

	invite, err := f.svc.CreateInvite(context.Background(), pet.ID, "alice")
	require.NoError(t, err)
	assert.Len(t, invite.Code, 6)
}

func TestCreateInviteUnknownPet(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateInvite(context.Background(), "missing", "alice")
	assert.ErrorIs(t, err, ErrPetNotFound)
}

func TestListInvitesFiltersExpired(t *testing.T) {
	f := newFixture(t)
	pet := f.addPet(t, "alice")

	stale, err := f.svc.CreateInvite(context.Background(), pet.ID, "alice")
	require.NoError(t, err)
	fresh, err := f.svc.CreateInvite(context.Background(), pet.ID, "alice")
	require.NoError(t, err)

	// Age the first code past its expiry without touching the second.
	aged := f.store.invites[stale.Code]
	aged.ExpiresAt = time.Now().Add(-time.Minute)
	f.store.invites[stale.Code] = aged

	invites, err := f.svc.ListInvites(context.Background(), pet.ID)
	require.NoError(t, err)
	require.Len(t, invites, 1)
	assert.Equal(t, fresh.Code, invites[0].Code)
}

func TestListInvitesUnknownPet(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ListInvites(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrPetNotFound)
}

func TestRedeemInviteIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	pet := f.addPet(t, "alice")

	invite, err := f.svc.CreateInvite(context.Background(), pet.ID, "alice")
	require.NoError(t, err)

	_, err = f.svc.RedeemInvite(context.Background(), " "+strings.ToLower(invite.Code)+" ", "bob")
	require.NoError(t, err)

	owners, err := f.svc.ListOwners(context.Background(), pet.ID)
	require.NoError(t, err)
	require.Len(t, owners, 2)
	assert.Equal(t, "alice", owners[0].UserID)
	assert.Equal(t, "bob", owners[1].UserID)
}

func TestRedeemInviteUnknownCode(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.RedeemInvite(context.Background(), "NOPE42", "bob")
	assert.ErrorIs(t, err, ErrInviteNotFound)

	_, err = f.svc.RedeemInvite(context.Background(), "   ", "bob")
	assert.ErrorIs(t, err, ErrInviteNotFound)
}

func TestRedeemInviteExpiryBoundary(t *testing.T) {
	f := newFixture(t)
	pet := f.addPet(t, "alice")

	invite, err := f.svc.CreateInvite(context.Background(), pet.ID, "alice")
	require.NoError(t, err)

	// An invite whose expiry equals "now" exactly is already expired.
	f.svc.now = func() time.Time { return invite.ExpiresAt }
	_, err = f.svc.RedeemInvite(context.Background(), invite.Code, "bob")
	assert.ErrorIs(t, err, ErrInviteNotFound)

	// One instant earlier it still redeems.
	f.svc.now = func() time.Time { return invite.ExpiresAt.Add(-time.Second) }
	_, err = f.svc.RedeemInvite(context.Background(), invite.Code, "bob")
	assert.NoError(t, err)
}

func TestRedeemInviteAlreadyOwner(t *testing.T) {
	f := newFixture(t)
	pet := f.addPet(t, "alice")

	invite, err := f.svc.CreateInvite(context.Background(), pet.ID, "alice")
	require.NoError(t, err)

	_, err = f.svc.RedeemInvite(context.Background(), invite.Code, "alice")
	assert.ErrorIs(t, err, ErrAlreadyOwner)
}

func TestRedeemInviteRoundTrip(t *testing.T) {
	f := newFixture(t)
	pet := f.addPet(t, "alice")

	invite, err := f.svc.CreateInvite(context.Background(), pet.ID, "alice")
	require.NoError(t, err)

	_, err = f.svc.RedeemInvite(context.Background(), invite.Code, "bob")
	require.NoError(t, err)

	owners, err := f.svc.ListOwners(context.Background(), pet.ID)
	require.NoError(t, err)

	var bobRows, aliceRows int
	for _, owner := range owners {
		switch owner.UserID {
		case "bob":
			bobRows++
		case "alice":
			aliceRows++
		}
	}
	assert.Equal(t, 1, bobRows, "redeeming user appears exactly once")
	assert.Equal(t, 1, aliceRows, "existing owner rows untouched")

	// A second redeem by the same user is rejected, not duplicated.
	_, err = f.svc.RedeemInvite(context.Background(), invite.Code, "bob")
	assert.ErrorIs(t, err, ErrAlreadyOwner)
}

func TestRedeemNotifiesExistingOwners(t *testing.T) {
	f := newFixture(t)
	pet := f.addPet(t, "alice")

	invite, err := f.svc.CreateInvite(context.Background(), pet.ID, "alice")
	require.NoError(t, err)
	f.notifs.sent = nil

	_, err = f.svc.RedeemInvite(context.Background(), invite.Code, "bob")
	require.NoError(t, err)

	require.Len(t, f.notifs.sent, 1)
	assert.Equal(t, "alice", f.notifs.sent[0].recipient)
	assert.Equal(t, models.NotificationEventOwnerJoined, f.notifs.sent[0].event)
}

func TestRemoveOwner(t *testing.T) {
	f := newFixture(t)
	pet := f.addPet(t, "alice")

	invite, err := f.svc.CreateInvite(context.Background(), pet.ID, "alice")
	require.NoError(t, err)
	_, err = f.svc.RedeemInvite(context.Background(), invite.Code, "bob")
	require.NoError(t, err)

	require.NoError(t, f.svc.RemoveOwner(context.Background(), pet.ID, "bob"))

	owners, err := f.svc.ListOwners(context.Background(), pet.ID)
	require.NoError(t, err)
	require.Len(t, owners, 1)
	assert.Equal(t, "alice", owners[0].UserID)
}

func TestRemoveOwnerLastOwnerProtected(t *testing.T) {
	f := newFixture(t)
	pet := f.addPet(t, "alice")

	err := f.svc.RemoveOwner(context.Background(), pet.ID, "alice")
	assert.ErrorIs(t, err, ErrLastOwner)

	owners, listErr := f.svc.ListOwners(context.Background(), pet.ID)
	require.NoError(t, listErr)
	assert.Len(t, owners, 1, "the row must not be deleted")
}

func TestRemoveOwnerNotAnOwner(t *testing.T) {
	f := newFixture(t)
	pet := f.addPet(t, "alice")

	err := f.svc.RemoveOwner(context.Background(), pet.ID, "stranger")
	assert.ErrorIs(t, err, ErrNotOwner)
}

// Full walkthrough: invite, lowercase redeem, symmetric removal, and the
// last-owner refusal at the end.
func TestCoOwnershipScenario(t *testing.T) {
	f := newFixture(t)
	pet := f.addPet(t, "A")

	invite, err := f.svc.CreateInvite(context.Background(), pet.ID, "A")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), invite.ExpiresAt, 5*time.Second)

	_, err = f.svc.RedeemInvite(context.Background(), strings.ToLower(invite.Code), "B")
	require.NoError(t, err)

	require.NoError(t, f.svc.RemoveOwner(context.Background(), pet.ID, "B"))

	err = f.svc.RemoveOwner(context.Background(), pet.ID, "A")
	assert.ErrorIs(t, err, ErrLastOwner)
}

func TestPurgeExpired(t *testing.T) {
	f := newFixture(t)
	pet := f.addPet(t, "alice")

	invite, err := f.svc.CreateInvite(context.Background(), pet.ID, "alice")
	require.NoError(t, err)

	f.svc.now = func() time.Time { return invite.ExpiresAt.Add(time.Minute) }
	purged, err := f.svc.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)

	_, err = f.svc.RedeemInvite(context.Background(), invite.Code, "bob")
	assert.ErrorIs(t, err, ErrInviteNotFound)
}

func TestNewInviteCodeAlphabet(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		code, err := newInviteCode()
		require.NoError(t, err)
		assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{6}$`), code)
		seen[code] = true
	}
	// Not a collision guarantee, just a sanity check on randomness.
	assert.Greater(t, len(seen), 90)
}
