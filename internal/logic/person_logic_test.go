package logic

import (
	"context"
	"testing"

	"github.com/blues/fundcrm/internal/model"
	"github.com/blues/fundcrm/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p1 := testutil.CreatePerson(t, f.db, "P1", model.RolePartner)
	p2 := testutil.CreatePerson(t, f.db, "P2", model.RolePartner)
	founder := testutil.CreatePerson(t, f.db, "Founder", model.RoleFounder)
	l := NewPersonLogic(f.db, f.notifier)
	authID := uuid.New()

	got, err := l.ClaimProfile(ctx, founder.ID, authID)
	require.NoError(t, err)
	require.NotNil(t, got.AuthUserID)
	assert.Equal(t, authID, *got.AuthUserID)

	for _, p := range []*model.Person{p1, p2} {
		assert.Len(t, f.notificationsFor(t, p.ID, model.NotifyProfileClaimed), 1)
	}

	// claiming again with the same account is idempotent
	_, err = l.ClaimProfile(ctx, founder.ID, authID)
	require.NoError(t, err)
	assert.Len(t, f.notificationsFor(t, p1.ID, model.NotifyProfileClaimed), 1)

	_, err = l.ClaimProfile(ctx, founder.ID, uuid.New())
	assert.True(t, IsValidation(err))

	_, err = l.ClaimProfile(ctx, p1.ID, authID)
	assert.True(t, IsValidation(err))

	_, err = l.ClaimProfile(ctx, uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClaimProfileNotifiesClaimingPartner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claimer := testutil.CreatePerson(t, f.db, "New Partner", model.RolePartner)
	other := testutil.CreatePerson(t, f.db, "Other Partner", model.RolePartner)
	l := NewPersonLogic(f.db, f.notifier)

	_, err := l.ClaimProfile(ctx, claimer.ID, uuid.New())
	require.NoError(t, err)

	assert.Len(t, f.notificationsFor(t, claimer.ID, model.NotifyProfileClaimed), 1)
	assert.Len(t, f.notificationsFor(t, other.ID, model.NotifyProfileClaimed), 1)
}

func TestUpdateSMSPreferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := testutil.CreatePerson(t, f.db, "P", model.RoleAdvisor)
	other := testutil.CreatePerson(t, f.db, "Other", model.RoleAdvisor)
	l := NewPersonLogic(f.db, f.notifier)
	self := ActingUser{RealID: p.ID, Role: p.Role}

	got, err := l.UpdateSMSPreferences(ctx, self, p.ID, SMSPreferences{
		Enabled:     true,
		Types:       []string{string(model.NotifyTicketAssigned), string(model.NotifyForumMention)},
		MobilePhone: " +14155550100 ",
	})
	require.NoError(t, err)
	assert.True(t, got.SMSNotificationsEnabled)
	assert.Equal(t, "+14155550100", got.MobilePhone)
	assert.True(t, got.WantsSMS(model.NotifyTicketAssigned))
	assert.False(t, got.WantsSMS(model.NotifyNewApplication))

	_, err = l.UpdateSMSPreferences(ctx, self, p.ID, SMSPreferences{Enabled: true, Types: []string{string(model.NotifyForumReply)}, MobilePhone: "+1"})
	assert.True(t, IsValidation(err))

	_, err = l.UpdateSMSPreferences(ctx, self, p.ID, SMSPreferences{Enabled: true})
	assert.True(t, IsValidation(err))

	_, err = l.UpdateSMSPreferences(ctx, ActingUser{RealID: other.ID, Role: other.Role}, p.ID, SMSPreferences{})
	assert.ErrorIs(t, err, ErrForbidden)
}
