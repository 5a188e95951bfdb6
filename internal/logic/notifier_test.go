package logic

import (
	"context"
	"testing"
	"time"

	"github.com/blues/fundcrm/internal/model"
	"github.com/blues/fundcrm/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateNotificationForManyExcludesActor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := testutil.CreatePerson(t, f.db, "A", model.RolePartner)
	b := testutil.CreatePerson(t, f.db, "B", model.RolePartner)
	c := testutil.CreatePerson(t, f.db, "C", model.RolePartner)

	n, err := f.notifier.CreateNotificationForMany(ctx, testutil.IDs(a, b, c, b), &a.ID, NotificationInput{
		Type:  model.NotifyForumMention,
		Title: "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Empty(t, f.notificationsFor(t, a.ID, model.NotifyForumMention))
	assert.Len(t, f.notificationsFor(t, b.ID, model.NotifyForumMention), 1)
	assert.Len(t, f.notificationsFor(t, c.ID, model.NotifyForumMention), 1)
	assert.ElementsMatch(t, testutil.IDs(b, c), f.gate.recipients(model.NotifyForumMention))
}

func TestCreateNotificationForManyEmptyIsNoop(t *testing.T) {
	f := newFixture(t)
	actor := uuid.New()

	n, err := f.notifier.CreateNotificationForMany(context.Background(), nil, nil, NotificationInput{
		Type:  model.NotifyForumMention,
		Title: "hello",
	})
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = f.notifier.CreateNotificationForMany(context.Background(), []uuid.UUID{actor}, &actor, NotificationInput{
		Type:  model.NotifyForumMention,
		Title: "hello",
	})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, f.countNotifications(t, model.NotifyForumMention))
}

func TestCreateNotificationRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()

	err := f.notifier.CreateNotification(context.Background(), id, NotificationInput{Type: "bogus", Title: "x"})
	assert.Error(t, err)

	err = f.notifier.CreateNotification(context.Background(), id, NotificationInput{
		Type:          model.NotifyTicketAssigned,
		Title:         "x",
		ApplicationID: &id,
		TicketID:      &id,
	})
	assert.Error(t, err)
}

func TestCreateNotificationSendsSMSAsync(t *testing.T) {
	f := newFixture(t)
	p := testutil.CreatePerson(t, f.db, "A", model.RolePartner)

	require.NoError(t, f.notifier.CreateNotification(context.Background(), p.ID, NotificationInput{
		Type:  model.NotifyTicketAssigned,
		Title: "Ticket assigned: x",
	}))
	f.notifier.Drain()

	assert.Equal(t, []uuid.UUID{p.ID}, f.gate.recipients(model.NotifyTicketAssigned))
}

func TestNotifyNewApplicationReachesAllPartners(t *testing.T) {
	f := newFixture(t)
	a := testutil.CreatePerson(t, f.db, "A", model.RolePartner)
	b := testutil.CreatePerson(t, f.db, "B", model.RolePartner)
	founder := testutil.CreatePerson(t, f.db, "F", model.RoleFounder)
	app := testutil.CreateApplication(t, f.db, "Acme", time.Now())

	n, err := f.notifier.NotifyNewApplication(context.Background(), app)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows := f.notificationsFor(t, a.ID, model.NotifyNewApplication)
	require.Len(t, rows, 1)
	assert.Equal(t, "New application: Acme", rows[0].Title)
	require.NotNil(t, rows[0].ApplicationID)
	assert.Equal(t, app.ID, *rows[0].ApplicationID)
	assert.Len(t, f.notificationsFor(t, b.ID, model.NotifyNewApplication), 1)
	assert.Empty(t, f.notificationsFor(t, founder.ID, model.NotifyNewApplication))
}

func TestNotifyForumReplyDeduplicatesAuthor(t *testing.T) {
	f := newFixture(t)
	author := testutil.CreatePerson(t, f.db, "Author", model.RolePartner)
	replier := testutil.CreatePerson(t, f.db, "Replier", model.RolePartner)
	other := testutil.CreatePerson(t, f.db, "Other", model.RolePartner)
	post := &model.ForumPost{AuthorID: author.ID, Title: "Q3 plans"}
	require.NoError(t, f.db.Create(post).Error)

	n, err := f.notifier.NotifyForumReply(context.Background(), partner(replier), post, testutil.IDs(author, other, replier))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Len(t, f.notificationsFor(t, author.ID, model.NotifyForumReply), 1)
	assert.Empty(t, f.notificationsFor(t, author.ID, model.NotifyForumMention))
	assert.Len(t, f.notificationsFor(t, other.ID, model.NotifyForumMention), 1)
	assert.Empty(t, f.notificationsFor(t, replier.ID, model.NotifyForumMention))
}

func TestNotificationDismissal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := testutil.CreatePerson(t, f.db, "A", model.RolePartner)
	b := testutil.CreatePerson(t, f.db, "B", model.RolePartner)
	store := f.notifier.Store()

	for i := 0; i < 3; i++ {
		require.NoError(t, f.notifier.CreateNotification(ctx, a.ID, NotificationInput{Type: model.NotifyForumReply, Title: "r"}))
	}
	f.notifier.Drain()

	rows, err := store.ListForRecipient(ctx, a.ID, false, 0)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	require.NoError(t, store.Dismiss(ctx, a.ID, rows[0].ID))
	assert.ErrorIs(t, store.Dismiss(ctx, a.ID, rows[0].ID), ErrNotFound)
	assert.ErrorIs(t, store.Dismiss(ctx, b.ID, rows[1].ID), ErrNotFound)

	n, err := store.DismissAll(ctx, a.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	rows, err = store.ListForRecipient(ctx, a.ID, false, 0)
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = store.ListForRecipient(ctx, a.ID, true, 2)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestDismissForApplicationFiltersByType(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := testutil.CreatePerson(t, f.db, "A", model.RolePartner)
	app := testutil.CreateApplication(t, f.db, "Acme", time.Now())

	for _, typ := range []model.NotificationType{model.NotifyReadyForDeliberation, model.NotifyNewApplication} {
		require.NoError(t, f.notifier.CreateNotification(ctx, a.ID, NotificationInput{
			Type:          typ,
			Title:         "t",
			ApplicationID: &app.ID,
		}))
	}
	f.notifier.Drain()

	n, err := f.notifier.Store().DismissForApplication(ctx, app.ID, model.NotifyReadyForDeliberation)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Empty(t, f.notificationsFor(t, a.ID, model.NotifyReadyForDeliberation))
	assert.Len(t, f.notificationsFor(t, a.ID, model.NotifyNewApplication), 1)
}
