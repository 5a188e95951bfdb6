package logic

import (
	"context"
	"sync"
	"testing"

	"github.com/blues/fundcrm/internal/model"
	"github.com/blues/fundcrm/internal/sms"
	"github.com/blues/fundcrm/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type smsCall struct {
	recipient uuid.UUID
	typ       model.NotificationType
}

type recordingGate struct {
	mu    sync.Mutex
	calls []smsCall
}

func (g *recordingGate) MaybeSend(_ context.Context, recipientID uuid.UUID, t model.NotificationType, _, _ string) sms.Outcome {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, smsCall{recipient: recipientID, typ: t})
	return sms.OutcomeSent
}

func (g *recordingGate) recipients(t model.NotificationType) []uuid.UUID {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []uuid.UUID
	for _, c := range g.calls {
		if c.typ == t {
			out = append(out, c.recipient)
		}
	}
	return out
}

type fixture struct {
	db       *gorm.DB
	gate     *recordingGate
	notifier *Notifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	gate := &recordingGate{}
	notifier, err := NewNotifier(db, gate, 4)
	require.NoError(t, err)
	t.Cleanup(notifier.Close)

	return &fixture{db: db, gate: gate, notifier: notifier}
}

func partner(p *model.Person) ActingUser {
	return ActingUser{RealID: p.ID, Role: p.Role}
}

// notificationsFor 收件人未撤销的通知
func (f *fixture) notificationsFor(t *testing.T, recipientID uuid.UUID, typ model.NotificationType) []model.Notification {
	t.Helper()
	var rows []model.Notification
	require.NoError(t, f.db.Where("recipient_id = ? AND type = ? AND dismissed_at IS NULL", recipientID, typ).Find(&rows).Error)
	return rows
}

func (f *fixture) countNotifications(t *testing.T, typ model.NotificationType) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&model.Notification{}).Where("type = ?", typ).Count(&n).Error)
	return n
}
