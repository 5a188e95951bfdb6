package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/blues/fundcrm/internal/config"
	"github.com/blues/fundcrm/internal/handler"
	"github.com/blues/fundcrm/internal/logic"
	"github.com/blues/fundcrm/internal/model"
	"github.com/blues/fundcrm/internal/rejection"
	"github.com/blues/fundcrm/internal/report"
	"github.com/blues/fundcrm/internal/sms"
	"github.com/blues/fundcrm/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const cronSecret = "cron-secret"

type app struct {
	db     *gorm.DB
	engine *gin.Engine
}

func newApp(t *testing.T) *app {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	gate := sms.NewGate(db, nil, "SAIF", time.Second)
	notifier, err := logic.NewNotifier(db, gate, 2)
	require.NoError(t, err)
	t.Cleanup(notifier.Close)

	loc, err := report.LoadLocation(report.DefaultTimezone)
	require.NoError(t, err)

	cfg := &config.Config{
		Auth: config.AuthConfig{CronSecret: cronSecret, ServiceRoleKey: "service-key"},
	}
	engine := Setup(db, cfg, Services{
		Notifier: notifier,
		Reports:  report.NewGenerator(db, nil, loc),
		Drafter:  rejection.NewDrafter("SAIF", nil),
		Location: loc,
	})
	return &app{db: db, engine: engine}
}

func (a *app) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func as(p *model.Person) map[string]string {
	return map[string]string{handler.HeaderUserID: p.ID.String()}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	a := newApp(t)

	w := a.do(t, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fundcrm", decode(t, w)["service"])
}

func TestFeatures(t *testing.T) {
	a := newApp(t)

	w := a.do(t, http.MethodGet, "/api/features", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"sms": false, "llm": false, "collaboration": false}, decode(t, w))
}

func TestReportsRequireSecret(t *testing.T) {
	a := newApp(t)

	w := a.do(t, http.MethodPost, "/api/reports", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(t, http.MethodPost, "/api/reports", nil, map[string]string{"Authorization": "Bearer wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 补齐接口只接受服务端密钥
	w = a.do(t, http.MethodGet, "/api/reports", nil, map[string]string{"Authorization": "Bearer " + cronSecret})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var n int64
	require.NoError(t, a.db.Model(&model.TicketReport{}).Count(&n).Error)
	assert.Zero(t, n)

	w = a.do(t, http.MethodPost, "/api/reports", nil, map[string]string{"Authorization": "Bearer " + cronSecret})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "scheduled", decode(t, w)["mode"])

	w = a.do(t, http.MethodPost, "/api/reports", map[string]string{"backfillDate": "not-a-date"},
		map[string]string{"Authorization": "Bearer " + cronSecret})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestForumNotify(t *testing.T) {
	a := newApp(t)
	author := testutil.CreatePerson(t, a.db, "Ann", model.RolePartner)
	replier := testutil.CreatePerson(t, a.db, "Raj", model.RoleFounder)
	post := &model.ForumPost{AuthorID: author.ID, Title: "Hiring a CTO"}
	require.NoError(t, a.db.Create(post).Error)

	w := a.do(t, http.MethodPost, "/api/forum/notify", map[string]any{
		"type": "like", "postId": post.ID, "actorId": replier.ID,
	}, as(replier))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, http.MethodPost, "/api/forum/notify", map[string]any{
		"type": "reply", "actorId": replier.ID,
	}, as(replier))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, http.MethodPost, "/api/forum/notify", map[string]any{
		"type": "reply", "postId": uuid.New(), "actorId": replier.ID,
	}, as(replier))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(t, http.MethodPost, "/api/forum/notify", map[string]any{
		"type": "reply", "postId": post.ID, "actorId": replier.ID,
	}, as(replier))
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["notified"])
	assert.Equal(t, "reply", body["type"])
	assert.EqualValues(t, 1, body["count"])
}

func TestForumNotifyRequiresActingUser(t *testing.T) {
	a := newApp(t)
	author := testutil.CreatePerson(t, a.db, "Ann", model.RolePartner)
	ben := testutil.CreatePerson(t, a.db, "Ben", model.RolePartner)
	cal := testutil.CreatePerson(t, a.db, "Cal", model.RolePartner)
	post := &model.ForumPost{AuthorID: author.ID, Title: "Hiring a CTO"}
	require.NoError(t, a.db.Create(post).Error)
	mention := map[string]any{
		"type":         "mention",
		"postId":       post.ID,
		"actorId":      uuid.New(),
		"mentionedIds": []uuid.UUID{ben.ID, cal.ID},
	}

	w := a.do(t, http.MethodPost, "/api/forum/notify", mention, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 请求体里的 actorId 不能冒充他人
	w = a.do(t, http.MethodPost, "/api/forum/notify", mention, as(author))
	assert.Equal(t, http.StatusForbidden, w.Code)

	var n int64
	require.NoError(t, a.db.Model(&model.Notification{}).Count(&n).Error)
	assert.Zero(t, n)

	delete(mention, "actorId")
	w = a.do(t, http.MethodPost, "/api/forum/notify", mention, as(author))
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decode(t, w)["count"])
}

func TestActingUserRequired(t *testing.T) {
	a := newApp(t)
	partner := testutil.CreatePerson(t, a.db, "Ann", model.RolePartner)
	founder := testutil.CreatePerson(t, a.db, "Raj", model.RoleFounder)

	w := a.do(t, http.MethodGet, "/api/notifications", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(t, http.MethodGet, "/api/notifications", nil, map[string]string{handler.HeaderUserID: uuid.NewString()})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	headers := as(founder)
	headers[handler.HeaderImpersonate] = partner.ID.String()
	w = a.do(t, http.MethodGet, "/api/notifications", nil, headers)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// 合伙人模拟创始人后失去合伙人权限
	headers = as(partner)
	headers[handler.HeaderImpersonate] = founder.ID.String()
	appRow := testutil.CreateApplication(t, a.db, "Acme", time.Now())
	w = a.do(t, http.MethodPost, "/api/applications/"+appRow.ID.String()+"/votes",
		map[string]string{"vote": "yes"}, headers)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestApplicationToInvestment(t *testing.T) {
	a := newApp(t)
	partners := []*model.Person{
		testutil.CreatePerson(t, a.db, "Ann", model.RolePartner),
		testutil.CreatePerson(t, a.db, "Ben", model.RolePartner),
		testutil.CreatePerson(t, a.db, "Cal", model.RolePartner),
	}

	w := a.do(t, http.MethodPost, "/api/applications", map[string]string{"company_name": "Acme"}, as(partners[0]))
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Application model.Application `json:"application"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	id := created.Application.ID.String()
	assert.Equal(t, model.StagePipeline, created.Application.Stage)

	var last logic.VoteResult
	for _, p := range partners {
		w = a.do(t, http.MethodPost, "/api/applications/"+id+"/votes", map[string]string{"vote": "yes"}, as(p))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &last))
	}
	assert.True(t, last.ReachedThreshold)
	assert.EqualValues(t, 3, last.InitialVotes)

	w = a.do(t, http.MethodPost, "/api/applications/"+id+"/reveal", nil, as(partners[0]))
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, http.MethodPut, "/api/applications/"+id+"/deliberation", map[string]any{
		"decision": "yes",
	}, as(partners[0]))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, http.MethodPut, "/api/applications/"+id+"/deliberation", map[string]any{
		"decision": "yes",
		"investment": map[string]any{
			"amount": 100000, "date": "2024-03-01", "terms": "SAFE, 10M cap",
		},
	}, as(partners[0]))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result logic.DeliberationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, model.StageInvested, result.Stage)
	assert.Equal(t, model.DeliberationInvested, result.Deliberation.Status)
	require.NotNil(t, result.Investment)

	w = a.do(t, http.MethodGet, "/api/applications/deliberations?view=decided", nil, as(partners[1]))
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["total"])

	w = a.do(t, http.MethodGet, "/api/applications/deliberations?view=everything", nil, as(partners[1]))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRejectionEmail(t *testing.T) {
	a := newApp(t)
	partner := testutil.CreatePerson(t, a.db, "Ann", model.RolePartner)
	appRow := testutil.CreateApplication(t, a.db, "Acme", time.Now())

	w := a.do(t, http.MethodGet, "/api/applications/"+appRow.ID.String()+"/rejection-email?reason=early_stage_no_team", nil, as(partner))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		Email rejection.Email `json:"email"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body.Email.Subject, "Acme")
	assert.False(t, body.Email.Generated)
}

func TestNotificationsDismiss(t *testing.T) {
	a := newApp(t)
	submitter := testutil.CreatePerson(t, a.db, "Ann", model.RolePartner)
	other := testutil.CreatePerson(t, a.db, "Ben", model.RolePartner)

	w := a.do(t, http.MethodPost, "/api/applications", map[string]string{"company_name": "Acme"}, as(submitter))
	require.Equal(t, http.StatusCreated, w.Code)

	w = a.do(t, http.MethodGet, "/api/notifications", nil, as(other))
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Notifications []model.Notification `json:"notifications"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.NotEmpty(t, list.Notifications)

	w = a.do(t, http.MethodPost, "/api/notifications/dismiss-all", nil, as(other))
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, http.MethodGet, "/api/notifications", nil, as(other))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Empty(t, list.Notifications)
}
