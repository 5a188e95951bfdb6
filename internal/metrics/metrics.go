package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 业务指标，未注册时所有方法都是空操作
type Metrics struct {
	notificationsCreated *prometheus.CounterVec
	smsAttempts          *prometheus.CounterVec
	reportsGenerated     *prometheus.CounterVec
	lifecycleDecisions   *prometheus.CounterVec

	registerOnce sync.Once
}

var std = &Metrics{}

// Default 全局指标实例
func Default() *Metrics {
	return std
}

// Register 向 registry 注册指标，重复调用无副作用
func (m *Metrics) Register(registry prometheus.Registerer) {
	if registry == nil {
		return
	}

	m.registerOnce.Do(func() {
		factory := promauto.With(registry)

		m.notificationsCreated = factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fundcrm_notifications_created_total",
			Help: "Total number of in-app notifications created",
		}, []string{"type"})

		m.smsAttempts = factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fundcrm_sms_attempts_total",
			Help: "SMS gate outcomes by notification type",
		}, []string{"type", "result"})

		m.reportsGenerated = factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fundcrm_ticket_reports_total",
			Help: "Ticket report generation outcomes",
		}, []string{"report_type", "result"})

		m.lifecycleDecisions = factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fundcrm_deliberation_decisions_total",
			Help: "Saved deliberation decisions",
		}, []string{"decision"})
	})
}

// AddNotifications 记录创建的通知数量
func (m *Metrics) AddNotifications(notificationType string, n int) {
	if m == nil || m.notificationsCreated == nil {
		return
	}
	m.notificationsCreated.WithLabelValues(notificationType).Add(float64(n))
}

// IncSMS 记录一次短信门控结果: sent, skipped, failed
func (m *Metrics) IncSMS(notificationType, result string) {
	if m == nil || m.smsAttempts == nil {
		return
	}
	m.smsAttempts.WithLabelValues(notificationType, result).Inc()
}

// IncReport 记录一次报告生成结果: saved, skipped, error
func (m *Metrics) IncReport(reportType, result string) {
	if m == nil || m.reportsGenerated == nil {
		return
	}
	m.reportsGenerated.WithLabelValues(reportType, result).Inc()
}

// IncDecision 记录一次讨论结论保存
func (m *Metrics) IncDecision(decision string) {
	if m == nil || m.lifecycleDecisions == nil {
		return
	}
	m.lifecycleDecisions.WithLabelValues(decision).Inc()
}
