package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/blues/fundcrm/internal/config"
)

// TwilioClient Twilio Messages 接口
type TwilioClient struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	httpClient *http.Client
}

type twilioMessage struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewProvider 凭证不全时返回 nil，短信功能整体关闭
func NewProvider(cfg config.SMSConfig) Provider {
	if !cfg.Enabled() {
		return nil
	}
	return NewTwilioClient(cfg, http.DefaultClient)
}

// NewTwilioClient 创建 Twilio 客户端
func NewTwilioClient(cfg config.SMSConfig, httpClient *http.Client) *TwilioClient {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.twilio.com"
	}
	return &TwilioClient{
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		from:       cfg.FromNumber,
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// Send 发送短信，返回消息 sid
func (c *TwilioClient) Send(ctx context.Context, to, body string) (string, error) {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, url.PathEscape(c.accountSID))
	form := url.Values{
		"To":   {to},
		"From": {c.from},
		"Body": {body},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("twilio request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read twilio response: %w", err)
	}

	var msg twilioMessage
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &msg); err != nil && resp.StatusCode < 300 {
			return "", fmt.Errorf("decode twilio response: %w", err)
		}
	}

	if resp.StatusCode >= 300 {
		if msg.Message != "" {
			return "", fmt.Errorf("twilio returned %d (code %d): %s", resp.StatusCode, msg.Code, msg.Message)
		}
		return "", fmt.Errorf("twilio returned %d", resp.StatusCode)
	}
	return msg.SID, nil
}
