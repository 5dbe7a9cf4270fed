package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

const tokenExpiryMargin = 5 * time.Minute

// FeishuClient is the shared authenticated HTTP client for the Feishu
// open platform. Tenant access tokens are cached until shortly before
// expiry.
type FeishuClient struct {
	baseURL    string
	appID      string
	appSecret  string
	httpClient *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// FeishuConfig holds credentials for the Feishu open platform
type FeishuConfig struct {
	BaseURL   string
	AppID     string
	AppSecret string
	Timeout   time.Duration
}

// NewFeishuClient creates a new Feishu API client
func NewFeishuClient(cfg FeishuConfig) *FeishuClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &FeishuClient{
		baseURL:    cfg.BaseURL,
		appID:      cfg.AppID,
		appSecret:  cfg.AppSecret,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type tokenResponse struct {
	Code              int    `json:"code"`
	Msg               string `json:"msg"`
	TenantAccessToken string `json:"tenant_access_token"`
	Expire            int    `json:"expire"` // seconds
}

// accessToken returns a valid tenant access token, refreshing if needed
func (c *FeishuClient) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	body, err := json.Marshal(map[string]string{
		"app_id":     c.appID,
		"app_secret": c.appSecret,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/open-apis/auth/v3/tenant_access_token/internal", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("feishu token endpoint returned status %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", err
	}
	if tr.Code != 0 {
		return "", fmt.Errorf("feishu token error %d: %s", tr.Code, tr.Msg)
	}

	c.token = tr.TenantAccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tr.Expire)*time.Second - tokenExpiryMargin)
	return c.token, nil
}

// doJSON performs an authenticated JSON request and decodes the envelope
// into out (which may be nil when only the status matters)
func (c *FeishuClient) doJSON(ctx context.Context, method, path string, payload, out interface{}) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return fmt.Errorf("acquiring feishu token: %w", err)
	}

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("feishu API %s returned status %d", path, resp.StatusCode)
	}

	var envelope struct {
		Code int             `json:"code"`
		Msg  string          `json:"msg"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return err
	}
	if envelope.Code != 0 {
		return fmt.Errorf("feishu API %s error %d: %s", path, envelope.Code, envelope.Msg)
	}
	if out != nil && len(envelope.Data) > 0 {
		return json.Unmarshal(envelope.Data, out)
	}
	return nil
}
