package kis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"kis-trading-bot/internal/api"
	"kis-trading-bot/internal/logger"
)

// Production and paper-trading gateways.
const (
	RealBaseURL    = "https://openapi.koreainvestment.com:9443"
	VirtualBaseURL = "https://openapivts.koreainvestment.com:29443"
)

// tokenRefreshMargin renews the access token slightly before the server
// expires it so in-flight requests never race the expiry.
const tokenRefreshMargin = 60 * time.Second

// Params configures the KIS connection.
type Params struct {
	AppKey    string
	AppSecret string
	// AccountNo is the 8-digit cash account number (CANO).
	AccountNo string
	// ProductCode is the 2-digit account product code (ACNT_PRDT_CD).
	ProductCode string
	// Virtual routes to the paper-trading gateway and order tr_ids.
	Virtual bool
	// BaseURL overrides the gateway, mainly for tests.
	BaseURL string
	Timeout time.Duration
}

func (p Params) validate() error {
	if p.AppKey == "" || p.AppSecret == "" {
		return fmt.Errorf("kis: app key and secret are required")
	}
	if p.AccountNo == "" {
		return fmt.Errorf("kis: account number is required")
	}
	return nil
}

// client owns the OAuth token lifecycle and the authenticated request
// headers shared by every endpoint.
type client struct {
	http   *api.Client
	params Params

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func newClient(p Params) *client {
	if p.ProductCode == "" {
		p.ProductCode = "01"
	}
	if p.BaseURL == "" {
		if p.Virtual {
			p.BaseURL = VirtualBaseURL
		} else {
			p.BaseURL = RealBaseURL
		}
	}
	if p.Timeout == 0 {
		p.Timeout = 30 * time.Second
	}
	return &client{
		http: api.NewClient(
			api.WithBaseURL(p.BaseURL),
			api.WithTimeout(p.Timeout),
			api.WithLogging(true),
		),
		params: p,
	}
}

// token returns a valid access token, requesting a fresh one when the cached
// token is missing or inside the refresh margin.
func (c *client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-tokenRefreshMargin)) {
		return c.accessToken, nil
	}

	resp, err := c.http.POST(ctx, "/oauth2/tokenP", map[string]string{
		"grant_type": "client_credentials",
		"appkey":     c.params.AppKey,
		"appsecret":  c.params.AppSecret,
	})
	if err != nil {
		return "", fmt.Errorf("kis: request access token: %w", err)
	}
	var tok tokenResponse
	if err := resp.ParseJSON(&tok); err != nil {
		return "", fmt.Errorf("kis: decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("kis: token response missing access_token")
	}

	c.accessToken = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	logger.Info(ctx, "KIS access token issued", "expires_in", tok.ExpiresIn)
	return c.accessToken, nil
}

// authHeaders builds the per-request header set for the given transaction ID.
func (c *client) authHeaders(ctx context.Context, trID string) (map[string]string, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"content-type":  "application/json; charset=utf-8",
		"authorization": "Bearer " + token,
		"appkey":        c.params.AppKey,
		"appsecret":     c.params.AppSecret,
		"tr_id":         trID,
		"custtype":      "P",
	}, nil
}

// tradingTrID maps a production trading transaction ID to its paper-trading
// counterpart when the client targets the virtual gateway. Quotation tr_ids
// are identical on both gateways.
func (c *client) tradingTrID(real string) string {
	if !c.params.Virtual {
		return real
	}
	return "V" + real[1:]
}

func checkEnvelope(env envelope) error {
	if env.RtCd != "0" {
		return fmt.Errorf("kis: api error %s: %s", env.MsgCd, env.Msg1)
	}
	return nil
}
