// internal/common/auth/tekmetric.go
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"vca-advisor/internal/common/config"
	"vca-advisor/internal/common/errors"
	httpclient "vca-advisor/internal/common/http"
	"vca-advisor/internal/common/logger"
	"vca-advisor/internal/common/metrics"
)

const missingCredentialsMsg = "Tekmetric credentials not set in environment. Required: TEKMETRIC_CLIENT_ID and TEKMETRIC_CLIENT_SECRET"

// TokenCache stores bearer tokens between requests.
type TokenCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// TokenResponse holds the response from the Tekmetric token endpoint.
// Only access_token is required; the other fields are loosely typed.
type TokenResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   interface{} `json:"token_type"`
	ExpiresIn   interface{} `json:"expires_in"`
	Scope       interface{} `json:"scope"`
}

// Lifetime returns expires_in as a duration. Absent, non-numeric or
// non-positive values report false.
func (t *TokenResponse) Lifetime() (time.Duration, bool) {
	var seconds float64
	switch v := t.ExpiresIn.(type) {
	case float64:
		seconds = v
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		seconds = f
	default:
		return 0, false
	}
	if seconds <= 0 {
		return 0, false
	}
	return time.Duration(seconds * float64(time.Second)), true
}

// TokenProvider exchanges client credentials for a bearer token. Without a
// cache every call performs a fresh grant.
type TokenProvider struct {
	clientID     string
	clientSecret string
	tokenURL     string
	cacheKey     string
	safetyMargin time.Duration
	httpClient   *httpclient.Client
	cache        TokenCache
	logger       logger.Logger
}

// NewTekmetricTokenProvider creates a TokenProvider. cache may be nil.
func NewTekmetricTokenProvider(cfg config.TekmetricConfig, cacheCfg config.TokenCacheConfig, httpClient *httpclient.Client, cache TokenCache, log logger.Logger) *TokenProvider {
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = config.DefaultTokenURL
	}
	clientID := strings.TrimSpace(cfg.ClientID)
	return &TokenProvider{
		clientID:     clientID,
		clientSecret: strings.TrimSpace(cfg.ClientSecret),
		tokenURL:     tokenURL,
		cacheKey:     tokenCacheKey(clientID, tokenURL),
		safetyMargin: config.GetDuration(cacheCfg.SafetyMargin),
		httpClient:   httpClient,
		cache:        cache,
		logger:       logger.ForComponent(log, "tekmetric-auth"),
	}
}

// Token returns a bearer token for the Tekmetric API.
func (p *TokenProvider) Token(ctx context.Context) (string, error) {
	if p.clientID == "" || p.clientSecret == "" {
		return "", errors.NewConfigurationError(missingCredentialsMsg)
	}

	if token, ok := p.cachedToken(ctx); ok {
		return token, nil
	}

	tokenResp, err := p.requestToken(ctx)
	if err != nil {
		return "", err
	}

	p.storeToken(ctx, tokenResp)
	return tokenResp.AccessToken, nil
}

func (p *TokenProvider) requestToken(ctx context.Context) (*TokenResponse, error) {
	data := url.Values{}
	data.Set("grant_type", "client_credentials")
	data.Set("client_id", p.clientID)
	data.Set("client_secret", p.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstream(metrics.UpstreamToken, 0)
		return nil, fmt.Errorf("failed to execute token request: %w", err)
	}
	defer resp.Body.Close()
	metrics.RecordUpstream(metrics.UpstreamToken, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	// Status is not checked: a response without access_token is the failure.
	var tokenResp TokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil || tokenResp.AccessToken == "" {
		p.logger.Warn("Token response missing access_token", map[string]interface{}{
			"status": resp.StatusCode,
		})
		return nil, errors.NewUpstreamAuthError(string(body))
	}

	return &tokenResp, nil
}

// tokenCacheKey scopes cached tokens to the client and the token endpoint, so
// sandbox and production grants for one client id never mix.
func tokenCacheKey(clientID, tokenURL string) string {
	sum := sha256.Sum256([]byte(tokenURL))
	return clientID + ":" + hex.EncodeToString(sum[:8])
}

func (p *TokenProvider) cachedToken(ctx context.Context) (string, bool) {
	if p.cache == nil {
		return "", false
	}
	token, ok, err := p.cache.Get(ctx, p.cacheKey)
	switch {
	case err != nil:
		metrics.TokenCacheLookups.WithLabelValues(metrics.CacheError).Inc()
		p.logger.WithError(err).Warn("Token cache lookup failed", nil)
		return "", false
	case !ok || token == "":
		metrics.TokenCacheLookups.WithLabelValues(metrics.CacheMiss).Inc()
		return "", false
	default:
		metrics.TokenCacheLookups.WithLabelValues(metrics.CacheHit).Inc()
		return token, true
	}
}

func (p *TokenProvider) storeToken(ctx context.Context, tokenResp *TokenResponse) {
	if p.cache == nil {
		return
	}
	lifetime, ok := tokenResp.Lifetime()
	if !ok {
		return
	}
	ttl := lifetime - p.safetyMargin
	if ttl <= 0 {
		return
	}
	if err := p.cache.Set(ctx, p.cacheKey, tokenResp.AccessToken, ttl); err != nil {
		p.logger.WithError(err).Warn("Token cache store failed", nil)
	}
}
