package oauth

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/nilayjain12/clover-checkout-app/internal/storage"
	"github.com/nilayjain12/clover-checkout-app/model"
)

// stateTTL bounds how long an issued authorization URL stays redeemable.
const stateTTL = 10 * time.Minute

const defaultExpiresIn = 3600

// Flow drives the authorization-code exchange. It has two transitions:
// AuthorizationURL issues a redirect target with a one-time state nonce,
// and HandleCallback redeems the nonce plus code for a credential.
type Flow struct {
	client       *http.Client
	store        storage.CredentialStore
	clientID     string
	clientSecret string
	baseURL      string
	redirectURI  string

	mu            sync.Mutex
	pendingStates map[string]time.Time
}

func NewFlow(client *http.Client, store storage.CredentialStore, clientID, clientSecret, baseURL, redirectURI string) *Flow {
	return &Flow{
		client:        client,
		store:         store,
		clientID:      clientID,
		clientSecret:  clientSecret,
		baseURL:       baseURL,
		redirectURI:   redirectURI,
		pendingStates: make(map[string]time.Time),
	}
}

// AuthorizationURL builds the upstream authorize URL and registers the
// state nonce it embeds.
func (f *Flow) AuthorizationURL() (string, error) {
	if f.clientID == "" {
		return "", fmt.Errorf("%w: CLIENT_ID is not set", model.ErrAuthExchangeFailed)
	}

	state := uuid.NewString()
	f.mu.Lock()
	f.pendingStates[state] = time.Now().Add(stateTTL)
	f.mu.Unlock()

	params := url.Values{}
	params.Set("client_id", f.clientID)
	params.Set("redirect_uri", f.redirectURI)
	params.Set("state", state)
	return f.baseURL + "/oauth/authorize?" + params.Encode(), nil
}

// consumeState redeems a nonce exactly once. Expired entries are swept
// opportunistically so the map cannot grow without bound.
func (f *Flow) consumeState(state string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	for s, deadline := range f.pendingStates {
		if now.After(deadline) {
			delete(f.pendingStates, s)
		}
	}

	deadline, ok := f.pendingStates[state]
	if !ok || now.After(deadline) {
		return false
	}
	delete(f.pendingStates, state)
	return true
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// HandleCallback verifies the state nonce, exchanges the authorization
// code for an access token, and persists the resulting credential. On any
// failure nothing is persisted.
func (f *Flow) HandleCallback(ctx context.Context, code, state, merchantID string) error {
	if state == "" || !f.consumeState(state) {
		slog.Warn("callback rejected", "reason", "state mismatch")
		return model.ErrStateMismatch
	}
	if code == "" {
		return fmt.Errorf("%w: missing authorization code", model.ErrAuthExchangeFailed)
	}
	if merchantID == "" {
		return fmt.Errorf("%w: missing merchant_id", model.ErrAuthExchangeFailed)
	}

	token, err := f.exchangeCode(ctx, code)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	expiresIn := token.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = defaultExpiresIn
	}
	cred := model.Credential{
		MerchantID:  merchantID,
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ObtainedAt:  now,
		ExpiresAt:   now.Add(time.Duration(expiresIn) * time.Second),
	}
	if err := f.store.Save(ctx, cred); err != nil {
		return fmt.Errorf("%w: persisting credential: %v", model.ErrAuthExchangeFailed, err)
	}

	slog.Info("credential obtained", "merchant_id", merchantID, "expires_at", cred.ExpiresAt)
	return nil
}

// exchangeCode posts the code as form data, which is what the Clover
// token endpoint expects.
func (f *Flow) exchangeCode(ctx context.Context, code string) (*tokenResponse, error) {
	form := url.Values{}
	form.Set("client_id", f.clientID)
	form.Set("client_secret", f.clientSecret)
	form.Set("code", code)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrAuthExchangeFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := f.client.Do(req)
	if err != nil {
		slog.Error("token exchange transport failure", "err", err)
		return nil, fmt.Errorf("%w: %v", model.ErrAuthExchangeFailed, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 2048))
		slog.Error("token exchange rejected", "status", res.StatusCode, "body", string(raw))
		return nil, fmt.Errorf("%w: status=%d body=%s", model.ErrAuthExchangeFailed, res.StatusCode, string(raw))
	}

	var token tokenResponse
	if err := sonic.ConfigFastest.NewDecoder(res.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("%w: malformed token response: %v", model.ErrAuthExchangeFailed, err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access_token", model.ErrAuthExchangeFailed)
	}
	return &token, nil
}

// Logout clears the stored credential. Clearing an absent credential is
// a no-op.
func (f *Flow) Logout(ctx context.Context) error {
	return f.store.Clear(ctx)
}

// Status reports whether a non-expired credential is held and for which
// merchant.
func (f *Flow) Status(ctx context.Context) (bool, string, error) {
	cred, err := f.store.Load(ctx)
	if err != nil {
		return false, "", err
	}
	if cred.Expired(time.Now().UTC()) {
		return false, "", nil
	}
	return true, cred.MerchantID, nil
}
