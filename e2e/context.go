package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	jwttoken "badgeledger/internal/jwt_token"
	id "badgeledger/pkg/domain"
)

// Clock is the request time the server sees. Scenarios advance it instead of
// sleeping through cooldowns.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// TestContext holds the per-scenario client state.
type TestContext struct {
	BaseURL    string
	AdminToken string
	Clock      *Clock
	JWT        *jwttoken.JWTService

	client     *http.Client
	accounts   map[string]id.Account
	caller     string
	lastStatus int
	lastBody   []byte
	lastHeader http.Header
}

func NewTestContext(baseURL, adminToken string, clock *Clock, jwt *jwttoken.JWTService) *TestContext {
	return &TestContext{
		BaseURL:    baseURL,
		AdminToken: adminToken,
		Clock:      clock,
		JWT:        jwt,
		client:     &http.Client{Timeout: 10 * time.Second},
		accounts:   map[string]id.Account{},
	}
}

// Reset clears the client state between scenarios.
func (tc *TestContext) Reset() {
	tc.accounts = map[string]id.Account{}
	tc.caller = ""
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.lastHeader = nil
}

// DefineAccount binds an alias used in scenarios to an address.
func (tc *TestContext) DefineAccount(alias, address string) error {
	account, err := id.ParseAccount(address)
	if err != nil {
		return err
	}
	tc.accounts[alias] = account
	return nil
}

func (tc *TestContext) Account(alias string) (id.Account, error) {
	account, ok := tc.accounts[alias]
	if !ok {
		return "", fmt.Errorf("unknown account alias %q", alias)
	}
	return account, nil
}

// ActAs makes subsequent requests carry a bearer token for alias.
func (tc *TestContext) ActAs(alias string) error {
	if _, err := tc.Account(alias); err != nil {
		return err
	}
	tc.caller = alias
	return nil
}

func (tc *TestContext) AdvanceClock(d time.Duration) {
	tc.Clock.Advance(d)
}

func (tc *TestContext) POST(path string, body any) error {
	return tc.do(http.MethodPost, path, body, nil)
}

func (tc *TestContext) PUT(path string, body any) error {
	return tc.do(http.MethodPut, path, body, nil)
}

func (tc *TestContext) GET(path string, headers map[string]string) error {
	return tc.do(http.MethodGet, path, nil, headers)
}

// AdminPOST sends an operator request authenticated with the admin token.
func (tc *TestContext) AdminPOST(path string, body any) error {
	return tc.do(http.MethodPost, path, body, map[string]string{"X-Admin-Token": tc.AdminToken})
}

func (tc *TestContext) AdminPUT(path string, body any) error {
	return tc.do(http.MethodPut, path, body, map[string]string{"X-Admin-Token": tc.AdminToken})
}

func (tc *TestContext) do(method, path string, body any, headers map[string]string) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, tc.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tc.caller != "" {
		token, err := tc.JWT.GenerateAccessToken(tc.accounts[tc.caller], nil, time.Hour)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	tc.lastStatus = resp.StatusCode
	tc.lastHeader = resp.Header
	tc.lastBody, err = io.ReadAll(resp.Body)
	return err
}

func (tc *TestContext) GetLastResponseStatus() int {
	return tc.lastStatus
}

func (tc *TestContext) GetLastResponseBody() []byte {
	return tc.lastBody
}

func (tc *TestContext) GetLastResponseHeader(name string) string {
	if tc.lastHeader == nil {
		return ""
	}
	return tc.lastHeader.Get(name)
}

// GetResponseField reads a dotted path from the last JSON response.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	var body any
	if err := json.Unmarshal(tc.lastBody, &body); err != nil {
		return nil, fmt.Errorf("response is not JSON: %w", err)
	}
	cur := body
	for _, part := range strings.Split(field, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("field %q not found in %s", field, tc.lastBody)
		}
		cur, ok = obj[part]
		if !ok {
			return nil, fmt.Errorf("field %q not found in %s", field, tc.lastBody)
		}
	}
	return cur, nil
}
