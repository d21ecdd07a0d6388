// Package ledger implements the HTTP adapter for the external append-only
// ledger node. The node serializes writes per account; this client only
// translates calls and classifies failures.
package ledger

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	contracts "certmint/contracts/ledger"
	dErrors "certmint/pkg/domain-errors"
)

//go:generate mockgen -source=client.go -destination=../../mocks/ledger/client_mock.go -package=mockledger

// API is the ledger surface the engine depends on. GetState reports
// (value, found, error): a missing key is an expected negative, not a fault.
type API interface {
	GetState(ctx context.Context, key contracts.StateKey) ([]byte, bool, error)
	PutState(ctx context.Context, key contracts.StateKey, value []byte) error
	MintToken(ctx context.Context, req contracts.MintRequest) (contracts.MintResult, error)
	Health(ctx context.Context) error
}

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to a ledger node's REST API.
type Client struct {
	baseURL  string
	apiToken string
	client   HTTPDoer
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.client = doer
		}
	}
}

// NewClient creates a ledger client for the given node URL.
func NewClient(baseURL, apiToken string, opts ...Option) *Client {
	c := &Client{
		baseURL:  baseURL,
		apiToken: apiToken,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ API = (*Client)(nil)

type stateEnvelope struct {
	Value string `json:"value"` // base64
}

// GetState reads one record from the ledger's application state.
func (c *Client) GetState(ctx context.Context, key contracts.StateKey) ([]byte, bool, error) {
	url := fmt.Sprintf("%s/v2/state/%s/%s", c.baseURL, key.Kind, key.Owner)
	resp, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var env stateEnvelope
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			return nil, false, dErrors.Wrap(err, dErrors.CodeTransport, "malformed ledger state response")
		}
		value, err := base64.StdEncoding.DecodeString(env.Value)
		if err != nil {
			return nil, false, dErrors.Wrap(err, dErrors.CodeTransport, "malformed ledger state value")
		}
		return value, true, nil
	case http.StatusNotFound:
		// Expected negative: the key simply has no record.
		return nil, false, nil
	default:
		return nil, false, c.statusError("get state", resp)
	}
}

// PutState writes one record into the ledger's application state.
func (c *Client) PutState(ctx context.Context, key contracts.StateKey, value []byte) error {
	body, err := json.Marshal(stateEnvelope{Value: base64.StdEncoding.EncodeToString(value)})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to marshal ledger state")
	}

	url := fmt.Sprintf("%s/v2/state/%s/%s", c.baseURL, key.Kind, key.Owner)
	resp, err := c.do(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return c.statusError("put state", resp)
	}
	return nil
}

// MintToken creates the credential token. Soulbound requests are minted with
// no freeze and no clawback authority; the token cannot be un-minted, so
// callers must record the returned handle before treating a later failure as
// retriable.
func (c *Client) MintToken(ctx context.Context, req contracts.MintRequest) (contracts.MintResult, error) {
	req.UnitName = truncate(req.UnitName, contracts.MaxUnitNameLen)
	req.AssetName = truncate(req.AssetName, contracts.MaxAssetNameLen)
	req.URL = truncate(req.URL, contracts.MaxURLLen)

	body, err := json.Marshal(req)
	if err != nil {
		return contracts.MintResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to marshal mint request")
	}

	resp, err := c.do(ctx, http.MethodPost, c.baseURL+"/v2/mint", bytes.NewReader(body))
	if err != nil {
		return contracts.MintResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return contracts.MintResult{}, c.statusError("mint", resp)
	}

	var result contracts.MintResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return contracts.MintResult{}, dErrors.Wrap(err, dErrors.CodeTransport, "malformed mint response")
	}
	if result.TokenID == "" {
		return contracts.MintResult{}, dErrors.New(dErrors.CodeTransport, "mint response missing token id")
	}
	return result, nil
}

// Health checks node reachability.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return c.statusError("health", resp)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, url string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create ledger request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiToken != "" {
		req.Header.Set("X-Ledger-API-Token", c.apiToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "ledger call timed out")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeTransport, "ledger unreachable")
	}
	return resp, nil
}

func (c *Client) statusError(op string, resp *http.Response) error {
	// Bounded read keeps error payloads out of log storms.
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	return dErrors.New(dErrors.CodeTransport,
		fmt.Sprintf("ledger %s failed: status %d: %s", op, resp.StatusCode, string(snippet)))
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
