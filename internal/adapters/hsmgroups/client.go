// Package hsmgroups implements ports.GroupReader (and the membership writes
// the CLI's --apply path needs, even though the planning core itself never
// performs them) against an HSM-group-membership HTTP service.
package hsmgroups

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/yourusername/hsm-rebalance/internal/adapters/retry"
	"github.com/yourusername/hsm-rebalance/internal/config"
	"github.com/yourusername/hsm-rebalance/internal/domain"
	"github.com/yourusername/hsm-rebalance/pkg/defaults"
	hsmerrors "github.com/yourusername/hsm-rebalance/pkg/errors"
	"github.com/yourusername/hsm-rebalance/pkg/logging"
)

// Client implements ports.GroupReader against an HSM-group-membership
// service.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.SugaredLogger
	retry      *retry.Policy
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying *http.Client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithRetryPolicy overrides the retry policy NewClient derives from its
// RetryConfig argument.
func WithRetryPolicy(p *retry.Policy) ClientOption {
	return func(c *Client) { c.retry = p }
}

// NewClient builds a Client from HSMGroupsConfig.
func NewClient(cfg config.HSMGroupsConfig, retryCfg config.RetryConfig, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: cfg.URL,
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: cfg.Timeout(),
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify},
				MaxIdleConns:    defaults.DefaultHTTPMaxIdleConns,
				IdleConnTimeout: defaults.GetHTTPIdleConnTimeout(),
			},
		},
		logger: logging.WithComponent("hsmgroups"),
		retry:  retry.New(retryCfg, "hsmgroups"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// membersResponse mirrors the HSM-group-membership service's member list
// envelope.
type membersResponse struct {
	Label string   `json:"label"`
	IDs   []string `json:"ids"`
}

// request performs an HTTP request against the group service.
func (c *Client) request(ctx context.Context, method, path string, body, target interface{}) error {
	fullURL := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	duration := time.Since(start)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debugw("hsm group request completed",
		"method", method, "path", path, "status_code", resp.StatusCode, "duration", duration)

	if resp.StatusCode == http.StatusNotFound {
		return errGroupNotFound
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("hsm group service error %d: %s", resp.StatusCode, string(respBody))
	}

	if target != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, target); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

var errGroupNotFound = fmt.Errorf("hsm group not found")

// Members implements ports.GroupReader. An unknown group is treated as an
// empty membership rather than an error, so a plan can create a new target
// group from the free pool.
func (c *Client) Members(ctx context.Context, group domain.GroupID) ([]domain.NodeID, error) {
	path := fmt.Sprintf("%s/%s/members", defaults.HSMGroupsMembersPath, group)

	var resp membersResponse
	err := retry.DoVoid(ctx, c.retry, "members", func() error {
		if reqErr := c.request(ctx, http.MethodGet, path, nil, &resp); reqErr != nil {
			if reqErr == errGroupNotFound {
				// Not worth retrying: the group either exists or it
				// doesn't, and won't start existing mid-backoff.
				return backoff.Permanent(reqErr)
			}
			return reqErr
		}
		return nil
	})
	if err != nil {
		if err == errGroupNotFound {
			c.logger.Debugw("group not found, treating as empty membership", "group", string(group))
			return []domain.NodeID{}, nil
		}
		return nil, hsmerrors.NewTransportError(string(group), err)
	}

	ids := make([]domain.NodeID, len(resp.IDs))
	for i, id := range resp.IDs {
		ids[i] = domain.NodeID(id)
	}
	return ids, nil
}

// AddMember adds node to group's membership. The planning core never
// writes; this exists for the CLI's --apply path to realize a Plan.
func (c *Client) AddMember(ctx context.Context, group domain.GroupID, node domain.NodeID) error {
	path := fmt.Sprintf("%s/%s/members", defaults.HSMGroupsMembersPath, group)
	body := map[string]string{"id": string(node)}
	return retry.DoVoid(ctx, c.retry, "add_member", func() error {
		return c.request(ctx, http.MethodPost, path, body, nil)
	})
}

// RemoveMember removes node from group's membership.
func (c *Client) RemoveMember(ctx context.Context, group domain.GroupID, node domain.NodeID) error {
	path := fmt.Sprintf("%s/%s/members/%s", defaults.HSMGroupsMembersPath, group, node)
	return retry.DoVoid(ctx, c.retry, "remove_member", func() error {
		return c.request(ctx, http.MethodDelete, path, nil, nil)
	})
}

// ApplyPlan realizes a domain.Plan against the live service: every node
// moved_out has its old group membership removed and its new one added,
// and vice versa for moved_in. Errors are collected, not short-circuited,
// so a single bad node doesn't abort the whole reconciliation; the caller
// gets back every failure that occurred.
func (c *Client) ApplyPlan(ctx context.Context, plan domain.Plan, originalTarget, originalParent map[domain.NodeID]bool) error {
	multi := &hsmerrors.MultiError{}

	for _, id := range plan.NewTarget {
		if !originalTarget[id] {
			if err := c.AddMember(ctx, plan.TargetGroup, id); err != nil {
				multi.Add(fmt.Errorf("add %s to %s: %w", id, plan.TargetGroup, err))
			}
			if err := c.RemoveMember(ctx, plan.ParentGroup, id); err != nil {
				multi.Add(fmt.Errorf("remove %s from %s: %w", id, plan.ParentGroup, err))
			}
		}
	}
	for _, id := range plan.NewParent {
		if !originalParent[id] {
			if err := c.AddMember(ctx, plan.ParentGroup, id); err != nil {
				multi.Add(fmt.Errorf("add %s to %s: %w", id, plan.ParentGroup, err))
			}
			if err := c.RemoveMember(ctx, plan.TargetGroup, id); err != nil {
				multi.Add(fmt.Errorf("remove %s from %s: %w", id, plan.TargetGroup, err))
			}
		}
	}

	return multi.ErrorOrNil()
}
