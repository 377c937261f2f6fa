package hsmgroups

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/hsm-rebalance/internal/config"
	"github.com/yourusername/hsm-rebalance/internal/domain"
	"github.com/yourusername/hsm-rebalance/pkg/logging"
)

func init() {
	_ = logging.Init(logging.Config{Level: "error", Format: "console"})
}

func mockGroupServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		handler(w, r)
	}))
}

func noRetry() config.RetryConfig {
	return config.RetryConfig{MaxAttempts: 1, BaseDelay: "1ms", MaxDelay: "1ms"}
}

func TestClient_Members_Found(t *testing.T) {
	server := mockGroupServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/hsm/v2/groups/zinal/members", r.URL.Path)
		_ = json.NewEncoder(w).Encode(membersResponse{Label: "zinal", IDs: []string{"n2", "n1"}})
	})
	defer server.Close()

	client := NewClient(config.HSMGroupsConfig{URL: server.URL, Token: "test-token"}, noRetry())
	members, err := client.Members(context.Background(), domain.GroupID("zinal"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.NodeID{"n1", "n2"}, members)
}

func TestClient_Members_UnknownGroupIsEmpty(t *testing.T) {
	server := mockGroupServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	defer server.Close()

	client := NewClient(config.HSMGroupsConfig{URL: server.URL, Token: "test-token"}, noRetry())
	members, err := client.Members(context.Background(), domain.GroupID("does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestClient_AddAndRemoveMember(t *testing.T) {
	var addedPath, removedPath string
	server := mockGroupServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			addedPath = r.URL.Path
		case http.MethodDelete:
			removedPath = r.URL.Path
		}
		w.WriteHeader(http.StatusOK)
	})
	defer server.Close()

	client := NewClient(config.HSMGroupsConfig{URL: server.URL, Token: "test-token"}, noRetry())
	require.NoError(t, client.AddMember(context.Background(), "zinal", "n3"))
	require.NoError(t, client.RemoveMember(context.Background(), "free", "n3"))

	assert.Equal(t, "/hsm/v2/groups/zinal/members", addedPath)
	assert.Equal(t, "/hsm/v2/groups/free/members/n3", removedPath)
}

func TestClient_ApplyPlan_OnlyTouchesMovedNodes(t *testing.T) {
	var posts, deletes []string
	server := mockGroupServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			posts = append(posts, r.URL.Path)
		case http.MethodDelete:
			deletes = append(deletes, r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	})
	defer server.Close()

	client := NewClient(config.HSMGroupsConfig{URL: server.URL, Token: "test-token"}, noRetry())

	plan := domain.Plan{
		TargetGroup: "zinal",
		ParentGroup: "free",
		NewTarget:   []domain.NodeID{"n1", "n3"},
		NewParent:   []domain.NodeID{"n2"},
	}
	originalTarget := map[domain.NodeID]bool{"n1": true, "n2": true}
	originalParent := map[domain.NodeID]bool{"n3": true}

	require.NoError(t, client.ApplyPlan(context.Background(), plan, originalTarget, originalParent))

	assert.ElementsMatch(t, []string{"/hsm/v2/groups/zinal/members", "/hsm/v2/groups/free/members"}, posts)
	assert.ElementsMatch(t, []string{"/hsm/v2/groups/free/members/n3", "/hsm/v2/groups/zinal/members/n2"}, deletes)
}
