//go:build e2e

package e2e

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trenddesk/trenddesk/pkg/client"
)

// TestAuth_UnauthenticatedRead tests that read endpoints work without authentication
func TestAuth_UnauthenticatedRead(t *testing.T) {
	apiKey := createTestAPIKey(t, testCtx.Store, "test-auth-read")
	authedClient := newClient(testCtx.TestServer, apiKey)
	project := submitProject(t, authedClient, "Auth Read Test", "ART", "", "100001")

	unauthedClient := newClient(testCtx.TestServer, "")

	t.Run("list projects without auth", func(t *testing.T) {
		projects, err := unauthedClient.ListProjects(context.Background())
		require.NoError(t, err)
		assert.NotEmpty(t, projects)
	})

	t.Run("get project without auth", func(t *testing.T) {
		got, err := unauthedClient.GetProject(context.Background(), project.ID)
		require.NoError(t, err)
		assert.Equal(t, "Auth Read Test", got.Name)
	})

	t.Run("leaderboard without auth", func(t *testing.T) {
		_, err := unauthedClient.Leaderboard(context.Background(), 10)
		require.NoError(t, err)
	})
}

// TestAuth_WriteRequiresKey tests that write endpoints reject missing or bad keys
func TestAuth_WriteRequiresKey(t *testing.T) {
	t.Run("submit without key", func(t *testing.T) {
		unauthedClient := newClient(testCtx.TestServer, "")
		_, err := unauthedClient.Submit(context.Background(), client.SubmitRequest{
			Name:        "No Key",
			Symbol:      "NK",
			SubmittedBy: "100002",
		})
		require.Error(t, err)

		var apiErr *client.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "UNAUTHORIZED", apiErr.Code)
	})

	t.Run("submit with invalid key", func(t *testing.T) {
		badClient := newClient(testCtx.TestServer, "td_key_invalid")
		_, err := badClient.Submit(context.Background(), client.SubmitRequest{
			Name:        "Bad Key",
			Symbol:      "BK",
			SubmittedBy: "100003",
		})
		require.Error(t, err)

		var apiErr *client.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "UNAUTHORIZED", apiErr.Code)
	})

	t.Run("revoked key stops working", func(t *testing.T) {
		ctx := context.Background()
		key := createTestAPIKey(t, testCtx.Store, "test-auth-revoked")

		keys, err := testCtx.Store.ListAPIKeys(ctx)
		require.NoError(t, err)
		for _, k := range keys {
			if k.Name == "test-auth-revoked" {
				require.NoError(t, testCtx.Store.RevokeAPIKey(ctx, k.ID))
			}
		}

		revokedClient := newClient(testCtx.TestServer, key)
		_, err = revokedClient.Submit(ctx, client.SubmitRequest{
			Name:        "Revoked Key",
			Symbol:      "RK",
			SubmittedBy: "100004",
		})
		require.Error(t, err)
	})
}
