package compass

import (
	"context"
	"net/http"
	"testing"

	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imranansari/dev-scripts/deployment"
)

func TestFindComponentBySlug(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		response map[string]any
		wantID   string
		wantErr  string
		notFound bool
	}{
		{
			name:   "component found",
			status: http.StatusOK,
			response: map[string]any{"data": map[string]any{"compass": map[string]any{
				"componentsByReferences": []map[string]any{
					{"__typename": "CompassComponent", "id": "comp-1", "slug": "svc-a"},
				},
			}}},
			wantID: "comp-1",
		},
		{
			name:   "no components",
			status: http.StatusOK,
			response: map[string]any{"data": map[string]any{"compass": map[string]any{
				"componentsByReferences": []map[string]any{},
			}}},
			wantErr:  "no component with slug",
			notFound: true,
		},
		{
			name:   "unexpected type",
			status: http.StatusOK,
			response: map[string]any{"data": map[string]any{"compass": map[string]any{
				"componentsByReferences": []map[string]any{{"__typename": "QueryError"}},
			}}},
			wantErr: "unexpected type QueryError",
		},
		{
			name:     "errors without data",
			status:   http.StatusOK,
			response: map[string]any{"data": nil, "errors": []map[string]string{{"message": "forbidden"}}},
			wantErr:  "graphql componentsByReferences failed: forbidden",
		},
		{
			name:     "unauthorized",
			status:   http.StatusUnauthorized,
			response: map[string]any{"message": "Unauthorized"},
			wantErr:  "HTTP 401",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer gock.Off()

			gock.New(siteHost).
				Post("/gateway/api/graphql").
				MatchHeader("Authorization", basicAuth).
				BodyString(`"slug":"svc-a"`).
				Reply(tt.status).
				JSON(tt.response)

			id, err := newTestClient().FindComponentBySlug(context.Background(), "https://acme.atlassian.net/", "cloud-1", "svc-a")
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Equal(t, tt.notFound, IsComponentNotFound(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id)
			assert.True(t, gock.IsDone())
		})
	}
}

func TestFindComponentBySlug_PartialErrorsStillReturnData(t *testing.T) {
	defer gock.Off()

	gock.New(siteHost).
		Post("/gateway/api/graphql").
		Reply(http.StatusOK).
		JSON(map[string]any{
			"data": map[string]any{"compass": map[string]any{
				"componentsByReferences": []map[string]any{
					{"__typename": "CompassComponent", "id": "comp-1"},
				},
			}},
			"errors": []map[string]string{{"message": "deprecated field"}},
		})

	id, err := newTestClient().FindComponentBySlug(context.Background(), "acme.atlassian.net", "cloud-1", "svc-a")
	require.NoError(t, err)
	assert.Equal(t, "comp-1", id)
}

func TestEnsureEventSource(t *testing.T) {
	defer gock.Off()

	gock.New(siteHost).
		Post("/gateway/api/graphql").
		BodyString(`"externalEventSourceId":"forge_cli"`).
		Reply(http.StatusOK).
		JSON(map[string]any{"data": map[string]any{"compass": map[string]any{
			"createEventSource": map[string]any{"success": true, "eventSource": map[string]string{"id": "es-1"}},
		}}})
	gock.New(siteHost).
		Post("/gateway/api/graphql").
		BodyString(`"eventSourceId":"es-1"`).
		Reply(http.StatusOK).
		JSON(map[string]any{"data": map[string]any{"compass": map[string]any{
			"attachEventSource": map[string]any{"success": true},
		}}})

	inst := deployment.Installation{SiteURL: "https://acme.atlassian.net", CloudID: "cloud-1", ComponentID: "comp-1"}
	require.NoError(t, newTestClient().EnsureEventSource(context.Background(), inst, "forge_cli"))
	assert.True(t, gock.IsDone())
}

func TestEnsureEventSource_Failures(t *testing.T) {
	inst := deployment.Installation{SiteURL: "acme.atlassian.net", CloudID: "cloud-1", ComponentID: "comp-1"}

	t.Run("create reports errors", func(t *testing.T) {
		defer gock.Off()
		gock.New(siteHost).
			Post("/gateway/api/graphql").
			Reply(http.StatusOK).
			JSON(map[string]any{"data": map[string]any{"compass": map[string]any{
				"createEventSource": map[string]any{
					"success": false,
					"errors":  []map[string]string{{"message": "already exists"}},
				},
			}}})

		err := newTestClient().EnsureEventSource(context.Background(), inst, "forge_cli")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create event source")
		assert.Contains(t, err.Error(), "already exists")
	})

	t.Run("attach unsuccessful", func(t *testing.T) {
		defer gock.Off()
		gock.New(siteHost).
			Post("/gateway/api/graphql").
			BodyString("createEventSource").
			Reply(http.StatusOK).
			JSON(map[string]any{"data": map[string]any{"compass": map[string]any{
				"createEventSource": map[string]any{"success": true, "eventSource": map[string]string{"id": "es-9"}},
			}}})
		gock.New(siteHost).
			Post("/gateway/api/graphql").
			BodyString("attachEventSource").
			Reply(http.StatusOK).
			JSON(map[string]any{"data": map[string]any{"compass": map[string]any{
				"attachEventSource": map[string]any{"success": false},
			}}})

		err := newTestClient().EnsureEventSource(context.Background(), inst, "forge_cli")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to attach event source es-9")
	})
}
