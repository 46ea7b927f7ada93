package compass

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/imranansari/dev-scripts/deployment"
)

const componentsByReferencesQuery = `
query getComponentsByReferences($references: [ComponentReferenceInput!]!) {
  compass {
    componentsByReferences(references: $references) {
      __typename
      ... on CompassComponent {
        id
        name
        typeId
        slug
      }
    }
  }
}`

const createEventSourceMutation = `
mutation createEventSource($input: CreateEventSourceInput!) {
  compass {
    createEventSource(input: $input) {
      success
      eventSource {
        id
      }
      errors {
        message
      }
    }
  }
}`

const attachEventSourceMutation = `
mutation attachEventSource($input: AttachEventSourceInput!) {
  compass {
    attachEventSource(input: $input) {
      success
      errors {
        message
      }
    }
  }
}`

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type mutationError struct {
	Message string `json:"message"`
}

// graphQLEndpoint returns the gateway endpoint of a site
func graphQLEndpoint(siteURL string) string {
	return deployment.SiteBaseURL(siteURL) + "gateway/api/graphql"
}

// query runs a GraphQL operation against siteURL and decodes data into out.
// Errors alongside data are logged; errors without data fail the call.
func (c *Client) query(ctx context.Context, siteURL, operation, query string, variables map[string]any, out any) error {
	body, _, err := c.postJSON(ctx, graphQLEndpoint(siteURL), graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("graphql %s: %w", operation, err)
	}

	var resp graphQLResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("failed to decode graphql %s response: %w", operation, err)
	}

	if len(resp.Errors) > 0 {
		gqlErr := &GraphQLError{Operation: operation}
		for _, e := range resp.Errors {
			gqlErr.Messages = append(gqlErr.Messages, e.Message)
		}
		if len(resp.Data) == 0 || string(resp.Data) == "null" {
			return gqlErr
		}
		c.logger.Warn().Err(gqlErr).Str("site_url", siteURL).Msg("GraphQL API returned errors")
	}

	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return fmt.Errorf("graphql %s returned no data", operation)
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to decode graphql %s data: %w", operation, err)
	}
	return nil
}

// FindComponentBySlug returns the ID of the component with slug on the site
func (c *Client) FindComponentBySlug(ctx context.Context, siteURL, cloudID, slug string) (string, error) {
	variables := map[string]any{
		"references": []map[string]any{
			{"slug": map[string]string{"slug": slug, "cloudId": cloudID}},
		},
	}

	var data struct {
		Compass struct {
			ComponentsByReferences []struct {
				Typename string `json:"__typename"`
				ID       string `json:"id"`
				Slug     string `json:"slug"`
			} `json:"componentsByReferences"`
		} `json:"compass"`
	}
	if err := c.query(ctx, siteURL, "componentsByReferences", componentsByReferencesQuery, variables, &data); err != nil {
		return "", err
	}

	components := data.Compass.ComponentsByReferences
	if len(components) == 0 {
		return "", fmt.Errorf("no component with slug %q: %w", slug, ErrComponentNotFound)
	}

	// Only one component can match a slug reference
	component := components[0]
	if component.Typename != "CompassComponent" {
		return "", fmt.Errorf("component query for %q returned unexpected type %s", slug, component.Typename)
	}
	if component.ID == "" {
		return "", fmt.Errorf("component %q has no id: %w", slug, ErrComponentNotFound)
	}

	c.logger.Debug().Str("slug", slug).Str("component_id", component.ID).Msg("Found component")
	return component.ID, nil
}

// CreateEventSource registers a DEPLOYMENT event source and returns its ID
func (c *Client) CreateEventSource(ctx context.Context, siteURL, cloudID, externalSourceID string) (string, error) {
	variables := map[string]any{
		"input": map[string]string{
			"cloudId":               cloudID,
			"eventType":             "DEPLOYMENT",
			"externalEventSourceId": externalSourceID,
		},
	}

	var data struct {
		Compass struct {
			CreateEventSource struct {
				Success     bool `json:"success"`
				EventSource *struct {
					ID string `json:"id"`
				} `json:"eventSource"`
				Errors []mutationError `json:"errors"`
			} `json:"createEventSource"`
		} `json:"compass"`
	}
	if err := c.query(ctx, siteURL, "createEventSource", createEventSourceMutation, variables, &data); err != nil {
		return "", err
	}

	result := data.Compass.CreateEventSource
	if len(result.Errors) > 0 {
		return "", mutationFailure("createEventSource", result.Errors)
	}
	if !result.Success || result.EventSource == nil || result.EventSource.ID == "" {
		return "", fmt.Errorf("createEventSource did not return an event source")
	}
	return result.EventSource.ID, nil
}

// AttachEventSource attaches an existing event source to a component
func (c *Client) AttachEventSource(ctx context.Context, siteURL, eventSourceID, componentID string) error {
	variables := map[string]any{
		"input": map[string]string{
			"eventSourceId": eventSourceID,
			"componentId":   componentID,
		},
	}

	var data struct {
		Compass struct {
			AttachEventSource struct {
				Success bool            `json:"success"`
				Errors  []mutationError `json:"errors"`
			} `json:"attachEventSource"`
		} `json:"compass"`
	}
	if err := c.query(ctx, siteURL, "attachEventSource", attachEventSourceMutation, variables, &data); err != nil {
		return err
	}

	result := data.Compass.AttachEventSource
	if len(result.Errors) > 0 {
		return mutationFailure("attachEventSource", result.Errors)
	}
	if !result.Success {
		return fmt.Errorf("attachEventSource was not successful")
	}
	return nil
}

// EnsureEventSource creates the deployment event source for a component and
// attaches it, so events tagged with externalSourceID are accepted.
func (c *Client) EnsureEventSource(ctx context.Context, inst deployment.Installation, externalSourceID string) error {
	c.logger.Info().
		Str("site_url", inst.SiteURL).
		Str("external_event_source_id", externalSourceID).
		Msg("Creating deployment event source")

	eventSourceID, err := c.CreateEventSource(ctx, inst.SiteURL, inst.CloudID, externalSourceID)
	if err != nil {
		return fmt.Errorf("failed to create event source: %w", err)
	}

	c.logger.Info().Str("event_source_id", eventSourceID).Msg("Attaching event source to component")

	if err := c.AttachEventSource(ctx, inst.SiteURL, eventSourceID, inst.ComponentID); err != nil {
		return fmt.Errorf("failed to attach event source %s: %w", eventSourceID, err)
	}

	c.logger.Info().Str("event_source_id", eventSourceID).Msg("Event source attached")
	return nil
}

func mutationFailure(operation string, errs []mutationError) error {
	gqlErr := &GraphQLError{Operation: operation}
	for _, e := range errs {
		gqlErr.Messages = append(gqlErr.Messages, e.Message)
	}
	return gqlErr
}
