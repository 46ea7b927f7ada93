package deployment

import (
	"fmt"
	"strings"
	"time"
)

// Payload is the body accepted by the Compass events endpoint
type Payload struct {
	CloudID     string       `json:"cloudId"`
	ComponentID string       `json:"componentId,omitempty"`
	Event       EventPayload `json:"event"`
}

type EventPayload struct {
	Deployment DeploymentPayload `json:"deployment"`
}

type DeploymentPayload struct {
	UpdateSequenceNumber  int64                `json:"updateSequenceNumber"`
	DisplayName           string               `json:"displayName"`
	Description           string               `json:"description"`
	URL                   string               `json:"url"`
	LastUpdated           string               `json:"lastUpdated"`
	ExternalEventSourceID string               `json:"externalEventSourceId"`
	Properties            DeploymentProperties `json:"deploymentProperties"`
}

type DeploymentProperties struct {
	SequenceNumber int64              `json:"sequenceNumber"`
	State          State              `json:"state"`
	Pipeline       PipelinePayload    `json:"pipeline"`
	Environment    EnvironmentPayload `json:"environment"`
	StartedAt      string             `json:"startedAt"`
	CompletedAt    string             `json:"completedAt,omitempty"`
}

type PipelinePayload struct {
	PipelineID  string `json:"pipelineId"`
	URL         string `json:"url"`
	DisplayName string `json:"displayName"`
}

type EnvironmentPayload struct {
	DisplayName   string   `json:"displayName"`
	EnvironmentID string   `json:"environmentId"`
	Category      Category `json:"category"`
}

// BuildPayload serializes event for installation. eventSourceID is the external
// event source the event is filed under.
func BuildPayload(run Run, inst Installation, event Event, eventSourceID string) Payload {
	props := DeploymentProperties{
		SequenceNumber: event.SequenceNumber,
		State:          event.State,
		Pipeline: PipelinePayload{
			PipelineID:  event.PipelineID,
			URL:         event.URL,
			DisplayName: event.PipelineDisplayName,
		},
		Environment: EnvironmentPayload{
			DisplayName:   run.Environment,
			EnvironmentID: string(run.Category),
			Category:      run.Category,
		},
		StartedAt: formatTime(event.StartedAt),
	}
	if event.CompletedAt != nil {
		props.CompletedAt = formatTime(*event.CompletedAt)
	}

	return Payload{
		CloudID:     inst.CloudID,
		ComponentID: inst.ComponentID,
		Event: EventPayload{
			Deployment: DeploymentPayload{
				UpdateSequenceNumber:  event.SequenceNumber,
				DisplayName:           event.DisplayName,
				Description:           event.Description,
				URL:                   event.URL,
				LastUpdated:           formatTime(event.LastUpdated),
				ExternalEventSourceID: eventSourceID,
				Properties:            props,
			},
		},
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// Validate checks that the payload carries every field Compass needs to link
// the event to the run's other events.
func (p Payload) Validate(run Run) error {
	d := p.Event.Deployment
	props := d.Properties

	required := []struct {
		name  string
		value string
	}{
		{"cloudId", p.CloudID},
		{"componentId", p.ComponentID},
		{"event.deployment.displayName", d.DisplayName},
		{"event.deployment.description", d.Description},
		{"event.deployment.url", d.URL},
		{"event.deployment.lastUpdated", d.LastUpdated},
		{"event.deployment.externalEventSourceId", d.ExternalEventSourceID},
		{"event.deployment.deploymentProperties.pipeline.pipelineId", props.Pipeline.PipelineID},
		{"event.deployment.deploymentProperties.pipeline.url", props.Pipeline.URL},
		{"event.deployment.deploymentProperties.pipeline.displayName", props.Pipeline.DisplayName},
		{"event.deployment.deploymentProperties.environment.displayName", props.Environment.DisplayName},
		{"event.deployment.deploymentProperties.environment.environmentId", props.Environment.EnvironmentID},
		{"event.deployment.deploymentProperties.environment.category", string(props.Environment.Category)},
		{"event.deployment.deploymentProperties.startedAt", props.StartedAt},
	}

	var missing []string
	for _, field := range required {
		if field.value == "" {
			missing = append(missing, field.name)
		}
	}
	if d.UpdateSequenceNumber == 0 || props.SequenceNumber == 0 {
		missing = append(missing, "event.deployment.updateSequenceNumber")
	}
	if props.State.Terminal() && props.CompletedAt == "" {
		missing = append(missing, "event.deployment.deploymentProperties.completedAt")
	}
	if len(missing) > 0 {
		return fmt.Errorf("payload validation failed for %s event: missing required fields: %s",
			props.State, strings.Join(missing, ", "))
	}

	switch props.State {
	case StateInProgress:
		if props.CompletedAt != "" {
			return fmt.Errorf("payload validation failed: IN_PROGRESS event must not carry completedAt")
		}
	case StateSuccessful, StateFailed:
	default:
		return fmt.Errorf("invalid deployment state: %q", props.State)
	}

	if props.Pipeline.PipelineID != run.ID {
		return fmt.Errorf("pipeline ID mismatch: expected %s, got %s", run.ID, props.Pipeline.PipelineID)
	}
	if d.URL != props.Pipeline.URL {
		return fmt.Errorf("deployment URL %s does not match pipeline URL %s", d.URL, props.Pipeline.URL)
	}
	return nil
}
