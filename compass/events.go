package compass

import (
	"context"
	"fmt"

	"github.com/imranansari/dev-scripts/deployment"
)

// SendEvent posts a deployment event. Both 200 and 202 count as accepted.
func (c *Client) SendEvent(ctx context.Context, payload deployment.Payload) error {
	props := payload.Event.Deployment.Properties
	c.logger.Debug().
		Str("cloud_id", payload.CloudID).
		Str("state", string(props.State)).
		Int64("sequence_number", props.SequenceNumber).
		Str("pipeline_id", props.Pipeline.PipelineID).
		Msg("Sending deployment event")

	if _, _, err := c.postJSON(ctx, c.eventsURL, payload); err != nil {
		return fmt.Errorf("failed to send %s event: %w", props.State, err)
	}
	return nil
}
