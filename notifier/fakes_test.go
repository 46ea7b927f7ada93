package notifier

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/imranansari/dev-scripts/compass"
	"github.com/imranansari/dev-scripts/deployment"
	"github.com/imranansari/dev-scripts/process"
	"github.com/imranansari/dev-scripts/process/processtest"
)

// timeline records remote calls and commands in the order they happened
type timeline struct {
	mu      sync.Mutex
	entries []string
}

func (t *timeline) add(entry string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, entry)
}

func (t *timeline) all() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.entries...)
}

// recordingRunner forwards to a scripted runner and notes each command
type recordingRunner struct {
	*processtest.Fake
	timeline *timeline
}

func (r recordingRunner) Run(ctx context.Context, name string, args ...string) (process.Result, error) {
	result, err := r.Fake.Run(ctx, name, args...)
	r.timeline.add(name + " " + strings.Join(args, " "))
	return result, err
}

type sentEvent struct {
	CloudID string
	Payload deployment.Payload
	Err     error
}

// fakeCompass keys sites by host and cloud IDs by site
type fakeCompass struct {
	timeline *timeline

	cloudIDs   map[string]string
	components map[string]string

	// sendErrs queues errors per cloud ID; each send consumes one
	sendErrs  map[string][]error
	ensureErr error

	findCalls int
	sent      []sentEvent
	ensured   []string
}

func newFakeCompass(tl *timeline) *fakeCompass {
	return &fakeCompass{
		timeline:   tl,
		cloudIDs:   map[string]string{},
		components: map[string]string{},
		sendErrs:   map[string][]error{},
	}
}

// addSite registers a site with a cloud ID and, when componentID is set, the component
func (f *fakeCompass) addSite(site, cloudID, componentID string) {
	f.cloudIDs[site] = cloudID
	if componentID != "" {
		f.components[deployment.SiteHost(site)] = componentID
	}
}

func (f *fakeCompass) CloudID(_ context.Context, siteURL string) (string, error) {
	id, ok := f.cloudIDs[siteURL]
	if !ok {
		return "", fmt.Errorf("tenant info for %s: HTTP 404", siteURL)
	}
	return id, nil
}

func (f *fakeCompass) FindComponentBySlug(_ context.Context, siteURL, _, slug string) (string, error) {
	f.findCalls++
	id, ok := f.components[siteURL]
	if !ok {
		return "", fmt.Errorf("no component with slug %q: %w", slug, compass.ErrComponentNotFound)
	}
	return id, nil
}

func (f *fakeCompass) SendEvent(_ context.Context, payload deployment.Payload) error {
	var err error
	if queue := f.sendErrs[payload.CloudID]; len(queue) > 0 {
		err, f.sendErrs[payload.CloudID] = queue[0], queue[1:]
	}
	state := payload.Event.Deployment.Properties.State
	f.sent = append(f.sent, sentEvent{CloudID: payload.CloudID, Payload: payload, Err: err})
	if f.timeline != nil {
		f.timeline.add("event " + string(state))
	}
	return err
}

func (f *fakeCompass) EnsureEventSource(_ context.Context, inst deployment.Installation, externalSourceID string) error {
	f.ensured = append(f.ensured, inst.CloudID+"/"+externalSourceID)
	return f.ensureErr
}

// attempts returns the sends of state in order
func (f *fakeCompass) attempts(state deployment.State) []sentEvent {
	var out []sentEvent
	for _, s := range f.sent {
		if s.Payload.Event.Deployment.Properties.State == state {
			out = append(out, s)
		}
	}
	return out
}

func eventSourceMissing() error {
	return &compass.APIError{
		Method:     "POST",
		URL:        "https://api.atlassian.com/compass/v1/events",
		StatusCode: 404,
		Body:       `{"errors":[{"type":"CREATE_EVENT_SOURCE_NOT_FOUND"}]}`,
		Errors:     []compass.APIErrorDetail{{Type: compass.ErrorTypeEventSourceNotFound}},
	}
}

func serverError() error {
	return &compass.APIError{Method: "POST", URL: "https://api.atlassian.com/compass/v1/events", StatusCode: 500, Body: "boom"}
}
