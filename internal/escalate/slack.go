package escalate

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Slack notifies an on-call channel through a Slack incoming webhook.
// It places no call, so a delivered notice is reported as success.
type Slack struct {
	webhookURL string
	client     *http.Client
}

// NewSlack creates a Slack action layer with a 10s client timeout
func NewSlack(webhookURL string) *Slack {
	return NewSlackWithClient(webhookURL, defaultHTTPClient())
}

// NewSlackWithClient creates a Slack action layer using client
func NewSlackWithClient(webhookURL string, client *http.Client) *Slack {
	return &Slack{webhookURL: webhookURL, client: client}
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackBlock struct {
	Type     string      `json:"type"`
	Text     *slackText  `json:"text,omitempty"`
	Elements []slackText `json:"elements,omitempty"`
}

type slackMessage struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

// notice renders ec as a Slack message. The plain text is what shows up
// in push notifications.
func notice(ec EmergencyContext) slackMessage {
	concern := strings.ReplaceAll(ec.Reason, "_", " ")

	details := []slackText{{Type: "mrkdwn", Text: fmt.Sprintf("*confidence:* %.2f", ec.Confidence)}}
	if len(ec.Symptoms) > 0 {
		details = append(details, slackText{Type: "mrkdwn", Text: "*symptoms:* " + strings.Join(ec.Symptoms, ", ")})
	}

	return slackMessage{
		Text: fmt.Sprintf(":rotating_light: *[%s]* %s", ec.Risk, concern),
		Blocks: []slackBlock{
			{Type: "section", Text: &slackText{Type: "mrkdwn", Text: fmt.Sprintf("*High-risk symptoms: %s*\n> %s", concern, ec.Transcript)}},
			{Type: "context", Elements: details},
		},
	}
}

// Trigger posts the emergency notice
func (s *Slack) Trigger(ctx context.Context, ec EmergencyContext) (CallStatus, error) {
	resp, err := postJSON(ctx, s.client, "slack webhook", s.webhookURL, notice(ec))
	if err != nil {
		return CallStatus{}, err
	}
	resp.Body.Close()
	return CallStatus{Status: StatusSuccess, Message: "On-call channel notified"}, nil
}

// Name returns "slack"
func (s *Slack) Name() string {
	return "slack"
}
