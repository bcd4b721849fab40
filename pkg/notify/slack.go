// Package notify posts run summaries to the admin Slack channel.
package notify

import (
	"fmt"
	"strings"

	"github.com/slack-go/slack"
)

// SlackNotifier sends a short summary after each persisting run. It is an
// optional collaborator: callers log and ignore its errors, never abort.
type SlackNotifier struct {
	api     *slack.Client
	channel string
}

// NewSlackNotifier creates a notifier posting to the given channel.
func NewSlackNotifier(token, channel string) *SlackNotifier {
	return &SlackNotifier{
		api:     slack.New(token),
		channel: channel,
	}
}

// RunSummary posts the outcome of one run: the titles that were added, or
// an explicit zero-threads note.
func (n *SlackNotifier) RunSummary(titles []string) error {
	var sb strings.Builder
	if len(titles) == 0 {
		sb.WriteString("Weekly thread generation finished: no new threads were added.")
	} else {
		fmt.Fprintf(&sb, "Weekly thread generation added %d thread(s):\n", len(titles))
		for i, title := range titles {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, title)
		}
	}

	_, _, err := n.api.PostMessage(
		n.channel,
		slack.MsgOptionText(strings.TrimRight(sb.String(), "\n"), false),
	)
	if err != nil {
		return fmt.Errorf("post run summary: %w", err)
	}
	return nil
}
