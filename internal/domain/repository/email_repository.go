package repository

import "context"

// EmailRepository delivers alert mail. A nil return means confirmed
// handoff to the provider; only then does a task enter cooldown.
type EmailRepository interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}
