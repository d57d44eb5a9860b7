package auth

import "context"

// Mailer delivers account mail (password resets). Implementations must be
// safe to call with an empty recipient.
type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}
