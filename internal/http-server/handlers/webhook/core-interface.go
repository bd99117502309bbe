package webhook

import "context"

type Core interface {
	ProcessWebhook(ctx context.Context, source string, body []byte) error
}
