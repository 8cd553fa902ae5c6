package bot

import "context"

// Store is the durable persistence collaborator. The registry treats it as a
// transactional key-value store keyed by bot id; transactions and events are
// append-only.
type Store interface {
	SaveBot(ctx context.Context, b *Bot) error
	AppendTransaction(ctx context.Context, botID string, tx Transaction) error
	AppendEvent(ctx context.Context, botID string, ev Event) error
	GetBot(ctx context.Context, id string) (*Bot, error)
	ListBots(ctx context.Context, userID string) ([]*Bot, error)
	ListActiveBots(ctx context.Context) ([]*Bot, error)
}
