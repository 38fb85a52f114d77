package llmclient

import "context"

// Bound ties a client to a single model host and temperature, presenting the
// host-free call surface the agent consumes.
type Bound struct {
	client      *Client
	host        string
	temperature float64
}

func (c *Client) Bind(host string, temperature float64) *Bound {
	return &Bound{client: c, host: host, temperature: temperature}
}

func (b *Bound) Chat(ctx context.Context, messages []Message) (string, error) {
	return b.client.Chat(ctx, b.host, messages, &b.temperature)
}

func (b *Bound) ChatWithTools(ctx context.Context, messages []Message, tools []Tool) (Message, error) {
	return b.client.ChatWithTools(ctx, b.host, messages, tools, &b.temperature)
}
