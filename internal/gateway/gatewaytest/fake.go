// Package gatewaytest provides an in-memory messaging gateway for tests.
package gatewaytest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/SilverCrocus/slack-pr-bot/internal/domain"
	"github.com/SilverCrocus/slack-pr-bot/internal/gateway"
)

type Message struct {
	Channel   string
	MessageID string
	Text      string
}

// Fake records every call. Error fields, when set, are returned by the matching method.
// Delay makes each call wait, honouring context cancellation.
type Fake struct {
	mu sync.Mutex

	messages map[string]string
	seq      int

	Posts   []Message
	Updates []Message
	Directs []Message
	Fetches int

	Names map[string]string

	PostErr   error
	UpdateErr error
	FetchErr  error
	DirectErr error
	Delay     time.Duration
}

var _ gateway.Gateway = (*Fake)(nil)

func New() *Fake {
	return &Fake{
		messages: make(map[string]string),
		Names:    make(map[string]string),
	}
}

// Seed stores a message as if it had been posted earlier.
func (f *Fake) Seed(channel, messageID, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[channel+"/"+messageID] = text
}

func (f *Fake) Text(channel, messageID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.messages[channel+"/"+messageID]
}

func (f *Fake) PostMessage(ctx context.Context, channel, text string) (gateway.MessageRef, error) {
	if err := f.wait(ctx); err != nil {
		return gateway.MessageRef{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.PostErr != nil {
		return gateway.MessageRef{}, f.PostErr
	}

	f.seq++
	ts := fmt.Sprintf("1700000000.%06d", f.seq)
	f.messages[channel+"/"+ts] = text
	f.Posts = append(f.Posts, Message{Channel: channel, MessageID: ts, Text: text})

	return gateway.MessageRef{Channel: channel, MessageID: ts}, nil
}

func (f *Fake) UpdateMessage(ctx context.Context, channel, messageID, text string) error {
	if err := f.wait(ctx); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.UpdateErr != nil {
		return f.UpdateErr
	}

	f.messages[channel+"/"+messageID] = text
	f.Updates = append(f.Updates, Message{Channel: channel, MessageID: messageID, Text: text})
	return nil
}

func (f *Fake) FetchMessage(ctx context.Context, channel, messageID string) (string, error) {
	if err := f.wait(ctx); err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.Fetches++
	if f.FetchErr != nil {
		return "", f.FetchErr
	}

	text, ok := f.messages[channel+"/"+messageID]
	if !ok {
		return "", fmt.Errorf("%w: %s/%s", domain.ErrNotFound, channel, messageID)
	}

	return text, nil
}

func (f *Fake) ResolveDisplayName(_ context.Context, handle string) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if name, ok := f.Names[handle]; ok {
		return name
	}
	return "Unknown User"
}

func (f *Fake) SendDirect(ctx context.Context, handle, text string) error {
	if err := f.wait(ctx); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.DirectErr != nil {
		return f.DirectErr
	}

	f.Directs = append(f.Directs, Message{Channel: handle, Text: text})
	return nil
}

// Counts returns the number of posts, updates and direct messages recorded so far.
func (f *Fake) Counts() (posts, updates, directs int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Posts), len(f.Updates), len(f.Directs)
}

func (f *Fake) wait(ctx context.Context) error {
	if f.Delay == 0 {
		return nil
	}

	timer := time.NewTimer(f.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", domain.ErrGateway, ctx.Err())
	case <-timer.C:
		return nil
	}
}
