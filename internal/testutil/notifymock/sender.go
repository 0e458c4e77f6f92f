package notifymock

import (
	"context"
	"sync"
)

type Message struct {
	To   string
	Code string
}

// Sender records every code it is asked to send. Set Err to simulate a
// delivery failure.
type Sender struct {
	ChannelName string
	Err         error

	mu   sync.Mutex
	sent []Message
}

func (s *Sender) Channel() string {
	if s.ChannelName == "" {
		return "email"
	}
	return s.ChannelName
}

func (s *Sender) SendCode(_ context.Context, to, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, Message{To: to, Code: code})
	return s.Err
}

func (s *Sender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.sent...)
}

// Last returns the most recent message, or the zero Message.
func (s *Sender) Last() Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return Message{}
	}
	return s.sent[len(s.sent)-1]
}
