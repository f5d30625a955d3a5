package types

import "github.com/google/uuid"

// State is the conversation state threaded through the decision loop.
// Messages only ever grow at the end.
type State struct {
	// ConversationID correlates logs and metrics for one conversation.
	ConversationID string `json:"conversation_id" yaml:"conversation_id"`

	Messages []*Message `json:"messages" yaml:"messages"`
}

// NewState creates a state holding the given messages in order.
func NewState(messages ...*Message) *State {
	s := &State{
		ConversationID: uuid.New().String(),
		Messages:       make([]*Message, 0, len(messages)),
	}
	s.Messages = append(s.Messages, messages...)
	return s
}

// Append adds messages to the end of the sequence.
func (s *State) Append(messages ...*Message) {
	s.Messages = append(s.Messages, messages...)
}

// Merge returns a new state whose messages are s's followed by other's.
// Neither input is modified; the result keeps s's conversation ID.
func (s *State) Merge(other *State) *State {
	merged := &State{ConversationID: s.ConversationID}
	n := len(s.Messages)
	if other != nil {
		n += len(other.Messages)
	}
	merged.Messages = make([]*Message, 0, n)
	merged.Messages = append(merged.Messages, s.Messages...)
	if other != nil {
		merged.Messages = append(merged.Messages, other.Messages...)
	}
	return merged
}

// Last returns the newest message, or nil for an empty state.
func (s *State) Last() *Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return s.Messages[len(s.Messages)-1]
}

// Len returns the number of messages.
func (s *State) Len() int {
	return len(s.Messages)
}

// Snapshot returns a copy of the message slice. The messages themselves are shared.
func (s *State) Snapshot() []*Message {
	out := make([]*Message, len(s.Messages))
	copy(out, s.Messages)
	return out
}
