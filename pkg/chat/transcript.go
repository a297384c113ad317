package chat

// Transcript is an append-only ordered sequence of messages. The zero value
// is empty and ready to use.
type Transcript struct {
	messages []Message
	lastID   uint64
}

// NewTranscript builds a transcript from previously stored messages. IDs
// are re-issued in order so they stay strictly increasing.
func NewTranscript(seed []Message) Transcript {
	var t Transcript
	for _, msg := range seed {
		t, _ = t.Append(msg)
	}
	return t
}

// Append returns a transcript with msg added and the stored message with
// its assigned ID. The receiver is left unchanged.
func (t Transcript) Append(msg Message) (Transcript, Message) {
	msg.ID = t.lastID + 1

	messages := make([]Message, len(t.messages)+1)
	copy(messages, t.messages)
	messages[len(t.messages)] = msg

	return Transcript{messages: messages, lastID: msg.ID}, msg
}

// Messages returns a copy of the entries in insertion order
func (t Transcript) Messages() []Message {
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

func (t Transcript) Len() int {
	return len(t.messages)
}

func (t Transcript) Last() (Message, bool) {
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}

// After returns the entries appended after the message with the given ID
func (t Transcript) After(id uint64) []Message {
	for i, msg := range t.messages {
		if msg.ID > id {
			out := make([]Message, len(t.messages)-i)
			copy(out, t.messages[i:])
			return out
		}
	}
	return nil
}
