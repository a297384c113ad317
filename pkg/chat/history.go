package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Store persists transcript entries as they are appended
type Store interface {
	Append(msg Message) error
}

// History is a Store backed by a JSON file
type History struct {
	Messages  []Message
	SessionID string
	mu        sync.RWMutex
	filePath  string
}

var _ Store = (*History)(nil)

// NewHistory opens the history file at filePath, loading it when present
func NewHistory(filePath string) (*History, error) {
	h := &History{
		Messages: make([]Message, 0),
		filePath: filePath,
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	if err := h.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	return h, nil
}

// Path returns the backing file
func (h *History) Path() string {
	return h.filePath
}

// Append adds a message to the end of the file. Entries written by other
// handles since the last read are kept.
func (h *History) Append(msg Message) error {
	return h.update(func(f *historyFile) {
		f.Messages = append(f.Messages, msg)
	})
}

// SetSessionID records the session the stored messages belong to
func (h *History) SetSessionID(id string) error {
	return h.update(func(f *historyFile) {
		f.SessionID = id
	})
}

// GetMessages returns all stored messages
func (h *History) GetMessages() []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()

	msgs := make([]Message, len(h.Messages))
	copy(msgs, h.Messages)
	return msgs
}

// GetLastN returns the last n stored messages
func (h *History) GetLastN(n int) []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if n <= 0 || len(h.Messages) == 0 {
		return []Message{}
	}
	if n > len(h.Messages) {
		n = len(h.Messages)
	}

	result := make([]Message, n)
	copy(result, h.Messages[len(h.Messages)-n:])
	return result
}

// Clear removes every stored message
func (h *History) Clear() error {
	return h.update(func(f *historyFile) {
		f.Messages = make([]Message, 0)
	})
}

// historyFile is the on-disk shape of a History
type historyFile struct {
	Messages  []Message `json:"messages"`
	SessionID string    `json:"session_id,omitempty"`
}

// update applies fn to the file contents as read under the file lock
func (h *History) update(fn func(f *historyFile)) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	lock := newFileLock(h.filePath)
	if err := lock.lock(lockTimeout); err != nil {
		return err
	}
	defer lock.unlock()

	f, err := readHistoryFile(h.filePath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	fn(&f)

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	tmp := h.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	if err := os.Rename(tmp, h.filePath); err != nil {
		return fmt.Errorf("failed to replace history file: %w", err)
	}

	h.Messages, h.SessionID = f.Messages, f.SessionID
	return nil
}

func readHistoryFile(path string) (historyFile, error) {
	f := historyFile{Messages: make([]Message, 0)}

	data, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("failed to read history file: %w", err)
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("failed to unmarshal history: %w", err)
	}
	if f.Messages == nil {
		f.Messages = make([]Message, 0)
	}

	return f, nil
}

// Load reads the history from disk
func (h *History) Load() error {
	f, err := readHistoryFile(h.filePath)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.Messages, h.SessionID = f.Messages, f.SessionID
	return nil
}
