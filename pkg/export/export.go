// Package export writes a transcript as JSON, Markdown or YAML.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/killallgit/sherpa/pkg/chat"
	"gopkg.in/yaml.v3"
)

// Format is an export encoding
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatYAML     Format = "yaml"
)

// ErrUnknownFormat is returned by ParseFormat for unsupported names
var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat accepts json, markdown (md) and yaml (yml)
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// Document is the exported form of a transcript
type Document struct {
	SessionID  string    `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	ExportedAt time.Time `json:"exported_at" yaml:"exported_at"`
	Messages   []Entry   `json:"messages" yaml:"messages"`
}

// Entry is one exported message. Payload is the decoded review payload.
type Entry struct {
	ID        uint64    `json:"id" yaml:"id"`
	Sender    string    `json:"sender" yaml:"sender"`
	Kind      string    `json:"kind" yaml:"kind"`
	Text      string    `json:"text" yaml:"text"`
	Payload   any       `json:"payload,omitempty" yaml:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// NewDocument builds a Document from messages
func NewDocument(sessionID string, messages []chat.Message, at time.Time) (Document, error) {
	doc := Document{
		SessionID:  sessionID,
		ExportedAt: at,
		Messages:   make([]Entry, 0, len(messages)),
	}

	for _, msg := range messages {
		entry := Entry{
			ID:        msg.ID,
			Sender:    string(msg.Sender),
			Kind:      string(msg.Kind),
			Text:      msg.Text,
			Timestamp: msg.Timestamp,
		}
		if msg.HasPayload() {
			if err := json.Unmarshal(msg.Payload, &entry.Payload); err != nil {
				return Document{}, fmt.Errorf("message %d has an invalid payload: %w", msg.ID, err)
			}
		}
		doc.Messages = append(doc.Messages, entry)
	}

	return doc, nil
}

// Write encodes doc to w in format
func Write(w io.Writer, format Format, doc Document) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
	case FormatMarkdown:
		if _, err := io.WriteString(w, Markdown(doc)); err != nil {
			return fmt.Errorf("failed to write markdown: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return nil
}

// Markdown renders doc as a readable conversation log
func Markdown(doc Document) string {
	var b strings.Builder

	b.WriteString("# CodeSherpa conversation\n\n")
	if doc.SessionID != "" {
		fmt.Fprintf(&b, "Session: `%s`\n\n", doc.SessionID)
	}

	for _, e := range doc.Messages {
		who := "Sherpa"
		if e.Sender == string(chat.SenderUser) {
			who = "You"
		}

		fmt.Fprintf(&b, "## %s", who)
		if !e.Timestamp.IsZero() {
			fmt.Fprintf(&b, " (%s)", e.Timestamp.Format(time.RFC3339))
		}
		b.WriteString("\n\n")

		if e.Sender == string(chat.SenderUser) {
			// Keep user text literal.
			for _, line := range strings.Split(e.Text, "\n") {
				b.WriteString("> " + line + "\n")
			}
		} else {
			b.WriteString(e.Text + "\n")
		}
		b.WriteString("\n")
	}

	return b.String()
}
