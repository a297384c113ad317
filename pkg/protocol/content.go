package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Content is the payload of a response frame. It is one of Text, Error,
// Reply, Review, Explanation or Raw.
type Content interface {
	isContent()
}

// Text is a plain string response
type Text struct {
	Body string
}

// Error is a backend-reported application error
type Error struct {
	Message string
}

// Reply is a conversational answer
type Reply struct {
	Text string
}

// Review is a code review result
type Review struct {
	Summary      string
	QualityScore string
	SecurityRisk string
	Findings     []Finding

	// Payload is the review object exactly as received
	Payload json.RawMessage
}

// Finding is one issue reported by a review
type Finding struct {
	Severity   string `json:"severity" yaml:"severity"`
	File       string `json:"file" yaml:"file"`
	Line       int    `json:"line" yaml:"line"`
	Issue      string `json:"issue" yaml:"issue"`
	Suggestion string `json:"suggestion" yaml:"suggestion"`
	CodeFix    string `json:"code_fix" yaml:"code_fix"`
}

// Explanation is a tutoring result
type Explanation struct {
	Explanation   string
	KeyConcepts   []Concept
	Analogy       string
	LearningSteps []string
}

// Concept is a term and its definition
type Concept struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// Raw is any response content that matches no known shape
type Raw struct {
	Data json.RawMessage
}

func (Text) isContent()        {}
func (Error) isContent()       {}
func (Reply) isContent()       {}
func (Review) isContent()      {}
func (Explanation) isContent() {}
func (Raw) isContent()         {}

// Pretty returns the content as two-space indented JSON
func (r Raw) Pretty() string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, r.Data, "", "  "); err != nil {
		return string(r.Data)
	}
	return buf.String()
}

// DecodeContent maps response content to its variant. Shapes are checked in
// priority order: error, reply, summary, explanation. A shape matches only
// when its field is set; null, "", false and 0 count as unset. Objects
// matching none of them and non-object values other than strings become Raw.
func DecodeContent(data json.RawMessage) (Content, error) {
	data = bytes.TrimSpace(data)
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: invalid content", ErrMalformedFrame)
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
		}
		return Text{Body: s}, nil
	case '{':
	default:
		return Raw{Data: cloneRaw(data)}, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	if v, ok := fields["error"]; ok && isSet(v) {
		return Error{Message: stringOf(v)}, nil
	}
	if v, ok := fields["reply"]; ok && isSet(v) {
		return Reply{Text: stringOf(v)}, nil
	}
	if v, ok := fields["summary"]; ok && isSet(v) {
		return decodeReview(data, v, fields), nil
	}
	if v, ok := fields["explanation"]; ok && isSet(v) {
		return decodeExplanation(v, fields), nil
	}

	return Raw{Data: cloneRaw(data)}, nil
}

func decodeReview(data, summary json.RawMessage, fields map[string]json.RawMessage) Review {
	review := Review{
		Summary: stringOf(summary),
		Payload: cloneRaw(data),
	}

	if v, ok := fields["quality_score"]; ok {
		review.QualityScore = stringOf(v)
	}
	if v, ok := fields["security_risk"]; ok {
		review.SecurityRisk = stringOf(v)
	}
	if v, ok := fields["findings"]; ok {
		// Findings only feed rich rendering; a bad list leaves them empty.
		_ = json.Unmarshal(v, &review.Findings)
	}

	return review
}

func decodeExplanation(explanation json.RawMessage, fields map[string]json.RawMessage) Explanation {
	exp := Explanation{Explanation: stringOf(explanation)}

	if v, ok := fields["key_concepts"]; ok {
		_ = json.Unmarshal(v, &exp.KeyConcepts)
	}
	if v, ok := fields["analogy"]; ok {
		exp.Analogy = stringOf(v)
	}
	if v, ok := fields["learning_steps"]; ok {
		_ = json.Unmarshal(v, &exp.LearningSteps)
	}

	return exp
}

// isSet reports whether v is a JSON value other than null, "", false or 0
func isSet(v json.RawMessage) bool {
	var val any
	if err := json.Unmarshal(v, &val); err != nil {
		return false
	}
	switch x := val.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case float64:
		return x != 0
	default:
		return true
	}
}

// stringOf returns a JSON string's value, or the compact JSON text of any
// other value. Numbers keep their literal form.
func stringOf(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, v); err != nil {
		return string(v)
	}
	return buf.String()
}

func cloneRaw(data []byte) json.RawMessage {
	out := make(json.RawMessage, len(data))
	copy(out, data)
	return out
}
