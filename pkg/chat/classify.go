package chat

import (
	"strings"

	"github.com/killallgit/sherpa/pkg/protocol"
)

// ErrorPrefix starts the text of every backend-reported error
const ErrorPrefix = "⚠️ Error: "

// Effect is what a classified frame does to the session
type Effect int

const (
	// EffectDrop leaves the session untouched
	EffectDrop Effect = iota
	// EffectThinking raises the pending indicator
	EffectThinking
	// EffectAppend adds an agent message and clears the pending indicator
	EffectAppend
)

// Classification is the outcome of classifying one inbound frame
type Classification struct {
	Effect  Effect
	Kind    Kind
	Text    string
	Payload []byte
}

// Classify maps a decoded frame to its effect. It is a pure function of
// the frame.
func Classify(frame protocol.Frame) Classification {
	switch frame.Type {
	case protocol.TypeStatus:
		if frame.IsThinking() {
			return Classification{Effect: EffectThinking}
		}
		return Classification{Effect: EffectDrop}
	case protocol.TypeResponse:
		if frame.Content == nil {
			return Classification{Effect: EffectDrop}
		}
		return classifyContent(frame.Content)
	default:
		return Classification{Effect: EffectDrop}
	}
}

func classifyContent(content protocol.Content) Classification {
	appendAs := func(kind Kind, text string) Classification {
		return Classification{Effect: EffectAppend, Kind: kind, Text: text}
	}

	switch c := content.(type) {
	case protocol.Text:
		return appendAs(KindPlain, c.Body)
	case protocol.Error:
		return appendAs(KindError, ErrorPrefix+c.Message)
	case protocol.Reply:
		return appendAs(KindReply, c.Text)
	case protocol.Review:
		cl := appendAs(KindReview, ComposeReview(c))
		cl.Payload = c.Payload
		return cl
	case protocol.Explanation:
		return appendAs(KindExplanation, ComposeExplanation(c))
	case protocol.Raw:
		return appendAs(KindRawFallback, ComposeRaw(c))
	default:
		return Classification{Effect: EffectDrop}
	}
}

// ComposeReview renders the review summary block
func ComposeReview(r protocol.Review) string {
	return "Review Summary:\n" + r.Summary + "\n\nQuality Score: " + r.QualityScore + "/10"
}

// ComposeExplanation renders the explanation, one bullet per key concept in
// order, and the analogy quote.
func ComposeExplanation(e protocol.Explanation) string {
	bullets := make([]string, len(e.KeyConcepts))
	for i, k := range e.KeyConcepts {
		bullets[i] = "- " + k.Term + ": " + k.Definition
	}

	var b strings.Builder
	b.WriteString(e.Explanation)
	b.WriteString("\n\nKey Concepts:\n")
	b.WriteString(strings.Join(bullets, "\n"))
	b.WriteString("\n\nAnalogy:\n> ")
	b.WriteString(e.Analogy)
	return b.String()
}

// ComposeRaw renders unrecognized content as an indented json block
func ComposeRaw(r protocol.Raw) string {
	return "```json\n" + r.Pretty() + "\n```"
}
