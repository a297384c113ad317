// Package render turns transcript entries into terminal output.
package render

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/killallgit/sherpa/pkg/chat"
	"github.com/killallgit/sherpa/pkg/logger"
	"github.com/killallgit/sherpa/pkg/protocol"
	"github.com/killallgit/sherpa/pkg/tui/theme"
)

const minWidth = 20

// Options configures a Renderer
type Options struct {
	// MarkdownStyle is a glamour standard style name, or "auto"
	MarkdownStyle string
	// Width is the wrap width
	Width int
	// CodeFormatter is a chroma formatter name; defaults to terminal256
	CodeFormatter string
	// CodeStyle is a chroma style name; defaults to monokai
	CodeStyle string
	// PlainMarkdown skips glamour and returns markdown text as is
	PlainMarkdown bool
}

// Renderer renders messages with glamour for markdown and chroma for code
type Renderer struct {
	opts      Options
	md        *glamour.TermRenderer
	formatter chroma.Formatter
	codeStyle *chroma.Style
	styles    *theme.Styles
	log       *logger.Logger
}

// New creates a Renderer
func New(opts Options) (*Renderer, error) {
	if opts.Width < minWidth {
		opts.Width = minWidth
	}

	r := &Renderer{
		opts:   opts,
		styles: theme.DefaultStyles(),
		log:    logger.WithComponent("render"),
	}

	if !opts.PlainMarkdown {
		styleOpt := glamour.WithStandardStyle(opts.MarkdownStyle)
		if opts.MarkdownStyle == "" || opts.MarkdownStyle == "auto" {
			styleOpt = glamour.WithAutoStyle()
		}
		md, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(opts.Width))
		if err != nil {
			return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
		}
		r.md = md
	}

	r.formatter = formatters.Get(defaultString(opts.CodeFormatter, "terminal256"))
	if r.formatter == nil {
		r.formatter = formatters.Fallback
	}
	r.codeStyle = styles.Get(defaultString(opts.CodeStyle, "monokai"))
	if r.codeStyle == nil {
		r.codeStyle = styles.Fallback
	}

	return r, nil
}

// Width returns the wrap width
func (r *Renderer) Width() int {
	return r.opts.Width
}

// Message renders one transcript entry body. User text is shown verbatim;
// agent text is markdown, and reviews add a card per finding.
func (r *Renderer) Message(msg chat.Message) string {
	if msg.IsUser() {
		return msg.Text
	}

	body := r.Markdown(msg.Text)

	switch msg.Kind {
	case chat.KindError:
		return r.styles.ErrorMessage.Render(body)
	case chat.KindReview:
		if details := r.ReviewDetails(msg); details != "" {
			return body + "\n" + details
		}
	}

	return body
}

// Markdown renders markdown, falling back to the input on failure
func (r *Renderer) Markdown(text string) string {
	if r.md == nil {
		return text
	}

	out, err := r.md.Render(text)
	if err != nil {
		r.log.Debug("Markdown render failed, using plain text", "error", err)
		return text
	}
	return strings.Trim(out, "\n")
}

// Code highlights code. The language is inferred from filename, then
// from the content.
func (r *Renderer) Code(code, filename string) string {
	var lexer chroma.Lexer
	if filename != "" {
		lexer = lexers.Match(filepath.Base(filename))
	}
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		r.log.Debug("Failed to tokenize code, using plain text", "error", err)
		return code
	}

	var buf strings.Builder
	if err := r.formatter.Format(&buf, r.codeStyle, iterator); err != nil {
		r.log.Debug("Failed to format code, using plain text", "error", err)
		return code
	}
	return strings.TrimRight(buf.String(), "\n")
}

// ReviewDetails renders the security risk and findings carried by a review
// message payload. It returns "" when there is nothing beyond the summary.
func (r *Renderer) ReviewDetails(msg chat.Message) string {
	if !msg.HasPayload() {
		return ""
	}

	content, err := protocol.DecodeContent(msg.Payload)
	if err != nil {
		r.log.Debug("Unreadable review payload", "id", msg.ID, "error", err)
		return ""
	}
	review, ok := content.(protocol.Review)
	if !ok {
		return ""
	}

	var sections []string
	if review.SecurityRisk != "" {
		risk := lipgloss.NewStyle().Foreground(theme.SeverityColor(review.SecurityRisk)).Bold(true)
		sections = append(sections, "Security Risk: "+risk.Render(review.SecurityRisk))
	}
	for _, f := range review.Findings {
		sections = append(sections, r.Finding(f))
	}

	return strings.Join(sections, "\n")
}

// Finding renders one review finding as a bordered card
func (r *Renderer) Finding(f protocol.Finding) string {
	severity := strings.ToUpper(defaultString(f.Severity, "note"))
	title := r.styles.FindingTitle.
		Foreground(theme.SeverityColor(severity)).
		Render("[" + severity + "]")

	if loc := location(f); loc != "" {
		title += " " + loc
	}

	lines := []string{title}
	if f.Issue != "" {
		lines = append(lines, f.Issue)
	}
	if f.Suggestion != "" {
		lines = append(lines, r.styles.Suggestion.Render("→ "+f.Suggestion))
	}
	if f.CodeFix != "" {
		lines = append(lines, r.styles.CodeFix.Render(r.Code(f.CodeFix, f.File)))
	}

	return r.styles.FindingCard.
		BorderForeground(theme.SeverityColor(severity)).
		Width(r.opts.Width - 2).
		Render(strings.Join(lines, "\n"))
}

func location(f protocol.Finding) string {
	switch {
	case f.File != "" && f.Line > 0:
		return fmt.Sprintf("%s:%d", f.File, f.Line)
	case f.File != "":
		return f.File
	default:
		return ""
	}
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
