package headless

import (
	"fmt"
	"io"
	"os"

	"github.com/killallgit/sherpa/pkg/chat"
	"github.com/killallgit/sherpa/pkg/logger"
	"github.com/killallgit/sherpa/pkg/render"
	"golang.org/x/term"
)

// Output handles console output for headless mode. Replies go to stdout,
// progress notes to stderr.
type Output struct {
	out      io.Writer
	errOut   io.Writer
	renderer *render.Renderer
}

// NewOutput creates a new output handler
func NewOutput(out, errOut io.Writer, renderer *render.Renderer) *Output {
	return &Output{out: out, errOut: errOut, renderer: renderer}
}

// Message prints one transcript entry
func (o *Output) Message(msg chat.Message) {
	fmt.Fprintln(o.out, o.renderer.Message(msg))
}

// Note prints a progress line to stderr
func (o *Output) Note(text string) {
	fmt.Fprintln(o.errOut, text)
}

// Error logs an error and echoes it to stderr
func (o *Output) Error(msg string) {
	logger.Error(msg)
	fmt.Fprintln(o.errOut, "Error: "+msg)
}

// isTerminal reports whether w is an interactive terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
