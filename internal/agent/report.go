package agent

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/edgard/followbot/internal/reconcile"
)

var printer = message.NewPrinter(language.English)

// Report is the outcome of one agent invocation.
type Report struct {
	RunID   string
	Skipped bool

	Followers int
	Following int
	Ignoring  int

	Followed   reconcile.PassResult
	Unfollowed reconcile.PassResult
	LikedPost  bool
}

func (r *Report) lines() []string {
	return []string{
		printer.Sprintf("Following: %d", r.Following),
		printer.Sprintf("Followers: %d", r.Followers),
		printer.Sprintf("Ignoring: %d", r.Ignoring),
		"",
		passLine("followed", r.Followed),
		passLine("unfollowed", r.Unfollowed),
	}
}

func passLine(verb string, p reconcile.PassResult) string {
	return printer.Sprintf("%s %d of %d (%d attempted)", verb, p.Succeeded, p.Candidates, p.Attempted)
}

// HTML renders the summary for the email body.
func (r *Report) HTML() string {
	return strings.Join(r.lines(), "<br>")
}

// Text renders the summary as plain lines.
func (r *Report) Text() string {
	return strings.Join(r.lines(), "\n")
}
