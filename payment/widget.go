package payment

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// SnapRedirectURL turns the snap.js address into the hosted payment page for token.
func SnapRedirectURL(snapJSURL, token string) string {
	base := strings.TrimSuffix(strings.TrimSuffix(snapJSURL, "/snap.js"), "/")
	return base + "/v2/vtweb/" + token
}

// PromptWidget is a terminal stand-in for the Snap popup: it prints the hosted
// payment page and reads back which callback the user saw.
type PromptWidget struct {
	SnapURL string
	In      *bufio.Reader
	Out     io.Writer
}

func (w *PromptWidget) Pay(ctx context.Context, snapToken string) (Result, error) {
	fmt.Fprintf(w.Out, "Open %s to pay.\n", SnapRedirectURL(w.SnapURL, snapToken))

	for {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		fmt.Fprint(w.Out, "outcome [success|pending|error|close]: ")
		line, err := w.In.ReadString('\n')
		if strings.TrimSpace(line) == "" && err != nil {
			if err == io.EOF {
				return Result{Outcome: OutcomeClose}, nil
			}
			return Result{}, err
		}
		outcome, perr := ParseOutcome(line)
		if perr != nil {
			fmt.Fprintln(w.Out, perr.Error())
			continue
		}
		return Result{Outcome: outcome}, nil
	}
}
