package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

// ErrClosed is returned when the input ends before an answer is given.
var ErrClosed = errors.New("input closed")

// Prompter asks questions on a line-oriented terminal and re-asks until
// the answer validates.
type Prompter struct {
	in   *bufio.Reader
	out  io.Writer
	warn *color.Color
	ask  *color.Color
}

// New creates a prompter reading answers from in and writing questions to out.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:   bufio.NewReader(in),
		out:  out,
		warn: color.New(color.FgYellow),
		ask:  color.New(color.FgCyan),
	}
}

// Out returns the writer questions are written to.
func (p *Prompter) Out() io.Writer {
	return p.out
}

// Line prints label and returns the trimmed answer.
func (p *Prompter) Line(ctx context.Context, label string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.ask.Fprint(p.out, label)

	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrClosed
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Warn prints a highlighted one-line message.
func (p *Prompter) Warn(format string, args ...interface{}) {
	p.warn.Fprintf(p.out, format+"\n", args...)
}

// Ticker asks until a non-empty ticker is given and returns it normalized.
func (p *Prompter) Ticker(ctx context.Context, label string) (string, error) {
	for {
		raw, err := p.Line(ctx, label)
		if err != nil {
			return "", err
		}
		t, err := models.NormalizeTicker(raw)
		if err == nil {
			return t, nil
		}
		p.Warn("Ticker cannot be empty.")
	}
}

// PositiveNumber asks until the answer parses as a number > 0.
func (p *Prompter) PositiveNumber(ctx context.Context, label, what string) (float64, error) {
	return p.number(ctx, label, what, ParsePositiveNumber)
}

// NonNegativeNumber asks until the answer parses as a number >= 0.
func (p *Prompter) NonNegativeNumber(ctx context.Context, label, what string) (float64, error) {
	return p.number(ctx, label, what, ParseNonNegativeNumber)
}

func (p *Prompter) number(ctx context.Context, label, what string, parse func(string) (float64, error)) (float64, error) {
	for {
		raw, err := p.Line(ctx, label)
		if err != nil {
			return 0, err
		}
		v, err := parse(raw)
		if err == nil {
			return v, nil
		}

		var perr *ParseError
		if errors.As(err, &perr) && perr.Reason != ReasonNotANumber {
			p.Warn("%s %s.", what, perr.Reason)
			continue
		}
		p.Warn("Invalid number.")
	}
}

// Confirm asks a yes/no question; anything but y/yes is no.
func (p *Prompter) Confirm(ctx context.Context, label string) (bool, error) {
	ans, err := p.Line(ctx, label+" [y/N]: ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(ans) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// PromptForPrice asks for a price the market data source could not supply.
func (p *Prompter) PromptForPrice(ctx context.Context, ticker string) (float64, error) {
	return p.PositiveNumber(ctx, fmt.Sprintf("Couldn't fetch %s. Enter price manually: ", ticker), "Price")
}

// PromptForWeight asks for a raw target weight in percent.
func (p *Prompter) PromptForWeight(ctx context.Context, ticker string) (float64, error) {
	return p.NonNegativeNumber(ctx, fmt.Sprintf("Target weight for %s (in %%): ", ticker), "Weight")
}

var (
	_ interfaces.ManualPriceSource = (*Prompter)(nil)
	_ interfaces.WeightSource      = (*Prompter)(nil)
)
