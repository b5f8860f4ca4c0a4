package policy

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/smanolloff/vcmi-mlclient/internal/schema"
)

// PromptPolicy asks an operator for each action. Blank input, closed
// input or 0 falls back to another policy. Other non-negative values
// are returned as is.
type PromptPolicy struct {
	in       *bufio.Reader
	out      io.Writer
	errOut   io.Writer
	prompt   string
	fallback Policy
}

func NewPrompt(in io.Reader, out, errOut io.Writer, prompt string, fallback Policy) *PromptPolicy {
	return &PromptPolicy{
		in:       bufio.NewReader(in),
		out:      out,
		errOut:   errOut,
		prompt:   prompt,
		fallback: fallback,
	}
}

// SelectAction implements Policy interface
func (p *PromptPolicy) SelectAction(obs Observation) (schema.Action, error) {
	for {
		fmt.Fprint(p.out, p.prompt)

		line, err := p.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("read interactive action: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			return p.fallback.SelectAction(obs)
		}

		n, err := strconv.Atoi(input)
		if err != nil || n < 0 {
			fmt.Fprintln(p.errOut, "Invalid input!")
			continue
		}
		if n == 0 {
			return p.fallback.SelectAction(obs)
		}
		return schema.Action(n), nil
	}
}
