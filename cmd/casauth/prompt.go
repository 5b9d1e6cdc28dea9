// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// secretPrompt reads secrets from the command's input. A terminal is read
// without echo; anything else is read one line at a time.
type secretPrompt struct {
	in     io.Reader
	out    io.Writer
	reader *bufio.Reader
}

func newSecretPrompt(cmd *cobra.Command) *secretPrompt {
	return &secretPrompt{in: cmd.InOrStdin(), out: cmd.ErrOrStderr()}
}

// Read prints label and returns the entered secret without its line ending.
func (p *secretPrompt) Read(label string) (string, error) {
	if f, ok := p.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprintf(p.out, "%s: ", label)
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(p.out)
		if err != nil {
			return "", oops.Code("PROMPT_FAILED").With("prompt", label).Wrap(err)
		}
		return string(secret), nil
	}

	if p.reader == nil {
		p.reader = bufio.NewReader(p.in)
	}
	line, err := p.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", oops.Code("PROMPT_FAILED").With("prompt", label).Wrap(err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// ReadConfirmed reads a new secret twice and requires both to match.
func (p *secretPrompt) ReadConfirmed(label string) (string, error) {
	first, err := p.Read(label)
	if err != nil {
		return "", err
	}
	second, err := p.Read("Confirm " + strings.ToLower(label))
	if err != nil {
		return "", err
	}
	if first != second {
		return "", oops.Code("PROMPT_MISMATCH").Errorf("entries do not match")
	}
	return first, nil
}
