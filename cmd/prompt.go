package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/ashtangalog/ashtanga/internal/errors"
)

var stdin = bufio.NewReader(os.Stdin)

// prompt asks for one line of input on stderr.
func prompt(label string) (string, error) {
	fmt.Fprint(os.Stderr, label+": ")
	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", errors.NewValidationError("input", "no input", "Pass the value as a flag instead")
	}
	return strings.TrimSpace(line), nil
}

// promptSecret reads a password without echo when stdin is a terminal.
func promptSecret(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return prompt(label)
	}
	fmt.Fprint(os.Stderr, label+": ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", errors.Wrap(err, "read password")
	}
	return string(b), nil
}

// confirm asks a yes/no question. Only y or yes confirms.
func confirm(question string) (bool, error) {
	answer, err := prompt(question + " [y/N]")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// valueOrPrompt returns v, or asks for it when empty.
func valueOrPrompt(v, label string, secret bool) (string, error) {
	if v != "" {
		return v, nil
	}
	if secret {
		return promptSecret(label)
	}
	return prompt(label)
}
