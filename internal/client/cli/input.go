package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/term"
)

// test seams for the terminal
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// promptLine prints prompt (with def in brackets when set) and reads one
// line. An empty answer returns def.
func promptLine(r *bufio.Reader, w io.Writer, prompt, def string) (string, error) {
	if def != "" {
		prompt = fmt.Sprintf("%s [%s]", prompt, def)
	}
	if _, err := fmt.Fprint(w, prompt+": "); err != nil {
		return "", err
	}

	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
		return "", err
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return def, nil
	}
	return line, nil
}

// promptPassword reads without echo when fd is a terminal and falls back to
// a plain line otherwise (pipes, tests).
func promptPassword(r *bufio.Reader, w io.Writer, fd int, prompt string) (string, error) {
	if !isTerminal(fd) {
		line, err := promptLine(r, w, prompt, "")
		return line, err
	}

	if _, err := fmt.Fprint(w, prompt+": "); err != nil {
		return "", err
	}
	pw, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

func confirm(r *bufio.Reader, w io.Writer, prompt string) (bool, error) {
	answer, err := promptLine(r, w, prompt+" (y/N)", "")
	if err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}

	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
