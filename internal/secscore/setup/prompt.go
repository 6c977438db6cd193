package setup

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// prompter reads answers line by line from in and writes prompts to out.
type prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{
		scanner: bufio.NewScanner(in),
		out:     out,
	}
}

// ask prints a prompt and reads one line of input. At end of input it
// returns "".
func (p *prompter) ask(prompt string) string {
	fmt.Fprintf(p.out, "%s ", prompt)
	if p.scanner.Scan() {
		return strings.TrimSpace(p.scanner.Text())
	}
	return ""
}

// askDefault prints a prompt with a default value shown in brackets.
func (p *prompter) askDefault(prompt, defaultVal string) string {
	if defaultVal == "" {
		return p.ask(prompt + ":")
	}
	answer := p.ask(fmt.Sprintf("%s [%s]:", prompt, defaultVal))
	if answer == "" {
		return defaultVal
	}
	return answer
}

// askValid repeats askDefault until check accepts the answer. After
// maxAttempts failures the last error is returned.
func (p *prompter) askValid(prompt, defaultVal string, check func(string) error) (string, error) {
	const maxAttempts = 3
	var err error
	for range maxAttempts {
		answer := p.askDefault(prompt, defaultVal)
		if err = check(answer); err == nil {
			return answer, nil
		}
		fmt.Fprintf(p.out, "  %v\n", err)
	}
	return "", err
}

// askYesNo prints a y/n prompt and returns true for yes.
func (p *prompter) askYesNo(prompt string, defaultYes bool) bool {
	suffix := "[y/N]"
	if defaultYes {
		suffix = "[Y/n]"
	}
	answer := strings.ToLower(p.ask(fmt.Sprintf("%s %s:", prompt, suffix)))
	switch answer {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	default:
		return defaultYes
	}
}

// askChoice prints numbered options and returns the selected 0-based index.
// An empty answer selects def.
func (p *prompter) askChoice(prompt string, options []string, def int) int {
	fmt.Fprintln(p.out, prompt)
	for i, opt := range options {
		fmt.Fprintf(p.out, "  [%d] %s\n", i+1, opt)
	}
	for range 3 {
		answer := p.ask(fmt.Sprintf("Choice [%d]:", def+1))
		if answer == "" {
			return def
		}
		n, err := strconv.Atoi(answer)
		if err == nil && n >= 1 && n <= len(options) {
			return n - 1
		}
		fmt.Fprintf(p.out, "Please enter a number between 1 and %d.\n", len(options))
	}
	return def
}

// askMultiSelect prints numbered options and lets the user select several,
// comma-separated. An empty answer selects def.
func (p *prompter) askMultiSelect(prompt string, options []string, def []int) []int {
	fmt.Fprintln(p.out, prompt)
	for i, opt := range options {
		fmt.Fprintf(p.out, "  [%d] %s\n", i+1, opt)
	}
	fmt.Fprintf(p.out, "  [a] All\n")
	for range 3 {
		answer := p.ask("Selection (comma-separated, or 'a' for all):")
		switch strings.ToLower(answer) {
		case "":
			return def
		case "a":
			indices := make([]int, len(options))
			for i := range options {
				indices[i] = i
			}
			return indices
		}
		var indices []int
		valid := true
		for _, part := range strings.Split(answer, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || n < 1 || n > len(options) {
				valid = false
				break
			}
			indices = append(indices, n-1)
		}
		if valid && len(indices) > 0 {
			return indices
		}
		fmt.Fprintf(p.out, "Enter numbers between 1 and %d, separated by commas.\n", len(options))
	}
	return def
}
