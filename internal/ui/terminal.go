package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// MaxLineSize is the longest input line a Prompter accepts.
const MaxLineSize = 1 << 20

// ErrInputFailed is returned by Ask once reading input has failed for a
// reason other than reaching its end.
var ErrInputFailed = errors.New("read input")

// Prompter reads lines from the user and writes output. Lines are read on
// a background goroutine so a pending Ask can be abandoned when ctx ends.
type Prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
	outLock sync.Mutex
	lines   chan string
	once    sync.Once

	// readErr is set before lines is closed.
	readErr error
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), MaxLineSize)

	return &Prompter{
		scanner: scanner,
		out:     out,
		lines:   make(chan string),
	}
}

func (p *Prompter) start() {
	p.once.Do(func() {
		go func() {
			defer close(p.lines)
			for p.scanner.Scan() {
				p.lines <- strings.TrimRight(p.scanner.Text(), "\r")
			}
			if err := p.scanner.Err(); err != nil {
				p.readErr = fmt.Errorf("%w: %w", ErrInputFailed, err)
			}
		}()
	})
}

// Ask prints label and waits for the next line. It returns io.EOF once
// input is exhausted and an ErrInputFailed error if reading it failed.
func (p *Prompter) Ask(ctx context.Context, label string) (string, error) {
	if label != "" {
		p.Printf("%s", label)
	}
	p.start()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-p.lines:
		if !ok {
			if p.readErr != nil {
				return "", p.readErr
			}
			return "", io.EOF
		}
		return line, nil
	}
}

func (p *Prompter) Printf(format string, args ...any) {
	p.outLock.Lock()
	defer p.outLock.Unlock()

	fmt.Fprintf(p.out, format, args...)
}

func (p *Prompter) Println(args ...any) {
	p.outLock.Lock()
	defer p.outLock.Unlock()

	fmt.Fprintln(p.out, args...)
}

type Notifier interface {
	Success(msg string)
	Error(msg string)
}

type TerminalNotifier struct {
	term *Prompter
}

func NewTerminalNotifier(p *Prompter) *TerminalNotifier {
	return &TerminalNotifier{term: p}
}

func (n *TerminalNotifier) Success(msg string) {
	n.term.Printf("[ok] %s\n", msg)
}

func (n *TerminalNotifier) Error(msg string) {
	n.term.Printf("[error] %s\n", msg)
}

// endOfInput turns the ways a prompt can end normally into nil.
func endOfInput(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func splitCommand(line string) (string, string) {
	line = strings.TrimSpace(line)
	cmd, arg, _ := strings.Cut(line, " ")
	return strings.ToLower(cmd), strings.TrimSpace(arg)
}
