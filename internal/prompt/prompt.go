// ABOUTME: Line-oriented terminal input for the console and storefront REPLs
// ABOUTME: Context-aware line reads, hidden password entry and multi-line text

package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// EndOfText terminates Multiline input.
const EndOfText = "."

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

type result struct {
	line string
	err  error
}

// Reader reads lines on demand. A single goroutine owns the scanner and
// reads a line only when asked, so hidden password reads never race it.
type Reader struct {
	in      io.Reader
	out     *Printer
	scanner *bufio.Scanner
	reqs    chan struct{}
	results chan result

	mu      sync.Mutex
	pending bool
}

// NewReader reads from in and echoes prompts to out.
func NewReader(in io.Reader, out *Printer) *Reader {
	r := &Reader{
		in:      in,
		out:     out,
		scanner: bufio.NewScanner(in),
		reqs:    make(chan struct{}),
		results: make(chan result, 1),
	}
	r.scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	go r.loop()
	return r
}

func (r *Reader) loop() {
	for range r.reqs {
		if r.scanner.Scan() {
			r.results <- result{line: r.scanner.Text()}
			continue
		}
		err := r.scanner.Err()
		if err == nil {
			err = io.EOF
		}
		r.results <- result{err: err}
	}
}

// Line prints prompt and returns the next line without its newline.
// It returns io.EOF at end of input and ctx.Err() on cancellation.
func (r *Reader) Line(ctx context.Context, prompt string) (string, error) {
	r.out.Print(prompt)

	r.mu.Lock()
	if !r.pending {
		r.pending = true
		r.mu.Unlock()
		r.reqs <- struct{}{}
	} else {
		// a canceled read is still outstanding; its line is ours
		r.mu.Unlock()
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-r.results:
		r.mu.Lock()
		r.pending = false
		r.mu.Unlock()
		return res.line, res.err
	}
}

// Password reads a secret without echo when input is a terminal, and as a
// plain line otherwise.
func (r *Reader) Password(ctx context.Context, prompt string) (string, error) {
	f, ok := r.in.(*os.File)
	r.mu.Lock()
	pending := r.pending
	r.mu.Unlock()
	if !ok || pending || !term.IsTerminal(int(f.Fd())) {
		return r.Line(ctx, prompt)
	}

	r.out.Print(prompt)
	pw, err := readPassword(int(f.Fd()))
	r.out.Println()
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pw), nil
}

// Multiline collects lines until a line holding only EndOfText.
func (r *Reader) Multiline(ctx context.Context, prompt string) (string, error) {
	r.out.Printf("%s (end with a line containing only %q)\n", prompt, EndOfText)
	var lines []string
	for {
		line, err := r.Line(ctx, "| ")
		if err != nil {
			if errors.Is(err, io.EOF) && len(lines) > 0 {
				break
			}
			return "", err
		}
		if strings.TrimSpace(line) == EndOfText {
			break
		}
		lines = append(lines, line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

// Printer serializes writes from the REPL and from background goroutines.
type Printer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewPrinter wraps w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) Print(a ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprint(p.w, a...)
}

func (p *Printer) Println(a ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, a...)
}

func (p *Printer) Printf(format string, a ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, format, a...)
}

// Do runs fn with exclusive access to the underlying writer, for output
// that spans several writes such as a table.
func (p *Printer) Do(fn func(w io.Writer)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p.w)
}
