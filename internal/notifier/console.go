package notifier

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

// CommandHandler is called when a user command is received.
type CommandHandler func(command string) string

// RunConsole reads one command per line from in and writes each reply to
// out. Blocks until in is exhausted or ctx is cancelled.
func RunConsole(ctx context.Context, in io.Reader, out io.Writer, handler CommandHandler, logger *log.Logger) error {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			logger.Info("console stopped")
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("read console: %w", err)
					}
				default:
				}
				return nil
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}
			logger.Debug("received command", "command", text)
			if reply := handler(text); reply != "" {
				if _, err := fmt.Fprintln(out, reply); err != nil {
					return fmt.Errorf("write reply: %w", err)
				}
			}
		}
	}
}
