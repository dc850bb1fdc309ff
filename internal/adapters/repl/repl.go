package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"finance-analytics/internal/adapters/cli"
	"finance-analytics/internal/app"
)

// Run starts the interactive loop. Each line is one CLI command, with or
// without a leading slash. It returns when reader is exhausted or the user
// types /exit.
func Run(ctx context.Context, svc app.ApplicationService, reader *bufio.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Finance Analytics")
	fmt.Fprintln(out, "Type a command such as `analyze payable cumulative`, or /help for all commands.")
	fmt.Fprintln(out, strings.Repeat("-", 70))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(out, "\n> ")
		input, readErr := reader.ReadString('\n')

		if tokens := strings.Fields(strings.TrimPrefix(strings.TrimSpace(input), "/")); len(tokens) > 0 {
			switch strings.ToLower(tokens[0]) {
			case "exit", "quit", "e", "q":
				fmt.Fprintln(out, "Goodbye!")
				return nil
			case "help", "h", "?":
				fmt.Fprintln(out, cli.Usage)
			default:
				if err := cli.Run(ctx, svc, tokens, out); err != nil {
					fmt.Fprintf(out, "Error: %v\n", err)
				}
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			return readErr
		}
	}
}
