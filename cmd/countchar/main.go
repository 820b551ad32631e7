// Command countchar prints how often each character occurs in a string.
//
// Usage:
//
//	countchar [--include-spaces] [--ignore-case=false] [text ...]
//
// With no text arguments the text is read from standard input.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/kuitang/tradeui-e2e/internal/charcount"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		log.Fatalf("countchar: %v", err)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("countchar", flag.ContinueOnError)
	var opts charcount.Options
	fs.BoolVar(&opts.IncludeSpaces, "include-spaces", false, "count space characters")
	fs.BoolVar(&opts.IgnoreCase, "ignore-case", true, "fold letters to lower case before counting")
	if err := fs.Parse(args); err != nil {
		return err
	}

	text := strings.Join(fs.Args(), " ")
	if fs.NArg() == 0 {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = strings.TrimRight(string(data), "\r\n")
	}

	_, err := fmt.Fprintln(stdout, charcount.String(text, opts))
	return err
}
