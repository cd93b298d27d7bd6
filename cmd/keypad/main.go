// Command keypad drives a calculator from the terminal. Tokens come from the
// arguments or, when there are none, from whitespace-separated stdin:
//
//	keypad 1 2 3 + 4 5 6 =
//	echo "9 ÷ 0 =" | keypad -steps
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"keypad-calculator/internal/calculator"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	fs := flag.NewFlagSet("keypad", flag.ExitOnError)
	steps := fs.Bool("steps", false, "print both display lines after every token")
	_ = fs.Parse(os.Args[1:])

	if err := run(fs.Args(), os.Stdin, os.Stdout, *steps); err != nil {
		logger.Fatal("keypad failed", zap.Error(err))
	}
}

func run(args []string, in io.Reader, out io.Writer, steps bool) error {
	var st calculator.State

	press := func(tok string) error {
		if calculator.Classify(tok) == calculator.ClassUnknown {
			_, err := fmt.Fprintf(out, "ignored token %q\n", tok)
			return err
		}
		st = calculator.Apply(st, tok)
		if steps {
			return render(out, tok, st)
		}
		return nil
	}

	if len(args) > 0 {
		for _, tok := range args {
			if err := press(tok); err != nil {
				return err
			}
		}
	} else {
		sc := bufio.NewScanner(in)
		sc.Split(bufio.ScanWords)
		for sc.Scan() {
			if err := press(sc.Text()); err != nil {
				return err
			}
		}
		if err := sc.Err(); err != nil {
			return fmt.Errorf("reading tokens: %w", err)
		}
	}

	if steps {
		return nil
	}
	return render(out, "", st)
}

func render(out io.Writer, tok string, st calculator.State) error {
	var err error
	if tok != "" {
		_, err = fmt.Fprintf(out, "%-4s %24s | %s\n", tok, st.OperationTrace(), st.Display())
	} else {
		_, err = fmt.Fprintf(out, "%s | %s\n", st.OperationTrace(), st.Display())
	}
	return err
}
