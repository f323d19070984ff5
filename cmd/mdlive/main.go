package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/muesli/reflow/ansi"
	slogmulti "github.com/samber/slog-multi"
	"github.com/spf13/pflag"
	"golang.org/x/net/html"
	"golang.org/x/term"
	"pkt.systems/mdlive"
)

const (
	defaultChunkSize = 3
	defaultDelay     = 20 * time.Millisecond
)

func main() {
	var (
		simulate     bool
		simChunkSize int
		simDelay     time.Duration
		outPath      string
		live         bool
		logFile      string
		verbose      bool
		diagramLangs []string
		passInterval time.Duration
		subInterval  time.Duration
	)

	flags := pflag.NewFlagSet("mdlive", pflag.ExitOnError)
	flags.BoolVar(&simulate, "simulate", false, "Stream simulator (use default delay and chunk size)")
	flags.IntVar(&simChunkSize, "simulate-chunk", defaultChunkSize, "Max runes per stream chunk")
	flags.DurationVar(&simDelay, "simulate-delay", defaultDelay, "Delay per stream chunk")
	flags.StringVarP(&outPath, "output", "o", "", "Output file instead of stdout")
	flags.BoolVar(&live, "live", false, "Show a live status line on stderr while streaming")
	flags.StringVar(&logFile, "log-file", "", "Also write logs to this file")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
	flags.StringSliceVar(&diagramLangs, "diagram-lang", nil, "Fence languages treated as diagrams (default mermaid)")
	flags.DurationVar(&passInterval, "pass-interval", 0, "Render pass throttle interval (0 uses default)")
	flags.DurationVar(&subInterval, "sub-interval", 0, "Sub-render debounce interval (0 uses default)")
	if err := flags.Parse(os.Args[1:]); err != nil {
		fatalf("mdlive: %v", err)
	}

	in := io.Reader(os.Stdin)
	if args := flags.Args(); len(args) > 0 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			fatalf("mdlive: %v", err)
		}
		defer f.Close()
		in = f
	}

	logger, closeLog, err := buildLogger(logFile, verbose)
	if err != nil {
		fatalf("mdlive: %v", err)
	}
	defer closeLog()

	opts := []mdlive.Option{
		mdlive.WithLogger(logger),
		mdlive.WithConfig(mdlive.Config{
			PassInterval:      passInterval,
			SubRenderInterval: subInterval,
			DiagramLanguages:  diagramLangs,
		}),
	}
	if live && term.IsTerminal(int(os.Stderr.Fd())) {
		width, _, werr := term.GetSize(int(os.Stderr.Fd()))
		if werr != nil || width <= 0 {
			width = 80
		}
		opts = append(opts, mdlive.WithAfterUpdate(statusLine(os.Stderr, width)))
	}
	r := mdlive.New(opts...)
	defer r.Close()

	if simulate {
		err = mdlive.Simulate(mdlive.SimulateRequest{
			Reader:    in,
			Renderer:  r,
			ChunkSize: simChunkSize,
			Delay:     simDelay,
		})
	} else {
		var data []byte
		data, err = io.ReadAll(in)
		if err == nil {
			err = r.Append(string(data))
			r.Flush()
		}
	}
	if live {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		fatalf("mdlive: %v", err)
	}
	if perr := r.Err(); perr != nil {
		logger.Warn("final pass failed", "error", perr)
	}

	out := io.Writer(os.Stdout)
	if outPath != "" {
		f, cerr := os.Create(outPath)
		if cerr != nil {
			fatalf("mdlive: %v", cerr)
		}
		defer f.Close()
		out = f
	}
	if _, err := io.WriteString(out, r.HTML()+"\n"); err != nil {
		fatalf("mdlive: %v", err)
	}
}

// statusLine returns an after-update hook printing a single overwritten
// progress line, truncated to the terminal width.
func statusLine(w io.Writer, width int) func(*html.Node) {
	return func(root *html.Node) {
		nodes := 0
		for c := root.FirstChild; c != nil; c = c.NextSibling {
			nodes++
		}
		line := fmt.Sprintf("rendering… %d top-level nodes", nodes)
		for ansi.PrintableRuneWidth(line) > width-1 && line != "" {
			runes := []rune(line)
			line = string(runes[:len(runes)-1])
		}
		fmt.Fprintf(w, "\r%s\x1b[K", line)
	}
}

func buildLogger(logFile string, verbose bool) (*slog.Logger, func(), error) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handlers := []slog.Handler{
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
	}
	closeLog := func() {}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
		closeLog = func() { _ = f.Close() }
	}
	return slog.New(slogmulti.Fanout(handlers...)), closeLog, nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
