package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Conceptual-Machines/battito/internal/config"
	"github.com/Conceptual-Machines/battito/internal/export"
	"github.com/Conceptual-Machines/battito/internal/script"
	"github.com/Conceptual-Machines/battito/internal/services"
	"github.com/Conceptual-Machines/battito/internal/transport"
	"github.com/Conceptual-Machines/battito/pkg/pattern"
	"github.com/pkg/errors"
)

// maxSlots bounds the array printed by compile -format slots.
const maxSlots = 1 << 24

// ticks narrows a -subdivision flag to the tick range.
func ticks(cmd string, subdivision uint) (uint32, bool) {
	if subdivision > math.MaxUint32 {
		fmt.Fprintf(os.Stderr, "%s: subdivision %d exceeds %d\n", cmd, subdivision, uint64(math.MaxUint32))
		return 0, false
	}
	return uint32(subdivision), true
}

func cmdCompile(cfg *config.Config, args []string, w io.Writer) int {
	fs := flag.NewFlagSet("compile", flag.ContinueOnError)
	format := fs.String("format", "max", "max, json, tree or slots")
	subdivision := fs.Uint("subdivision", 0, "ticks per measure (default SUBDIVISION)")
	verbose := fs.Bool("v", false, "log the compile")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	quiet(*verbose)
	sub, ok := ticks("compile", *subdivision)
	if !ok {
		return 2
	}

	compiler := services.NewCompiler(cfg, nil)
	out, err := compileText(context.Background(), compiler, strings.Join(fs.Args(), " "), *format, sub)
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		return 1
	}
	fmt.Fprintln(w, out)
	return 0
}

// compileText renders text in one of the compile formats.
func compileText(ctx context.Context, compiler *services.Compiler, text, format string, subdivision uint32) (string, error) {
	if format == "tree" {
		seq, err := compiler.Parse(ctx, text)
		if err != nil {
			return "", err
		}
		return strings.TrimSuffix(seq.Tree(), "\n"), nil
	}

	var out pattern.OutputFormat
	if format != "slots" {
		f, err := pattern.ParseOutputFormat(format)
		if err != nil {
			return "", err
		}
		out = f
	}

	p, err := compiler.Compile(ctx, text, subdivision)
	if err != nil {
		return "", err
	}
	if format == "slots" {
		slots, err := p.SlotsWithin(maxSlots)
		if err != nil {
			return "", err
		}
		b, err := json.Marshal(slots)
		return string(b), err
	}
	return p.Format(out)
}

func cmdPlay(cfg *config.Config, args []string, w io.Writer) int {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	target := fs.String("target", "", "target name (required)")
	subdivision := fs.Uint("subdivision", 0, "ticks per measure (default SUBDIVISION)")
	verbose := fs.Bool("v", false, "log the compile")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	quiet(*verbose)
	if *target == "" {
		fmt.Fprintln(os.Stderr, "play: -target is required")
		return 2
	}
	sub, ok := ticks("play", *subdivision)
	if !ok {
		return 2
	}

	sender := transport.NewSender()
	defer sender.Close()
	_, player := newPlayer(cfg, sender)

	result, err := player.Play(context.Background(), *target, strings.Join(fs.Args(), " "), sub)
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		return 1
	}
	fmt.Fprintf(w, "%s → %s (%d bytes)\n", result.Payload.Target, result.Destination, result.Bytes)
	return 0
}

func cmdRun(cfg *config.Config, args []string, w io.Writer) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	verbose := fs.Bool("v", false, "log every statement")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	quiet(*verbose)
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "run: expected one script file")
		return 2
	}

	src, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		return 1
	}

	sender := transport.NewSender()
	defer sender.Close()

	results, err := runScript(context.Background(), cfg, sender, string(src))
	for _, r := range results {
		fmt.Fprintf(w, "%s → %s (%d bytes)\n", r.Payload.Target, r.Destination, r.Bytes)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		return 1
	}
	return 0
}

// runScript runs a set script against a fresh in-memory target store.
func runScript(ctx context.Context, cfg *config.Config, sender services.Dispatcher, src string) ([]*services.PlayResult, error) {
	targets := services.NewMemoryTargetStore()
	_, player := newRoutedPlayer(cfg, targets, sender)
	results, err := script.NewRunner(targets, player).RunScript(ctx, src)
	return results, errors.Wrap(err, "run")
}

func cmdExport(cfg *config.Config, args []string, w io.Writer) int {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	output := fs.String("o", "pattern.mid", "output file")
	bpm := fs.Float64("bpm", export.DefaultBPM, "tempo")
	channel := fs.Uint("channel", uint(export.DefaultChannel), "MIDI channel, 0-15")
	name := fs.String("name", appName, "track name")
	verbose := fs.Bool("v", false, "log the compile")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	quiet(*verbose)
	if *channel > 15 {
		fmt.Fprintf(os.Stderr, "export: invalid MIDI channel %d\n", *channel)
		return 2
	}

	opts := export.DefaultOptions()
	opts.BPM = *bpm
	opts.Channel = uint8(*channel)
	opts.TrackName = *name

	n, err := exportFile(context.Background(), services.NewCompiler(cfg, nil), strings.Join(fs.Args(), " "), *output, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		return 1
	}
	fmt.Fprintf(w, "wrote %s (%d bytes)\n", *output, n)
	return 0
}

func exportFile(ctx context.Context, compiler *services.Compiler, text, path string, opts export.Options) (int64, error) {
	p, err := compiler.Compile(ctx, text, 0)
	if err != nil {
		return 0, err
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, errors.Wrap(err, "creating output")
	}
	n, err := export.WriteSMF(f, p, opts)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return n, err
}

func cmdMonitor(cfg *config.Config, args []string, w io.Writer) int {
	fs := flag.NewFlagSet("monitor", flag.ContinueOnError)
	listen := fs.String("listen", fmt.Sprintf(":%d", cfg.OSCPort), "UDP address to listen on")
	address := fs.String("address", cfg.OSCAddress, "OSC address to accept")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(w, "listening on %s%s\n", *listen, *address)
	err := transport.Listen(ctx, *listen, *address, func(p pattern.Payload) {
		fmt.Fprintln(w, formatPayload(p))
	})
	if err != nil && ctx.Err() == nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		return 1
	}
	return 0
}

func formatPayload(p pattern.Payload) string {
	return fmt.Sprintf("%s %s %s",
		targetStyle.Render(p.Target),
		mutedStyle.Render(fmt.Sprintf("[%d×%d]", p.Length, p.Subdivision)),
		p.Steps)
}
