package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/Conceptual-Machines/battito/internal/config"
	"github.com/Conceptual-Machines/battito/internal/services"
	"github.com/Conceptual-Machines/battito/internal/transport"
	"github.com/Conceptual-Machines/battito/pkg/embedded"
	"github.com/Conceptual-Machines/battito/pkg/pattern"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/peterh/liner"
)

const promptMain = "battito> "

type outputMode string

const (
	modeMax  outputMode = "max"
	modeJSON outputMode = "json"
	modeTree outputMode = "tree"
	modeGrid outputMode = "grid"
)

var commands = []string{":quit", ":max", ":json", ":tree", ":grid", ":send", ":help"}

var commandHelp = `
REPL commands:
  :max         print steps as "index value probability" (default)
  :json        print the compiled pattern as JSON
  :tree        print the parsed form
  :grid        draw each measure on its minimal grid
  :send on|off dispatch "target $ pattern" lines over OSC (default on)
  :help        this text and the notation reference
  :quit        exit
`

var errQuit = errors.New("quit")

// session is the state of one REPL.
type session struct {
	compiler *services.Compiler
	player   *services.Player
	mode     outputMode
	send     bool
}

func newSession(compiler *services.Compiler, player *services.Player) *session {
	return &session{compiler: compiler, player: player, mode: modeMax, send: true}
}

// eval runs one line and returns what to print. errQuit ends the session.
func (s *session) eval(ctx context.Context, line string) (string, error) {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return "", nil
	case strings.HasPrefix(line, ":"):
		return s.command(line)
	case strings.Contains(line, pattern.TargetSeparator):
		return s.play(ctx, line)
	default:
		return s.render(ctx, line)
	}
}

func (s *session) command(line string) (string, error) {
	fields := strings.Fields(line)
	name := strings.ToLower(fields[0])

	switch name {
	case ":quit":
		return "", errQuit
	case ":max", ":json", ":tree", ":grid":
		s.mode = outputMode(strings.TrimPrefix(name, ":"))
		return "output: " + string(s.mode), nil
	case ":send":
		if len(fields) != 2 || (fields[1] != "on" && fields[1] != "off") {
			return "", fmt.Errorf("usage: :send on|off")
		}
		s.send = fields[1] == "on"
		return "send: " + fields[1], nil
	case ":help":
		return commandHelp + "\n" + string(embedded.GrammarTxt), nil
	default:
		if match := closestCommand(name); match != "" {
			return "", fmt.Errorf("unknown command %s, did you mean %s?", name, match)
		}
		return "", fmt.Errorf("unknown command %s, type :help", name)
	}
}

// closestCommand returns the best fuzzy match for name, or "".
func closestCommand(name string) string {
	ranks := fuzzy.RankFindFold(name, commands)
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	return ranks[0].Target
}

func (s *session) play(ctx context.Context, line string) (string, error) {
	target, body, err := pattern.SplitTarget(line)
	if err != nil {
		return "", err
	}

	var result *services.PlayResult
	if s.send {
		result, err = s.player.Play(ctx, target, body, 0)
	} else {
		result, err = s.player.Prepare(ctx, target, body, 0)
	}
	if err != nil {
		return "", err
	}

	sent := "→ " + result.Destination.String()
	if !s.send {
		sent = "(not sent)"
	}
	return fmt.Sprintf("%s %s\n%s", targetStyle.Render(target), mutedStyle.Render(sent), result.Payload.Steps), nil
}

func (s *session) render(ctx context.Context, text string) (string, error) {
	switch s.mode {
	case modeTree, modeGrid:
		seq, err := s.compiler.Parse(ctx, text)
		if err != nil {
			return "", err
		}
		if s.mode == modeTree {
			return strings.TrimSuffix(seq.Tree(), "\n"), nil
		}
		out, err := renderGrid(seq)
		return strings.TrimSuffix(out, "\n"), err
	}

	p, err := s.compiler.Compile(ctx, text, 0)
	if err != nil {
		return "", err
	}
	if s.mode == modeJSON {
		b, err := p.JSON()
		return string(b), err
	}
	return p.MaxFormat(), nil
}

func cmdRepl(cfg *config.Config, args []string) int {
	fs := flag.NewFlagSet("repl", flag.ContinueOnError)
	verbose := fs.Bool("v", false, "log every compile")
	noSend := fs.Bool("no-send", false, "start with :send off")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	quiet(*verbose)

	sender := transport.NewSender()
	defer sender.Close()
	compiler, player := newPlayer(cfg, sender)
	s := newSession(compiler, player)
	s.send = !*noSend

	fmt.Printf("%s, sending to %s%s. Type :help or :quit.\n",
		promptStyle.Render(appName), cfg.OSCDestination(), cfg.OSCAddress)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetCompleter(func(line string) []string {
		if !strings.HasPrefix(line, ":") {
			return nil
		}
		var out []string
		for _, c := range commands {
			if strings.HasPrefix(c, line) {
				out = append(out, c)
			}
		}
		return out
	})

	if f, err := os.Open(cfg.HistoryFile); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(cfg.HistoryFile); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	for {
		line, err := ln.Prompt(promptMain)
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if errors.Is(err, io.EOF) || ctx.Err() != nil {
			fmt.Println()
			return 0
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
			return 1
		}

		out, err := s.eval(ctx, line)
		if errors.Is(err, errQuit) {
			return 0
		}
		if strings.TrimSpace(line) != "" {
			ln.AppendHistory(line)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
			continue
		}
		if out != "" {
			fmt.Println(okStyle.Render(out))
		}
	}
}
