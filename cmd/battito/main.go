// Command battito compiles rhythm patterns and plays them over OSC.
//
//	battito [repl]                    interactive prompt (default)
//	battito compile [-format F] PAT   print a compiled pattern
//	battito play -target T PAT        compile and send once
//	battito export [-o FILE] PAT      write a Standard MIDI File
//	battito monitor [-listen ADDR]    print payloads received over OSC
//	battito run FILE                  route targets and play patterns from a set script
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/Conceptual-Machines/battito/internal/config"
	"github.com/Conceptual-Machines/battito/internal/services"
	"github.com/Conceptual-Machines/battito/internal/transport"
	"github.com/joho/godotenv"
)

const appName = "battito"

var usage = `usage: battito <command> [flags] [pattern]

commands:
  repl      interactive prompt (default)
  compile   print a compiled pattern
  play      compile a pattern and send it over OSC
  export    write a pattern as a Standard MIDI File
  monitor   print payloads received over OSC
  run       route targets and play patterns from a set script
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	_ = godotenv.Load()
	cfg := config.Load()

	cmd := "repl"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "repl":
		return cmdRepl(cfg, args)
	case "compile":
		return cmdCompile(cfg, args, os.Stdout)
	case "play":
		return cmdPlay(cfg, args, os.Stdout)
	case "export":
		return cmdExport(cfg, args, os.Stdout)
	case "monitor":
		return cmdMonitor(cfg, args, os.Stdout)
	case "run":
		return cmdRun(cfg, args, os.Stdout)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n\n%s", appName, cmd, usage)
		return 2
	}
}

// newPlayer wires a player with an empty in-memory target store; every
// target goes to the configured OSC destination.
func newPlayer(cfg *config.Config, sender services.Dispatcher) (*services.Compiler, *services.Player) {
	return newRoutedPlayer(cfg, services.NewMemoryTargetStore(), sender)
}

// newRoutedPlayer is newPlayer over targets; unrouted targets use the
// configured OSC destination.
func newRoutedPlayer(cfg *config.Config, targets services.TargetStore, sender services.Dispatcher) (*services.Compiler, *services.Player) {
	compiler := services.NewCompiler(cfg, nil)
	fallback := transport.Destination{Addr: cfg.OSCDestination(), Address: cfg.OSCAddress}
	return compiler, services.NewPlayer(compiler, targets, sender, fallback, nil)
}

// quiet silences the structured log unless verbose is set.
func quiet(verbose bool) {
	if !verbose {
		log.SetOutput(io.Discard)
	}
}
