// Package script runs set scripts: short programs of target(...) and play(...)
// calls that route targets and send patterns to them in one go.
package script

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Conceptual-Machines/battito/internal/logger"
	"github.com/Conceptual-Machines/battito/internal/models"
	"github.com/Conceptual-Machines/grammar-school-go/gs"
)

var (
	ErrEmptyScript   = errors.New("empty script")
	ErrInvalidScript = errors.New("invalid script")
)

// ActionKind tells what a statement does.
type ActionKind string

const (
	ActionTarget ActionKind = "target"
	ActionPlay   ActionKind = "play"
)

// Action is one executed statement.
type Action struct {
	Kind ActionKind

	// Route is set for target actions.
	Route *models.Target

	// Target, Pattern and Subdivision are set for play actions. A zero
	// subdivision leaves the choice to the target.
	Target      string
	Pattern     string
	Subdivision uint32
}

// Parser turns scripts into actions. It is not safe for concurrent use.
type Parser struct {
	engine  *gs.Engine
	dsl     *DSL
	actions []Action
}

// DSL implements the script's calls as side-effect methods.
type DSL struct {
	parser *Parser
}

func NewParser() (*Parser, error) {
	parser := &Parser{
		dsl:     &DSL{},
		actions: make([]Action, 0),
	}
	parser.dsl.parser = parser

	engine, err := gs.NewEngine(Grammar(), parser.dsl, gs.NewLarkParser())
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	parser.engine = engine
	return parser, nil
}

// Parse executes src and returns its actions in order. Statements are one per
// line or separated by ";". Blank lines and lines starting with # are skipped.
func (p *Parser) Parse(ctx context.Context, src string) ([]Action, error) {
	code := statements(src)
	if code == "" {
		return nil, ErrEmptyScript
	}

	p.actions = make([]Action, 0)
	if err := p.engine.Execute(ctx, code); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}
	if len(p.actions) == 0 {
		return nil, fmt.Errorf("%w: no statements", ErrInvalidScript)
	}

	logger.Debug("Script parsed", logger.Fields{"actions": len(p.actions)})
	return p.actions, nil
}

func statements(src string) string {
	var out []string
	for _, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		for _, stmt := range strings.Split(line, ";") {
			if stmt = strings.TrimSpace(stmt); stmt != "" {
				out = append(out, stmt)
			}
		}
	}
	return strings.Join(out, ";")
}

// Target handles target() calls.
func (d *DSL) Target(args gs.Args) error {
	route := &models.Target{
		Name:    stringArg(args, "name"),
		Host:    stringArg(args, "host"),
		Address: stringArg(args, "address"),
	}

	port, ok, err := uintArg(args, "port", 65535)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: target: missing port", ErrInvalidScript)
	}
	route.Port = int(port)

	sub, _, err := uintArg(args, "subdivision", math.MaxUint32)
	if err != nil {
		return err
	}
	route.Subdivision = uint32(sub)

	if err := route.Validate(); err != nil {
		return fmt.Errorf("%w: target: %w", ErrInvalidScript, err)
	}

	d.parser.actions = append(d.parser.actions, Action{Kind: ActionTarget, Route: route})
	return nil
}

// Play handles play() calls.
func (d *DSL) Play(args gs.Args) error {
	target := stringArg(args, "target")
	if !models.IsTargetName(target) {
		return fmt.Errorf("%w: play: invalid target %q", ErrInvalidScript, target)
	}

	text := stringArg(args, "pattern")
	if text == "" {
		return fmt.Errorf("%w: play: missing pattern", ErrInvalidScript)
	}

	sub, _, err := uintArg(args, "subdivision", math.MaxUint32)
	if err != nil {
		return err
	}

	d.parser.actions = append(d.parser.actions, Action{
		Kind:        ActionPlay,
		Target:      target,
		Pattern:     text,
		Subdivision: uint32(sub),
	})
	return nil
}

// stringArg returns a bare or quoted string argument without its quotes.
func stringArg(args gs.Args, key string) string {
	if v, ok := args[key]; ok && v.Kind == gs.ValueString {
		return strings.Trim(v.Str, "\"")
	}
	return ""
}

// uintArg returns a whole-number argument no greater than limit.
func uintArg(args gs.Args, key string, limit float64) (uint64, bool, error) {
	v, ok := args[key]
	if !ok {
		return 0, false, nil
	}
	if v.Kind != gs.ValueNumber || v.Num < 0 || v.Num > limit || v.Num != math.Trunc(v.Num) {
		return 0, false, fmt.Errorf("%w: %s must be a whole number between 0 and %.0f", ErrInvalidScript, key, limit)
	}
	return uint64(v.Num), true, nil
}
