package script

import (
	"context"
	"fmt"

	"github.com/Conceptual-Machines/battito/internal/logger"
	"github.com/Conceptual-Machines/battito/internal/services"
)

// Runner applies actions in order: routes go to the target store, patterns
// through the player.
type Runner struct {
	targets services.TargetStore
	player  *services.Player
}

func NewRunner(targets services.TargetStore, player *services.Player) *Runner {
	return &Runner{targets: targets, player: player}
}

// Run stops at the first failing action. The results of the plays that went
// out before it are returned with the error.
func (r *Runner) Run(ctx context.Context, actions []Action) ([]*services.PlayResult, error) {
	var results []*services.PlayResult
	for i, a := range actions {
		switch a.Kind {
		case ActionTarget:
			if err := r.targets.Put(ctx, a.Route); err != nil {
				return results, fmt.Errorf("statement %d: %w", i+1, err)
			}
			logger.Debug("Script routed target", logger.Fields{
				"target":      a.Route.Name,
				"destination": a.Route.Destination(),
			})
		case ActionPlay:
			result, err := r.player.Play(ctx, a.Target, a.Pattern, a.Subdivision)
			if err != nil {
				return results, fmt.Errorf("statement %d: %w", i+1, err)
			}
			results = append(results, result)
		default:
			return results, fmt.Errorf("statement %d: %w: unknown action %q", i+1, ErrInvalidScript, a.Kind)
		}
	}
	return results, nil
}

// RunScript parses src with a fresh parser and runs it.
func (r *Runner) RunScript(ctx context.Context, src string) ([]*services.PlayResult, error) {
	parser, err := NewParser()
	if err != nil {
		return nil, err
	}
	actions, err := parser.Parse(ctx, src)
	if err != nil {
		return nil, err
	}
	return r.Run(ctx, actions)
}
