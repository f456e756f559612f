package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Conceptual-Machines/battito/internal/logger"
	"github.com/Conceptual-Machines/battito/internal/metrics"
	"github.com/Conceptual-Machines/battito/internal/transport"
	"github.com/Conceptual-Machines/battito/pkg/pattern"
)

// Dispatcher sends a payload to a destination and returns the bytes sent.
type Dispatcher interface {
	Send(ctx context.Context, dest transport.Destination, payload pattern.Payload) (int, error)
}

// PlayResult is what was compiled and where it went.
type PlayResult struct {
	Payload     pattern.Payload       `json:"payload"`
	Destination transport.Destination `json:"destination"`
	Bytes       int                   `json:"bytes"`
}

// Player compiles patterns for named targets and dispatches them. Targets
// without a stored route go to the fallback destination.
type Player struct {
	compiler *Compiler
	targets  TargetStore
	sender   Dispatcher
	fallback transport.Destination

	sentryMetrics *metrics.SentryMetrics
	cloudwatch    *metrics.Client
}

func NewPlayer(compiler *Compiler, targets TargetStore, sender Dispatcher, fallback transport.Destination, cloudwatch *metrics.Client) *Player {
	return &Player{
		compiler:      compiler,
		targets:       targets,
		sender:        sender,
		fallback:      fallback,
		sentryMetrics: metrics.NewSentryMetrics(),
		cloudwatch:    cloudwatch,
	}
}

// Fallback is the destination of targets without a route.
func (p *Player) Fallback() transport.Destination {
	return p.fallback
}

// Resolve returns the destination of target and its preferred subdivision
// (0 when it has none).
func (p *Player) Resolve(ctx context.Context, target string) (transport.Destination, uint32, error) {
	t, err := p.targets.Get(ctx, target)
	if errors.Is(err, ErrTargetNotFound) {
		return p.fallback, 0, nil
	}
	if err != nil {
		return transport.Destination{}, 0, err
	}
	return transport.Destination{Addr: t.Destination(), Address: t.Address}, t.Subdivision, nil
}

// Prepare compiles text for target without sending it. An explicit
// subdivision wins over the target's own.
func (p *Player) Prepare(ctx context.Context, target, text string, subdivision uint32) (*PlayResult, error) {
	dest, preferred, err := p.Resolve(ctx, target)
	if err != nil {
		return nil, err
	}
	if subdivision == 0 {
		subdivision = preferred
	}

	start := time.Now()
	compiled, err := p.compiler.Compile(ctx, text, subdivision)
	steps := 0
	if compiled != nil {
		steps = len(compiled.Steps)
	}
	logger.LogCompile(ctx, target, time.Since(start), steps, err, nil)
	if err != nil {
		return nil, err
	}

	return &PlayResult{
		Payload:     pattern.NewPayload(target, compiled),
		Destination: dest,
	}, nil
}

// Play compiles text and sends it to target.
func (p *Player) Play(ctx context.Context, target, text string, subdivision uint32) (*PlayResult, error) {
	result, err := p.Prepare(ctx, target, text, subdivision)
	if err != nil {
		return nil, err
	}

	n, err := p.sender.Send(ctx, result.Destination, result.Payload)
	p.sentryMetrics.RecordDispatch(ctx, target, result.Destination.String(), n, err)
	p.cloudwatch.RecordDispatch(target, err == nil)
	if err != nil {
		logger.Error("Dispatch failed", err, logger.Fields{
			"target":      target,
			"destination": result.Destination.String(),
		})
		return nil, fmt.Errorf("%w: %w", ErrDispatch, err)
	}

	result.Bytes = n
	return result, nil
}

// PlayLine plays a "target $ pattern" line.
func (p *Player) PlayLine(ctx context.Context, line string, subdivision uint32) (*PlayResult, error) {
	target, body, err := pattern.SplitTarget(line)
	if err != nil {
		return nil, err
	}
	return p.Play(ctx, target, body, subdivision)
}
