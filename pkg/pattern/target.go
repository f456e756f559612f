package pattern

import (
	"fmt"
	"strings"
)

// TargetSeparator splits "<target> $ <pattern>".
const TargetSeparator = " $ "

// SplitTarget splits a targeted line such as "kick $ b(3,8)". The target must
// be ASCII alphanumeric.
func SplitTarget(text string) (target, body string, err error) {
	target, body, found := strings.Cut(text, TargetSeparator)
	if !found || target == "" {
		return "", "", fmt.Errorf("%w: expected <target>%s<pattern>", ErrGrammar, TargetSeparator)
	}
	for i := 0; i < len(target); i++ {
		if !isAlphanumeric(target[i]) {
			return "", "", fmt.Errorf("%w: invalid target %q", ErrGrammar, target)
		}
	}
	return target, body, nil
}

// Payload is what gets shipped to a sound target.
type Payload struct {
	Target      string `json:"target"`
	Steps       string `json:"steps"`
	Length      uint32 `json:"length"`
	Subdivision uint32 `json:"subdivision"`
}

// NewPayload renders p for target in the Max format.
func NewPayload(target string, p *Pattern) Payload {
	return Payload{
		Target:      target,
		Steps:       p.MaxFormat(),
		Length:      p.Length,
		Subdivision: p.Subdivision,
	}
}
