package bot

import "fmt"

// Personality shifts how a bot turns its hand evaluation into a bid.
// Card play is unaffected; only bidding temperament changes.
type Personality int

const (
	// Neutral bids the evaluation as-is
	Neutral Personality = iota
	// Conservative shaves a trick or two off strong hands
	Conservative
	// Aggressive rounds up when the evaluation is close to the next
	// trick
	Aggressive
	// Overconfident randomly bids one more than the evaluation
	Overconfident
	// Adaptive shifts with the partner's recent over/under performance
	Adaptive
)

var personalityNames = map[string]Personality{
	"neutral":       Neutral,
	"conservative":  Conservative,
	"aggressive":    Aggressive,
	"overconfident": Overconfident,
	"adaptive":      Adaptive,
}

// ParsePersonality parses a personality name as used in config files
func ParsePersonality(name string) (Personality, error) {
	if p, ok := personalityNames[name]; ok {
		return p, nil
	}
	return Neutral, fmt.Errorf("unknown bot personality %q", name)
}

func (p Personality) String() string {
	switch p {
	case Conservative:
		return "conservative"
	case Aggressive:
		return "aggressive"
	case Overconfident:
		return "overconfident"
	case Adaptive:
		return "adaptive"
	default:
		return "neutral"
	}
}
