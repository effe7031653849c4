package game

// ParticipantKind discriminates human seats from bot-controlled seats
type ParticipantKind int

const (
	HumanParticipant ParticipantKind = iota
	BotParticipant
)

// Participant identifies who was assigned to a seat when the session
// was created. For humans the ID is the stable identity used for
// reconnection matching; for bots it names the substitute and carries
// the personality the decision engine should use.
type Participant struct {
	Kind        ParticipantKind
	ID          string
	Personality string // bot personality name, empty for humans
}

// Human creates a human participant with a stable identity
func Human(id string) Participant {
	return Participant{Kind: HumanParticipant, ID: id}
}

// Bot creates a bot participant with a personality
func Bot(id, personality string) Participant {
	return Participant{Kind: BotParticipant, ID: id, Personality: personality}
}

// IsHuman reports whether the participant is a human identity
func (p Participant) IsHuman() bool {
	return p.Kind == HumanParticipant
}
