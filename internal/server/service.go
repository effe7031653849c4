package server

import (
	"fmt"
	rand "math/rand/v2"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"jokerwhist/internal/bot"
	"jokerwhist/internal/game"
	"jokerwhist/internal/randutil"
	"jokerwhist/internal/sessionid"
)

// GameService owns the session registry: it creates sessions, routes
// actions from connections to the right runner and tears sessions down
// when they finish.
type GameService struct {
	mu         sync.RWMutex
	sessions   map[string]*SessionRunner
	byIdentity map[string]string // human identity -> session ID

	server    *Server
	transport Broadcaster
	recorder  ResultRecorder
	clock     quartz.Clock
	cfg       *ServerConfig
	logger    *log.Logger
	// rng only ever seeds per-session generators, under mu; sessions
	// never share generator state across their goroutines.
	rng *rand.Rand
	ids *sessionid.Generator

	monitorEnabled bool
}

// NewGameService creates a game service. seed fixes the service RNG
// for reproducible games; pass 0 to seed from the clock.
func NewGameService(cfg *ServerConfig, recorder ResultRecorder, clock quartz.Clock, logger *log.Logger, seed int64) *GameService {
	if seed == 0 {
		seed = clock.Now().UnixNano()
	}
	return &GameService{
		sessions:       make(map[string]*SessionRunner),
		byIdentity:     make(map[string]string),
		recorder:       recorder,
		clock:          clock,
		cfg:            cfg,
		logger:         logger.WithPrefix("service"),
		rng:            randutil.New(seed),
		ids:            sessionid.NewGenerator(nil),
		monitorEnabled: cfg.Game.Monitor,
	}
}

// SetServer wires the websocket transport after both sides exist
func (g *GameService) SetServer(server *Server) {
	g.server = server
	g.transport = server
}

// CreateSession builds a session for four seat requests and starts its
// runner. Human identities must be distinct and not already in a game.
func (g *GameService) CreateSession(seats []SeatRequest) (string, error) {
	if len(seats) != 4 {
		return "", fmt.Errorf("a session needs exactly 4 seats, got %d", len(seats))
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	var participants [4]game.Participant
	seen := make(map[string]bool, 4)
	botCount := 0
	for i, req := range seats {
		if req.Bot {
			botCount++
			// The personality field takes a personality name or the name
			// of a bot block from the server config.
			personality := req.Personality
			if personality == "" {
				personality = g.pickBotPersonality(botCount)
			} else if named := g.cfg.GetBotByName(personality); named != nil {
				personality = named.Personality
			}
			if _, err := bot.ParsePersonality(personality); err != nil {
				return "", err
			}
			id := req.Identity
			if id == "" {
				id = fmt.Sprintf("bot-%d", botCount)
			}
			participants[i] = game.Bot(id, personality)
		} else {
			if req.Identity == "" {
				return "", fmt.Errorf("seat %d: human seats need an identity", i+1)
			}
			if existing, ok := g.byIdentity[req.Identity]; ok {
				return "", fmt.Errorf("identity %s is already in session %s", req.Identity, existing)
			}
			participants[i] = game.Human(req.Identity)
		}
		if seen[participants[i].ID] {
			return "", fmt.Errorf("duplicate identity %s", participants[i].ID)
		}
		seen[participants[i].ID] = true
	}

	id := g.ids.Generate()

	// Each session gets its own generator: runners run on their own
	// goroutines and rand.Rand is not safe for concurrent use.
	sessionRNG := randutil.New(g.rng.Int64())
	session := game.NewSession(id, participants, g.logger, sessionRNG)
	runner := NewSessionRunner(session, g.transport, g.recorder, g.clock, RunnerConfig{
		GracePeriod:   g.cfg.GracePeriod(),
		BotThinkDelay: g.cfg.BotThinkDelay(),
		HandDelay:     g.cfg.HandDelay(),
	}, g.logger, sessionRNG, g.removeSession)

	if g.monitorEnabled {
		session.Events().Subscribe(NewSessionMonitor(id))
	}

	g.sessions[id] = runner
	for _, p := range participants {
		if p.IsHuman() {
			g.byIdentity[p.ID] = id
		}
	}

	g.logger.Info("Session created", "session", id, "bots", botCount)
	runner.Start()
	return id, nil
}

// pickBotPersonality cycles through the configured bot personalities
func (g *GameService) pickBotPersonality(n int) string {
	if len(g.cfg.Bots) == 0 {
		return "neutral"
	}
	return g.cfg.Bots[(n-1)%len(g.cfg.Bots)].Personality
}

// Runner returns the runner for a session ID
func (g *GameService) Runner(sessionID string) (*SessionRunner, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.sessions[sessionID]
	return r, ok
}

// RunnerForIdentity returns the runner for a human identity's session
func (g *GameService) RunnerForIdentity(identity string) (*SessionRunner, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	id, ok := g.byIdentity[identity]
	if !ok {
		return nil, false
	}
	r, ok := g.sessions[id]
	return r, ok
}

// SessionFor returns the session ID a human identity belongs to
func (g *GameService) SessionFor(identity string) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	id, ok := g.byIdentity[identity]
	return id, ok
}

// HandleDisconnect routes a dropped connection to its session
func (g *GameService) HandleDisconnect(identity string) {
	if identity == "" {
		return
	}
	if runner, ok := g.RunnerForIdentity(identity); ok {
		runner.NotifyDisconnect(identity)
	}
}

// removeSession drops a finished session from the registry
func (g *GameService) removeSession(sessionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.sessions, sessionID)
	for identity, id := range g.byIdentity {
		if id == sessionID {
			delete(g.byIdentity, identity)
		}
	}
	g.logger.Info("Session removed", "session", sessionID, "active", len(g.sessions))
}

// ActiveSessions returns the number of running sessions
func (g *GameService) ActiveSessions() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.sessions)
}

// Shutdown stops every running session
func (g *GameService) Shutdown() {
	g.mu.Lock()
	runners := make([]*SessionRunner, 0, len(g.sessions))
	for _, r := range g.sessions {
		runners = append(runners, r)
	}
	g.mu.Unlock()

	for _, r := range runners {
		r.Stop()
	}
}
