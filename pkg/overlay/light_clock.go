package overlay

import "github.com/pkg/errors"

type LightPhase int

const (
	PhaseRed LightPhase = iota
	PhaseYellow
	PhaseGreen
)

func (p LightPhase) String() string {
	switch p {
	case PhaseRed:
		return "red"
	case PhaseYellow:
		return "yellow"
	case PhaseGreen:
		return "green"
	}
	return "unknown"
}

func (p LightPhase) next() LightPhase {
	return (p + 1) % 3
}

// PhaseDurations holds the configured duration of each phase in seconds.
type PhaseDurations struct {
	Red    int
	Yellow int
	Green  int
}

func (d PhaseDurations) of(p LightPhase) int {
	switch p {
	case PhaseRed:
		return d.Red
	case PhaseYellow:
		return d.Yellow
	default:
		return d.Green
	}
}

func (d PhaseDurations) Valid() bool {
	return d.Red > 0 && d.Yellow > 0 && d.Green > 0
}

// PhaseModifiers maps each phase to the additive weight delta it puts on the
// affected edges. Configured once per process, not per light.
type PhaseModifiers struct {
	Red    float64
	Yellow float64
	Green  float64
}

func (m PhaseModifiers) of(p LightPhase) float64 {
	switch p {
	case PhaseRed:
		return m.Red
	case PhaseYellow:
		return m.Yellow
	default:
		return m.Green
	}
}

// LightClock is the periodic three-phase state machine behind a traffic-light
// effect. It owns no timer: the host's scheduling facility calls Tick once per
// second, and the clock reports transitions and countdown changes through the
// observer callbacks. After Stop the current modifier stays queryable but no
// further transitions happen.
type LightClock struct {
	durations PhaseDurations
	modifiers PhaseModifiers
	phase     LightPhase
	remaining int
	running   bool

	onPhaseChange func(phase LightPhase)
	onCountdown   func(remaining int)
}

func NewLightClock(durations PhaseDurations, modifiers PhaseModifiers) (*LightClock, error) {
	if !durations.Valid() {
		return nil, errors.New("all phase durations must be positive")
	}
	return &LightClock{
		durations: durations,
		modifiers: modifiers,
		phase:     PhaseRed,
		remaining: durations.Red,
	}, nil
}

func (c *LightClock) OnPhaseChange(fn func(phase LightPhase)) {
	c.onPhaseChange = fn
}

func (c *LightClock) OnCountdown(fn func(remaining int)) {
	c.onCountdown = fn
}

// Start begins ticking at the red phase with its full duration remaining.
func (c *LightClock) Start() {
	c.phase = PhaseRed
	c.remaining = c.durations.Red
	c.running = true
}

func (c *LightClock) Stop() {
	c.running = false
}

func (c *LightClock) Running() bool {
	return c.running
}

// Tick advances the clock by one second. At zero the clock moves to the next
// phase in cyclic order and reloads that phase's duration.
func (c *LightClock) Tick() {
	if !c.running {
		return
	}
	c.remaining--
	if c.remaining <= 0 {
		c.phase = c.phase.next()
		c.remaining = c.durations.of(c.phase)
		if c.onPhaseChange != nil {
			c.onPhaseChange(c.phase)
		}
	}
	if c.onCountdown != nil {
		c.onCountdown(c.remaining)
	}
}

func (c *LightClock) Phase() LightPhase {
	return c.phase
}

func (c *LightClock) Remaining() int {
	return c.remaining
}

// WeightModifier returns the additive delta of the current (or, after Stop,
// last known) phase.
func (c *LightClock) WeightModifier() float64 {
	return c.modifiers.of(c.phase)
}
