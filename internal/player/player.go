// Package player owns the single active media element behind the carousel's
// center slot. One Controller is live at a time; every index change tears
// the element down and rebuilds its state from scratch.
package player

import (
	"math"
	"sync"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReady
	PhasePlaying
	PhasePaused
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhasePlaying:
		return "playing"
	case PhasePaused:
		return "paused"
	case PhaseError:
		return "error"
	}
	return "unknown"
}

// Media is the playback element the controller drives. Implementations
// deliver their asynchronous events back through MediaReady, MediaProgress
// and MediaFailed, tagged with the generation returned by Load. They must
// not call back into the controller from within a Media method.
type Media interface {
	// Load attaches a new source and begins fetching it. gen identifies
	// this load; the implementation tags the resulting async events with
	// it so the controller can recognize stale ones.
	Load(src string, gen uint64)
	// Play attempts playback; an error is an autoplay refusal, which is an
	// expected outcome rather than a fault.
	Play() error
	Pause()
	// Release detaches the current source and stops any network activity.
	Release()
	SetMuted(muted bool)
	// SeekTo positions playback at the given offset in seconds.
	SeekTo(seconds float64)
	// Duration returns the total length in seconds, or 0/NaN when unknown.
	Duration() float64
	// Position returns the current playback offset in seconds.
	Position() float64
}

// State is the UI-facing snapshot of the controller.
type State struct {
	Phase    Phase
	Progress float64 // elapsed fraction in [0,1]
	Muted    bool
	Loading  bool
}

type Controller struct {
	mu    sync.Mutex
	media Media
	gen   uint64
	state State
}

func New(media Media) *Controller {
	return &Controller{media: media, state: State{Phase: PhaseIdle}}
}

// State returns a copy of the current playback state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Generation identifies the current load; events tagged with an older
// generation are discarded.
func (c *Controller) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Load abandons any in-flight load, releases the previous resource and
// starts loading src. The playback state is rebuilt whole, not patched:
// the media resource changes identity, so nothing from the previous video
// may survive. Returns the generation to tag media events with.
func (c *Controller) Load(src string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Phase != PhaseIdle {
		c.media.Pause()
		c.media.Release()
	}

	c.gen++
	c.state = State{Phase: PhaseLoading, Loading: true}
	c.media.SetMuted(false)
	c.media.Load(src, c.gen)
	return c.gen
}

// MediaReady is the media's signal that enough data is buffered to play.
// Entering Ready issues an automatic play attempt; a refusal lands in
// Paused, surfaced as a play affordance rather than an error.
func (c *Controller) MediaReady(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen || c.state.Phase != PhaseLoading {
		return // stale or duplicate signal from an abandoned load
	}

	c.state.Phase = PhaseReady
	c.state.Loading = false

	if err := c.media.Play(); err != nil {
		c.state.Phase = PhasePaused
		return
	}
	c.state.Phase = PhasePlaying
}

// MediaProgress recomputes the elapsed fraction from the media's position
// and duration. Unknown duration pins progress at 0.
func (c *Controller) MediaProgress(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return
	}
	if c.state.Phase != PhasePlaying && c.state.Phase != PhasePaused {
		return
	}
	c.state.Progress = fraction(c.media.Position(), c.media.Duration())
}

// MediaFailed marks the load or playback as broken. Distinct from autoplay
// refusal, which never reaches this path.
func (c *Controller) MediaFailed(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return
	}
	c.state.Phase = PhaseError
	c.state.Loading = false
}

// TogglePlayback flips between Playing and Paused on user input. Outside
// those two states (and Ready) it is a no-op.
func (c *Controller) TogglePlayback() {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state.Phase {
	case PhasePlaying:
		c.media.Pause()
		c.state.Phase = PhasePaused
	case PhasePaused, PhaseReady:
		if err := c.media.Play(); err != nil {
			c.state.Phase = PhasePaused
			return
		}
		c.state.Phase = PhasePlaying
	}
}

// ToggleMute flips the muted flag on the element and mirrors it into the
// state. Independent of the playback phase.
func (c *Controller) ToggleMute() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Muted = !c.state.Muted
	c.media.SetMuted(c.state.Muted)
}

// Seek positions playback at fraction of the total duration. Fractions are
// clamped to [0,1]; unknown duration makes this a no-op.
func (c *Controller) Seek(frac float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	d := c.media.Duration()
	if d <= 0 || math.IsNaN(d) {
		return
	}
	if frac < 0 {
		frac = 0
	} else if frac > 1 {
		frac = 1
	}
	c.media.SeekTo(frac * d)
	if c.state.Phase == PhasePlaying || c.state.Phase == PhasePaused {
		c.state.Progress = frac
	}
}

// Close stops playback and releases the media resource. Releasing before
// the next source attaches is what prevents audio bleed-through between
// consecutive videos.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Phase == PhaseIdle {
		return
	}
	c.media.Pause()
	c.media.Release()
	c.gen++
	c.state = State{Phase: PhaseIdle}
}

func fraction(position, duration float64) float64 {
	if duration <= 0 || math.IsNaN(duration) {
		return 0
	}
	f := position / duration
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
