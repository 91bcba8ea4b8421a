// Package carousel tracks the viewer's position in the full-screen swipe
// player and derives the three-slot window around it. Only the center slot
// is ever backed by the live media element; neighbors render thumbnails.
package carousel

import (
	"fmt"
	"sync"

	"github.com/clipreel/clipreel/internal/catalog"
	"github.com/clipreel/clipreel/internal/engage"
	"github.com/clipreel/clipreel/internal/player"
)

type Position string

const (
	PositionPrevious Position = "previous"
	PositionCenter   Position = "center"
	PositionNext     Position = "next"
)

type Slot struct {
	Index    int
	Position Position
	Video    catalog.Video
}

// Navigator owns currentIndex over a catalogue list that is immutable for
// the session. Index changes route into the player (full re-initialization
// of the media element) and the engagement client (UI state reset from the
// snapshot).
type Navigator struct {
	mu      sync.Mutex
	videos  []catalog.Video
	current int
	player  *player.Controller
	session *engage.Client
}

func New(videos []catalog.Video, initialIndex int, ctrl *player.Controller, session *engage.Client) (*Navigator, error) {
	if len(videos) == 0 {
		return nil, fmt.Errorf("carousel needs at least one video")
	}
	if initialIndex < 0 || initialIndex >= len(videos) {
		return nil, fmt.Errorf("initial index %d out of range [0,%d)", initialIndex, len(videos))
	}

	n := &Navigator{
		videos:  append([]catalog.Video(nil), videos...),
		current: initialIndex,
		player:  ctrl,
		session: session,
	}
	n.session.Bind(n.videos[initialIndex])
	n.player.Load(n.videos[initialIndex].VideoURL)
	return n, nil
}

func (n *Navigator) CurrentIndex() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

func (n *Navigator) Current() catalog.Video {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.videos[n.current]
}

func (n *Navigator) Len() int {
	return len(n.videos)
}

// Window returns the visible slots. The previous slot is absent at index 0
// and the next slot at the last index; the window never wraps.
func (n *Navigator) Window() []Slot {
	n.mu.Lock()
	defer n.mu.Unlock()

	slots := make([]Slot, 0, 3)
	if n.current > 0 {
		slots = append(slots, Slot{Index: n.current - 1, Position: PositionPrevious, Video: n.videos[n.current-1]})
	}
	slots = append(slots, Slot{Index: n.current, Position: PositionCenter, Video: n.videos[n.current]})
	if n.current < len(n.videos)-1 {
		slots = append(slots, Slot{Index: n.current + 1, Position: PositionNext, Video: n.videos[n.current+1]})
	}
	return slots
}

// Select centers the given index. Selecting the already-centered index is
// a no-op; anything else rebuilds the player and resets engagement UI
// state from that video's snapshot.
func (n *Navigator) Select(index int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.selectLocked(index)
}

func (n *Navigator) selectLocked(index int) error {
	if index < 0 || index >= len(n.videos) {
		return fmt.Errorf("index %d out of range [0,%d)", index, len(n.videos))
	}
	if index == n.current {
		return nil
	}

	n.current = index
	n.session.Bind(n.videos[index])
	n.player.Load(n.videos[index].VideoURL)
	return nil
}

// Next advances one slot; at the end of the list it is a no-op.
func (n *Navigator) Next() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current+1 < len(n.videos) {
		_ = n.selectLocked(n.current + 1)
	}
}

// Previous moves back one slot; at index 0 it is a no-op.
func (n *Navigator) Previous() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current > 0 {
		_ = n.selectLocked(n.current - 1)
	}
}

// Close leaves the carousel: playback stops and the media element is
// released.
func (n *Navigator) Close() {
	n.player.Close()
}
