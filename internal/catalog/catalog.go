package catalog

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrNotFound is returned when no video with the requested id exists.
var ErrNotFound = errors.New("video not found")

// Comment ids are sequential per video, starting at 1. They are not unique
// across videos.
type Comment struct {
	ID        int    `json:"id"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

type Video struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	VideoURL    string    `json:"videoUrl"`
	Thumbnail   string    `json:"thumbnail"`
	Views       int       `json:"views"`
	Likes       int       `json:"likes"`
	Shares      int       `json:"shares"`
	Comments    []Comment `json:"comments"`
}

type entry struct {
	mu    sync.Mutex
	video Video
}

// Store holds the catalogue in memory for the life of the process. The set
// of videos is fixed at construction; only per-video counters and comment
// lists mutate afterwards. Each video carries its own mutex so concurrent
// mutations on the same id serialize while different ids proceed
// independently.
type Store struct {
	order []*entry
	byID  map[int]*entry
	now   func() time.Time
}

func New(videos []Video) (*Store, error) {
	s := &Store{
		byID: make(map[int]*entry, len(videos)),
		now:  time.Now,
	}
	for _, v := range videos {
		if _, dup := s.byID[v.ID]; dup {
			return nil, fmt.Errorf("duplicate video id %d", v.ID)
		}
		if v.Likes < 0 || v.Shares < 0 || v.Views < 0 {
			return nil, fmt.Errorf("video %d has a negative counter", v.ID)
		}
		e := &entry{video: v}
		e.video.Comments = append([]Comment(nil), v.Comments...)
		s.byID[v.ID] = e
		s.order = append(s.order, e)
	}
	return s, nil
}

func (s *Store) Len() int {
	return len(s.order)
}

// List returns a snapshot of the catalogue in seed order.
func (s *Store) List() []Video {
	videos := make([]Video, 0, len(s.order))
	for _, e := range s.order {
		e.mu.Lock()
		videos = append(videos, snapshot(&e.video))
		e.mu.Unlock()
	}
	return videos
}

func (s *Store) Find(id int) (Video, error) {
	e, ok := s.byID[id]
	if !ok {
		return Video{}, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshot(&e.video), nil
}

// Like increments the like counter by exactly one and returns the new
// value. There is no caller identity: repeated calls always increment.
func (s *Store) Like(id int) (int, error) {
	e, ok := s.byID[id]
	if !ok {
		return 0, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.video.Likes++
	return e.video.Likes, nil
}

func (s *Store) Share(id int) (int, error) {
	e, ok := s.byID[id]
	if !ok {
		return 0, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.video.Shares++
	return e.video.Shares, nil
}

// AddComment appends a comment and returns it along with the new total.
// The id is the comment count after append; deriving it from the list
// length is safe because the entry mutex serializes appends per video.
func (s *Store) AddComment(id int, text string) (Comment, int, error) {
	e, ok := s.byID[id]
	if !ok {
		return Comment{}, 0, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	c := Comment{
		ID:        len(e.video.Comments) + 1,
		Text:      text,
		Timestamp: s.now().UTC().Format(time.RFC3339),
	}
	e.video.Comments = append(e.video.Comments, c)
	return c, len(e.video.Comments), nil
}

func snapshot(v *Video) Video {
	out := *v
	out.Comments = append([]Comment(nil), v.Comments...)
	return out
}
