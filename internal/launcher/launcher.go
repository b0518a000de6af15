// Package launcher turns configured window entries into open requests.
package launcher

import (
	"errors"
	"fmt"
	"sort"

	"github.com/agnivade/levenshtein"

	"github.com/1broseidon/termdesk/internal/audio"
	"github.com/1broseidon/termdesk/internal/config"
	"github.com/1broseidon/termdesk/internal/desk"
	"github.com/1broseidon/termdesk/internal/widget"
)

// ErrUnknownWindow is returned for ids that have no launcher entry.
var ErrUnknownWindow = errors.New("unknown window")

// UnknownWindowError carries the closest known id, if any.
type UnknownWindowError struct {
	ID         string
	Suggestion string
}

func (e *UnknownWindowError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unknown window %q (did you mean %q?)", e.ID, e.Suggestion)
	}
	return fmt.Sprintf("unknown window %q", e.ID)
}

func (e *UnknownWindowError) Unwrap() error { return ErrUnknownWindow }

// Info describes a launchable window.
type Info struct {
	ID    string            `json:"id"`
	Title string            `json:"title"`
	Kind  config.WindowKind `json:"kind"`
	Icon  string            `json:"icon,omitempty"`
}

// Catalog holds the launchable windows in config order.
type Catalog struct {
	cfg      *config.Config
	entries  []config.WindowConfig
	byID     map[string]int
	newAudio audio.Factory
}

// New builds a catalog from cfg. Media players get their backend from
// newAudio; nil uses audio.NewPlayer.
func New(cfg *config.Config, newAudio audio.Factory) *Catalog {
	if newAudio == nil {
		newAudio = audio.NewPlayer
	}
	c := &Catalog{
		cfg:      cfg,
		entries:  cfg.Windows,
		byID:     make(map[string]int, len(cfg.Windows)),
		newAudio: newAudio,
	}
	for i, w := range cfg.Windows {
		c.byID[w.ID] = i
	}
	return c
}

// List returns every launchable window.
func (c *Catalog) List() []Info {
	out := make([]Info, 0, len(c.entries))
	for _, w := range c.entries {
		out = append(out, Info{ID: w.ID, Title: w.Title, Kind: w.Kind, Icon: w.Icon})
	}
	return out
}

// IDs returns the launchable ids, sorted.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.entries))
	for _, w := range c.entries {
		ids = append(ids, w.ID)
	}
	sort.Strings(ids)
	return ids
}

// Entry returns the config entry for id.
func (c *Catalog) Entry(id string) (config.WindowConfig, bool) {
	i, ok := c.byID[id]
	if !ok {
		return config.WindowConfig{}, false
	}
	return c.entries[i], true
}

// Request builds an open request for id with a fresh content widget. The
// configured position and size are always supplied.
func (c *Catalog) Request(id string) (desk.OpenRequest[widget.Widget], error) {
	w, ok := c.Entry(id)
	if !ok {
		return desk.OpenRequest[widget.Widget]{}, &UnknownWindowError{ID: id, Suggestion: c.Suggest(id)}
	}

	content, err := c.build(w)
	if err != nil {
		return desk.OpenRequest[widget.Widget]{}, err
	}
	pos := desk.Point{X: w.X, Y: w.Y}
	size := desk.Size{Width: w.Width, Height: w.Height}
	return desk.OpenRequest[widget.Widget]{
		ID:       w.ID,
		Title:    w.Title,
		Content:  content,
		Icon:     w.Icon,
		Position: &pos,
		Size:     &size,
	}, nil
}

func (c *Catalog) build(w config.WindowConfig) (widget.Widget, error) {
	src := c.cfg.ResolveSource(w.Source)
	switch w.Kind {
	case config.KindText:
		return widget.NewTextViewer(w.ID, src), nil
	case config.KindProjects:
		return widget.NewProjectGallery(w.ID, src), nil
	case config.KindPlayer:
		return widget.NewMediaPlayer(w.ID, src, w.Autoplay, c.newAudio), nil
	default:
		return nil, fmt.Errorf("window %q: unsupported kind %q", w.ID, w.Kind)
	}
}

// Suggest returns the known id closest to id, or "" when nothing is close.
func (c *Catalog) Suggest(id string) string {
	best, bestDist := "", -1
	for _, known := range c.IDs() {
		d := levenshtein.ComputeDistance(id, known)
		if bestDist < 0 || d < bestDist {
			best, bestDist = known, d
		}
	}
	if bestDist < 0 || bestDist > max(2, len(id)/3) {
		return ""
	}
	return best
}
