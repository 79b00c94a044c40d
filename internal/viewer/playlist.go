package viewer

import "slices"

// Playlist is the ordered list of panorama ids a viewer cycles through.
type Playlist struct {
	ids []string
	cur int
}

// NewPlaylist starts at the first id.
func NewPlaylist(ids []string) *Playlist {
	return &Playlist{ids: slices.Clone(ids)}
}

// IDs returns a copy of the list.
func (p *Playlist) IDs() []string { return slices.Clone(p.ids) }

func (p *Playlist) Len() int { return len(p.ids) }

// Current returns the selected id, false when the list is empty.
func (p *Playlist) Current() (string, bool) {
	if len(p.ids) == 0 {
		return "", false
	}
	return p.ids[p.cur], true
}

// Next selects the following id, wrapping around.
func (p *Playlist) Next() (string, bool) {
	return p.step(1)
}

// Prev selects the preceding id, wrapping around.
func (p *Playlist) Prev() (string, bool) {
	return p.step(-1)
}

func (p *Playlist) step(d int) (string, bool) {
	n := len(p.ids)
	if n == 0 {
		return "", false
	}
	p.cur = ((p.cur+d)%n + n) % n
	return p.ids[p.cur], true
}

// Select moves to id if it is listed.
func (p *Playlist) Select(id string) bool {
	i := slices.Index(p.ids, id)
	if i < 0 {
		return false
	}
	p.cur = i
	return true
}

// Set replaces the list, keeping the selection when its id survives and
// otherwise staying at the same position.
func (p *Playlist) Set(ids []string) {
	cur, ok := p.Current()
	p.ids = slices.Clone(ids)
	if ok && p.Select(cur) {
		return
	}
	p.cur = min(p.cur, max(len(p.ids)-1, 0))
}
