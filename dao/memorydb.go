package dao

import (
	"sort"
	"sync"
	"time"
)

type memoryLink struct {
	link Link
	seq  uint64
}

type MemoryDB struct {
	mu    sync.RWMutex
	links map[string]*memoryLink
	seq   uint64
}

func CreateMemoryDB() LinkDao {
	return &MemoryDB{links: map[string]*memoryLink{}}
}

func (d *MemoryDB) IsLikelyOk() bool {
	return true
}

func (d *MemoryDB) Insert(code string, targetURL string) (Link, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.links[code]; exists {
		return Link{}, ErrDuplicateCode
	}
	d.seq++
	entry := &memoryLink{
		link: Link{ShortCode: code, TargetURL: targetURL, CreatedAt: time.Now().UTC()},
		seq:  d.seq,
	}
	d.links[code] = entry
	return entry.link, nil
}

func (d *MemoryDB) Redirect(code string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	entry, ok := d.links[code]
	if !ok {
		return "", ErrNotFound
	}
	entry.link.TotalClicks++
	now := time.Now().UTC()
	entry.link.LastClicked = &now
	return entry.link.TargetURL, nil
}

func (d *MemoryDB) Get(code string) (Link, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	entry, ok := d.links[code]
	if !ok {
		return Link{}, ErrNotFound
	}
	return copyOf(entry.link), nil
}

func (d *MemoryDB) List() ([]Link, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	entries := make([]*memoryLink, 0, len(d.links))
	for _, entry := range d.links {
		entries = append(entries, entry)
	}
	// Newest first; the insertion sequence breaks creation-time ties.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].link.CreatedAt.Equal(entries[j].link.CreatedAt) {
			return entries[i].seq > entries[j].seq
		}
		return entries[i].link.CreatedAt.After(entries[j].link.CreatedAt)
	})

	links := make([]Link, 0, len(entries))
	for _, entry := range entries {
		links = append(links, copyOf(entry.link))
	}
	return links, nil
}

func (d *MemoryDB) Delete(code string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.links[code]; !ok {
		return ErrNotFound
	}
	delete(d.links, code)
	return nil
}

func (d *MemoryDB) Cleanup() {
	// no op
}

func copyOf(link Link) Link {
	out := link
	if link.LastClicked != nil {
		t := *link.LastClicked
		out.LastClicked = &t
	}
	return out
}
