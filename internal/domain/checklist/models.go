package checklist

import (
	"slices"
	"time"
)

type Item struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Section string `json:"section"`
}

// Checklist is one row of a phase table; there is at most one per ticket.
type Checklist struct {
	TicketID      string              `json:"ticketId"`
	Phase         string              `json:"phase"`
	CheckedPhotos []string            `json:"checkedPhotos"`
	PhotoURLs     map[string][]string `json:"photoUrls"`
	UpdatedAt     *time.Time          `json:"updatedAt,omitempty"`
}

func newChecklist(phase, ticketID string) Checklist {
	return Checklist{
		TicketID:      ticketID,
		Phase:         phase,
		CheckedPhotos: []string{},
		PhotoURLs:     map[string][]string{},
	}
}

func (c Checklist) Checked(itemID string) bool {
	return slices.Contains(c.CheckedPhotos, itemID)
}

// Toggle flips the item and reports whether it is now checked.
func (c *Checklist) Toggle(itemID string) bool {
	if i := slices.Index(c.CheckedPhotos, itemID); i >= 0 {
		c.CheckedPhotos = slices.Delete(c.CheckedPhotos, i, i+1)
		return false
	}
	c.CheckedPhotos = append(c.CheckedPhotos, itemID)
	return true
}

func (c *Checklist) AddPhoto(itemID, url string) {
	if c.PhotoURLs == nil {
		c.PhotoURLs = map[string][]string{}
	}
	c.PhotoURLs[itemID] = append(c.PhotoURLs[itemID], url)
}

func (c *Checklist) RemovePhoto(itemID, url string) bool {
	urls := c.PhotoURLs[itemID]
	i := slices.Index(urls, url)
	if i < 0 {
		return false
	}
	urls = slices.Delete(urls, i, i+1)
	if len(urls) == 0 {
		delete(c.PhotoURLs, itemID)
	} else {
		c.PhotoURLs[itemID] = urls
	}
	return true
}

type Progress struct {
	Checked int `json:"checked"`
	Total   int `json:"total"`
}

func (c Checklist) Progress() Progress {
	p := Progress{Total: len(Items(c.Phase))}
	for _, item := range Items(c.Phase) {
		if c.Checked(item.ID) {
			p.Checked++
		}
	}
	return p
}

// View is what the API returns: the row plus the item catalogue.
type View struct {
	Checklist
	Items    []Item   `json:"items"`
	Progress Progress `json:"progress"`
}

type Upload struct {
	Phase    string
	TicketID string
	ItemID   string
	FileName string
}
