package card

import "github.com/sy-c/readoutcard/pkg/superpage"

// link is per-link state: the id the card reports it by, the driver's
// tally of superpages it has harvested from this link, and the queue
// of superpages pushed but not yet reported complete.
type link struct {
	id               LinkId
	superpageCounter uint32
	queue            *superpage.Queue
}

func newLink(id LinkId, capacity int) *link {
	return &link{id: id, queue: superpage.NewQueue(capacity)}
}

// LinkId identifies one optical link on the card.
type LinkId = superpage.LinkId
