package layout

import "fmt"

// SlotsPerPage is the number of cells in the 2x2 grid of every section page.
const SlotsPerPage = 4

// SlotGrid is the geometry shared by the four slots of a page.
type SlotGrid struct {
	Size    Size
	Origins [SlotsPerPage]Point
}

// Slot returns the rectangle of slot i.
func (g SlotGrid) Slot(i int) Rect {
	o := g.Origins[i]
	return Rect{X: o.X, Y: o.Y, W: g.Size.W, H: g.Size.H}
}

var (
	// FirstPageGrid keeps the top row 30pt shorter to leave room for the title banner.
	FirstPageGrid = SlotGrid{
		Size:    Size{W: 425, H: 395},
		Origins: [SlotsPerPage]Point{{0, 395}, {425, 395}, {0, 0}, {425, 0}},
	}
	// PageGrid is used from the second page onward.
	PageGrid = SlotGrid{
		Size:    Size{W: 425, H: 425},
		Origins: [SlotsPerPage]Point{{0, 425}, {425, 425}, {0, 0}, {425, 0}},
	}
)

// FlowCursor is the run-long placement position: a 1-based page and the slot index
// (threshold) within that page. It is a value; Advance returns the next position.
type FlowCursor struct {
	Page      int
	Threshold int
}

// NewFlowCursor starts at slot 0 of page 1.
func NewFlowCursor() FlowCursor {
	return FlowCursor{Page: 1}
}

// Grid returns the slot geometry in effect for the cursor's page.
func (c FlowCursor) Grid() SlotGrid {
	if c.Page == 1 {
		return FirstPageGrid
	}
	return PageGrid
}

// Slot returns the rectangle the next item is placed into.
func (c FlowCursor) Slot() Rect {
	return c.Grid().Slot(c.Threshold)
}

// PageIndex is the 0-based page the cursor points at.
func (c FlowCursor) PageIndex() int {
	return c.Page - 1
}

// Advance moves one slot forward, rolling over to the next page after the fourth slot.
func (c FlowCursor) Advance() FlowCursor {
	c.Threshold++
	if c.Threshold == SlotsPerPage {
		c.Threshold = 0
		c.Page++
	}
	return c
}

func (c FlowCursor) String() string {
	return fmt.Sprintf("page %d slot %d", c.Page, c.Threshold)
}

// PageCount is the number of pages needed for items at four per page.
func PageCount(items int) int {
	if items <= 0 {
		return 0
	}
	return (items + SlotsPerPage - 1) / SlotsPerPage
}

// ItemKind tells a placement whether it consumes the image or the text queue.
type ItemKind int

const (
	ImageItem ItemKind = iota
	TextItem
)

func (k ItemKind) String() string {
	switch k {
	case ImageItem:
		return "image"
	case TextItem:
		return "text"
	default:
		return fmt.Sprintf("ItemKind(%d)", int(k))
	}
}

// Placement assigns one queued item to a slot.
type Placement struct {
	Kind  ItemKind
	Index int // position in the image or text queue
	Page  int // 1-based
	Slot  int
	Rect  Rect
}

// Schedule walks both queues front to back in the fixed image, text, text, image rhythm
// and returns where every item lands. Steps whose queue is exhausted are skipped without
// consuming a slot.
func Schedule(images, texts int) []Placement {
	placements := make([]Placement, 0, images+texts)
	cursor := NewFlowCursor()
	place := func(kind ItemKind, index int) {
		placements = append(placements, Placement{
			Kind:  kind,
			Index: index,
			Page:  cursor.Page,
			Slot:  cursor.Threshold,
			Rect:  cursor.Slot(),
		})
		cursor = cursor.Advance()
	}

	img, txt := 0, 0
	for img < images || txt < texts {
		if img < images {
			place(ImageItem, img)
			img++
		}
		for range 2 {
			if txt < texts {
				place(TextItem, txt)
				txt++
			}
		}
		if img < images {
			place(ImageItem, img)
			img++
		}
	}
	return placements
}
