package layout

// HeadingPadding is the space between the title text and its box.
const HeadingPadding = 5.0

// HeadingLayout places a section title on the first page.
type HeadingLayout struct {
	Box    Rect  // text box: text size plus padding
	Banner Rect  // decorative banner, stretched behind the box
	Text   Point // baseline start of the title
}

// HeadingBox centres a title of size text horizontally on page and hangs it margin
// points below the top edge.
func HeadingBox(page, text Size, margin float64) HeadingLayout {
	w := text.W + HeadingPadding*4
	h := text.H + HeadingPadding*2
	x := (page.W - w) / 2
	y := page.H - margin - h

	return HeadingLayout{
		Box:    Rect{X: x, Y: y, W: w, H: h},
		Banner: Rect{X: x - 5, Y: y - 10, W: w * 1.1, H: h * 1.3},
		Text:   Point{X: x + HeadingPadding*2, Y: y + HeadingPadding*2},
	}
}
