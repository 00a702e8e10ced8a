package yearbook

import (
	"fmt"
	"strings"
	"time"

	"github.com/Lllllllleong/yearbookflow/internal/layout"
	"github.com/Lllllllleong/yearbookflow/internal/pdfdoc"
)

// Message book page geometry, in points.
const (
	bookMargin       = 50.0
	bookBodySize     = 12.0
	bookLineHeight   = bookBodySize * 1.5
	bookMessageGap   = 40.0
	bookBottomLimit  = 100.0
	bookTimestampGap = 20.0
	// TimestampLayout renders message times the way the web client shows them.
	TimestampLayout = "1/2/2006, 3:04:05 PM"
)

// A4 is the message book page size.
var A4 = layout.Size{W: 595, H: 842}

// Message is one note left for the book owner.
type Message struct {
	Text      string
	Timestamp time.Time
}

// Sender groups the messages of one person.
type Sender struct {
	Name     string
	Email    string
	Messages []Message
}

// BuildMessageBook renders a title page followed by each sender's messages. Times are
// shown in loc; a nil loc means UTC.
func BuildMessageBook(kit *Kit, senders []Sender, loc *time.Location) (pdfdoc.Document, error) {
	if loc == nil {
		loc = time.UTC
	}
	title := pdfdoc.TextStyle{Face: kit.Display, Color: pdfdoc.Black}
	body := pdfdoc.TextStyle{Face: kit.Body, Size: bookBodySize, Color: pdfdoc.Black}
	small := pdfdoc.TextStyle{Size: 10, Color: pdfdoc.Gray(.5)}
	maxWidth := A4.W - 2*bookMargin

	doc, err := pdfdoc.Compose(func(w *pdfdoc.Writer) error {
		c := w.AddPage(A4)
		title.Size = 40
		if err := c.DrawText("My Messages", layout.Point{X: bookMargin, Y: A4.H - 100}, title); err != nil {
			return err
		}

		for _, s := range senders {
			c = w.AddPage(A4)
			title.Size = 24
			if err := c.DrawText("Message from "+s.Name, layout.Point{X: bookMargin, Y: A4.H - 50}, title); err != nil {
				return err
			}
			email := pdfdoc.TextStyle{Size: 12, Color: pdfdoc.Gray(.3)}
			if err := c.DrawText("("+s.Email+")", layout.Point{X: bookMargin, Y: A4.H - 80}, email); err != nil {
				return err
			}
			c.DrawLine(layout.Point{X: bookMargin, Y: A4.H - 100}, layout.Point{X: A4.W - bookMargin, Y: A4.H - 100}, 1, pdfdoc.Gray(.7))

			y := A4.H - 130
			for _, m := range s.Messages {
				lines := wrapMessage(kit.Body, m.Text, bookBodySize, maxWidth)
				top := y
				bottom := y - bookTimestampGap - float64(max(len(lines)-1, 0))*bookLineHeight

				panelFill, panelBorder := pdfdoc.Gray(.95), pdfdoc.Gray(.8)
				c.DrawRect(layout.Rect{
					X: bookMargin - 10,
					Y: bottom - 10,
					W: maxWidth + 20,
					H: top - bottom + 30,
				}, pdfdoc.RectStyle{
					Fill: &panelFill, FillOpacity: .5,
					Border: &panelBorder, BorderWidth: 1, BorderOpacity: .7,
				})

				stamp := m.Timestamp.In(loc).Format(TimestampLayout)
				if err := c.DrawText(stamp, layout.Point{X: bookMargin, Y: y}, small); err != nil {
					return err
				}
				y -= bookTimestampGap
				for i, line := range lines {
					if i > 0 {
						y -= bookLineHeight
					}
					if err := c.DrawText(line, layout.Point{X: bookMargin, Y: y}, body); err != nil {
						return err
					}
				}

				y -= bookMessageGap
				if y < bookBottomLimit {
					c = w.AddPage(A4)
					y = A4.H - 50
				}
			}
		}
		return nil
	})
	if err != nil {
		return pdfdoc.Document{}, fmt.Errorf("failed to build message book: %w", err)
	}
	return doc, nil
}

// wrapMessage breaks text on spaces, starting a new line once a line would be wider than
// maxWidth. A single word wider than maxWidth stays on its own line.
func wrapMessage(m layout.Measurer, text string, size, maxWidth float64) []string {
	var lines []string
	line := ""
	for _, word := range strings.Fields(text) {
		test := word
		if line != "" {
			test = line + " " + word
		}
		if m.TextWidth(test, size) > maxWidth && line != "" {
			lines = append(lines, line)
			line = word
			continue
		}
		line = test
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}
