package layout

const (
	// FramePadding is the white border around a mounted photo.
	FramePadding = 5.0
	// CaptionStrip is the extra white space below a mounted photo.
	CaptionStrip = 30.0
	// FrameBorder is the stroke width of the mount outline.
	FrameBorder = 2.0
)

// FitImage scales native to fit inside bounds without cropping, preserving aspect ratio.
// The more constraining dimension decides the scale; images smaller than bounds are
// scaled up.
func FitImage(native, bounds Size) Size {
	if native.W <= 0 || native.H <= 0 {
		return Size{}
	}
	var k float64
	if native.Ratio() > bounds.Ratio() {
		k = bounds.W / native.W
	} else {
		k = bounds.H / native.H
	}
	return native.Scale(k)
}

// PolaroidFrame centres a photo of size img in slot, leaving room for the caption strip,
// and returns the mount rectangle (drawn first) and the photo rectangle.
func PolaroidFrame(slot Rect, img Size) (mount, photo Rect) {
	x := slot.X + (slot.W-img.W-2*FramePadding)/2 + FramePadding
	y := slot.Y + (slot.H-img.H-2*FramePadding-CaptionStrip)/2 + FramePadding + CaptionStrip

	photo = Rect{X: x, Y: y, W: img.W, H: img.H}
	mount = Rect{
		X: x - FramePadding,
		Y: y - FramePadding - CaptionStrip,
		W: img.W + 2*FramePadding,
		H: img.H + 2*FramePadding + CaptionStrip,
	}
	return mount, photo
}
