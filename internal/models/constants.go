package models

// Segment types as they appear on the wire. A ride is called a "makro"
// after the minibuses it is taken on.
const (
	SegmentTypeWalk  = "walk"
	SegmentTypeMakro = "makro"
)
