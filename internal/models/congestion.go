package models

import "time"

// CongestionSegmentRecord is one speed estimate for a road segment. Speed is
// nil when the source published no estimate, Geometry is nil when the segment
// could not be placed on the map.
type CongestionSegmentRecord struct {
	SegmentID  string    `json:"segment_id"`
	Time       time.Time `json:"time"`
	Speed      *float64  `json:"speed,omitempty"`
	Street     string    `json:"street"`
	Direction  string    `json:"direction,omitempty"`
	FromStreet string    `json:"from_street,omitempty"`
	ToStreet   string    `json:"to_street,omitempty"`
	Geometry   *Segment  `json:"geometry,omitempty"`
}

func (c CongestionSegmentRecord) Resolved() bool {
	return c.Geometry != nil
}
