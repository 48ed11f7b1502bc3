package models

import "time"

// CameraLink is one camera violation record that qualified for a crash.
type CameraLink struct {
	CameraID   string    `json:"camera_id"`
	Time       time.Time `json:"time"`
	Violations int       `json:"violations"`
	DistanceM  float64   `json:"distance_m"`
}

// CameraMatch holds every qualifying camera record for a crash.
type CameraMatch struct {
	Links      []CameraLink `json:"links"`
	Cameras    int          `json:"cameras"`
	Violations int          `json:"violations"`
}

// CongestionMatch is the nearest congestion segment for a crash.
type CongestionMatch struct {
	SegmentID  string    `json:"segment_id"`
	Street     string    `json:"street"`
	DistanceM  float64   `json:"distance_m"`
	ObservedAt time.Time `json:"observed_at"`
	Speed      *float64  `json:"speed,omitempty"`
	MeanSpeed  *float64  `json:"mean_speed,omitempty"`
}

// JoinedObservation is a crash enriched with nearby camera and congestion
// data. Camera and Congestion are nil when nothing qualified, which is not
// the same as a match with zero violations.
type JoinedObservation struct {
	Crash      CrashRecord      `json:"crash"`
	Camera     *CameraMatch     `json:"camera,omitempty"`
	Congestion *CongestionMatch `json:"congestion,omitempty"`
}
