package models

import "time"

// CameraLocation is one entry of the fixed speed-camera reference set.
type CameraLocation struct {
	CameraID string   `json:"camera_id"`
	Address  string   `json:"address"`
	Location Location `json:"location"`
}

// CameraViolationRecord is the citation count of one camera for one interval.
type CameraViolationRecord struct {
	CameraID   string    `json:"camera_id"`
	Address    string    `json:"address"`
	Time       time.Time `json:"time"`
	Violations int       `json:"violations"`
	Location   Location  `json:"location"`
}
