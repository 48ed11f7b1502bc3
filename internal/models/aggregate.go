package models

// Aggregate is the per-location, per-time-bucket table row handed to modeling
// and plotting code. Optional means are nil when no observation contributed.
type Aggregate struct {
	LocationKey           string   `json:"location_key" csv:"location_key" parquet:"name=location_key,type=BYTE_ARRAY,convertedtype=UTF8"`
	TimeBucket            string   `json:"time_bucket" csv:"time_bucket" parquet:"name=time_bucket,type=BYTE_ARRAY,convertedtype=UTF8"`
	CrashCount            int64    `json:"crash_count" csv:"crash_count" parquet:"name=crash_count,type=INT64"`
	SeverityMean          *float64 `json:"severity_mean" csv:"severity_mean" parquet:"name=severity_mean,type=DOUBLE,repetitiontype=OPTIONAL"`
	CameraViolationCount  int64    `json:"camera_violation_count" csv:"camera_violation_count" parquet:"name=camera_violation_count,type=INT64"`
	CrashesWithCamera     int64    `json:"crashes_with_camera" csv:"crashes_with_camera" parquet:"name=crashes_with_camera,type=INT64"`
	CongestionMean        *float64 `json:"congestion_mean" csv:"congestion_mean" parquet:"name=congestion_mean,type=DOUBLE,repetitiontype=OPTIONAL"`
	CrashesWithCongestion int64    `json:"crashes_with_congestion" csv:"crashes_with_congestion" parquet:"name=crashes_with_congestion,type=INT64"`
}

// Hotspot is a location whose crash total stands out from the rest.
type Hotspot struct {
	LocationKey string  `json:"location_key" csv:"location_key" parquet:"name=location_key,type=BYTE_ARRAY,convertedtype=UTF8"`
	CrashCount  int64   `json:"crash_count" csv:"crash_count" parquet:"name=crash_count,type=INT64"`
	ZScore      float64 `json:"z_score" csv:"z_score" parquet:"name=z_score,type=DOUBLE"`
}
