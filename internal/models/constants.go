package models

const (
	SourceCrashes         = "crashes"
	SourceCameras         = "cameras"
	SourceCameraLocations = "camera_locations"
	SourceCongestion      = "congestion"
)

// Drop reasons recorded by the cleaner.
const (
	DropMalformedRow          = "malformed_row"
	DropTimestampInvalid      = "timestamp_invalid"
	DropCoordinatesMissing    = "coordinates_missing"
	DropCoordinatesInvalid    = "coordinates_invalid"
	DropCoordinatesOutOfRange = "coordinates_out_of_range"
	DropDuplicate             = "duplicate"
	DropNotPedestrian         = "not_pedestrian"
	DropUnknownCamera         = "unknown_camera"
	DropViolationsInvalid     = "violations_invalid"
	DropSegmentMissing        = "segment_missing"
)

const Unknown = "UNKNOWN"

const (
	SeverityFatal             = "FATAL"
	SeverityIncapacitating    = "INCAPACITATING INJURY"
	SeverityNonIncapacitating = "NONINCAPACITATING INJURY"
	SeverityReported          = "REPORTED, NOT EVIDENT"
	SeverityNoIndication      = "NO INDICATION OF INJURY"
)

// severityScores orders the injury vocabulary; UNKNOWN has no score.
var severityScores = map[string]float64{
	SeverityFatal:             4,
	SeverityIncapacitating:    3,
	SeverityNonIncapacitating: 2,
	SeverityReported:          1,
	SeverityNoIndication:      0,
}

// NormalizeSeverity maps a raw MOST_SEVERE_INJURY value onto the vocabulary.
func NormalizeSeverity(raw string) string {
	code := NormalizeKey(raw)
	if _, ok := severityScores[code]; ok {
		return code
	}
	return Unknown
}

// SeverityScore returns the numeric score for a normalized severity code.
func SeverityScore(code string) (float64, bool) {
	score, ok := severityScores[code]
	return score, ok
}

const (
	TierFatal          = "Fatal"
	TierSevere         = "Severe"
	TierInjury         = "Injury"
	TierPropertyDamage = "Property Damage"
	TierMinor          = "Minor"
)

const damageOver1500 = "OVER $1,500"

// SeverityTier buckets a crash the way the map legend does: first matching rule wins.
func SeverityTier(severity string, injuriesTotal int, damage string) string {
	switch {
	case severity == SeverityFatal:
		return TierFatal
	case severity == SeverityIncapacitating:
		return TierSevere
	case injuriesTotal > 0:
		return TierInjury
	case NormalizeKey(damage) == damageOver1500:
		return TierPropertyDamage
	default:
		return TierMinor
	}
}

var contributingFactors = newCodeSet(
	"FAILING TO YIELD RIGHT-OF-WAY",
	"FAILING TO REDUCE SPEED TO AVOID CRASH",
	"FOLLOWING TOO CLOSELY",
	"IMPROPER OVERTAKING/PASSING",
	"IMPROPER BACKING",
	"IMPROPER TURNING/NO SIGNAL",
	"IMPROPER LANE USAGE",
	"DISREGARDING TRAFFIC SIGNALS",
	"DISREGARDING STOP SIGN",
	"DISREGARDING OTHER TRAFFIC SIGNS",
	"DISREGARDING ROAD MARKINGS",
	"DRIVING SKILLS/KNOWLEDGE/EXPERIENCE",
	"OPERATING VEHICLE IN ERRATIC, RECKLESS, CARELESS, NEGLIGENT OR AGGRESSIVE MANNER",
	"EXCEEDING AUTHORIZED SPEED LIMIT",
	"EXCEEDING SAFE SPEED FOR CONDITIONS",
	"DISTRACTION - FROM INSIDE VEHICLE",
	"DISTRACTION - FROM OUTSIDE VEHICLE",
	"CELL PHONE USE OTHER THAN TEXTING",
	"TEXTING",
	"UNDER THE INFLUENCE OF ALCOHOL/DRUGS (USE WHEN ARREST IS EFFECTED)",
	"HAD BEEN DRINKING (USE WHEN ARREST IS NOT MADE)",
	"PHYSICAL CONDITION OF DRIVER",
	"VISION OBSCURED (SIGNS, TREE LIMBS, BUILDINGS, ETC.)",
	"WEATHER",
	"ROAD ENGINEERING/SURFACE/MARKING DEFECTS",
	"ROAD CONSTRUCTION/MAINTENANCE",
	"EQUIPMENT - VEHICLE CONDITION",
	"EVASIVE ACTION DUE TO ANIMAL, OBJECT, NONMOTORIST",
	"DISTRACTION - OTHER ELECTRONIC DEVICE (NAVIGATION DEVICE, DVD PLAYER, ETC.)",
	"ANIMAL",
	"TURNING RIGHT ON RED",
	"RELATED TO BUS STOP",
	"BICYCLE ADVANCING LEGALLY ON RED LIGHT",
	"MOTORCYCLE ADVANCING LEGALLY ON RED LIGHT",
	"PASSING STOPPED SCHOOL BUS",
	"OBSTRUCTED CROSSWALKS",
)

// NormalizeContributingFactor maps PRIM_CONTRIBUTORY_CAUSE onto the fixed
// vocabulary. "UNABLE TO DETERMINE" and "NOT APPLICABLE" become UNKNOWN.
func NormalizeContributingFactor(raw string) string {
	code := NormalizeKey(raw)
	if _, ok := contributingFactors[code]; ok {
		return code
	}
	return Unknown
}

const CrashTypePedestrian = "PEDESTRIAN"

const (
	TimeOfDayNight     = "Night (12am-6am)"
	TimeOfDayMorning   = "Morning (6am-12pm)"
	TimeOfDayAfternoon = "Afternoon (12pm-6pm)"
	TimeOfDayEvening   = "Evening (6pm-12am)"
)

// TimeOfDay buckets an hour into the quarters named by the labels, with the
// lower bound included: midnight is Night and 6am is Morning.
func TimeOfDay(hour int) string {
	switch {
	case hour < 6:
		return TimeOfDayNight
	case hour < 12:
		return TimeOfDayMorning
	case hour < 18:
		return TimeOfDayAfternoon
	default:
		return TimeOfDayEvening
	}
}

func newCodeSet(codes ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		set[code] = struct{}{}
	}
	return set
}
