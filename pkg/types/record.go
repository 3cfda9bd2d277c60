package types

import "time"

// Metadata carries the fields common to every record.
type Metadata struct {
	UUID           string    // UUID v7, generated on insert when empty.
	Package        string    // Originating application package (required).
	ClientRecordID string    // Caller-assigned id for upsert matching (optional).
	Device         string    // Source device description (optional).
	LastModified   time.Time // Timestamp of last modification.
}

// Record is one health measurement entity. Instantaneous kinds set Time and
// ZoneOffset; interval kinds set Start/End and the corresponding offsets.
// Series kinds additionally carry an ordered sample list in their payload.
type Record struct {
	Metadata

	// Instantaneous shape.
	Time       time.Time
	ZoneOffset int // seconds east of UTC

	// Interval shape.
	Start           time.Time
	End             time.Time
	StartZoneOffset int
	EndZoneOffset   int

	Payload Payload
}

// Payload holds the kind-specific fields of a record. The set of
// implementations is closed; dispatch is by Kind.
type Payload interface {
	Kind() RecordKind
}

// Kind returns the record's kind, or KindUnknown when no payload is set.
func (r *Record) Kind() RecordKind {
	if r.Payload == nil {
		return KindUnknown
	}
	return r.Payload.Kind()
}

// Validate checks the record's shape invariants. Interval records must have
// End strictly after Start; instantaneous records must have a non-zero Time.
func (r *Record) Validate() error {
	if r.Package == "" {
		return ErrMissingPackage
	}
	if r.Payload == nil {
		return ErrMissingPayload
	}
	if r.Kind().IsInterval() {
		if r.Start.IsZero() || r.End.IsZero() {
			return ErrMissingTime
		}
		if !r.End.After(r.Start) {
			return ErrInvalidInterval
		}
		return nil
	}
	if r.Time.IsZero() {
		return ErrMissingTime
	}
	return nil
}

// Scalar payloads.

// Height is an instantaneous height measurement.
type Height struct {
	Meters float64 `json:"meters"`
}

func (Height) Kind() RecordKind { return KindHeight }

// Weight is an instantaneous body-weight measurement.
type Weight struct {
	Kilograms float64 `json:"kilograms"`
}

func (Weight) Kind() RecordKind { return KindWeight }

// Steps is a step count over an interval.
type Steps struct {
	Count int64 `json:"count"`
}

func (Steps) Kind() RecordKind { return KindSteps }

// Distance is a distance covered over an interval.
type Distance struct {
	Meters float64 `json:"meters"`
}

func (Distance) Kind() RecordKind { return KindDistance }

// Series payloads. Sample order is insertion order; callers may supply
// unordered timestamps and they are preserved as given.

// HeartRateSample is one heart-rate reading within a HeartRate record.
type HeartRateSample struct {
	BeatsPerMinute int64 `json:"beats_per_minute"`
	EpochMillis    int64 `json:"epoch_millis"`
}

// HeartRate is a series of heart-rate samples over an interval.
type HeartRate struct {
	Samples []HeartRateSample `json:"samples"`
}

func (HeartRate) Kind() RecordKind { return KindHeartRate }

// SpeedSample is one speed reading within a Speed record.
type SpeedSample struct {
	MetersPerSecond float64 `json:"meters_per_second"`
	EpochMillis     int64   `json:"epoch_millis"`
}

// Speed is a series of speed samples over an interval.
type Speed struct {
	Samples []SpeedSample `json:"samples"`
}

func (Speed) Kind() RecordKind { return KindSpeed }

// PowerSample is one power reading within a Power record.
type PowerSample struct {
	Watts       float64 `json:"watts"`
	EpochMillis int64   `json:"epoch_millis"`
}

// Power is a series of power samples over an interval.
type Power struct {
	Samples []PowerSample `json:"samples"`
}

func (Power) Kind() RecordKind { return KindPower }
