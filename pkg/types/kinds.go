package types

// RecordKind identifies one of the closed set of record kinds known at build
// time. The numeric values are part of the change-log wire contract and must
// not be reordered.
type RecordKind int

const (
	KindUnknown RecordKind = iota
	KindHeight
	KindWeight
	KindSteps
	KindDistance
	KindHeartRate
	KindSpeed
	KindPower
)

// AllKinds lists every recognized record kind for enumeration.
var AllKinds = []RecordKind{
	KindHeight,
	KindWeight,
	KindSteps,
	KindDistance,
	KindHeartRate,
	KindSpeed,
	KindPower,
}

var kindNames = map[RecordKind]string{
	KindHeight:    "height",
	KindWeight:    "weight",
	KindSteps:     "steps",
	KindDistance:  "distance",
	KindHeartRate: "heart_rate",
	KindSpeed:     "speed",
	KindPower:     "power",
}

func (k RecordKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind returns the kind with the given wire name.
func ParseKind(name string) (RecordKind, bool) {
	k, ok := kindsByName[name]
	return k, ok
}

// IsValid reports whether k is one of the recognized kinds.
func (k RecordKind) IsValid() bool {
	_, ok := kindNames[k]
	return ok
}

// IsInterval reports whether records of this kind span a start/end interval
// rather than a single instant.
func (k RecordKind) IsInterval() bool {
	switch k {
	case KindSteps, KindDistance, KindHeartRate, KindSpeed, KindPower:
		return true
	default:
		return false
	}
}

// IsSeries reports whether records of this kind own an ordered list of
// timestamped samples stored in a child table.
func (k RecordKind) IsSeries() bool {
	switch k {
	case KindHeartRate, KindSpeed, KindPower:
		return true
	default:
		return false
	}
}

// Category groups record kinds for permissions and source-priority ordering.
type Category string

const (
	CategoryActivity         Category = "activity"
	CategoryBodyMeasurements Category = "body_measurements"
	CategoryVitals           Category = "vitals"
)

// AllCategories lists every data category.
var AllCategories = []Category{
	CategoryActivity,
	CategoryBodyMeasurements,
	CategoryVitals,
}

// CategoryOf returns the data category a record kind belongs to.
func CategoryOf(k RecordKind) Category {
	switch k {
	case KindHeight, KindWeight:
		return CategoryBodyMeasurements
	case KindHeartRate:
		return CategoryVitals
	default:
		return CategoryActivity
	}
}

// Permission names follow health.permission.{READ,WRITE}_<CATEGORY>. The set
// derived from AllCategories is the complete valid set; migration payloads
// naming anything else fail with ErrUnknownPermission.

const permissionPrefix = "health.permission."

// ReadPermission returns the read permission name for a category.
func ReadPermission(c Category) string {
	return permissionPrefix + "READ_" + string(c)
}

// WritePermission returns the write permission name for a category.
func WritePermission(c Category) string {
	return permissionPrefix + "WRITE_" + string(c)
}

// ValidPermissions returns the complete set of recognized permission names.
func ValidPermissions() map[string]bool {
	valid := make(map[string]bool, 2*len(AllCategories))
	for _, c := range AllCategories {
		valid[ReadPermission(c)] = true
		valid[WritePermission(c)] = true
	}
	return valid
}
