package types

// PayloadKind is the variant tag distinguishing migration payloads on the
// wire. Exactly five kinds are recognized; anything else fails deserialization
// with ErrUnsupportedPayloadKind.
type PayloadKind string

const (
	PayloadRecord      PayloadKind = "record"
	PayloadPermissions PayloadKind = "permissions"
	PayloadPriority    PayloadKind = "priority"
	PayloadAppInfo     PayloadKind = "app_info"
	PayloadMetadata    PayloadKind = "metadata"
)

// MigrationPayload is the tagged union of migration payload variants.
type MigrationPayload interface {
	PayloadKind() PayloadKind
}

// MigrationEntity is one unit of externally supplied data applied during a
// migration window. EntityID is caller-chosen and must be unique within the
// entire migration; duplicated entities are ignored, not re-applied.
type MigrationEntity struct {
	EntityID string
	Payload  MigrationPayload
}

// RecordPayload migrates one record under the originating package identity
// carried inside the record, not the caller's identity.
type RecordPayload struct {
	Record *Record
}

func (RecordPayload) PayloadKind() PayloadKind { return PayloadRecord }

// PermissionPayload grants the listed permissions to a package for the
// current user. Unrecognized permission names fail the entity, not the batch.
type PermissionPayload struct {
	Package              string
	FirstGrantTimeMillis int64
	Permissions          []string
}

func (PermissionPayload) PayloadKind() PayloadKind { return PayloadPermissions }

// PriorityPayload merges an ordered package list into a category's existing
// source-priority list.
type PriorityPayload struct {
	Category Category
	Packages []string
}

func (PriorityPayload) PayloadKind() PayloadKind { return PayloadPriority }

// AppInfoPayload supplies a display name and icon for a package that is not
// currently installed but has migrated records.
type AppInfoPayload struct {
	Package string
	AppName string
	Icon    []byte
}

func (AppInfoPayload) PayloadKind() PayloadKind { return PayloadAppInfo }

// MetadataPayload updates global settings. Last write wins across entities in
// a migration run.
type MetadataPayload struct {
	RecordRetentionDays int
}

func (MetadataPayload) PayloadKind() PayloadKind { return PayloadMetadata }
