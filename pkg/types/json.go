// JSON wire structures for records and migration entities. Each migration
// entity serializes as {entity_id, kind, payload} with the payload decoded by
// its kind tag; an unrecognized tag fails with ErrUnsupportedPayloadKind.
package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// recordJSON mirrors the wire format of a record envelope.
type recordJSON struct {
	Kind            string          `json:"kind"`
	UUID            string          `json:"uuid,omitempty"`
	Package         string          `json:"package"`
	ClientRecordID  string          `json:"client_record_id,omitempty"`
	Device          string          `json:"device,omitempty"`
	LastModified    string          `json:"last_modified,omitempty"`
	Time            string          `json:"time,omitempty"`
	ZoneOffset      int             `json:"zone_offset,omitempty"`
	Start           string          `json:"start,omitempty"`
	End             string          `json:"end,omitempty"`
	StartZoneOffset int             `json:"start_zone_offset,omitempty"`
	EndZoneOffset   int             `json:"end_zone_offset,omitempty"`
	Payload         json.RawMessage `json:"payload"`
}

var kindsByName = func() map[string]RecordKind {
	m := make(map[string]RecordKind, len(kindNames))
	for k, name := range kindNames {
		m[name] = k
	}
	return m
}()

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// MarshalJSON encodes the record envelope with its kind tag.
func (r *Record) MarshalJSON() ([]byte, error) {
	payload, err := json.Marshal(r.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s payload: %w", r.Kind(), err)
	}
	return json.Marshal(recordJSON{
		Kind:            r.Kind().String(),
		UUID:            r.UUID,
		Package:         r.Package,
		ClientRecordID:  r.ClientRecordID,
		Device:          r.Device,
		LastModified:    formatTime(r.LastModified),
		Time:            formatTime(r.Time),
		ZoneOffset:      r.ZoneOffset,
		Start:           formatTime(r.Start),
		End:             formatTime(r.End),
		StartZoneOffset: r.StartZoneOffset,
		EndZoneOffset:   r.EndZoneOffset,
		Payload:         payload,
	})
}

// UnmarshalJSON decodes a record envelope, dispatching the payload by kind.
func (r *Record) UnmarshalJSON(data []byte) error {
	var env recordJSON
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	kind, ok := kindsByName[env.Kind]
	if !ok {
		return fmt.Errorf("record kind %q: %w", env.Kind, ErrUnsupportedPayloadKind)
	}

	payload, err := decodeRecordPayload(kind, env.Payload)
	if err != nil {
		return err
	}

	var parseErr error
	get := func(s string) time.Time {
		t, err := parseTime(s)
		if err != nil && parseErr == nil {
			parseErr = err
		}
		return t
	}

	*r = Record{
		Metadata: Metadata{
			UUID:           env.UUID,
			Package:        env.Package,
			ClientRecordID: env.ClientRecordID,
			Device:         env.Device,
			LastModified:   get(env.LastModified),
		},
		Time:            get(env.Time),
		ZoneOffset:      env.ZoneOffset,
		Start:           get(env.Start),
		End:             get(env.End),
		StartZoneOffset: env.StartZoneOffset,
		EndZoneOffset:   env.EndZoneOffset,
		Payload:         payload,
	}
	return parseErr
}

func decodeRecordPayload(kind RecordKind, raw json.RawMessage) (Payload, error) {
	unmarshal := func(v any) error {
		if len(raw) == 0 {
			return nil
		}
		if err := json.Unmarshal(raw, v); err != nil {
			return fmt.Errorf("decoding %s payload: %w", kind, err)
		}
		return nil
	}
	switch kind {
	case KindHeight:
		var p Height
		return p, unmarshal(&p)
	case KindWeight:
		var p Weight
		return p, unmarshal(&p)
	case KindSteps:
		var p Steps
		return p, unmarshal(&p)
	case KindDistance:
		var p Distance
		return p, unmarshal(&p)
	case KindHeartRate:
		var p HeartRate
		return p, unmarshal(&p)
	case KindSpeed:
		var p Speed
		return p, unmarshal(&p)
	case KindPower:
		var p Power
		return p, unmarshal(&p)
	default:
		return nil, fmt.Errorf("record kind %d: %w", kind, ErrUnsupportedPayloadKind)
	}
}

// entityJSON mirrors the wire format of a migration entity.
type entityJSON struct {
	EntityID string          `json:"entity_id"`
	Kind     PayloadKind     `json:"kind"`
	Payload  json.RawMessage `json:"payload"`
}

// recordPayloadJSON wraps the record envelope inside a record entity.
type recordPayloadJSON struct {
	Record *Record `json:"record"`
}

// permissionPayloadJSON mirrors PermissionPayload on the wire.
type permissionPayloadJSON struct {
	Package              string   `json:"package"`
	FirstGrantTimeMillis int64    `json:"first_grant_time_millis,omitempty"`
	Permissions          []string `json:"permissions"`
}

// priorityPayloadJSON mirrors PriorityPayload on the wire.
type priorityPayloadJSON struct {
	Category Category `json:"category"`
	Packages []string `json:"packages"`
}

// appInfoPayloadJSON mirrors AppInfoPayload on the wire.
type appInfoPayloadJSON struct {
	Package string `json:"package"`
	AppName string `json:"app_name"`
	Icon    []byte `json:"icon,omitempty"`
}

// metadataPayloadJSON mirrors MetadataPayload on the wire.
type metadataPayloadJSON struct {
	RecordRetentionDays int `json:"record_retention_days"`
}

// MarshalJSON encodes the entity envelope with its payload kind tag.
func (e MigrationEntity) MarshalJSON() ([]byte, error) {
	if e.Payload == nil {
		return nil, fmt.Errorf("entity %q has no payload: %w", e.EntityID, ErrUnsupportedPayloadKind)
	}

	var body any
	switch p := e.Payload.(type) {
	case RecordPayload:
		body = recordPayloadJSON{Record: p.Record}
	case PermissionPayload:
		body = permissionPayloadJSON{
			Package:              p.Package,
			FirstGrantTimeMillis: p.FirstGrantTimeMillis,
			Permissions:          p.Permissions,
		}
	case PriorityPayload:
		body = priorityPayloadJSON{Category: p.Category, Packages: p.Packages}
	case AppInfoPayload:
		body = appInfoPayloadJSON{Package: p.Package, AppName: p.AppName, Icon: p.Icon}
	case MetadataPayload:
		body = metadataPayloadJSON{RecordRetentionDays: p.RecordRetentionDays}
	default:
		return nil, fmt.Errorf("entity %q: %w", e.EntityID, ErrUnsupportedPayloadKind)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s payload: %w", e.Payload.PayloadKind(), err)
	}
	return json.Marshal(entityJSON{
		EntityID: e.EntityID,
		Kind:     e.Payload.PayloadKind(),
		Payload:  payload,
	})
}

// UnmarshalJSON decodes an entity envelope, dispatching the payload by kind.
func (e *MigrationEntity) UnmarshalJSON(data []byte) error {
	var env entityJSON
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	var payload MigrationPayload
	switch env.Kind {
	case PayloadRecord:
		var p recordPayloadJSON
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return fmt.Errorf("decoding record payload: %w", err)
		}
		payload = RecordPayload{Record: p.Record}
	case PayloadPermissions:
		var p permissionPayloadJSON
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return fmt.Errorf("decoding permission payload: %w", err)
		}
		payload = PermissionPayload{
			Package:              p.Package,
			FirstGrantTimeMillis: p.FirstGrantTimeMillis,
			Permissions:          p.Permissions,
		}
	case PayloadPriority:
		var p priorityPayloadJSON
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return fmt.Errorf("decoding priority payload: %w", err)
		}
		payload = PriorityPayload{Category: p.Category, Packages: p.Packages}
	case PayloadAppInfo:
		var p appInfoPayloadJSON
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return fmt.Errorf("decoding app-info payload: %w", err)
		}
		payload = AppInfoPayload{Package: p.Package, AppName: p.AppName, Icon: p.Icon}
	case PayloadMetadata:
		var p metadataPayloadJSON
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return fmt.Errorf("decoding metadata payload: %w", err)
		}
		payload = MetadataPayload{RecordRetentionDays: p.RecordRetentionDays}
	default:
		return fmt.Errorf("payload kind %q: %w", env.Kind, ErrUnsupportedPayloadKind)
	}

	e.EntityID = env.EntityID
	e.Payload = payload
	return nil
}
