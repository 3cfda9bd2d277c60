package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helix-health/healthvault/pkg/types"
)

func TestInsertReadRoundTrip(t *testing.T) {
	at := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		record *types.Record
	}{
		{
			name: "height",
			record: &types.Record{
				Metadata:   types.Metadata{Package: "com.example.app", Device: "stadiometer"},
				Time:       at,
				ZoneOffset: 3600,
				Payload:    types.Height{Meters: 1.82},
			},
		},
		{
			name: "weight",
			record: &types.Record{
				Metadata: types.Metadata{Package: "com.example.app", ClientRecordID: "w-9"},
				Time:     at,
				Payload:  types.Weight{Kilograms: 71.5},
			},
		},
		{
			name: "steps",
			record: &types.Record{
				Metadata:        types.Metadata{Package: "com.example.app"},
				Start:           at,
				End:             at.Add(time.Hour),
				StartZoneOffset: 3600,
				EndZoneOffset:   3600,
				Payload:         types.Steps{Count: 1200},
			},
		},
		{
			name: "distance",
			record: &types.Record{
				Metadata: types.Metadata{Package: "com.example.app"},
				Start:    at,
				End:      at.Add(30 * time.Minute),
				Payload:  types.Distance{Meters: 5234.5},
			},
		},
		{
			name: "heart rate series",
			record: &types.Record{
				Metadata: types.Metadata{Package: "com.example.app"},
				Start:    at,
				End:      at.Add(10 * time.Minute),
				Payload: types.HeartRate{Samples: []types.HeartRateSample{
					{BeatsPerMinute: 62, EpochMillis: at.UnixMilli()},
					{BeatsPerMinute: 80, EpochMillis: at.Add(4 * time.Minute).UnixMilli()},
					{BeatsPerMinute: 75, EpochMillis: at.Add(9 * time.Minute).UnixMilli()},
				}},
			},
		},
		{
			name: "speed series",
			record: &types.Record{
				Metadata: types.Metadata{Package: "com.example.app"},
				Start:    at,
				End:      at.Add(5 * time.Minute),
				Payload: types.Speed{Samples: []types.SpeedSample{
					{MetersPerSecond: 2.5, EpochMillis: at.UnixMilli()},
					{MetersPerSecond: 3.1, EpochMillis: at.Add(time.Minute).UnixMilli()},
				}},
			},
		},
		{
			name: "power series",
			record: &types.Record{
				Metadata: types.Metadata{Package: "com.example.app"},
				Start:    at,
				End:      at.Add(5 * time.Minute),
				Payload: types.Power{Samples: []types.PowerSample{
					{Watts: 210.5, EpochMillis: at.UnixMilli()},
				}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)

			uuids, err := s.InsertRecords(tt.record)
			require.NoError(t, err)
			require.Len(t, uuids, 1)
			assert.NotEmpty(t, uuids[0], "insert assigns a UUID")

			records, err := s.ReadRecords(tt.record.Kind(), RecordQuery{})
			require.NoError(t, err)
			require.Len(t, records, 1)

			got := records[0]
			assert.Equal(t, uuids[0], got.UUID)
			assert.Equal(t, tt.record.Package, got.Package)
			assert.Equal(t, tt.record.ClientRecordID, got.ClientRecordID)
			assert.Equal(t, tt.record.Device, got.Device)
			assert.Equal(t, tt.record.Time, got.Time)
			assert.Equal(t, tt.record.ZoneOffset, got.ZoneOffset)
			assert.Equal(t, tt.record.Start, got.Start)
			assert.Equal(t, tt.record.End, got.End)
			assert.Equal(t, tt.record.StartZoneOffset, got.StartZoneOffset)
			assert.Equal(t, tt.record.EndZoneOffset, got.EndZoneOffset)
			assert.Equal(t, tt.record.Payload, got.Payload)
			assert.False(t, got.LastModified.IsZero(), "insert stamps LastModified")
		})
	}
}

func TestInsertValidatesWholeBatch(t *testing.T) {
	s := newTestStore(t)

	bad := &types.Record{
		Metadata: types.Metadata{Package: "com.example.app"},
		Payload:  types.Weight{Kilograms: 70},
	}
	_, err := s.InsertRecords(weightRecord("com.example.app", 70), bad)
	require.ErrorIs(t, err, types.ErrMissingTime)

	// Nothing from the batch was written.
	records, err := s.ReadRecords(types.KindWeight, RecordQuery{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestReadFilters(t *testing.T) {
	s := newTestStore(t)

	uuids, err := s.InsertRecords(
		weightRecord("com.app.one", 70),
		weightRecord("com.app.two", 80),
		weightRecord("com.app.one", 71),
	)
	require.NoError(t, err)

	t.Run("by package", func(t *testing.T) {
		records, err := s.ReadRecords(types.KindWeight, RecordQuery{Packages: []string{"com.app.one"}})
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, uuids[0], records[0].UUID)
		assert.Equal(t, uuids[2], records[1].UUID)
	})

	t.Run("by uuid", func(t *testing.T) {
		records, err := s.ReadRecords(types.KindWeight, RecordQuery{UUIDs: []string{uuids[1]}})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "com.app.two", records[0].Package)
	})

	t.Run("no match", func(t *testing.T) {
		records, err := s.ReadRecords(types.KindWeight, RecordQuery{Packages: []string{"com.absent"}})
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}

func TestUpsertUpdatesByClientRecordID(t *testing.T) {
	s := newTestStore(t)

	first := weightRecord("com.example.app", 70)
	first.ClientRecordID = "w-1"
	uuids, err := s.UpsertRecords(first)
	require.NoError(t, err)

	second := weightRecord("com.example.app", 72)
	second.ClientRecordID = "w-1"
	updated, err := s.UpsertRecords(second)
	require.NoError(t, err)
	assert.Equal(t, uuids, updated, "update keeps the original UUID")

	records, err := s.ReadRecords(types.KindWeight, RecordQuery{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, types.Weight{Kilograms: 72}, records[0].Payload)
}

func TestUpsertScopesClientRecordIDToPackage(t *testing.T) {
	s := newTestStore(t)

	first := weightRecord("com.app.one", 70)
	first.ClientRecordID = "w-1"
	other := weightRecord("com.app.two", 80)
	other.ClientRecordID = "w-1"

	_, err := s.UpsertRecords(first)
	require.NoError(t, err)
	_, err = s.UpsertRecords(other)
	require.NoError(t, err)

	records, err := s.ReadRecords(types.KindWeight, RecordQuery{})
	require.NoError(t, err)
	assert.Len(t, records, 2, "same client record id in different packages stays distinct")
}

func TestUpsertKeepsCallerTimestamp(t *testing.T) {
	s := newTestStore(t)
	stamped := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	// Upsert follows the insert rule: a caller-supplied modification time is
	// kept, only a zero one is stamped with the current time.
	first := weightRecord("com.example.app", 70)
	first.ClientRecordID = "w-1"
	first.LastModified = stamped
	_, err := s.UpsertRecords(first)
	require.NoError(t, err)

	records, err := s.ReadRecords(types.KindWeight, RecordQuery{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, stamped, records[0].LastModified)

	second := weightRecord("com.example.app", 72)
	second.ClientRecordID = "w-1"
	second.LastModified = stamped.Add(time.Hour)
	_, err = s.UpsertRecords(second)
	require.NoError(t, err)

	records, err = s.ReadRecords(types.KindWeight, RecordQuery{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, stamped.Add(time.Hour), records[0].LastModified)

	third := weightRecord("com.example.app", 74)
	third.ClientRecordID = "w-1"
	_, err = s.UpsertRecords(third)
	require.NoError(t, err)

	records, err = s.ReadRecords(types.KindWeight, RecordQuery{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, records[0].LastModified.Before(stamped.Add(time.Hour)),
		"zero timestamp is stamped with the current time")
}

func TestUpsertReplacesSeriesSamples(t *testing.T) {
	s := newTestStore(t)
	at := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	mk := func(samples []types.HeartRateSample) *types.Record {
		return &types.Record{
			Metadata: types.Metadata{Package: "com.example.app", ClientRecordID: "hr-1"},
			Start:    at,
			End:      at.Add(10 * time.Minute),
			Payload:  types.HeartRate{Samples: samples},
		}
	}

	_, err := s.UpsertRecords(mk([]types.HeartRateSample{
		{BeatsPerMinute: 60, EpochMillis: at.UnixMilli()},
		{BeatsPerMinute: 61, EpochMillis: at.Add(time.Minute).UnixMilli()},
	}))
	require.NoError(t, err)

	want := []types.HeartRateSample{
		{BeatsPerMinute: 90, EpochMillis: at.Add(2 * time.Minute).UnixMilli()},
	}
	_, err = s.UpsertRecords(mk(want))
	require.NoError(t, err)

	records, err := s.ReadRecords(types.KindHeartRate, RecordQuery{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, types.HeartRate{Samples: want}, records[0].Payload)
}

func TestDeleteRecords(t *testing.T) {
	s := newTestStore(t)

	uuids, err := s.InsertRecords(
		weightRecord("com.app.one", 70),
		weightRecord("com.app.one", 71),
		weightRecord("com.app.two", 80),
	)
	require.NoError(t, err)

	// Foreign-package and unknown UUIDs are ignored.
	err = s.DeleteRecords(types.KindWeight, "com.app.one", uuids[0], uuids[2], "no-such-uuid")
	require.NoError(t, err)

	records, err := s.ReadRecords(types.KindWeight, RecordQuery{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, uuids[1], records[0].UUID)
	assert.Equal(t, uuids[2], records[1].UUID)
}

func TestHasRecordsForPackage(t *testing.T) {
	s := newTestStore(t)

	has, err := s.HasRecordsForPackage("com.example.app")
	require.NoError(t, err)
	assert.False(t, has)

	_, err = s.InsertRecords(stepsRecord("com.example.app", 500))
	require.NoError(t, err)

	has, err = s.HasRecordsForPackage("com.example.app")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = s.HasRecordsForPackage("com.other.app")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestSeriesSamplesStayWithTheirRecord(t *testing.T) {
	s := newTestStore(t)
	at := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	mk := func(base int64) *types.Record {
		return &types.Record{
			Metadata: types.Metadata{Package: "com.example.app"},
			Start:    at,
			End:      at.Add(10 * time.Minute),
			Payload: types.Power{Samples: []types.PowerSample{
				{Watts: float64(base), EpochMillis: at.UnixMilli()},
				{Watts: float64(base + 1), EpochMillis: at.Add(time.Minute).UnixMilli()},
				{Watts: float64(base + 2), EpochMillis: at.Add(2 * time.Minute).UnixMilli()},
			}},
		}
	}

	uuids, err := s.InsertRecords(mk(100), mk(200), mk(300))
	require.NoError(t, err)

	records, err := s.ReadRecords(types.KindPower, RecordQuery{})
	require.NoError(t, err)
	require.Len(t, records, 3)

	for i, base := range []float64{100, 200, 300} {
		assert.Equal(t, uuids[i], records[i].UUID)
		payload, ok := records[i].Payload.(types.Power)
		require.True(t, ok)
		require.Len(t, payload.Samples, 3)
		for j, sample := range payload.Samples {
			assert.Equal(t, base+float64(j), sample.Watts)
		}
	}
}

func TestZeroSampleSeriesRoundTrip(t *testing.T) {
	s := newTestStore(t)
	at := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	// A series record may carry no samples at all; it reads back with a nil
	// sample slice regardless of how the input slice was constructed.
	_, err := s.InsertRecords(
		&types.Record{
			Metadata: types.Metadata{Package: "com.example.app"},
			Start:    at,
			End:      at.Add(10 * time.Minute),
			Payload:  types.HeartRate{},
		},
		&types.Record{
			Metadata: types.Metadata{Package: "com.example.app"},
			Start:    at.Add(time.Hour),
			End:      at.Add(2 * time.Hour),
			Payload:  types.HeartRate{Samples: []types.HeartRateSample{}},
		},
	)
	require.NoError(t, err)

	records, err := s.ReadRecords(types.KindHeartRate, RecordQuery{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, r := range records {
		payload, ok := r.Payload.(types.HeartRate)
		require.True(t, ok)
		assert.Nil(t, payload.Samples)
	}
}
