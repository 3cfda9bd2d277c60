// Per-kind record helper definitions. Adding a record kind means adding an
// entry here and a payload type in pkg/types; the shared helper machinery
// handles everything else.
package store

import "github.com/helix-health/healthvault/pkg/types"

// recordHelpers registers one helper per record kind.
var recordHelpers = map[types.RecordKind]*recordHelper{
	types.KindHeight: {
		kind:    types.KindHeight,
		table:   "height_records",
		columns: []columnSpec{{"height_meters", colReal}},
		values: func(p types.Payload) []any {
			return []any{p.(types.Height).Meters}
		},
		payload: func(vals []any) types.Payload {
			return types.Height{Meters: f64(vals[0])}
		},
	},

	types.KindWeight: {
		kind:    types.KindWeight,
		table:   "weight_records",
		columns: []columnSpec{{"weight_kg", colReal}},
		values: func(p types.Payload) []any {
			return []any{p.(types.Weight).Kilograms}
		},
		payload: func(vals []any) types.Payload {
			return types.Weight{Kilograms: f64(vals[0])}
		},
	},

	types.KindSteps: {
		kind:    types.KindSteps,
		table:   "steps_records",
		columns: []columnSpec{{"count", colInteger}},
		values: func(p types.Payload) []any {
			return []any{p.(types.Steps).Count}
		},
		payload: func(vals []any) types.Payload {
			return types.Steps{Count: i64(vals[0])}
		},
	},

	types.KindDistance: {
		kind:    types.KindDistance,
		table:   "distance_records",
		columns: []columnSpec{{"distance_meters", colReal}},
		values: func(p types.Payload) []any {
			return []any{p.(types.Distance).Meters}
		},
		payload: func(vals []any) types.Payload {
			return types.Distance{Meters: f64(vals[0])}
		},
	},

	types.KindHeartRate: {
		kind:  types.KindHeartRate,
		table: "heart_rate_records",
		series: &seriesSchema{
			table: "heart_rate_series",
			columns: []columnSpec{
				{"beats_per_minute", colInteger},
				{"epoch_millis", colInteger},
			},
			sampleValues: func(p types.Payload) [][]any {
				samples := p.(types.HeartRate).Samples
				rows := make([][]any, len(samples))
				for i, s := range samples {
					rows[i] = []any{s.BeatsPerMinute, s.EpochMillis}
				}
				return rows
			},
			fromSamples: func(samples [][]any) types.Payload {
				if len(samples) == 0 {
					return types.HeartRate{}
				}
				out := make([]types.HeartRateSample, len(samples))
				for i, s := range samples {
					out[i] = types.HeartRateSample{
						BeatsPerMinute: i64(s[0]),
						EpochMillis:    i64(s[1]),
					}
				}
				return types.HeartRate{Samples: out}
			},
		},
	},

	types.KindSpeed: {
		kind:  types.KindSpeed,
		table: "speed_records",
		series: &seriesSchema{
			table: "speed_series",
			columns: []columnSpec{
				{"meters_per_second", colReal},
				{"epoch_millis", colInteger},
			},
			sampleValues: func(p types.Payload) [][]any {
				samples := p.(types.Speed).Samples
				rows := make([][]any, len(samples))
				for i, s := range samples {
					rows[i] = []any{s.MetersPerSecond, s.EpochMillis}
				}
				return rows
			},
			fromSamples: func(samples [][]any) types.Payload {
				if len(samples) == 0 {
					return types.Speed{}
				}
				out := make([]types.SpeedSample, len(samples))
				for i, s := range samples {
					out[i] = types.SpeedSample{
						MetersPerSecond: f64(s[0]),
						EpochMillis:     i64(s[1]),
					}
				}
				return types.Speed{Samples: out}
			},
		},
	},

	types.KindPower: {
		kind:  types.KindPower,
		table: "power_records",
		series: &seriesSchema{
			table: "power_series",
			columns: []columnSpec{
				{"watts", colReal},
				{"epoch_millis", colInteger},
			},
			sampleValues: func(p types.Payload) [][]any {
				samples := p.(types.Power).Samples
				rows := make([][]any, len(samples))
				for i, s := range samples {
					rows[i] = []any{s.Watts, s.EpochMillis}
				}
				return rows
			},
			fromSamples: func(samples [][]any) types.Payload {
				if len(samples) == 0 {
					return types.Power{}
				}
				out := make([]types.PowerSample, len(samples))
				for i, s := range samples {
					out[i] = types.PowerSample{
						Watts:       f64(s[0]),
						EpochMillis: i64(s[1]),
					}
				}
				return types.Power{Samples: out}
			},
		},
	},
}
