package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helix-health/healthvault/pkg/types"
)

func TestPriorityReplaceAndRead(t *testing.T) {
	s := newTestStore(t)

	packages, err := s.Priority(types.CategoryActivity)
	require.NoError(t, err)
	assert.Empty(t, packages, "absent category yields an empty list")

	want := []string{"com.app.one", "com.app.two"}
	require.NoError(t, s.SetPriority(types.CategoryActivity, want))

	packages, err = s.Priority(types.CategoryActivity)
	require.NoError(t, err)
	assert.Equal(t, want, packages)

	// Replacement, not merge.
	require.NoError(t, s.SetPriority(types.CategoryActivity, []string{"com.app.two"}))
	packages, err = s.Priority(types.CategoryActivity)
	require.NoError(t, err)
	assert.Equal(t, []string{"com.app.two"}, packages)
}

func TestPriorityIsPerCategory(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SetPriority(types.CategoryActivity, []string{"com.app.one"}))
	require.NoError(t, s.SetPriority(types.CategoryVitals, []string{"com.app.two"}))

	activity, err := s.Priority(types.CategoryActivity)
	require.NoError(t, err)
	assert.Equal(t, []string{"com.app.one"}, activity)

	vitals, err := s.Priority(types.CategoryVitals)
	require.NoError(t, err)
	assert.Equal(t, []string{"com.app.two"}, vitals)
}

func TestSetPriorityRejectsDelimiter(t *testing.T) {
	s := newTestStore(t)

	err := s.SetPriority(types.CategoryActivity, []string{"com.a,com.b"})
	assert.ErrorIs(t, err, types.ErrReservedDelimiter)
}
