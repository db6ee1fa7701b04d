package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringArrayValue(t *testing.T) {
	v, err := StringArray(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = StringArray{"calm", "grateful"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["calm","grateful"]`, v)
}

func TestStringArrayScan(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want StringArray
	}{
		{"null", nil, nil},
		{"json null", "null", nil},
		{"empty", "", StringArray{}},
		{"json array", []byte(`["peaceful","hopeful"]`), StringArray{"peaceful", "hopeful"}},
		{"json string", `"tired"`, StringArray{"tired"}},
		{"legacy csv", "joy, relief ,", StringArray{"joy", "relief"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a StringArray
			require.NoError(t, a.Scan(tt.in))
			assert.Equal(t, tt.want, a)
		})
	}

	var a StringArray
	assert.Error(t, a.Scan(42))
}

func TestNeedsOnboarding(t *testing.T) {
	done, pending := OnboardingDone, OnboardingPending
	assert.True(t, (&UserModel{}).NeedsOnboarding())
	assert.True(t, (&UserModel{OnboardingCompleted: &pending}).NeedsOnboarding())
	assert.False(t, (&UserModel{OnboardingCompleted: &done}).NeedsOnboarding())
}
