package bas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyVAT(t *testing.T) {
	cases := []struct {
		number string
		key    string
	}{
		{"2610", "output_25"},
		{"2611", "output_25"},
		{"2612", "output_25"},
		{"2620", "output_12"},
		{"2625", "output_12"},
		{"2630", "output_6"},
		{"2640", "input_deduct"},
		{"2641", "input_deduct"},
		{"2650", "input_reverse"},
		{"2660", "input_eu"},
		{"2615", "output_other"},
		{"2699", "output_other"},
	}
	for _, tc := range cases {
		b, ok := ClassifyVAT(tc.number)
		require.True(t, ok, tc.number)
		assert.Equal(t, tc.key, b.Key, tc.number)
	}
}

func TestClassifyVAT_OutsideRange(t *testing.T) {
	for _, number := range []string{"2599", "2700", "1930", "26", "26100"} {
		_, ok := ClassifyVAT(number)
		assert.False(t, ok, number)
	}
}

func TestVATBucketKeys_Complete(t *testing.T) {
	require.Len(t, VATBucketKeys, len(vatBuckets))
	for _, key := range VATBucketKeys {
		b, ok := BucketByKey(key)
		require.True(t, ok, key)
		assert.Equal(t, key, b.Key)
		assert.NotEmpty(t, b.Label, key)
	}
}
