package ctdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAPIVariant(t *testing.T) {
	tests := []struct {
		value    string
		expected APIVariant
		wantErr  bool
	}{
		{"", APIVariantJSON, false},
		{"json", APIVariantJSON, false},
		{"JSON", APIVariantJSON, false},
		{"legacy", APIVariantLegacyXML, false},
		{" xml ", APIVariantLegacyXML, false},
		{"soap", APIVariantJSON, true},
	}

	for _, tc := range tests {
		t.Run(tc.value, func(t *testing.T) {
			variant, err := ParseAPIVariant(tc.value)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, variant)
		})
	}
}

func TestAPIVariantText(t *testing.T) {
	var variant APIVariant
	require.NoError(t, variant.UnmarshalText([]byte("legacy")))
	assert.Equal(t, APIVariantLegacyXML, variant)

	text, err := variant.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "legacy", string(text))

	assert.Equal(t, "APIVariant(7)", APIVariant(7).String())
}

func TestServiceConfigHelpers(t *testing.T) {
	service := ServiceConfig{
		AgencyID: "sf-muni",
		Stops: []StopConfig{
			{StopID: "15553", Direction: "NB"},
			{StopID: "13338", Direction: "WB"},
		},
	}

	assert.Equal(t, "sf-muni", service.Headline())
	service.Name = "MUNI Arrivals"
	assert.Equal(t, "MUNI Arrivals", service.Headline())

	assert.Equal(t, "WB", service.DirectionFor("13338"))
	assert.Equal(t, "", service.DirectionFor("99999"))
	assert.Equal(t, []string{"15553", "13338"}, service.StopIDs())
}

func TestRenameRoute(t *testing.T) {
	rename := map[string]string{"764": "Mbrae", "empty": ""}

	assert.Equal(t, "Mbrae", RenameRoute("764", rename))
	assert.Equal(t, "243", RenameRoute("243", rename))
	assert.Equal(t, "empty", RenameRoute("empty", rename))
	assert.Equal(t, "14", RenameRoute("14", nil))
}

func TestArrivalLimit(t *testing.T) {
	assert.Equal(t, 3, APIVariantJSON.ArrivalLimit())
	assert.Equal(t, 2, APIVariantLegacyXML.ArrivalLimit())
}
