package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLabel(t *testing.T) {
	for _, in := range []string{"yes", "YES", " Yes\n"} {
		l, err := ParseLabel(in)
		require.NoError(t, err, in)
		assert.Equal(t, Yes, l)
	}
	l, err := ParseLabel("no")
	require.NoError(t, err)
	assert.Equal(t, No, l)

	for _, in := range []string{"", "maybe", "yes.", "y"} {
		_, err := ParseLabel(in)
		assert.ErrorIs(t, err, ErrInvalidLabel, in)
	}
}

func TestParseReply(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Label
		wantErr bool
	}{
		{"json yes", `{"present":"yes"}`, Yes, false},
		{"json no spaced", ` { "present" : "No" } `, No, false},
		{"fenced json", "```json\n{\"present\": \"yes\"}\n```", Yes, false},
		{"bare token", "no", No, false},
		{"bare token upper", "YES", Yes, false},
		{"missing field", `{"aaa_present":"yes"}`, "", true},
		{"bad value", `{"present":"probably"}`, "", true},
		{"malformed json", `{"present":`, "", true},
		{"prose", "Yes, there is a site in the north.", "", true},
		{"empty", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseReply(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidLabel)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLookupTarget(t *testing.T) {
	aaa, err := LookupTarget("AAA", "")
	require.NoError(t, err)
	assert.Equal(t, "aaa", aaa.Name)
	assert.Contains(t, aaa.Question, "anti-aircraft artillery")
	assert.Contains(t, aaa.System, `{"present"`)

	df, err := LookupTarget("double-fences", "")
	require.NoError(t, err)
	assert.Contains(t, df.Question, "double fences")

	custom, err := LookupTarget("", "Is there a runway?")
	require.NoError(t, err)
	assert.Regexp(t, `^custom-[0-9a-f]{8}$`, custom.Name)
	assert.Equal(t, "Is there a runway?", custom.Question)

	_, err = LookupTarget("submarines", "")
	assert.Error(t, err)

	assert.Equal(t, []string{"aaa", "double-fences"}, PresetNames())
}
