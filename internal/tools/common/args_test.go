package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringArg(t *testing.T) {
	args := map[string]interface{}{
		"title":  "  Sync ",
		"number": 42,
		"empty":  "",
	}

	assert.Equal(t, "Sync", StringArg(args, "title"))
	assert.Equal(t, "", StringArg(args, "number"))
	assert.Equal(t, "", StringArg(args, "missing"))

	v, err := RequiredStringArg(args, "title")
	require.NoError(t, err)
	assert.Equal(t, "Sync", v)

	_, err = RequiredStringArg(args, "empty")
	assert.EqualError(t, err, "empty is required")
}

func TestSplitAttendees(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{input: "", want: []string{}},
		{input: "a@x.com", want: []string{"a@x.com"}},
		{input: " a@x.com , b@y.org ", want: []string{"a@x.com", "b@y.org"}},
		{input: ",,a@x.com,", want: []string{"a@x.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitAttendees(tt.input))
		})
	}
}

func TestStringListArg(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		want    []string
		wantErr string
	}{
		{name: "missing", value: nil, want: []string{}},
		{name: "comma separated", value: "a@x.com, b@y.org", want: []string{"a@x.com", "b@y.org"}},
		{name: "array", value: []interface{}{"a@x.com", " b@y.org ", ""}, want: []string{"a@x.com", "b@y.org"}},
		{name: "string slice", value: []string{"a@x.com"}, want: []string{"a@x.com"}},
		{name: "non-string item", value: []interface{}{"a@x.com", 7}, wantErr: "attendees[1] must be a string"},
		{name: "wrong type", value: 7, wantErr: "attendees must be a string or array of strings"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := map[string]interface{}{}
			if tt.value != nil {
				args["attendees"] = tt.value
			}
			got, err := StringListArg(args, "attendees")
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
