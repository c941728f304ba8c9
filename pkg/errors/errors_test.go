package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithContext(t *testing.T) {
	assert.NoError(t, WithContext(nil, "ignored"))

	root := New("root")
	err := WithContext(WithContext(root, "inner"), "outer")
	assert.EqualError(t, err, "outer: inner: root")
	assert.Equal(t, root, RootCause(err))
	assert.True(t, Is(err, root))
}

func TestGetFriendlyMessage(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		expMsg    string
		expExists bool
	}{
		{
			name: "PlainError",
			err:  New("plain"),
		},
		{
			name:      "Friendly",
			err:       NewFriendlyError("Run %q first.", "init"),
			expMsg:    `Run "init" first.`,
			expExists: true,
		},
		{
			name:      "FriendlyWithContext",
			err:       WithContext(NewFriendlyError("friendly"), "context"),
			expMsg:    "friendly",
			expExists: true,
		},
		{
			name:      "InvalidInput",
			err:       WithContext(InvalidInput{Field: "name", Reason: "empty"}, "parse"),
			expMsg:    "invalid name: empty",
			expExists: true,
		},
		{
			name: "FileNotFound",
			err:  FileNotFound{Path: "/missing"},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			msg, ok := GetFriendlyMessage(test.err)
			assert.Equal(t, test.expExists, ok)
			assert.Equal(t, test.expMsg, msg)
		})
	}
}
