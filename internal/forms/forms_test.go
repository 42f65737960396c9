package forms

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildAndParseFormName(t *testing.T) {
	name := BuildFormName("HR System", "John Doe", "acct-42")
	assert.Equal(t, "Identity Fusion - HR System - John Doe (acct-42)", name)

	accountID, ok := ParseFormName(name)
	assert.True(t, ok)
	assert.Equal(t, "acct-42", accountID)
}

func TestParseFormNameRejectsForeignForms(t *testing.T) {
	tests := []string{
		"Access Request - John Doe (acct-42)",
		"Identity Fusion fragment without id",
		"",
	}
	for _, name := range tests {
		_, ok := ParseFormName(name)
		assert.False(t, ok, "name %q", name)
	}
}

func TestInstanceStateHasResponse(t *testing.T) {
	assert.True(t, StateCompleted.HasResponse())
	assert.True(t, StateInProgress.HasResponse())
	assert.True(t, StateSubmitted.HasResponse())
	assert.False(t, StateAssigned.HasResponse())
	assert.False(t, StateCancelled.HasResponse())
}
