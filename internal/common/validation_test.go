package common

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateChannelName(t *testing.T) {
	assert.NoError(t, ValidateChannelName("general"))
	assert.Error(t, ValidateChannelName("   "))
	assert.Error(t, ValidateChannelName(strings.Repeat("x", 101)))
}

func TestValidateChannelType(t *testing.T) {
	for _, ct := range []ChannelType{ChannelPublic, ChannelPrivate, ChannelDM} {
		assert.NoError(t, ValidateChannelType(ct))
	}
	assert.Error(t, ValidateChannelType("broadcast"))
}
