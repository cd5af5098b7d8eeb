package common

import (
	"errors"
	"strings"
)

func ValidateChannelName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("channel name cannot be empty")
	}
	if len(name) > 100 {
		return errors.New("channel name is too long")
	}
	return nil
}

func ValidateChannelType(t ChannelType) error {
	switch t {
	case ChannelPublic, ChannelPrivate, ChannelDM:
		return nil
	}
	return errors.New("invalid channel type")
}
