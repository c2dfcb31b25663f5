package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigDirFromArgs(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{nil, ""},
		{[]string{"calc", "--entry", "100"}, ""},
		{[]string{"--config", "/tmp/lc", "calc"}, "/tmp/lc"},
		{[]string{"calc", "--config=/tmp/lc"}, "/tmp/lc"},
		{[]string{"calc", "--config"}, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, configDirFromArgs(tt.args), "%v", tt.args)
	}
}
