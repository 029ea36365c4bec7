package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServeCommandRegistersMetricsAddrFlag(t *testing.T) {
	flag := serveCmd.Flags().Lookup("metrics-addr")
	assert.NotNil(t, flag)
	assert.Equal(t, "", flag.DefValue)
}

func TestServeCommandHasNoPositionalArgs(t *testing.T) {
	assert.Nil(t, serveCmd.Args)
}
