// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.

package cmd

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionString(t *testing.T) {
	out := versionString()
	assert.Contains(t, out, "netcheck "+Version)
	assert.Contains(t, out, "commit: "+Commit)
	assert.Contains(t, out, runtime.Version())
}

func TestVersionCommandOutput(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	defer versionCmd.SetOut(nil)

	versionCmd.Run(versionCmd, nil)

	require.NotEmpty(t, buf.String())
	assert.Equal(t, versionString(), buf.String())
}
