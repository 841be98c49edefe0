// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.

package cache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCachesValue(t *testing.T) {
	Flush()

	calls := 0
	fill := func() (string, error) {
		calls++
		return "value", nil
	}

	v, err := Get("k1", fill)
	require.NoError(t, err)
	assert.Equal(t, "value", v)

	v, err = Get("k1", fill)
	require.NoError(t, err)
	assert.Equal(t, "value", v)
	assert.Equal(t, 1, calls)
}

func TestGetDoesNotCacheErrors(t *testing.T) {
	Flush()

	calls := 0
	fill := func() (int, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("transient")
		}
		return 42, nil
	}

	_, err := Get("k2", fill)
	require.Error(t, err)

	v, err := Get("k2", fill)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 2, calls)
}

func TestFlushDropsEntries(t *testing.T) {
	Flush()

	calls := 0
	fill := func() (bool, error) {
		calls++
		return true, nil
	}

	_, err := Get("k3", fill)
	require.NoError(t, err)
	Flush()
	_, err = Get("k3", fill)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
