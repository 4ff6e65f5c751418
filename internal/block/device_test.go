package block_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnegard/newfs/internal/block"
)

func TestDeviceReadWriteRoundTrip(t *testing.T) {
	driver := block.NewMemDriver(512, 10)
	dev := block.New(driver)

	payload := []byte("hello, newfs")
	require.NoError(t, dev.Write(100, payload))

	back, err := dev.Read(100, len(payload))
	require.NoError(t, err)
	assert.Equal(t, payload, back)
}

func TestDeviceWritePreservesNeighboringBytes(t *testing.T) {
	driver := block.NewMemDriver(512, 2)
	dev := block.New(driver)

	require.NoError(t, dev.Write(0, []byte{0xAA, 0xBB, 0xCC}))
	require.NoError(t, dev.Write(1, []byte{0x11}))

	back, err := dev.Read(0, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0x11, 0xCC}, back)
}

func TestDeviceReadOutOfBounds(t *testing.T) {
	driver := block.NewMemDriver(512, 1)
	dev := block.New(driver)

	_, err := dev.Read(0, 1024)
	assert.Error(t, err)
}

func TestDeviceIOSizeAndSize(t *testing.T) {
	driver := block.NewMemDriver(512, 4)
	dev := block.New(driver)

	assert.Equal(t, 512, dev.IOSize())
	assert.Equal(t, int64(2048), dev.Size())
}
