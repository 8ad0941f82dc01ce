package texture

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func writeJPEG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, jpeg.Encode(f, img, nil))
}

func TestLoadTexture(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "albedo.png")
	writePNG(t, path)

	img, err := LoadTexture(path)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
	assert.Equal(t, uint8(255), img.NRGBAAt(0, 0).R)

	_, err = LoadTexture(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}

func TestLoadTextureJPEGGetsOpaqueAlpha(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "albedo.jpg")
	writeJPEG(t, path)

	img, err := LoadTexture(path)
	require.NoError(t, err)
	assert.Equal(t, uint8(255), img.NRGBAAt(1, 1).A)
}

func TestIndexPrefersAlphaFormats(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "chars")
	require.NoError(t, os.MkdirAll(sub, 0755))
	writeJPEG(t, filepath.Join(dir, "foo.jpg"))
	writePNG(t, filepath.Join(sub, "foo.png"))
	writePNG(t, filepath.Join(sub, "bar.png"))

	idx := BuildIndex(dir)
	assert.Equal(t, 2, idx.Len())

	path, ok := idx.ResolvePath(`chars\texture\FOO.tga`)
	require.True(t, ok)
	assert.Equal(t, ".png", filepath.Ext(path))

	_, ok = idx.ResolvePath("nope")
	assert.False(t, ok)
}

func TestCacheResolve(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "bar.png"))

	cache := NewCache(BuildIndex(dir))
	img := cache.Resolve("bar")
	require.NotNil(t, img)

	// cached pointer reused
	assert.Same(t, img, cache.Resolve("bar.png"))
	assert.Nil(t, cache.Resolve("unknown"))
}

func TestCacheCachesDecodeFailure(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "junk.png"), []byte("not a png"), 0644))

	cache := NewCache(BuildIndex(dir))
	assert.Nil(t, cache.Resolve("junk"))
	// the miss is cached, not retried
	assert.Nil(t, cache.Resolve("junk"))
}
