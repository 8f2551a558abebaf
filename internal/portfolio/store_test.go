package portfolio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "portfolios.txt"))

	portfolios, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, portfolios)
}

func TestLoad_CommasAndWhitespace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolios.txt")
	content := "AAPL,MSFT\n\ngoog  amzn\r\nNASDAQ:TSLA, nvda ,NVDA\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	portfolios, err := NewStore(path).Load()
	require.NoError(t, err)

	assert.Equal(t, []Portfolio{
		{"AAPL", "MSFT"},
		{"GOOG", "AMZN"},
		{"NASDAQ:TSLA", "NVDA"},
	}, portfolios)
}

func TestAppend_ThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "portfolios.txt")
	store := NewStore(path)

	require.NoError(t, store.Append(Portfolio{"aapl", " msft"}))
	require.NoError(t, store.Append(Portfolio{"BHP.AU"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "AAPL,MSFT\nBHP.AU\n", string(data))

	second, err := store.Get(2)
	require.NoError(t, err)
	assert.Equal(t, Portfolio{"BHP.AU"}, second)
}

func TestAppend_RejectsEmpty(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "portfolios.txt"))
	assert.Error(t, store.Append(Portfolio{" ", ""}))
}

func TestGet_OutOfRange(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "portfolios.txt"))
	require.NoError(t, store.Append(Portfolio{"AAPL"}))

	_, err := store.Get(0)
	assert.Error(t, err)
	_, err = store.Get(2)
	assert.Error(t, err)
}
