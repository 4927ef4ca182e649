package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inklore/server/internal/interfaces"
)

func TestSaveName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "quest", "quest"},
		{"spaces to underscores", "My Great Adventure", "My_Great_Adventure"},
		{"surrounding whitespace", "  quest  ", "quest"},
		{"whitespace runs", "a \t\n b", "a_b"},
		{"unsafe chars dropped", "My Game!! 2", "My_Game_2"},
		{"keeps dash and underscore", "a-b_c", "a-b_c"},
		{"empty", "", ""},
		{"only unsafe", "!!!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SaveName(tt.in))
		})
	}
}

func TestSaveNameIdempotent(t *testing.T) {
	once := SaveName("The Crypt of  Xyzzy!")
	assert.Equal(t, once, SaveName(once))
}

func TestDecodeRecordRequiresAllKeys(t *testing.T) {
	full := []byte(`{"name":"q","context":"c","memory":"m","actions":[],"results":[]}`)
	rec, err := decodeRecord(full)
	require.NoError(t, err)
	assert.Equal(t, "q", rec.Name)

	missing := []byte(`{"name":"q","context":"c","memory":"m","actions":[]}`)
	_, err = decodeRecord(missing)
	assert.ErrorIs(t, err, ErrRecordMalformed)

	_, err = decodeRecord([]byte(`not json`))
	assert.ErrorIs(t, err, ErrRecordMalformed)
}

func TestEncodeRecordEmitsEmptySlices(t *testing.T) {
	data, err := encodeRecord(&interfaces.SaveRecord{Name: "q"})
	require.NoError(t, err)

	// nil slices must serialize as [], not null, so the record decodes on
	// any reader.
	assert.Contains(t, string(data), `"actions": []`)
	assert.Contains(t, string(data), `"results": []`)

	rec, err := decodeRecord(data)
	require.NoError(t, err)
	assert.Equal(t, "q", rec.Name)
}
