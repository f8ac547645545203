package qrcode

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomCodeUsesAlphabet(t *testing.T) {
	code, err := RandomCode(CodeLength)
	require.NoError(t, err)
	assert.Len(t, code, CodeLength)
	for _, r := range code {
		assert.Contains(t, codeAlphabet, string(r))
	}
}

func TestRandomCodeDiscardsBiasedBytes(t *testing.T) {
	src := bytes.NewReader([]byte{201, 255, 0, 200, 66, 67})
	code, err := randomCode(src, 4)
	require.NoError(t, err)
	assert.Equal(t, "A==A", code)

	_, err = randomCode(bytes.NewReader(bytes.Repeat([]byte{250}, 6)), 4)
	assert.ErrorContains(t, err, "reading random bytes")
}

func TestTicketPayloadLayout(t *testing.T) {
	stageID := uuid.New()
	boxID := uuid.New()

	payload, err := TicketPayload("fst", &stageID, nil, &boxID)
	require.NoError(t, err)

	prefix := "FST-" + stageID.String() + "-0-" + boxID.String() + "-"
	require.True(t, strings.HasPrefix(payload, prefix), payload)
	assert.Len(t, strings.TrimPrefix(payload, prefix), CodeLength)
}

func TestTicketPayloadFallsBackForBadTrigram(t *testing.T) {
	payload, err := TicketPayload("toolong", nil, nil, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(payload, "XXX-0-0-0-"))
}

func TestSpecialPayload(t *testing.T) {
	payload, err := SpecialPayload("Abc")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(payload, "ABC-"))
	assert.Len(t, payload, 4+CodeLength)
}

func TestPayloadsAreDistinct(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 200; i++ {
		p, err := SpecialPayload("ABC")
		require.NoError(t, err)
		_, dup := seen[p]
		require.False(t, dup)
		seen[p] = struct{}{}
	}
}

func TestValidTrigram(t *testing.T) {
	assert.True(t, ValidTrigram("FST"))
	assert.True(t, ValidTrigram("abc"))
	assert.False(t, ValidTrigram("AB"))
	assert.False(t, ValidTrigram("A1C"))
}

func TestPNG(t *testing.T) {
	png, err := PNG("FST-0-0-0-abc", 0)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	_, err = PNG(" ", 128)
	require.Error(t, err)
}
