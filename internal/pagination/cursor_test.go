package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/orders/internal/errors"
)

func TestCursor_RoundTrip(t *testing.T) {
	original := Cursor{
		CreatedAt: time.Date(2025, 6, 1, 12, 30, 45, 123456000, time.UTC),
		ID:        uuid.Must(uuid.NewV7()),
	}

	token := Encode(original)
	assert.NotEmpty(t, token)

	decoded, err := Decode(token)
	require.NoError(t, err)
	assert.True(t, original.CreatedAt.Equal(decoded.CreatedAt))
	assert.Equal(t, original.ID, decoded.ID)
}

func TestDecode_MalformedBase64(t *testing.T) {
	_, err := Decode("not-valid-base64!!!")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
}

func TestDecode_MalformedJSON(t *testing.T) {
	token := base64.RawURLEncoding.EncodeToString([]byte("not json"))
	_, err := Decode(token)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
}

func TestDecode_MissingFields(t *testing.T) {
	token := base64.RawURLEncoding.EncodeToString([]byte(`{"createdAt":"0001-01-01T00:00:00Z"}`))
	_, err := Decode(token)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
}
