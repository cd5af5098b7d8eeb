package dbmongo

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"gochat/internal/common"
)

func TestSignURL(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	signer, err := common.NewTokenSigner("media-secret")
	require.NoError(t, err)
	signer = signer.WithClock(func() time.Time { return now })

	ms := &MediaStorage{signer: signer, baseURL: normalizeBaseURL("http://media.local/media")}

	url, expiresAt, err := ms.SignURL(context.Background(), "msg-1/file.pdf", 5*time.Minute)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, "http://media.local/media/"))
	assert.Equal(t, now.Add(5*time.Minute), expiresAt)

	token := strings.TrimPrefix(url, "http://media.local/media/")
	path, _, err := signer.VerifyMediaToken(token)
	require.NoError(t, err)
	assert.Equal(t, "msg-1/file.pdf", path)
}

func TestSignURL_FreshTokenEachCall(t *testing.T) {
	clock := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	signer, _ := common.NewTokenSigner("media-secret")
	signer = signer.WithClock(func() time.Time { return clock })
	ms := &MediaStorage{signer: signer, baseURL: "http://media.local/media/"}

	first, _, err := ms.SignURL(context.Background(), "msg-1/file.pdf", time.Minute)
	require.NoError(t, err)
	clock = clock.Add(2 * time.Second)
	second, _, err := ms.SignURL(context.Background(), "msg-1/file.pdf", time.Minute)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestSignURL_NoSigner(t *testing.T) {
	ms := &MediaStorage{}
	_, _, err := ms.SignURL(context.Background(), "a/b", time.Minute)
	assert.Error(t, err)
}

func TestGetStringFromMap(t *testing.T) {
	m := bson.M{"content_type": "application/pdf", "size": 12}

	assert.Equal(t, "application/pdf", getStringFromMap(m, "content_type"))
	assert.Equal(t, "", getStringFromMap(m, "size"))
	assert.Equal(t, "", getStringFromMap(nil, "content_type"))
}
