package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestCachedCollection_Valid(t *testing.T) {
	t.Parallel()
	now := time.UnixMilli(1_700_000_000_000)
	c := CachedCollection[Transcript]{Timestamp: now.UnixMilli()}

	require.True(t, c.Valid(now, 5*time.Minute))
	require.True(t, c.Valid(now.Add(5*time.Minute-time.Millisecond), 5*time.Minute))
	require.False(t, c.Valid(now.Add(5*time.Minute), 5*time.Minute))
}

func TestGender_JSON(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(UserProfile{FirstName: "a"})
	require.NoError(t, err)
	require.Contains(t, string(b), `"gender":null`)

	b, err = json.Marshal(UserProfile{Gender: GenderFemale})
	require.NoError(t, err)
	require.Contains(t, string(b), `"gender":"Female"`)

	var u User
	require.NoError(t, json.Unmarshal([]byte(`{"id":"u1","gender":null}`), &u))
	require.Equal(t, GenderUnset, u.Gender)
	require.NoError(t, json.Unmarshal([]byte(`{"id":"u1","gender":"Male"}`), &u))
	require.Equal(t, GenderMale, u.Gender)
}

func TestGender_ValidateAndParse(t *testing.T) {
	t.Parallel()
	require.NoError(t, GenderUnset.Validate())
	require.NoError(t, GenderMale.Validate())
	require.Error(t, Gender("Other").Validate())

	g, err := ParseGender("f")
	require.NoError(t, err)
	require.Equal(t, GenderFemale, g)
	_, err = ParseGender("x")
	require.Error(t, err)
}

func TestAccessExpiry(t *testing.T) {
	t.Parallel()

	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)})
	signed, err := tok.SignedString([]byte("k"))
	require.NoError(t, err)

	require.True(t, AccessExpiry(signed).Equal(exp))
	require.True(t, AccessExpiry("opaque-token").IsZero())
}
