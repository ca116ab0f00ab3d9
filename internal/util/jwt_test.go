package util

import (
	"testing"
	"thai_learn_backend/internal/model"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWT_RoundTrip(t *testing.T) {
	user := &model.User{BaseModel: model.BaseModel{ID: 7}, Name: "Malee", Email: "malee@example.com", Role: model.Admin}

	token, err := GenerateJWT(user, "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, model.Admin, claims.Role)
	assert.Equal(t, "Malee", claims.Name)

	_, err = ParseJWT(token, "other-secret")
	assert.Error(t, err)
}

func TestJWT_Expired(t *testing.T) {
	token, err := GenerateJWT(&model.User{BaseModel: model.BaseModel{ID: 1}}, "secret", -time.Minute)
	require.NoError(t, err)

	_, err = ParseJWT(token, "secret")
	assert.Error(t, err)
}
