package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdy4236/mask/internal/auth"
	"github.com/jdy4236/mask/internal/domain"
	"github.com/jdy4236/mask/internal/store"
)

func TestCheckJoinPublicRoom(t *testing.T) {
	room := &store.Room{ID: "general", IsPrivate: false}

	assert.NoError(t, CheckJoin(room, ""))
	assert.NoError(t, CheckJoin(room, "anything"))
}

func TestCheckJoinPrivateRoom(t *testing.T) {
	hash, err := auth.HashPassword("pw1")
	require.NoError(t, err)
	room := &store.Room{ID: "secret", IsPrivate: true, Password: hash}

	assert.ErrorIs(t, CheckJoin(room, ""), domain.ErrPasswordRequired)
	assert.ErrorIs(t, CheckJoin(room, "wrong"), domain.ErrInvalidPassword)
	assert.NoError(t, CheckJoin(room, "pw1"))
}
