package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vpsweb/apiclient"
	"vpsweb/model"
)

func TestStore(t *testing.T) {
	s := NewStore()
	s.Put(apiclient.Session{})
	assert.Equal(t, 0, s.Len())

	a := apiclient.Session{Token: "t1", User: model.User{ID: "u1", Role: model.RoleUser}}
	b := apiclient.Session{Token: "t2", User: model.User{ID: "u1", Role: model.RoleUser}}
	s.Put(a)
	s.Put(b)

	got, ok := s.Get("t1")
	assert.True(t, ok)
	assert.Equal(t, "u1", got.User.ID)

	s.UpdateUser(apiclient.Session{User: model.User{ID: "u1", Role: model.RoleAdmin}})
	got, _ = s.Get("t2")
	assert.True(t, got.User.IsAdmin())

	s.Delete("t1")
	_, ok = s.Get("t1")
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len())
}
