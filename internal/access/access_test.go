package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"planvault/internal/model"
)

func TestCanRead(t *testing.T) {
	doc := &model.Document{OwnerID: "u1", Department: "EE"}

	tests := []struct {
		name   string
		caller model.Identity
		want   bool
	}{
		{"owner", model.Identity{ID: "u1", Role: model.RoleStaff, Department: "EE"}, true},
		{"reviewer same department", model.Identity{ID: "u2", Role: model.RoleReviewer, Department: "EE"}, true},
		{"reviewer other department", model.Identity{ID: "u2", Role: model.RoleReviewer, Department: "CS"}, false},
		{"staff same department", model.Identity{ID: "u2", Role: model.RoleStaff, Department: "EE"}, false},
		{"staff other department", model.Identity{ID: "u3", Role: model.RoleStaff, Department: "CS"}, false},
		{"reviewer with empty department", model.Identity{ID: "u2", Role: model.RoleReviewer}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanRead(doc, tt.caller))
		})
	}
}

func TestCanModify(t *testing.T) {
	doc := &model.Document{OwnerID: "u1", Department: "EE"}

	assert.True(t, CanModify(doc, model.Identity{ID: "u1"}))
	assert.False(t, CanModify(doc, model.Identity{ID: "u2", Role: model.RoleReviewer, Department: "EE"}))
}
