package mutation

import "vpsweb/model"

type RoleChange struct {
	UserID string
	Role   string
}

// SetRolePatch 返回替换了目标用户角色的新页面，没有 items 时原样返回
func SetRolePatch(p model.Page[model.User], in RoleChange) model.Page[model.User] {
	if p.Items == nil {
		return p
	}
	items := make([]model.User, len(p.Items))
	for i, u := range p.Items {
		if u.ID == in.UserID {
			u.Role = in.Role
		}
		items[i] = u
	}
	p.Items = items
	return p
}
