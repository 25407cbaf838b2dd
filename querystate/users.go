package querystate

import "net/url"

var Roles = []string{AllValue, "admin", "user"}

type AdminUsers struct {
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
	Keyword  string `json:"keyword"`
	Role     string `json:"role"`
}

func DefaultAdminUsers() AdminUsers {
	return AdminUsers{Page: 1, PageSize: 10, Role: AllValue}
}

func DecodeAdminUsers(q url.Values, defaults AdminUsers) AdminUsers {
	return AdminUsers{
		Page:     positiveInt(q, "page", defaults.Page),
		PageSize: positiveInt(q, "page_size", defaults.PageSize),
		Keyword:  str(q, "keyword", defaults.Keyword),
		Role:     enum(q, "role", Roles),
	}
}

func (s AdminUsers) Encode(prev url.Values) url.Values {
	q := clone(prev)
	setInt(q, "page", s.Page)
	setInt(q, "page_size", s.PageSize)
	setOrDelete(q, "keyword", s.Keyword)
	setEnum(q, "role", s.Role)
	return q
}

func (s AdminUsers) RemoteQuery() url.Values {
	q := url.Values{}
	setInt(q, "page", s.Page)
	setInt(q, "page_size", s.PageSize)
	setOrDelete(q, "keyword", s.Keyword)
	setEnum(q, "role", s.Role)
	return q
}
