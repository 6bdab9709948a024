package users

// ListUsersQuery represents the users list query string.
type ListUsersQuery struct {
	Limit  int `query:"limit" json:"limit,omitempty" default:"50" validate:"min=1,max=100"`
	Offset int `query:"offset" json:"offset,omitempty" validate:"min=0"`
}

// CreateUserPayload represents the create user request body.
type CreateUserPayload struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	FullName string `json:"full_name" mod:"trim" validate:"required,max=200"`
	Password string `json:"password" validate:"required,min=8"`
	IsAdmin  bool   `json:"is_admin"`
}

// UpdateUserPayload represents the update user request body.
type UpdateUserPayload struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=3,max=50"`
	FullName *string `json:"full_name,omitempty" mod:"trim" validate:"omitempty,max=200"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=8"`
	IsAdmin  *bool   `json:"is_admin,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}
