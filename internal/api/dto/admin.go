package dto

// SetRoleRequest grants or revokes admin rights
type SetRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

// UserUsageDTO is one row of the admin user listing
type UserUsageDTO struct {
	UserDTO
	Period       string `json:"period"`
	MessagesUsed int64  `json:"messages_used"`
	TokensUsed   int64  `json:"tokens_used"`
}
