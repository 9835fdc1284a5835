package utils

type contextKey string

const (
	OperatorKey contextKey = "operator"
	RoleKey     contextKey = "role"
	ClientIPKey contextKey = "client_ip"
)

const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
)
