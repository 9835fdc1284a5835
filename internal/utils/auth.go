package utils

import "context"

// SetOperatorContext stores the authenticated operator (called by middleware)
func SetOperatorContext(ctx context.Context, subject, role string) context.Context {
	ctx = context.WithValue(ctx, OperatorKey, subject)
	ctx = context.WithValue(ctx, RoleKey, role)
	return ctx
}

func GetOperatorFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(OperatorKey).(string)
	return subject, ok && subject != ""
}

func GetRoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(RoleKey).(string)
	return role
}
