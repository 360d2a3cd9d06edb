package common

// AccessTokenCookieName is the cookie that carries the signed identity token.
const AccessTokenCookieName = "token"

// Roles known to the server. Every self-registered user is a student.
const (
	RoleStudent = "student"
)

// Environment names accepted by the server configuration.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)
