package domain

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role identifica o papel do usuário no diretório
type Role int

const (
	RoleAdmin   Role = 1
	RoleManager Role = 2
	RoleAgent   Role = 3
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleManager:
		return "manager"
	case RoleAgent:
		return "agent"
	default:
		return "unknown"
	}
}

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleManager || r == RoleAgent
}

type User struct {
	ID           int        `json:"id"`
	Username     string     `json:"username"`
	Name         string     `json:"name"`
	Lastname     string     `json:"lastname"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"password,omitempty"`
	Active       bool       `json:"active"`
	RoleID       Role       `json:"role_id"`
	ManagerID    *int       `json:"manager_id"`
	Deleted      bool       `json:"deleted"`
	DeletedAt    *time.Time `json:"deleted_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Requester é a identidade já autenticada de quem consulta as estatísticas
type Requester struct {
	UserID int
	Role   Role
}

type Claims struct {
	UserID       int
	UserName     string
	UserLastname string
	UserEmail    string
	UserActive   bool
	UserRoleID   Role
	jwt.RegisteredClaims
}

// Requester converte as claims do token na identidade usada pelo serviço de estatísticas
func (c *Claims) Requester() Requester {
	return Requester{
		UserID: c.UserID,
		Role:   c.UserRoleID,
	}
}
