package stats

import (
	"sort"

	"github.com/vfg2006/sales-performance-api/internal/domain"
)

// Scope é o conjunto de usuários que um solicitante pode consultar
type Scope struct {
	unrestricted bool
	members      []int
	allowed      map[int]struct{}
}

// ResolveScope reduz (papel, solicitante, equipe gerenciada) ao conjunto permitido:
// admin sem restrição, gestor {ele} ∪ equipe, agente apenas {ele}.
func ResolveScope(requester domain.Requester, managedIDs []int) (Scope, error) {
	switch requester.Role {
	case domain.RoleAdmin:
		return Scope{unrestricted: true}, nil
	case domain.RoleManager:
		return newScope(append([]int{requester.UserID}, managedIDs...)), nil
	case domain.RoleAgent:
		return newScope([]int{requester.UserID}), nil
	default:
		return Scope{}, domain.NewStatsError(domain.ErrForbidden, requester.UserID, "papel desconhecido")
	}
}

func newScope(ids []int) Scope {
	allowed := make(map[int]struct{}, len(ids))
	members := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, exists := allowed[id]; exists {
			continue
		}
		allowed[id] = struct{}{}
		members = append(members, id)
	}
	sort.Ints(members)

	return Scope{members: members, allowed: allowed}
}

func (s Scope) Allows(userID int) bool {
	if s.unrestricted {
		return true
	}
	_, ok := s.allowed[userID]
	return ok
}

func (s Scope) Unrestricted() bool {
	return s.unrestricted
}

// Members retorna os usuários do escopo em ordem crescente; vazio quando irrestrito
func (s Scope) Members() []int {
	return s.members
}
