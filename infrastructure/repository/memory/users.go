package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/vfg2006/sales-performance-api/internal/domain"
)

// AddUser cadastra ou substitui um usuário no diretório em memória
func (s *Store) AddUser(user *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *user
	s.users[user.ID] = &copied
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if !user.Deleted && strings.EqualFold(user.Email, email) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *Store) GetUserByID(ctx context.Context, userID int) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[userID]
	if !exists || user.Deleted {
		return nil, nil
	}

	copied := *user
	return &copied, nil
}

func (s *Store) GetManagedUserIDs(ctx context.Context, managerID int) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int, 0)
	for _, user := range s.users {
		if !user.Deleted && user.ManagerID != nil && *user.ManagerID == managerID {
			ids = append(ids, user.ID)
		}
	}

	sort.Ints(ids)
	return ids, nil
}

func (s *Store) GetUsersByIDs(ctx context.Context, ids []int) ([]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*domain.User, 0, len(ids))
	for _, id := range ids {
		user, exists := s.users[id]
		if !exists {
			continue
		}
		copied := *user
		copied.PasswordHash = ""
		users = append(users, &copied)
	}
	return users, nil
}
