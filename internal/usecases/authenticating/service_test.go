package authenticating

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/sales-performance-api/infrastructure/repository/mocks"
	"github.com/vfg2006/sales-performance-api/internal/config"
	"github.com/vfg2006/sales-performance-api/internal/domain"
	"github.com/vfg2006/sales-performance-api/pkg/apiErrors"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"
)

func newTestConfig() *config.Config {
	return &config.Config{
		Auth: config.Auth{
			SecretKey: "segredo-de-teste",
			TokenTTL:  time.Hour,
		},
	}
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestService_LoginUser(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	mockUserRepo := mocks.NewMockUserRepository(ctrl)

	clock := quartz.NewMock(t)
	clock.Set(time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC))
	service := NewService(mockUserRepo, clock, newTestConfig())

	activeUser := &domain.User{
		ID:           7,
		Name:         "Ana",
		Email:        "ana@empresa.com",
		PasswordHash: hashPassword(t, "senha-forte"),
		Active:       true,
		RoleID:       domain.RoleAgent,
	}

	tests := []struct {
		name        string
		email       string
		password    string
		setup       func()
		expectError error
		expectCode  string
		validate    func(t *testing.T, token string)
	}{
		{
			name:     "Login válido gera token com papel do usuário",
			email:    "  Ana@Empresa.com ",
			password: "senha-forte",
			setup: func() {
				mockUserRepo.EXPECT().GetUserByEmail(ctx, "ana@empresa.com").Return(activeUser, nil)
			},
			validate: func(t *testing.T, token string) {
				claims, err := service.ValidateToken(token)
				require.NoError(t, err)
				assert.Equal(t, 7, claims.UserID)
				assert.Equal(t, domain.Requester{UserID: 7, Role: domain.RoleAgent}, claims.Requester())
			},
		},
		{
			name:        "Email ou senha ausentes",
			email:       "",
			password:    "x",
			setup:       func() {},
			expectError: ErrMissingRequiredData,
			expectCode:  apiErrors.ErrMissingRequiredData,
		},
		{
			name:     "Usuário inexistente",
			email:    "ninguem@empresa.com",
			password: "x",
			setup: func() {
				mockUserRepo.EXPECT().GetUserByEmail(ctx, "ninguem@empresa.com").Return(nil, nil)
			},
			expectError: ErrUserNotFound,
			expectCode:  apiErrors.ErrUserNotFound,
		},
		{
			name:     "Usuário desativado",
			email:    "bia@empresa.com",
			password: "senha-forte",
			setup: func() {
				mockUserRepo.EXPECT().GetUserByEmail(ctx, "bia@empresa.com").Return(&domain.User{ID: 8, Active: false}, nil)
			},
			expectError: ErrUserDisabled,
			expectCode:  apiErrors.ErrUserDisabled,
		},
		{
			name:     "Senha incorreta",
			email:    "ana@empresa.com",
			password: "errada",
			setup: func() {
				mockUserRepo.EXPECT().GetUserByEmail(ctx, "ana@empresa.com").Return(activeUser, nil)
			},
			expectError: ErrInvalidCredentials,
			expectCode:  apiErrors.ErrInvalidCredentials,
		},
		{
			name:     "Falha no banco",
			email:    "ana@empresa.com",
			password: "senha-forte",
			setup: func() {
				mockUserRepo.EXPECT().GetUserByEmail(ctx, "ana@empresa.com").Return(nil, errors.New("timeout"))
			},
			expectError: ErrDatabaseOperation,
			expectCode:  apiErrors.ErrDatabaseOperation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()

			token, err := service.LoginUser(ctx, tt.email, tt.password)
			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
				var authErr *AuthError
				require.ErrorAs(t, err, &authErr)
				assert.Equal(t, tt.expectCode, authErr.Code)
				return
			}
			require.NoError(t, err)
			tt.validate(t, token)
		})
	}
}

func TestService_ValidateToken(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	mockUserRepo := mocks.NewMockUserRepository(ctrl)

	clock := quartz.NewMock(t)
	clock.Set(time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC))
	service := NewService(mockUserRepo, clock, newTestConfig())

	mockUserRepo.EXPECT().GetUserByEmail(ctx, "gestor@empresa.com").Return(&domain.User{
		ID:           2,
		Email:        "gestor@empresa.com",
		PasswordHash: hashPassword(t, "senha"),
		Active:       true,
		RoleID:       domain.RoleManager,
	}, nil)

	token, err := service.LoginUser(ctx, "gestor@empresa.com", "senha")
	require.NoError(t, err)

	t.Run("Assinatura com outro segredo é rejeitada", func(t *testing.T) {
		cfg := newTestConfig()
		cfg.Auth.SecretKey = "outro-segredo"
		other := NewService(mockUserRepo, clock, cfg)

		_, err := other.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Token malformado", func(t *testing.T) {
		_, err := service.ValidateToken("abc.def")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Token expira após o TTL", func(t *testing.T) {
		clock.Advance(2 * time.Hour)

		_, err := service.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})
}

func TestService_GetUserProfile(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	mockUserRepo := mocks.NewMockUserRepository(ctrl)
	service := NewService(mockUserRepo, quartz.NewMock(t), newTestConfig())

	mockUserRepo.EXPECT().GetUserByID(ctx, 7).Return(&domain.User{ID: 7, PasswordHash: "hash"}, nil)
	user, err := service.GetUserProfile(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, user.PasswordHash)

	mockUserRepo.EXPECT().GetUserByID(ctx, 99).Return(nil, nil)
	_, err = service.GetUserProfile(ctx, 99)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
