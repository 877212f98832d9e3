// Package stats produz as visões de leitura dos contadores filtradas pelo escopo do solicitante
package stats

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/coder/quartz"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/sales-performance-api/infrastructure/repository"
	"github.com/vfg2006/sales-performance-api/internal/domain"
	"github.com/vfg2006/sales-performance-api/internal/period"
	"github.com/vfg2006/sales-performance-api/internal/usecases/archiving"
	"github.com/vfg2006/sales-performance-api/internal/usecases/counting"
)

type Viewer interface {
	GetCurrentView(ctx context.Context, requester domain.Requester, targetUserID *int) (*domain.CurrentView, error)
	GetHistory(ctx context.Context, requester domain.Requester, targetUserID *int, limit int) (*domain.HistoryView, error)
	GetOverview(ctx context.Context, requester domain.Requester) (*domain.Overview, error)
}

type Service struct {
	counters  counting.Incrementer
	archiver  archiving.Archiver
	store     repository.CounterStore
	history   repository.HistoryRepository
	directory repository.TeamDirectory
	clock     quartz.Clock
	location  *time.Location
}

func NewService(
	counters counting.Incrementer,
	archiver archiving.Archiver,
	store repository.CounterStore,
	history repository.HistoryRepository,
	directory repository.TeamDirectory,
	clock quartz.Clock,
	location *time.Location,
) *Service {
	if location == nil {
		location = time.Local
	}

	return &Service{
		counters:  counters,
		archiver:  archiver,
		store:     store,
		history:   history,
		directory: directory,
		clock:     clock,
		location:  location,
	}
}

func (s *Service) now() time.Time {
	return s.clock.Now().In(s.location)
}

func (s *Service) resolveScope(ctx context.Context, requester domain.Requester) (Scope, error) {
	var managedIDs []int
	if requester.Role == domain.RoleManager {
		ids, err := s.directory.GetManagedUserIDs(ctx, requester.UserID)
		if err != nil {
			return Scope{}, domain.StorageError(requester.UserID, err)
		}
		managedIDs = ids
	}

	return ResolveScope(requester, managedIDs)
}

func checkTarget(scope Scope, requester domain.Requester, targetUserID *int) error {
	if targetUserID == nil {
		return nil
	}
	if *targetUserID <= 0 {
		return domain.NewStatsError(domain.ErrInvalidInput, *targetUserID, "usuário inválido")
	}
	if !scope.Allows(*targetUserID) {
		return domain.NewStatsError(domain.ErrForbidden, requester.UserID, "usuário fora do escopo do solicitante")
	}
	return nil
}

// GetCurrentView retorna os contadores correntes do alvo, ou o agregado do escopo quando
// nenhum alvo é informado e o escopo tem mais de um membro.
func (s *Service) GetCurrentView(ctx context.Context, requester domain.Requester, targetUserID *int) (*domain.CurrentView, error) {
	scope, err := s.resolveScope(ctx, requester)
	if err != nil {
		return nil, err
	}
	if err := checkTarget(scope, requester, targetUserID); err != nil {
		return nil, err
	}

	now := s.now()
	current := period.Current(now)

	if targetUserID == nil && !scope.Unrestricted() && len(scope.Members()) == 1 {
		targetUserID = &scope.Members()[0]
	}

	if targetUserID != nil {
		view, err := s.userView(ctx, *targetUserID, current)
		if err != nil {
			return nil, err
		}
		return &domain.CurrentView{
			Scope:    domain.ViewScopeUser,
			Period:   current,
			Counters: view,
		}, nil
	}

	var members []*domain.CountersView
	viewScope := domain.ViewScopeTeam

	if scope.Unrestricted() {
		viewScope = domain.ViewScopeAll
		members, err = s.allActiveViews(ctx, now)
	} else {
		members, err = s.membersViews(ctx, scope.Members(), current)
	}
	if err != nil {
		return nil, err
	}

	return &domain.CurrentView{
		Scope:     viewScope,
		Period:    current,
		Aggregate: aggregate(members, current),
		Members:   members,
	}, nil
}

// userView lê os contadores do usuário sem criá-los; usuário sem contadores gera a visão zerada
func (s *Service) userView(ctx context.Context, userID int, current domain.Period) (*domain.CountersView, error) {
	counters, err := s.counters.EnsureActive(ctx, userID, counting.WithoutLazyInit())
	if errors.Is(err, domain.ErrNotFound) {
		return domain.EmptyCountersView(userID, current), nil
	}
	if err != nil {
		return nil, err
	}

	return domain.NewCountersView(counters), nil
}

func (s *Service) membersViews(ctx context.Context, userIDs []int, current domain.Period) ([]*domain.CountersView, error) {
	views := make([]*domain.CountersView, 0, len(userIDs))
	for _, userID := range userIDs {
		view, err := s.userView(ctx, userID, current)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// archiveAllDue arquiva todos os períodos vencidos antes de uma leitura sem escopo.
// Qualquer linha que não pôde ser arquivada invalida a leitura.
func (s *Service) archiveAllDue(ctx context.Context, now time.Time) error {
	result, err := s.archiver.ArchiveAndResetAll(ctx, now)
	if err != nil {
		return err
	}
	if result != nil && result.Failed > 0 {
		logrus.WithField("failed", result.Failed).Error("Leitura sem escopo interrompida por arquivamentos pendentes")
		return domain.StorageError(0, fmt.Errorf("%d usuário(s) com arquivamento de período pendente", result.Failed))
	}
	return nil
}

// allActiveViews arquiva os períodos vencidos antes de ler todas as linhas ativas
func (s *Service) allActiveViews(ctx context.Context, now time.Time) ([]*domain.CountersView, error) {
	if err := s.archiveAllDue(ctx, now); err != nil {
		return nil, err
	}

	active, err := s.store.ListActive(ctx)
	if err != nil {
		return nil, domain.StorageError(0, err)
	}

	views := make([]*domain.CountersView, 0, len(active))
	for _, counters := range active {
		if period.IsRolloverDue(counters, now) {
			return nil, domain.StorageError(counters.UserID, errors.New("contadores com período vencido após a varredura"))
		}
		views = append(views, domain.NewCountersView(counters))
	}
	return views, nil
}

func aggregate(views []*domain.CountersView, current domain.Period) *domain.CountersView {
	total := domain.Metrics{}
	for _, view := range views {
		total.Add(view.Metrics)
	}

	return &domain.CountersView{
		PeriodStart:    current.Start,
		PeriodEnd:      current.End,
		Metrics:        total,
		ConversionRate: total.ConversionRate(),
	}
}

// GetHistory retorna os períodos arquivados do escopo, do mais recente ao mais antigo
func (s *Service) GetHistory(ctx context.Context, requester domain.Requester, targetUserID *int, limit int) (*domain.HistoryView, error) {
	if limit < 0 {
		return nil, domain.NewStatsError(domain.ErrInvalidInput, requester.UserID, "limite negativo")
	}

	scope, err := s.resolveScope(ctx, requester)
	if err != nil {
		return nil, err
	}
	if err := checkTarget(scope, requester, targetUserID); err != nil {
		return nil, err
	}

	now := s.now()
	viewScope := domain.ViewScopeTeam
	var userIDs []int

	switch {
	case targetUserID != nil:
		viewScope = domain.ViewScopeUser
		userIDs = []int{*targetUserID}
	case scope.Unrestricted():
		viewScope = domain.ViewScopeAll
	default:
		userIDs = scope.Members()
		if len(userIDs) == 1 {
			viewScope = domain.ViewScopeUser
		}
	}

	if userIDs == nil {
		if err := s.archiveAllDue(ctx, now); err != nil {
			return nil, err
		}
	} else {
		for _, userID := range userIDs {
			if _, err := s.archiver.ArchiveAndReset(ctx, userID, now); err != nil {
				return nil, err
			}
		}
	}

	records, err := s.history.List(ctx, userIDs, limit)
	if err != nil {
		return nil, domain.StorageError(requester.UserID, err)
	}

	entries := make([]*domain.HistoryEntry, 0, len(records))
	for _, record := range records {
		entries = append(entries, &domain.HistoryEntry{
			PeriodHistoryRecord: record,
			ConversionRate:      record.Metrics.ConversionRate(),
		})
	}

	return &domain.HistoryView{
		Scope:   viewScope,
		Records: entries,
	}, nil
}

// GetOverview retorna os totais globais e o ranking por comissão; exclusivo de administradores
func (s *Service) GetOverview(ctx context.Context, requester domain.Requester) (*domain.Overview, error) {
	if requester.Role != domain.RoleAdmin {
		return nil, domain.NewStatsError(domain.ErrForbidden, requester.UserID, "visão geral restrita a administradores")
	}

	now := s.now()
	current := period.Current(now)

	views, err := s.allActiveViews(ctx, now)
	if err != nil {
		return nil, err
	}

	userIDs := make([]int, 0, len(views))
	for _, view := range views {
		userIDs = append(userIDs, view.UserID)
	}

	users, err := s.directory.GetUsersByIDs(ctx, userIDs)
	if err != nil {
		return nil, domain.StorageError(requester.UserID, err)
	}

	usersByID := make(map[int]*domain.User, len(users))
	for _, user := range users {
		usersByID[user.ID] = user
	}

	entries := make([]*domain.OverviewEntry, 0, len(views))
	for _, view := range views {
		entry := &domain.OverviewEntry{
			Role:         domain.Role(0).String(),
			CountersView: view,
		}
		if user, exists := usersByID[view.UserID]; exists {
			entry.Username = user.Username
			entry.Role = user.RoleID.String()
		}
		entries = append(entries, entry)
	}

	updatePositions(entries)

	return &domain.Overview{
		Period:      current,
		Totals:      aggregate(views, current),
		Users:       entries,
		GeneratedAt: now,
	}, nil
}

// updatePositions ordena por comissões (desc) e numera a partir de 1
func updatePositions(entries []*domain.OverviewEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].CommissionsEarned != entries[j].CommissionsEarned {
			return entries[i].CommissionsEarned > entries[j].CommissionsEarned
		}
		return entries[i].UserID < entries[j].UserID
	})

	for i, entry := range entries {
		entry.Position = i + 1
	}
}
