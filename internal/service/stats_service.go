package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"

	"userportal/api/internal/models"
	"userportal/api/internal/store"
)

const (
	dashboardCacheKey = "userportal:stats:dashboard"
	dashboardCacheTTL = 5 * time.Minute
)

type DashboardStats struct {
	TotalUsers   int64 `json:"totalUsers"`
	ActiveUsers  int64 `json:"activeUsers"`
	AdminUsers   int64 `json:"adminUsers"`
	RecentLogins int64 `json:"recentLogins"`
}

type OverviewStats struct {
	TotalUsers        int64            `json:"totalUsers"`
	ActiveUsers       int64            `json:"activeUsers"`
	UsersByRole       map[string]int64 `json:"usersByRole"`
	UsersByDepartment map[string]int64 `json:"usersByDepartment"`
}

// StatsService aggregates user counts for the dashboard and the user
// statistics endpoint. Dashboard numbers are cached in redis when a client
// is configured; the cron scheduler refreshes the snapshot in the
// background.
type StatsService struct {
	users store.UserStore
	cache *redis.Client
	log   zerolog.Logger
}

func NewStatsService(users store.UserStore, cache *redis.Client, log zerolog.Logger) *StatsService {
	return &StatsService{users: users, cache: cache, log: log}
}

func (s *StatsService) Dashboard(ctx context.Context) (DashboardStats, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, dashboardCacheKey).Bytes(); err == nil {
			var stats DashboardStats
			if err := json.Unmarshal(data, &stats); err == nil {
				return stats, nil
			}
		}
	}
	return s.computeDashboard(ctx)
}

// Snapshot recomputes the dashboard numbers and stores them in redis.
func (s *StatsService) Snapshot(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}

	stats, err := s.computeDashboard(ctx)
	if err != nil {
		return err
	}

	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, dashboardCacheKey, data, dashboardCacheTTL).Err()
}

func (s *StatsService) computeDashboard(ctx context.Context) (DashboardStats, error) {
	var (
		stats DashboardStats
		err   error
	)

	if stats.TotalUsers, err = s.users.Count(ctx, bson.M{}); err != nil {
		return DashboardStats{}, err
	}
	if stats.ActiveUsers, err = s.users.Count(ctx, bson.M{"isActive": true}); err != nil {
		return DashboardStats{}, err
	}
	if stats.AdminUsers, err = s.users.Count(ctx, bson.M{"role": string(models.RoleAdmin)}); err != nil {
		return DashboardStats{}, err
	}

	dayAgo := time.Now().UTC().Add(-24 * time.Hour)
	if stats.RecentLogins, err = s.users.Count(ctx, bson.M{"lastLogin": bson.M{"$gte": dayAgo}}); err != nil {
		return DashboardStats{}, err
	}

	return stats, nil
}

func (s *StatsService) Overview(ctx context.Context) (OverviewStats, error) {
	active := bson.M{"isActive": true}

	var (
		stats OverviewStats
		err   error
	)

	if stats.TotalUsers, err = s.users.Count(ctx, active); err != nil {
		return OverviewStats{}, err
	}

	monthAgo := time.Now().UTC().Add(-30 * 24 * time.Hour)
	recentlySeen := bson.M{"isActive": true, "lastLogin": bson.M{"$gte": monthAgo}}
	if stats.ActiveUsers, err = s.users.Count(ctx, recentlySeen); err != nil {
		return OverviewStats{}, err
	}

	if stats.UsersByRole, err = s.users.CountGroupBy(ctx, active, "role"); err != nil {
		return OverviewStats{}, err
	}
	if stats.UsersByDepartment, err = s.users.CountGroupBy(ctx, active, "profile.department"); err != nil {
		return OverviewStats{}, err
	}

	return stats, nil
}
