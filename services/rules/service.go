package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"loadline/config"
	rulesRepo "loadline/database/repository/rules"
	"loadline/models"
	"loadline/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const cacheTTL = 5 * time.Minute

// Service resolves per-company dispatch rules, falling back to configured
// defaults when a company has no record. Reads go through Redis.
type Service interface {
	Resolve(ctx context.Context, companyCode string) (*models.DispatchRules, error)
	Update(ctx context.Context, rules *models.DispatchRules) error
	OpenNightSlots(ctx context.Context, companyCode string) (*models.DispatchRules, error)
}

type DefaultRulesService struct {
	Repo  rulesRepo.Repository
	Cache *redis.Client
}

func NewDefaultRulesService(repo rulesRepo.Repository) *DefaultRulesService {
	return &DefaultRulesService{Repo: repo, Cache: utils.GetRulesCacheClient()}
}

// Defaults are the rules applied to companies without a stored record.
func Defaults(companyCode string) *models.DispatchRules {
	return &models.DispatchRules{
		CompanyCode:       companyCode,
		Threshold:         config.AppConfig.DefaultThreshold,
		LastSlotEnabled:   false,
		LastSlotOpenAfter: "17:00",
		SlotTimes:         models.DefaultSlotTimes(),
	}
}

func cacheKey(companyCode string) string {
	return fmt.Sprintf("rules:%s", companyCode)
}

func (s *DefaultRulesService) Resolve(ctx context.Context, companyCode string) (*models.DispatchRules, error) {
	logger := utils.GetLogger()

	if s.Cache != nil {
		if raw, err := s.Cache.Get(ctx, cacheKey(companyCode)).Result(); err == nil {
			var r models.DispatchRules
			if jerr := json.Unmarshal([]byte(raw), &r); jerr == nil {
				return &r, nil
			}
		}
	}

	r, err := s.Repo.Get(ctx, companyCode)
	if err == rulesRepo.ErrNotFound {
		r = Defaults(companyCode)
	} else if err != nil {
		return nil, fmt.Errorf("failed to resolve dispatch rules: %w", err)
	}
	if r.Threshold <= 0 {
		r.Threshold = config.AppConfig.DefaultThreshold
	}
	if len(r.SlotTimes.Flatten()) == 0 {
		r.SlotTimes = models.DefaultSlotTimes()
	}

	if s.Cache != nil {
		if raw, jerr := json.Marshal(r); jerr == nil {
			if cerr := s.Cache.Set(ctx, cacheKey(companyCode), raw, cacheTTL).Err(); cerr != nil {
				logger.Warn("rules cache set failed", zap.String("company", companyCode), zap.Error(cerr))
			}
		}
	}
	return r, nil
}

func (s *DefaultRulesService) Update(ctx context.Context, rules *models.DispatchRules) error {
	if rules.CompanyCode == "" {
		return fmt.Errorf("companyCode required")
	}
	if err := s.Repo.Upsert(ctx, rules); err != nil {
		return err
	}
	if s.Cache != nil {
		_ = s.Cache.Del(ctx, cacheKey(rules.CompanyCode)).Err()
	}
	return nil
}

// OpenNightSlots enables the night block for a company for the rest of the
// day. The flag persists until a manager disables it again.
func (s *DefaultRulesService) OpenNightSlots(ctx context.Context, companyCode string) (*models.DispatchRules, error) {
	r, err := s.Resolve(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	r.LastSlotEnabled = true
	if err := s.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}
