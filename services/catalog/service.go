package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"time"

	catalogRepo "loadline/database/repository/catalog"
	"loadline/models"
	"loadline/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const cacheTTL = 10 * time.Minute

// Service is the distributor catalog used by booking and delivery flows.
type Service interface {
	GetDistributor(ctx context.Context, companyCode, code string) (*models.Distributor, error)
	ListDistributors(ctx context.Context, companyCode string) ([]models.Distributor, error)
	UpsertDistributor(ctx context.Context, d *models.Distributor) error
}

type DefaultCatalogService struct {
	Repo  catalogRepo.Repository
	Cache *redis.Client
}

func NewDefaultCatalogService(repo catalogRepo.Repository) *DefaultCatalogService {
	return &DefaultCatalogService{Repo: repo, Cache: utils.GetCatalogCacheClient()}
}

func cacheKey(companyCode, code string) string {
	return fmt.Sprintf("distributor:%s:%s", companyCode, code)
}

func (s *DefaultCatalogService) GetDistributor(ctx context.Context, companyCode, code string) (*models.Distributor, error) {
	logger := utils.GetLogger()

	if s.Cache != nil {
		if raw, err := s.Cache.Get(ctx, cacheKey(companyCode, code)).Result(); err == nil {
			var d models.Distributor
			if jerr := json.Unmarshal([]byte(raw), &d); jerr == nil {
				return &d, nil
			}
		}
	}

	d, err := s.Repo.Get(ctx, companyCode, code)
	if err != nil {
		return nil, err
	}
	if d.Location == nil {
		if p, ok := CoordinatesFromMapURL(d.MapURL); ok {
			d.Location = p
		}
	}

	if s.Cache != nil {
		if raw, jerr := json.Marshal(d); jerr == nil {
			if cerr := s.Cache.Set(ctx, cacheKey(companyCode, code), raw, cacheTTL).Err(); cerr != nil {
				logger.Warn("catalog cache set failed", zap.String("code", code), zap.Error(cerr))
			}
		}
	}
	return d, nil
}

func (s *DefaultCatalogService) ListDistributors(ctx context.Context, companyCode string) ([]models.Distributor, error) {
	return s.Repo.List(ctx, companyCode)
}

func (s *DefaultCatalogService) UpsertDistributor(ctx context.Context, d *models.Distributor) error {
	if d.CompanyCode == "" || d.Code == "" {
		return fmt.Errorf("companyCode and code required")
	}
	if err := s.Repo.Upsert(ctx, d); err != nil {
		return err
	}
	if s.Cache != nil {
		_ = s.Cache.Del(ctx, cacheKey(d.CompanyCode, d.Code)).Err()
	}
	return nil
}

var mapURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`@(-?\d+\.\d+),(-?\d+\.\d+)`),
	regexp.MustCompile(`[?&]q=(-?\d+\.\d+),(-?\d+\.\d+)`),
	regexp.MustCompile(`[?&]query=(-?\d+\.\d+),(-?\d+\.\d+)`),
}

// CoordinatesFromMapURL extracts a coordinate pair from a shared maps link.
// Records imported from spreadsheets often carry only the link.
func CoordinatesFromMapURL(url string) (*models.GeoPoint, bool) {
	if url == "" {
		return nil, false
	}
	for _, re := range mapURLPatterns {
		m := re.FindStringSubmatch(url)
		if m == nil {
			continue
		}
		lat, err1 := strconv.ParseFloat(m[1], 64)
		lng, err2 := strconv.ParseFloat(m[2], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		p := &models.GeoPoint{Lat: lat, Lng: lng}
		if p.Valid() {
			return p, true
		}
	}
	return nil, false
}
