package services

import (
	"fmt"
	"sort"
	"strings"

	"carcare-marketplace-server/config"
	"carcare-marketplace-server/models"
	"carcare-marketplace-server/utils"
)

// Sort modes for provider matching
const (
	MatchSortDistance = "distance"
	MatchSortPrice    = "price"
	MatchSortRating   = "rating"
)

// FindProvidersRequest carries the customer's search parameters
type FindProvidersRequest struct {
	ServiceType string
	Lat         float64
	Lng         float64
	RadiusKm    float64 // 0 means use the configured default
	Sort        string  // distance (default), price, rating
}

// ProviderMatch is one search result with its derived ranking fields
type ProviderMatch struct {
	Provider   models.Provider `json:"provider"`
	DistanceKm float64         `json:"distance_km"`
	PriceMinor int64           `json:"price_minor"` // 0 when the provider has no listed price
	EtaMinutes int             `json:"eta_minutes"`
}

// CatalogService matches customer searches against the provider roster
type CatalogService struct {
	store Store
	cfg   config.MatchingConfig
}

func NewCatalogService(store Store, cfg config.MatchingConfig) *CatalogService {
	return &CatalogService{store: store, cfg: cfg}
}

// FindProviders returns approved, available providers that offer the service
// within the search radius, sorted by the requested mode. Providers without a
// known location are excluded; providers without a listed price still match
// but sort last under price ordering.
func (s *CatalogService) FindProviders(req FindProvidersRequest) ([]ProviderMatch, error) {
	if !utils.IsLocationValid(req.Lat, req.Lng) {
		return nil, fmt.Errorf("%w: invalid coordinates", ErrValidation)
	}
	serviceType := strings.TrimSpace(req.ServiceType)
	if serviceType == "" {
		return nil, fmt.Errorf("%w: service_type is required", ErrValidation)
	}

	radius := req.RadiusKm
	if radius <= 0 {
		radius = s.cfg.DefaultRadiusKm
	}
	if radius > s.cfg.MaxRadiusKm {
		radius = s.cfg.MaxRadiusKm
	}

	sortMode := req.Sort
	switch sortMode {
	case "", MatchSortDistance:
		sortMode = MatchSortDistance
	case MatchSortPrice, MatchSortRating:
	default:
		return nil, fmt.Errorf("%w: unknown sort %q", ErrValidation, req.Sort)
	}

	providers, err := s.store.ListMatchableProviders()
	if err != nil {
		return nil, err
	}

	matches := make([]ProviderMatch, 0, len(providers))
	for i := range providers {
		p := &providers[i]
		if !p.HasLocation() {
			continue
		}
		price, offered := s.offeredPrice(p, serviceType)
		if !offered {
			continue
		}
		dist := utils.HaversineDistance(req.Lat, req.Lng, *p.CurrentLat, *p.CurrentLng)
		if dist > radius {
			continue
		}
		matches = append(matches, ProviderMatch{
			Provider:   *p,
			DistanceKm: dist,
			PriceMinor: price,
			EtaMinutes: utils.CalculateETA(dist),
		})
	}

	sortMatches(matches, sortMode)
	return matches, nil
}

// offeredPrice reports whether the provider offers the service and at what
// price. Under contains matching a provider row matches when either name
// contains the other, case-insensitively.
func (s *CatalogService) offeredPrice(p *models.Provider, serviceType string) (int64, bool) {
	want := strings.ToLower(serviceType)
	for _, svc := range p.Services {
		have := strings.ToLower(svc.ServiceType)
		if have == want {
			return svc.PriceMinor, true
		}
		if s.cfg.ServiceMatchMode == config.MatchModeContains &&
			(strings.Contains(have, want) || strings.Contains(want, have)) {
			return svc.PriceMinor, true
		}
	}
	return 0, false
}

func sortMatches(matches []ProviderMatch, mode string) {
	switch mode {
	case MatchSortPrice:
		sort.SliceStable(matches, func(i, j int) bool {
			pi, pj := matches[i].PriceMinor, matches[j].PriceMinor
			// Unpriced providers sort last
			if (pi == 0) != (pj == 0) {
				return pj == 0
			}
			if pi != pj {
				return pi < pj
			}
			return matches[i].DistanceKm < matches[j].DistanceKm
		})
	case MatchSortRating:
		sort.SliceStable(matches, func(i, j int) bool {
			ri, rj := matches[i].Provider.Rating, matches[j].Provider.Rating
			if ri != rj {
				return ri > rj
			}
			return matches[i].DistanceKm < matches[j].DistanceKm
		})
	default:
		sort.SliceStable(matches, func(i, j int) bool {
			return matches[i].DistanceKm < matches[j].DistanceKm
		})
	}
}
