// File: internal/prop/service.go
package prop

import (
	"context"
	"strings"
	"time"

	"propspot_backend/internal/common"
	"propspot_backend/internal/config"
	"propspot_backend/internal/docstore"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

// Service defines the business operations on props.
type Service interface {
	Create(ctx context.Context, p Prop) (string, error)
	Read(ctx context.Context, id string) (*Prop, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) []Prop
	Search(ctx context.Context, query string) ([]Prop, error)
	Find(ctx context.Context, filters ...docstore.Filter) ([]Prop, error)
	Subscribe() (<-chan []Prop, func())
}

// ServiceImplementation implements Service over a repository and the collection mirror.
type ServiceImplementation struct {
	repo      Repository
	mirror    *Mirror
	prefilter bool
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a new prop service.
func NewService(repo Repository, mirror *Mirror, cfg *config.Config, logger *zap.Logger) *ServiceImplementation {
	return &ServiceImplementation{
		repo:      repo,
		mirror:    mirror,
		prefilter: cfg.SearchRemotePrefilter,
		logger:    logger.Named("prop_service"),
		now:       time.Now,
	}
}

// Create inserts the prop and returns the store-assigned id. The mirror picks the
// new document up from the subscription, not from this call.
func (s *ServiceImplementation) Create(ctx context.Context, p Prop) (string, error) {
	p.ID = ""
	if strings.TrimSpace(p.AssetTag) == "" {
		p.AssetTag = NewAssetTag(p.Name)
	}
	if p.Attributes == nil {
		p.Attributes = []PropAttribute{}
	}
	p.Timestamp = s.now().UTC()

	id, err := s.repo.Create(ctx, &p)
	if err != nil {
		s.logger.Error("Failed to create prop", zap.String("name", p.Name), zap.Error(err))
		return "", mapStoreErr(err)
	}
	s.logger.Info("Prop created", zap.String("id", id), zap.String("assetTag", p.AssetTag))
	return id, nil
}

// Read is a point lookup that bypasses the mirror. A missing prop is (nil, nil).
func (s *ServiceImplementation) Read(ctx context.Context, id string) (*Prop, error) {
	if id == "" {
		return nil, nil
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return p, nil
}

// Update merges fields into an existing prop. Fields not named are left unchanged.
func (s *ServiceImplementation) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	if err := CheckUpdateKeys(keys); err != nil {
		return common.ErrBadRequest.WithDetails(err.Error())
	}
	if len(fields) == 0 {
		return common.ErrBadRequest.WithDetails("No fields to update.")
	}

	if err := s.repo.Update(ctx, id, fields); err != nil {
		if errorsIsNotFound(err) {
			return common.ErrNotFound.WithDetails("Prop not found.")
		}
		s.logger.Error("Failed to update prop", zap.String("id", id), zap.Error(err))
		return mapStoreErr(err)
	}
	s.logger.Info("Prop updated", zap.String("id", id), zap.Strings("fields", keys))
	return nil
}

func (s *ServiceImplementation) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete prop", zap.String("id", id), zap.Error(err))
		return mapStoreErr(err)
	}
	s.logger.Info("Prop deleted", zap.String("id", id))
	return nil
}

// List returns the current mirror contents.
func (s *ServiceImplementation) List(_ context.Context) []Prop {
	return s.mirror.Snapshot()
}

// Search runs the substring search over the mirror, optionally narrowing the
// candidates first with an equality query for distinguished terms.
func (s *ServiceImplementation) Search(ctx context.Context, query string) ([]Prop, error) {
	candidates := s.mirror.Snapshot()

	if s.prefilter {
		if filters := PrefilterFor(query); len(filters) > 0 {
			remote, err := s.repo.FindBy(ctx, filters...)
			if err != nil {
				s.logger.Warn("Search pre-filter failed, using full mirror", zap.String("query", query), zap.Error(err))
			} else {
				candidates = narrow(candidates, remote)
			}
		}
	}

	return Search(candidates, query), nil
}

// Find runs an equality query directly against the remote collection.
func (s *ServiceImplementation) Find(ctx context.Context, filters ...docstore.Filter) ([]Prop, error) {
	props, err := s.repo.FindBy(ctx, filters...)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return props, nil
}

func (s *ServiceImplementation) Subscribe() (<-chan []Prop, func()) {
	return s.mirror.Subscribe()
}

// narrow keeps the mirror entries whose ids appear in remote, preserving mirror order.
func narrow(mirror, remote []Prop) []Prop {
	ids := make(map[string]struct{}, len(remote))
	for _, p := range remote {
		ids[p.ID] = struct{}{}
	}
	out := make([]Prop, 0, len(remote))
	for _, p := range mirror {
		if _, ok := ids[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out
}

// NewAssetTag builds a readable tag from the prop name plus six random hex characters.
func NewAssetTag(name string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	base := slug.Make(name)
	if base == "" {
		return "prop-" + suffix
	}
	return base + "-" + suffix
}
