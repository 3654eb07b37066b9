package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/CalPolySEC/wrath-ctf-framework/internal/config"
	"github.com/CalPolySEC/wrath-ctf-framework/internal/model"
	"github.com/CalPolySEC/wrath-ctf-framework/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LoaderChallengeStore is the slice of the challenge repository the
// loader needs to reseed.
type LoaderChallengeStore interface {
	FindByTitle(title string) (*model.Challenge, error)
	Save(chal *model.Challenge) error
	ReplacePrerequisites(chal *model.Challenge, prereqs []*model.Challenge) error
	ReplaceResources(chal *model.Challenge, resources []model.Resource) error
}

// problemManifest is one category's problems.json. When Ordered is
// set and a problem declares no explicit prerequisites, each problem
// implicitly requires the previous one in the file: numeric level
// ordering, expressed through the prerequisite graph.
type problemManifest struct {
	Ordered  bool           `json:"ordered"`
	Problems []problemEntry `json:"problems"`
}

type problemEntry struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Points        int      `json:"points"`
	Flag          string   `json:"flag"`
	Prerequisites []string `json:"prerequisites"`
	Resources     []string `json:"resources"`
}

// LoaderService reads the per-category challenge manifests, hashes
// the plaintext flags once, and upserts challenges, prerequisites and
// resource artifacts. The plaintext flag never leaves this function:
// not persisted, not logged.
type LoaderService struct {
	challenges LoaderChallengeStore
	storage    *StorageService
	cfg        *config.CTFConfig
}

func NewLoaderService(challenges LoaderChallengeStore, storage *StorageService, cfg *config.CTFConfig) *LoaderService {
	return &LoaderService{challenges: challenges, storage: storage, cfg: cfg}
}

func (s *LoaderService) LoadChallenges(ctx context.Context) error {
	type pending struct {
		chal    *model.Challenge
		prereqs []string
	}
	var all []pending

	for _, category := range s.cfg.Categories {
		manifestPath := filepath.Join(s.cfg.ChallengeDir, category, "problems.json")
		data, err := os.ReadFile(manifestPath)
		if err != nil {
			return fmt.Errorf("reading %s: %w", manifestPath, err)
		}

		var manifest problemManifest
		if err := json.Unmarshal(data, &manifest); err != nil {
			return fmt.Errorf("%s was malformed: %w", manifestPath, err)
		}

		var prevTitle string
		for _, p := range manifest.Problems {
			if p.Title == "" || p.Flag == "" {
				return fmt.Errorf("%s: every problem needs a title and a flag", manifestPath)
			}

			chal, err := s.upsertChallenge(category, p)
			if err != nil {
				return err
			}

			prereqs := p.Prerequisites
			if len(prereqs) == 0 && manifest.Ordered && prevTitle != "" {
				prereqs = []string{prevTitle}
			}
			all = append(all, pending{chal: chal, prereqs: prereqs})
			prevTitle = p.Title

			if err := s.loadResources(ctx, chal, category, p.Resources); err != nil {
				return err
			}
		}
	}

	// Second pass: every referenced prerequisite exists by now.
	for _, p := range all {
		prereqs := make([]*model.Challenge, 0, len(p.prereqs))
		for _, title := range p.prereqs {
			pre, err := s.challenges.FindByTitle(title)
			if err != nil {
				return fmt.Errorf("challenge %q requires unknown challenge %q", p.chal.Title, title)
			}
			prereqs = append(prereqs, pre)
		}
		if err := s.challenges.ReplacePrerequisites(p.chal, prereqs); err != nil {
			return err
		}
	}

	logger.Log.Info("challenge load complete", zap.Int("challenges", len(all)))
	return nil
}

func (s *LoaderService) upsertChallenge(category string, p problemEntry) (*model.Challenge, error) {
	chal, err := s.challenges.FindByTitle(p.Title)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		chal = &model.Challenge{Title: p.Title}
	} else if err != nil {
		return nil, err
	}

	chal.Description = p.Description
	chal.Category = category
	chal.Points = p.Points
	chal.FlagHash = HashFlag(p.Flag)

	if err := s.challenges.Save(chal); err != nil {
		return nil, err
	}
	return chal, nil
}

func (s *LoaderService) loadResources(ctx context.Context, chal *model.Challenge, category string, names []string) error {
	resources := make([]model.Resource, 0, len(names))
	for _, name := range names {
		localPath := filepath.Join(s.cfg.ChallengeDir, category, name)
		key := fmt.Sprintf("%s/%s-%s", category, uuid.New().String(), name)
		if err := s.storage.UploadFile(ctx, key, localPath, "application/octet-stream"); err != nil {
			return fmt.Errorf("uploading resource %s for %q: %w", name, chal.Title, err)
		}
		resources = append(resources, model.Resource{Name: name, ObjectKey: key})
	}
	if len(resources) == 0 {
		return nil
	}
	return s.challenges.ReplaceResources(chal, resources)
}
