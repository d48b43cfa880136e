package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jdon/coffeechat/internal/app/models"
	"github.com/jdon/coffeechat/internal/app/repositories"
	"github.com/jdon/coffeechat/internal/pkg/apperrors"
)

// DefaultJobCategories maps each top-level category to its children
var DefaultJobCategories = []struct {
	Name     string
	Children []string
}{
	{Name: "Development", Children: []string{"Backend", "Frontend", "Mobile", "DevOps", "Data Engineering"}},
	{Name: "Design", Children: []string{"Product Design", "UX Research"}},
	{Name: "Product", Children: []string{"Product Management", "QA"}},
}

// DemoMembers are created in development mode so the API can be exercised without a signup flow
var DemoMembers = []models.Member{
	{Email: "host@coffeechat.dev", Nickname: "host"},
	{Email: "guest@coffeechat.dev", Nickname: "guest"},
}

// CreateDefaultData creates the default job categories if they don't exist.
// Category creation is idempotent by name.
func CreateDefaultData(ctx context.Context, repos *repositories.Repositories, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating default data (job categories)...")
	var finalErr error // collect errors without stopping the process

	for _, group := range DefaultJobCategories {
		parent := &models.JobCategory{Name: group.Name}
		parentID, err := repos.JobCategories.Create(ctx, parent)
		if err != nil {
			lgr.Error().Err(err).Str("category", group.Name).Msg("Error creating job category")
			finalErr = errors.Join(finalErr, err)
			continue
		}

		for _, name := range group.Children {
			child := &models.JobCategory{Name: name, ParentID: &parentID}
			if _, err := repos.JobCategories.Create(ctx, child); err != nil {
				lgr.Error().Err(err).Str("category", name).Msg("Error creating job category")
				finalErr = errors.Join(finalErr, err)
			}
		}
	}

	if finalErr != nil {
		return fmt.Errorf("default data creation finished with errors: %w", finalErr)
	}
	lgr.Info().Msg("Default data check/creation finished.")
	return nil
}

// CreateDemoMembers inserts DemoMembers, skipping ones that already exist
func CreateDemoMembers(ctx context.Context, members repositories.MemberStore, lgr zerolog.Logger) ([]int64, error) {
	ids := make([]int64, 0, len(DemoMembers))
	for _, m := range DemoMembers {
		member := m
		id, err := members.Create(ctx, &member)
		if errors.Is(err, apperrors.ErrConflict) {
			lgr.Debug().Str("email", member.Email).Msg("Demo member already exists")
			continue
		}
		if err != nil {
			return ids, fmt.Errorf("failed to create demo member %s: %w", member.Email, err)
		}
		lgr.Info().Int64("memberID", id).Str("email", member.Email).Msg("Demo member created")
		ids = append(ids, id)
	}
	return ids, nil
}
