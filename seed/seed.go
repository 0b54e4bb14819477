// Package seed holds the sample project catalogue.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/getstreetcred/backend/models"
	"github.com/getstreetcred/backend/storage"
	"gopkg.in/yaml.v3"
)

//go:embed projects.yaml
var catalogue []byte

type catalogueFile struct {
	Projects []catalogueProject `yaml:"projects"`
}

type catalogueProject struct {
	Name           string `yaml:"name"`
	Location       string `yaml:"location"`
	Description    string `yaml:"description"`
	ImageURL       string `yaml:"imageUrl"`
	Category       string `yaml:"category"`
	CompletionYear int    `yaml:"completionYear"`
}

// Projects returns the embedded catalogue
func Projects() ([]models.ProjectInput, error) {
	return Parse(catalogue)
}

// Parse decodes a catalogue document
func Parse(data []byte) ([]models.ProjectInput, error) {
	var file catalogueFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalogue: %w", err)
	}

	out := make([]models.ProjectInput, 0, len(file.Projects))
	for i, p := range file.Projects {
		if p.Name == "" || p.Category == "" || p.CompletionYear == 0 {
			return nil, fmt.Errorf("catalogue entry %d: name, category and completionYear are required", i)
		}
		out = append(out, models.ProjectInput{
			Name:           p.Name,
			Location:       p.Location,
			Description:    p.Description,
			ImageURL:       p.ImageURL,
			Category:       p.Category,
			CompletionYear: p.CompletionYear,
		})
	}
	return out, nil
}

// Insert creates every catalogue project, owned by ownerID when set. The
// storage interface has no transactions, so when a create fails the
// projects already inserted are deleted again and nothing is returned.
func Insert(ctx context.Context, store storage.Storage, ownerID *string) ([]models.Project, error) {
	inputs, err := Projects()
	if err != nil {
		return nil, err
	}

	created := make([]models.Project, 0, len(inputs))
	for _, in := range inputs {
		p, err := store.CreateProject(ctx, in, ownerID)
		if err != nil {
			err = fmt.Errorf("seed %q: %w", in.Name, err)
			return nil, errors.Join(err, rollback(context.WithoutCancel(ctx), store, created))
		}
		created = append(created, p)
	}
	return created, nil
}

func rollback(ctx context.Context, store storage.Storage, created []models.Project) error {
	var errs []error
	for _, p := range created {
		if err := store.DeleteProject(ctx, p.ID); err != nil {
			errs = append(errs, fmt.Errorf("roll back %q: %w", p.Name, err))
		}
	}
	return errors.Join(errs...)
}
