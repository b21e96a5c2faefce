package seed

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"playhub/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed catalog.yml
var defaultCatalog []byte

// Catalog is the curated starter content for a fresh install.
type Catalog struct {
	Categories []CatalogCategory `yaml:"categories"`
	Games      []CatalogGame     `yaml:"games"`
	Pages      []CatalogPage     `yaml:"pages"`
}

type CatalogCategory struct {
	Name string `yaml:"name"`
	Icon string `yaml:"icon"`
}

type CatalogGame struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Rating      float64  `yaml:"rating"`
	Icon        string   `yaml:"icon"`
	Video       string   `yaml:"video"`
	URL         string   `yaml:"url"`
	Published   bool     `yaml:"published"`
	Trending    bool     `yaml:"trending"`
	Categories  []string `yaml:"categories"`
}

type CatalogPage struct {
	Title     string `yaml:"title"`
	Slug      string `yaml:"slug"`
	HTML      string `yaml:"html"`
	Published bool   `yaml:"published"`
}

// DefaultCatalog returns the catalog embedded in the binary.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(bytes.NewReader(defaultCatalog))
}

// LoadCatalogFile reads a catalog from a YAML file.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ParseCatalog(f)
}

// ParseCatalog decodes a catalog and checks that every game's categories are declared.
func ParseCatalog(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var catalog Catalog
	if err := dec.Decode(&catalog); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	declared := make(map[string]bool, len(catalog.Categories))
	for _, c := range catalog.Categories {
		if c.Name == "" {
			return nil, errors.New("catalog category without a name")
		}
		declared[c.Name] = true
	}
	for _, g := range catalog.Games {
		if g.Title == "" {
			return nil, errors.New("catalog game without a title")
		}
		for _, name := range g.Categories {
			if !declared[name] {
				return nil, fmt.Errorf("game %q references undeclared category %q", g.Title, name)
			}
		}
	}
	for _, p := range catalog.Pages {
		if p.Slug == "" {
			return nil, fmt.Errorf("page %q has no slug", p.Title)
		}
	}
	return &catalog, nil
}

// ApplyCatalog writes the catalog. Categories match by name, games by title and pages
// by slug, so applying the same catalog twice changes nothing.
func ApplyCatalog(db *gorm.DB, catalog *Catalog) error {
	return db.Transaction(func(tx *gorm.DB) error {
		byName := make(map[string]*models.Category, len(catalog.Categories))
		for _, item := range catalog.Categories {
			category := models.Category{Name: item.Name, Icon: item.Icon}
			if err := tx.Where("name = ?", item.Name).Attrs(category).FirstOrCreate(&category).Error; err != nil {
				return fmt.Errorf("seed category %q: %w", item.Name, err)
			}
			byName[item.Name] = &category
		}

		for _, item := range catalog.Games {
			var existing models.Game
			err := tx.Where("title = ?", item.Title).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("look up game %q: %w", item.Title, err)
			}

			game := models.Game{
				Title:         item.Title,
				Description:   item.Description,
				Rating:        item.Rating,
				Icon:          item.Icon,
				Video:         item.Video,
				URL:           item.URL,
				PublishStatus: item.Published,
				IsTrending:    item.Trending,
			}
			if item.Published {
				now := time.Now()
				game.PublishedAt = &now
			}
			for _, name := range item.Categories {
				game.Categories = append(game.Categories, *byName[name])
			}
			if err := tx.Omit("Categories.*").Create(&game).Error; err != nil {
				return fmt.Errorf("seed game %q: %w", item.Title, err)
			}
		}

		for _, item := range catalog.Pages {
			page := models.Page{
				Title:         item.Title,
				Slug:          item.Slug,
				HTMLContent:   item.HTML,
				PublishStatus: item.Published,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "slug"}},
				DoUpdates: clause.AssignmentColumns([]string{"title", "html_content", "publish_status", "updated_at"}),
			}).Create(&page).Error; err != nil {
				return fmt.Errorf("seed page %q: %w", item.Slug, err)
			}
		}
		return nil
	})
}
