// Package catalog loads the project catalog that drives collection.
//
// A catalog is a YAML document listing software projects, each optionally
// carrying one or more source repository URLs. The collector only consumes
// the repository URLs; everything else is carried through untouched for the
// tools that render the catalog.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Catalog is the root of a catalog document.
type Catalog struct {
	Items []Item `yaml:"items"`
}

// Item is one project entry in the catalog.
type Item struct {
	Name         string       `yaml:"name"`
	Description  string       `yaml:"description,omitempty"`
	HomepageURL  string       `yaml:"homepage_url,omitempty"`
	Repositories []Repository `yaml:"repositories,omitempty"`
}

// Repository is a source repository reference attached to an item.
type Repository struct {
	URL     string `yaml:"url"`
	Primary bool   `yaml:"primary,omitempty"`
}

// Load reads and parses a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes a catalog from YAML.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return &c, nil
}

// RepositoryURLs returns every repository URL in the catalog, in catalog
// order. URLs are returned as written, duplicates included; deduplication is
// the consumer's concern.
func (c *Catalog) RepositoryURLs() []string {
	var urls []string
	for _, item := range c.Items {
		for _, repo := range item.Repositories {
			if repo.URL != "" {
				urls = append(urls, repo.URL)
			}
		}
	}
	return urls
}
