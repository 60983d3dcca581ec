// Package catalog holds the static, read-only skin condition reference data.
package catalog

import (
	"fmt"
	"sort"
	"strings"

	apperrors "go-skin-inspector/internal/errors"
	"go-skin-inspector/pkg/models"

	"github.com/arbovm/levenshtein"
)

// Catalog is an ordered, immutable collection of conditions looked up by id.
// Every accessor returns copies.
type Catalog struct {
	conditions []models.Condition
	byID       map[string]int
}

// New builds a catalog, rejecting empty or duplicate ids.
func New(conditions []models.Condition) (*Catalog, error) {
	c := &Catalog{
		conditions: make([]models.Condition, 0, len(conditions)),
		byID:       make(map[string]int, len(conditions)),
	}
	for _, cond := range conditions {
		if strings.TrimSpace(cond.ID) == "" {
			return nil, fmt.Errorf("condition %q has an empty id", cond.Name)
		}
		if _, dup := c.byID[cond.ID]; dup {
			return nil, fmt.Errorf("duplicate condition id %q", cond.ID)
		}
		c.byID[cond.ID] = len(c.conditions)
		c.conditions = append(c.conditions, cond.Clone())
	}
	return c, nil
}

// Default returns the built-in reference catalog.
func Default() *Catalog {
	c, err := New(defaultConditions)
	if err != nil {
		panic(err)
	}
	return c
}

// Len returns the number of conditions
func (c *Catalog) Len() int {
	return len(c.conditions)
}

// At returns the condition at position i in catalog order.
func (c *Catalog) At(i int) models.Condition {
	return c.conditions[i].Clone()
}

// All returns every condition in catalog order
func (c *Catalog) All() []models.Condition {
	out := make([]models.Condition, len(c.conditions))
	for i, cond := range c.conditions {
		out[i] = cond.Clone()
	}
	return out
}

// Get looks up a condition by id
func (c *Catalog) Get(id string) (models.Condition, error) {
	i, ok := c.byID[strings.TrimSpace(id)]
	if !ok {
		return models.Condition{}, apperrors.NewNotFoundError(fmt.Sprintf("condition %q not found", id), nil)
	}
	return c.conditions[i].Clone(), nil
}

// FilterByRisk returns the conditions with the given risk level
func (c *Catalog) FilterByRisk(risk models.Risk) []models.Condition {
	var out []models.Condition
	for _, cond := range c.conditions {
		if cond.Risk == risk {
			out = append(out, cond.Clone())
		}
	}
	return out
}

// Search returns conditions whose id, name or any symptom contains the query,
// case-insensitively. An empty query matches everything.
func (c *Catalog) Search(query string) []models.Condition {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return c.All()
	}
	var out []models.Condition
	for _, cond := range c.conditions {
		if matches(cond, q) {
			out = append(out, cond.Clone())
		}
	}
	return out
}

func matches(cond models.Condition, q string) bool {
	if strings.Contains(cond.ID, q) || strings.Contains(strings.ToLower(cond.Name), q) {
		return true
	}
	for _, s := range cond.Symptoms {
		if strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}

// Suggest returns up to limit condition ids whose id or name is within a
// small edit distance of the query, closest first. It is meant for
// "did you mean" hints after a failed lookup.
func (c *Catalog) Suggest(query string, limit int) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || limit <= 0 {
		return nil
	}
	maxDist := len(q) / 3
	if maxDist < 2 {
		maxDist = 2
	}

	type candidate struct {
		id   string
		dist int
		pos  int
	}
	var found []candidate
	for i, cond := range c.conditions {
		d := levenshtein.Distance(q, cond.ID)
		if nd := levenshtein.Distance(q, strings.ToLower(cond.Name)); nd < d {
			d = nd
		}
		if d <= maxDist {
			found = append(found, candidate{id: cond.ID, dist: d, pos: i})
		}
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].dist != found[j].dist {
			return found[i].dist < found[j].dist
		}
		return found[i].pos < found[j].pos
	})
	if len(found) > limit {
		found = found[:limit]
	}
	out := make([]string, len(found))
	for i, f := range found {
		out[i] = f.id
	}
	return out
}
