package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/bonuslab/loyalty-api/internal/pkg/validator"
)

// SalesCenter is a till/register inside a branch.
type SalesCenter struct {
	ID   int    `json:"id" validate:"required,gt=0"`
	Name string `json:"name" validate:"required"`
}

// Branch is a physical store location participating in the program.
type Branch struct {
	ID           int           `json:"id" validate:"required,gt=0"`
	Name         string        `json:"name" validate:"required"`
	Domain       string        `json:"domain"`
	SalesCenters []SalesCenter `json:"sales_centers" validate:"dive"`
}

// Branches is the validated branch catalog loaded at startup and passed
// into the services that need it. It replaces mutable in-source tables.
type Branches struct {
	byID map[int]Branch
	list []Branch
}

// LoadBranches reads and validates the branch catalog from a JSON file.
func LoadBranches(path string) (*Branches, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read branches file: %w", err)
	}

	var list []Branch
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse branches file: %w", err)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("branches file %s contains no branches", path)
	}

	byID := make(map[int]Branch, len(list))
	for _, b := range list {
		if errs := validator.Validate(b); errs != nil {
			return nil, fmt.Errorf("invalid branch %d: %v", b.ID, errs)
		}
		if _, dup := byID[b.ID]; dup {
			return nil, fmt.Errorf("duplicate branch id %d", b.ID)
		}
		byID[b.ID] = b
	}

	return &Branches{byID: byID, list: list}, nil
}

// Get returns the branch with the given id.
func (b *Branches) Get(id int) (Branch, bool) {
	br, ok := b.byID[id]
	return br, ok
}

// HasSalesCenter reports whether the branch exists and contains the
// given sales center.
func (b *Branches) HasSalesCenter(branchID, salesCenterID int) bool {
	br, ok := b.byID[branchID]
	if !ok {
		return false
	}
	for _, sc := range br.SalesCenters {
		if sc.ID == salesCenterID {
			return true
		}
	}
	return false
}

// List returns all branches in file order.
func (b *Branches) List() []Branch {
	return b.list
}
