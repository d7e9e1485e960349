package services

import (
	"sort"

	"unilms_go/apperrors"
	"unilms_go/database"
	"unilms_go/models"

	"github.com/google/uuid"
)

// cycleDetected builds the rejection for hierarchy writes that would loop.
// The detail code lets clients distinguish it from other validation errors.
func cycleDetected(message string) *apperrors.Error {
	return apperrors.E(apperrors.KindValidation, "%s", message).
		WithDetails(map[string]interface{}{"reason": "cycle_detected"})
}

// ValidateUnitParent rejects parent assignments that would close a cycle in
// the organization hierarchy. Walks the ancestor chain of the proposed
// parent; visiting unitID means the assignment loops.
func ValidateUnitParent(unitID uuid.UUID, parentID *uuid.UUID) error {
	if parentID == nil {
		return nil
	}
	if *parentID == unitID {
		return cycleDetected("an organization unit cannot be its own parent")
	}

	seen := map[uuid.UUID]bool{unitID: true}
	cursor := *parentID
	for {
		if seen[cursor] {
			return cycleDetected("parent assignment would create a cycle in the organization hierarchy")
		}
		seen[cursor] = true

		var parent models.OrganizationUnit
		if err := database.DB.Select("id", "parent_id").First(&parent, "id = ?", cursor).Error; err != nil {
			return apperrors.FromDB(err, "organization unit")
		}
		if parent.ParentID == nil {
			return nil
		}
		cursor = *parent.ParentID
	}
}

// UnitTreeNode is one node of the organization tree response.
type UnitTreeNode struct {
	ID       uuid.UUID            `json:"id"`
	Code     string               `json:"code"`
	Name     models.LocalizedText `json:"name"`
	Type     string               `json:"type"`
	IsActive bool                 `json:"is_active"`
	Children []*UnitTreeNode      `json:"children"`
}

// OrganizationTree loads all units and assembles the hierarchy in memory.
// Children are sorted by code at every level. Inactive units are filtered
// out unless includeInactive is set; active descendants of a filtered-out
// unit are promoted to roots.
func OrganizationTree(includeInactive bool) ([]*UnitTreeNode, error) {
	var units []models.OrganizationUnit
	if err := database.DB.Find(&units).Error; err != nil {
		return nil, apperrors.FromDB(err, "organization unit")
	}

	nodes := make(map[uuid.UUID]*UnitTreeNode, len(units))
	for _, u := range units {
		if !includeInactive && !u.IsActive {
			continue
		}
		nodes[u.ID] = &UnitTreeNode{
			ID:       u.ID,
			Code:     u.Code,
			Name:     u.Name,
			Type:     u.Type,
			IsActive: u.IsActive,
			Children: []*UnitTreeNode{},
		}
	}

	var roots []*UnitTreeNode
	for _, u := range units {
		node, ok := nodes[u.ID]
		if !ok {
			continue
		}
		if u.ParentID != nil {
			if parent, ok := nodes[*u.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	var sortLevel func(level []*UnitTreeNode)
	sortLevel = func(level []*UnitTreeNode) {
		sort.Slice(level, func(i, j int) bool { return level[i].Code < level[j].Code })
		for _, n := range level {
			sortLevel(n.Children)
		}
	}
	sortLevel(roots)
	return roots, nil
}

// UnitDescendantIDs returns the unit and every unit below it. Used to scope
// staff and program listings to a subtree.
func UnitDescendantIDs(unitID uuid.UUID) ([]uuid.UUID, error) {
	var units []models.OrganizationUnit
	if err := database.DB.Select("id", "parent_id").Find(&units).Error; err != nil {
		return nil, apperrors.FromDB(err, "organization unit")
	}

	childrenOf := make(map[uuid.UUID][]uuid.UUID, len(units))
	for _, u := range units {
		if u.ParentID != nil {
			childrenOf[*u.ParentID] = append(childrenOf[*u.ParentID], u.ID)
		}
	}

	var result []uuid.UUID
	queue := []uuid.UUID{unitID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		result = append(result, id)
		queue = append(queue, childrenOf[id]...)
	}
	return result, nil
}
