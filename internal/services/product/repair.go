package product

import (
	"context"

	"github.com/hasakeplay/cms-backend/internal/core/domain"
	"github.com/hasakeplay/cms-backend/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Repair recomputes the lineage of the node itself from its current parent
// and then of every descendant. It returns how many documents changed.
func (s *service) Repair(ctx context.Context, id string) (int, error) {
	oid, err := parseID(id)
	if err != nil {
		return 0, err
	}
	node, err := s.repo.FindByID(ctx, oid)
	if err != nil {
		return 0, domain.Internal("Failed to load product", err)
	}
	if node == nil {
		return 0, errNotFound
	}

	var parent *models.ProductNode
	if !node.IsRoot() {
		if parent, err = s.loadParent(ctx, node.Parent.Hex()); err != nil {
			return 0, err
		}
	}

	repaired := 0
	oldPath, oldAncestors := node.Path, node.Ancestors
	applyLineage(node, parent)
	if node.Path != oldPath || !sameAncestors(node.Ancestors, oldAncestors) {
		if err := s.repo.UpdateLineage(ctx, node.ID, node.Ancestors, node.Path); err != nil {
			return 0, domain.Internal("Failed to repair product", err)
		}
		repaired++
	}

	n, err := s.repairFrom(ctx, node)
	if err != nil {
		return repaired, err
	}
	repaired += n
	logrus.WithFields(logrus.Fields{"id": id, "repaired": repaired}).Info("Product lineage repaired")
	return repaired, nil
}

// repairFrom walks the subtree below root breadth first and rewrites every
// descendant whose ancestors or path no longer match its parent.
func (s *service) repairFrom(ctx context.Context, root *models.ProductNode) (int, error) {
	repaired := 0
	seen := map[primitive.ObjectID]bool{root.ID: true}
	queue := []*models.ProductNode{root}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return repaired, err
		}
		parent := queue[0]
		queue = queue[1:]

		children, err := s.repo.Children(ctx, parent.ID, "")
		if err != nil {
			return repaired, domain.Internal("Failed to load children", err)
		}
		for i := range children {
			child := &children[i]
			if seen[child.ID] {
				continue
			}
			seen[child.ID] = true

			wantPath := parent.Path + "/" + child.Slug
			wantAncestors := make([]models.AncestorRef, 0, len(parent.Ancestors)+1)
			wantAncestors = append(wantAncestors, parent.Ancestors...)
			wantAncestors = append(wantAncestors, parent.Summary())

			if child.Path != wantPath || !sameAncestors(child.Ancestors, wantAncestors) {
				if err := s.repo.UpdateLineage(ctx, child.ID, wantAncestors, wantPath); err != nil {
					return repaired, domain.Internal("Failed to repair descendant", err)
				}
				child.Path = wantPath
				child.Ancestors = wantAncestors
				repaired++
			}
			queue = append(queue, child)
		}
	}
	return repaired, nil
}

func sameAncestors(a, b []models.AncestorRef) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
