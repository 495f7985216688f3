package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"plantasset/internal/models"
	"plantasset/internal/repository"
)

var (
	ErrAssetNotFound  = errors.New("asset not found")
	ErrDuplicateName  = errors.New("asset name already exists")
	ErrHasChildren    = errors.New("asset has child assets")
	ErrHasMappings    = errors.New("asset has device mappings")
	ErrParentNotFound = errors.New("parent asset not found")
	ErrParentDeleted  = errors.New("parent asset is deleted")
	ErrEmptyName      = errors.New("asset name is required")
)

// TreeNode is one asset with its children, for the hierarchy endpoint.
type TreeNode struct {
	Asset    models.Asset `json:"asset"`
	Children []*TreeNode  `json:"children"`
}

// Hierarchy manages the plant asset tree: plants at the root, equipment at
// the leaves. Deletes are soft so history stays addressable.
type Hierarchy struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

// Create inserts one asset under the given parent. A nil parent makes a root.
func (h *Hierarchy) Create(ctx context.Context, name string, parentID *uuid.UUID) (*models.Asset, error) {
	if h == nil || h.Repo == nil {
		return nil, fmt.Errorf("hierarchy service not initialized")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	existing, err := h.Repo.GetAssetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("check asset name: %w", err)
	}
	if existing != nil && !existing.IsDeleted {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}

	level := 0
	if parentID != nil {
		parent, err := h.Repo.GetAsset(ctx, *parentID)
		if err != nil {
			return nil, fmt.Errorf("load parent: %w", err)
		}
		if parent == nil {
			return nil, ErrParentNotFound
		}
		if parent.IsDeleted {
			return nil, ErrParentDeleted
		}
		level = parent.Level + 1
	}

	item := &models.Asset{
		AssetID:  uuid.New(),
		Name:     name,
		ParentID: parentID,
		Level:    level,
	}
	if err := h.Repo.CreateAsset(ctx, item); err != nil {
		return nil, fmt.Errorf("create asset: %w", err)
	}
	if h.Logger != nil {
		h.Logger.Info("asset created", zap.String("asset_id", item.AssetID.String()), zap.String("name", name), zap.Int("level", level))
	}
	return item, nil
}

// Rename updates the display name, keeping it unique among live assets.
func (h *Hierarchy) Rename(ctx context.Context, assetID uuid.UUID, name string) (*models.Asset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	item, err := h.Repo.GetAsset(ctx, assetID)
	if err != nil {
		return nil, fmt.Errorf("load asset: %w", err)
	}
	if item == nil || item.IsDeleted {
		return nil, ErrAssetNotFound
	}

	existing, err := h.Repo.GetAssetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("check asset name: %w", err)
	}
	if existing != nil && existing.AssetID != assetID && !existing.IsDeleted {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}

	item.Name = name
	if err := h.Repo.SaveAsset(ctx, item); err != nil {
		return nil, fmt.Errorf("save asset: %w", err)
	}
	return item, nil
}

// SoftDelete flags the asset deleted. Refused while children or device
// mappings still reference it.
func (h *Hierarchy) SoftDelete(ctx context.Context, assetID uuid.UUID) error {
	item, err := h.Repo.GetAsset(ctx, assetID)
	if err != nil {
		return fmt.Errorf("load asset: %w", err)
	}
	if item == nil || item.IsDeleted {
		return ErrAssetNotFound
	}

	children, err := h.Repo.CountChildren(ctx, assetID)
	if err != nil {
		return fmt.Errorf("count children: %w", err)
	}
	if children > 0 {
		return fmt.Errorf("%w: %d", ErrHasChildren, children)
	}
	mappings, err := h.Repo.CountMappingsForAsset(ctx, assetID)
	if err != nil {
		return fmt.Errorf("count mappings: %w", err)
	}
	if mappings > 0 {
		return fmt.Errorf("%w: %d", ErrHasMappings, mappings)
	}

	item.IsDeleted = true
	item.UpdatedAt = time.Now().UTC()
	if err := h.Repo.SaveAsset(ctx, item); err != nil {
		return fmt.Errorf("save asset: %w", err)
	}
	if h.Logger != nil {
		h.Logger.Info("asset soft-deleted", zap.String("asset_id", assetID.String()))
	}
	return nil
}

// Restore clears the deleted flag. The parent, if any, must be live.
func (h *Hierarchy) Restore(ctx context.Context, assetID uuid.UUID) error {
	item, err := h.Repo.GetAsset(ctx, assetID)
	if err != nil {
		return fmt.Errorf("load asset: %w", err)
	}
	if item == nil {
		return ErrAssetNotFound
	}
	if !item.IsDeleted {
		return nil
	}
	if item.ParentID != nil {
		parent, err := h.Repo.GetAsset(ctx, *item.ParentID)
		if err != nil {
			return fmt.Errorf("load parent: %w", err)
		}
		if parent == nil || parent.IsDeleted {
			return ErrParentDeleted
		}
	}
	item.IsDeleted = false
	if err := h.Repo.SaveAsset(ctx, item); err != nil {
		return fmt.Errorf("save asset: %w", err)
	}
	return nil
}

// Tree returns the live hierarchy as nested nodes, roots first.
func (h *Hierarchy) Tree(ctx context.Context) ([]*TreeNode, error) {
	assets, err := h.Repo.ListAssets(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}

	nodes := make(map[uuid.UUID]*TreeNode, len(assets))
	for _, a := range assets {
		nodes[a.AssetID] = &TreeNode{Asset: a, Children: []*TreeNode{}}
	}
	var roots []*TreeNode
	for _, a := range assets {
		node := nodes[a.AssetID]
		if a.ParentID != nil {
			if parent, ok := nodes[*a.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots, nil
}

// BulkRow is one line of a bulk hierarchy upload. Parents are referenced by
// name and must appear before their children.
type BulkRow struct {
	Name       string `json:"name"`
	ParentName string `json:"parentName"`
}

type BulkResult struct {
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// BulkUpload creates assets top-down from name/parent-name rows. Rows that
// fail are reported and skipped; the rest still land.
func (h *Hierarchy) BulkUpload(ctx context.Context, rows []BulkRow) (*BulkResult, error) {
	res := &BulkResult{}
	for i, row := range rows {
		var parentID *uuid.UUID
		if p := strings.TrimSpace(row.ParentName); p != "" {
			parent, err := h.Repo.GetAssetByName(ctx, p)
			if err != nil {
				return res, fmt.Errorf("row %d: lookup parent %q: %w", i+1, p, err)
			}
			if parent == nil || parent.IsDeleted {
				res.Skipped++
				res.Errors = append(res.Errors, fmt.Sprintf("row %d: parent %q not found", i+1, p))
				continue
			}
			parentID = &parent.AssetID
		}
		if _, err := h.Create(ctx, row.Name, parentID); err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		res.Created++
	}
	return res, nil
}

// GetAssetName resolves a display name for notifications.
func (h *Hierarchy) GetAssetName(ctx context.Context, assetID uuid.UUID) (string, error) {
	return h.Repo.GetAssetName(ctx, assetID)
}

// GetSignalType resolves threshold configuration for evaluation.
func (h *Hierarchy) GetSignalType(ctx context.Context, signalTypeID uuid.UUID) (*models.SignalType, error) {
	return h.Repo.GetSignalType(ctx, signalTypeID)
}
