package stockcount

import (
	"context"
	"fmt"
	"time"

	"mesa/internal/core/apperror"
	"mesa/internal/core/id"
	"mesa/internal/core/numerator"
	"mesa/internal/core/tx"
	"mesa/internal/core/types"
	"mesa/internal/domain"
	"mesa/internal/domain/catalogs/material"
	"mesa/internal/domain/ledger/stock"
	"mesa/pkg/logger"
)

// MaterialCatalog is the slice of the material catalog the count flow
// needs: candidate search and existence checks. The material repository
// satisfies it.
type MaterialCatalog interface {
	SearchForCount(ctx context.Context, f material.SearchFilter) ([]*material.Material, error)
	Exists(ctx context.Context, materialID id.ID) (bool, error)
}

// Service provides business operations for stock count documents.
type Service struct {
	repo         Repository
	stockService *stock.Service
	materials    MaterialCatalog
	numerator    numerator.Generator
	txManager    tx.Manager
	hooks        *domain.HookRegistry[*StockCount]
}

// NewService creates a new stock count service.
func NewService(
	repo Repository,
	stockService *stock.Service,
	materials MaterialCatalog,
	numerator numerator.Generator,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:         repo,
		stockService: stockService,
		materials:    materials,
		numerator:    numerator,
		txManager:    txManager,
		hooks:        domain.NewHookRegistry[*StockCount](),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*StockCount] {
	return s.hooks
}

// CreateInput carries the fields for creating a stock count.
type CreateInput struct {
	WarehouseID id.ID
	CountDate   time.Time
	CountTime   string // "HH:MM"
	CountedBy   string
	Notes       string
}

// Create creates a stock count and seeds its items from the reconstructed
// stock at the cutoff.
//
// Number generation, document insert, and item seeding run in one
// transaction: a failure at any step leaves no partial document behind.
// Only materials with ledger activity up to the cutoff get an item; anything
// found on the shelf that never moved is added later via AddMaterial.
func (s *Service) Create(ctx context.Context, input CreateInput) (*StockCount, error) {
	doc := NewStockCount(input.WarehouseID, input.CountDate, input.CountTime)
	doc.CountedBy = input.CountedBy
	doc.Notes = input.Notes
	doc.Date = input.CountDate

	if err := s.hooks.Run(ctx, domain.BeforeCreate, doc); err != nil {
		return nil, err
	}

	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}

	cutoff, err := doc.CutoffDateTime()
	if err != nil {
		return nil, err
	}

	active, err := s.repo.ExistsActiveForWarehouse(ctx, input.WarehouseID)
	if err != nil {
		return nil, fmt.Errorf("check active counts: %w", err)
	}
	if active {
		return nil, apperror.NewConflict("warehouse already has an unfinished stock count").
			WithDetail("warehouseId", input.WarehouseID)
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		number, err := s.numerator.GetNextNumber(ctx, NumberConfig(),
			&numerator.Options{Strategy: NumeratorStrategy}, time.Now())
		if err != nil {
			return fmt.Errorf("generate count number: %w", err)
		}
		doc.Number = number

		snapshot, err := s.stockService.CalculateStockAtTime(ctx, doc.WarehouseID, cutoff)
		if err != nil {
			return fmt.Errorf("reconstruct stock at cutoff: %w", err)
		}

		for _, hs := range snapshot {
			if _, err := doc.AddItem(hs.MaterialID, hs.Stock, hs.PreClampStock, false); err != nil {
				return err
			}
		}

		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if err := s.repo.SaveItems(ctx, doc.ID, doc.Items); err != nil {
			return fmt.Errorf("save items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.hooks.Run(ctx, domain.AfterCreate, doc); err != nil {
		logger.Warn(ctx, "after-create hook failed", "error", err)
	}

	logger.Info(ctx, "stock count created",
		"id", doc.ID,
		"number", doc.Number,
		"warehouse_id", doc.WarehouseID,
		"items", len(doc.Items),
	)
	return doc, nil
}

// GetByID retrieves a stock count with items.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*StockCount, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.GetItems(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	doc.Items = items

	return doc, nil
}

// AddMaterial adds a material that was found on the shelf but had no ledger
// activity before the cutoff. Its system stock is still reconstructed at the
// document's original cutoff, so a late addition does not leak stock from
// movements posted after the count started.
func (s *Service) AddMaterial(ctx context.Context, docID, materialID id.ID) (*Item, error) {
	doc, err := s.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	if err := doc.CanModifyItems(); err != nil {
		return nil, err
	}
	if doc.FindItemByMaterial(materialID) != nil {
		return nil, apperror.NewDuplicate("stock count item", "material", materialID.String())
	}

	exists, err := s.materials.Exists(ctx, materialID)
	if err != nil {
		return nil, fmt.Errorf("check material: %w", err)
	}
	if !exists {
		return nil, apperror.NewNotFound("material", materialID.String())
	}

	cutoff, err := doc.CutoffDateTime()
	if err != nil {
		return nil, err
	}

	hs, err := s.stockService.CalculateMaterialStockAtTime(ctx, materialID, doc.WarehouseID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("reconstruct material stock: %w", err)
	}

	item, err := doc.AddItem(materialID, hs.Stock, hs.PreClampStock, true)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, doc); err != nil {
			return err
		}
		return s.repo.SaveItems(ctx, doc.ID, doc.Items)
	})
	if err != nil {
		return nil, err
	}

	return item, nil
}

// SearchMaterials returns candidate materials a counter may add to a count
// at the given warehouse. Typed into the "add line" picker, so the filter is
// normalized and capped before it hits the catalog.
func (s *Service) SearchMaterials(ctx context.Context, f material.SearchFilter) ([]*material.Material, error) {
	f.Normalize()
	if err := f.Validate(ctx); err != nil {
		return nil, err
	}

	return s.materials.SearchForCount(ctx, f)
}

// RecordCount records the physical count for a material.
func (s *Service) RecordCount(ctx context.Context, docID, materialID id.ID, counted types.Quantity, countedBy string, reason *string) error {
	doc, err := s.GetByID(ctx, docID)
	if err != nil {
		return err
	}

	if doc.Status != StatusInProgress {
		return apperror.NewInvalidState("counts can only be recorded while in progress").
			WithDetail("status", string(doc.Status))
	}

	item := doc.FindItemByMaterial(materialID)
	if item == nil {
		return apperror.NewNotFound("stock count item", materialID)
	}

	if err := doc.SetCountedStock(item.LineNo, counted, countedBy, reason); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, doc); err != nil {
			return err
		}
		return s.repo.SaveItems(ctx, doc.ID, doc.Items)
	})
}

// Start begins the counting phase.
func (s *Service) Start(ctx context.Context, docID id.ID) error {
	return s.transition(ctx, docID, (*StockCount).Start)
}

// SubmitForApproval hands the fully counted document to an approver.
func (s *Service) SubmitForApproval(ctx context.Context, docID id.ID) error {
	return s.transition(ctx, docID, (*StockCount).SubmitForApproval)
}

// Reject sends a pending count back for recounting.
func (s *Service) Reject(ctx context.Context, docID id.ID) error {
	return s.transition(ctx, docID, (*StockCount).Reject)
}

// Cancel abandons the count without touching stock.
func (s *Service) Cancel(ctx context.Context, docID id.ID) error {
	return s.transition(ctx, docID, (*StockCount).Cancel)
}

func (s *Service) transition(ctx context.Context, docID id.ID, fn func(*StockCount) error) error {
	doc, err := s.GetByID(ctx, docID)
	if err != nil {
		return err
	}

	if err := fn(doc); err != nil {
		return err
	}

	if err := s.repo.Update(ctx, doc); err != nil {
		return fmt.Errorf("update document: %w", err)
	}

	logger.Info(ctx, "stock count transitioned",
		"id", doc.ID,
		"number", doc.Number,
		"status", doc.Status,
	)
	return nil
}

// ApprovalResult summarizes an approved stock count.
type ApprovalResult struct {
	StockCountID     id.ID          `json:"stockCountId"`
	AdjustmentsCount int            `json:"adjustmentsCount"`
	TotalSurplus     types.Quantity `json:"totalSurplus"`
	TotalShortage    types.Quantity `json:"totalShortage"`
}

// Approve reconciles stock to the counted quantities and completes the count.
//
// The whole reconciliation is one transaction: per discrepancy item the live
// balance row is locked, an adjustment movement posted, the balance set
// absolutely to the counted quantity, and an audit adjustment recorded; the
// status flip to completed commits together with the adjustments. A failure
// anywhere rolls everything back and the document stays pending approval.
//
// Balances are set absolutely rather than incremented, so the count is
// authoritative over any movements that raced in after counting started.
func (s *Service) Approve(ctx context.Context, docID id.ID, approvedBy string) (*ApprovalResult, error) {
	var result *ApprovalResult

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		items, err := s.repo.GetItems(ctx, docID)
		if err != nil {
			return fmt.Errorf("get items: %w", err)
		}
		doc.Items = items

		if doc.Status != StatusPendingApproval {
			return apperror.NewInvalidState("only pending approval counts can be approved").
				WithDetail("status", string(doc.Status))
		}

		adjustments := make([]Adjustment, 0)
		for _, item := range doc.Items {
			if item.CountedStock == nil || item.Difference.IsZero() {
				continue
			}

			reason := fmt.Sprintf("stock count %s", doc.Number)
			if item.Reason != nil && *item.Reason != "" {
				reason = fmt.Sprintf("stock count %s: %s", doc.Number, *item.Reason)
			}

			movement, err := s.stockService.ApplyCountAdjustment(
				ctx, item.MaterialID, doc.WarehouseID,
				*item.CountedStock, approvedBy, reason,
			)
			if err != nil {
				return fmt.Errorf("adjust material %s: %w", item.MaterialID, err)
			}
			if movement == nil {
				// Live stock caught up to the counted value on its own
				continue
			}

			adjType := AdjustmentIncrease
			if movement.Type.Direction() < 0 {
				adjType = AdjustmentDecrease
			}

			adjustments = append(adjustments, Adjustment{
				ID:             id.New(),
				StockCountID:   doc.ID,
				MaterialID:     item.MaterialID,
				WarehouseID:    doc.WarehouseID,
				Type:           adjType,
				Quantity:       movement.Quantity,
				PreviousStock:  movement.StockBefore,
				NewStock:       movement.StockAfter,
				MovementLineID: &movement.LineID,
				CreatedBy:      approvedBy,
				CreatedAt:      time.Now().UTC(),
			})
		}

		if len(adjustments) > 0 {
			if err := s.repo.CreateAdjustments(ctx, adjustments); err != nil {
				return fmt.Errorf("create adjustments: %w", err)
			}
		}

		if err := doc.MarkCompleted(approvedBy); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}

		result = &ApprovalResult{
			StockCountID:     doc.ID,
			AdjustmentsCount: len(adjustments),
			TotalSurplus:     doc.TotalSurplus,
			TotalShortage:    doc.TotalShortage,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	doc, err := s.GetByID(ctx, docID)
	if err == nil {
		if hookErr := s.hooks.Run(ctx, domain.AfterApprove, doc); hookErr != nil {
			logger.Warn(ctx, "after-approve hook failed", "error", hookErr)
		}
	}

	logger.Info(ctx, "stock count approved",
		"id", docID,
		"adjustments", result.AdjustmentsCount,
		"approved_by", approvedBy,
	)
	return result, nil
}

// GetAdjustments returns the audit adjustments created at approval.
func (s *Service) GetAdjustments(ctx context.Context, docID id.ID) ([]Adjustment, error) {
	return s.repo.GetAdjustments(ctx, docID)
}

// List retrieves stock counts with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*StockCount], error) {
	return s.repo.List(ctx, filter)
}
