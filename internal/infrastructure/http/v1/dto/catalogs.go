package dto

import (
	"github.com/shopspring/decimal"

	"mesa/internal/core/apperror"
	"mesa/internal/core/id"
	"mesa/internal/core/types"
	"mesa/internal/domain/catalogs/material"
	"mesa/internal/domain/catalogs/supplier"
	"mesa/internal/domain/catalogs/unit"
	"mesa/internal/domain/catalogs/warehouse"
)

// ParseIDField parses an ID carried in a request field.
func ParseIDField(value, field string) (id.ID, error) {
	parsed, err := id.Parse(value)
	if err != nil {
		return id.ID{}, apperror.NewValidation("invalid id").
			WithDetail("field", field).
			WithDetail("value", value)
	}
	return parsed, nil
}

func parseOptionalID(value *string, field string) (*id.ID, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	parsed, err := ParseIDField(*value, field)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// --- Material ---

type CreateMaterialRequest struct {
	Code              string   `json:"code,omitempty"`
	Name              string   `json:"name" binding:"required"`
	CategoryID        *string  `json:"categoryId,omitempty"`
	SubCategoryID     *string  `json:"subCategoryId,omitempty"`
	DefaultWarehouse  *string  `json:"defaultWarehouseId,omitempty"`
	ConsumptionUnitID string   `json:"consumptionUnitId" binding:"required"`
	PurchaseUnitID    string   `json:"purchaseUnitId" binding:"required"`
	MinStockLevel     float64  `json:"minStockLevel"`
	MaxStockLevel     float64  `json:"maxStockLevel"`
	LastPurchasePrice *float64 `json:"lastPurchasePrice,omitempty"`
}

func (r *CreateMaterialRequest) ToEntity() (*material.Material, error) {
	consumptionUnitID, err := ParseIDField(r.ConsumptionUnitID, "consumptionUnitId")
	if err != nil {
		return nil, err
	}
	purchaseUnitID, err := ParseIDField(r.PurchaseUnitID, "purchaseUnitId")
	if err != nil {
		return nil, err
	}

	m := material.NewMaterial(r.Code, r.Name, consumptionUnitID, purchaseUnitID)
	m.MinStockLevel = types.NewQuantityFromFloat64(r.MinStockLevel)
	m.MaxStockLevel = types.NewQuantityFromFloat64(r.MaxStockLevel)

	if m.CategoryID, err = parseOptionalID(r.CategoryID, "categoryId"); err != nil {
		return nil, err
	}
	if m.SubCategoryID, err = parseOptionalID(r.SubCategoryID, "subCategoryId"); err != nil {
		return nil, err
	}
	if m.DefaultWarehouseID, err = parseOptionalID(r.DefaultWarehouse, "defaultWarehouseId"); err != nil {
		return nil, err
	}
	if r.LastPurchasePrice != nil {
		m.LastPurchasePrice = types.NewMoney(*r.LastPurchasePrice)
	}

	return m, nil
}

type UpdateMaterialRequest struct {
	Name              *string  `json:"name,omitempty"`
	CategoryID        *string  `json:"categoryId,omitempty"`
	SubCategoryID     *string  `json:"subCategoryId,omitempty"`
	DefaultWarehouse  *string  `json:"defaultWarehouseId,omitempty"`
	ConsumptionUnitID *string  `json:"consumptionUnitId,omitempty"`
	PurchaseUnitID    *string  `json:"purchaseUnitId,omitempty"`
	MinStockLevel     *float64 `json:"minStockLevel,omitempty"`
	MaxStockLevel     *float64 `json:"maxStockLevel,omitempty"`
	LastPurchasePrice *float64 `json:"lastPurchasePrice,omitempty"`
	IsActive          *bool    `json:"isActive,omitempty"`
}

func (r *UpdateMaterialRequest) ApplyTo(m *material.Material) error {
	if r.Name != nil {
		m.Name = *r.Name
	}

	var err error
	if r.CategoryID != nil {
		if m.CategoryID, err = parseOptionalID(r.CategoryID, "categoryId"); err != nil {
			return err
		}
	}
	if r.SubCategoryID != nil {
		if m.SubCategoryID, err = parseOptionalID(r.SubCategoryID, "subCategoryId"); err != nil {
			return err
		}
	}
	if r.DefaultWarehouse != nil {
		if m.DefaultWarehouseID, err = parseOptionalID(r.DefaultWarehouse, "defaultWarehouseId"); err != nil {
			return err
		}
	}
	if r.ConsumptionUnitID != nil {
		if m.ConsumptionUnitID, err = ParseIDField(*r.ConsumptionUnitID, "consumptionUnitId"); err != nil {
			return err
		}
	}
	if r.PurchaseUnitID != nil {
		if m.PurchaseUnitID, err = ParseIDField(*r.PurchaseUnitID, "purchaseUnitId"); err != nil {
			return err
		}
	}
	if r.MinStockLevel != nil {
		m.MinStockLevel = types.NewQuantityFromFloat64(*r.MinStockLevel)
	}
	if r.MaxStockLevel != nil {
		m.MaxStockLevel = types.NewQuantityFromFloat64(*r.MaxStockLevel)
	}
	if r.LastPurchasePrice != nil {
		m.LastPurchasePrice = types.NewMoney(*r.LastPurchasePrice)
	}
	if r.IsActive != nil {
		m.IsActive = *r.IsActive
	}

	return nil
}

// --- Warehouse ---

type CreateWarehouseRequest struct {
	Code               string  `json:"code,omitempty"`
	Name               string  `json:"name" binding:"required"`
	Type               string  `json:"type" binding:"required"`
	Address            *string `json:"address,omitempty"`
	AllowNegativeStock bool    `json:"allowNegativeStock"`
	IsDefault          bool    `json:"isDefault"`
	Description        *string `json:"description,omitempty"`
}

func (r *CreateWarehouseRequest) ToEntity() *warehouse.Warehouse {
	w := warehouse.NewWarehouse(r.Code, r.Name, warehouse.WarehouseType(r.Type))
	w.Address = r.Address
	w.AllowNegativeStock = r.AllowNegativeStock
	w.IsDefault = r.IsDefault
	w.Description = r.Description
	return w
}

type UpdateWarehouseRequest struct {
	Name               *string `json:"name,omitempty"`
	Type               *string `json:"type,omitempty"`
	Address            *string `json:"address,omitempty"`
	AllowNegativeStock *bool   `json:"allowNegativeStock,omitempty"`
	IsDefault          *bool   `json:"isDefault,omitempty"`
	IsActive           *bool   `json:"isActive,omitempty"`
	Description        *string `json:"description,omitempty"`
}

func (r *UpdateWarehouseRequest) ApplyTo(w *warehouse.Warehouse) error {
	if r.Name != nil {
		w.Name = *r.Name
	}
	if r.Type != nil {
		w.Type = warehouse.WarehouseType(*r.Type)
	}
	if r.Address != nil {
		w.Address = r.Address
	}
	if r.AllowNegativeStock != nil {
		w.AllowNegativeStock = *r.AllowNegativeStock
	}
	if r.IsDefault != nil {
		w.IsDefault = *r.IsDefault
	}
	if r.IsActive != nil {
		w.IsActive = *r.IsActive
	}
	if r.Description != nil {
		w.Description = r.Description
	}
	return nil
}

// --- Unit ---

type CreateUnitRequest struct {
	Code             string   `json:"code,omitempty"`
	Name             string   `json:"name" binding:"required"`
	Symbol           string   `json:"symbol" binding:"required"`
	Type             string   `json:"type" binding:"required"`
	BaseUnitID       *string  `json:"baseUnitId,omitempty"`
	ConversionFactor *float64 `json:"conversionFactor,omitempty"`
	IsBase           bool     `json:"isBase"`
	Description      *string  `json:"description,omitempty"`
}

func (r *CreateUnitRequest) ToEntity() *unit.Unit {
	u := unit.NewUnit(r.Code, r.Name, r.Symbol, unit.UnitType(r.Type))
	u.BaseUnitID = r.BaseUnitID
	if r.ConversionFactor != nil {
		u.ConversionFactor = decimal.NewFromFloat(*r.ConversionFactor)
	}
	u.IsBase = r.IsBase
	u.Description = r.Description
	return u
}

type UpdateUnitRequest struct {
	Name             *string  `json:"name,omitempty"`
	Symbol           *string  `json:"symbol,omitempty"`
	BaseUnitID       *string  `json:"baseUnitId,omitempty"`
	ConversionFactor *float64 `json:"conversionFactor,omitempty"`
	IsBase           *bool    `json:"isBase,omitempty"`
	Description      *string  `json:"description,omitempty"`
}

func (r *UpdateUnitRequest) ApplyTo(u *unit.Unit) error {
	if r.Name != nil {
		u.Name = *r.Name
	}
	if r.Symbol != nil {
		u.Symbol = *r.Symbol
	}
	if r.BaseUnitID != nil {
		u.BaseUnitID = r.BaseUnitID
	}
	if r.ConversionFactor != nil {
		u.ConversionFactor = decimal.NewFromFloat(*r.ConversionFactor)
	}
	if r.IsBase != nil {
		u.IsBase = *r.IsBase
	}
	if r.Description != nil {
		u.Description = r.Description
	}
	return nil
}

// --- Supplier ---

type CreateSupplierRequest struct {
	Code         string  `json:"code,omitempty"`
	Name         string  `json:"name" binding:"required"`
	TaxID        *string `json:"taxId,omitempty"`
	ContactName  *string `json:"contactName,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Email        *string `json:"email,omitempty"`
	Address      *string `json:"address,omitempty"`
	PaymentTerms string  `json:"paymentTerms,omitempty"`
	CreditDays   int     `json:"creditDays"`
	CreditLimit  float64 `json:"creditLimit"`
	Comment      *string `json:"comment,omitempty"`
}

func (r *CreateSupplierRequest) ToEntity() *supplier.Supplier {
	s := supplier.NewSupplier(r.Code, r.Name)
	s.TaxID = r.TaxID
	s.ContactName = r.ContactName
	s.Phone = r.Phone
	s.Email = r.Email
	s.Address = r.Address
	if r.PaymentTerms != "" {
		s.PaymentTerms = supplier.PaymentTerms(r.PaymentTerms)
	}
	s.CreditDays = r.CreditDays
	s.CreditLimit = types.NewMoney(r.CreditLimit)
	s.Comment = r.Comment
	return s
}

type UpdateSupplierRequest struct {
	Name         *string  `json:"name,omitempty"`
	TaxID        *string  `json:"taxId,omitempty"`
	ContactName  *string  `json:"contactName,omitempty"`
	Phone        *string  `json:"phone,omitempty"`
	Email        *string  `json:"email,omitempty"`
	Address      *string  `json:"address,omitempty"`
	PaymentTerms *string  `json:"paymentTerms,omitempty"`
	CreditDays   *int     `json:"creditDays,omitempty"`
	CreditLimit  *float64 `json:"creditLimit,omitempty"`
	IsActive     *bool    `json:"isActive,omitempty"`
	Comment      *string  `json:"comment,omitempty"`
}

func (r *UpdateSupplierRequest) ApplyTo(s *supplier.Supplier) error {
	if r.Name != nil {
		s.Name = *r.Name
	}
	if r.TaxID != nil {
		s.TaxID = r.TaxID
	}
	if r.ContactName != nil {
		s.ContactName = r.ContactName
	}
	if r.Phone != nil {
		s.Phone = r.Phone
	}
	if r.Email != nil {
		s.Email = r.Email
	}
	if r.Address != nil {
		s.Address = r.Address
	}
	if r.PaymentTerms != nil {
		s.PaymentTerms = supplier.PaymentTerms(*r.PaymentTerms)
	}
	if r.CreditDays != nil {
		s.CreditDays = *r.CreditDays
	}
	if r.CreditLimit != nil {
		s.CreditLimit = types.NewMoney(*r.CreditLimit)
	}
	if r.IsActive != nil {
		s.IsActive = *r.IsActive
	}
	if r.Comment != nil {
		s.Comment = r.Comment
	}
	return nil
}
