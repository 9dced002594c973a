package models

import (
	"time"

	"github.com/mmdatafocus/gate_entry/utils"
	"github.com/shopspring/decimal"
)

// Upstream documents are owned by the ERP and share this database. Only the fields the
// gate pass engine reads or writes are mapped.

// DocumentTotals holds the total candidates; the first non-zero one is the document total.
type DocumentTotals struct {
	RoundedTotal   decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"rounded_total"`
	GrandTotal     decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"grand_total"`
	BaseGrandTotal decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"base_grand_total"`
	NetTotal       decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"net_total"`
	Total          decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"total"`
	BaseTotal      decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"base_total"`
}

func (t DocumentTotals) DocumentTotal() decimal.Decimal {
	return utils.FirstNonZero(t.RoundedTotal, t.GrandTotal, t.BaseGrandTotal, t.NetTotal, t.Total, t.BaseTotal)
}

// ContactFields are copied from orders onto receipts.
type ContactFields struct {
	SupplierAddress        string `gorm:"size:140" json:"supplier_address"`
	AddressDisplay         string `gorm:"type:text" json:"address_display"`
	ContactPerson          string `gorm:"size:140" json:"contact_person"`
	ContactDisplay         string `gorm:"size:255" json:"contact_display"`
	ContactMobile          string `gorm:"size:40" json:"contact_mobile"`
	ContactEmail           string `gorm:"size:140" json:"contact_email"`
	ShippingAddress        string `gorm:"size:140" json:"shipping_address"`
	ShippingAddressDisplay string `gorm:"type:text" json:"shipping_address_display"`
}

type PurchaseOrder struct {
	ID                int                  `gorm:"primary_key" json:"id"`
	BusinessId        string               `gorm:"size:64;not null;uniqueIndex:idx_purchase_order_name,priority:1" json:"business_id"`
	Name              string               `gorm:"size:140;not null;uniqueIndex:idx_purchase_order_name,priority:2" json:"name"`
	DocStatus         DocStatus            `gorm:"column:docstatus;not null;default:0" json:"docstatus"`
	Company           string               `gorm:"size:140" json:"company"`
	Supplier          string               `gorm:"size:140;index" json:"supplier"`
	SupplierName      string               `gorm:"size:140" json:"supplier_name"`
	TransactionDate   *time.Time           `gorm:"type:date" json:"transaction_date"`
	HasUnitPriceItems bool                 `gorm:"not null;default:false" json:"has_unit_price_items"`
	IsSubcontracted   bool                 `gorm:"not null;default:false" json:"is_subcontracted"`
	SupplierWarehouse string               `gorm:"size:140" json:"supplier_warehouse"`
	Currency          string               `gorm:"size:10" json:"currency"`
	ConversionRate    decimal.Decimal      `gorm:"type:decimal(20,9);default:1" json:"conversion_rate"`
	BuyingPriceList   string               `gorm:"size:140" json:"buying_price_list"`
	PriceListCurrency string               `gorm:"size:10" json:"price_list_currency"`
	PlcConversionRate decimal.Decimal      `gorm:"type:decimal(20,9);default:1" json:"plc_conversion_rate"`
	IgnorePricingRule bool                 `gorm:"not null;default:false" json:"ignore_pricing_rule"`
	SetWarehouse      string               `gorm:"size:140" json:"set_warehouse"`
	ContactFields     `gorm:"embedded"`
	DocumentTotals    `gorm:"embedded"`
	Items             []*PurchaseOrderItem `gorm:"foreignKey:ParentId" json:"items"`
	CreatedAt         time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
}

type PurchaseOrderItem struct {
	ID                  int             `gorm:"primary_key" json:"id"`
	BusinessId          string          `gorm:"size:64;index;not null" json:"business_id"`
	ParentId            int             `gorm:"index;not null" json:"parent_id"`
	Name                string          `gorm:"size:140;index;not null" json:"name"`
	Idx                 int             `json:"idx"`
	ItemCode            string          `gorm:"size:140;index;not null" json:"item_code"`
	ItemName            string          `gorm:"size:140" json:"item_name"`
	Description         string          `gorm:"type:text" json:"description"`
	ItemGroup           string          `gorm:"size:140" json:"item_group"`
	Brand               string          `gorm:"size:140" json:"brand"`
	Image               string          `gorm:"size:255" json:"image"`
	Uom                 string          `gorm:"size:40" json:"uom"`
	StockUom            string          `gorm:"size:40" json:"stock_uom"`
	ConversionFactor    decimal.Decimal `gorm:"type:decimal(20,6);default:1" json:"conversion_factor"`
	Qty                 decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"qty"`
	ReceivedQty         decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"received_qty"`
	Rate                decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"rate"`
	Amount              decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"amount"`
	PriceListRate       decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"price_list_rate"`
	BaseRate            decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"base_rate"`
	BasePriceListRate   decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"base_price_list_rate"`
	DiscountPercentage  decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"discount_percentage"`
	DiscountAmount      decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"discount_amount"`
	MarginType          string          `gorm:"size:40" json:"margin_type"`
	MarginRateOrAmount  decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"margin_rate_or_amount"`
	Warehouse           string          `gorm:"size:140" json:"warehouse"`
	FromWarehouse       string          `gorm:"size:140" json:"from_warehouse"`
	ExpenseAccount      string          `gorm:"size:140" json:"expense_account"`
	CostCenter          string          `gorm:"size:140" json:"cost_center"`
	Project             string          `gorm:"size:140" json:"project"`
	ScheduleDate        *time.Time      `gorm:"type:date" json:"schedule_date"`
	Bom                 string          `gorm:"size:140" json:"bom"`
	MaterialRequest     string          `gorm:"size:140" json:"material_request"`
	MaterialRequestItem string          `gorm:"size:140" json:"material_request_item"`
	SalesOrder          string          `gorm:"size:140" json:"sales_order"`
	SalesOrderItem      string          `gorm:"size:140" json:"sales_order_item"`
	Manufacturer        string          `gorm:"size:140" json:"manufacturer"`
	ManufacturerPartNo  string          `gorm:"size:140" json:"manufacturer_part_no"`
	SupplierPartNo      string          `gorm:"size:140" json:"supplier_part_no"`
	IsFixedAsset        bool            `gorm:"not null;default:false" json:"is_fixed_asset"`
	AssetLocation       string          `gorm:"size:140" json:"asset_location"`
	AssetCategory       string          `gorm:"size:140" json:"asset_category"`
	ItemTaxTemplate     string          `gorm:"size:140" json:"item_tax_template"`
	GstTreatment        string          `gorm:"size:40" json:"gst_treatment"`
	ProductBundle       string          `gorm:"size:140" json:"product_bundle"`
	IsFreeItem          bool            `gorm:"not null;default:false" json:"is_free_item"`
	ApplyTds            bool            `gorm:"not null;default:false" json:"apply_tds"`
}

type SubcontractingOrder struct {
	ID                               int                                  `gorm:"primary_key" json:"id"`
	BusinessId                       string                               `gorm:"size:64;not null;uniqueIndex:idx_subcontracting_order_name,priority:1" json:"business_id"`
	Name                             string                               `gorm:"size:140;not null;uniqueIndex:idx_subcontracting_order_name,priority:2" json:"name"`
	DocStatus                        DocStatus                            `gorm:"column:docstatus;not null;default:0" json:"docstatus"`
	Company                          string                               `gorm:"size:140" json:"company"`
	Supplier                         string                               `gorm:"size:140;index" json:"supplier"`
	SupplierName                     string                               `gorm:"size:140" json:"supplier_name"`
	TransactionDate                  *time.Time                           `gorm:"type:date" json:"transaction_date"`
	PurchaseOrder                    string                               `gorm:"size:140" json:"purchase_order"`
	SupplierWarehouse                string                               `gorm:"size:140" json:"supplier_warehouse"`
	SetWarehouse                     string                               `gorm:"size:140" json:"set_warehouse"`
	BillingAddress                   string                               `gorm:"size:140" json:"billing_address"`
	BillingAddressDisplay            string                               `gorm:"type:text" json:"billing_address_display"`
	Project                          string                               `gorm:"size:140" json:"project"`
	CostCenter                       string                               `gorm:"size:140" json:"cost_center"`
	LetterHead                       string                               `gorm:"size:140" json:"letter_head"`
	SelectPrintHeading               string                               `gorm:"size:140" json:"select_print_heading"`
	DistributeAdditionalCostsBasedOn string                               `gorm:"size:40" json:"distribute_additional_costs_based_on"`
	ContactFields                    `gorm:"embedded"`
	DocumentTotals                   `gorm:"embedded"`
	Items                            []*SubcontractingOrderItem           `gorm:"foreignKey:ParentId" json:"items"`
	AdditionalCosts                  []*SubcontractingOrderAdditionalCost `gorm:"foreignKey:ParentId" json:"additional_costs"`
	CreatedAt                        time.Time                            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt                        time.Time                            `gorm:"autoUpdateTime" json:"updated_at"`
}

type SubcontractingOrderItem struct {
	ID                   int             `gorm:"primary_key" json:"id"`
	BusinessId           string          `gorm:"size:64;index;not null" json:"business_id"`
	ParentId             int             `gorm:"index;not null" json:"parent_id"`
	Name                 string          `gorm:"size:140;index;not null" json:"name"`
	Idx                  int             `json:"idx"`
	ItemCode             string          `gorm:"size:140;index;not null" json:"item_code"`
	ItemName             string          `gorm:"size:140" json:"item_name"`
	Description          string          `gorm:"type:text" json:"description"`
	Brand                string          `gorm:"size:140" json:"brand"`
	Image                string          `gorm:"size:255" json:"image"`
	StockUom             string          `gorm:"size:40" json:"stock_uom"`
	ConversionFactor     decimal.Decimal `gorm:"type:decimal(20,6);default:1" json:"conversion_factor"`
	Qty                  decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"qty"`
	ReceivedQty          decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"received_qty"`
	Rate                 decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"rate"`
	Amount               decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"amount"`
	RmCostPerQty         decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"rm_cost_per_qty"`
	ServiceCostPerQty    decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"service_cost_per_qty"`
	AdditionalCostPerQty decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"additional_cost_per_qty"`
	Warehouse            string          `gorm:"size:140" json:"warehouse"`
	ExpenseAccount       string          `gorm:"size:140" json:"expense_account"`
	CostCenter           string          `gorm:"size:140" json:"cost_center"`
	Project              string          `gorm:"size:140" json:"project"`
	ScheduleDate         *time.Time      `gorm:"type:date" json:"schedule_date"`
	Bom                  string          `gorm:"size:140" json:"bom"`
	IncludeExplodedItems bool            `gorm:"not null;default:false" json:"include_exploded_items"`
	Manufacturer         string          `gorm:"size:140" json:"manufacturer"`
	ManufacturerPartNo   string          `gorm:"size:140" json:"manufacturer_part_no"`
	PurchaseOrderItem    string          `gorm:"size:140" json:"purchase_order_item"`
}

type SubcontractingOrderAdditionalCost struct {
	ID             int             `gorm:"primary_key" json:"id"`
	BusinessId     string          `gorm:"size:64;index;not null" json:"business_id"`
	ParentId       int             `gorm:"index;not null" json:"parent_id"`
	ExpenseAccount string          `gorm:"size:140" json:"expense_account"`
	Description    string          `gorm:"type:text" json:"description"`
	Amount         decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"amount"`
	BaseAmount     decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"base_amount"`
}

type SalesInvoice struct {
	ID                     int                 `gorm:"primary_key" json:"id"`
	BusinessId             string              `gorm:"size:64;not null;uniqueIndex:idx_sales_invoice_name,priority:1" json:"business_id"`
	Name                   string              `gorm:"size:140;not null;uniqueIndex:idx_sales_invoice_name,priority:2" json:"name"`
	DocStatus              DocStatus           `gorm:"column:docstatus;not null;default:0" json:"docstatus"`
	Company                string              `gorm:"size:140" json:"company"`
	Customer               string              `gorm:"size:140;index" json:"customer"`
	CustomerName           string              `gorm:"size:140" json:"customer_name"`
	PostingDate            *time.Time          `gorm:"type:date" json:"posting_date"`
	PostingTime            string              `gorm:"size:8" json:"posting_time"`
	Irn                    string              `gorm:"size:140" json:"irn"`
	IrnCancelled           bool                `gorm:"not null;default:false" json:"irn_cancelled"`
	EInvoiceStatus         string              `gorm:"size:40" json:"e_invoice_status"`
	Ewaybill               string              `gorm:"size:140" json:"ewaybill"`
	EWaybillStatus         string              `gorm:"size:40" json:"e_waybill_status"`
	CustomerAddress        string              `gorm:"size:140" json:"customer_address"`
	AddressDisplay         string              `gorm:"type:text" json:"address_display"`
	ShippingAddressDisplay string              `gorm:"type:text" json:"shipping_address_display"`
	VehicleNo              string              `gorm:"size:40" json:"vehicle_no"`
	DriverName             string              `gorm:"size:140" json:"driver_name"`
	DocumentTotals         `gorm:"embedded"`
	Items                  []*SalesInvoiceItem `gorm:"foreignKey:ParentId" json:"items"`
	CreatedAt              time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

type SalesInvoiceItem struct {
	ID               int             `gorm:"primary_key" json:"id"`
	BusinessId       string          `gorm:"size:64;index;not null" json:"business_id"`
	ParentId         int             `gorm:"index;not null" json:"parent_id"`
	Name             string          `gorm:"size:140;index;not null" json:"name"`
	Idx              int             `json:"idx"`
	ItemCode         string          `gorm:"size:140;index;not null" json:"item_code"`
	ItemName         string          `gorm:"size:140" json:"item_name"`
	Description      string          `gorm:"type:text" json:"description"`
	Uom              string          `gorm:"size:40" json:"uom"`
	StockUom         string          `gorm:"size:40" json:"stock_uom"`
	ConversionFactor decimal.Decimal `gorm:"type:decimal(20,6);default:1" json:"conversion_factor"`
	Qty              decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"qty"`
	Warehouse        string          `gorm:"size:140" json:"warehouse"`
	Project          string          `gorm:"size:140" json:"project"`
	DeliveryDate     *time.Time      `gorm:"type:date" json:"delivery_date"`
}

type DeliveryNote struct {
	ID                     int                 `gorm:"primary_key" json:"id"`
	BusinessId             string              `gorm:"size:64;not null;uniqueIndex:idx_delivery_note_name,priority:1" json:"business_id"`
	Name                   string              `gorm:"size:140;not null;uniqueIndex:idx_delivery_note_name,priority:2" json:"name"`
	DocStatus              DocStatus           `gorm:"column:docstatus;not null;default:0" json:"docstatus"`
	Company                string              `gorm:"size:140" json:"company"`
	Customer               string              `gorm:"size:140;index" json:"customer"`
	CustomerName           string              `gorm:"size:140" json:"customer_name"`
	PostingDate            *time.Time          `gorm:"type:date" json:"posting_date"`
	PostingTime            string              `gorm:"size:8" json:"posting_time"`
	Ewaybill               string              `gorm:"size:140" json:"ewaybill"`
	EWaybillNumber         string              `gorm:"size:140" json:"e_waybill_number"`
	EWaybillStatus         string              `gorm:"size:40" json:"e_waybill_status"`
	AddressDisplay         string              `gorm:"type:text" json:"address_display"`
	ShippingAddressDisplay string              `gorm:"type:text" json:"shipping_address_display"`
	VehicleNo              string              `gorm:"size:40" json:"vehicle_no"`
	Driver                 string              `gorm:"size:140" json:"driver"`
	DriverName             string              `gorm:"size:140" json:"driver_name"`
	DocumentTotals         `gorm:"embedded"`
	Items                  []*DeliveryNoteItem `gorm:"foreignKey:ParentId" json:"items"`
	CreatedAt              time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

type DeliveryNoteItem struct {
	ID               int             `gorm:"primary_key" json:"id"`
	BusinessId       string          `gorm:"size:64;index;not null" json:"business_id"`
	ParentId         int             `gorm:"index;not null" json:"parent_id"`
	Name             string          `gorm:"size:140;index;not null" json:"name"`
	Idx              int             `json:"idx"`
	ItemCode         string          `gorm:"size:140;index;not null" json:"item_code"`
	ItemName         string          `gorm:"size:140" json:"item_name"`
	Description      string          `gorm:"type:text" json:"description"`
	Uom              string          `gorm:"size:40" json:"uom"`
	StockUom         string          `gorm:"size:40" json:"stock_uom"`
	ConversionFactor decimal.Decimal `gorm:"type:decimal(20,6);default:1" json:"conversion_factor"`
	Qty              decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"qty"`
	Warehouse        string          `gorm:"size:140" json:"warehouse"`
	TargetWarehouse  string          `gorm:"size:140" json:"target_warehouse"`
	Project          string          `gorm:"size:140" json:"project"`
	ScheduleDate     *time.Time      `gorm:"type:date" json:"schedule_date"`
}

type StockEntry struct {
	ID                  int                       `gorm:"primary_key" json:"id"`
	BusinessId          string                    `gorm:"size:64;not null;uniqueIndex:idx_stock_entry_name,priority:1" json:"business_id"`
	Name                string                    `gorm:"size:140;not null;uniqueIndex:idx_stock_entry_name,priority:2" json:"name"`
	DocStatus           DocStatus                 `gorm:"column:docstatus;not null;default:0" json:"docstatus"`
	Company             string                    `gorm:"size:140" json:"company"`
	StockEntryType      StockEntryType            `gorm:"size:60;index" json:"stock_entry_type"`
	IsReturn            bool                      `gorm:"not null;default:false" json:"is_return"`
	ReturnAgainst       string                    `gorm:"size:140;index" json:"return_against"`
	GeOutboundReference string                    `gorm:"size:140" json:"ge_outbound_reference"`
	GeExternalTransfer  bool                      `gorm:"not null;default:false" json:"ge_external_transfer"`
	GatePass            string                    `gorm:"size:140;index" json:"gate_pass"`
	Supplier            string                    `gorm:"size:140" json:"supplier"`
	VehicleNo           string                    `gorm:"size:40" json:"vehicle_no"`
	DriverName          string                    `gorm:"size:140" json:"driver_name"`
	DriverContact       string                    `gorm:"size:40" json:"driver_contact"`
	PostingDate         *time.Time                `gorm:"type:date;index" json:"posting_date"`
	PostingTime         string                    `gorm:"size:8" json:"posting_time"`
	SetPostingTime      bool                      `gorm:"not null;default:false" json:"set_posting_time"`
	Items               []*StockEntryDetail       `gorm:"foreignKey:ParentId" json:"items"`
	DocReferences       []*StockEntryDocReference `gorm:"foreignKey:ParentId" json:"doc_references"`
	CreatedAt           time.Time                 `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time                 `gorm:"autoUpdateTime" json:"updated_at"`
}

type StockEntryDetail struct {
	ID                   int             `gorm:"primary_key" json:"id"`
	BusinessId           string          `gorm:"size:64;index;not null" json:"business_id"`
	ParentId             int             `gorm:"index;not null" json:"parent_id"`
	Name                 string          `gorm:"size:140;index;not null" json:"name"`
	Idx                  int             `json:"idx"`
	ItemCode             string          `gorm:"size:140;index;not null" json:"item_code"`
	ItemName             string          `gorm:"size:140" json:"item_name"`
	Description          string          `gorm:"type:text" json:"description"`
	Qty                  decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"qty"`
	TransferQty          decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"transfer_qty"`
	Uom                  string          `gorm:"size:40" json:"uom"`
	StockUom             string          `gorm:"size:40" json:"stock_uom"`
	ConversionFactor     decimal.Decimal `gorm:"type:decimal(20,6);default:1" json:"conversion_factor"`
	SWarehouse           string          `gorm:"column:s_warehouse;size:140" json:"s_warehouse"`
	TWarehouse           string          `gorm:"column:t_warehouse;size:140" json:"t_warehouse"`
	BasicRate            decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"basic_rate"`
	BasicAmount          decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"basic_amount"`
	ExpenseAccount       string          `gorm:"size:140" json:"expense_account"`
	CostCenter           string          `gorm:"size:140" json:"cost_center"`
	Project              string          `gorm:"size:140" json:"project"`
	SerialAndBatchBundle string          `gorm:"size:140" json:"serial_and_batch_bundle"`
	BatchNo              string          `gorm:"size:140" json:"batch_no"`
	SerialNo             string          `gorm:"type:text" json:"serial_no"`
}

// EffectiveTransferQty is transfer_qty, falling back to qty on rows that never set it.
func (d *StockEntryDetail) EffectiveTransferQty() decimal.Decimal {
	if d.TransferQty.IsZero() {
		return d.Qty
	}
	return d.TransferQty
}

type StockEntryDocReference struct {
	ID         int    `gorm:"primary_key" json:"id"`
	BusinessId string `gorm:"size:64;index;not null" json:"business_id"`
	ParentId   int    `gorm:"index;not null" json:"parent_id"`
	RefDoctype string `gorm:"size:60" json:"doctype"`
	Docname    string `gorm:"size:140" json:"docname"`
}

func (se *StockEntry) IsMaterialTransfer() bool {
	return se.StockEntryType == StockEntryTypeMaterialTransfer
}

// OriginalOutboundTransfer is the transfer this entry returns, or the explicit outbound link.
func (se *StockEntry) OriginalOutboundTransfer() string {
	if se.IsReturn {
		return se.ReturnAgainst
	}
	return se.GeOutboundReference
}

func (se *StockEntry) findItem(rowName string) *StockEntryDetail {
	for _, item := range se.Items {
		if item.Name == rowName {
			return item
		}
	}
	return nil
}

type PurchaseReceipt struct {
	ID                   int                    `gorm:"primary_key" json:"id"`
	BusinessId           string                 `gorm:"size:64;not null;uniqueIndex:idx_purchase_receipt_name,priority:1" json:"business_id"`
	Name                 string                 `gorm:"size:140;not null;uniqueIndex:idx_purchase_receipt_name,priority:2" json:"name"`
	DocStatus            DocStatus              `gorm:"column:docstatus;not null;default:0" json:"docstatus"`
	Company              string                 `gorm:"size:140" json:"company"`
	Supplier             string                 `gorm:"size:140;index" json:"supplier"`
	GatePass             string                 `gorm:"size:140;index" json:"gate_pass"`
	PostingDate          *time.Time             `gorm:"type:date;index" json:"posting_date"`
	SupplierDeliveryNote string                 `gorm:"size:140" json:"supplier_delivery_note"`
	IsSubcontracted      bool                   `gorm:"not null;default:false" json:"is_subcontracted"`
	SupplierWarehouse    string                 `gorm:"size:140" json:"supplier_warehouse"`
	Currency             string                 `gorm:"size:10" json:"currency"`
	ConversionRate       decimal.Decimal        `gorm:"type:decimal(20,9);default:1" json:"conversion_rate"`
	BuyingPriceList      string                 `gorm:"size:140" json:"buying_price_list"`
	PriceListCurrency    string                 `gorm:"size:10" json:"price_list_currency"`
	PlcConversionRate    decimal.Decimal        `gorm:"type:decimal(20,9);default:1" json:"plc_conversion_rate"`
	IgnorePricingRule    bool                   `gorm:"not null;default:false" json:"ignore_pricing_rule"`
	SetWarehouse         string                 `gorm:"size:140" json:"set_warehouse"`
	VehicleNo            string                 `gorm:"size:40" json:"vehicle_no"`
	DriverName           string                 `gorm:"size:140" json:"driver_name"`
	ContactFields        `gorm:"embedded"`
	Items                []*PurchaseReceiptItem `gorm:"foreignKey:ParentId" json:"items"`
	CreatedAt            time.Time              `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time              `gorm:"autoUpdateTime" json:"updated_at"`
}

type PurchaseReceiptItem struct {
	ID                  int             `gorm:"primary_key" json:"id"`
	BusinessId          string          `gorm:"size:64;index;not null" json:"business_id"`
	ParentId            int             `gorm:"index;not null" json:"parent_id"`
	Name                string          `gorm:"size:140;index;not null" json:"name"`
	Idx                 int             `json:"idx"`
	ItemCode            string          `gorm:"size:140;index;not null" json:"item_code"`
	ItemName            string          `gorm:"size:140" json:"item_name"`
	Description         string          `gorm:"type:text" json:"description"`
	ItemGroup           string          `gorm:"size:140" json:"item_group"`
	Brand               string          `gorm:"size:140" json:"brand"`
	Image               string          `gorm:"size:255" json:"image"`
	Uom                 string          `gorm:"size:40" json:"uom"`
	StockUom            string          `gorm:"size:40" json:"stock_uom"`
	ConversionFactor    decimal.Decimal `gorm:"type:decimal(20,6);default:1" json:"conversion_factor"`
	Qty                 decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"qty"`
	ReceivedQty         decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"received_qty"`
	StockQty            decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"stock_qty"`
	ReceivedStockQty    decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"received_stock_qty"`
	Rate                decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"rate"`
	PriceListRate       decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"price_list_rate"`
	BaseRate            decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"base_rate"`
	BasePriceListRate   decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"base_price_list_rate"`
	DiscountPercentage  decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"discount_percentage"`
	DiscountAmount      decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"discount_amount"`
	MarginType          string          `gorm:"size:40" json:"margin_type"`
	MarginRateOrAmount  decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"margin_rate_or_amount"`
	Warehouse           string          `gorm:"size:140" json:"warehouse"`
	FromWarehouse       string          `gorm:"size:140" json:"from_warehouse"`
	RejectedWarehouse   string          `gorm:"size:140" json:"rejected_warehouse"`
	ExpenseAccount      string          `gorm:"size:140" json:"expense_account"`
	CostCenter          string          `gorm:"size:140" json:"cost_center"`
	Project             string          `gorm:"size:140" json:"project"`
	ScheduleDate        *time.Time      `gorm:"type:date" json:"schedule_date"`
	MaterialRequest     string          `gorm:"size:140" json:"material_request"`
	MaterialRequestItem string          `gorm:"size:140" json:"material_request_item"`
	SalesOrder          string          `gorm:"size:140" json:"sales_order"`
	SalesOrderItem      string          `gorm:"size:140" json:"sales_order_item"`
	Bom                 string          `gorm:"size:140" json:"bom"`
	Manufacturer        string          `gorm:"size:140" json:"manufacturer"`
	ManufacturerPartNo  string          `gorm:"size:140" json:"manufacturer_part_no"`
	SupplierPartNo      string          `gorm:"size:140" json:"supplier_part_no"`
	IsFixedAsset        bool            `gorm:"not null;default:false" json:"is_fixed_asset"`
	AssetLocation       string          `gorm:"size:140" json:"asset_location"`
	AssetCategory       string          `gorm:"size:140" json:"asset_category"`
	ItemTaxTemplate     string          `gorm:"size:140" json:"item_tax_template"`
	GstTreatment        string          `gorm:"size:40" json:"gst_treatment"`
	ProductBundle       string          `gorm:"size:140" json:"product_bundle"`
	IsFreeItem          bool            `gorm:"not null;default:false" json:"is_free_item"`
	ApplyTds            bool            `gorm:"not null;default:false" json:"apply_tds"`
	PurchaseOrder       string          `gorm:"size:140;index" json:"purchase_order"`
	PurchaseOrderItem   string          `gorm:"size:140" json:"purchase_order_item"`
}

type SubcontractingReceipt struct {
	ID                               int                                    `gorm:"primary_key" json:"id"`
	BusinessId                       string                                 `gorm:"size:64;not null;uniqueIndex:idx_subcontracting_receipt_name,priority:1" json:"business_id"`
	Name                             string                                 `gorm:"size:140;not null;uniqueIndex:idx_subcontracting_receipt_name,priority:2" json:"name"`
	DocStatus                        DocStatus                              `gorm:"column:docstatus;not null;default:0" json:"docstatus"`
	Company                          string                                 `gorm:"size:140" json:"company"`
	Supplier                         string                                 `gorm:"size:140;index" json:"supplier"`
	GatePass                         string                                 `gorm:"size:140;index" json:"gate_pass"`
	PostingDate                      *time.Time                             `gorm:"type:date;index" json:"posting_date"`
	SupplierDeliveryNote             string                                 `gorm:"size:140" json:"supplier_delivery_note"`
	VehicleNo                        string                                 `gorm:"size:40" json:"vehicle_no"`
	SupplierWarehouse                string                                 `gorm:"size:140" json:"supplier_warehouse"`
	SetWarehouse                     string                                 `gorm:"size:140" json:"set_warehouse"`
	BillingAddress                   string                                 `gorm:"size:140" json:"billing_address"`
	BillingAddressDisplay            string                                 `gorm:"type:text" json:"billing_address_display"`
	Project                          string                                 `gorm:"size:140" json:"project"`
	CostCenter                       string                                 `gorm:"size:140" json:"cost_center"`
	LetterHead                       string                                 `gorm:"size:140" json:"letter_head"`
	SelectPrintHeading               string                                 `gorm:"size:140" json:"select_print_heading"`
	DistributeAdditionalCostsBasedOn string                                 `gorm:"size:40" json:"distribute_additional_costs_based_on"`
	PurchaseOrder                    string                                 `gorm:"size:140" json:"purchase_order"`
	ContactFields                    `gorm:"embedded"`
	Items                            []*SubcontractingReceiptItem           `gorm:"foreignKey:ParentId" json:"items"`
	AdditionalCosts                  []*SubcontractingReceiptAdditionalCost `gorm:"foreignKey:ParentId" json:"additional_costs"`
	CreatedAt                        time.Time                              `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt                        time.Time                              `gorm:"autoUpdateTime" json:"updated_at"`
}

type SubcontractingReceiptItem struct {
	ID                       int             `gorm:"primary_key" json:"id"`
	BusinessId               string          `gorm:"size:64;index;not null" json:"business_id"`
	ParentId                 int             `gorm:"index;not null" json:"parent_id"`
	Name                     string          `gorm:"size:140;index;not null" json:"name"`
	Idx                      int             `json:"idx"`
	ItemCode                 string          `gorm:"size:140;index;not null" json:"item_code"`
	ItemName                 string          `gorm:"size:140" json:"item_name"`
	Description              string          `gorm:"type:text" json:"description"`
	Brand                    string          `gorm:"size:140" json:"brand"`
	Image                    string          `gorm:"size:255" json:"image"`
	StockUom                 string          `gorm:"size:40" json:"stock_uom"`
	ConversionFactor         decimal.Decimal `gorm:"type:decimal(20,6);default:1" json:"conversion_factor"`
	Qty                      decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"qty"`
	ReceivedQty              decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"received_qty"`
	Rate                     decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"rate"`
	RmCostPerQty             decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"rm_cost_per_qty"`
	ServiceCostPerQty        decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"service_cost_per_qty"`
	AdditionalCostPerQty     decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"additional_cost_per_qty"`
	Warehouse                string          `gorm:"size:140" json:"warehouse"`
	RejectedWarehouse        string          `gorm:"size:140" json:"rejected_warehouse"`
	ExpenseAccount           string          `gorm:"size:140" json:"expense_account"`
	CostCenter               string          `gorm:"size:140" json:"cost_center"`
	Project                  string          `gorm:"size:140" json:"project"`
	ScheduleDate             *time.Time      `gorm:"type:date" json:"schedule_date"`
	Bom                      string          `gorm:"size:140" json:"bom"`
	IncludeExplodedItems     bool            `gorm:"not null;default:false" json:"include_exploded_items"`
	Manufacturer             string          `gorm:"size:140" json:"manufacturer"`
	ManufacturerPartNo       string          `gorm:"size:140" json:"manufacturer_part_no"`
	SubcontractingOrder      string          `gorm:"size:140;index" json:"subcontracting_order"`
	SubcontractingOrderItem  string          `gorm:"size:140" json:"subcontracting_order_item"`
	PurchaseOrder            string          `gorm:"size:140" json:"purchase_order"`
	PurchaseOrderItem        string          `gorm:"size:140" json:"purchase_order_item"`
}

type SubcontractingReceiptAdditionalCost struct {
	ID             int             `gorm:"primary_key" json:"id"`
	BusinessId     string          `gorm:"size:64;index;not null" json:"business_id"`
	ParentId       int             `gorm:"index;not null" json:"parent_id"`
	ExpenseAccount string          `gorm:"size:140" json:"expense_account"`
	Description    string          `gorm:"type:text" json:"description"`
	Amount         decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"amount"`
	BaseAmount     decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"base_amount"`
}

// ReceiptHeader is what the cancel guard and the receipt hooks need from either receipt type.
type ReceiptHeader struct {
	DocType   ReceiptType `json:"doctype"`
	Name      string      `json:"name"`
	DocStatus DocStatus   `json:"docstatus"`
	GatePass  string      `json:"gate_pass"`
}

type GstSettings struct {
	ID                   int             `gorm:"primary_key" json:"id"`
	BusinessId           string          `gorm:"size:64;uniqueIndex;not null" json:"business_id"`
	EWaybillThreshold    decimal.Decimal `gorm:"column:e_waybill_threshold;type:decimal(20,6);default:0" json:"e_waybill_threshold"`
	EnableEWaybillFromDn bool            `gorm:"column:enable_e_waybill_from_dn;not null;default:false" json:"enable_e_waybill_from_dn"`
	UpdatedAt            time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
