package models

import (
	"context"
	"fmt"
	"time"

	"github.com/mmdatafocus/gate_entry/utils"
	"go.opentelemetry.io/otel/attribute"
)

// receiptPreconditions checks, in order, that gp is submitted, has no receipt of this kind
// yet and references the matching order type.
func receiptPreconditions(gp *GatePass, receipt ReceiptType, existing string, ref DocumentReference) error {
	if gp.DocStatus != DocStatusSubmitted {
		return validationErrorf(msgMustBeSubmittedFor, receipt)
	}
	if existing != "" {
		return validationErrorf(msgReceiptAlreadyCreated, receipt)
	}
	if gp.DocumentReference != ref {
		return validationErrorf(msgNotForReference, ref)
	}
	return nil
}

// CreatePurchaseReceipt drafts a Purchase Receipt for the received quantities of an
// inbound pass against a Purchase Order and links it back to the pass.
func (e *GatePassEngine) CreatePurchaseReceipt(ctx context.Context, gatePassName string) (*PurchaseReceipt, error) {
	ctx, span := e.startSpan(ctx, "GatePassEngine.CreatePurchaseReceipt", attribute.String("gate_pass", gatePassName))
	defer span.End()

	if err := e.requirePermission(ctx, string(ReceiptTypePurchaseReceipt), ActionCreate,
		fmt.Sprintf(msgNoPermissionCreate, ReceiptTypePurchaseReceipt)); err != nil {
		return nil, err
	}

	var pr *PurchaseReceipt
	err := e.Store.Transaction(ctx, func(ctx context.Context, tx DocumentStore) error {
		gp, err := tx.GetGatePass(ctx, gatePassName)
		if err != nil {
			return err
		}
		if err := receiptPreconditions(gp, ReceiptTypePurchaseReceipt, gp.PurchaseReceipt, DocumentReferencePurchaseOrder); err != nil {
			return err
		}
		po, err := tx.GetPurchaseOrder(ctx, gp.ReferenceNumber)
		if err != nil {
			return err
		}

		pr, err = buildPurchaseReceipt(gp, po)
		if err != nil {
			return err
		}
		if pr.Name, err = tx.NextName(ctx, purchaseReceiptSeries(e.now())); err != nil {
			return err
		}
		if err := tx.InsertPurchaseReceipt(ctx, pr); err != nil {
			return err
		}
		return tx.AdminUpdateGatePass(ctx, gp.Name, GatePassFieldUpdate{PurchaseReceipt: ptr(pr.Name)})
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return pr, nil
}

func buildPurchaseReceipt(gp *GatePass, po *PurchaseOrder) (*PurchaseReceipt, error) {
	pr := &PurchaseReceipt{
		DocStatus:            DocStatusDraft,
		Company:              gp.Company,
		Supplier:             gp.Supplier,
		GatePass:             gp.Name,
		PostingDate:          cloneTime(gp.GateEntryDate),
		SupplierDeliveryNote: gp.SupplierDeliveryNote,
		SupplierWarehouse:    po.SupplierWarehouse,
		Currency:             po.Currency,
		ConversionRate:       po.ConversionRate,
		BuyingPriceList:      po.BuyingPriceList,
		PriceListCurrency:    po.PriceListCurrency,
		PlcConversionRate:    po.PlcConversionRate,
		IgnorePricingRule:    po.IgnorePricingRule,
		SetWarehouse:         po.SetWarehouse,
		VehicleNo:            gp.VehicleNumber,
		DriverName:           gp.DriverName,
		ContactFields:        po.ContactFields,
	}

	rows := make(map[string]*PurchaseOrderItem, len(po.Items))
	for _, row := range po.Items {
		rows[row.Name] = row
	}

	for _, item := range gp.Items {
		poItem, ok := rows[item.OrderItemName]
		if !ok {
			return nil, validationErrorf(msgOrderItemMissing, DocumentReferencePurchaseOrder, item.OrderItemName)
		}
		received := item.ReceivedQty
		cf := oneIfZero(poItem.ConversionFactor)
		stockQty := received.Mul(cf)

		line := &PurchaseReceiptItem{
			ItemCode:            poItem.ItemCode,
			ItemName:            poItem.ItemName,
			Description:         poItem.Description,
			ItemGroup:           poItem.ItemGroup,
			Brand:               poItem.Brand,
			Image:               poItem.Image,
			Uom:                 poItem.Uom,
			StockUom:            poItem.StockUom,
			ConversionFactor:    cf,
			Qty:                 received,
			ReceivedQty:         received,
			StockQty:            stockQty,
			ReceivedStockQty:    stockQty,
			Rate:                poItem.Rate,
			PriceListRate:       poItem.PriceListRate,
			BaseRate:            poItem.BaseRate,
			BasePriceListRate:   poItem.BasePriceListRate,
			DiscountPercentage:  poItem.DiscountPercentage,
			DiscountAmount:      poItem.DiscountAmount,
			MarginType:          poItem.MarginType,
			MarginRateOrAmount:  poItem.MarginRateOrAmount,
			Warehouse:           utils.FirstNonEmpty(item.Warehouse, poItem.Warehouse),
			FromWarehouse:       poItem.FromWarehouse,
			ExpenseAccount:      poItem.ExpenseAccount,
			CostCenter:          poItem.CostCenter,
			Project:             poItem.Project,
			ScheduleDate:        cloneTime(poItem.ScheduleDate),
			MaterialRequest:     poItem.MaterialRequest,
			MaterialRequestItem: poItem.MaterialRequestItem,
			SalesOrder:          poItem.SalesOrder,
			SalesOrderItem:      poItem.SalesOrderItem,
			Bom:                 poItem.Bom,
			Manufacturer:        poItem.Manufacturer,
			ManufacturerPartNo:  poItem.ManufacturerPartNo,
			SupplierPartNo:      poItem.SupplierPartNo,
			IsFixedAsset:        poItem.IsFixedAsset,
			AssetLocation:       poItem.AssetLocation,
			AssetCategory:       poItem.AssetCategory,
			ItemTaxTemplate:     poItem.ItemTaxTemplate,
			GstTreatment:        poItem.GstTreatment,
			ProductBundle:       poItem.ProductBundle,
			IsFreeItem:          poItem.IsFreeItem,
			ApplyTds:            poItem.ApplyTds,
			PurchaseOrder:       gp.ReferenceNumber,
			PurchaseOrderItem:   item.OrderItemName,
		}
		if item.RejectedWarehouse != "" {
			line.RejectedWarehouse = item.RejectedWarehouse
		}
		pr.Items = append(pr.Items, line)
	}
	return pr, nil
}

// CreateSubcontractingReceipt drafts a Subcontracting Receipt for an inbound pass against a
// Subcontracting Order and links it back to the pass.
func (e *GatePassEngine) CreateSubcontractingReceipt(ctx context.Context, gatePassName string) (*SubcontractingReceipt, error) {
	ctx, span := e.startSpan(ctx, "GatePassEngine.CreateSubcontractingReceipt", attribute.String("gate_pass", gatePassName))
	defer span.End()

	if err := e.requirePermission(ctx, string(ReceiptTypeSubcontractingReceipt), ActionCreate,
		fmt.Sprintf(msgNoPermissionCreate, ReceiptTypeSubcontractingReceipt)); err != nil {
		return nil, err
	}

	var scr *SubcontractingReceipt
	err := e.Store.Transaction(ctx, func(ctx context.Context, tx DocumentStore) error {
		gp, err := tx.GetGatePass(ctx, gatePassName)
		if err != nil {
			return err
		}
		if err := receiptPreconditions(gp, ReceiptTypeSubcontractingReceipt, gp.SubcontractingReceipt, DocumentReferenceSubcontractingOrder); err != nil {
			return err
		}
		sco, err := tx.GetSubcontractingOrder(ctx, gp.ReferenceNumber)
		if err != nil {
			return err
		}

		scr, err = buildSubcontractingReceipt(gp, sco)
		if err != nil {
			return err
		}
		if scr.Name, err = tx.NextName(ctx, subcontractingReceiptSeries(e.now())); err != nil {
			return err
		}
		if err := tx.InsertSubcontractingReceipt(ctx, scr); err != nil {
			return err
		}
		return tx.AdminUpdateGatePass(ctx, gp.Name, GatePassFieldUpdate{SubcontractingReceipt: ptr(scr.Name)})
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return scr, nil
}

func buildSubcontractingReceipt(gp *GatePass, sco *SubcontractingOrder) (*SubcontractingReceipt, error) {
	scr := &SubcontractingReceipt{
		DocStatus:            DocStatusDraft,
		Company:              sco.Company,
		Supplier:             sco.Supplier,
		GatePass:             gp.Name,
		PostingDate:          cloneTime(gp.GateEntryDate),
		SupplierDeliveryNote: gp.SupplierDeliveryNote,
		VehicleNo:            gp.VehicleNumber,
	}
	// Header fields are copied only when the order has them.
	copyNonEmpty := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	copyNonEmpty(&scr.SupplierWarehouse, sco.SupplierWarehouse)
	copyNonEmpty(&scr.SetWarehouse, sco.SetWarehouse)
	copyNonEmpty(&scr.SupplierAddress, sco.SupplierAddress)
	copyNonEmpty(&scr.AddressDisplay, sco.AddressDisplay)
	copyNonEmpty(&scr.ContactPerson, sco.ContactPerson)
	copyNonEmpty(&scr.ContactDisplay, sco.ContactDisplay)
	copyNonEmpty(&scr.ContactMobile, sco.ContactMobile)
	copyNonEmpty(&scr.ContactEmail, sco.ContactEmail)
	copyNonEmpty(&scr.ShippingAddress, sco.ShippingAddress)
	copyNonEmpty(&scr.ShippingAddressDisplay, sco.ShippingAddressDisplay)
	copyNonEmpty(&scr.BillingAddress, sco.BillingAddress)
	copyNonEmpty(&scr.BillingAddressDisplay, sco.BillingAddressDisplay)
	copyNonEmpty(&scr.Project, sco.Project)
	copyNonEmpty(&scr.CostCenter, sco.CostCenter)
	copyNonEmpty(&scr.LetterHead, sco.LetterHead)
	copyNonEmpty(&scr.SelectPrintHeading, sco.SelectPrintHeading)
	copyNonEmpty(&scr.DistributeAdditionalCostsBasedOn, sco.DistributeAdditionalCostsBasedOn)
	copyNonEmpty(&scr.PurchaseOrder, sco.PurchaseOrder)

	rows := make(map[string]*SubcontractingOrderItem, len(sco.Items))
	for _, row := range sco.Items {
		rows[row.Name] = row
	}

	for _, item := range gp.Items {
		soItem, ok := rows[item.OrderItemName]
		if !ok {
			return nil, validationErrorf(msgOrderItemMissing, DocumentReferenceSubcontractingOrder, item.OrderItemName)
		}
		line := &SubcontractingReceiptItem{
			ItemCode:                soItem.ItemCode,
			ItemName:                soItem.ItemName,
			Description:             soItem.Description,
			Brand:                   soItem.Brand,
			Image:                   soItem.Image,
			StockUom:                soItem.StockUom,
			ConversionFactor:        oneIfZero(soItem.ConversionFactor),
			Qty:                     item.ReceivedQty,
			ReceivedQty:             item.ReceivedQty,
			Rate:                    soItem.Rate,
			RmCostPerQty:            soItem.RmCostPerQty,
			ServiceCostPerQty:       soItem.ServiceCostPerQty,
			AdditionalCostPerQty:    soItem.AdditionalCostPerQty,
			Warehouse:               utils.FirstNonEmpty(item.Warehouse, soItem.Warehouse),
			ExpenseAccount:          soItem.ExpenseAccount,
			CostCenter:              soItem.CostCenter,
			Project:                 soItem.Project,
			ScheduleDate:            cloneTime(soItem.ScheduleDate),
			Bom:                     soItem.Bom,
			IncludeExplodedItems:    soItem.IncludeExplodedItems,
			Manufacturer:            soItem.Manufacturer,
			ManufacturerPartNo:      soItem.ManufacturerPartNo,
			SubcontractingOrder:     gp.ReferenceNumber,
			SubcontractingOrderItem: item.OrderItemName,
			PurchaseOrder:           sco.PurchaseOrder,
			PurchaseOrderItem:       soItem.PurchaseOrderItem,
		}
		if item.RejectedWarehouse != "" {
			line.RejectedWarehouse = item.RejectedWarehouse
		}
		scr.Items = append(scr.Items, line)
	}

	for _, cost := range sco.AdditionalCosts {
		scr.AdditionalCosts = append(scr.AdditionalCosts, &SubcontractingReceiptAdditionalCost{
			ExpenseAccount: cost.ExpenseAccount,
			Description:    cost.Description,
			Amount:         cost.Amount,
			BaseAmount:     cost.BaseAmount,
		})
	}
	return scr, nil
}

// CreateReturnStockEntry drafts the Material Transfer that reverses the outbound transfer
// an inbound pass brought goods back against.
func (e *GatePassEngine) CreateReturnStockEntry(ctx context.Context, gatePassName string) (*StockEntry, error) {
	ctx, span := e.startSpan(ctx, "GatePassEngine.CreateReturnStockEntry", attribute.String("gate_pass", gatePassName))
	defer span.End()

	if err := e.requirePermission(ctx, string(DocumentReferenceStockEntry), ActionCreate,
		fmt.Sprintf(msgNoPermissionCreate, DocumentReferenceStockEntry)); err != nil {
		return nil, err
	}

	var se *StockEntry
	err := e.Store.Transaction(ctx, func(ctx context.Context, tx DocumentStore) error {
		gp, err := tx.GetGatePass(ctx, gatePassName)
		if err != nil {
			return err
		}
		switch {
		case gp.DocStatus != DocStatusSubmitted:
			return validationErrorf(msgMustBeSubmittedFor, DocumentReferenceStockEntry)
		case normalizeEntryType(gp.EntryType) != EntryTypeGateIn:
			return validationErrorf(msgOnlyInbound)
		case gp.OutboundMaterialTransfer == "":
			return validationErrorf(msgNeedsOutboundTransfer)
		case gp.ReturnMaterialTransfer != "":
			return validationErrorf(msgReceiptAlreadyCreated, DocumentReferenceStockEntry)
		case !gp.IsStockEntryReference():
			return validationErrorf(msgNotLinkedToStockEntry)
		}

		outbound, err := tx.GetStockEntry(ctx, gp.OutboundMaterialTransfer)
		if err != nil {
			return err
		}
		if outbound.DocStatus != DocStatusSubmitted {
			return validationErrorf(msgOutboundNotSubmitted, outbound.Name)
		}
		if !outbound.IsMaterialTransfer() {
			return validationErrorf(msgOutboundNotTransfer, outbound.Name)
		}

		se, err = buildReturnStockEntry(gp, outbound, e.now())
		if err != nil {
			return err
		}
		if se.Name, err = tx.NextName(ctx, stockEntrySeries(e.now())); err != nil {
			return err
		}
		if err := tx.InsertStockEntry(ctx, se); err != nil {
			return err
		}

		upd := GatePassFieldUpdate{
			ReturnMaterialTransfer: ptr(se.Name),
			StockEntry:             ptr(se.Name),
		}
		// A manual return keeps pointing at the outbound transfer.
		if !gp.ManualReturnFlow {
			upd.ReferenceNumber = ptr(se.Name)
		}
		return tx.AdminUpdateGatePass(ctx, gp.Name, upd)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return se, nil
}

func buildReturnStockEntry(gp *GatePass, outbound *StockEntry, now time.Time) (*StockEntry, error) {
	postingDate := cloneTime(gp.GateEntryDate)
	if postingDate == nil {
		d := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		postingDate = &d
	}
	se := &StockEntry{
		DocStatus:      DocStatusDraft,
		Company:        gp.Company,
		StockEntryType: StockEntryTypeMaterialTransfer,
		IsReturn:       true,
		ReturnAgainst:  outbound.Name,
		GatePass:       gp.Name,
		VehicleNo:      gp.VehicleNumber,
		DriverName:     gp.DriverName,
		DriverContact:  gp.DriverContact,
		PostingDate:    postingDate,
		PostingTime:    utils.FirstNonEmpty(gp.GateEntryTime, now.Format(time.TimeOnly)),
		SetPostingTime: true,
	}

	for _, item := range gp.Items {
		received := item.ReceivedQty
		if !received.IsPositive() {
			continue
		}
		var source *StockEntryDetail
		if item.OrderItemName != "" {
			source = outbound.findItem(item.OrderItemName)
		}
		if source == nil {
			return nil, validationErrorf(msgOutboundItemMissing, item.ItemCode, outbound.Name)
		}
		// goods come back from where they were sent
		from, to := source.TWarehouse, source.SWarehouse
		if from == "" || to == "" {
			return nil, validationErrorf(msgOutboundItemWarehouses, item.ItemCode)
		}

		cf := oneIfZero(item.ConversionFactor)
		rate := utils.FirstNonZero(item.Rate, source.BasicRate)
		amount := item.Amount
		if amount.IsZero() {
			amount = received.Mul(source.BasicRate)
		}
		se.Items = append(se.Items, &StockEntryDetail{
			ItemCode:             item.ItemCode,
			ItemName:             item.ItemName,
			Description:          item.Description,
			SWarehouse:           from,
			TWarehouse:           to,
			Qty:                  received,
			TransferQty:          received.Mul(cf),
			Uom:                  utils.FirstNonEmpty(item.Uom, item.StockUom),
			StockUom:             item.StockUom,
			ConversionFactor:     cf,
			CostCenter:           utils.FirstNonEmpty(item.CostCenter, source.CostCenter),
			Project:              utils.FirstNonEmpty(item.Project, source.Project),
			BasicRate:            rate,
			BasicAmount:          amount,
			ExpenseAccount:       source.ExpenseAccount,
			SerialAndBatchBundle: source.SerialAndBatchBundle,
			BatchNo:              source.BatchNo,
			SerialNo:             source.SerialNo,
		})
	}
	if len(se.Items) == 0 {
		return nil, validationErrorf(msgNoPositiveReceivedItems)
	}

	se.DocReferences = append(se.DocReferences, &StockEntryDocReference{
		RefDoctype: string(DocumentReferenceStockEntry),
		Docname:    outbound.Name,
	})
	return se, nil
}
