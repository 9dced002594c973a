package models

import (
	"log"

	"github.com/mmdatafocus/gate_entry/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&GatePass{}, &GatePassItem{}, &GatePassJob{}, &NamingSeries{},
		&User{}, &Role{}, &RolePermission{},
		// ERP documents shared with the gate
		&PurchaseOrder{}, &PurchaseOrderItem{},
		&SubcontractingOrder{}, &SubcontractingOrderItem{}, &SubcontractingOrderAdditionalCost{},
		&SalesInvoice{}, &SalesInvoiceItem{},
		&DeliveryNote{}, &DeliveryNoteItem{},
		&StockEntry{}, &StockEntryDetail{}, &StockEntryDocReference{},
		&PurchaseReceipt{}, &PurchaseReceiptItem{},
		&SubcontractingReceipt{}, &SubcontractingReceiptItem{}, &SubcontractingReceiptAdditionalCost{},
		&GstSettings{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
