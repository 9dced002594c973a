package models

type Identifier interface {
	GetId() int
}

// Named is keyed by document name for string dataloaders.
type Named interface {
	GetName() string
}

// each child row points back at one parent
type RelatedData interface {
	GetReferenceId() int
}

func (gp GatePass) GetId() int {
	return gp.ID
}

func (gp GatePass) GetName() string {
	return gp.Name
}

func (i GatePassItem) GetId() int {
	return i.ID
}

func (i GatePassItem) GetReferenceId() int {
	return i.GatePassId
}

func (se StockEntry) GetId() int {
	return se.ID
}

func (se StockEntry) GetName() string {
	return se.Name
}

func (d StockEntryDetail) GetReferenceId() int {
	return d.ParentId
}
