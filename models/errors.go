package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mmdatafocus/gate_entry/utils"
)

// ValidationError is a user-facing rejection. Handlers return it as HTTP 417.
type ValidationError struct {
	Title   string `json:"title,omitempty"`
	Message string `json:"error"`
}

func (e *ValidationError) Error() string { return e.Message }

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// PermissionError maps to HTTP 403.
type PermissionError struct {
	Message string
}

func (e *PermissionError) Error() string { return e.Message }

// NotFoundError wraps utils.ErrorRecordNotFound so callers can errors.Is on it.
type NotFoundError struct {
	DocType string
	Name    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.DocType, e.Name)
}

func (e *NotFoundError) Unwrap() error { return utils.ErrorRecordNotFound }

func IsNotFound(err error) bool {
	return errors.Is(err, utils.ErrorRecordNotFound)
}

type LinkedReceiptAction string

const (
	LinkedReceiptActionCancel LinkedReceiptAction = "cancel"
	LinkedReceiptActionAmend  LinkedReceiptAction = "amend"
)

// LinkedReceiptsError blocks cancel or amend while receipts still point at the pass.
type LinkedReceiptsError struct {
	Action   LinkedReceiptAction `json:"action"`
	Receipts []ReceiptHeader     `json:"receipts"`
}

func (e *LinkedReceiptsError) Title() string {
	if e.Action == LinkedReceiptActionAmend {
		return "Cannot Amend Gate Pass"
	}
	return "Cannot Cancel Gate Pass"
}

func (e *LinkedReceiptsError) Error() string {
	var sb strings.Builder
	if e.Action == LinkedReceiptActionAmend {
		sb.WriteString("Cannot amend this Gate Pass because the following receipt(s) were created from it:\n")
	} else {
		sb.WriteString("Cannot cancel this Gate Pass because the following receipt(s) are linked to it:\n")
	}
	for _, r := range e.Receipts {
		fmt.Fprintf(&sb, "• %s %s - Status: %s\n", r.DocType, r.Name, r.DocStatus)
	}
	sb.WriteString("\nAction Required:\n")
	if e.Action == LinkedReceiptActionAmend {
		sb.WriteString("To amend this Gate Pass, please follow these steps:\n")
		sb.WriteString("1. Cancel the linked receipt(s)\n")
		sb.WriteString("2. Cancel this Gate Pass\n")
		sb.WriteString("3. Create a new Gate Pass with the correct details\n")
		sb.WriteString("4. Create a new receipt from the new Gate Pass")
	} else {
		sb.WriteString("Please cancel the linked receipt(s) first, then you can cancel this Gate Pass.")
	}
	return sb.String()
}

// user-facing messages
const (
	msgReferenceRequired       = "Document Reference and Reference Number are required"
	msgNoPermissionAccess      = "You don't have permission to access %s"
	msgUnsupportedReference    = "Unsupported Document Reference: %s"
	msgReferenceNotSubmitted   = "Reference document %s must be submitted"
	msgStockEntryNoItems       = "Stock Entry %s does not have any items."
	msgNoItemsToDispatch       = "%s %s does not have any items to dispatch"
	msgAddAtLeastOneItem       = "Please add at least one item to the Gate Pass"
	msgDispatchedPositive      = "Dispatched quantity for item %s must be greater than zero"
	msgReceivedNegative        = "Received quantity for item %s cannot be negative"
	msgReceivedPositive        = "Please enter a received quantity greater than zero for at least one item."
	msgReceivedBeforeSubmit    = "Please enter a received quantity greater than zero for at least one item before submitting."
	msgCompanyMismatch         = "Company %s does not match reference document company %s"
	msgSupplierMismatch        = "Supplier does not match the reference document"
	msgItemNotInReference      = "Item %s is not part of the reference %s"
	msgDispatchedMustMatch     = "Dispatched quantity for item %s must match %s"
	msgMissingReferenceRows    = "Gate Pass is missing item rows for the reference document: %s"
	msgAllocationPositive      = "Quantity for item %s must be greater than zero."
	msgAllocationExceeded      = "Quantity for item %s exceeds remaining balance (%s)."
	msgDiscrepancyNegative     = "Lost/Damaged quantities cannot be negative."
	msgDiscrepancyExceeds      = "Total lost/damaged quantity cannot exceed movement quantity."
	msgComplianceMissing       = "Cannot submit Gate Pass because the following compliance documents are missing: %s"
	titleComplianceFailed      = "Compliance Validation Failed"
	msgAlreadySubmitted        = "Gate Pass %s is already submitted"
	msgCannotEditSubmitted     = "Cannot edit Gate Pass %s once it has been submitted or cancelled"
	msgOnlySubmittedCancelled  = "Only a submitted Gate Pass can be cancelled"
	msgCannotSubmitCancelled   = "Cannot submit cancelled Gate Pass %s"
	msgCannotDeleteSubmitted   = "Submitted Gate Pass %s cannot be deleted. Cancel it first"
	msgNoPermissionGatePass    = "You don't have permission to %s Gate Pass"
	msgNoPermissionCreate      = "You don't have permission to create %s"
	msgMustBeSubmittedFor      = "Gate Pass must be submitted before creating %s"
	msgReceiptAlreadyCreated   = "%s has already been created for this Gate Pass"
	msgNotForReference         = "This Gate Pass is not for a %s"
	msgOnlyInbound             = "This function is only available for inbound Gate Passes"
	msgNeedsOutboundTransfer   = "This Gate Pass must reference an outbound Material Transfer to create a return Stock Entry"
	msgNotLinkedToStockEntry   = "This Gate Pass is not linked to a Stock Entry"
	msgOutboundNotSubmitted    = "Outbound Stock Entry %s must be submitted"
	msgOutboundNotTransfer     = "Outbound Stock Entry %s must be a Material Transfer"
	msgOutboundItemMissing     = "Could not find corresponding item %s in outbound Stock Entry %s"
	msgOutboundItemWarehouses  = "Item %s in outbound Stock Entry must have both source and target warehouses"
	msgNoPositiveReceivedItems = "No items with positive received quantities found in Gate Pass"
	msgOrderItemMissing        = "%s Item %s not found"
)
