package domain

import "github.com/smallbiznis/partita/internal/ledgererr"

var (
	ErrInvalidCompany          = ledgererr.Validation("invalid_company")
	ErrInvalidAuthor           = ledgererr.Validation("invalid_author")
	ErrInvalidID               = ledgererr.Validation("invalid_entry_id")
	ErrInvalidFunctionCode     = ledgererr.Validation("invalid_function_code")
	ErrInvalidRegistrationDate = ledgererr.Validation("invalid_registration_date")
	ErrInvalidDocumentDate     = ledgererr.Validation("invalid_document_date")
	ErrInvalidDueDate          = ledgererr.Validation("invalid_due_date")
	ErrInvalidCounterparty     = ledgererr.Validation("invalid_counterparty_id")
	ErrInvalidTotal            = ledgererr.Validation("invalid_total_amount")
	ErrNoLines                 = ledgererr.Validation("lines_required")
	ErrInvalidAccount          = ledgererr.Validation("invalid_account_id")
	ErrInvalidAmount           = ledgererr.Validation("invalid_line_amount")
	ErrEmptyLine               = ledgererr.Validation("empty_line")
	ErrAccountNotPostable      = ledgererr.Validation("account_not_postable")
	ErrVatRequired             = ledgererr.Validation("vat_required")
	ErrVatNotAllowed           = ledgererr.Validation("vat_not_allowed")
	ErrInvalidTaxCode          = ledgererr.Validation("invalid_tax_code_id")
	ErrInvalidVatAmount        = ledgererr.Validation("invalid_vat_amount")
	ErrMissingVatTemplate      = ledgererr.Validation("vat_template_missing")
	ErrInvalidCloseItem        = ledgererr.Validation("invalid_close_item_id")
	ErrCloseNotAllowed         = ledgererr.Validation("close_items_not_allowed")
	ErrCounterpartyRequired    = ledgererr.Validation("counterparty_required")
	ErrCounterpartyAccount     = ledgererr.Validation("counterparty_account_missing")
	ErrCounterpartyLine        = ledgererr.Validation("counterparty_line_missing")

	ErrFunctionNotFound = ledgererr.NotFound("accounting_function_not_found")
	ErrAccountNotFound  = ledgererr.NotFound("account_not_found")
	ErrEntryNotFound    = ledgererr.NotFound("journal_entry_not_found")

	ErrAccountLocked = ledgererr.ReferentialIntegrity("account_locked")

	ErrProtocolContention = ledgererr.Concurrency("protocol_contention")
	ErrOpenItemContention = ledgererr.Concurrency("open_item_contention")

	ErrImbalanced = ledgererr.Imbalanced("imbalanced_entry")
)
