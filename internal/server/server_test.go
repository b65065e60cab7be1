package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	accountdomain "github.com/smallbiznis/partita/internal/account/domain"
	accountrepo "github.com/smallbiznis/partita/internal/account/repository"
	accountservice "github.com/smallbiznis/partita/internal/account/service"
	fnrepo "github.com/smallbiznis/partita/internal/accountingfunction/repository"
	fnservice "github.com/smallbiznis/partita/internal/accountingfunction/service"
	auditrepo "github.com/smallbiznis/partita/internal/audit/repository"
	auditservice "github.com/smallbiznis/partita/internal/audit/service"
	"github.com/smallbiznis/partita/internal/authorization"
	"github.com/smallbiznis/partita/internal/config"
	counterpartyrepo "github.com/smallbiznis/partita/internal/counterparty/repository"
	counterpartyservice "github.com/smallbiznis/partita/internal/counterparty/service"
	"github.com/smallbiznis/partita/internal/observability"
	obsmetrics "github.com/smallbiznis/partita/internal/observability/metrics"
	openitemrepo "github.com/smallbiznis/partita/internal/openitem/repository"
	openitemservice "github.com/smallbiznis/partita/internal/openitem/service"
	postingrepo "github.com/smallbiznis/partita/internal/posting/repository"
	postingservice "github.com/smallbiznis/partita/internal/posting/service"
	reportingrepo "github.com/smallbiznis/partita/internal/reporting/repository"
	reportingservice "github.com/smallbiznis/partita/internal/reporting/service"
	"github.com/smallbiznis/partita/internal/seed"
	taxdomain "github.com/smallbiznis/partita/internal/tax/domain"
	taxrepo "github.com/smallbiznis/partita/internal/tax/repository"
	taxservice "github.com/smallbiznis/partita/internal/tax/service"
	"github.com/smallbiznis/partita/internal/testutil"
	vatrepo "github.com/smallbiznis/partita/internal/vatregister/repository"
	vatservice "github.com/smallbiznis/partita/internal/vatregister/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testAPI struct {
	engine    *gin.Engine
	db        *gorm.DB
	companyID snowflake.ID
	accounts  map[string]snowflake.ID
	taxCodeID snowflake.ID
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	node := testutil.NewNode(t)
	log := zap.NewNop()
	companyID := snowflake.ID(9100)
	require.NoError(t, seed.EnsureCompany(db, node, companyID, log))

	var accounts []accountdomain.Account
	require.NoError(t, db.Where("company_id = ?", companyID).Find(&accounts).Error)
	ids := make(map[string]snowflake.ID, len(accounts))
	for _, account := range accounts {
		ids[account.Code] = account.ID
	}
	var code taxdomain.TaxCode
	require.NoError(t, db.Where("company_id = ? AND code = ?", companyID, "22").First(&code).Error)

	audit := auditservice.NewService(auditservice.Params{DB: db, Log: log, GenID: node, Repo: auditrepo.Provide()})
	accountRepo := accountrepo.Provide()
	counterpartyRepo := counterpartyrepo.Provide()
	taxRepo := taxrepo.Provide()
	openItemRepo := openitemrepo.Provide()
	vatRepo := vatrepo.Provide()

	store := postingrepo.NewStore(postingrepo.StoreParams{
		DB:           db,
		Config:       config.Config{PostingLockTimeout: 2 * time.Second},
		Accounts:     accountRepo,
		Functions:    fnrepo.Provide(),
		OpenItems:    openItemRepo,
		VatRegister:  vatRepo,
		Counterparty: counterpartyservice.NewDirectory(counterpartyRepo),
		TaxRates:     taxservice.NewResolver(taxservice.ResolverParams{Repository: taxRepo}),
		Audit:        audit,
	})

	enforcer, err := authorization.NewEnforcer(db)
	require.NoError(t, err)

	engine := NewEngine(observability.Config{Environment: "test"}, obsmetrics.NewHTTPMetrics(obsmetrics.Config{}))
	NewServer(ServerParams{
		Gin:      engine,
		Cfg:      config.Config{Environment: "test"},
		AuthzSvc: authorization.NewService(authorization.Params{DB: db, Log: log, Enforcer: enforcer, AuditSvc: audit}),
		AuditSvc: audit,
		AccountSvc: accountservice.New(accountservice.Params{
			DB: db, Log: log, GenID: node, Repo: accountRepo, Audit: audit,
		}),
		FunctionSvc: fnservice.New(fnservice.Params{
			DB: db, Log: log, GenID: node, Repo: fnrepo.Provide(), Accounts: accountRepo, Audit: audit,
		}),
		CounterpartySvc: counterpartyservice.New(counterpartyservice.Params{
			DB: db, Log: log, GenID: node, Repo: counterpartyRepo, Accounts: accountRepo, Audit: audit,
		}),
		TaxSvc: taxservice.NewService(taxservice.ServiceParam{
			DB: db, Log: log, GenID: node, Repository: taxRepo, Audit: audit,
		}),
		PostingSvc: postingservice.New(postingservice.Params{
			Log: log, GenID: node, Store: store,
			Policy: config.NewStaticPostingPolicy(config.DefaultPostingPolicy()),
		}),
		OpenItemSvc:    openitemservice.New(openitemservice.Params{DB: db, Log: log, Repo: openItemRepo}),
		VatRegisterSvc: vatservice.New(vatservice.Params{DB: db, Log: log, Repo: vatRepo}),
		ReportingSvc: reportingservice.New(reportingservice.Params{
			DB: db, Log: log, Repo: reportingrepo.Provide(), Accounts: accountRepo,
		}),
	})

	return &testAPI{engine: engine, db: db, companyID: companyID, accounts: ids, taxCodeID: code.ID}
}

func (a *testAPI) do(t *testing.T, method, path, role string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderCompany, a.companyID.String())
	req.Header.Set(HeaderActor, "user-1")
	if role != "" {
		req.Header.Set(HeaderActorRole, role)
	}
	rec := httptest.NewRecorder()
	a.engine.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)

	rec := httptest.NewRecorder()
	api.engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIRequiresCompanyAndActor(t *testing.T) {
	api := newTestAPI(t)

	rec := httptest.NewRecorder()
	api.engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/accounts", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.Header.Set(HeaderCompany, "not-a-number")
	req.Header.Set(HeaderActor, "user-1")
	rec = httptest.NewRecorder()
	api.engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/accounts", "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRoleIsEnforcedPerRoute(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/accounts/tree", authorization.RoleViewer, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/postings", authorization.RoleViewer, map[string]any{})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", decodeError(t, rec).Type)

	rec = api.do(t, http.MethodPost, "/api/accounts", authorization.RoleAccountant, map[string]any{
		"kind": "mastro", "description": "Fondi", "nature": "liability",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAccountLifecycle(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/accounts", authorization.RoleController, map[string]any{
		"kind":        "sottoconto",
		"description": "Banca Popolare",
		"parent_id":   api.accounts["102.01"].String(),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID   string `json:"id"`
		Code string `json:"code"`
	}
	decodeData(t, rec, &created)
	assert.Equal(t, "102.01.002", created.Code)

	rec = api.do(t, http.MethodPost, "/api/accounts/"+created.ID+"/lock", authorization.RoleController, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/accounts?code_prefix=102.01.", authorization.RoleViewer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []struct {
		Code   string `json:"code"`
		Locked bool   `json:"locked"`
	}
	decodeData(t, rec, &listed)
	require.Len(t, listed, 2)
	assert.True(t, listed[1].Locked)

	rec = api.do(t, http.MethodDelete, "/api/accounts/"+created.ID, authorization.RoleController, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/accounts/"+created.ID, authorization.RoleViewer, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "account_not_found", decodeError(t, rec).Code)
}

func TestPurchasePostingOverHTTP(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/counterparties", authorization.RoleAccountant, map[string]any{
		"name":               "Carta Bianchi Spa",
		"payable_account_id": api.accounts["104.01.001"].String(),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var supplier struct {
		ID string `json:"id"`
	}
	decodeData(t, rec, &supplier)

	rec = api.do(t, http.MethodPost, "/api/postings", authorization.RoleAccountant, map[string]any{
		"function_code": "REG-FATT-ACQ",
		"header": map[string]any{
			"registration_date": "2025-04-02",
			"document_number":   "2025/77",
			"due_date":          "2025-05-01",
			"counterparty_id":   supplier.ID,
			"total_amount":      "610",
		},
		"lines": []map[string]any{
			{"account_id": api.accounts["105.01.001"].String(), "debit": "500", "credit": "0"},
			{"account_id": api.accounts["104.01.001"].String(), "debit": "0", "credit": "610"},
		},
		"vat": []map[string]any{
			{"tax_code_id": api.taxCodeID.String(), "taxable_base": "500", "tax_amount": "110"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var posted struct {
		EntryID        string   `json:"entry_id"`
		ProtocolNumber int64    `json:"protocol_number"`
		Category       string   `json:"category"`
		OpenItemIDs    []string `json:"open_item_ids"`
	}
	decodeData(t, rec, &posted)
	assert.Equal(t, int64(1), posted.ProtocolNumber)
	assert.NotEmpty(t, posted.Category)
	require.Len(t, posted.OpenItemIDs, 1)

	rec = api.do(t, http.MethodGet, "/api/postings/"+posted.EntryID, authorization.RoleViewer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail struct {
		AuthorID string            `json:"author_id"`
		Lines    []json.RawMessage `json:"lines"`
	}
	decodeData(t, rec, &detail)
	assert.Equal(t, "user-1", detail.AuthorID)
	assert.Len(t, detail.Lines, 3)

	rec = api.do(t, http.MethodGet, "/api/open-items?direction=payable&counterparty_id="+supplier.ID, authorization.RoleViewer, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var items []struct {
		ID     string          `json:"id"`
		Amount decimal.Decimal `json:"amount"`
		Status string          `json:"status"`
	}
	decodeData(t, rec, &items)
	require.Len(t, items, 1)
	assert.True(t, items[0].Amount.Equal(decimal.RequireFromString("610")))
	assert.Equal(t, "OPEN", items[0].Status)

	rec = api.do(t, http.MethodGet, "/api/vat-register?register=purchases&from=2025-04-01&to=2025-04-30", authorization.RoleViewer, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var register struct {
		TotalTaxAmount decimal.Decimal `json:"total_tax_amount"`
	}
	decodeData(t, rec, &register)
	assert.True(t, register.TotalTaxAmount.Equal(decimal.RequireFromString("110")))

	rec = api.do(t, http.MethodGet, "/api/reports/trial-balance?as_of=2025-12-31", authorization.RoleViewer, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var tb struct {
		TotalDebit  decimal.Decimal `json:"total_debit"`
		TotalCredit decimal.Decimal `json:"total_credit"`
	}
	decodeData(t, rec, &tb)
	assert.True(t, tb.TotalDebit.Equal(decimal.RequireFromString("610")))
	assert.True(t, tb.TotalCredit.Equal(tb.TotalDebit))
}

func TestPostingErrorsMapToStatus(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/postings", authorization.RoleAccountant, map[string]any{
		"function_code": "INCASSO",
		"header":        map[string]any{"registration_date": "2025-06-10", "total_amount": "10"},
		"lines": []map[string]any{
			{"account_id": api.accounts["102.01.001"].String(), "debit": "10", "credit": "0"},
			{"account_id": api.accounts["101.01.001"].String(), "debit": "0", "credit": "9"},
		},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	assert.Equal(t, "imbalanced_entry", decodeError(t, rec).Type)

	rec = api.do(t, http.MethodPost, "/api/postings", authorization.RoleAccountant, map[string]any{
		"function_code": "NOPE",
		"header":        map[string]any{"registration_date": "2025-06-10", "total_amount": "10"},
		"lines": []map[string]any{
			{"account_id": api.accounts["102.01.001"].String(), "debit": "10", "credit": "0"},
			{"account_id": api.accounts["101.01.001"].String(), "debit": "0", "credit": "10"},
		},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodPost, "/api/postings", authorization.RoleAccountant, map[string]any{
		"function_code": "INCASSO",
		"header":        map[string]any{"registration_date": "10/06/2025", "total_amount": "10"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeError(t, rec)
	assert.Equal(t, "validation_error", payload.Type)
	assert.Equal(t, "invalid_registration_date", payload.Code)

	var entries int64
	require.NoError(t, api.db.Table("journal_entries").Count(&entries).Error)
	assert.Zero(t, entries)
}

func TestAuditLogsRequireController(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/audit-logs", authorization.RoleAccountant, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/audit-logs?action=authorization.denied", authorization.RoleController, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var logs []struct {
		Action string `json:"action"`
	}
	decodeData(t, rec, &logs)
	require.Len(t, logs, 1)
	assert.Equal(t, "authorization.denied", logs[0].Action)
}
