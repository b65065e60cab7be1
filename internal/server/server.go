package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/partita/internal/account"
	accountdomain "github.com/smallbiznis/partita/internal/account/domain"
	"github.com/smallbiznis/partita/internal/accountingfunction"
	fndomain "github.com/smallbiznis/partita/internal/accountingfunction/domain"
	"github.com/smallbiznis/partita/internal/audit"
	auditdomain "github.com/smallbiznis/partita/internal/audit/domain"
	"github.com/smallbiznis/partita/internal/authorization"
	"github.com/smallbiznis/partita/internal/config"
	"github.com/smallbiznis/partita/internal/counterparty"
	counterpartydomain "github.com/smallbiznis/partita/internal/counterparty/domain"
	"github.com/smallbiznis/partita/internal/observability"
	obsmiddleware "github.com/smallbiznis/partita/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/partita/internal/observability/metrics"
	obstracing "github.com/smallbiznis/partita/internal/observability/tracing"
	"github.com/smallbiznis/partita/internal/openitem"
	openitemdomain "github.com/smallbiznis/partita/internal/openitem/domain"
	"github.com/smallbiznis/partita/internal/posting"
	postingdomain "github.com/smallbiznis/partita/internal/posting/domain"
	"github.com/smallbiznis/partita/internal/reporting"
	reportingdomain "github.com/smallbiznis/partita/internal/reporting/domain"
	"github.com/smallbiznis/partita/internal/tax"
	taxdomain "github.com/smallbiznis/partita/internal/tax/domain"
	"github.com/smallbiznis/partita/internal/vatregister"
	vatdomain "github.com/smallbiznis/partita/internal/vatregister/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	audit.Module,
	account.Module,
	accountingfunction.Module,
	counterparty.Module,
	tax.Module,
	openitem.Module,
	vatregister.Module,
	posting.Module,
	reporting.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	authzSvc        authorization.Service
	auditSvc        auditdomain.Service
	accountSvc      accountdomain.Service
	functionSvc     fndomain.Service
	counterpartySvc counterpartydomain.Service
	taxSvc          taxdomain.Service
	postingSvc      postingdomain.Service
	openItemSvc     openitemdomain.Service
	vatRegisterSvc  vatdomain.Service
	reportingSvc    reportingdomain.Service
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	AuthzSvc        authorization.Service
	AuditSvc        auditdomain.Service
	AccountSvc      accountdomain.Service
	FunctionSvc     fndomain.Service
	CounterpartySvc counterpartydomain.Service
	TaxSvc          taxdomain.Service
	PostingSvc      postingdomain.Service
	OpenItemSvc     openitemdomain.Service
	VatRegisterSvc  vatdomain.Service
	ReportingSvc    reportingdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		authzSvc:        p.AuthzSvc,
		auditSvc:        p.AuditSvc,
		accountSvc:      p.AccountSvc,
		functionSvc:     p.FunctionSvc,
		counterpartySvc: p.CounterpartySvc,
		taxSvc:          p.TaxSvc,
		postingSvc:      p.PostingSvc,
		openItemSvc:     p.OpenItemSvc,
		vatRegisterSvc:  p.VatRegisterSvc,
		reportingSvc:    p.ReportingSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(CompanyContext())

	// -------- Chart of accounts --------
	api.POST("/accounts", s.authorize(authorization.ObjectAccount, authorization.ActionAccountCreate), s.CreateAccount)
	api.GET("/accounts", s.authorize(authorization.ObjectAccount, authorization.ActionAccountView), s.ListAccounts)
	api.GET("/accounts/tree", s.authorize(authorization.ObjectAccount, authorization.ActionAccountView), s.ListAccountTree)
	api.GET("/accounts/:id", s.authorize(authorization.ObjectAccount, authorization.ActionAccountView), s.GetAccount)
	api.PATCH("/accounts/:id", s.authorize(authorization.ObjectAccount, authorization.ActionAccountUpdate), s.UpdateAccount)
	api.DELETE("/accounts/:id", s.authorize(authorization.ObjectAccount, authorization.ActionAccountDelete), s.DeleteAccount)
	api.POST("/accounts/:id/move", s.authorize(authorization.ObjectAccount, authorization.ActionAccountMove), s.MoveAccount)
	api.POST("/accounts/:id/lock", s.authorize(authorization.ObjectAccount, authorization.ActionAccountLock), s.LockAccount)
	api.POST("/accounts/:id/unlock", s.authorize(authorization.ObjectAccount, authorization.ActionAccountLock), s.UnlockAccount)

	// -------- Accounting functions --------
	api.POST("/accounting-functions", s.authorize(authorization.ObjectAccountingFunction, authorization.ActionFunctionCreate), s.CreateFunction)
	api.GET("/accounting-functions", s.authorize(authorization.ObjectAccountingFunction, authorization.ActionFunctionView), s.ListFunctions)
	api.GET("/accounting-functions/:id", s.authorize(authorization.ObjectAccountingFunction, authorization.ActionFunctionView), s.GetFunction)
	api.PUT("/accounting-functions/:id", s.authorize(authorization.ObjectAccountingFunction, authorization.ActionFunctionUpdate), s.UpdateFunction)
	api.DELETE("/accounting-functions/:id", s.authorize(authorization.ObjectAccountingFunction, authorization.ActionFunctionDelete), s.DeleteFunction)

	// -------- Postings --------
	api.POST("/postings", s.authorize(authorization.ObjectPosting, authorization.ActionPostingCreate), s.CreatePosting)
	api.GET("/postings/:id", s.authorize(authorization.ObjectPosting, authorization.ActionPostingView), s.GetPosting)

	// -------- Open items and VAT --------
	api.GET("/open-items", s.authorize(authorization.ObjectOpenItem, authorization.ActionOpenItemView), s.ListOpenItems)
	api.GET("/open-items/:id", s.authorize(authorization.ObjectOpenItem, authorization.ActionOpenItemView), s.GetOpenItem)
	api.GET("/vat-register", s.authorize(authorization.ObjectVatRegister, authorization.ActionVatRegisterView), s.ListVatRegister)

	// -------- Reports --------
	reports := api.Group("/reports", s.authorize(authorization.ObjectReport, authorization.ActionReportView))
	reports.GET("/journal", s.GetJournal)
	reports.GET("/account-card", s.GetAccountCard)
	reports.GET("/trial-balance", s.GetTrialBalance)

	// -------- Directory --------
	api.POST("/counterparties", s.authorize(authorization.ObjectCounterparty, authorization.ActionCounterpartyCreate), s.CreateCounterparty)
	api.GET("/counterparties", s.authorize(authorization.ObjectCounterparty, authorization.ActionCounterpartyView), s.ListCounterparties)
	api.GET("/counterparties/:id", s.authorize(authorization.ObjectCounterparty, authorization.ActionCounterpartyView), s.GetCounterparty)
	api.GET("/counterparties/:id/open-items", s.authorize(authorization.ObjectOpenItem, authorization.ActionOpenItemView), s.GetCounterpartyHistory)

	api.POST("/tax-codes", s.authorize(authorization.ObjectTaxCode, authorization.ActionTaxCodeCreate), s.CreateTaxCode)
	api.GET("/tax-codes", s.authorize(authorization.ObjectTaxCode, authorization.ActionTaxCodeView), s.ListTaxCodes)

	api.GET("/audit-logs", s.authorize(authorization.ObjectAuditLog, authorization.ActionAuditLogView), s.ListAuditLogs)
}
