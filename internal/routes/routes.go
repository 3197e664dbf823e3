package routes

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"hrms-backend/internal/config"
	"hrms-backend/internal/handlers"
	"hrms-backend/internal/middleware"
	"hrms-backend/internal/models"
	"hrms-backend/internal/sms"
)

func Register(router *gin.Engine, database *gorm.DB, cfg config.Config, log zerolog.Logger) {
	router.Use(corsMiddleware(cfg.AllowedOriginsRaw))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "hrms-backend"})
	})

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	sender := sms.NewSender(log, cfg.AppEnv == "local" || cfg.AppEnv == "development")

	authHandler := handlers.NewAuthHandler(database, cfg, sender, log)
	companyHandler := handlers.NewCompanyHandler(database, log)
	employeeHandler := handlers.NewEmployeeHandler(database, log)
	incrementHandler := handlers.NewIncrementHandler(database, employeeHandler)
	attendanceHandler := handlers.NewAttendanceHandler(database, log)
	deviceImportHandler := handlers.NewDeviceImportHandler(database, log)
	locationHandler := handlers.NewLocationHandler(database, log)
	leaveHandler := handlers.NewLeaveHandler(database)
	advanceHandler := handlers.NewAdvanceHandler(database)
	customerHandler := handlers.NewCustomerHandler(database)
	productHandler := handlers.NewProductHandler(database)
	estimateHandler := handlers.NewEstimateHandler(database)
	invoiceHandler := handlers.NewInvoiceHandler(database)
	dashboardHandler := handlers.NewDashboardHandler(database)
	activityHandler := handlers.NewActivityHandler(database)
	superAdminHandler := handlers.NewSuperAdminHandler(database, cfg, log)

	staff := middleware.RequireAnyRole(models.RoleAdmin, models.RoleManager, models.RoleAccountant, models.RoleStaffMember)
	managers := middleware.RequireAnyRole(models.RoleAdmin, models.RoleManager)
	accountants := middleware.RequireAnyRole(models.RoleAdmin, models.RoleAccountant)
	anyone := middleware.RequireAnyRole(
		models.RoleAdmin, models.RoleManager, models.RoleAccountant,
		models.RoleEmployee, models.RoleStaffMember,
	)

	api := router.Group("/api")
	{
		api.POST("/auth/otp/send", authHandler.SendOTP)
		api.POST("/auth/otp/verify", authHandler.VerifyOTP)
		api.POST("/auth/select-role", authHandler.SelectRole)
		api.POST("/auth/refresh", authHandler.Refresh)
		api.POST("/auth/logout", authHandler.Logout)
	}

	protected := api.Group("/")
	protected.Use(
		middleware.AuthRequired(cfg.JwtSecret),
		middleware.BlockReadOnlyWrites(),
		middleware.ActivityLogger(database),
	)
	{
		protected.GET("/me", authHandler.Me)
		protected.GET("/dashboard", anyone, dashboardHandler.Stats)
		protected.GET("/dashboard/live-payroll", staff, dashboardHandler.LivePayroll)
		protected.GET("/activity", managers, activityHandler.List)

		protected.GET("/company", anyone, companyHandler.Info)
		protected.GET("/company/settings", staff, companyHandler.GetSettings)
		protected.PUT("/company/settings", managers, companyHandler.UpdateSettings)
		protected.GET("/company/settings/working-days", staff, companyHandler.WorkingDays)
		protected.GET("/company/holidays", anyone, companyHandler.ListHolidays)
		protected.POST("/company/holidays", managers, companyHandler.CreateHoliday)
		protected.DELETE("/company/holidays/:id", managers, companyHandler.DeleteHoliday)
		protected.GET("/company/logo", anyone, companyHandler.GetBranding)
		protected.PUT("/company/logo", managers, companyHandler.UploadBranding)

		protected.GET("/employees", staff, employeeHandler.List)
		protected.POST("/employees", managers, employeeHandler.Create)
		protected.POST("/employees/bulk", managers, employeeHandler.BulkImport)
		protected.PUT("/employees/:id", managers, employeeHandler.Update)
		protected.DELETE("/employees/:id", managers, employeeHandler.Delete)
		protected.POST("/employees/:id/reactivate", managers, employeeHandler.Reactivate)
		protected.GET("/employees/:id/increments", managers, employeeHandler.ListIncrements)

		protected.GET("/increments", managers, incrementHandler.List)
		protected.POST("/increments", managers, incrementHandler.Create)
		protected.PATCH("/increments/:id/status", managers, incrementHandler.UpdateStatus)
		protected.DELETE("/increments/:id", managers, incrementHandler.Delete)

		protected.GET("/attendance", anyone, attendanceHandler.List)
		protected.POST("/attendance", managers, attendanceHandler.Create)
		protected.POST("/attendance/bulk", managers, attendanceHandler.BulkSave)
		protected.PUT("/attendance/:id", managers, attendanceHandler.Update)
		protected.PATCH("/attendance/:id/status", managers, attendanceHandler.UpdateStatus)
		protected.DELETE("/attendance/:id", managers, attendanceHandler.Delete)
		protected.GET("/attendance/deleted", managers, attendanceHandler.ListDeleted)
		protected.GET("/attendance/history/:employeeId", anyone, attendanceHandler.History)
		protected.POST("/attendance/checkin", anyone, attendanceHandler.CheckIn)
		protected.POST("/attendance/checkout", anyone, attendanceHandler.CheckOut)
		protected.POST("/attendance/mark", anyone, attendanceHandler.MarkWithLocation)

		protected.POST("/attendance/device-import/parse", managers, deviceImportHandler.Parse)
		protected.POST("/attendance/device-import/commit", managers, deviceImportHandler.Commit)

		protected.POST("/location/sessions", anyone, locationHandler.Start)
		protected.GET("/location/sessions/active", anyone, locationHandler.Active)
		protected.POST("/location/sessions/:id/samples", anyone, locationHandler.AddSample)
		protected.POST("/location/sessions/:id/stop", anyone, locationHandler.Stop)
		protected.GET("/location/sessions/:id/samples", staff, locationHandler.ListSamples)

		protected.GET("/leaves", anyone, leaveHandler.List)
		protected.POST("/leaves", anyone, leaveHandler.Create)
		protected.PATCH("/leaves/:id/status", managers, leaveHandler.UpdateStatus)
		protected.DELETE("/leaves/:id", anyone, leaveHandler.Delete)

		protected.GET("/advances", anyone, advanceHandler.List)
		protected.POST("/advances", anyone, advanceHandler.Create)
		protected.PATCH("/advances/:id/status", managers, advanceHandler.UpdateStatus)
		protected.DELETE("/advances/:id", anyone, advanceHandler.Delete)
	}

	// Invoicing endpoints exist only for tenants with the feature turned on.
	invoicing := protected.Group("/")
	invoicing.Use(requireInvoicing(database))
	{
		invoicing.GET("/customers", accountants, customerHandler.List)
		invoicing.GET("/customers/deleted", accountants, customerHandler.ListDeleted)
		invoicing.GET("/customers/:id", accountants, customerHandler.Get)
		invoicing.POST("/customers", accountants, customerHandler.Create)
		invoicing.PUT("/customers/:id", accountants, customerHandler.Update)
		invoicing.DELETE("/customers/:id", accountants, customerHandler.Delete)
		invoicing.POST("/customers/:id/restore", accountants, customerHandler.Restore)

		invoicing.GET("/product-categories", accountants, productHandler.ListCategories)
		invoicing.POST("/product-categories", accountants, productHandler.CreateCategory)
		invoicing.DELETE("/product-categories/:id", accountants, productHandler.DeleteCategory)
		invoicing.GET("/products", accountants, productHandler.List)
		invoicing.POST("/products", accountants, productHandler.Create)
		invoicing.PUT("/products/:id", accountants, productHandler.Update)
		invoicing.DELETE("/products/:id", accountants, productHandler.Delete)

		invoicing.GET("/estimates", accountants, estimateHandler.List)
		invoicing.GET("/estimates/:id", accountants, estimateHandler.Get)
		invoicing.POST("/estimates", accountants, estimateHandler.Create)
		invoicing.PUT("/estimates/:id", accountants, estimateHandler.Update)
		invoicing.PATCH("/estimates/:id/status", accountants, estimateHandler.UpdateStatus)
		invoicing.POST("/estimates/:id/convert", accountants, estimateHandler.Convert)
		invoicing.DELETE("/estimates/:id", accountants, estimateHandler.Delete)
		invoicing.POST("/estimates/:id/restore", accountants, estimateHandler.Restore)

		invoicing.GET("/invoices", accountants, invoiceHandler.List)
		invoicing.GET("/invoices/:id", accountants, invoiceHandler.Get)
		invoicing.POST("/invoices", accountants, invoiceHandler.Create)
		invoicing.PUT("/invoices/:id", accountants, invoiceHandler.Update)
		invoicing.PATCH("/invoices/:id/status", accountants, invoiceHandler.UpdateStatus)
		invoicing.DELETE("/invoices/:id", accountants, invoiceHandler.Delete)
		invoicing.POST("/invoices/:id/restore", accountants, invoiceHandler.Restore)
	}

	superAdmin := api.Group("/superadmin")
	superAdmin.Use(
		middleware.AuthRequired(cfg.JwtSecret),
		middleware.RequireRole(models.RoleSuperAdmin),
		middleware.ActivityLogger(database),
	)
	{
		superAdmin.GET("/companies", superAdminHandler.ListCompanies)
		superAdmin.POST("/companies", superAdminHandler.CreateCompany)
		superAdmin.PUT("/companies/:id", superAdminHandler.UpdateCompany)
		superAdmin.PATCH("/companies/:id/status", superAdminHandler.SetCompanyStatus)
		superAdmin.GET("/companies/:id/sms-gateway", superAdminHandler.GetGateway)
		superAdmin.PUT("/companies/:id/sms-gateway", superAdminHandler.UpsertGateway)
		superAdmin.POST("/impersonate", superAdminHandler.Impersonate)
		superAdmin.GET("/accounts", superAdminHandler.ListSuperAdmins)
		superAdmin.POST("/accounts", superAdminHandler.CreateSuperAdmin)
		superAdmin.DELETE("/accounts/:id", superAdminHandler.DeleteSuperAdmin)
		superAdmin.GET("/activity", activityHandler.List)
	}
}

// requireInvoicing hides the invoicing module from tenants that have not
// purchased it. Super admin impersonation tokens pass through the same check.
func requireInvoicing(database *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		companyID := c.GetString(middleware.ContextCompanyID)
		if companyID == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		var company models.Company
		if err := database.First(&company, "id = ?", companyID).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		if !company.InvoicingEnabled {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invoicing is not enabled"})
			return
		}
		c.Next()
	}
}

func corsMiddleware(allowed string) gin.HandlerFunc {
	origins := []string{}
	for _, origin := range strings.Split(allowed, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}

	allowAll := len(origins) == 0

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if allowAll {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			for _, allowedOrigin := range origins {
				if origin == allowedOrigin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					c.Writer.Header().Set("Vary", "Origin")
					break
				}
			}
		}

		c.Writer.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
