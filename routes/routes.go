package routes

import (
	"log"
	"os"

	"onboardbuddy/config"
	controller "onboardbuddy/controllers"
	"onboardbuddy/middleware"
	"onboardbuddy/models"
	"onboardbuddy/stores"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"gorm.io/gorm"
)

// Dependencies are the shared services every route group is built from.
type Dependencies struct {
	DB           *gorm.DB
	Config       config.Config
	Registry     *stores.Registry
	Storage      controller.ObjectStore
	Mailer       controller.Mailer
	LimitStorage fiber.Storage
}

func requestLogger() fiber.Handler {
	return logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	})
}

func SetupAuthRoutes(app *fiber.App, deps Dependencies) {
	authLogger := log.New(os.Stdout, "AUTH: ", log.Ldate|log.Ltime|log.Lshortfile)
	authController := controller.NewAuthController(deps.DB, deps.Config, authLogger)
	activationController := controller.NewActivationController(deps.DB, deps.Mailer, authLogger)

	auth := app.Group("/auth", requestLogger())

	// Public auth endpoints
	auth.Post("/register", authController.Register)
	auth.Post("/login", authController.Login)
	auth.Post("/refresh", authController.RefreshToken)
	auth.Post("/activate", activationController.Activate)

	auth.Get("/google", authController.GoogleOAuth)
	auth.Get("/google/callback", authController.GoogleOAuthCallback)

	protectedAuth := auth.Group("", middleware.Protected(deps.DB))
	protectedAuth.Post("/logout", authController.Logout)
	protectedAuth.Post("/change-password", authController.ChangePassword)
	protectedAuth.Get("/me", authController.GetCurrentUser)

	admin := app.Group("/admin", requestLogger(), middleware.Protected(deps.DB), middleware.RequireRole(models.RoleAdmin), middleware.RequirePermission("users:manage"))
	admin.Put("/users/:id/access", authController.UpdateUserAccess)

	// Activation codes are a premium feature
	activation := protectedAuth.Group("/activation-codes", middleware.RequirePremium(deps.DB))
	activation.Post("/", activationController.IssueCode)

	authLogger.Println("Authentication routes initialized successfully")
}

func SetupBillingRoutes(app *fiber.App, deps Dependencies) {
	billingLogger := log.New(os.Stdout, "BILLING: ", log.Ldate|log.Ltime|log.Lshortfile)
	subscriptionController := controller.NewSubscriptionController(deps.DB, deps.Config.StripePremiumPriceID, deps.Config.FrontendURL, billingLogger)

	// Stripe calls this without a user session
	app.Post("/billing/webhook", subscriptionController.HandleSubscriptionWebhook)

	billing := app.Group("/billing", requestLogger(), middleware.Protected(deps.DB))
	billing.Get("/subscription", subscriptionController.GetSubscription)
	billing.Post("/checkout", subscriptionController.CreateCheckoutSession)

	billingLogger.Println("Billing routes initialized successfully")
}

func SetupAPIRoutes(app *fiber.App, deps Dependencies) {
	newLogger := func(prefix string) *log.Logger {
		return log.New(os.Stdout, prefix, log.LstdFlags)
	}

	tagController := controller.NewTagController(deps.Registry, newLogger("TAGS: "))
	galleryController := controller.NewGalleryController(deps.Registry, newLogger("GALLERY: "))
	missionController := controller.NewMissionController(deps.Registry, newLogger("MISSIONS: "))
	taskController := controller.NewTaskController(deps.Registry, newLogger("TASKS: "))
	notificationController := controller.NewNotificationController(deps.Registry, newLogger("NOTIFY: "))
	employeeController := controller.NewEmployeeController(deps.Registry, newLogger("EMPLOYEES: "))
	imageController := controller.NewImageController(deps.Registry, deps.Storage, newLogger("IMAGES: "))
	settingsController := controller.NewSettingsController(deps.Registry, newLogger("SETTINGS: "))
	shareController := controller.NewShareController(deps.DB, deps.Registry, deps.Mailer, deps.Config.FrontendURL, newLogger("SHARE: "))
	eventsController := controller.NewEventsController(deps.Registry, newLogger("EVENTS: "))

	// Shared workflows are viewed without an account
	app.Get("/shared/:code", requestLogger(), shareController.ViewSharedWorkflow)

	// Registered before the logged group so the upgrade is not wrapped
	app.Get("/api/v1/events", middleware.Protected(deps.DB), eventsController.Upgrade, websocket.New(eventsController.Stream))

	api := app.Group("/api/v1", middleware.Protected(deps.DB), requestLogger())

	// Tag catalog
	tags := api.Group("/tags")
	tags.Get("/", tagController.GetTags)
	tags.Post("/", tagController.CreateTag)
	tags.Put("/:id", tagController.UpdateTag)
	tags.Delete("/:id", tagController.DeleteTag)
	tags.Post("/:id/usage", tagController.TrackUsage)

	// Gallery
	gallery := api.Group("/gallery")
	gallery.Get("/items", galleryController.GetItems)
	gallery.Post("/items", galleryController.CreateItem)
	gallery.Put("/items/reorder", galleryController.ReorderItems)
	gallery.Get("/items/:id", galleryController.GetItem)
	gallery.Put("/items/:id", galleryController.UpdateItem)
	gallery.Delete("/items/:id", galleryController.DeleteItem)
	gallery.Get("/tags", galleryController.GetVocabulary)
	gallery.Post("/tags", galleryController.AddVocabularyTag)
	gallery.Put("/tags/:tag", galleryController.RenameVocabularyTag)
	gallery.Delete("/tags/:tag", galleryController.DeleteVocabularyTag)

	// Missions
	missions := api.Group("/missions")
	missions.Get("/", missionController.GetMissions)
	missions.Post("/", missionController.CreateMission)
	missions.Post("/:id/refresh", missionController.RefreshProgress)
	missions.Get("/:id", missionController.GetMission)
	missions.Put("/:id", missionController.UpdateMission)
	missions.Delete("/:id", missionController.DeleteMission)

	// Tasks
	tasks := api.Group("/tasks")
	tasks.Get("/", taskController.GetTasks)
	tasks.Post("/", taskController.CreateTask)
	tasks.Get("/due-date", taskController.DueDate)
	tasks.Get("/:id", taskController.GetTask)
	tasks.Put("/:id", taskController.UpdateTask)
	tasks.Delete("/:id", taskController.DeleteTask)
	tasks.Post("/:id/toggle", taskController.ToggleTask)

	// Notifications
	notifications := api.Group("/notifications")
	notifications.Get("/", notificationController.GetNotifications)
	notifications.Post("/", notificationController.CreateNotification)
	notifications.Post("/read-all", notificationController.MarkAllAsRead)
	notifications.Post("/check-due-dates", notificationController.CheckDueDates)
	notifications.Delete("/", notificationController.ClearAll)
	notifications.Post("/:id/read", notificationController.MarkAsRead)
	notifications.Delete("/:id", notificationController.RemoveNotification)

	// Employees
	employees := api.Group("/employees")
	employees.Get("/", employeeController.GetEmployees)
	employees.Post("/", employeeController.CreateEmployee)
	employees.Get("/audit-logs", employeeController.GetAuditLogs)
	employees.Get("/:id", employeeController.GetEmployee)
	employees.Put("/:id", employeeController.UpdateEmployee)
	employees.Delete("/:id", employeeController.DeleteEmployee)
	employees.Post("/:id/restore", employeeController.RestoreEmployee)
	employees.Get("/:id/audit-logs", employeeController.GetAuditLogs)

	// Images
	images := api.Group("/images")
	images.Get("/", imageController.GetPreferences)
	images.Post("/", middleware.UploadRateLimiter(deps.Config.RateLimitUploads, deps.LimitStorage), imageController.Upload)
	images.Delete("/background", imageController.ResetWelcomeBackground)
	images.Post("/cleanup", imageController.CleanupOrphans)
	images.Delete("/:id", imageController.RemoveUploadedImage)

	// Settings and export
	settings := api.Group("/settings")
	settings.Get("/", settingsController.GetSettings)
	settings.Put("/", settingsController.UpdateSettings)
	settings.Post("/reset", settingsController.ResetSettings)
	api.Get("/export", settingsController.Export)

	// Sharing is a premium feature
	shares := api.Group("/share-links", middleware.RequirePremium(deps.DB))
	shares.Post("/", shareController.CreateShareLink)
	shares.Get("/", shareController.GetShareLinks)
	shares.Delete("/:code", shareController.RevokeShareLink)

	log.Println("API routes initialized successfully")
}

func SetupRoutes(app *fiber.App, deps Dependencies) {
	controller.InitStripe()

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	SetupAuthRoutes(app, deps)
	SetupBillingRoutes(app, deps)
	SetupAPIRoutes(app, deps)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})
}
