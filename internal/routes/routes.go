package routes

import (
	"clinic-server/internal/config"
	"clinic-server/internal/handlers"
	"clinic-server/internal/middleware"
	"clinic-server/internal/models"
	"clinic-server/internal/notify"
	"clinic-server/internal/queue"
	"clinic-server/internal/realtime"
	"clinic-server/internal/scheduling"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps carries the wired services the route handlers depend on.
type Deps struct {
	DB            *gorm.DB
	Cfg           *config.Config
	Scheduling    *scheduling.Service
	Slots         *scheduling.SlotCalculator
	Calendar      *scheduling.Calendar
	Queue         *queue.Engine
	Notifications *notify.Service
	Hub           *realtime.Hub
}

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, deps Deps) {
	authHandler := handlers.NewAuthHandler(deps.DB, deps.Cfg)
	userHandler := handlers.NewUserHandler(deps.DB)
	appointmentHandler := handlers.NewAppointmentHandler(deps.Scheduling, deps.Slots)
	queueHandler := handlers.NewQueueHandler(deps.Queue)
	scheduleHandler := handlers.NewScheduleHandler(deps.Calendar)
	notificationHandler := handlers.NewNotificationHandler(deps.Notifications)

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
		}
	}

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(deps.Cfg))
	{
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.GET("/profile", authHandler.GetProfile)
		}

		userRoutes := private.Group("/users")
		{
			// Doctor directory is visible to every authenticated user.
			userRoutes.GET("/doctors", userHandler.GetDoctors)
			userRoutes.GET("/:id", userHandler.GetUserByID)
		}

		appointmentRoutes := private.Group("/appointments")
		{
			// Role checks happen in the handler: patients book for
			// themselves, staff bookings start out confirmed.
			appointmentRoutes.POST("", appointmentHandler.CreateAppointment)
			appointmentRoutes.GET("", appointmentHandler.GetAppointments)
			appointmentRoutes.GET("/scheduled", appointmentHandler.GetScheduledAppointments)
			appointmentRoutes.GET("/missed", appointmentHandler.GetMissedAppointments)
			appointmentRoutes.GET("/priority", appointmentHandler.GetPriorityAppointments)
			appointmentRoutes.GET("/available-slots", appointmentHandler.GetAvailableSlots)
			appointmentRoutes.GET("/available-slots/:doctorId", appointmentHandler.GetAvailableSlots)

			appointmentRoutes.PATCH("/batch-status",
				middleware.RoleAuthMiddleware(models.RoleStaff, models.RoleAdmin, models.RoleDoctor),
				appointmentHandler.BatchUpdateStatus)

			appointmentRoutes.GET("/:id", appointmentHandler.GetAppointmentByID)
			appointmentRoutes.PUT("/:id", appointmentHandler.UpdateAppointment)
			appointmentRoutes.PATCH("/:id", appointmentHandler.UpdateAppointment)
			appointmentRoutes.PUT("/:id/confirm",
				middleware.RoleAuthMiddleware(models.RoleStaff, models.RoleAdmin, models.RoleDoctor),
				appointmentHandler.ConfirmAppointment)
			appointmentRoutes.PATCH("/:id/confirm",
				middleware.RoleAuthMiddleware(models.RoleStaff, models.RoleAdmin, models.RoleDoctor),
				appointmentHandler.ConfirmAppointment)
			appointmentRoutes.PUT("/:id/reschedule", appointmentHandler.RescheduleAppointment)
			appointmentRoutes.PATCH("/:id/reschedule", appointmentHandler.RescheduleAppointment)
			appointmentRoutes.PATCH("/:id/cancel", appointmentHandler.CancelAppointment)
			appointmentRoutes.PATCH("/:id/complete",
				middleware.RoleAuthMiddleware(models.RoleStaff, models.RoleAdmin, models.RoleDoctor),
				appointmentHandler.CompleteAppointment)
			appointmentRoutes.PATCH("/:id/missed",
				middleware.RoleAuthMiddleware(models.RoleStaff, models.RoleAdmin, models.RoleDoctor),
				appointmentHandler.MarkMissedAppointment)
			appointmentRoutes.PATCH("/:id/missed-reason",
				middleware.RoleAuthMiddleware(models.RoleStaff, models.RoleAdmin, models.RoleDoctor),
				appointmentHandler.UpdateMissedReason)
			// DELETE soft-cancels; the permanent variant hard-removes the
			// record and only accepts already-cancelled appointments.
			appointmentRoutes.DELETE("/:id", appointmentHandler.CancelAppointment)
			appointmentRoutes.DELETE("/:id/permanent",
				middleware.RoleAuthMiddleware(models.RoleStaff, models.RoleAdmin),
				appointmentHandler.DeleteAppointment)
		}

		queueRoutes := private.Group("/queue")
		{
			queueRoutes.POST("/join", queueHandler.JoinQueue)
			queueRoutes.GET("/doctor/:doctorId", queueHandler.GetDoctorQueue)
			queueRoutes.GET("/patient/status", queueHandler.GetPatientStatus)
			queueRoutes.POST("/call-next",
				middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleStaff, models.RoleAdmin),
				queueHandler.CallNext)
			queueRoutes.POST("/call-next/:doctorId",
				middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleStaff, models.RoleAdmin),
				queueHandler.CallNext)
			queueRoutes.POST("/sync-appointments",
				middleware.RoleAuthMiddleware(models.RoleStaff, models.RoleAdmin),
				queueHandler.SyncAppointments)
			queueRoutes.PATCH("/:id/complete",
				middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleStaff, models.RoleAdmin),
				queueHandler.CompleteQueueEntry)
			queueRoutes.PATCH("/:id/fast-track",
				middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleStaff, models.RoleAdmin),
				queueHandler.FastTrackQueueEntry)
			queueRoutes.PATCH("/:id/check-in", queueHandler.CheckInQueueEntry)
			queueRoutes.DELETE("/:id", queueHandler.RemoveQueueEntry)
		}

		scheduleRoutes := private.Group("/doctors/:doctorId/schedule")
		{
			scheduleRoutes.GET("", scheduleHandler.GetDoctorSchedule)
			scheduleRoutes.PUT("",
				middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleAdmin),
				scheduleHandler.SetDoctorSchedule)
		}

		notificationRoutes := private.Group("/notifications")
		{
			notificationRoutes.GET("", notificationHandler.GetNotifications)
			notificationRoutes.PATCH("/:id/read", notificationHandler.MarkNotificationRead)
		}

		// Realtime event stream. Clients join their user room after
		// connecting; see realtime.Hub.
		private.GET("/ws", deps.Hub.HandleConnect)
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}
