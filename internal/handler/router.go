package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/hallpass/school-portal-api/internal/middleware"
	"github.com/hallpass/school-portal-api/internal/service"
)

// Handlers bundles every endpoint group for route registration.
type Handlers struct {
	Auth          *AuthHandler
	Users         *UserHandler
	Subjects      *SubjectHandler
	Enrollments   *EnrollmentHandler
	Assignments   *AssignmentHandler
	Gradebook     *GradebookHandler
	Analytics     *AnalyticsHandler
	Attendance    *AttendanceHandler
	Schedule      *ScheduleHandler
	Dashboard     *DashboardHandler
	Notifications *NotificationHandler
	Reports       *ReportHandler
	Metrics       *MetricsHandler
}

// Register mounts every route under /api/v1 with the appropriate auth and
// role guards.
func (h *Handlers) Register(r *gin.Engine, authService *service.AuthService) {
	r.GET("/metrics", h.Metrics.Prometheus)

	v1 := r.Group("/api/v1")

	auth := v1.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/signup", h.Auth.Signup)
		auth.POST("/refresh", h.Auth.Refresh)
		auth.POST("/logout", middleware.JWT(authService), h.Auth.Logout)
		auth.GET("/me", middleware.JWT(authService), h.Auth.Me)
	}

	// EventSource clients cannot set headers, so the stream accepts the token
	// as a query parameter too; the handler itself rejects anonymous callers.
	v1.GET("/notifications/stream", middleware.OptionalJWT(authService), h.Notifications.Stream)

	protected := v1.Group("")
	protected.Use(middleware.JWT(authService))

	users := protected.Group("/users")
	{
		users.GET("", middleware.RBAC("ADMIN"), h.Users.List)
		users.POST("", middleware.RBAC("ADMIN"), h.Users.Create)
		users.GET("/:id", middleware.RBAC("ADMIN", "TEACHER", "SELF"), h.Users.Get)
		users.PUT("/:id", middleware.RBAC("ADMIN", "SELF"), h.Users.Update)
		users.DELETE("/:id", middleware.RBAC("ADMIN"), h.Users.Delete)
		users.POST("/:id/children", middleware.RBAC("ADMIN"), h.Users.LinkParent)
		users.GET("/:id/children", middleware.RBAC("ADMIN", "SELF"), h.Users.Children)
	}

	subjects := protected.Group("/subjects")
	{
		subjects.GET("", h.Subjects.List)
		subjects.POST("", middleware.RBAC("ADMIN"), h.Subjects.Create)
		subjects.GET("/:id", h.Subjects.Get)
		subjects.PUT("/:id", middleware.RBAC("ADMIN"), h.Subjects.Update)
		subjects.DELETE("/:id", middleware.RBAC("ADMIN"), h.Subjects.Delete)
		subjects.GET("/:id/roster", middleware.RBAC("ADMIN", "TEACHER"), h.Enrollments.Roster)
		subjects.GET("/:id/gradebook", middleware.RBAC("ADMIN", "TEACHER"), h.Gradebook.Matrix)
		subjects.PUT("/:id/gradebook", middleware.RBAC("TEACHER"), h.Gradebook.SetCell)
		subjects.GET("/:id/attendance", middleware.RBAC("ADMIN", "TEACHER"), h.Attendance.ForDate)
	}

	enrollments := protected.Group("/enrollments")
	{
		enrollments.POST("", middleware.RBAC("ADMIN", "TEACHER"), h.Enrollments.Enroll)
		enrollments.DELETE("", middleware.RBAC("ADMIN", "TEACHER"), h.Enrollments.Unenroll)
		enrollments.GET("/mine", middleware.RBAC("STUDENT"), h.Enrollments.MySubjects)
	}

	assignments := protected.Group("/assignments")
	{
		assignments.GET("", h.Assignments.List)
		assignments.POST("", middleware.RBAC("TEACHER"), h.Assignments.Create)
		assignments.GET("/:id", h.Assignments.Get)
		assignments.DELETE("/:id", middleware.RBAC("ADMIN", "TEACHER"), h.Assignments.Delete)
	}

	analytics := protected.Group("/analytics")
	{
		analytics.GET("/students/:id/prediction", middleware.RBAC("ADMIN", "TEACHER", "PARENT", "SELF"), h.Analytics.Prediction)
		analytics.GET("/subjects/:id/performance", middleware.RBAC("ADMIN", "TEACHER"), h.Analytics.ClassPerformance)
		analytics.GET("/attendance", h.Analytics.AttendancePatterns)
		analytics.GET("/system", middleware.RBAC("ADMIN"), h.Analytics.System)
		analytics.GET("/runtime", middleware.RBAC("ADMIN"), h.Metrics.Snapshot)
	}

	attendance := protected.Group("/attendance")
	{
		attendance.POST("", middleware.RBAC("TEACHER"), h.Attendance.Mark)
		attendance.GET("/students/:id", middleware.RBAC("ADMIN", "TEACHER", "PARENT", "SELF"), h.Attendance.StudentSummary)
	}

	schedule := protected.Group("/schedule")
	{
		schedule.GET("", h.Schedule.Week)
		schedule.POST("", middleware.RBAC("TEACHER"), h.Schedule.Create)
		schedule.DELETE("/:id", middleware.RBAC("TEACHER"), h.Schedule.Delete)
	}

	protected.GET("/dashboard", h.Dashboard.Dashboard)

	notifications := protected.Group("/notifications")
	{
		notifications.GET("", h.Notifications.List)
		notifications.PUT("/:id/read", h.Notifications.MarkRead)
		notifications.PUT("/read-all", h.Notifications.MarkAllRead)
	}

	reports := protected.Group("/reports")
	reports.Use(middleware.RBAC("ADMIN", "TEACHER"))
	{
		reports.POST("", h.Reports.Request)
		reports.GET("/:id", h.Reports.Status)
		reports.GET("/:id/download", h.Reports.Download)
	}
}
