package api

import "github.com/gin-gonic/gin"

// SetupRouter configures and returns a Gin engine instance.
func SetupRouter(h *Handler) *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", h.Health)

	apiV1 := r.Group("/api/v1")
	{
		// One route group per chat; every operation is scoped to its session.
		chat := apiV1.Group("/chat/:chat_id")
		{
			chat.POST("/start", h.Start)
			chat.POST("/key", h.SetKey)
			chat.POST("/model", h.SetModel)
			chat.GET("/model", h.GetModel)
			chat.GET("/status", h.GetStatus)
			chat.POST("/documents", h.UploadDocument)
			chat.DELETE("/documents", h.ClearDocuments)
			chat.POST("/questions", h.AskQuestion)
		}
	}

	return r
}
