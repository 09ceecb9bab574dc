package routes

import (
	"sysinfo/internal/controllers"

	"github.com/gin-gonic/gin"
)

// RegisterStreamRoutes registers the WebSocket feed of newly stored samples
func RegisterStreamRoutes(r gin.IRoutes, stream *controllers.StreamController) {
	r.GET("/ws", stream.HandleStream)
}
