package handlers

import (
	"net/http"

	"github.com/Conceptual-Machines/battito/pkg/embedded"
	"github.com/gin-gonic/gin"
)

// Grammar serves the notation reference as plain text
func Grammar(c *gin.Context) {
	c.Data(http.StatusOK, "text/plain; charset=utf-8", embedded.GrammarTxt)
}
