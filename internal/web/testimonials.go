package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type submitRequest struct {
	Content string `json:"content"`
}

func (s *Server) getForm(c *gin.Context) {
	c.JSON(http.StatusOK, s.tab(c).Form.View())
}

func (s *Server) submitTestimonial(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	form := s.tab(c).Form
	if err := form.Submit(callContext(c), req.Content); err != nil {
		view := form.View()
		fail(c, err, view.Error, view)
		return
	}
	c.JSON(http.StatusCreated, form.View())
}
