package web

import (
	"net/http"
	"strconv"

	"dreamsite/internal/apperr"
	"dreamsite/internal/moderation"

	"github.com/gin-gonic/gin"
)

const loadFailedMessage = "Failed to load testimonials"

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// getSession mounts the tab's moderation session on first use and returns its view.
func (s *Server) getSession(c *gin.Context) {
	mod := s.tab(c).Moderation
	if err := mod.Mount(callContext(c)); err != nil && !apperr.IsRemote(err) {
		fail(c, err, "", mod.View())
		return
	}
	c.JSON(http.StatusOK, mod.View())
}

// login answers 200 once authenticated, even when the first list load failed;
// the view then carries the error status.
func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	mod := s.tab(c).Moderation
	err := mod.Login(callContext(c), req.Email, req.Password)
	if err != nil && !(apperr.IsRemote(err) && mod.State() == moderation.Authenticated) {
		fail(c, err, "", mod.View())
		return
	}
	c.JSON(http.StatusOK, mod.View())
}

func (s *Server) logout(c *gin.Context) {
	mod := s.tab(c).Moderation
	if err := mod.Logout(callContext(c)); err != nil {
		fail(c, err, "", mod.View())
		return
	}
	c.JSON(http.StatusOK, mod.View())
}

func (s *Server) listTestimonials(c *gin.Context) {
	mod := s.tab(c).Moderation
	if err := mod.Reload(callContext(c)); err != nil {
		msg := ""
		if apperr.IsRemote(err) {
			msg = loadFailedMessage
		}
		fail(c, err, msg, mod.View())
		return
	}
	c.JSON(http.StatusOK, mod.View())
}

// deleteTestimonial requires ?confirm=true; the query flag is the
// moderator's answer to the confirmation prompt.
func (s *Server) deleteTestimonial(c *gin.Context) {
	confirmed, _ := strconv.ParseBool(c.Query("confirm"))
	confirm := moderation.ConfirmFunc(func(string) bool { return confirmed })

	mod := s.tab(c).Moderation
	if err := mod.Delete(callContext(c), c.Param("id"), confirm); err != nil {
		view := mod.View()
		msg := ""
		if apperr.IsRemote(err) {
			msg = view.Alert
		}
		fail(c, err, msg, view)
		return
	}
	c.JSON(http.StatusOK, mod.View())
}
