package ui

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pratik-mahalle/tiergate/internal/auth"
	"github.com/pratik-mahalle/tiergate/internal/domain/chat"
	"github.com/pratik-mahalle/tiergate/internal/domain/gate"
	"github.com/pratik-mahalle/tiergate/internal/domain/plan"
	"github.com/pratik-mahalle/tiergate/internal/domain/subscription"
	"github.com/pratik-mahalle/tiergate/internal/domain/user"
)

func (s *Server) registerRoutes(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/", func(c *gin.Context) {
		if _, ok := s.sessionIdentity(c); ok {
			c.Redirect(http.StatusSeeOther, "/chat")
			return
		}
		c.Redirect(http.StatusSeeOther, "/login")
	})
	r.GET("/login", s.loginPage)
	r.POST("/login", s.login)
	r.POST("/register", s.register)
	r.POST("/logout", s.logout)

	authed := r.Group("/", s.requireSession())
	authed.GET("/chat", s.chatPage)
	authed.POST("/chat", s.send)
	authed.POST("/chat/reset", s.reset)
	authed.POST("/plan", s.switchPlan)
	authed.GET("/usage", s.usage)
}

func (s *Server) loginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{})
}

func (s *Server) login(c *gin.Context) {
	email := c.PostForm("email")
	rec, err := s.accounts.Authenticate(c.Request.Context(), email, c.PostForm("password"))
	if err != nil {
		status := http.StatusUnauthorized
		if !errors.Is(err, user.ErrInvalidCredentials) {
			status = http.StatusInternalServerError
		}
		c.HTML(status, "login.html", gin.H{"Error": describe(err), "Email": email})
		return
	}
	s.openSession(c, rec)
}

func (s *Server) register(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")
	if email == "" || len(password) < 8 {
		c.HTML(http.StatusBadRequest, "login.html", gin.H{
			"Error": "Enter an email and a password of at least 8 characters.",
			"Email": email,
		})
		return
	}

	rec, err := s.accounts.Register(c.Request.Context(), email, password)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, user.ErrAlreadyExists) {
			status = http.StatusConflict
		}
		c.HTML(status, "login.html", gin.H{"Error": describe(err), "Email": email})
		return
	}
	s.openSession(c, rec)
}

func (s *Server) openSession(c *gin.Context, rec *user.Record) {
	if err := s.startSession(c, auth.Identity{UserID: rec.ID, Email: rec.Email, Role: rec.Role}); err != nil {
		s.logger.ErrorWithErr(err, "Failed to start UI session")
		c.HTML(http.StatusInternalServerError, "login.html", gin.H{"Error": describe(err)})
		return
	}
	c.Redirect(http.StatusSeeOther, "/chat")
}

func (s *Server) logout(c *gin.Context) {
	if id, ok := s.sessionIdentity(c); ok {
		s.resetHistory(id.UserID)
	}
	s.endSession(c)
	c.Redirect(http.StatusSeeOther, "/login")
}

type chatView struct {
	Email           string
	Summary         *gate.PlanSummary
	Plans           []plan.Plan
	Modules         []plan.Module
	Module          plan.Module
	History         []chat.Message
	Error           string
	Notice          string
	AllowPlanSwitch bool
}

func (s *Server) view(ctx context.Context, id auth.Identity) (*chatView, error) {
	summary, err := s.gate.PlanSummary(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	return &chatView{
		Email:           id.Email,
		Summary:         summary,
		Plans:           s.gate.Plans(),
		Modules:         summary.ModuleAccess,
		History:         s.history(id.UserID),
		AllowPlanSwitch: s.opts.AllowPlanSwitch,
	}, nil
}

// render draws the chat page, adding problem as a banner
func (s *Server) render(c *gin.Context, status int, problem error, mutate func(*chatView)) {
	id := identity(c)
	v, err := s.view(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gate.ErrUserNotFound) {
			s.endSession(c)
			c.Redirect(http.StatusSeeOther, "/login")
			return
		}
		s.logger.With("user_id", id.UserID).ErrorWithErr(err, "Failed to load plan summary")
		c.HTML(http.StatusServiceUnavailable, "error.html", gin.H{"Error": describe(err)})
		return
	}
	if problem != nil {
		v.Error = describe(problem)
	}
	if mutate != nil {
		mutate(v)
	}
	c.HTML(status, "chat.html", v)
}

func (s *Server) chatPage(c *gin.Context) {
	s.render(c, http.StatusOK, nil, nil)
}

func (s *Server) send(c *gin.Context) {
	id := identity(c)
	text := strings.TrimSpace(c.PostForm("message"))
	if text == "" {
		s.render(c, http.StatusBadRequest, chat.ErrEmptyConversation, nil)
		return
	}
	module, err := plan.ParseModule(c.PostForm("module"))
	if err != nil {
		s.render(c, http.StatusBadRequest, err, nil)
		return
	}

	prompt := chat.Message{Role: chat.RoleUser, Content: text}
	reply, err := s.chat.Send(c.Request.Context(), chat.Request{
		UserID:   id.UserID,
		Module:   module,
		Messages: append(s.history(id.UserID), prompt),
	})
	if err != nil {
		s.render(c, statusFor(err), err, func(v *chatView) { v.Module = module })
		return
	}

	s.appendHistory(id.UserID, prompt, chat.Message{Role: chat.RoleAssistant, Content: reply.Text})
	c.Redirect(http.StatusSeeOther, "/chat")
}

func (s *Server) reset(c *gin.Context) {
	s.resetHistory(identity(c).UserID)
	c.Redirect(http.StatusSeeOther, "/chat")
}

func (s *Server) switchPlan(c *gin.Context) {
	if !s.opts.AllowPlanSwitch {
		s.render(c, http.StatusForbidden, errPlanSwitchDisabled, nil)
		return
	}
	id := identity(c)

	planID := plan.ID(c.PostForm("plan_id"))
	var d subscription.Duration
	if raw := c.PostForm("duration"); raw != "" {
		parsed, err := subscription.ParseDuration(raw)
		if err != nil {
			s.render(c, http.StatusBadRequest, err, nil)
			return
		}
		d = parsed
	}

	summary, err := s.gate.ChangePlan(c.Request.Context(), id.UserID, planID, d)
	if err != nil {
		s.render(c, statusFor(err), err, nil)
		return
	}
	s.logger.WithFields(map[string]interface{}{
		"user_id": id.UserID,
		"plan_id": summary.PlanID,
	}).Info("Plan switched from UI")
	s.render(c, http.StatusOK, nil, func(v *chatView) { v.Notice = "You are now on " + summary.PlanLabel + "." })
}

func (s *Server) usage(c *gin.Context) {
	summary, err := s.gate.PlanSummary(c.Request.Context(), identity(c).UserID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": describe(err)})
		return
	}
	c.JSON(http.StatusOK, summary)
}
