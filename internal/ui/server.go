package ui

import (
	"embed"
	"html/template"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/pratik-mahalle/tiergate/internal/auth"
	"github.com/pratik-mahalle/tiergate/internal/domain/chat"
	"github.com/pratik-mahalle/tiergate/internal/domain/gate"
	"github.com/pratik-mahalle/tiergate/internal/domain/user"
	"github.com/pratik-mahalle/tiergate/internal/pkg/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

// maxHistory caps the turns kept per conversation
const maxHistory = 40

// Options configure the web UI
type Options struct {
	AllowPlanSwitch bool
	SecureCookies   bool
}

// Server is the single-process web UI. It renders server-side pages over the
// same gate, chat and account services the API uses.
type Server struct {
	accounts user.Service
	gate     gate.Service
	chat     chat.Service
	issuer   *auth.Issuer
	opts     Options
	logger   *logger.Logger

	mu            sync.Mutex
	conversations map[string][]chat.Message
}

// New creates the UI server
func New(accounts user.Service, g gate.Service, c chat.Service, issuer *auth.Issuer, opts Options, log *logger.Logger) *Server {
	return &Server{
		accounts:      accounts,
		gate:          g,
		chat:          c,
		issuer:        issuer,
		opts:          opts,
		logger:        log,
		conversations: make(map[string][]chat.Message),
	}
}

// Handler builds the gin engine serving every UI route
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog())

	tmpl := template.Must(template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html"))
	r.SetHTMLTemplate(tmpl)

	s.registerRoutes(r)
	return r
}

func (s *Server) history(userID string) []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]chat.Message(nil), s.conversations[userID]...)
}

func (s *Server) appendHistory(userID string, msgs ...chat.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := append(s.conversations[userID], msgs...)
	if len(h) > maxHistory {
		h = h[len(h)-maxHistory:]
	}
	s.conversations[userID] = h
}

func (s *Server) resetHistory(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conversations, userID)
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		entry := s.logger.Event("ui.request").WithFields(map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.FullPath(),
			"status": c.Writer.Status(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Error("UI request")
			return
		}
		entry.Debug("UI request")
	}
}
