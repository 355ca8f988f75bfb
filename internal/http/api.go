package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"pdfmind/internal/auth"
	"pdfmind/internal/chat"
	"pdfmind/internal/domain"
	"pdfmind/internal/service"
)

const (
	tokenCookie = "token"
	userIDKey   = "userID"
)

// Options carries the handler wiring that is not a domain service.
type Options struct {
	JWTSecret      []byte
	TokenTTL       time.Duration
	MaxUploadBytes int64
	AllowedOrigin  string
	SecureCookies  bool
	CookieDomain   string
	Logger         *logrus.Logger
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users service.UserService
	docs  service.DocumentService
	chat  *chat.Assembler
	opts  Options
}

func NewHandler(users service.UserService, docs service.DocumentService, assembler *chat.Assembler, opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = service.DefaultMaxUploadBytes
	}
	return &Handler{
		users: users,
		docs:  docs,
		chat:  assembler,
		opts:  opts,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(h.corsMiddleware())

	api := router.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/signup", h.signup)
		authGroup.POST("/login", h.login)
		authGroup.POST("/logout", h.logout)
		authGroup.GET("/verify", h.verify)
	}

	upload := api.Group("/upload", h.requireAuth())
	{
		upload.POST("/pdfs", h.uploadPDF)
		upload.GET("/pdfs", h.listPDFs)
		upload.GET("/pdf/:id", h.getPDF)
		upload.PUT("/pdfs/:id/rename", h.renamePDF)
		upload.DELETE("/pdfs/:id", h.deletePDF)
	}

	chatGroup := api.Group("/chat", h.requireAuth())
	{
		chatGroup.POST("/ask", h.ask)
	}

	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

func (h *Handler) corsMiddleware() gin.HandlerFunc {
	origin := h.opts.AllowedOrigin
	return func(c *gin.Context) {
		// credentialed CORS: the cookie only travels with an exact origin
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := h.authenticatedUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

func (h *Handler) authenticatedUser(c *gin.Context) (int64, bool) {
	token, err := c.Cookie(tokenCookie)
	if err != nil || token == "" {
		return 0, false
	}
	userID, err := auth.Verify(token, h.opts.JWTSecret)
	if err != nil {
		return 0, false
	}
	return userID, true
}

func (h *Handler) setAuthCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(tokenCookie, token, maxAge, "/", h.opts.CookieDomain, h.opts.SecureCookies, true)
}

type signupRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required"`
}

func (h *Handler) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, service.ErrUserAlreadyExists) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "user already exists"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	if !h.issueSession(c, user.ID) {
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": userToResponse(user)})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid email or password"})
			return
		}
		h.serverError(c, "login", err)
		return
	}

	if !h.issueSession(c, user.ID) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userToResponse(user)})
}

func (h *Handler) issueSession(c *gin.Context, userID int64) bool {
	token, err := auth.Issue(userID, h.opts.JWTSecret, h.opts.TokenTTL)
	if err != nil {
		h.serverError(c, "issue token", err)
		return false
	}
	h.setAuthCookie(c, token, int(h.opts.TokenTTL.Seconds()))
	return true
}

func (h *Handler) logout(c *gin.Context) {
	h.setAuthCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *Handler) verify(c *gin.Context) {
	userID, ok := h.authenticatedUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userToResponse(user)})
}

func (h *Handler) uploadPDF(c *gin.Context) {
	userID := c.GetInt64(userIDKey)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "no file uploaded"})
		return
	}
	if fileHeader.Size > h.opts.MaxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"message": service.ErrFileTooLarge.Error()})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.serverError(c, "open upload", err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.opts.MaxUploadBytes+1))
	if err != nil {
		h.serverError(c, "read upload", err)
		return
	}

	doc, err := h.docs.Upload(c.Request.Context(), userID, fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidFile), errors.Is(err, service.ErrFileTooLarge):
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		default:
			h.serverError(c, "upload", err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "File uploaded successfully",
		"id":        doc.ID,
		"url":       doc.URL,
		"public_id": doc.StorageKey,
		"pages":     doc.Pages,
	})
}

func (h *Handler) listPDFs(c *gin.Context) {
	userID := c.GetInt64(userIDKey)

	docs, err := h.docs.List(c.Request.Context(), userID)
	if err != nil {
		h.serverError(c, "list documents", err)
		return
	}

	resp := make([]DocumentResponse, len(docs))
	for i := range docs {
		resp[i] = documentToResponse(docs[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getPDF(c *gin.Context) {
	userID := c.GetInt64(userIDKey)
	docID, ok := documentID(c)
	if !ok {
		return
	}

	doc, err := h.docs.Get(c.Request.Context(), userID, docID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "PDF not found"})
			return
		}
		h.serverError(c, "get document", err)
		return
	}
	c.JSON(http.StatusOK, documentToResponse(*doc))
}

type renameRequest struct {
	Title string `json:"title" binding:"required"`
}

func (h *Handler) renamePDF(c *gin.Context) {
	userID := c.GetInt64(userIDKey)
	docID, ok := documentID(c)
	if !ok {
		return
	}

	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "PDF id and new title required"})
		return
	}

	doc, err := h.docs.Rename(c.Request.Context(), userID, docID, req.Title)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "PDF not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "PDF renamed successfully", "title": doc.Title})
}

func (h *Handler) deletePDF(c *gin.Context) {
	userID := c.GetInt64(userIDKey)
	docID, ok := documentID(c)
	if !ok {
		return
	}

	if err := h.docs.Delete(c.Request.Context(), userID, docID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "PDF not found"})
			return
		}
		h.serverError(c, "delete document", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "PDF deleted successfully"})
}

type askRequest struct {
	PDFID    int64  `json:"pdfId" binding:"required"`
	Question string `json:"question" binding:"required"`
}

func (h *Handler) ask(c *gin.Context) {
	userID := c.GetInt64(userIDKey)

	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "pdfId and question are required"})
		return
	}

	result, err := h.chat.Ask(c.Request.Context(), userID, req.PDFID, req.Question)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "PDF not found"})
		case errors.Is(err, chat.ErrInvalidSource):
			c.JSON(http.StatusBadGateway, gin.H{"message": chat.ErrInvalidSource.Error()})
		case errors.Is(err, chat.ErrUpstream):
			h.opts.Logger.Errorf("chat ask: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{"message": "answer provider failed"})
		default:
			h.serverError(c, "chat ask", err)
		}
		return
	}

	if result.Answer != "" {
		c.JSON(http.StatusOK, gin.H{"answer": result.Answer})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "PDF text was extracted successfully.",
		"preview": result.Preview,
	})
}

func (h *Handler) serverError(c *gin.Context, op string, err error) {
	h.opts.Logger.Errorf("%s: %v", op, err)
	c.JSON(http.StatusInternalServerError, gin.H{"message": "Something went wrong!"})
}

func documentID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid PDF id"})
		return 0, false
	}
	return id, true
}

type UserResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type DocumentResponse struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	PublicID  string `json:"public_id"`
	Bytes     int64  `json:"bytes"`
	Pages     int    `json:"pages"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func userToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
	}
}

func documentToResponse(doc domain.Document) DocumentResponse {
	return DocumentResponse{
		ID:        doc.ID,
		Title:     doc.Title,
		URL:       doc.URL,
		PublicID:  doc.StorageKey,
		Bytes:     doc.Bytes,
		Pages:     doc.Pages,
		CreatedAt: doc.CreatedAt.Format(time.RFC3339),
		UpdatedAt: doc.UpdatedAt.Format(time.RFC3339),
	}
}
