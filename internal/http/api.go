package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"postboard/internal/auth"
	"postboard/internal/domain"
	"postboard/internal/metrics"
	"postboard/internal/service"
	"postboard/internal/storage"
)

const (
	statusOK    = "ok"
	statusNotOK = "not ok"

	msgPostNotFound  = "A post with that ID does not exist."
	msgPostCreated   = "Successfully created the post."
	msgUsernameTaken = "That username is already taken"
	msgEmailTaken    = "That email is already in use"
	msgUserCreated   = "Successfully created your account!"
	msgLoggedIn      = "Successfully logged in."
	msgUploadsOff    = "Image uploads are not enabled."
	msgInternal      = "internal server error"
)

// ImageOptions controls the post image upload endpoint.
type ImageOptions struct {
	KeyPrefix string
	MaxBytes  int64
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users   service.UserService
	posts   service.PostService
	tokens  *service.TokenIssuer
	images  storage.ImageStore
	imgOpts ImageOptions
	log     logrus.FieldLogger
}

// NewHandler builds a Handler. images may be nil, in which case uploads answer 503.
func NewHandler(users service.UserService, posts service.PostService, tokens *service.TokenIssuer, images storage.ImageStore, imgOpts ImageOptions, log logrus.FieldLogger) *Handler {
	registerValidators()
	if imgOpts.MaxBytes <= 0 {
		imgOpts.MaxBytes = 5 << 20
	}
	return &Handler{
		users:   users,
		posts:   posts,
		tokens:  tokens,
		images:  images,
		imgOpts: imgOpts,
		log:     log,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestID(), accessLog(h.log), metrics.Middleware())

	basic := auth.Require(auth.NewBasicGuard(h.users), h.log)
	token := auth.Require(auth.NewTokenGuard(h.tokens, h.users), h.log)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": statusOK, "timestamp": time.Now().UTC().Format(time.RFC3339)})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/posts", h.listPosts)
	router.GET("/posts/:id", h.getPost)
	router.POST("/posts/create", token, h.createPost)
	router.POST("/posts/images", token, h.uploadImage)

	router.POST("/user/create", h.createUser)
	router.POST("/user/login", basic, h.login)
}

type createPostRequest struct {
	Title   string `json:"title" binding:"required,notblank"`
	Caption string `json:"caption" binding:"required,notblank"`
	ImgURL  string `json:"img_url" binding:"required,notblank"`
}

type createUserRequest struct {
	Username string `json:"username" binding:"required,notblank"`
	Email    string `json:"email" binding:"required,notblank,email"`
	Password string `json:"password" binding:"required,notblank"`
}

type PostResponse struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	ImageReference string `json:"image_reference"`
	Caption        string `json:"caption"`
	Author         string `json:"author"`
	CreatedAt      string `json:"created_at"`
}

type UserResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

type listPostsResponse struct {
	Status       string         `json:"status"`
	TotalResults int            `json:"total_results"`
	Posts        []PostResponse `json:"posts"`
}

type getPostResponse struct {
	Status       string       `json:"status"`
	TotalResults int          `json:"total_results"`
	Post         PostResponse `json:"post"`
}

type loginResponse struct {
	Status    string       `json:"status"`
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expires_at"`
	Message   string       `json:"message"`
}

type messageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (h *Handler) listPosts(c *gin.Context) {
	posts, err := h.posts.ListPosts(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := listPostsResponse{
		Status:       statusOK,
		TotalResults: len(posts),
		Posts:        make([]PostResponse, len(posts)),
	}
	for i := range posts {
		resp.Posts[i] = postToResponse(posts[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getPost(c *gin.Context) {
	post, err := h.posts.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, getPostResponse{
		Status:       statusOK,
		TotalResults: 1,
		Post:         postToResponse(*post),
	})
}

func (h *Handler) createPost(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		h.fail(c, errors.New("create post reached without an authenticated user"))
		return
	}

	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, bindingMessage(err))
		return
	}

	if _, err := h.posts.CreatePost(c.Request.Context(), user, req.Title, req.Caption, req.ImgURL); err != nil {
		h.fail(c, err)
		return
	}
	metrics.PostsCreated.Inc()

	c.JSON(http.StatusCreated, messageResponse{Status: statusOK, Message: msgPostCreated})
}

func (h *Handler) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, bindingMessage(err))
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	metrics.UsersCreated.Inc()
	h.log.WithFields(logrus.Fields{"user_id": user.ID, "request_id": c.GetString(auth.RequestIDKey)}).Info("account created")

	c.JSON(http.StatusCreated, messageResponse{Status: statusOK, Message: msgUserCreated})
}

func (h *Handler) login(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		h.fail(c, errors.New("login reached without an authenticated user"))
		return
	}

	token, expiresAt, err := h.tokens.Issue(user)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		Status:    statusOK,
		User:      userToResponse(*user),
		Token:     token,
		ExpiresAt: expiresAt.Format(time.RFC3339),
		Message:   msgLoggedIn,
	})
}

func (h *Handler) uploadImage(c *gin.Context) {
	if h.images == nil {
		h.fail(c, storage.ErrNotConfigured)
		return
	}
	user, ok := auth.CurrentUser(c)
	if !ok {
		h.fail(c, errors.New("upload reached without an authenticated user"))
		return
	}

	// room for multipart framing around the file itself
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.imgOpts.MaxBytes+(1<<20))
	header, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			tooLargeResponse(c)
			return
		}
		badRequest(c, "Multipart field image is required.")
		return
	}
	if header.Size > h.imgOpts.MaxBytes {
		tooLargeResponse(c)
		return
	}

	file, err := header.Open()
	if err != nil {
		h.fail(c, err)
		return
	}
	defer file.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		h.fail(c, err)
		return
	}
	head = head[:n]
	contentType := http.DetectContentType(head)
	if !strings.HasPrefix(contentType, "image/") {
		badRequest(c, "Uploaded file must be an image.")
		return
	}

	url, err := h.images.Put(c.Request.Context(), storage.Image{
		Key:         storage.ImageKey(h.imgOpts.KeyPrefix, user.ID, header.Filename, contentType),
		ContentType: contentType,
		Size:        header.Size,
		Body:        io.MultiReader(bytes.NewReader(head), file),
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": statusOK, "image_url": url})
}

// fail maps domain errors to their status codes; anything unrecognised is a 500.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPostNotFound):
		c.JSON(http.StatusNotFound, messageResponse{Status: statusNotOK, Message: msgPostNotFound})
	case errors.Is(err, service.ErrUsernameTaken):
		c.JSON(http.StatusBadRequest, messageResponse{Status: statusNotOK, Message: msgUsernameTaken})
	case errors.Is(err, service.ErrEmailTaken):
		c.JSON(http.StatusBadRequest, messageResponse{Status: statusNotOK, Message: msgEmailTaken})
	case errors.Is(err, service.ErrPasswordTooLong):
		badRequest(c, fmt.Sprintf("Field password must be at most %d bytes.", service.MaxPasswordBytes))
	case errors.Is(err, storage.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, messageResponse{Status: statusNotOK, Message: msgUploadsOff})
	default:
		_ = c.Error(err)
		h.log.WithFields(logrus.Fields{
			"request_id": c.GetString(auth.RequestIDKey),
			"path":       c.FullPath(),
		}).WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, messageResponse{Status: statusNotOK, Message: msgInternal})
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, messageResponse{Status: statusNotOK, Message: message})
}

func tooLargeResponse(c *gin.Context) {
	c.JSON(http.StatusRequestEntityTooLarge, messageResponse{Status: statusNotOK, Message: "Image is too large."})
}

func postToResponse(post domain.Post) PostResponse {
	return PostResponse{
		ID:             post.ID,
		Title:          post.Title,
		ImageReference: post.ImageReference,
		Caption:        post.Caption,
		Author:         post.AuthorName,
		CreatedAt:      post.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func userToResponse(user domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
	}
}
