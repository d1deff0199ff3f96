package session

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/lumina-interior/backend/internal/compare"
	"github.com/zhouzirui/lumina-interior/backend/internal/imaging"
	sessionService "github.com/zhouzirui/lumina-interior/backend/internal/service/session"
	"github.com/zhouzirui/lumina-interior/backend/pkg/utils"
)

// DownloadFilename is the attachment name of the saved design.
const DownloadFilename = "lumina-design.png"

// multipartOverhead is the slack allowed on top of the photo for form framing.
const multipartOverhead = 1 << 20

// Handler 会话的HTTP处理器
type Handler struct {
	sessions   *sessionService.Service
	maxUpload  int64
	chatLimits func(http.Handler) http.Handler
	logger     *zap.Logger
}

// Options 会话处理器配置
type Options struct {
	MaxUploadBytes int64
	// ChatLimiter wraps the message endpoint; nil leaves it unlimited.
	ChatLimiter func(http.Handler) http.Handler
	Logger      *zap.Logger
}

// New 创建会话处理器
func New(sessions *sessionService.Service, opts Options) *Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if opts.ChatLimiter == nil {
		opts.ChatLimiter = func(next http.Handler) http.Handler { return next }
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Handler{
		sessions:   sessions,
		maxUpload:  opts.MaxUploadBytes,
		chatLimits: opts.ChatLimiter,
		logger:     opts.Logger.Named("handler.session"),
	}
}

// RegisterRoutes 注册会话相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions", h.handleCreate)
	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.Put("/photo", h.handleReplacePhoto)
		r.Post("/style", h.handleSelectStyle)
		r.Get("/messages", h.handleTranscript)
		r.With(h.chatLimits).Post("/messages", h.handleSendMessage)
		r.Post("/slider", h.handleSlider)
		r.Get("/compare.png", h.handleCompare)
		r.Get("/download", h.handleDownload)
	})
}

// handleCreate 上传照片并创建会话
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	photo, ok := h.readPhoto(w, r)
	if !ok {
		return
	}

	session, err := h.sessions.Create(r.Context(), photo)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, session)
}

// handleGet 获取会话快照
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

// handleReplacePhoto 替换原始照片，重置会话
func (h *Handler) handleReplacePhoto(w http.ResponseWriter, r *http.Request) {
	photo, ok := h.readPhoto(w, r)
	if !ok {
		return
	}

	session, err := h.sessions.ReplacePhoto(r.Context(), chi.URLParam(r, "sessionID"), photo)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

// handleSelectStyle 选择风格并生成设计
func (h *Handler) handleSelectStyle(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		StyleID string `json:"styleId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.StyleID == "" {
		utils.RespondError(w, http.StatusBadRequest, "styleId is required")
		return
	}

	session, err := h.sessions.SelectStyle(r.Context(), chi.URLParam(r, "sessionID"), payload.StyleID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

// handleTranscript 返回对话记录
func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	messages, err := h.sessions.Transcript(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, messages)
}

// handleSendMessage 发送聊天消息
func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.sessions.SendMessage(r.Context(), chi.URLParam(r, "sessionID"), payload.Text)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, result)
}

// handleSlider 更新对比滑块
func (h *Handler) handleSlider(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		PointerX       *float64 `json:"pointerX"`
		ContainerLeft  float64  `json:"containerLeft"`
		ContainerWidth *float64 `json:"containerWidth"`
		Percent        *float64 `json:"percent"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := chi.URLParam(r, "sessionID")
	var (
		state sessionService.SliderState
		err   error
	)
	switch {
	case payload.Percent != nil:
		state, err = h.sessions.SetSliderPercent(r.Context(), id, *payload.Percent)
	case payload.PointerX != nil && payload.ContainerWidth != nil:
		state, err = h.sessions.MoveSlider(r.Context(), id, *payload.PointerX, payload.ContainerLeft, *payload.ContainerWidth)
	default:
		utils.RespondError(w, http.StatusBadRequest, "percent or pointerX and containerWidth are required")
		return
	}
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, state)
}

// handleCompare 渲染前后对比合成图
func (h *Handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var position *float64
	if raw := query.Get("position"); raw != "" {
		p, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "position must be a number")
			return
		}
		position = &p
	}
	width, err := parseDimension(query.Get("width"))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "width must be an integer")
		return
	}
	height, err := parseDimension(query.Get("height"))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "height must be an integer")
		return
	}

	data, err := h.sessions.Composite(r.Context(), chi.URLParam(r, "sessionID"), position, width, height)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	utils.RespondBinary(w, "image/png", "", data)
}

// handleDownload 下载生成的设计图
func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	data, err := h.sessions.Download(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	utils.RespondBinary(w, "image/png", DownloadFilename, data)
}

func (h *Handler) readPhoto(w http.ResponseWriter, r *http.Request) (imaging.Image, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartOverhead)
	file, _, err := r.FormFile("photo")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			utils.RespondError(w, http.StatusRequestEntityTooLarge, imaging.ErrTooLarge.Error())
			return imaging.Image{}, false
		}
		utils.RespondError(w, http.StatusBadRequest, "photo file is required")
		return imaging.Image{}, false
	}
	defer file.Close()

	photo, err := imaging.Read(file, h.maxUpload)
	switch {
	case errors.Is(err, imaging.ErrTooLarge), errors.Is(err, imaging.ErrTooManyPixels):
		utils.RespondError(w, http.StatusRequestEntityTooLarge, err.Error())
		return imaging.Image{}, false
	case errors.Is(err, imaging.ErrNotImage):
		utils.RespondError(w, http.StatusUnsupportedMediaType, "photo must be an image")
		return imaging.Image{}, false
	case errors.Is(err, imaging.ErrDecode):
		utils.RespondError(w, http.StatusUnprocessableEntity, err.Error())
		return imaging.Image{}, false
	case err != nil:
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return imaging.Image{}, false
	}
	return photo, true
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sessionService.ErrSessionNotFound),
		errors.Is(err, sessionService.ErrStyleNotFound),
		errors.Is(err, sessionService.ErrNoGeneratedImage):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, sessionService.ErrGenerationInFlight),
		errors.Is(err, sessionService.ErrSessionReset):
		utils.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, sessionService.ErrGenerationFailed):
		utils.RespondError(w, http.StatusBadGateway, sessionService.GenerationAlert)
	case errors.Is(err, sessionService.ErrEmptyMessage),
		errors.Is(err, compare.ErrInvalidSize):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, imaging.ErrNotImage):
		utils.RespondError(w, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, imaging.ErrTooManyPixels):
		utils.RespondError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, imaging.ErrDecode):
		utils.RespondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.logger.Error("unexpected session error", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
	}
}

func parseDimension(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
