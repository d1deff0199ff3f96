package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/zhouzirui/lumina-interior/backend/internal/analysis/intent"
	"github.com/zhouzirui/lumina-interior/backend/internal/compare"
	"github.com/zhouzirui/lumina-interior/backend/internal/imaging"
	sessionModel "github.com/zhouzirui/lumina-interior/backend/internal/model/session"
	"github.com/zhouzirui/lumina-interior/backend/internal/model/style"
	"github.com/zhouzirui/lumina-interior/backend/internal/service/ai"
	"github.com/zhouzirui/lumina-interior/backend/internal/service/events"
)

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrStyleNotFound      = errors.New("style not found")
	ErrGenerationInFlight = errors.New("a design is already being generated")
	ErrGenerationFailed   = errors.New("design generation failed")
	ErrNoGeneratedImage   = errors.New("no generated design yet")
	ErrEmptyMessage       = errors.New("message text is required")
	ErrSessionReset       = errors.New("session was reset while the request was running")
)

// Assistant copy appended to the transcript.
const (
	WelcomeTemplate = "I've reimagined your space in a beautiful %s style! You can see the comparison above. How do you like the color palette and furniture choices?"
	EditApplied     = "I've applied those changes for you! Here is the updated design."
	RequestFailed   = "I'm sorry, I had trouble processing that request. Could you try again?"
	// GenerationAlert is the blocking message shown when a style cannot be applied.
	GenerationAlert = "Failed to generate design. Please check your API key."
)

// Publisher receives session change notifications.
type Publisher interface {
	Publish(sessionID, eventType string, data any)
	CloseSession(sessionID string)
}

// Options tunes a Service. Zero values select defaults.
type Options struct {
	IdleTTL time.Duration
	Events  Publisher
	Logger  *zap.Logger
	Now     func() time.Time
	NewID   func() string
}

// Service owns every live session and is the only writer of session state.
type Service struct {
	designer ai.Designer
	styles   style.Store
	events   Publisher
	store    *cache.Cache
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
}

// entry is the mutable state behind one session.
type entry struct {
	mu sync.Mutex

	id           string
	original     imaging.Image
	generated    imaging.Image
	selected     *style.Style
	pendingStyle string
	status       sessionModel.Status
	inflight     int
	slider       compare.Slider
	transcript   []sessionModel.Message
	createdAt    time.Time
	updatedAt    time.Time
	// epoch increments on every photo upload; results of calls started in an
	// older epoch are discarded.
	epoch uint64
}

// NewService creates the session controller.
func NewService(designer ai.Designer, styles style.Store, opts Options) *Service {
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 2 * time.Hour
	}
	if opts.Events == nil {
		opts.Events = events.NewBroker()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	cleanup := opts.IdleTTL / 4
	if cleanup < time.Second {
		cleanup = time.Second
	}

	s := &Service{
		designer: designer,
		styles:   styles,
		events:   opts.Events,
		store:    cache.New(opts.IdleTTL, cleanup),
		logger:   opts.Logger.Named("session"),
		now:      opts.Now,
		newID:    opts.NewID,
	}
	s.store.OnEvicted(func(id string, _ interface{}) {
		s.logger.Info("session expired", zap.String("session", id))
		s.events.CloseSession(id)
	})
	return s
}

// Create starts a session from an uploaded photo.
func (s *Service) Create(_ context.Context, photo imaging.Image) (sessionModel.Session, error) {
	if photo.IsZero() {
		return sessionModel.Session{}, imaging.ErrNotImage
	}

	now := s.now().UTC()
	e := &entry{id: s.newID(), createdAt: now}
	e.reset(photo, now)

	s.store.Set(e.id, e, cache.DefaultExpiration)
	snapshot := e.snapshotLocked()

	s.logger.Info("session created", zap.String("session", e.id), zap.Int("bytes", len(photo.Data)))
	s.events.Publish(e.id, events.TypeSession, snapshot)
	return snapshot, nil
}

// ReplacePhoto swaps the original photo and resets everything derived from it.
func (s *Service) ReplacePhoto(_ context.Context, id string, photo imaging.Image) (sessionModel.Session, error) {
	if photo.IsZero() {
		return sessionModel.Session{}, imaging.ErrNotImage
	}
	e, err := s.lookup(id)
	if err != nil {
		return sessionModel.Session{}, err
	}

	e.mu.Lock()
	e.reset(photo, s.now().UTC())
	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	s.logger.Info("photo replaced", zap.String("session", id))
	s.events.Publish(id, events.TypeSession, snapshot)
	return snapshot, nil
}

// Get returns a snapshot of the session.
func (s *Service) Get(_ context.Context, id string) (sessionModel.Session, error) {
	e, err := s.lookup(id)
	if err != nil {
		return sessionModel.Session{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked(), nil
}

// Transcript returns a copy of the session's messages.
func (s *Service) Transcript(_ context.Context, id string) ([]sessionModel.Message, error) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]sessionModel.Message(nil), e.transcript...), nil
}

// SelectStyle renders the original photo in the chosen style. Only one
// generation may run per session; a second request while one is running
// fails with ErrGenerationInFlight and changes nothing.
func (s *Service) SelectStyle(ctx context.Context, id, styleID string) (sessionModel.Session, error) {
	e, err := s.lookup(id)
	if err != nil {
		return sessionModel.Session{}, err
	}
	chosen, ok := s.styles.FindByID(styleID)
	if !ok {
		return sessionModel.Session{}, fmt.Errorf("%w: %s", ErrStyleNotFound, styleID)
	}

	e.mu.Lock()
	if e.status == sessionModel.StatusGenerating {
		e.mu.Unlock()
		return sessionModel.Session{}, ErrGenerationInFlight
	}
	e.status = sessionModel.StatusGenerating
	e.pendingStyle = chosen.ID
	epoch := e.epoch
	source := e.original
	e.mu.Unlock()

	s.publishStatus(id, sessionModel.StatusGenerating, chosen.ID)
	s.logger.Info("generating design", zap.String("session", id), zap.String("style", chosen.ID))

	result, genErr := s.designer.Generate(context.WithoutCancel(ctx), source, chosen.Prompt)

	e.mu.Lock()
	if e.epoch != epoch {
		e.mu.Unlock()
		s.logger.Info("discarding generation for replaced photo", zap.String("session", id))
		return sessionModel.Session{}, ErrSessionReset
	}
	if genErr != nil {
		e.status = sessionModel.StatusReady
		e.pendingStyle = ""
		e.mu.Unlock()
		s.logger.Error("design generation failed", zap.String("session", id), zap.String("style", chosen.ID), zap.Error(genErr))
		s.publishStatus(id, sessionModel.StatusReady, "")
		return sessionModel.Session{}, fmt.Errorf("%w: %v", ErrGenerationFailed, genErr)
	}

	now := s.now().UTC()
	e.generated = result
	e.selected = &chosen
	e.pendingStyle = ""
	e.status = sessionModel.StatusReady
	e.slider.Reset()
	welcome := e.appendLocked(sessionModel.Message{
		ID:        s.newID(),
		Role:      sessionModel.RoleAssistant,
		Content:   fmt.Sprintf(WelcomeTemplate, chosen.Name),
		CreatedAt: now,
	})
	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	s.touch(e)
	s.events.Publish(id, events.TypeSession, snapshot)
	s.events.Publish(id, events.TypeMessage, welcome)
	return snapshot, nil
}

// SendResult reports what a chat send produced.
type SendResult struct {
	Route intent.Route         `json:"route"`
	User  sessionModel.Message `json:"user"`
	Reply sessionModel.Message `json:"reply"`
	Image string               `json:"generatedImage,omitempty"`
	Links []string             `json:"links,omitempty"`
}

// SendMessage appends the user's message, routes it to an edit or a chat
// call, and appends the assistant's answer. Remote failures become a generic
// assistant message rather than an error.
func (s *Service) SendMessage(ctx context.Context, id, text string) (SendResult, error) {
	if strings.TrimSpace(text) == "" {
		return SendResult{}, ErrEmptyMessage
	}
	e, err := s.lookup(id)
	if err != nil {
		return SendResult{}, err
	}

	e.mu.Lock()
	history := e.turnsLocked()
	current := e.generated
	contextImage := e.generated
	if contextImage.IsZero() {
		contextImage = e.original
	}
	epoch := e.epoch
	user := e.appendLocked(sessionModel.Message{
		ID:        s.newID(),
		Role:      sessionModel.RoleUser,
		Content:   text,
		CreatedAt: s.now().UTC(),
	})
	e.inflight++
	e.mu.Unlock()

	s.events.Publish(id, events.TypeMessage, user)
	s.publishTyping(id, true)
	defer s.finishRequest(e)

	decision := intent.Classify(text, !current.IsZero())
	result := SendResult{Route: decision.Route, User: user}
	callCtx := context.WithoutCancel(ctx)

	var (
		reply       sessionModel.Message
		editedImage imaging.Image
		callErr     error
	)
	switch decision.Route {
	case intent.Edit:
		edited, editErr := s.designer.Edit(callCtx, current, text)
		if editErr != nil {
			callErr = editErr
			break
		}
		result.Image = edited.DataURI()
		reply = sessionModel.Message{
			Role:          sessionModel.RoleAssistant,
			Content:       EditApplied,
			ImageURL:      result.Image,
			IsImageAction: true,
		}
		editedImage = edited
	default:
		var ctxImage *imaging.Image
		if !contextImage.IsZero() {
			ctxImage = &contextImage
		}
		answer, chatErr := s.designer.Chat(callCtx, text, history, ctxImage)
		if chatErr != nil {
			callErr = chatErr
			break
		}
		result.Links = answer.Links
		reply = sessionModel.Message{
			Role:    sessionModel.RoleAssistant,
			Content: FormatReply(answer),
		}
	}

	if callErr != nil {
		s.logger.Error("chat request failed",
			zap.String("session", id),
			zap.String("route", string(decision.Route)),
			zap.Error(callErr))
		reply = sessionModel.Message{Role: sessionModel.RoleAssistant, Content: RequestFailed}
		editedImage = imaging.Image{}
		result.Image = ""
		result.Links = nil
	}
	reply.ID = s.newID()
	reply.CreatedAt = s.now().UTC()

	e.mu.Lock()
	if e.epoch != epoch {
		e.mu.Unlock()
		return result, ErrSessionReset
	}
	var snapshot *sessionModel.Session
	if !editedImage.IsZero() {
		e.generated = editedImage
		e.slider.Reset()
	}
	result.Reply = e.appendLocked(reply)
	if !editedImage.IsZero() {
		snap := e.snapshotLocked()
		snapshot = &snap
	}
	e.mu.Unlock()

	s.touch(e)
	if snapshot != nil {
		s.events.Publish(id, events.TypeSession, *snapshot)
	}
	s.events.Publish(id, events.TypeMessage, result.Reply)
	return result, nil
}

// FormatReply renders a chat answer with its reference links as a markdown list.
func FormatReply(reply ai.ChatReply) string {
	if len(reply.Links) == 0 {
		return reply.Text
	}

	var b strings.Builder
	b.WriteString(reply.Text)
	b.WriteString("\n\n**Helpful Links:**\n")
	for i, link := range reply.Links {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(link)
	}
	return b.String()
}

func (s *Service) finishRequest(e *entry) {
	e.mu.Lock()
	e.inflight--
	typing := e.inflight > 0
	e.mu.Unlock()

	if !typing {
		s.publishTyping(e.id, false)
	}
}

// Touch marks the session as active without changing it.
func (s *Service) Touch(_ context.Context, id string) error {
	_, err := s.lookup(id)
	return err
}

// lookup finds a live session and pushes its idle expiry forward; any access
// counts as activity.
func (s *Service) lookup(id string) (*entry, error) {
	v, ok := s.store.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	e := v.(*entry)
	s.store.Set(id, e, cache.DefaultExpiration)
	return e, nil
}

// touch pushes the idle expiry of a session forward.
func (s *Service) touch(e *entry) {
	if _, ok := s.store.Get(e.id); ok {
		s.store.Set(e.id, e, cache.DefaultExpiration)
	}
}

func (s *Service) publishTyping(id string, typing bool) {
	s.events.Publish(id, events.TypeTyping, map[string]bool{"typing": typing})
}

func (s *Service) publishStatus(id string, status sessionModel.Status, pendingStyle string) {
	s.events.Publish(id, events.TypeStatus, map[string]string{
		"status":         string(status),
		"pendingStyleId": pendingStyle,
	})
}

// reset installs a new original photo and clears everything derived from the old one.
func (e *entry) reset(photo imaging.Image, now time.Time) {
	e.original = photo
	e.generated = imaging.Image{}
	e.selected = nil
	e.pendingStyle = ""
	e.status = sessionModel.StatusReady
	e.slider = compare.NewSlider()
	e.transcript = make([]sessionModel.Message, 0, 16)
	e.updatedAt = now
	e.epoch++
}

func (e *entry) appendLocked(msg sessionModel.Message) sessionModel.Message {
	e.transcript = append(e.transcript, msg)
	e.updatedAt = msg.CreatedAt
	return msg
}

func (e *entry) turnsLocked() []ai.Turn {
	turns := make([]ai.Turn, 0, len(e.transcript))
	for _, msg := range e.transcript {
		turns = append(turns, ai.Turn{Role: string(msg.Role), Content: msg.Content})
	}
	return turns
}

func (e *entry) snapshotLocked() sessionModel.Session {
	var selected *style.Style
	if e.selected != nil {
		copied := *e.selected
		selected = &copied
	}
	return sessionModel.Session{
		ID:             e.id,
		OriginalImage:  e.original.DataURI(),
		GeneratedImage: e.generated.DataURI(),
		SelectedStyle:  selected,
		PendingStyleID: e.pendingStyle,
		Status:         e.status,
		Typing:         e.inflight > 0,
		Slider:         e.slider,
		Transcript:     append([]sessionModel.Message(nil), e.transcript...),
		CreatedAt:      e.createdAt,
		UpdatedAt:      e.updatedAt,
	}
}
