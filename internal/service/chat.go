package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Rrens/rag-chatbot/internal/config"
	"github.com/Rrens/rag-chatbot/internal/domain"
	"github.com/Rrens/rag-chatbot/internal/llm"
	"github.com/google/uuid"
	"github.com/qmuntal/stateless"
	"github.com/rs/zerolog/log"
)

// KeyValidator checks a provider key
type KeyValidator interface {
	Validate(ctx context.Context, apiKey, serviceType string) bool
}

// ResponseGenerator produces an assistant reply
type ResponseGenerator interface {
	GetResponse(ctx context.Context, in llm.Input) (string, error)
}

// ContextRetriever returns prompt context for a query, or "" when none is available
type ContextRetriever interface {
	RetrieveContext(ctx context.Context, query string, limit int) string
}

// Stage is a step of the per-request chat pipeline
type Stage string

const (
	StageValidate Stage = "Validate"
	StageLoad     Stage = "Load"
	StageRetrieve Stage = "Retrieve"
	StageGenerate Stage = "Generate"
	StagePersist  Stage = "Persist"
	StageRespond  Stage = "Respond"
	StageFailed   Stage = "Failed"
)

type trigger string

const (
	triggerKeyAccepted   trigger = "KeyAccepted"
	triggerNeedsContext  trigger = "NeedsContext"
	triggerHistoryLoaded trigger = "HistoryLoaded"
	triggerContextReady  trigger = "ContextReady"
	triggerGenerated     trigger = "Generated"
	triggerPersisted     trigger = "Persisted"
	triggerFail          trigger = "Fail"
)

const defaultHistoryLimit = 20

// chatTurn carries one request through the pipeline
type chatTurn struct {
	req            domain.ChatRequest
	sessionID      string
	characteristic domain.Characteristic
	history        []domain.ChatTurn
	firstTurn      bool
	context        string
	reply          string
	stored         []domain.ChatTurn
	err            error
}

// ChatService orchestrates a chat request
type ChatService struct {
	store        domain.ConversationStore
	keys         KeyValidator
	generator    ResponseGenerator
	retriever    ContextRetriever
	archive      domain.TranscriptRepository
	historyLimit int
	historyTTL   time.Duration
	ragLimit     int
	ragEnabled   map[domain.Characteristic]bool
	now          func() time.Time
}

// ChatOption configures a ChatService
type ChatOption func(*ChatService)

// WithArchive records every persisted turn in the transcript archive
func WithArchive(archive domain.TranscriptRepository) ChatOption {
	return func(s *ChatService) { s.archive = archive }
}

// WithRetriever enables RAG context for the configured characteristics
func WithRetriever(retriever ContextRetriever) ChatOption {
	return func(s *ChatService) { s.retriever = retriever }
}

// NewChatService creates a new chat service
func NewChatService(store domain.ConversationStore, keys KeyValidator, generator ResponseGenerator, cfg config.ChatConfig, opts ...ChatOption) *ChatService {
	s := &ChatService{
		store:        store,
		keys:         keys,
		generator:    generator,
		historyLimit: cfg.HistoryLimit,
		historyTTL:   cfg.HistoryTTL,
		ragLimit:     cfg.RAGLimit,
		ragEnabled:   make(map[domain.Characteristic]bool),
		now:          time.Now,
	}
	if s.historyLimit <= 0 {
		s.historyLimit = defaultHistoryLimit
	}
	if s.historyTTL <= 0 {
		s.historyTTL = 24 * time.Hour
	}
	for _, c := range cfg.RAGCharacteristics {
		s.ragEnabled[domain.Characteristic(c)] = true
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newChatMachine() *stateless.StateMachine {
	fsm := stateless.NewStateMachine(StageValidate)

	fsm.Configure(StageValidate).
		Permit(triggerKeyAccepted, StageLoad).
		Permit(triggerFail, StageFailed)

	fsm.Configure(StageLoad).
		Permit(triggerNeedsContext, StageRetrieve).
		Permit(triggerHistoryLoaded, StageGenerate).
		Permit(triggerFail, StageFailed)

	fsm.Configure(StageRetrieve).
		Permit(triggerContextReady, StageGenerate)

	fsm.Configure(StageGenerate).
		Permit(triggerGenerated, StagePersist).
		Permit(triggerFail, StageFailed)

	fsm.Configure(StagePersist).
		Permit(triggerPersisted, StageRespond).
		Permit(triggerFail, StageFailed)

	return fsm
}

// Chat runs Validate, Load, Retrieve, Generate, Persist and Respond for one message.
// History is only written after a successful Generate.
func (s *ChatService) Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	turn := &chatTurn{req: req}
	fsm := newChatMachine()

	fsm.OnTransitioned(func(_ context.Context, tr stateless.Transition) {
		log.Debug().
			Str("session_id", turn.sessionID).
			Str("from", fmt.Sprint(tr.Source)).
			Str("to", fmt.Sprint(tr.Destination)).
			Msg("chat stage")
	})

	for {
		stage := fsm.MustState().(Stage)

		var next trigger
		switch stage {
		case StageValidate:
			next = s.validate(ctx, turn)
		case StageLoad:
			next = s.load(ctx, turn)
		case StageRetrieve:
			next = s.retrieve(ctx, turn)
		case StageGenerate:
			next = s.generate(ctx, turn)
		case StagePersist:
			next = s.persist(ctx, turn)
		case StageRespond:
			return &domain.ChatResponse{
				Response:  turn.reply,
				SessionID: turn.sessionID,
				History:   turn.stored,
			}, nil
		case StageFailed:
			return nil, turn.err
		}

		if err := fsm.FireCtx(ctx, next); err != nil {
			return nil, &domain.InternalError{Err: fmt.Errorf("chat pipeline: %w", err)}
		}
	}
}

func (t *chatTurn) fail(err error) trigger {
	t.err = err
	return triggerFail
}

func (s *ChatService) validate(ctx context.Context, t *chatTurn) trigger {
	if !s.keys.Validate(ctx, t.req.APIKey, t.req.ServiceType) {
		return t.fail(&domain.AuthError{Service: domain.ServiceType(t.req.ServiceType)})
	}
	return triggerKeyAccepted
}

func (s *ChatService) load(ctx context.Context, t *chatTurn) trigger {
	t.sessionID = t.req.SessionID
	if t.sessionID == "" {
		t.sessionID = uuid.NewString()
	}

	t.characteristic = domain.Characteristic(t.req.Characteristic)
	if t.characteristic == "" {
		t.characteristic = domain.CharacteristicDefault
	}

	history, err := s.store.Get(ctx, t.sessionID)
	if err != nil {
		return t.fail(&domain.InternalError{Err: fmt.Errorf("load history: %w", err)})
	}
	t.firstTurn = len(history) == 0
	t.history = domain.TruncateHistory(domain.WithoutSystemTurns(history), s.historyLimit)

	if s.retriever != nil && s.ragEnabled[t.characteristic] {
		return triggerNeedsContext
	}
	return triggerHistoryLoaded
}

func (s *ChatService) retrieve(ctx context.Context, t *chatTurn) trigger {
	t.context = s.retriever.RetrieveContext(ctx, t.req.Message, s.ragLimit)
	return triggerContextReady
}

func (s *ChatService) generate(ctx context.Context, t *chatTurn) trigger {
	reply, err := s.generator.GetResponse(ctx, llm.Input{
		Message:        t.req.Message,
		History:        t.history,
		APIKey:         t.req.APIKey,
		ServiceType:    t.req.ServiceType,
		Characteristic: t.characteristic,
		Context:        t.context,
	})
	if err != nil {
		return t.fail(err)
	}
	t.reply = reply
	return triggerGenerated
}

func (s *ChatService) persist(ctx context.Context, t *chatTurn) trigger {
	newTurns := []domain.ChatTurn{
		{Role: domain.RoleUser, Content: t.req.Message},
		{Role: domain.RoleAssistant, Content: t.reply},
	}

	stored, err := s.store.Append(ctx, t.sessionID, newTurns, s.historyLimit, s.historyTTL)
	if err != nil {
		return t.fail(&domain.InternalError{Err: fmt.Errorf("persist history: %w", err)})
	}
	t.stored = stored

	meta := domain.SessionMetadata{
		SessionID:      t.sessionID,
		CreatedAt:      s.now().UTC(),
		Characteristic: t.characteristic,
		ServiceType:    domain.ServiceType(t.req.ServiceType),
	}

	if t.firstTurn {
		if err := s.store.PutMetadata(ctx, t.sessionID, &meta, s.historyTTL); err != nil {
			log.Warn().Err(err).Str("session_id", t.sessionID).Msg("Failed to store session metadata")
		}
	}

	if s.archive != nil {
		if err := s.archive.Record(ctx, meta, newTurns); err != nil {
			log.Warn().Err(err).Str("session_id", t.sessionID).Msg("Failed to archive transcript")
		}
	}

	return triggerPersisted
}

// History returns a session's stored turns
func (s *ChatService) History(ctx context.Context, sessionID string) ([]domain.ChatTurn, error) {
	turns, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, &domain.InternalError{Err: fmt.Errorf("load history: %w", err)}
	}
	if len(turns) == 0 {
		return nil, &domain.NotFoundError{Resource: "Session", ID: sessionID}
	}
	return turns, nil
}

// Clear deletes a session's history and metadata; clearing an absent session succeeds
func (s *ChatService) Clear(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return &domain.InternalError{Err: fmt.Errorf("clear session: %w", err)}
	}

	if s.archive != nil {
		if err := s.archive.EndSession(ctx, sessionID); err != nil {
			log.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to end archived session")
		}
	}
	return nil
}
