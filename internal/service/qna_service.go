package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"faishion-storefront/internal/backend"
	"faishion-storefront/internal/domain"
	"faishion-storefront/internal/logger"
	"faishion-storefront/internal/qnaview"
	"faishion-storefront/internal/repository"

	"go.uber.org/zap"
)

// NoticeLoadFailed is stored on a detail view whose initial fetch failed
const NoticeLoadFailed = "Failed to load the question."

// NoticeQuestionIncomplete rejects a question without title or content
const NoticeQuestionIncomplete = "Please enter a title and content."

// QnaResult is the Q&A detail view after an operation
type QnaResult struct {
	View qnaview.Detail
	Outcome
}

// QuestionsResult is the product question list after an operation
type QuestionsResult struct {
	Questions []domain.ProductQuestion
	Outcome
}

// QnaService defines the Q&A operations
type QnaService interface {
	Open(ctx context.Context, sess domain.Session, qnaID int64) (*QnaResult, error)
	Close(ctx context.Context, sess domain.Session, qnaID int64) error
	BeginEdit(ctx context.Context, sess domain.Session, qnaID int64) (*QnaResult, error)
	UpdateDraft(ctx context.Context, sess domain.Session, qnaID int64, title, content string) (*QnaResult, error)
	CancelEdit(ctx context.Context, sess domain.Session, qnaID int64) (*QnaResult, error)
	Save(ctx context.Context, sess domain.Session, qnaID int64, title, content *string) (*QnaResult, error)
	Delete(ctx context.Context, sess domain.Session, qnaID int64, confirmed bool) (*QnaResult, error)
	UpdateAnswerDraft(ctx context.Context, sess domain.Session, qnaID int64, answer string) (*QnaResult, error)
	SubmitAnswer(ctx context.Context, sess domain.Session, qnaID int64, answer *string) (*QnaResult, error)
	List(ctx context.Context, sess domain.Session, q string, page, size int) (*domain.QnaPage, error)
	ProductQuestions(ctx context.Context, sess domain.Session, productID int64) (*QuestionsResult, error)
	AskQuestion(ctx context.Context, sess domain.Session, q domain.NewQuestion) (*QuestionsResult, error)
}

type qnaService struct {
	backend QnaBackend
	states  repository.ViewStateRepository
	guard   *qnaview.Guard
	locks   *viewLocks
	notices NoticeRecorder
	logger  *zap.Logger
}

// NewQnaService creates a new instance of QnaService
func NewQnaService(
	backend QnaBackend,
	states repository.ViewStateRepository,
	guard *qnaview.Guard,
	notices NoticeRecorder,
	logger *zap.Logger,
) QnaService {
	if notices == nil {
		notices = nopRecorder{}
	}
	if guard == nil {
		guard = qnaview.NewGuard()
	}
	return &qnaService{
		backend: backend,
		states:  states,
		guard:   guard,
		locks:   newViewLocks(),
		notices: notices,
		logger:  logger,
	}
}

// Open fetches the question and (re)builds the session's detail view. A
// result that lands after the view was torn down or opened again is dropped
// with ErrStaleFetch. Other questions the session has open are unaffected.
func (s *qnaService) Open(ctx context.Context, sess domain.Session, qnaID int64) (*QnaResult, error) {
	key := repository.QnaKey(sess.Subject, qnaID)
	ticket := s.guard.Begin(key)

	rec, fetchErr := s.backend.GetQna(ctx, sess, qnaID)

	unlock, err := s.locks.lock(ctx, key)
	if err != nil {
		s.guard.Finish(ticket)
		return nil, err
	}
	defer unlock()

	// Close takes the same lock, so a teardown either lands before this check
	// or waits until the view below is stored.
	if !s.guard.Current(ticket) {
		s.log(ctx).Debug("Dropping stale question fetch", zap.Int64("qna_id", qnaID))
		return nil, ErrStaleFetch
	}
	defer s.guard.Finish(ticket)

	// The caller went away; leave the stored view as it was
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	state := qnaview.NewState(qnaID)
	if err := s.states.Load(ctx, key, &state); err != nil && !errors.Is(err, repository.ErrViewStateNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrViewStateFailure, err)
	}

	switch {
	case fetchErr != nil:
		s.log(ctx).Warn("Question fetch failed", zap.Int64("qna_id", qnaID), zap.Error(fetchErr))
		state = qnaview.NewState(qnaID)
		if backend.StatusCode(fetchErr) == http.StatusNotFound {
			state.Failed(ErrQuestionNotFound)
		} else {
			state.Failed(errors.New(NoticeLoadFailed))
		}
	case state.Status == qnaview.StatusLoaded:
		state.Refreshed(*rec)
	default:
		state = qnaview.NewState(qnaID)
		state.Loaded(*rec)
	}

	if err := s.saveState(ctx, key, state); err != nil {
		return nil, err
	}
	return &QnaResult{View: state.Render(sess)}, nil
}

// Close tears the view down. In-flight fetches for this view are dropped.
func (s *qnaService) Close(ctx context.Context, sess domain.Session, qnaID int64) error {
	key := repository.QnaKey(sess.Subject, qnaID)
	unlock, err := s.locks.lock(ctx, key)
	if err != nil {
		return err
	}
	defer unlock()

	s.guard.Release(key)
	if err := s.states.Delete(ctx, key); err != nil {
		return fmt.Errorf("%w: %v", ErrViewStateFailure, err)
	}
	return nil
}

// BeginEdit enters edit mode with buffers copied from the record
func (s *qnaService) BeginEdit(ctx context.Context, sess domain.Session, qnaID int64) (*QnaResult, error) {
	return s.mutate(ctx, sess, qnaID, func(state *qnaview.State) error {
		return state.BeginEdit(sess)
	})
}

// UpdateDraft stores the edit buffers
func (s *qnaService) UpdateDraft(ctx context.Context, sess domain.Session, qnaID int64, title, content string) (*QnaResult, error) {
	return s.mutate(ctx, sess, qnaID, func(state *qnaview.State) error {
		return state.UpdateBuffers(sess, title, content)
	})
}

// CancelEdit leaves edit mode and discards the buffers
func (s *qnaService) CancelEdit(ctx context.Context, sess domain.Session, qnaID int64) (*QnaResult, error) {
	return s.mutate(ctx, sess, qnaID, func(state *qnaview.State) error {
		state.CancelEdit()
		return nil
	})
}

// Save submits the edit buffers. On success edit mode ends and the record is
// re-fetched; on failure the buffers stay as they are.
func (s *qnaService) Save(ctx context.Context, sess domain.Session, qnaID int64, title, content *string) (*QnaResult, error) {
	key, state, unlock, err := s.loadState(ctx, sess, qnaID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	newTitle, newContent, err := state.PrepareSave(sess, title, content)
	if err != nil {
		return s.rejectOrFail(sess, state, err)
	}

	if err := s.backend.UpdateQna(ctx, sess, qnaID, newTitle, newContent); err != nil {
		s.log(ctx).Warn("Question update failed", zap.Int64("qna_id", qnaID), zap.Error(err))
		if err := s.saveState(ctx, key, *state); err != nil {
			return nil, err
		}
		return s.notice(sess, state, NoticeQnaUpdateFailed, "update_failed"), nil
	}

	state.Saved()
	s.refresh(ctx, sess, state)
	if err := s.saveState(ctx, key, *state); err != nil {
		return nil, err
	}
	return s.notice(sess, state, NoticeQnaUpdated, "updated"), nil
}

// Delete removes the question once confirmed. Confirmed deletes always send
// the client back to the listing, with a notice on failure.
func (s *qnaService) Delete(ctx context.Context, sess domain.Session, qnaID int64, confirmed bool) (*QnaResult, error) {
	key, state, unlock, err := s.loadState(ctx, sess, qnaID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := state.RequireAuthor(sess); err != nil {
		return s.rejectOrFail(sess, state, err)
	}

	if !confirmed {
		return &QnaResult{View: state.Render(sess), Outcome: Outcome{Confirm: NoticeConfirmDelete}}, nil
	}

	result := &QnaResult{View: state.Render(sess), Outcome: Outcome{
		Notice:   NoticeQnaDeleted,
		Navigate: &Navigation{To: QnaListPath},
	}}
	kind := "deleted"
	if err := s.backend.DeleteQna(ctx, sess, qnaID); err != nil {
		s.log(ctx).Warn("Question delete failed", zap.Int64("qna_id", qnaID), zap.Error(err))
		result.Notice = NoticeQnaDeleteFailed
		kind = "delete_failed"
	}
	s.notices.IncNotice("qna", kind)

	s.guard.Release(key)
	if err := s.states.Delete(ctx, key); err != nil {
		s.log(ctx).Warn("Failed to discard question view", zap.Int64("qna_id", qnaID), zap.Error(err))
	}
	return result, nil
}

// UpdateAnswerDraft stores the answer being typed
func (s *qnaService) UpdateAnswerDraft(ctx context.Context, sess domain.Session, qnaID int64, answer string) (*QnaResult, error) {
	return s.mutate(ctx, sess, qnaID, func(state *qnaview.State) error {
		state.SetAnswerDraft(answer)
		return nil
	})
}

// SubmitAnswer sends the answer draft. Blank drafts never reach the backend;
// a 403 from the backend maps to the permission notice.
func (s *qnaService) SubmitAnswer(ctx context.Context, sess domain.Session, qnaID int64, answer *string) (*QnaResult, error) {
	key, state, unlock, err := s.loadState(ctx, sess, qnaID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if answer != nil {
		state.SetAnswerDraft(*answer)
	}

	text, err := state.PrepareAnswer(sess)
	if err != nil {
		if _, _, ok := qnaNotice(err); ok {
			if err := s.saveState(ctx, key, *state); err != nil {
				return nil, err
			}
		}
		return s.rejectOrFail(sess, state, err)
	}

	if err := s.backend.AnswerQna(ctx, sess, qnaID, text); err != nil {
		s.log(ctx).Warn("Answer submit failed", zap.Int64("qna_id", qnaID), zap.Error(err))
		if err := s.saveState(ctx, key, *state); err != nil {
			return nil, err
		}
		if backend.StatusCode(err) == http.StatusForbidden {
			return s.notice(sess, state, NoticeNoPermission, "no_permission"), nil
		}
		return s.notice(sess, state, NoticeAnswerFailed, "answer_failed"), nil
	}

	state.AnswerSubmitted()
	s.refresh(ctx, sess, state)
	if err := s.saveState(ctx, key, *state); err != nil {
		return nil, err
	}
	return s.notice(sess, state, NoticeAnswerSubmitted, "answered"), nil
}

// List proxies one page of the question listing
func (s *qnaService) List(ctx context.Context, sess domain.Session, q string, page, size int) (*domain.QnaPage, error) {
	result, err := s.backend.ListQna(ctx, sess, strings.TrimSpace(q), page, size)
	if err != nil {
		return nil, fmt.Errorf("%w: list questions: %v", ErrBackendFailure, err)
	}
	return result, nil
}

// ProductQuestions lists a product's questions. Secret questions can be read
// only by their author.
func (s *qnaService) ProductQuestions(ctx context.Context, sess domain.Session, productID int64) (*QuestionsResult, error) {
	questions, err := s.backend.ProductQuestions(ctx, sess, productID)
	if err != nil {
		return nil, fmt.Errorf("%w: product questions: %v", ErrBackendFailure, err)
	}
	for i := range questions {
		questions[i].CanView = !questions[i].Secret || questions[i].IsAuthor
	}
	return &QuestionsResult{Questions: questions}, nil
}

// AskQuestion registers a question and returns the refreshed list
func (s *qnaService) AskQuestion(ctx context.Context, sess domain.Session, q domain.NewQuestion) (*QuestionsResult, error) {
	q.Title = strings.TrimSpace(q.Title)
	q.Content = strings.TrimSpace(q.Content)
	if q.Title == "" || q.Content == "" {
		s.notices.IncNotice("questions", "incomplete")
		return &QuestionsResult{Questions: []domain.ProductQuestion{}, Outcome: Outcome{Notice: NoticeQuestionIncomplete}}, nil
	}

	msg, err := s.backend.AskQuestion(ctx, sess, q)
	if err != nil {
		s.log(ctx).Warn("Question registration failed", zap.Int64("product_id", q.ProductID), zap.Error(err))
		s.notices.IncNotice("questions", "ask_failed")
		return &QuestionsResult{Questions: []domain.ProductQuestion{}, Outcome: Outcome{Notice: NoticeQuestionFailed}}, nil
	}
	s.notices.IncNotice("questions", "asked")

	result, err := s.ProductQuestions(ctx, sess, q.ProductID)
	if err != nil {
		s.log(ctx).Warn("Question list refresh failed", zap.Int64("product_id", q.ProductID), zap.Error(err))
		result = &QuestionsResult{Questions: []domain.ProductQuestion{}}
	}
	result.Notice = msg
	return result, nil
}

func (s *qnaService) mutate(ctx context.Context, sess domain.Session, qnaID int64, op func(*qnaview.State) error) (*QnaResult, error) {
	key, state, unlock, err := s.loadState(ctx, sess, qnaID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	if err := op(state); err != nil {
		return s.rejectOrFail(sess, state, err)
	}
	if err := s.saveState(ctx, key, *state); err != nil {
		return nil, err
	}
	return &QnaResult{View: state.Render(sess)}, nil
}

// refresh re-fetches the record after a mutation. A failed refresh keeps the
// previous record; the mutation itself already succeeded.
func (s *qnaService) refresh(ctx context.Context, sess domain.Session, state *qnaview.State) {
	rec, err := s.backend.GetQna(ctx, sess, state.QnaID)
	if err != nil {
		s.log(ctx).Warn("Question refresh failed", zap.Int64("qna_id", state.QnaID), zap.Error(err))
		return
	}
	state.Refreshed(*rec)
}

func (s *qnaService) rejectOrFail(sess domain.Session, state *qnaview.State, err error) (*QnaResult, error) {
	notice, kind, ok := qnaNotice(err)
	if !ok {
		return nil, err
	}
	return s.notice(sess, state, notice, kind), nil
}

func (s *qnaService) notice(sess domain.Session, state *qnaview.State, notice, kind string) *QnaResult {
	if notice != "" {
		s.notices.IncNotice("qna", kind)
	}
	return &QnaResult{View: state.Render(sess), Outcome: Outcome{Notice: notice}}
}

// loadState locks the view and loads it. The caller releases the lock once
// the updated state is stored.
func (s *qnaService) loadState(ctx context.Context, sess domain.Session, qnaID int64) (string, *qnaview.State, func(), error) {
	key := repository.QnaKey(sess.Subject, qnaID)
	unlock, err := s.locks.lock(ctx, key)
	if err != nil {
		return "", nil, nil, err
	}

	var state qnaview.State
	if err := s.states.Load(ctx, key, &state); err != nil {
		unlock()
		if errors.Is(err, repository.ErrViewStateNotFound) {
			return "", nil, nil, fmt.Errorf("%w: question %d", ErrViewNotOpen, qnaID)
		}
		return "", nil, nil, fmt.Errorf("%w: %v", ErrViewStateFailure, err)
	}
	return key, &state, unlock, nil
}

func (s *qnaService) saveState(ctx context.Context, key string, state qnaview.State) error {
	if err := s.states.Save(ctx, key, state); err != nil {
		return fmt.Errorf("%w: %v", ErrViewStateFailure, err)
	}
	return nil
}

func (s *qnaService) log(ctx context.Context) *zap.Logger {
	return logger.WithRequest(ctx, s.logger)
}
