package boletim

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/boletim/internal/runtime"
	"github.com/aretw0/boletim/pkg/domain"
	"github.com/aretw0/boletim/pkg/input"
)

// ErrNoNarrativeGenerator is returned by GenerateNarrative when the engine has no collaborator.
var ErrNoNarrativeGenerator = errors.New("no narrative generator configured")

// Messages for answers rejected before reaching the rules.
const (
	MsgInputTooLarge = "Resposta muito longa."
	MsgInvalidInput  = "Resposta contém caracteres inválidos."
)

// StartSession creates a session positioned at the first question.
func (e *Engine) StartSession(ctx context.Context) (StartResult, error) {
	ctx, span := e.start(ctx, "StartSession", "")
	defer span.End()

	iv, err := e.manager.Create(ctx)
	if err != nil {
		return StartResult{}, e.record(span, err)
	}
	span.SetAttributes(AttrSessionID.String(iv.ID))

	if e.hooks.OnSessionStarted != nil {
		e.hooks.OnSessionStarted(ctx, &domain.EventBase{
			Timestamp: time.Now(),
			Type:      domain.EventSessionStarted,
			SessionID: iv.ID,
		})
	}
	e.logger.Info("session started", "session_id", iv.ID)

	return StartResult{SessionID: iv.ID, Prompt: e.prompt(iv)}, nil
}

// SubmitAnswer records text for stepID and advances the walk.
//
// A rejected answer is reported in-band (Accepted=false, Message) with a nil
// error. A step that is not the one awaiting an answer is reported in-band
// with Drift=true and also returned as a *domain.OrderingError. When the
// answer completes a section, the engine moves to the next one and, with a
// narrative generator configured, calls it after the new state is persisted.
func (e *Engine) SubmitAnswer(ctx context.Context, sessionID, stepID, text string) (SubmitResult, error) {
	ctx, span := e.start(ctx, "SubmitAnswer", sessionID, AttrStepID.String(stepID))
	defer span.End()

	var (
		res       SubmitResult
		sectionID string
		event     *domain.SectionCompletedEvent
	)
	err := e.manager.Update(ctx, sessionID, func(iv *runtime.Interview) error {
		if active := iv.Active(); active != nil {
			sectionID = active.ID()
		}
		clean, err := e.clean(iv, text)
		if err != nil {
			return err
		}
		out, err := iv.Submit(stepID, clean)
		if err != nil {
			return err
		}
		res = SubmitResult{Accepted: true, StepID: out.StepID, SectionID: out.SectionID}

		if out.SectionComplete {
			event, err = e.advance(iv)
			if err != nil {
				return err
			}
			res.SectionComplete = true
			res.CompletedSectionID = out.SectionID
			res.SectionSkipped = out.Skipped
		}
		res.SessionComplete = iv.IsComplete()
		res.NextPrompt = e.prompt(iv)
		res.Snapshot = runtime.Snapshot(iv)
		return nil
	})

	var (
		vErr *domain.ValidationError
		oErr *domain.OrderingError
	)
	switch {
	case errors.As(err, &vErr):
		span.SetAttributes(AttrAccepted.Bool(false))
		e.emitAnswer(ctx, false, sessionID, sectionID, vErr.StepID, vErr.Message)
		res = SubmitResult{Message: vErr.Message, StepID: vErr.StepID, SectionID: sectionID}
		return res, e.record(span, e.fill(ctx, sessionID, &res))

	case errors.As(err, &oErr):
		span.SetAttributes(AttrAccepted.Bool(false))
		res = SubmitResult{Drift: true, StepID: stepID, Message: oErr.Error()}
		if fillErr := e.fill(ctx, sessionID, &res); fillErr != nil {
			return res, e.record(span, fillErr)
		}
		return res, e.record(span, err)

	case err != nil:
		return SubmitResult{}, e.record(span, err)
	}

	span.SetAttributes(AttrAccepted.Bool(true))
	e.emitAnswer(ctx, true, sessionID, sectionID, res.StepID, "")
	if event != nil {
		res.Narrative, res.NarrativeError = e.completed(ctx, event)
	}
	return res, nil
}

// GetProgress reports the progress of the active section.
func (e *Engine) GetProgress(ctx context.Context, sessionID string) (SessionProgress, error) {
	ctx, span := e.start(ctx, "GetProgress", sessionID)
	defer span.End()

	var p SessionProgress
	err := e.manager.View(ctx, sessionID, func(iv *runtime.Interview) error {
		p = SessionProgress{
			Progress:     iv.Progress(),
			SessionID:    iv.ID,
			SectionIndex: iv.SectionIndex(),
			SectionCount: e.graph.SectionCount(),
			StepID:       iv.CurrentStepID(),
			Complete:     iv.IsComplete(),
		}
		if active := iv.Active(); active != nil {
			p.SectionID = active.ID()
		}
		return nil
	})
	return p, e.record(span, err)
}

// RestoreDraft reconciles a client-held draft with the session.
// The draft wins only with a strictly greater version; a rejected draft is
// reported in-band with its reason and leaves the session untouched.
func (e *Engine) RestoreDraft(ctx context.Context, sessionID string, snap domain.DraftSnapshot) (RestoreResult, error) {
	ctx, span := e.start(ctx, "RestoreDraft", sessionID)
	defer span.End()

	iv, err := e.manager.Restore(ctx, sessionID, snap)
	var sErr *domain.SnapshotError
	switch {
	case errors.As(err, &sErr):
		e.logger.Debug("draft rejected", "session_id", sessionID, "reason", sErr.Reason)
		res := RestoreResult{Reason: sErr.Reason, Detail: sErr.Detail}
		viewErr := e.manager.View(ctx, sessionID, func(iv *runtime.Interview) error {
			res.Version = iv.Version()
			res.Prompt = e.prompt(iv)
			return nil
		})
		if viewErr != nil && !errors.Is(viewErr, domain.ErrSessionNotFound) {
			return res, e.record(span, viewErr)
		}
		return res, nil
	case err != nil:
		return RestoreResult{}, e.record(span, err)
	}

	res := RestoreResult{Accepted: true, Version: iv.Version()}
	if err := e.settle(ctx, sessionID, &res); err != nil {
		return res, e.record(span, err)
	}
	e.logger.Info("draft restored", "session_id", sessionID, "version", res.Version)
	return res, nil
}

// RestoreDraftJSON decodes a draft in its wire form and restores it.
func (e *Engine) RestoreDraftJSON(ctx context.Context, sessionID string, data []byte) (RestoreResult, error) {
	snap, err := domain.DecodeSnapshot(data)
	var sErr *domain.SnapshotError
	if errors.As(err, &sErr) {
		return RestoreResult{Reason: sErr.Reason, Detail: sErr.Detail}, nil
	}
	if err != nil {
		return RestoreResult{}, err
	}
	return e.RestoreDraft(ctx, sessionID, snap)
}

// CurrentPrompt returns the question awaiting an answer.
func (e *Engine) CurrentPrompt(ctx context.Context, sessionID string) (Prompt, error) {
	var p Prompt
	err := e.manager.View(ctx, sessionID, func(iv *runtime.Interview) error {
		p = e.prompt(iv)
		return nil
	})
	return p, err
}

// UpdateAnswer corrects an already recorded answer without re-resolving
// branches. Rule failures are reported in-band; gate steps and unanswered
// steps yield a *domain.OrderingError.
func (e *Engine) UpdateAnswer(ctx context.Context, sessionID, stepID, text string) (UpdateResult, error) {
	ctx, span := e.start(ctx, "UpdateAnswer", sessionID, AttrStepID.String(stepID))
	defer span.End()

	var res UpdateResult
	err := e.manager.Update(ctx, sessionID, func(iv *runtime.Interview) error {
		clean, err := e.clean(iv, text)
		if err != nil {
			return err
		}
		sectionID, err := iv.Update(stepID, clean)
		if err != nil {
			return err
		}
		res = UpdateResult{Accepted: true, SectionID: sectionID, Snapshot: runtime.Snapshot(iv)}
		return nil
	})

	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		span.SetAttributes(AttrAccepted.Bool(false))
		res = UpdateResult{Message: vErr.Message}
		snap, draftErr := e.Draft(ctx, sessionID)
		res.Snapshot = snap
		return res, e.record(span, draftErr)
	}
	if err != nil {
		return UpdateResult{}, e.record(span, err)
	}
	e.emitAnswer(ctx, true, sessionID, res.SectionID, stepID, "")
	return res, nil
}

// Draft returns the current snapshot of the session.
func (e *Engine) Draft(ctx context.Context, sessionID string) (domain.DraftSnapshot, error) {
	var snap domain.DraftSnapshot
	err := e.manager.View(ctx, sessionID, func(iv *runtime.Interview) error {
		snap = runtime.Snapshot(iv)
		return nil
	})
	return snap, err
}

// Answers returns the ordered answers of every started section, in section order.
func (e *Engine) Answers(ctx context.Context, sessionID string) ([]SectionAnswers, error) {
	var out []SectionAnswers
	err := e.manager.View(ctx, sessionID, func(iv *runtime.Interview) error {
		for _, c := range iv.Completed() {
			out = append(out, SectionAnswers{
				SectionID: c.ID,
				Title:     e.title(c.ID),
				Skipped:   c.Skipped,
				Complete:  true,
				Answers:   c.Answers.Entries(),
			})
		}
		if active := iv.Active(); active != nil {
			out = append(out, SectionAnswers{
				SectionID: active.ID(),
				Title:     e.title(active.ID()),
				Skipped:   active.Skipped(),
				Complete:  active.IsComplete(),
				Answers:   active.Answers().Entries(),
			})
		}
		return nil
	})
	return out, err
}

// Narratives returns the narrative status of every completed section.
func (e *Engine) Narratives(ctx context.Context, sessionID string) (map[string]domain.NarrativeStatus, error) {
	var out map[string]domain.NarrativeStatus
	err := e.manager.View(ctx, sessionID, func(iv *runtime.Interview) error {
		out = iv.Narratives()
		return nil
	})
	return out, err
}

// GenerateNarrative calls the collaborator again for a completed section.
// The engine itself never retries; this is the caller's retry.
func (e *Engine) GenerateNarrative(ctx context.Context, sessionID, sectionID string) (string, error) {
	if e.generator == nil {
		return "", ErrNoNarrativeGenerator
	}

	var answers []domain.AnswerEntry
	err := e.manager.View(ctx, sessionID, func(iv *runtime.Interview) error {
		for _, c := range iv.Completed() {
			if c.ID == sectionID {
				answers = c.Answers.Entries()
				return nil
			}
		}
		if _, err := e.graph.Section(sectionID); err != nil {
			return err
		}
		return &domain.OrderingError{Op: "narrative", Detail: "section " + sectionID + " is not complete"}
	})
	if err != nil {
		return "", err
	}
	return e.generate(ctx, sessionID, sectionID, answers)
}

// Internals

func (e *Engine) clean(iv *runtime.Interview, text string) (string, error) {
	clean, err := e.sanitize.Clean(text)
	switch {
	case errors.Is(err, input.ErrTooLarge):
		return "", &domain.ValidationError{StepID: iv.CurrentStepID(), Message: MsgInputTooLarge}
	case err != nil:
		return "", &domain.ValidationError{StepID: iv.CurrentStepID(), Message: MsgInvalidInput}
	}
	return clean, nil
}

// advance moves past the terminal active section and marks its narrative as requested.
func (e *Engine) advance(iv *runtime.Interview) (*domain.SectionCompletedEvent, error) {
	event, err := iv.AdvanceToNextSection()
	if err != nil {
		return nil, err
	}
	if e.generator != nil {
		iv.SetNarrative(event.SectionID, domain.NarrativeStatus{Requested: true})
	}
	return event, nil
}

// settle advances past sections a restored draft left terminal, so the
// session always has a question to ask until it is complete.
func (e *Engine) settle(ctx context.Context, sessionID string, res *RestoreResult) error {
	var events []*domain.SectionCompletedEvent
	err := e.manager.Update(ctx, sessionID, func(iv *runtime.Interview) error {
		for iv.Active() != nil && iv.Active().IsComplete() {
			event, err := e.advance(iv)
			if err != nil {
				return err
			}
			events = append(events, event)
		}
		res.Version = iv.Version()
		res.Prompt = e.prompt(iv)
		return nil
	})
	if err != nil {
		return err
	}
	for _, event := range events {
		e.completed(ctx, event)
	}
	return nil
}

// completed runs outside the session lock: hooks first, then the narrative collaborator.
func (e *Engine) completed(ctx context.Context, event *domain.SectionCompletedEvent) (string, string) {
	if e.hooks.OnSectionCompleted != nil {
		e.hooks.OnSectionCompleted(ctx, event)
	}
	e.logger.Info("section completed",
		"session_id", event.SessionID,
		"section_id", event.SectionID,
		"skipped", event.Skipped,
	)
	if e.generator == nil {
		return "", ""
	}
	text, err := e.generate(ctx, event.SessionID, event.SectionID, event.Answers)
	if err != nil {
		return "", err.Error()
	}
	return text, ""
}

// generate calls the collaborator with its own timeout and stores the outcome.
// A failure is returned as a *domain.CollaboratorError and never touches progress.
func (e *Engine) generate(ctx context.Context, sessionID, sectionID string, answers []domain.AnswerEntry) (string, error) {
	ctx, span := e.start(ctx, "GenerateNarrative", sessionID, AttrSectionID.String(sectionID))
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, e.narrativeTimeout)
	defer cancel()

	began := time.Now()
	text, err := e.generator.Generate(callCtx, sectionID, answers)
	elapsed := time.Since(began)

	status := domain.NarrativeStatus{Requested: true, Text: text}
	if err != nil {
		err = &domain.CollaboratorError{SectionID: sectionID, Err: err}
		status = domain.NarrativeStatus{Requested: true, Error: err.Error()}
		e.logger.Warn("narrative generation failed",
			"session_id", sessionID,
			"section_id", sectionID,
			"err", err,
		)
	}

	if e.hooks.OnNarrative != nil {
		e.hooks.OnNarrative(ctx, &domain.NarrativeEvent{
			EventBase: domain.EventBase{
				Timestamp: time.Now(),
				Type:      domain.EventNarrative,
				SessionID: sessionID,
			},
			SectionID: sectionID,
			Duration:  elapsed,
			IsError:   err != nil,
		})
	}

	// Progress is already persisted; only the narrative status changes here
	if uErr := e.manager.Update(ctx, sessionID, func(iv *runtime.Interview) error {
		iv.SetNarrative(sectionID, status)
		return nil
	}); uErr != nil {
		e.logger.Warn("failed to store narrative status", "session_id", sessionID, "section_id", sectionID, "err", uErr)
	}

	if err != nil {
		return "", e.record(span, err)
	}
	return text, nil
}

// fill completes a rejected submission with the unchanged prompt and snapshot.
func (e *Engine) fill(ctx context.Context, sessionID string, res *SubmitResult) error {
	return e.manager.View(ctx, sessionID, func(iv *runtime.Interview) error {
		res.NextPrompt = e.prompt(iv)
		res.Snapshot = runtime.Snapshot(iv)
		res.SessionComplete = iv.IsComplete()
		return nil
	})
}

func (e *Engine) emitAnswer(ctx context.Context, accepted bool, sessionID, sectionID, stepID, message string) {
	hook := e.hooks.OnAnswerAccepted
	typ := domain.EventAnswerAccepted
	if !accepted {
		hook = e.hooks.OnAnswerRejected
		typ = domain.EventAnswerRejected
	}
	if hook == nil {
		return
	}
	hook(ctx, &domain.AnswerEvent{
		EventBase: domain.EventBase{
			Timestamp: time.Now(),
			Type:      typ,
			SessionID: sessionID,
		},
		SectionID: sectionID,
		StepID:    stepID,
		Message:   message,
	})
}

func (e *Engine) prompt(iv *runtime.Interview) Prompt {
	active := iv.Active()
	if active == nil {
		return Prompt{Done: true}
	}
	p := Prompt{SectionID: active.ID()}
	if s, err := e.graph.Section(active.ID()); err == nil {
		p.SectionTitle = s.Title
		if active.Answers().Len() == 0 {
			p.SectionStart = true
			p.SectionIntro = s.Intro
		}
	}
	if node := active.Current(); node != nil {
		p.StepID = node.ID
		p.Text = node.Prompt
		p.IsGate = node.IsGate()
	}
	return p
}

func (e *Engine) title(sectionID string) string {
	if s, err := e.graph.Section(sectionID); err == nil {
		return s.Title
	}
	return ""
}
