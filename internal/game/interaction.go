package game

import (
	"github.com/wfunc/grimoire/internal/errors"
	"github.com/wfunc/grimoire/internal/game/ability"
	"github.com/wfunc/grimoire/internal/game/grimoire"
)

// raise 新交互排在已有交互之后
func (e *Engine) raise(req ability.Request) {
	e.deferred = append(e.deferred, copyRequest(req))
}

// promoteDeferred 没有待处理交互时取出下一个
func (e *Engine) promoteDeferred() {
	if e.pending != nil || len(e.deferred) == 0 {
		return
	}
	next := e.deferred[0]
	e.deferred = e.deferred[1:]
	if len(e.deferred) == 0 {
		e.deferred = nil
	}
	e.pending = &next
}

// awaiting 是否有指定主题的交互尚未处理
func (e *Engine) awaiting(topic ability.Topic) bool {
	if e.pending != nil && e.pending.Topic == topic {
		return true
	}
	for _, req := range e.deferred {
		if req.Topic == topic {
			return true
		}
	}
	return false
}

// ResolveInteraction 处理待处理的交互，交互在恢复执行前先被清除
func (e *Engine) ResolveInteraction(kind ability.InteractionKind, p ability.Payload) error {
	op := "resolve_interaction"
	if e.Phase() == PhaseGameOver {
		return e.reject(op, errors.New(errors.ErrGameOver))
	}
	if e.pending == nil {
		return e.reject(op, errors.New(errors.ErrNoInteraction))
	}
	if e.pending.Kind != kind {
		return e.reject(op, errors.Newf(errors.ErrInteractionMismatch, "等待 %s, 收到 %s", e.pending.Kind, kind))
	}
	req := *e.pending
	if err := req.Validate(p); err != nil {
		return e.reject(op, err)
	}

	e.checkpoint()
	e.pending = nil
	if err := e.resume(req, p); err != nil {
		e.rollback()
		return e.reject(op, err)
	}
	return nil
}

func (e *Engine) resume(req ability.Request, p ability.Payload) error {
	if req.Topic == ability.TopicNightEnd {
		e.log(nil, "The storyteller announces the night's deaths.")
	} else {
		ctx := e.context(e.kind(), req.ActorID, nil)
		res, err := e.registry.Resume(ctx, req, p)
		if err != nil {
			return err
		}
		actor := req.ActorID
		if err := e.apply(&actor, res, grimoire.Situation{}); err != nil {
			return err
		}
	}
	e.promoteDeferred()
	if e.pending == nil && e.stepDone && e.Phase().IsNight() {
		e.next()
	}
	return nil
}
