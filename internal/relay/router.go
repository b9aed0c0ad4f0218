package relay

import (
	"context"
	"strconv"
	"strings"
	"time"

	"relaybot/internal/domain"
	"relaybot/internal/metrics"
)

// handleUser processes a message from an ordinary (non-operator) user:
// classify, append to the transcript, fan out to every operator, then
// acknowledge the sender once all deliveries have been attempted.
func (e *Engine) handleUser(ctx context.Context, ev domain.InboundEvent) {
	unlock := e.locks.lock(userKey(ev.Sender))
	defer unlock()

	if err := e.store.SaveProfile(ctx, ev.Sender, ev.Profile); err != nil {
		e.logger.Warn("profile not saved", "user", int64(ev.Sender), "err", err)
	}

	if ev.Payload.Kind == domain.PayloadCommand {
		e.handleUserCommand(ctx, ev)
		return
	}

	first, err := e.store.Ensure(ctx, ev.Sender)
	if err != nil {
		e.logger.Error("transcript not available", "user", int64(ev.Sender), "err", err)
	}

	entry := e.entryFromPayload(ev.Payload, domain.SenderUser, ev.Time)
	if err := e.store.Append(ctx, ev.Sender, entry); err != nil {
		e.logger.Error("transcript append failed", "user", int64(ev.Sender), "err", err)
	}
	e.refreshGauges(ctx)

	if first {
		e.notifyOperators(ctx, e.render.NewUserNotice(ev.Sender, ev.Profile))
	}

	// Fan out. Failures are independent: one operator being
	// unreachable must not stop the others.
	operators := e.registry.List()
	summary := e.render.BroadcastSummary(ev.Sender, ev.Profile, ev.Payload)
	action := &domain.Action{Kind: domain.ActionReplyTo, UserID: ev.Sender}
	delivered := 0
	for _, op := range operators {
		if err := e.delivery.SendText(ctx, op, summary, action); err != nil {
			e.logger.Warn("broadcast summary not delivered", "operator", int64(op), "err", err)
			continue
		}
		delivered++
		if ev.Payload.IsMedia() {
			e.forwardMedia(ctx, op, ev.Payload.MediaKind(), ev.Payload.Ref,
				e.render.ForwardCaption(ev.Payload.MediaKind(), ev.Sender))
		}
	}
	metrics.BroadcastsTotal.Inc()

	ack := e.render.UserAck()
	if len(operators) > 0 && delivered == 0 {
		ack = e.render.UserAckFailed()
	}
	if err := e.delivery.SendText(ctx, ev.Sender, ack, nil); err != nil {
		e.logger.Warn("user acknowledgment not delivered", "user", int64(ev.Sender), "err", err)
	}
}

func (e *Engine) handleUserCommand(ctx context.Context, ev domain.InboundEvent) {
	switch ev.Payload.Command {
	case "start":
		first, err := e.store.Ensure(ctx, ev.Sender)
		if err != nil {
			e.logger.Error("transcript not available", "user", int64(ev.Sender), "err", err)
		}
		e.refreshGauges(ctx)
		if err := e.delivery.SendText(ctx, ev.Sender, e.render.Greeting(ev.Profile, false), nil); err != nil {
			e.logger.Warn("greeting not delivered", "user", int64(ev.Sender), "err", err)
		}
		if first {
			e.notifyOperators(ctx, e.render.NewUserNotice(ev.Sender, ev.Profile))
		}
	default:
		if err := e.delivery.SendText(ctx, ev.Sender, e.render.Help(false), nil); err != nil {
			e.logger.Warn("help not delivered", "user", int64(ev.Sender), "err", err)
		}
	}
}

// handleOperator routes an operator's message in strict priority order:
// commands (only /cancel touches the relations), then a pending
// workflow, then an active reply binding, then the guidance fallback.
func (e *Engine) handleOperator(ctx context.Context, ev domain.InboundEvent) {
	unlock := e.locks.lock(operatorKey(ev.Sender))
	defer unlock()

	op := ev.Sender
	p := ev.Payload

	if p.Kind == domain.PayloadCommand {
		e.handleOperatorCommand(ctx, ev)
		return
	}

	if wf, ok := e.pendingWorkflow(op); ok {
		if p.Kind == domain.PayloadText {
			e.workflowInput(ctx, op, wf, p.Text)
			return
		}
		// Non-text input cannot be an identifier; re-prompt, keep the state.
		e.sendOperatorNotice(ctx, op, e.render.FormatError())
		return
	}

	if target, ok := e.binding(op); ok {
		if p.Kind == domain.PayloadText {
			e.sendReply(ctx, op, target, p.Text)
			return
		}
		// Replies are text-only; the binding survives so the operator
		// can still answer.
		e.sendOperatorNotice(ctx, op, e.render.ReplyTextOnly())
		return
	}

	e.sendOperatorNotice(ctx, op, e.render.Guidance())
}

func (e *Engine) handleOperatorCommand(ctx context.Context, ev domain.InboundEvent) {
	op := ev.Sender
	switch ev.Payload.Command {
	case "cancel":
		// Clears exactly the active relation, never both.
		if e.clearWorkflow(op) {
			e.sendOperatorNotice(ctx, op, e.render.Cancelled())
			return
		}
		if e.clearBinding(op) {
			e.sendOperatorNotice(ctx, op, e.render.Cancelled())
			return
		}
		e.sendOperatorNotice(ctx, op, e.render.Guidance())
	case "start":
		if err := e.store.SaveProfile(ctx, op, ev.Profile); err != nil {
			e.logger.Warn("profile not saved", "operator", int64(op), "err", err)
		}
		e.sendOperatorNotice(ctx, op, e.render.Greeting(ev.Profile, true))
	case "help":
		e.sendOperatorNotice(ctx, op, e.render.Help(true))
	case "admin_menu":
		if err := e.delivery.SendText(ctx, op, e.render.MenuTitle(), &domain.Action{Kind: domain.ActionAdminMenu}); err != nil {
			e.logger.Warn("menu not delivered", "operator", int64(op), "err", err)
		}
	case "list":
		e.sendUserList(ctx, op)
	case "add_admin":
		e.directRegistryCommand(ctx, op, ev.Payload.Text, workflowAddOperator, e.render.AddUsage())
	case "remove_admin":
		e.directRegistryCommand(ctx, op, ev.Payload.Text, workflowRemoveOperator, e.render.RemoveUsage())
	default:
		e.sendOperatorNotice(ctx, op, e.render.Help(true))
	}
}

// directRegistryCommand applies /add_admin and /remove_admin with an
// inline argument, sharing the apply path with the menu workflows. A
// pending identifier prompt is abandoned: the command supersedes it, so
// the operator's next plain text must not feed the stale flow.
func (e *Engine) directRegistryCommand(ctx context.Context, op domain.UserID, args string, action workflowAction, usage string) {
	e.clearWorkflow(op)
	args = strings.TrimSpace(args)
	if args == "" {
		e.sendOperatorNotice(ctx, op, usage)
		return
	}
	id, err := strconv.ParseInt(args, 10, 64)
	if err != nil {
		e.sendOperatorNotice(ctx, op, e.render.FormatError())
		return
	}
	e.applyRegistryAction(ctx, op, action, domain.UserID(id))
}

// workflowInput consumes the follow-up message of an AwaitingIdentifier
// workflow. A parse failure keeps the state so the operator can retry;
// a valid identifier completes the flow.
func (e *Engine) workflowInput(ctx context.Context, op domain.UserID, wf workflow, text string) {
	id, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		e.sendOperatorNotice(ctx, op, e.render.FormatError())
		return
	}
	e.clearWorkflow(op)
	e.applyRegistryAction(ctx, op, wf.action, domain.UserID(id))
}

func (e *Engine) applyRegistryAction(ctx context.Context, op domain.UserID, action workflowAction, target domain.UserID) {
	var err error
	var confirmation string
	switch action {
	case workflowAddOperator:
		err = e.registry.Add(target)
		confirmation = e.render.OperatorAdded(target)
	case workflowRemoveOperator:
		err = e.registry.Remove(op, target)
		confirmation = e.render.OperatorRemoved(target)
	}
	if err != nil {
		e.sendOperatorNotice(ctx, op, e.render.RegistryError(err))
		return
	}
	metrics.Operators.Set(int64(e.registry.Count()))
	e.sendOperatorNotice(ctx, op, confirmation)
}

// sendReply delivers an operator's bound text to its target user. The
// entry is recorded first; the binding is cleared on send either way.
func (e *Engine) sendReply(ctx context.Context, op, target domain.UserID, text string) {
	unlock := e.locks.lock(userKey(target))
	entry := domain.ConversationEntry{
		Kind:    domain.EntryText,
		Content: text,
		Sender:  domain.SenderOperator,
		At:      time.Now(),
	}
	if err := e.store.Append(ctx, target, entry); err != nil {
		e.logger.Error("transcript append failed", "user", int64(target), "err", err)
	}
	unlock()

	err := e.delivery.SendText(ctx, target, e.render.ReplyForUser(text), nil)
	e.clearBinding(op)

	if err != nil {
		e.logger.Warn("reply not delivered", "operator", int64(op), "user", int64(target), "err", err)
		e.sendOperatorNotice(ctx, op, e.render.ReplyFailed(target))
		return
	}
	metrics.RepliesTotal.Inc()
	e.sendOperatorNotice(ctx, op, e.render.ReplyDelivered(target))
}

// handleButton dispatches a button press. Buttons pre-empt pending
// workflows: any active flow for the operator is aborted silently
// before the action runs.
func (e *Engine) handleButton(ctx context.Context, ev domain.InboundEvent) {
	op := ev.Sender
	if !e.registry.IsOperator(op) {
		e.sendOperatorNotice(ctx, op, e.render.NotAuthorized())
		return
	}

	unlock := e.locks.lock(operatorKey(op))
	defer unlock()

	token := ev.Payload.Text
	if target, ok := domain.ParseReplyToken(token); ok {
		e.beginReply(ctx, op, target)
		return
	}

	// Every menu action interrupts an identifier prompt.
	e.clearWorkflow(op)

	switch token {
	case domain.TokenMenuAddOperator:
		e.setWorkflow(op, workflow{action: workflowAddOperator})
		e.sendPrompt(ctx, op, e.render.AddPrompt())
	case domain.TokenMenuRemoveOp:
		removable := e.registry.Removable(op)
		if len(removable) == 0 {
			e.sendOperatorNotice(ctx, op, e.render.NoRemovable())
			return
		}
		e.setWorkflow(op, workflow{action: workflowRemoveOperator})
		e.sendPrompt(ctx, op, e.render.RemovePrompt(removable))
	case domain.TokenMenuListUsers:
		e.sendUserList(ctx, op)
	case domain.TokenMenuStats:
		stats := e.render.Stats(e.registry.Count(), e.knownUserCount(ctx), e.messageCount(ctx))
		e.sendOperatorNotice(ctx, op, stats)
	case domain.TokenMenuClose:
		e.sendOperatorNotice(ctx, op, e.render.MenuClosed())
	case domain.TokenBackToMenu:
		if err := e.delivery.SendText(ctx, op, e.render.MenuTitle(), &domain.Action{Kind: domain.ActionAdminMenu}); err != nil {
			e.logger.Warn("menu not delivered", "operator", int64(op), "err", err)
		}
	default:
		e.logger.Warn("unknown button token", "operator", int64(op), "token", token)
	}
}

// beginReply establishes the reply binding and replays the target's
// transcript to the operator before accepting the reply text.
func (e *Engine) beginReply(ctx context.Context, op, target domain.UserID) {
	e.setBinding(op, target)

	if err := e.delivery.SendText(ctx, op, e.render.ReplyPrompt(target), nil); err != nil {
		e.logger.Warn("reply prompt not delivered", "operator", int64(op), "err", err)
	}

	hist, err := e.store.History(ctx, target)
	if err != nil {
		e.logger.Error("history read failed", "user", int64(target), "err", err)
		return
	}
	if len(hist) == 0 {
		e.sendOperatorNotice(ctx, op, e.render.HistoryEmpty())
		return
	}

	e.sendOperatorNotice(ctx, op, e.render.HistoryHeader())
	for _, entry := range hist {
		if entry.Kind == domain.EntryText {
			e.sendOperatorNotice(ctx, op, e.render.HistoryLine(entry))
			continue
		}
		e.forwardMedia(ctx, op, entry.Media, entry.Ref, e.render.HistoryMediaCaption(entry))
	}
}

// forwardMedia re-sends a media payload by reference. Stickers cannot
// carry captions on the transport, so the caption follows as text.
func (e *Engine) forwardMedia(ctx context.Context, dest domain.UserID, kind domain.MediaKind, ref, caption string) {
	if err := e.delivery.SendMedia(ctx, dest, kind, ref, caption); err != nil {
		e.logger.Warn("media not forwarded", "dest", int64(dest), "err", err)
		return
	}
	if kind == domain.MediaSticker && caption != "" {
		e.sendOperatorNotice(ctx, dest, caption)
	}
}

func (e *Engine) sendUserList(ctx context.Context, op domain.UserID) {
	users, err := e.store.KnownUsers(ctx)
	if err != nil {
		e.logger.Error("user list read failed", "err", err)
		return
	}
	// Operators talk through the panel, not through transcripts.
	listed := users[:0:0]
	for _, u := range users {
		if !e.registry.IsOperator(u) {
			listed = append(listed, u)
		}
	}
	if len(listed) == 0 {
		e.sendOperatorNotice(ctx, op, e.render.UserListEmpty())
		return
	}

	var sb strings.Builder
	sb.WriteString(e.render.UserListHeader())
	for _, u := range listed {
		p, _, err := e.store.Profile(ctx, u)
		if err != nil {
			e.logger.Warn("profile read failed", "user", int64(u), "err", err)
		}
		sb.WriteString("\n" + e.render.UserListLine(u, p))
	}

	action := &domain.Action{Kind: domain.ActionUserList, Users: listed}
	if err := e.delivery.SendText(ctx, op, sb.String(), action); err != nil {
		e.logger.Warn("user list not delivered", "operator", int64(op), "err", err)
	}
}

func (e *Engine) sendPrompt(ctx context.Context, op domain.UserID, text string) {
	if err := e.delivery.SendText(ctx, op, text, &domain.Action{Kind: domain.ActionCancel}); err != nil {
		e.logger.Warn("prompt not delivered", "operator", int64(op), "err", err)
	}
}

func (e *Engine) sendOperatorNotice(ctx context.Context, op domain.UserID, text string) {
	if err := e.delivery.SendText(ctx, op, text, nil); err != nil {
		e.logger.Warn("notice not delivered", "dest", int64(op), "err", err)
	}
}

func (e *Engine) entryFromPayload(p domain.Payload, sender domain.Sender, at time.Time) domain.ConversationEntry {
	entry := domain.ConversationEntry{
		Content: e.render.EntryContent(p),
		Sender:  sender,
		At:      at,
	}
	if p.IsMedia() {
		entry.Kind = domain.EntryMedia
		entry.Media = p.MediaKind()
		entry.Ref = p.Ref
	}
	return entry
}

func (e *Engine) knownUserCount(ctx context.Context) int {
	users, err := e.store.KnownUsers(ctx)
	if err != nil {
		return 0
	}
	return len(users)
}

func (e *Engine) refreshGauges(ctx context.Context) {
	metrics.KnownUsers.Set(int64(e.knownUserCount(ctx)))
	metrics.Operators.Set(int64(e.registry.Count()))
}
