package session

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/pdtechteam/quiz-generator/internal/awards"
	"github.com/pdtechteam/quiz-generator/internal/domain/entity"
	apperrors "github.com/pdtechteam/quiz-generator/internal/pkg/errors"
)

// Runtime is Component G: the per-session state machine of spec.md §4.7.
// All state mutations for a session pass through run(), its single
// goroutine, giving a single-writer guarantee without fine-grained
// locking (§5).
type Runtime struct {
	code string
	deps Deps

	cmdCh  chan Command
	doneCh chan struct{}

	clientsMu sync.RWMutex
	clients   map[ClientHandle]struct{}
	playerOf  map[ClientHandle]uint
	clientOf  map[uint]ClientHandle

	session   *entity.GameSession
	quiz      *entity.Quiz
	questions []entity.Question

	currentQuestion *entity.Question
	questionStarted time.Time

	timer          *time.Timer
	timerC         <-chan time.Time
	timerPhase     string
	countdownValue int
}

func newRuntime(gs *entity.GameSession, quiz *entity.Quiz, deps Deps) *Runtime {
	questions := append([]entity.Question(nil), quiz.Questions...)
	sort.Slice(questions, func(i, j int) bool { return questions[i].Order < questions[j].Order })

	return &Runtime{
		code:      gs.Code,
		deps:      deps,
		cmdCh:     make(chan Command, 64),
		doneCh:    make(chan struct{}),
		clients:   make(map[ClientHandle]struct{}),
		playerOf:  make(map[ClientHandle]uint),
		clientOf:  make(map[uint]ClientHandle),
		session:   gs,
		quiz:      quiz,
		questions: questions,
	}
}

func (rt *Runtime) enqueue(cmd Command) {
	select {
	case rt.cmdCh <- cmd:
	case <-rt.doneCh:
	}
}

func (rt *Runtime) stop() {
	close(rt.doneCh)
}

func (rt *Runtime) attachClient(client ClientHandle) {
	rt.clientsMu.Lock()
	rt.clients[client] = struct{}{}
	rt.clientsMu.Unlock()
}

func (rt *Runtime) detachClient(client ClientHandle) {
	rt.clientsMu.Lock()
	delete(rt.clients, client)
	rt.clientsMu.Unlock()
}

func (rt *Runtime) boundPlayer(client ClientHandle) (uint, bool) {
	rt.clientsMu.RLock()
	defer rt.clientsMu.RUnlock()
	id, ok := rt.playerOf[client]
	return id, ok
}

func (rt *Runtime) bind(client ClientHandle, playerID uint) {
	rt.clientsMu.Lock()
	rt.playerOf[client] = playerID
	rt.clientOf[playerID] = client
	rt.clientsMu.Unlock()
}

func (rt *Runtime) unbind(client ClientHandle) (uint, bool) {
	rt.clientsMu.Lock()
	defer rt.clientsMu.Unlock()
	id, ok := rt.playerOf[client]
	if !ok {
		return 0, false
	}
	delete(rt.playerOf, client)
	if rt.clientOf[id] == client {
		delete(rt.clientOf, id)
	}
	return id, true
}

func (rt *Runtime) run() {
	heartbeat := time.NewTicker(rt.deps.Config.HeartbeatScan)
	defer heartbeat.Stop()

	for {
		select {
		case cmd := <-rt.cmdCh:
			rt.handle(cmd)
		case <-rt.timerC:
			rt.handleTimer()
		case <-heartbeat.C:
			rt.scanHeartbeats()
		case <-rt.doneCh:
			return
		}
	}
}

func (rt *Runtime) setTimer(phase string, d time.Duration) {
	if rt.timer != nil {
		rt.timer.Stop()
	}
	rt.timerPhase = phase
	rt.timer = time.NewTimer(d)
	rt.timerC = rt.timer.C
}

func (rt *Runtime) clearTimer() {
	if rt.timer != nil {
		rt.timer.Stop()
	}
	rt.timerPhase = ""
	rt.timerC = nil
}

func (rt *Runtime) handle(cmd Command) {
	switch cmd.Type {
	case CmdJoin:
		rt.onJoin(cmd)
	case CmdBecomeHost:
		rt.onBecomeHost(cmd)
	case CmdStartGame, CmdPauseGame, CmdResumeGame, CmdSkipQuestion, CmdEndGame, CmdNextQuestion:
		rt.onHostCommand(cmd)
	case CmdAnswer:
		rt.onAnswer(cmd)
	case CmdPing:
		rt.onPing(cmd)
	case CmdReaction:
		rt.onReaction(cmd)
	case cmdClientGone:
		rt.onClientGone(cmd)
	default:
		cmd.Client.Send(errorEvent(apperrors.ErrUnknownType, "unrecognized message type"))
	}
}

func errorEvent(err error, message string) Event {
	return NewEvent("error", map[string]interface{}{
		"kind":    apperrors.Kind(err),
		"message": message,
	})
}

func (rt *Runtime) onJoin(cmd Command) {
	if cmd.PlayerName == "" {
		cmd.Client.Send(errorEvent(apperrors.ErrMissingField, "player_name is required"))
		return
	}

	player, _, err := rt.deps.SessionRepo.GetOrCreatePlayer(rt.session.ID, cmd.PlayerName)
	if err != nil {
		log.Printf("[Runtime %s] GetOrCreatePlayer failed: %v", rt.code, err)
		cmd.Client.Send(errorEvent(apperrors.ErrStoreUnavailable, "could not join session"))
		return
	}
	rt.bind(cmd.Client, player.ID)

	cmd.Client.Send(NewEvent("joined", map[string]interface{}{"player": playerView(player)}))
	rt.Broadcast(NewEvent("player_joined", map[string]interface{}{"player": playerView(player)}))

	if rt.session.State == entity.SessionRunning || rt.session.State == entity.SessionPaused {
		cmd.Client.Send(rt.sessionStateEvent())
	}
}

func (rt *Runtime) onBecomeHost(cmd Command) {
	playerID, ok := rt.boundPlayer(cmd.Client)
	if !ok {
		cmd.Client.Send(errorEvent(apperrors.ErrNotJoined, "join before becoming host"))
		return
	}
	if rt.session.HostPlayerID != nil {
		cmd.Client.Send(errorEvent(apperrors.ErrAlreadyHasHost, "session already has a host"))
		return
	}
	if err := rt.deps.SessionRepo.SetHost(rt.session.ID, playerID); err != nil {
		cmd.Client.Send(errorEvent(err, err.Error()))
		return
	}
	rt.session.HostPlayerID = &playerID
	rt.Broadcast(NewEvent("host_assigned", map[string]interface{}{"player": map[string]interface{}{"id": playerID}}))
}

func (rt *Runtime) onHostCommand(cmd Command) {
	playerID, ok := rt.boundPlayer(cmd.Client)
	if !ok || rt.session.HostPlayerID == nil || playerID != *rt.session.HostPlayerID {
		cmd.Client.Send(errorEvent(apperrors.ErrUnauthorized, "only the host may issue this command"))
		return
	}

	switch cmd.Type {
	case CmdStartGame:
		rt.startGame(cmd)
	case CmdPauseGame:
		rt.pauseGame(cmd)
	case CmdResumeGame:
		rt.resumeGame(cmd)
	case CmdSkipQuestion:
		rt.skipQuestion(cmd)
	case CmdEndGame:
		rt.finish()
	case CmdNextQuestion:
		rt.forceAdvance(cmd)
	}
}

func (rt *Runtime) startGame(cmd Command) {
	if rt.session.State != entity.SessionWaiting {
		cmd.Client.Send(errorEvent(apperrors.ErrInternal, "game already started"))
		return
	}
	if err := rt.deps.SessionRepo.SetState(rt.session.ID, entity.SessionRunning); err != nil {
		cmd.Client.Send(errorEvent(apperrors.ErrStoreUnavailable, "could not start game"))
		return
	}
	rt.session.State = entity.SessionRunning
	rt.Broadcast(NewEvent("game_started", nil))
	rt.enterQuestion()
}

func (rt *Runtime) pauseGame(cmd Command) {
	if rt.session.State != entity.SessionRunning {
		cmd.Client.Send(errorEvent(apperrors.ErrInternal, "game is not running"))
		return
	}
	rt.pause()
}

func (rt *Runtime) pause() {
	if err := rt.deps.SessionRepo.SetState(rt.session.ID, entity.SessionPaused); err != nil {
		log.Printf("[Runtime %s] failed to persist pause: %v", rt.code, err)
	}
	rt.session.State = entity.SessionPaused
	rt.clearTimer()
}

func (rt *Runtime) resumeGame(cmd Command) {
	if rt.session.State != entity.SessionPaused {
		cmd.Client.Send(errorEvent(apperrors.ErrInternal, "game is not paused"))
		return
	}
	rt.countdownValue = 3
	rt.Broadcast(NewEvent("countdown", map[string]interface{}{"count": rt.countdownValue}))
	rt.setTimer("countdown", rt.deps.Config.CountdownStep)
}

func (rt *Runtime) skipQuestion(cmd Command) {
	if rt.session.State != entity.SessionRunning || rt.currentQuestion == nil || rt.timerPhase != "" {
		cmd.Client.Send(errorEvent(apperrors.ErrInternal, "no question currently accepting answers"))
		return
	}
	rt.beginReveal()
}

func (rt *Runtime) forceAdvance(cmd Command) {
	if rt.timerPhase != "results" {
		cmd.Client.Send(errorEvent(apperrors.ErrInternal, "not awaiting next question"))
		return
	}
	rt.clearTimer()
	rt.advanceOrFinish()
}

func (rt *Runtime) handleTimer() {
	switch rt.timerPhase {
	case "reveal":
		rt.revealResult()
	case "results":
		rt.clearTimer()
		rt.advanceOrFinish()
	case "countdown":
		rt.countdownValue--
		if rt.countdownValue > 0 {
			rt.Broadcast(NewEvent("countdown", map[string]interface{}{"count": rt.countdownValue}))
			rt.setTimer("countdown", rt.deps.Config.CountdownStep)
			return
		}
		rt.clearTimer()
		if err := rt.deps.SessionRepo.SetState(rt.session.ID, entity.SessionRunning); err != nil {
			log.Printf("[Runtime %s] failed to persist resume: %v", rt.code, err)
		}
		rt.session.State = entity.SessionRunning
		rt.Broadcast(NewEvent("game_resumed", nil))
	}
}

// enterQuestion reads the current question by index and broadcasts it.
// Per the resolved Open Question (spec.md §9), current_question advances
// only on transition to the next question; reads during a question
// return the in-progress question.
func (rt *Runtime) enterQuestion() {
	idx := rt.session.CurrentQuestion
	if idx >= len(rt.questions) {
		rt.finish()
		return
	}
	rt.currentQuestion = &rt.questions[idx]
	rt.questionStarted = time.Now()

	limit := rt.currentQuestion.EffectiveTimeLimit(rt.quiz.DefaultTimePerQuestion)
	choices := make([]map[string]interface{}, 0, len(rt.currentQuestion.Choices))
	for _, c := range rt.currentQuestion.Choices {
		choices = append(choices, map[string]interface{}{
			"id":    c.ID,
			"text":  c.Text,
			"order": c.Order,
		})
	}

	rt.Broadcast(NewEvent("question", map[string]interface{}{
		"question": map[string]interface{}{
			"uuid":       rt.currentQuestion.UUID.String(),
			"order":      rt.currentQuestion.Order,
			"text":       rt.currentQuestion.Text,
			"difficulty": rt.currentQuestion.Difficulty,
			"image_url":  rt.currentQuestion.ImageURL,
			"time_limit": limit,
			"choices":    choices,
		},
	}))
}

func (rt *Runtime) onAnswer(cmd Command) {
	playerID, ok := rt.boundPlayer(cmd.Client)
	if !ok {
		cmd.Client.Send(errorEvent(apperrors.ErrNotJoined, "join before answering"))
		return
	}
	if rt.session.State == entity.SessionPaused {
		cmd.Client.Send(errorEvent(apperrors.ErrPaused, "game is paused"))
		return
	}
	if rt.session.State != entity.SessionRunning || rt.currentQuestion == nil || rt.timerPhase != "" {
		cmd.Client.Send(errorEvent(apperrors.ErrStaleQuestion, "question is no longer accepting answers"))
		return
	}
	if cmd.QuestionUUID != rt.currentQuestion.UUID.String() {
		cmd.Client.Send(errorEvent(apperrors.ErrStaleQuestion, "answer refers to a question that is no longer current"))
		return
	}

	player, err := rt.deps.SessionRepo.GetPlayer(playerID)
	if err != nil {
		cmd.Client.Send(errorEvent(apperrors.ErrStoreUnavailable, "could not load player"))
		return
	}

	limit := float64(rt.currentQuestion.EffectiveTimeLimit(rt.quiz.DefaultTimePerQuestion))
	answer, err := rt.deps.SessionRepo.RecordAnswer(player, rt.currentQuestion, cmd.ChoiceID, cmd.TimeTaken, limit)
	if err != nil {
		if err == apperrors.ErrAlreadyAnswered {
			cmd.Client.Send(errorEvent(apperrors.ErrAlreadyAnswered, "you already answered this question"))
			return
		}
		cmd.Client.Send(errorEvent(apperrors.ErrStoreUnavailable, "could not record answer"))
		return
	}

	cmd.Client.Send(NewEvent("answer_received", map[string]interface{}{
		"is_correct":    answer.IsCorrect,
		"points_earned": answer.PointsEarned,
		"reply": map[string]interface{}{
			"question_uuid": cmd.QuestionUUID,
			"choice_id":     cmd.ChoiceID,
		},
	}))

	answered, err := rt.deps.SessionRepo.CountAnswersForQuestion(rt.session.ID, rt.currentQuestion.ID)
	if err != nil {
		log.Printf("[Runtime %s] CountAnswersForQuestion failed: %v", rt.code, err)
		return
	}
	connected, err := rt.deps.SessionRepo.CountConnectedPlayers(rt.session.ID)
	if err != nil {
		log.Printf("[Runtime %s] CountConnectedPlayers failed: %v", rt.code, err)
		return
	}
	correctCount := 0
	if answers, aerr := rt.deps.SessionRepo.AnswersForSession(rt.session.ID); aerr == nil {
		for _, a := range answers {
			if a.QuestionID == rt.currentQuestion.ID && a.IsCorrect {
				correctCount++
			}
		}
	}

	rt.Broadcast(NewEvent("answer_stats", map[string]interface{}{
		"answered": fmt.Sprintf("%d/%d", answered, connected),
		"correct":  correctCount,
	}))

	if connected > 0 && answered >= connected {
		rt.beginReveal()
	}
}

func (rt *Runtime) beginReveal() {
	rt.setTimer("reveal", rt.deps.Config.RevealDelay)
}

func (rt *Runtime) revealResult() {
	rt.clearTimer()
	if rt.currentQuestion == nil {
		rt.advanceOrFinish()
		return
	}

	var correctChoice *entity.Choice
	for i := range rt.currentQuestion.Choices {
		if rt.currentQuestion.Choices[i].IsCorrect {
			correctChoice = &rt.currentQuestion.Choices[i]
			break
		}
	}

	leaderboard, err := rt.deps.SessionRepo.Leaderboard(rt.session.ID)
	if err != nil {
		log.Printf("[Runtime %s] Leaderboard failed: %v", rt.code, err)
	}

	payload := map[string]interface{}{
		"explanation": rt.currentQuestion.Explanation,
		"uuid":        rt.currentQuestion.UUID.String(),
	}
	if correctChoice != nil {
		payload["correct_choice"] = map[string]interface{}{
			"id":   correctChoice.ID,
			"text": correctChoice.Text,
		}
	}

	rt.Broadcast(NewEvent("question_result", map[string]interface{}{
		"question":    payload,
		"leaderboard": leaderboardView(leaderboard),
	}))

	rt.setTimer("results", rt.deps.Config.ResultsDisplay)
}

func (rt *Runtime) advanceOrFinish() {
	if err := rt.deps.SessionRepo.AdvanceQuestion(rt.session.ID); err != nil {
		log.Printf("[Runtime %s] AdvanceQuestion failed: %v", rt.code, err)
	}
	rt.session.CurrentQuestion++
	rt.currentQuestion = nil
	rt.enterQuestion()
}

func (rt *Runtime) finish() {
	rt.clearTimer()
	rt.currentQuestion = nil
	if err := rt.deps.SessionRepo.SetState(rt.session.ID, entity.SessionFinished); err != nil {
		log.Printf("[Runtime %s] failed to persist finish: %v", rt.code, err)
	}
	rt.session.State = entity.SessionFinished

	leaderboard, err := rt.deps.SessionRepo.Leaderboard(rt.session.ID)
	if err != nil {
		log.Printf("[Runtime %s] Leaderboard failed at finish: %v", rt.code, err)
	}
	answers, err := rt.deps.SessionRepo.AnswersForSession(rt.session.ID)
	if err != nil {
		log.Printf("[Runtime %s] AnswersForSession failed at finish: %v", rt.code, err)
	}

	awardResult := awards.Evaluate(toPlayerViews(leaderboard), toAnswerViews(answers, rt.questions, rt.quiz.DefaultTimePerQuestion))

	awardsPayload := make(map[string]interface{}, len(awardResult))
	for key, a := range awardResult {
		awardsPayload[key] = map[string]interface{}{
			"player_id":   a.PlayerID,
			"name":        a.DisplayName,
			"emoji":       a.Emoji,
			"value":       a.NumericValue,
			"description": a.Description,
		}
	}

	rt.Broadcast(NewEvent("game_over", map[string]interface{}{
		"leaderboard": leaderboardView(leaderboard),
		"awards":      awardsPayload,
	}))
}

func (rt *Runtime) onPing(cmd Command) {
	if playerID, ok := rt.boundPlayer(cmd.Client); ok {
		if err := rt.deps.SessionRepo.TouchLastSeen(playerID); err != nil {
			log.Printf("[Runtime %s] TouchLastSeen failed: %v", rt.code, err)
		}
	}
	cmd.Client.Send(NewEvent("pong", nil))
}

func (rt *Runtime) onReaction(cmd Command) {
	playerID, ok := rt.boundPlayer(cmd.Client)
	if !ok {
		cmd.Client.Send(errorEvent(apperrors.ErrNotJoined, "join before reacting"))
		return
	}
	if rt.session.State == entity.SessionFinished {
		cmd.Client.Send(errorEvent(apperrors.ErrInternal, "session has finished"))
		return
	}
	allowed, err := rt.deps.Limiter.Allow(rt.code, playerID)
	if err != nil {
		log.Printf("[Runtime %s] reaction limiter error: %v", rt.code, err)
	}
	if !allowed {
		cmd.Client.Send(errorEvent(apperrors.ErrRateLimited, "reacting too quickly"))
		return
	}

	player, err := rt.deps.SessionRepo.GetPlayer(playerID)
	if err != nil {
		return
	}
	rt.Broadcast(NewEvent("player_reaction", map[string]interface{}{
		"player_id":   playerID,
		"player_name": player.Name,
		"emoji":       cmd.Emoji,
	}))
}

func (rt *Runtime) onClientGone(cmd Command) {
	playerID, ok := rt.unbind(cmd.Client)
	if !ok {
		return
	}
	if err := rt.deps.SessionRepo.SetPlayerConnected(playerID, false); err != nil {
		log.Printf("[Runtime %s] SetPlayerConnected failed: %v", rt.code, err)
	}

	if rt.session.HostPlayerID != nil && playerID == *rt.session.HostPlayerID && rt.session.State == entity.SessionRunning {
		rt.pause()
		rt.Broadcast(NewEvent("host_disconnected", map[string]interface{}{"message": "host disconnected, game paused"}))
	}
}

// scanHeartbeats marks any connected player whose last_seen exceeds the
// heartbeat timeout as disconnected (§5). This changes who counts toward
// CountConnectedPlayers, which can in turn complete the current question
// if every remaining connected player has already answered.
func (rt *Runtime) scanHeartbeats() {
	cutoff := time.Now().Add(-rt.deps.Config.HeartbeatTimeout)
	stale, err := rt.deps.SessionRepo.MarkStaleDisconnected(rt.session.ID, cutoff)
	if err != nil {
		log.Printf("[Runtime %s] MarkStaleDisconnected failed: %v", rt.code, err)
		return
	}
	for _, p := range stale {
		rt.Broadcast(NewEvent("player_disconnected", map[string]interface{}{"player_id": p.ID, "name": p.Name}))
		if rt.session.HostPlayerID != nil && p.ID == *rt.session.HostPlayerID {
			if rt.session.State == entity.SessionRunning {
				rt.pause()
				rt.Broadcast(NewEvent("host_disconnected", map[string]interface{}{"message": "host disconnected, game paused"}))
			}
			// Unlike a live channel closing (onClientGone), a heartbeat
			// timeout means the host has been unreachable long enough that
			// a reconnect can no longer be assumed; vacate the role so any
			// connected player can become_host.
			if err := rt.deps.SessionRepo.ClearHost(rt.session.ID); err != nil {
				log.Printf("[Runtime %s] ClearHost failed: %v", rt.code, err)
			} else {
				rt.session.HostPlayerID = nil
			}
		}
	}
	if len(stale) > 0 && rt.session.State == entity.SessionRunning && rt.currentQuestion != nil {
		answered, aerr := rt.deps.SessionRepo.CountAnswersForQuestion(rt.session.ID, rt.currentQuestion.ID)
		connected, cerr := rt.deps.SessionRepo.CountConnectedPlayers(rt.session.ID)
		if aerr == nil && cerr == nil && connected > 0 && answered >= connected {
			rt.beginReveal()
		}
	}
}

func (rt *Runtime) sessionStateEvent() Event {
	data := map[string]interface{}{
		"state":            rt.session.State,
		"current_question": rt.session.CurrentQuestion,
	}
	if rt.currentQuestion != nil {
		limit := rt.currentQuestion.EffectiveTimeLimit(rt.quiz.DefaultTimePerQuestion)
		choices := make([]map[string]interface{}, 0, len(rt.currentQuestion.Choices))
		for _, c := range rt.currentQuestion.Choices {
			choices = append(choices, map[string]interface{}{"id": c.ID, "text": c.Text, "order": c.Order})
		}
		data["question"] = map[string]interface{}{
			"uuid":       rt.currentQuestion.UUID.String(),
			"order":      rt.currentQuestion.Order,
			"text":       rt.currentQuestion.Text,
			"difficulty": rt.currentQuestion.Difficulty,
			"time_limit": limit,
			"choices":    choices,
		}
	}
	return NewEvent("session_state", data)
}

func playerView(p *entity.Player) map[string]interface{} {
	return map[string]interface{}{
		"id":             p.ID,
		"name":           p.Name,
		"score":          p.Score,
		"current_streak": p.CurrentStreak,
		"max_streak":     p.MaxStreak,
		"is_host":        p.IsHost,
		"connected":      p.Connected,
	}
}

func leaderboardView(players []entity.Player) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(players))
	for _, p := range players {
		out = append(out, playerView(&p))
	}
	return out
}

func toPlayerViews(players []entity.Player) []awards.PlayerView {
	out := make([]awards.PlayerView, 0, len(players))
	for _, p := range players {
		out = append(out, awards.PlayerView{ID: p.ID, Name: p.Name, MaxStreak: p.MaxStreak, JoinedAt: p.JoinedAt})
	}
	return out
}

func toAnswerViews(answers []entity.Answer, questions []entity.Question, quizDefault int) []awards.AnswerView {
	byID := make(map[uint]entity.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	out := make([]awards.AnswerView, 0, len(answers))
	for _, a := range answers {
		q := byID[a.QuestionID]
		out = append(out, awards.AnswerView{
			PlayerID:   a.PlayerID,
			IsCorrect:  a.IsCorrect,
			TimeTaken:  a.TimeTaken,
			TimeLimit:  float64(q.EffectiveTimeLimit(quizDefault)),
			Difficulty: q.Difficulty,
		})
	}
	return out
}
