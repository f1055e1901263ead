package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/shadowlingo/shadow/internal/app/presenter"
	"github.com/shadowlingo/shadow/internal/domain"
)

// ─── Practice Events ────────────────────────────────────────────────────────

type recordEventRequest struct {
	InputLang  string `json:"input_lang"`
	TargetLang string `json:"target_lang"`
	Type       string `json:"type"`
}

func (s *Server) handleRecordEvent(w http.ResponseWriter, r *http.Request) {
	var req recordEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pair := domain.LanguagePair{Input: req.InputLang, Target: req.TargetLang}
	res, err := s.agg.RecordEvent(r.Context(), pair, domain.EventType(req.Type))
	if errors.Is(err, domain.ErrUnknownEventType) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Detected milestones drive the popup flow. The controller's guard
	// drops them while a completion sequence is on screen.
	for _, ev := range res.Milestones {
		s.ctrl.ShowMilestone(ev)
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleForceSync(w http.ResponseWriter, r *http.Request) {
	s.agg.ForceSync(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"lifetime_total": s.agg.LifetimeTotal(),
	})
}

// ─── Stats Queries ──────────────────────────────────────────────────────────

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	today, err := s.agg.TodaySnapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	lifetime, err := s.agg.LifetimeSnapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session":        s.agg.Session(),
		"today":          today,
		"lifetime":       lifetime,
		"current_streak": lifetime.CurrentStreak,
		"milestones":     s.agg.MilestoneHistory(),
	})
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	days := 30
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 365 {
			writeError(w, http.StatusBadRequest, "days must be between 1 and 365")
			return
		}
		days = n
	}

	records, err := s.agg.DailyHistory(r.Context(), days)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []domain.DailyStatRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"days":    days,
		"records": records,
	})
}

func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	pairs, err := s.agg.LanguagePairStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if pairs == nil {
		pairs = []domain.LanguagePairStat{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"languages": pairs,
	})
}

func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) {
	stats, err := s.streak.Current(r.Context(), s.userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"current_streak":    stats.CurrentStreak,
		"streak_start_date": stats.StreakStartDate,
		"last_calculation":  stats.LastStreakCalculation,
	})
}

func (s *Server) handleMilestones(w http.ResponseWriter, r *http.Request) {
	hist := s.agg.MilestoneHistory()
	if hist == nil {
		hist = []domain.MilestoneEvent{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"milestones": hist,
	})
}

// ─── Presentation ───────────────────────────────────────────────────────────

func (s *Server) handlePresentationState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"state": s.ctrl.State(),
		"step":  s.ctrl.CurrentStep(),
	})
}

func (s *Server) handleNotice(w http.ResponseWriter, r *http.Request) {
	var n presenter.Notice
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"shown": s.ctrl.Show(n),
		"state": s.ctrl.State(),
	})
}

func (s *Server) handleCompleteList(w http.ResponseWriter, r *http.Request) {
	s.ctrl.CompleteList()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"state":      s.ctrl.State(),
		"step":       s.ctrl.CurrentStep(),
		"milestones": s.ctrl.Milestones(),
	})
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	step, err := s.ctrl.Advance(r.Context())
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	resp := map[string]interface{}{
		"state": s.ctrl.State(),
		"step":  step,
	}
	if step == presenter.StepProgress {
		today, lifetime := s.ctrl.Snapshots()
		resp["today"] = today
		resp["lifetime"] = lifetime
	}
	if step == presenter.StepMilestones {
		resp["milestones"] = s.ctrl.Milestones()
	}
	writeJSON(w, http.StatusOK, resp)
}

type finishRequest struct {
	Action string `json:"action"`
}

func (s *Server) handleFinish(w http.ResponseWriter, r *http.Request) {
	var req finishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch presenter.Action(req.Action) {
	case presenter.ActionGoNext, presenter.ActionGoAgain, presenter.ActionHome:
	default:
		writeError(w, http.StatusBadRequest, "unknown action "+strconv.Quote(req.Action))
		return
	}

	cmd, err := s.ctrl.Finish(presenter.Action(req.Action))
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cmd)
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Dismiss()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"state": s.ctrl.State(),
	})
}
