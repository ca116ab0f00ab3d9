package service

import (
	"sort"
	"thai_learn_backend/internal/model"
)

// 数值型挑战：类型 -> 快照字段
var snapshotFields = map[model.ChallengeKind]func(model.ProgressSnapshot) int{
	model.KindXPGoal:              func(s model.ProgressSnapshot) int { return s.XP },
	model.KindStreakGoal:          func(s model.ProgressSnapshot) int { return s.Streak },
	model.KindGamesPlayed:         func(s model.ProgressSnapshot) int { return s.GamesPlayed },
	model.KindPerfectScores:       func(s model.ProgressSnapshot) int { return s.PerfectScores },
	model.KindTimeSpent:           func(s model.ProgressSnapshot) int { return s.TimeSpentSeconds },
	model.KindCategoriesCompleted: func(s model.ProgressSnapshot) int { return s.CategoriesCompleted },
	model.KindCorrectAnswers:      func(s model.ProgressSnapshot) int { return s.CorrectAnswers },
}

// 事件型挑战：类型 -> 信号
var eventSignals = map[model.ChallengeKind]func(model.EventSignals) bool{
	model.KindDailyLogin:         func(e model.EventSignals) bool { return e.LoggedInToday },
	model.KindSpecialAchievement: func(e model.EventSignals) bool { return e.UnlockedSpecialAchievement },
}

// KnownKind 是否为可匹配的挑战类型
func KnownKind(kind model.ChallengeKind) bool {
	if _, ok := snapshotFields[kind]; ok {
		return true
	}
	_, ok := eventSignals[kind]
	return ok
}

// PendingChallenge 待匹配的挑战，Progress 为 nil 表示用户尚无进度记录
type PendingChallenge struct {
	Definition model.ChallengeDefinition
	Progress   *model.ChallengeProgress
}

type MatchInput struct {
	Level      model.LearnerLevel
	Snapshot   model.ProgressSnapshot
	Signals    model.EventSignals
	Challenges []PendingChallenge
}

// ChallengeOutcome 单个挑战的匹配结果
type ChallengeOutcome struct {
	Definition   model.ChallengeDefinition
	Existing     bool
	CurrentValue int
	Satisfied    bool
}

type IgnoredChallenge struct {
	ChallengeID uint                `json:"challengeId"`
	Kind        model.ChallengeKind `json:"kind"`
	Reason      string              `json:"reason"`
}

type MatchResult struct {
	// 适用且未完成的挑战（含本次满足的），按 challengeId 升序
	Outcomes []ChallengeOutcome
	// 本次新满足目标的挑战，按 challengeId 升序
	Satisfied []ChallengeOutcome
	// 无法识别类型的挑战
	Ignored []IgnoredChallenge
	// 因等级不适用而跳过的挑战
	LevelSkipped []uint
}

// MatchChallenges 纯函数：根据快照和信号判断哪些挑战达成
// 已完成的挑战不参与匹配，数值回退也不会撤销完成状态
func MatchChallenges(in MatchInput) MatchResult {
	challenges := make([]PendingChallenge, len(in.Challenges))
	copy(challenges, in.Challenges)
	sort.SliceStable(challenges, func(i, j int) bool {
		return challenges[i].Definition.ID < challenges[j].Definition.ID
	})

	var res MatchResult
	for _, c := range challenges {
		def := c.Definition
		if !def.Active {
			continue
		}
		if c.Progress != nil && c.Progress.Status == model.ChallengeCompleted {
			continue
		}
		if !def.AppliesTo(in.Level) {
			res.LevelSkipped = append(res.LevelSkipped, def.ID)
			continue
		}

		value, satisfied, ok := measure(def, in.Snapshot, in.Signals)
		if !ok {
			res.Ignored = append(res.Ignored, IgnoredChallenge{
				ChallengeID: def.ID,
				Kind:        def.Kind,
				Reason:      "unknown challenge kind",
			})
			continue
		}

		outcome := ChallengeOutcome{
			Definition:   def,
			Existing:     c.Progress != nil,
			CurrentValue: value,
			Satisfied:    satisfied,
		}
		res.Outcomes = append(res.Outcomes, outcome)
		if satisfied {
			res.Satisfied = append(res.Satisfied, outcome)
		}
	}
	return res
}

func measure(def model.ChallengeDefinition, snapshot model.ProgressSnapshot, signals model.EventSignals) (int, bool, bool) {
	if field, ok := snapshotFields[def.Kind]; ok {
		value := field(snapshot)
		return value, def.TargetValue > 0 && value >= def.TargetValue, true
	}
	if signal, ok := eventSignals[def.Kind]; ok {
		if signal(signals) {
			return 1, true, true
		}
		return 0, false, true
	}
	return 0, false, false
}
