package services

import (
	"log/slog"
	"math"

	"github.com/JaredJameson/TESTHUB/internal/models"
	"github.com/JaredJameson/TESTHUB/internal/session"
)

type scoringService struct {
	bank          *models.QuestionBank
	scale         *models.GradingScale
	passThreshold float64 // fraction in (0,1]
	logger        *slog.Logger
}

func NewScoringService(bank *models.QuestionBank, scale *models.GradingScale, passThreshold float64, logger *slog.Logger) ScoringService {
	return &scoringService{
		bank:          bank,
		scale:         scale,
		passThreshold: passThreshold,
		logger:        logger,
	}
}

// CalculateResults scores a session against the full question bank. Every
// bank question contributes to the totals whether or not it was answered;
// an unanswered question is simply incorrect. The method has no side
// effects, so re-scoring the same session yields an identical record.
func (s *scoringService) CalculateResults(sess *session.Session) (*models.ResultRecord, error) {
	total := len(s.bank.Questions)
	if total == 0 {
		return nil, ErrScoringImpossible
	}

	record := &models.ResultRecord{
		TotalQuestions: total,
		CategoryStats:  make(map[string]models.CategoryStat, len(s.bank.Categories)),
		Details:        make(map[int]models.QuestionDetail, total),
	}

	for i := range s.bank.Questions {
		q := &s.bank.Questions[i]

		selected := ""
		if answer, ok := sess.AnswerFor(q.ID); ok {
			selected = answer.Selected
		}
		isCorrect := selected != "" && selected == q.CorrectAnswer
		if isCorrect {
			record.CorrectCount++
		}

		record.Details[q.ID] = models.QuestionDetail{
			Selected:  selected,
			Correct:   q.CorrectAnswer,
			IsCorrect: isCorrect,
			Category:  q.Category,
		}

		stat := record.CategoryStats[q.Category]
		stat.Total++
		if isCorrect {
			stat.Correct++
		}
		record.CategoryStats[q.Category] = stat
	}

	for category, stat := range record.CategoryStats {
		stat.Percentage = round2(float64(stat.Correct) / float64(stat.Total) * 100)
		record.CategoryStats[category] = stat
	}

	record.Percentage = round2(float64(record.CorrectCount) / float64(total) * 100)
	record.Passed = record.Percentage >= s.passThreshold*100

	entry := s.scale.Lookup(record.Percentage)
	record.Grade = entry.Label
	record.GradeText = entry.Description

	if completed, started := sess.CompletedAt(), sess.StartedAt(); !completed.IsZero() && !started.IsZero() {
		record.TimeSpentSeconds = int(completed.Sub(started).Seconds())
	}

	return record, nil
}

// round2 rounds half away from zero to two decimal places.
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
