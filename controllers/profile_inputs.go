package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	dbpkg "aura/db"
	"aura/insight"
	"aura/models"

	"github.com/gin-gonic/gin"
)

// Thin CRUD over the three upstream sources the insight cache consumes.
// They belong to their own collaborators in the larger product; here they
// exist so the generation pipeline has something real to read.

type QuizAttemptRequest struct {
	QuizKey string          `json:"quiz_key"`
	Scores  json.RawMessage `json:"scores"`
	Answers json.RawMessage `json:"answers"`
}

// POST /api/quiz-attempts (validated)
func CreateQuizAttempt(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req QuizAttemptRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	var scores map[string]float64
	if err := json.Unmarshal(req.Scores, &scores); err != nil || len(scores) == 0 {
		RespondError(c, "scores must be an object of archetype -> number", http.StatusBadRequest)
		return
	}
	var answers []insight.AnswerRecord
	if len(req.Answers) > 0 {
		if err := json.Unmarshal(req.Answers, &answers); err != nil {
			RespondError(c, "answers must be an array of {question, option}", http.StatusBadRequest)
			return
		}
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db not configured in context", http.StatusInternalServerError)
		return
	}

	quizKey := strings.TrimSpace(req.QuizKey)
	if quizKey == "" {
		quizKey = "archetype"
	}

	item := models.QuizAttempt{
		UserID:  user.ID,
		QuizKey: quizKey,
		Scores:  string(req.Scores),
		Answers: string(req.Answers),
	}
	if err := db.Create(&item).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	RespondSuccess(c, gin.H{"quiz_attempt": item})
}

// GET /api/quiz-attempts (validated)
func GetQuizAttempts(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db not configured in context", http.StatusInternalServerError)
		return
	}

	var items []models.QuizAttempt
	if err := db.Where("user_id = ?", user.ID).Order("id desc").Find(&items).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	RespondSuccess(c, gin.H{"quiz_attempts": items})
}

type CheckInRequest struct {
	Mood       int    `json:"mood" form:"mood"`
	Energy     int    `json:"energy" form:"energy"`
	Connection int    `json:"connection" form:"connection"`
	Note       string `json:"note" form:"note"`
}

// POST /api/checkins (validated)
func CreateCheckIn(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req CheckInRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if !validScale(req.Mood) || !validScale(req.Energy) || !validScale(req.Connection) {
		RespondError(c, "mood, energy and connection must be between 1 and 5", http.StatusBadRequest)
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db not configured in context", http.StatusInternalServerError)
		return
	}

	item := models.CheckIn{
		UserID:     user.ID,
		Mood:       req.Mood,
		Energy:     req.Energy,
		Connection: req.Connection,
		Note:       req.Note,
	}
	if err := db.Create(&item).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	RespondSuccess(c, gin.H{"checkin": item})
}

// GET /api/checkins (validated)
func GetCheckIns(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db not configured in context", http.StatusInternalServerError)
		return
	}

	var items []models.CheckIn
	if err := db.Where("user_id = ?", user.ID).Order("id desc").Limit(100).Find(&items).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	RespondSuccess(c, gin.H{"checkins": items})
}

type JournalEntryRequest struct {
	Body    string `json:"body" form:"body"`
	Summary string `json:"summary" form:"summary"`
}

// POST /api/journal (validated)
func CreateJournalEntry(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req JournalEntryRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Body) == "" {
		RespondError(c, "body is required", http.StatusBadRequest)
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db not configured in context", http.StatusInternalServerError)
		return
	}

	item := models.JournalEntry{
		UserID:  user.ID,
		Body:    req.Body,
		Summary: req.Summary,
	}
	if err := db.Create(&item).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	RespondSuccess(c, gin.H{"journal_entry": item})
}

// GET /api/journal (validated)
func GetJournalEntries(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db not configured in context", http.StatusInternalServerError)
		return
	}

	var items []models.JournalEntry
	if err := db.Where("user_id = ?", user.ID).Order("id desc").Limit(50).Find(&items).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	RespondSuccess(c, gin.H{"journal_entries": items})
}

func validScale(v int) bool {
	return v >= 1 && v <= 5
}
