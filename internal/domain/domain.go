// Package domain re-exports the persisted models and engine value types
// under one import, conventionally aliased as "types".
package domain

import (
	"github.com/lumehq/lume-backend/internal/domain/engine"
	"github.com/lumehq/lume-backend/internal/domain/jobs"
	"github.com/lumehq/lume-backend/internal/domain/schedule"
	"github.com/lumehq/lume-backend/internal/domain/user"
)

type (
	User         = user.User
	ScheduleItem = schedule.ScheduleItem

	InterventionLog      = engine.InterventionLog
	FeedbackStat         = engine.FeedbackStat
	SuggestionPreference = engine.SuggestionPreference
	DailyState           = engine.DailyState
	LedgerEntry          = engine.LedgerEntry

	JobRun = jobs.JobRun
)

const (
	ScheduleStatusPending   = schedule.StatusPending
	ScheduleStatusCompleted = schedule.StatusCompleted
	ScheduleStatusSkipped   = schedule.StatusSkipped

	ActionRiskAlert    = engine.ActionRiskAlert
	ActionSuggestion   = engine.ActionSuggestion
	ActionAddSchedule  = engine.ActionAddSchedule
	ActionPacingAdjust = engine.ActionPacingAdjust
	ActionCelebration  = engine.ActionCelebration

	FeedbackAccepted  = engine.FeedbackAccepted
	FeedbackDismissed = engine.FeedbackDismissed
	FeedbackIgnored   = engine.FeedbackIgnored

	BlockMorning   = engine.BlockMorning
	BlockAfternoon = engine.BlockAfternoon
	BlockEvening   = engine.BlockEvening

	LedgerFieldTargetText    = engine.LedgerFieldTargetText
	LedgerFieldScheduleTitle = engine.LedgerFieldScheduleTitle
	MaxLedgerEntriesPerDay   = engine.MaxLedgerEntriesPerDay

	JobStatusQueued    = jobs.JobStatusQueued
	JobStatusRunning   = jobs.JobStatusRunning
	JobStatusSucceeded = jobs.JobStatusSucceeded
	JobStatusFailed    = jobs.JobStatusFailed
	JobStatusCanceled  = jobs.JobStatusCanceled
)

var AllActionTypes = engine.AllActionTypes

func ValidFeedback(v string) bool { return engine.ValidFeedback(v) }

func BlockForHour(hour int) string { return engine.BlockForHour(hour) }
