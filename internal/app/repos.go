package app

import (
	"gorm.io/gorm"

	interventionrepo "github.com/lumehq/lume-backend/internal/data/repos/intervention"
	jobsrepo "github.com/lumehq/lume-backend/internal/data/repos/jobs"
	preferencerepo "github.com/lumehq/lume-backend/internal/data/repos/preference"
	schedulerepo "github.com/lumehq/lume-backend/internal/data/repos/schedule"
	userrepo "github.com/lumehq/lume-backend/internal/data/repos/user"
	"github.com/lumehq/lume-backend/internal/platform/logger"
)

type Repos struct {
	User            userrepo.UserRepo
	Schedule        schedulerepo.ScheduleItemRepo
	InterventionLog interventionrepo.InterventionLogRepo
	FeedbackStat    interventionrepo.FeedbackStatRepo
	Preference      preferencerepo.SuggestionPreferenceRepo
	JobRun          jobsrepo.JobRunRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		User:            userrepo.NewUserRepo(db, log),
		Schedule:        schedulerepo.NewScheduleItemRepo(db, log),
		InterventionLog: interventionrepo.NewInterventionLogRepo(db, log),
		FeedbackStat:    interventionrepo.NewFeedbackStatRepo(db, log),
		Preference:      preferencerepo.NewSuggestionPreferenceRepo(db, log),
		JobRun:          jobsrepo.NewJobRunRepo(db, log),
	}
}
