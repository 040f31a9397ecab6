package schedule

import (
	cronv3 "github.com/robfig/cron/v3"

	"github.com/mailbear/mailbear/internal/logger"
)

// Manager wraps the cron scheduler used by schedule-driven runs. Jobs are
// chained with skip-if-still-running so a slow poll cycle is never stacked on
// top of itself, and with panic recovery so one bad cycle cannot kill the
// scheduler.
type Manager struct {
	log    logger.Logger
	cron   *cronv3.Cron
	jobIDs map[string]cronv3.EntryID
}

func NewManager(log logger.Logger) *Manager {
	return &Manager{
		log:    log,
		jobIDs: make(map[string]cronv3.EntryID),
	}
}

// Start registers job under name with the given cron expression (standard
// five-field syntax) and starts the scheduler.
func (m *Manager) Start(name, spec string, job func()) error {
	c := cronv3.New(cronv3.WithChain(
		cronv3.SkipIfStillRunning(cronv3.DefaultLogger),
		cronv3.Recover(cronv3.DefaultLogger),
	))

	id, err := c.AddFunc(spec, job)
	if err != nil {
		return err
	}
	m.jobIDs[name] = id
	m.log.Infof("registered %s job with schedule: %s", name, spec)

	c.Start()
	m.cron = c
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (m *Manager) Stop() {
	if m.cron == nil {
		return
	}
	m.log.Info("stopping scheduler")
	ctx := m.cron.Stop()
	<-ctx.Done()
}
