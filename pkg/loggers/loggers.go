package loggers

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/popchain/popchain-core/pkg/repo"
)

const (
	App         = "app"
	Ledger      = "ledger"
	Submit      = "submit"
	Sponsor     = "sponsor"
	Whitelist   = "whitelist"
	Reconcile   = "reconcile"
	Store       = "store"
	ObjectStore = "objectstore"
)

var w = &LoggerWrapper{
	loggers: map[string]*logrus.Entry{
		App:         newWithModule(App),
		Ledger:      newWithModule(Ledger),
		Submit:      newWithModule(Submit),
		Sponsor:     newWithModule(Sponsor),
		Whitelist:   newWithModule(Whitelist),
		Reconcile:   newWithModule(Reconcile),
		Store:       newWithModule(Store),
		ObjectStore: newWithModule(ObjectStore),
	},
}

type LoggerWrapper struct {
	loggers map[string]*logrus.Entry
}

func newWithModule(name string) *logrus.Entry {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l.WithField("module", name)
}

func parseLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// Initialize rebuilds every module logger from the log section of the config.
// It is not safe to call concurrently with Logger.
func Initialize(config *repo.Config) {
	levels := map[string]string{
		App:         config.Log.Level,
		Ledger:      config.Log.Module.Ledger,
		Submit:      config.Log.Module.Submit,
		Sponsor:     config.Log.Module.Sponsor,
		Whitelist:   config.Log.Module.Whitelist,
		Reconcile:   config.Log.Module.Reconcile,
		Store:       config.Log.Module.Store,
		ObjectStore: config.Log.Module.ObjectStore,
	}

	m := make(map[string]*logrus.Entry, len(levels))
	for name, level := range levels {
		entry := newWithModule(name)
		entry.Logger.SetLevel(parseLevel(level))
		entry.Logger.SetReportCaller(config.Log.ReportCaller)
		entry.Logger.SetFormatter(&logrus.TextFormatter{
			ForceColors:      config.Log.EnableColor,
			DisableColors:    !config.Log.EnableColor,
			DisableTimestamp: config.Log.DisableTimestamp,
			FullTimestamp:    true,
		})
		m[name] = entry
	}

	w = &LoggerWrapper{loggers: m}
	InitializeEthLog(m[Ledger])
}

func Logger(name string) logrus.FieldLogger {
	if l, ok := w.loggers[name]; ok {
		return l
	}
	return w.loggers[App].WithField("module", name)
}
