// Package modkit carries the shared dependencies handed to every service module
package modkit

import (
	"github.com/masteryoda101/fake-star-check/internal/modkit/repokit"
	"github.com/masteryoda101/fake-star-check/internal/platform/config"
	"github.com/masteryoda101/fake-star-check/internal/platform/logger"
	"github.com/masteryoda101/fake-star-check/internal/platform/store"
)

// Deps is wiring only; PG and CH are nil when the backend is disabled
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
	CH  store.Clickhouse
}

// FromStore builds Deps over an opened store
func FromStore(log logger.Logger, cfg config.Conf, st *store.Store) Deps {
	d := Deps{Log: log, Cfg: cfg}
	if st != nil {
		d.PG = st.PG
		d.CH = st.CH
	}
	return d
}
