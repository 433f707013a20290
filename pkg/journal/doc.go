/*
Package journal records finished service activations.

A Journal stores Records; Memory keeps the newest entries in process and Redis
appends them to a Redis stream capped at an approximate length. A Writer
adapts either one to a pool.Observer: activations are buffered and written
from a single goroutine so pools never wait on the sink.

	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	j, err := journal.NewRedis(journal.RedisConfig{Redis: rdb, Key: "simplexss:activations"})
	if err != nil {
		return err
	}

	w := journal.NewWriter(j, journal.WriterConfig{Metrics: metrics.DefaultRegistry})
	defer w.Close()

	sys, err := simplexss.New(loop, simplexss.WithObserver(w.Observe))

The journal is an audit trail only. Schedules are never restored from it.
*/
package journal
