package app

import (
	"context"
	"sync"
	"time"

	"github.com/five82/trailedit/internal/logging"
	"github.com/five82/trailedit/internal/socket"
)

const defaultRefreshTimeout = 30 * time.Second

type statusSource interface {
	OnStatus(fn func(socket.Status)) (off func())
}

type networkSync interface {
	HandleStatus(status socket.Status)
	ListAll(ctx context.Context) error
}

// StartSupervisor forwards connection status changes to the sync layer and
// re-requests every collection each time the connection comes up. It returns
// immediately; stop blocks until the supervisor and any refresh have ended.
func StartSupervisor(ctx context.Context, src statusSource, net networkSync, log *logging.Logger, refreshTimeout time.Duration) (stop func()) {
	if log == nil {
		log = logging.Nop()
	}
	if refreshTimeout <= 0 {
		refreshTimeout = defaultRefreshTimeout
	}

	ctx, cancel := context.WithCancel(ctx)
	statuses := make(chan socket.Status, 8)
	off := src.OnStatus(func(s socket.Status) {
		select {
		case statuses <- s:
		case <-ctx.Done():
		}
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		cancelRefresh := func() {}
		defer func() { cancelRefresh() }()

		for {
			select {
			case <-ctx.Done():
				return
			case status := <-statuses:
				log.Info("connection status", "status", status.String())
				net.HandleStatus(status)
				cancelRefresh()
				cancelRefresh = func() {}
				if status != socket.StatusConnected && status != socket.StatusReconnected {
					continue
				}

				rctx, rcancel := context.WithTimeout(ctx, refreshTimeout)
				cancelRefresh = rcancel
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer rcancel()
					if err := net.ListAll(rctx); err != nil && rctx.Err() == nil {
						log.Warn("collection refresh failed", "error", err)
					}
				}()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			off()
			cancel()
			wg.Wait()
		})
	}
}
