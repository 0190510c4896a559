package x11

import (
	"context"
	"fmt"
	"log"

	"github.com/BurntSushi/xgb/randr"
)

// Watch calls fn after every RandR screen, crtc or output change until ctx
// is done or the connection closes. Bursts of events collapse into one call.
func (b *Backend) Watch(ctx context.Context, fn func()) error {
	err := randr.SelectInputChecked(b.conn, b.root,
		randr.NotifyMaskScreenChange|
			randr.NotifyMaskCrtcChange|
			randr.NotifyMaskOutputChange).Check()
	if err != nil {
		return fmt.Errorf("select randr events: %w", err)
	}

	changed := make(chan struct{}, 1)
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			ev, err := b.conn.WaitForEvent()
			if ev == nil && err == nil {
				return
			}
			if err != nil {
				log.Printf("watch: X error: %v", err)
				continue
			}

			switch ev.(type) {
			case randr.ScreenChangeNotifyEvent, randr.NotifyEvent:
				select {
				case changed <- struct{}{}:
				default:
				}
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-closed:
			return fmt.Errorf("x11: connection closed")
		case <-changed:
			fn()
		}
	}
}
