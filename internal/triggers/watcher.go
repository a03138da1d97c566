package triggers

import (
	"context"
	"log"
	"sync"
	"time"

	"cloud.google.com/go/firestore"

	"sladeshAPI/internal/types/request"
	"sladeshAPI/internal/types/user"
)

// Watcher feeds Firestore snapshot changes into the Handler, standing in for
// the per-document triggers of the platform this replaces. The first snapshot
// of each listener is backlog: it seeds state and fires nothing. A listener
// that dies is reconnected with backoff; reconnecting replays the backlog
// snapshot, which reseeds state the same way.
type Watcher struct {
	client  *firestore.Client
	handler *Handler

	retryBase time.Duration
	retryMax  time.Duration
}

func NewWatcher(client *firestore.Client, handler *Handler) *Watcher {
	return &Watcher{
		client:    client,
		handler:   handler,
		retryBase: time.Second,
		retryMax:  time.Minute,
	}
}

// Watch runs both listeners until ctx is canceled.
func (w *Watcher) Watch(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		w.runRetry(ctx, "request", w.watchRequests)
	}()
	go func() {
		defer wg.Done()
		w.runRetry(ctx, "user", w.watchUsers)
	}()
	wg.Wait()
}

// runRetry keeps one listener alive, doubling the reconnect delay up to
// retryMax and starting over after a listener that held for a while.
func (w *Watcher) runRetry(ctx context.Context, name string, listen func(context.Context) error) {
	backoff := w.retryBase
	for {
		started := time.Now()
		err := listen(ctx)
		if ctx.Err() != nil {
			return
		}
		if time.Since(started) > w.retryMax {
			backoff = w.retryBase
		}
		log.Printf("%s listener stopped, reconnecting in %s: %v", name, backoff, err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > w.retryMax {
			backoff = w.retryMax
		}
	}
}

func (w *Watcher) watchRequests(ctx context.Context) error {
	it := w.client.Collection("requests").Snapshots(ctx)
	defer it.Stop()

	first := true
	for {
		snap, err := it.Next()
		if err != nil {
			return err
		}

		if first {
			first = false
			log.Printf("request listener: skipped %d backlog documents", len(snap.Changes))
			continue
		}

		for _, change := range snap.Changes {
			if change.Kind != firestore.DocumentAdded {
				continue
			}
			req := &request.Request{}
			if err := change.Doc.DataTo(req); err != nil {
				log.Printf("request listener: skipping malformed document %s: %v", change.Doc.Ref.ID, err)
				continue
			}
			req.ID = change.Doc.Ref.ID
			if err := w.handler.RequestCreated(ctx, req); err != nil {
				log.Printf("request trigger failed for %s: %v", req.ID, err)
			}
		}
	}
}

func (w *Watcher) watchUsers(ctx context.Context) error {
	it := w.client.Collection("users").Snapshots(ctx)
	defer it.Stop()

	// Listener changes carry no before-image, so the previous checkedIn state
	// is retained here to detect the false->true transition.
	checkedIn := make(map[string]bool)
	first := true
	for {
		snap, err := it.Next()
		if err != nil {
			return err
		}

		for _, change := range snap.Changes {
			u := &user.User{}
			if err := change.Doc.DataTo(u); err != nil {
				log.Printf("user listener: skipping malformed document %s: %v", change.Doc.Ref.ID, err)
				continue
			}
			u.ID = change.Doc.Ref.ID

			switch change.Kind {
			case firestore.DocumentAdded:
				checkedIn[u.ID] = u.CheckedIn
			case firestore.DocumentRemoved:
				delete(checkedIn, u.ID)
			case firestore.DocumentModified:
				if first {
					checkedIn[u.ID] = u.CheckedIn
					continue
				}
				before := &user.User{ID: u.ID, Username: u.Username, CheckedIn: checkedIn[u.ID]}
				if err := w.handler.UserUpdated(ctx, before, u); err != nil {
					log.Printf("user trigger failed for %s: %v", u.ID, err)
				}
				checkedIn[u.ID] = u.CheckedIn
			}
		}
		first = false
	}
}
