package weather

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Controller sequences queries against a Client and publishes the
// resulting FetchState transitions. Every query runs on its own goroutine
// bound to the controller's lifetime; Close cancels them all.
//
// Overlapping queries are not cancelled or sequenced: whichever resolves
// last determines the final published state.
type Controller struct {
	client Client
	apiKey string
	state  *StateHolder
	log    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	wg     sync.WaitGroup
	closed bool
}

// NewController creates an idle controller. A nil logger disables logging.
func NewController(client Client, apiKey string, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		client: client,
		apiKey: apiKey,
		state:  NewStateHolder(),
		log:    logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// SubmitQuery publishes Loading, then asynchronously fetches conditions
// for location and publishes Success or Error. It is a no-op once the
// controller is closed.
func (c *Controller) SubmitQuery(location string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	log := c.log.With(zap.String("query_id", uuid.NewString()), zap.String("location", location))
	c.state.Publish(Loading{})
	log.Debug("query submitted")

	go func() {
		defer c.wg.Done()

		res, err := c.client.Current(c.ctx, c.apiKey, location)
		if c.ctx.Err() != nil {
			log.Debug("controller closed; dropping query result")
			return
		}
		if err != nil {
			log.Warn("query failed", zap.Error(err))
			c.state.Publish(Error{Message: FailureMessage})
			return
		}
		log.Debug("query succeeded", zap.String("name", res.Location.Name))
		c.state.Publish(Success{Result: res})
	}()
}

// State returns the latest published state; nil until the first query.
func (c *Controller) State() FetchState {
	return c.state.State()
}

// Subscribe exposes the state stream. See StateHolder.Subscribe.
func (c *Controller) Subscribe() (<-chan FetchState, func()) {
	return c.state.Subscribe()
}

// Wait blocks until every submitted query has finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Closed reports whether Close has been called.
func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close cancels in-flight queries, suppresses their results and closes
// all subscriptions. It is safe to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.state.Close()
}

// Await returns the first terminal state received from states. It returns
// ctx.Err() if ctx ends first and ErrClosed if the stream is closed.
func Await(ctx context.Context, states <-chan FetchState) (FetchState, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case s, ok := <-states:
			if !ok {
				return nil, ErrClosed
			}
			if IsTerminal(s) {
				return s, nil
			}
		}
	}
}
