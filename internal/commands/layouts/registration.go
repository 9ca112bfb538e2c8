package layoutscmd

import (
	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
)

// Subscription is a dispatcher registration that can be torn down.
type Subscription interface {
	Unsubscribe()
}

// Subscribe registers the layout handlers with the go-command dispatcher.
// Failed executions are retried up to retries times.
func Subscribe(save *SaveLayoutHandler, publish *PublishLayoutHandler, retries int) []Subscription {
	var subs []Subscription
	if save != nil {
		subs = append(subs, subscribe[SaveLayoutCommand](save, retries))
	}
	if publish != nil {
		subs = append(subs, subscribe[PublishLayoutCommand](publish, retries))
	}
	return subs
}

func subscribe[T command.Message](handler command.Commander[T], retries int) Subscription {
	if retries > 0 {
		return dispatcher.SubscribeCommand(handler, runner.WithMaxRetries(retries))
	}
	return dispatcher.SubscribeCommand(handler)
}
