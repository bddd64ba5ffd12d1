// SPDX-License-Identifier: MIT

// Package greeter is a small bounded context shipped with the daemon. It
// shows the full event path: a primary port turns a command line request
// into a GreetingRequested event, a listener answers with GreetingIssued,
// and a second listener logs the result.
package greeter

import (
	"context"
	"fmt"

	"github.com/goeda/goeda/event"
	"github.com/goeda/goeda/log"
	"github.com/goeda/goeda/ports"
)

const (
	RequestedName = "greeter.GreetingRequested"
	IssuedName    = "greeter.GreetingIssued"
)

// GreetingRequested asks for a greeting for someone.
type GreetingRequested struct {
	event.Base
	Who string `json:"who"`
}

// NewGreetingRequested builds a request for the given name.
func NewGreetingRequested(who string) *GreetingRequested {
	return &GreetingRequested{Base: event.NewBase(RequestedName), Who: who}
}

// GreetingIssued carries the produced greeting.
type GreetingIssued struct {
	event.Base
	Text string `json:"text"`
}

// Register wires the greeter listeners into the event registry.
func Register() {
	event.RegisterListener(RequestedName, event.ListenerFunc(issueGreeting))
	event.RegisterListener(IssuedName, event.ListenerFunc(logGreeting))
}

func issueGreeting(ctx context.Context, evt event.Event) ([]event.Event, error) {
	req, ok := evt.(*GreetingRequested)
	if !ok {
		// Remote events arrive as generic payloads; decode them.
		remote, isRemote := evt.(event.Remote)
		if !isRemote {
			return nil, fmt.Errorf("unexpected event type %T", evt)
		}
		req = &GreetingRequested{}
		if err := remote.Decode(req); err != nil {
			return nil, fmt.Errorf("decode greeting request: %w", err)
		}
	}
	if req.Who == "" {
		return nil, fmt.Errorf("greeting request without a name")
	}

	issued := &GreetingIssued{
		Base: event.CausedBy(IssuedName, evt),
		Text: fmt.Sprintf("Hello, %s!", req.Who),
	}
	return []event.Event{issued}, nil
}

func logGreeting(ctx context.Context, evt event.Event) ([]event.Event, error) {
	text := ""
	switch e := evt.(type) {
	case *GreetingIssued:
		text = e.Text
	case event.Remote:
		issued := &GreetingIssued{}
		if err := e.Decode(issued); err != nil {
			return nil, fmt.Errorf("decode greeting: %w", err)
		}
		text = issued.Text
	}
	logger := log.WithComponent("greeter")
	logger.Info().Str("greeting", text).Msg("greeting issued")
	return nil, nil
}

// CLI is a primary port that accepts one greeting request taken from the
// command line and returns. It is the one-shot path of the demo daemon.
type CLI struct {
	// Who is the name to greet. Empty disables the port's work.
	Who string
}

func (c *CLI) Priority() int { return 0 }

func (c *CLI) OneShotCompatible() bool { return true }

func (c *CLI) Configure(ctx context.Context, app ports.Application) error { return nil }

func (c *CLI) Entrypoint(ctx context.Context, app ports.Application) error {
	if c.Who == "" {
		return nil
	}
	if _, err := app.Accept(ctx, NewGreetingRequested(c.Who)); err != nil {
		return fmt.Errorf("greet %q: %w", c.Who, err)
	}
	return nil
}

var _ ports.PrimaryPort = (*CLI)(nil)
