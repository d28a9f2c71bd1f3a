package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/javajoker/agriconnect-backend/internal/realtime"
	"github.com/javajoker/agriconnect-backend/internal/session"
)

// livePayload covers the fields of both pushed event shapes.
type livePayload struct {
	Message      string `json:"message"`
	Notification *struct {
		Message string `json:"message"`
	} `json:"notification"`
	OrderID   string `json:"orderId"`
	NewStatus string `json:"newStatus"`
}

func (a *app) describe(msg realtime.Message) string {
	var p livePayload
	if err := json.Unmarshal(msg.Data, &p); err != nil {
		return string(msg.Data)
	}
	text := p.Message
	if p.Notification != nil {
		text = p.Notification.Message
	}
	if p.NewStatus != "" {
		text += " [" + p.NewStatus + "]"
	}
	return text
}

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream live notifications until idle timeout or interrupt",
		Long: `Opens the live channel for the signed-in user and prints pushed events.
Every line typed on stdin counts as keyboard activity; the session ends
after the idle timeout passes without any.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.watch(ctx)
		},
	}
}

func (a *app) watch(ctx context.Context) error {
	var outMu sync.Mutex
	m := a.session(true, func(msg realtime.Message) {
		outMu.Lock()
		defer outMu.Unlock()
		a.printf("%s %s %s\n",
			a.style(mutedStyle, time.Now().Format("15:04:05")),
			a.style(eventStyle, msg.Event),
			a.describe(msg))
	})

	restored, err := m.Restore(ctx)
	if err != nil {
		return err
	}
	if !restored {
		return errNotLoggedIn
	}

	// Validates the stored token; a 401 ends the session
	if _, err := a.client(m).Me(ctx); err != nil {
		return err
	}

	live := m.Live()
	if live == nil {
		return errors.New("live channel unavailable")
	}

	state, _ := m.Current()
	outMu.Lock()
	a.printf("Watching as %s, idle timeout %s\n", a.style(headerStyle, state.User.Name), a.idleTimeout)
	outMu.Unlock()

	go func() {
		scanner := bufio.NewScanner(a.in)
		for scanner.Scan() {
			m.Activity(session.ActivityKeyboard)
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case sig := <-m.Signals():
		outMu.Lock()
		defer outMu.Unlock()
		if sig == session.SignalExpired {
			a.printf("Session expired after %s of inactivity; sign in again\n", a.idleTimeout)
			return nil
		}
		return errors.New("session rejected by server; sign in again")
	case <-live.Done():
		return errors.New("live channel closed by server")
	}
}
