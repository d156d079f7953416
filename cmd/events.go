package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopscript/apiserver/config"
	"github.com/shopscript/apiserver/internal/events"
	"github.com/shopscript/apiserver/internal/mq"
	"github.com/spf13/cobra"
)

var tailChannel string

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect domain events",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print events from a channel as they arrive",
	Long: `Subscribes to an event channel and logs every event. Usage:

	shopscript events tail --channel orders
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		log := newLogger(cfg)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		queue, err := mq.Open(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		if queue == nil {
			return errors.New("messaging is disabled, set MQ_BACKEND")
		}
		defer queue.Close()

		log.Info().Str("channel", tailChannel).Msg("tailing events")
		err = queue.Subscribe(ctx, tailChannel, func(_ context.Context, msg mq.Message) error {
			env, err := events.Decode(msg)
			if err != nil {
				// Unreadable messages are logged and acked so they do not loop.
				log.Warn().Err(err).Str("message_id", msg.ID).Msg("skipping malformed event")
				return nil
			}
			payload := env.Payload
			if len(payload) == 0 {
				payload = []byte("null")
			}
			log.Info().
				Str("id", env.ID).
				Str("type", env.Type).
				Time("occurred_at", env.OccurredAt).
				RawJSON("payload", payload).
				Msg("event")
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsTailCmd)
	eventsTailCmd.Flags().StringVar(&tailChannel, "channel", events.ChannelOrders, "channel to subscribe to (orders or reviews)")
}
