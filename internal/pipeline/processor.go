package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"

	"github.com/tinywideclouds/go-push-actions/pkg/fcm"
)

// MessageSender is the narrow view of the FCM sender the pipeline needs.
type MessageSender interface {
	Send(ctx context.Context, msg *fcm.Message, dryRun bool) (fcm.SendResult, error)
	SendMulticast(ctx context.Context, msg *fcm.MulticastMessage, dryRun bool) (fcm.BatchResult, error)
}

// NewProcessor returns a StreamProcessor that dispatches validated send
// requests to FCM. When forceDryRun is set every send goes through the
// provider's validation path regardless of the per-request flag.
//
// A nil error acks the message. Invalid requests are acked after logging so
// they do not spin through the subscription forever; transport failures are
// returned so the message is nacked and retried.
func NewProcessor(snd MessageSender, forceDryRun bool, logger *slog.Logger) messagepipeline.StreamProcessor[SendRequest] {
	procLogger := logger.With("component", "SendProcessor")

	return func(ctx context.Context, original messagepipeline.Message, req *SendRequest) error {
		dryRun := req.DryRun || forceDryRun
		if req.Multicast != nil {
			batch, err := snd.SendMulticast(ctx, req.Multicast, dryRun)
			if err != nil {
				var vErr *fcm.ValidationError
				if errors.As(err, &vErr) {
					procLogger.WarnContext(ctx, "Dropping invalid multicast request.",
						"message_id", original.ID, "error", err)
					return nil
				}
				procLogger.ErrorContext(ctx, "Multicast send failed, message will be retried.",
					"message_id", original.ID, "error", err)
				return err
			}
			procLogger.InfoContext(ctx, "Multicast send complete.",
				"message_id", original.ID,
				"success_count", batch.SuccessCount,
				"failure_count", batch.FailureCount)
			return nil
		}

		result, err := snd.Send(ctx, req.Message, dryRun)
		if err != nil {
			// Send only errors on validation; provider failures land in the
			// result below.
			procLogger.WarnContext(ctx, "Dropping invalid send request.",
				"message_id", original.ID, "error", err)
			return nil
		}
		if !result.Success {
			if result.ErrorKind == fcm.ErrorUnknown || result.ErrorKind == fcm.ErrorQuotaExceeded {
				procLogger.ErrorContext(ctx, "Send failed, message will be retried.",
					"message_id", original.ID, "error", result.ErrorDetail)
				return errors.New(result.ErrorDetail)
			}
			// Bad tokens and bad arguments are terminal for this payload;
			// retrying cannot succeed.
			procLogger.WarnContext(ctx, "Provider rejected message.",
				"message_id", original.ID,
				"error_kind", string(result.ErrorKind),
				"error", result.ErrorDetail)
			return nil
		}
		procLogger.InfoContext(ctx, "Message sent.",
			"message_id", original.ID, "provider_message_id", result.MessageID)
		return nil
	}
}
