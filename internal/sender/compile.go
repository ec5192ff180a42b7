package sender

import (
	"firebase.google.com/go/v4/messaging"

	"github.com/tinywideclouds/go-push-actions/pkg/fcm"
)

// compileMessage converts the public envelope into the Admin SDK shape.
func compileMessage(msg *fcm.Message) *messaging.Message {
	compiled := &messaging.Message{
		Data:    msg.Data,
		Webpush: compileWebpush(msg.Webpush),
		Token:   msg.Token,
	}
	// Token wins when both slipped through; validation normally rejects that.
	if msg.Token == "" {
		compiled.Topic = msg.Topic
		compiled.Condition = msg.Condition
	}
	compiled.Webpush = graftFCMOptions(compiled.Webpush, msg.FCMOptions)
	return compiled
}

func compileMulticast(msg *fcm.MulticastMessage) *messaging.MulticastMessage {
	compiled := &messaging.MulticastMessage{
		Tokens:  msg.Tokens,
		Data:    msg.Data,
		Webpush: compileWebpush(msg.Webpush),
	}
	compiled.Webpush = graftFCMOptions(compiled.Webpush, msg.FCMOptions)
	return compiled
}

// graftFCMOptions carries a top-level click link into the webpush config,
// creating one when the message has no webpush section of its own. Options
// already set on the webpush config keep precedence.
func graftFCMOptions(webpush *messaging.WebpushConfig, opts *fcm.WebpushFCMOptions) *messaging.WebpushConfig {
	if opts == nil {
		return webpush
	}
	if webpush == nil {
		webpush = &messaging.WebpushConfig{}
	}
	if webpush.FCMOptions == nil {
		webpush.FCMOptions = &messaging.WebpushFCMOptions{Link: opts.Link}
	}
	return webpush
}

func compileWebpush(cfg *fcm.WebpushConfig) *messaging.WebpushConfig {
	if cfg == nil {
		return nil
	}
	compiled := &messaging.WebpushConfig{
		Headers:      cfg.Headers,
		Data:         cfg.Data,
		Notification: compileWebpushNotification(cfg.Notification),
	}
	if cfg.FCMOptions != nil {
		compiled.FCMOptions = &messaging.WebpushFCMOptions{Link: cfg.FCMOptions.Link}
	}
	return compiled
}

func compileWebpushNotification(n *fcm.WebpushNotification) *messaging.WebpushNotification {
	if n == nil {
		return nil
	}
	compiled := &messaging.WebpushNotification{
		Title:              n.Title,
		Body:               n.Body,
		Icon:               n.Icon,
		Badge:              n.Badge,
		Direction:          n.Direction,
		Image:              n.Image,
		Language:           n.Language,
		Renotify:           n.Renotify,
		RequireInteraction: n.RequireInteraction,
		Silent:             n.Silent,
		Tag:                n.Tag,
		TimestampMillis:    n.TimestampMillis,
		Vibrate:            n.Vibrate,
		CustomData:         n.CustomData,
	}
	if n.Data != nil {
		compiled.Data = n.Data
	}
	for _, a := range n.Actions {
		compiled.Actions = append(compiled.Actions, &messaging.WebpushNotificationAction{
			Action: a.Action,
			Title:  a.Title,
			Icon:   a.Icon,
		})
	}
	return compiled
}
