// Package messages holds the operator and client facing message catalog.
//
// Messages are templates with named placeholders written as <name>. The
// values come as key/value pairs, the same pairs a structured logger takes,
// so one call both renders the text and attaches the fields.
package messages

import (
	"fmt"
	"strings"
)

// Message identifies a catalog entry
type Message string

const (
	PackUploading   Message = "pack.uploading"
	PackUploaded    Message = "pack.uploaded"
	PackNotUploaded Message = "pack.not_uploaded"
	PackBroadcast   Message = "pack.broadcast"
	PackUnchanged   Message = "pack.unchanged"
	SenderSelected  Message = "sender.selected"
	SenderDisabled  Message = "sender.disabled"
	ReceiverEnabled Message = "receiver.enabled"

	PackAccepted Message = "pack.status.accepted"
	PackDeclined Message = "pack.status.declined"
	PackLoaded   Message = "pack.status.loaded"
	PackFailed   Message = "pack.status.failed"

	JoinWelcome    Message = "client.welcome"
	KickDeclined   Message = "client.kick_declined"
	KickFailed     Message = "client.kick_failed"
	PackSendFailed Message = "client.send_failed"
)

// Level is the severity a message is logged at
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

type entry struct {
	template string
	level    Level
}

var catalog = map[Message]entry{
	PackUploading:   {"Automatic upload of the resource pack is enabled, uploading...", LevelInfo},
	PackUploaded:    {"Resource pack has been uploaded on <url> in <delay>ms", LevelInfo},
	PackNotUploaded: {"Resource pack has not been uploaded", LevelError},
	PackBroadcast:   {"Sent <url> to <clients> connected clients", LevelInfo},
	PackUnchanged:   {"Pack URL <url> is unchanged, skipping broadcast", LevelDebug},
	SenderSelected:  {"Using <strategy> pack sender", LevelDebug},
	SenderDisabled:  {"Pack sending is disabled, sender unregistered", LevelInfo},
	ReceiverEnabled: {"Listening for client pack status", LevelDebug},

	PackAccepted: {"<client> accepted the resource pack", LevelDebug},
	PackDeclined: {"<client> declined the resource pack", LevelInfo},
	PackLoaded:   {"<client> loaded the resource pack", LevelDebug},
	PackFailed:   {"<client> failed to download the resource pack", LevelWarn},

	JoinWelcome:    {"This server uses a resource pack, download it here: <url>", LevelInfo},
	KickDeclined:   {"The resource pack is required on this server", LevelInfo},
	KickFailed:     {"The resource pack could not be downloaded, please reconnect", LevelInfo},
	PackSendFailed: {"Failed to send pack to <client>", LevelWarn},
}

// Template returns the raw template of msg
func Template(msg Message) string {
	if e, ok := catalog[msg]; ok {
		return e.template
	}
	return string(msg)
}

// LevelOf returns the severity of msg
func LevelOf(msg Message) Level {
	if e, ok := catalog[msg]; ok {
		return e.level
	}
	return LevelInfo
}

// Render substitutes <key> placeholders with the matching values.
// Unmatched placeholders are left as they are.
func Render(msg Message, keyvals ...any) string {
	text := Template(msg)
	for i := 0; i+1 < len(keyvals); i += 2 {
		key := fmt.Sprint(keyvals[i])
		text = strings.ReplaceAll(text, "<"+key+">", fmt.Sprint(keyvals[i+1]))
	}
	return text
}

// Sink receives operator messages
type Sink interface {
	Log(msg Message, keyvals ...any)
}

// Discard is a Sink that drops every message
var Discard Sink = discard{}

type discard struct{}

func (discard) Log(Message, ...any) {}
