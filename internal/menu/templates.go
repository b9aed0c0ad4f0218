// Package menu turns the router's semantic outcomes into user-facing
// strings and button labels. The engine never formats presentation
// itself; everything an end-user or operator reads comes from here and
// can be overridden with a YAML template file.
package menu

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Templates holds every user-facing string. Format verbs are documented
// per field; overrides must keep them.
type Templates struct {
	GreetingOperator string `yaml:"greetingOperator"` // %s: first name
	GreetingUser     string `yaml:"greetingUser"`     // %s: first name
	HelpOperator     string `yaml:"helpOperator"`
	HelpUser         string `yaml:"helpUser"`

	NewUserNotice    string `yaml:"newUserNotice"`    // %s name, %s username, %d id
	BroadcastSummary string `yaml:"broadcastSummary"` // %s kind label, %s name, %s username, %d id, %s message
	ForwardCaption   string `yaml:"forwardCaption"`   // %s kind label, %d user id
	UserAck          string `yaml:"userAck"`
	UserAckFailed    string `yaml:"userAckFailed"`

	KindText        string `yaml:"kindText"`
	KindPhoto       string `yaml:"kindPhoto"`
	KindVideo       string `yaml:"kindVideo"`
	KindVoice       string `yaml:"kindVoice"`
	KindDocument    string `yaml:"kindDocument"`
	KindAudio       string `yaml:"kindAudio"`
	KindSticker     string `yaml:"kindSticker"`
	KindUnsupported string `yaml:"kindUnsupported"`

	PhotoNoCaption     string `yaml:"photoNoCaption"`
	VideoNoCaption     string `yaml:"videoNoCaption"`
	VoicePlaceholder   string `yaml:"voicePlaceholder"`
	AudioPlaceholder   string `yaml:"audioPlaceholder"`
	DocumentLabel      string `yaml:"documentLabel"` // %s file name
	DocumentNoName     string `yaml:"documentNoName"`
	StickerLabel       string `yaml:"stickerLabel"` // %s emoji
	UnsupportedContent string `yaml:"unsupportedContent"`

	ReplyPrompt       string `yaml:"replyPrompt"` // %d target user id
	HistoryHeader     string `yaml:"historyHeader"`
	HistoryEmpty      string `yaml:"historyEmpty"`
	SenderUser        string `yaml:"senderUser"`
	SenderOperator    string `yaml:"senderOperator"`
	ReplyDelivered    string `yaml:"replyDelivered"` // %d target user id
	ReplyFailed       string `yaml:"replyFailed"`    // %d target user id
	ReplyTextOnly     string `yaml:"replyTextOnly"`
	ReplyForwardText  string `yaml:"replyForwardText"` // %s reply text
	Cancelled         string `yaml:"cancelled"`
	Guidance          string `yaml:"guidance"`
	UsernameAbsent    string `yaml:"usernameAbsent"`

	AddPrompt       string `yaml:"addPrompt"`
	RemovePrompt    string `yaml:"removePrompt"` // %s removable id list
	NoRemovable     string `yaml:"noRemovable"`
	FormatError     string `yaml:"formatError"`
	OperatorAdded   string `yaml:"operatorAdded"`   // %d id
	OperatorRemoved string `yaml:"operatorRemoved"` // %d id
	ErrAlready      string `yaml:"errAlready"`
	ErrNotOperator  string `yaml:"errNotOperator"`
	ErrSelf         string `yaml:"errSelf"`
	ErrPrimary      string `yaml:"errPrimary"`
	AddUsage        string `yaml:"addUsage"`
	RemoveUsage     string `yaml:"removeUsage"`

	MenuTitle      string `yaml:"menuTitle"`
	MenuClosed     string `yaml:"menuClosed"`
	Stats          string `yaml:"stats"` // %d operators, %d users, %d messages
	UserListHeader string `yaml:"userListHeader"`
	UserListLine   string `yaml:"userListLine"` // %s name, %s username, %d id
	UserListEmpty  string `yaml:"userListEmpty"`
	NotAuthorized  string `yaml:"notAuthorized"`
	InternalError  string `yaml:"internalError"`

	ButtonReply     string `yaml:"buttonReply"`
	ButtonCancel    string `yaml:"buttonCancel"`
	ButtonListUsers string `yaml:"buttonListUsers"`
	ButtonAdd       string `yaml:"buttonAdd"`
	ButtonRemove    string `yaml:"buttonRemove"`
	ButtonStats     string `yaml:"buttonStats"`
	ButtonClose     string `yaml:"buttonClose"`
	ButtonBack      string `yaml:"buttonBack"`
	ButtonUser      string `yaml:"buttonUser"` // %d user id
}

// DefaultTemplates returns the built-in English strings.
func DefaultTemplates() Templates {
	return Templates{
		GreetingOperator: "Welcome, %s!\n\nYou are an operator of this bot. Use /admin_menu or the keyboard below to manage it.",
		GreetingUser:     "Hello, %s! This bot connects you with the support team.\n\nSend any message (text, photo, video, voice) and an operator will reply as soon as possible.",
		HelpOperator:     "Operator commands:\n\n/admin_menu - control panel\n/list - user list\n/add_admin <id> - promote an operator\n/remove_admin <id> - demote an operator\n/help - this message",
		HelpUser:         "Send any message (text, photo, video, voice) and an operator will reply to you.",

		NewUserNotice:    "New user started a conversation:\nName: %s\nUsername: @%s\nID: %d",
		BroadcastSummary: "%s from user:\nName: %s\nUsername: @%s\nID: %d\n\nMessage: %s",
		ForwardCaption:   "%s from user %d",
		UserAck:          "Your message has been sent to the support team. Expect a reply.",
		UserAckFailed:    "Your message could not be delivered right now. Please try again later.",

		KindText:        "Text",
		KindPhoto:       "Photo",
		KindVideo:       "Video",
		KindVoice:       "Voice message",
		KindDocument:    "Document",
		KindAudio:       "Audio",
		KindSticker:     "Sticker",
		KindUnsupported: "Unknown",

		PhotoNoCaption:     "[photo without caption]",
		VideoNoCaption:     "[video without caption]",
		VoicePlaceholder:   "[voice message]",
		AudioPlaceholder:   "[audio file]",
		DocumentLabel:      "[document: %s]",
		DocumentNoName:     "[document: unnamed]",
		StickerLabel:       "[sticker: %s]",
		UnsupportedContent: "[unsupported message type]",

		ReplyPrompt:      "You are replying to user %d.\n\nThe conversation history follows.\n\nWrite your reply (or /cancel to abort):",
		HistoryHeader:    "Conversation history:",
		HistoryEmpty:     "The conversation history is empty.",
		SenderUser:       "User",
		SenderOperator:   "Operator",
		ReplyDelivered:   "Your reply has been delivered to user %d.",
		ReplyFailed:      "Could not deliver the reply to user %d. Try again later.",
		ReplyTextOnly:    "Replies must be plain text. Send a text message or /cancel to abort.",
		ReplyForwardText: "Reply from the support team: %s",
		Cancelled:        "Operation cancelled.",
		Guidance:         "To answer a user, press the Reply button under their message.",
		UsernameAbsent:   "absent",

		AddPrompt:       "Adding an operator.\n\nSend the numeric user ID (or /cancel to abort):",
		RemovePrompt:    "Removing an operator.\n\nSend the numeric user ID (or /cancel to abort).\n\nRemovable:\n%s",
		NoRemovable:     "There are no operators that can be removed.",
		FormatError:     "Invalid format. Send a numeric ID or /cancel to abort.",
		OperatorAdded:   "User %d is now an operator.",
		OperatorRemoved: "User %d has been removed from the operators.",
		ErrAlready:      "This user is already an operator.",
		ErrNotOperator:  "This user is not an operator.",
		ErrSelf:         "You cannot remove yourself from the operators.",
		ErrPrimary:      "The primary operator cannot be removed.",
		AddUsage:        "Specify the user ID.\nExample: /add_admin 123456789",
		RemoveUsage:     "Specify the user ID.\nExample: /remove_admin 123456789",

		MenuTitle:      "Admin panel\n\nChoose an action:",
		MenuClosed:     "Menu closed.",
		Stats:          "Bot statistics\n\nOperators: %d\nUsers: %d\nMessages: %d",
		UserListHeader: "Select a user to view the history and reply:",
		UserListLine:   "  - %s (@%s), ID: %d",
		UserListEmpty:  "No users have contacted the bot yet.",
		NotAuthorized:  "You don't have permission for this action.",
		InternalError:  "An error occurred while processing an update. It has been logged.",

		ButtonReply:     "Reply",
		ButtonCancel:    "Cancel",
		ButtonListUsers: "User list",
		ButtonAdd:       "Add operator",
		ButtonRemove:    "Remove operator",
		ButtonStats:     "Statistics",
		ButtonClose:     "Close menu",
		ButtonBack:      "Back",
		ButtonUser:      "User ID: %d",
	}
}

// LoadTemplates reads template overrides from a YAML file on top of the
// defaults. A missing path (or empty argument) yields the defaults.
func LoadTemplates(path string, logger *slog.Logger) (Templates, error) {
	t := DefaultTemplates()
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		logger.Debug("template file does not exist, using defaults", "path", path)
		return t, nil
	}
	if err != nil {
		return t, fmt.Errorf("read templates: %w", err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("parse templates %s: %w", path, err)
	}
	logger.Info("loaded message templates", "path", path)
	return t, nil
}
