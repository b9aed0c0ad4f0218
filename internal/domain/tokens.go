package domain

import (
	"strconv"
	"strings"
)

// Callback tokens carried by button presses. The router parses these;
// the transport adapter attaches them to inline buttons. Everything
// else about a button (label, layout) is presentation.
const (
	TokenMenuListUsers   = "menu_list_users"
	TokenMenuAddOperator = "menu_add_admin"
	TokenMenuRemoveOp    = "menu_remove_admin"
	TokenMenuStats       = "menu_stats"
	TokenMenuClose       = "menu_close"
	TokenBackToMenu      = "back_to_menu"

	tokenReplyPrefix = "reply_"
)

// ReplyToken encodes a "begin replying to user" button token.
func ReplyToken(user UserID) string {
	return tokenReplyPrefix + strconv.FormatInt(int64(user), 10)
}

// ParseReplyToken decodes a reply token, reporting whether the token is
// one.
func ParseReplyToken(token string) (UserID, bool) {
	rest, ok := strings.CutPrefix(token, tokenReplyPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return UserID(id), true
}
