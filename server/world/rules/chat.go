package rules

import (
	"fmt"
	"strconv"
	"strings"
)

// ChatResult is the outcome of OnChat: at most one of Broadcast or Private is
// non-empty. Broadcast is sent to every connected player as-is; Private is
// sent only to the speaker (command feedback, errors).
type ChatResult struct {
	Broadcast string
	Private   string
}

// OnChat interprets one line of chat text from player. "/auth <secret>" and
// "/set tileset [N]" are commands; every other line, including any other
// text starting with "/", is broadcast verbatim, prefixed with the speaker's
// name, to every connected player.
func (e *Engine) OnChat(player Player, text string) ChatResult {
	switch {
	case strings.HasPrefix(text, "/auth "):
		return e.handleAuth(player, strings.TrimPrefix(text, "/auth "))
	case text == "/set tileset":
		return ChatResult{Private: fmt.Sprintf("tileset: %d", player.TilesetIndex())}
	case strings.HasPrefix(text, "/set tileset "):
		return e.handleSetTileset(player, strings.TrimPrefix(text, "/set tileset "))
	default:
		return ChatResult{Broadcast: fmt.Sprintf("%s: %s", player.PlayerName(), text)}
	}
}

func (e *Engine) handleAuth(player Player, secret string) ChatResult {
	if secret != e.adminSecret {
		return ChatResult{Private: "wrong secret"}
	}
	player.SetAdmin(true)
	e.log.Info("player authenticated as admin", "player", player.PlayerName())
	return ChatResult{Private: "you are now an admin"}
}

// handleSetTileset stores a tileset index in range [0,2) and, per the
// reference implementation, gives no reply either way.
func (e *Engine) handleSetTileset(player Player, arg string) ChatResult {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return ChatResult{}
	}
	if n < 0 || n >= 2 {
		return ChatResult{}
	}
	player.SetTilesetIndex(n)
	return ChatResult{}
}
