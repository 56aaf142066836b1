package redis

import (
	"fmt"

	"github.com/mcoot/quizroom/internal/model"
)

// Key prefix for all quizroom channels
const keyPrefix = "quizroom"

// scoreboardChannel returns the pub/sub channel for a game's scoreboard
func scoreboardChannel(code model.GameCode) string {
	return fmt.Sprintf("%s:scoreboard:%s", keyPrefix, code)
}
