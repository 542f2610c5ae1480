package utils

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"unicode"

	"github.com/bwmarrin/snowflake"
	"github.com/speps/go-hashids/v2"
)

// GetUserLevel 根据声望返回用户等级
func GetUserLevel(reputation int) (name string, icon string) {
	switch {
	case reputation >= 1000:
		return "forest", "🌳"
	case reputation >= 201:
		return "grove", "🌲"
	case reputation >= 51:
		return "sapling", "🌿"
	case reputation >= 11:
		return "sprout", "🌾"
	default:
		return "seedling", "🌱"
	}
}

// GetRandomEmoji 返回一个随机 emoji 用于默认头像
func GetRandomEmoji() string {
	emojis := []string{"🥕", "🥦", "🍎", "🍋", "🫐", "🥑", "🌽", "🍅", "🥬", "🍇", "🧄", "🍄"}
	return emojis[rand.IntN(len(emojis))]
}

// NameGenerator 生成匿名用户名：<base>_<hashid>，hashid 编码 snowflake ID，保证进程内唯一
type NameGenerator struct {
	node *snowflake.Node
	hid  *hashids.HashID
}

func NewNameGenerator(nodeID int64, salt string) (*NameGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node: %w", err)
	}
	hd := hashids.NewData()
	hd.Salt = salt
	hd.MinLength = 8
	h, err := hashids.NewWithData(hd)
	if err != nil {
		return nil, fmt.Errorf("hashids: %w", err)
	}
	return &NameGenerator{node: node, hid: h}, nil
}

// Generate returns base with a unique suffix appended.
func (g *NameGenerator) Generate(base string) (string, error) {
	suffix, err := g.hid.EncodeInt64([]int64{g.node.Generate().Int64()})
	if err != nil {
		return "", err
	}
	return SanitizeUsername(base) + "_" + suffix, nil
}

// SanitizeUsername keeps letters, digits, '-' and '_' and caps the length at 32 runes.
func SanitizeUsername(s string) string {
	var b strings.Builder
	n := 0
	for _, r := range strings.TrimSpace(s) {
		if n == 32 {
			break
		}
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_':
			b.WriteRune(r)
			n++
		case unicode.IsSpace(r):
			b.WriteRune('_')
			n++
		}
	}
	if b.Len() == 0 {
		return "user"
	}
	return b.String()
}
