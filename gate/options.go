package gate

import "math/rand"

// OptionChooser picks the candidate options and the correct one for a
// new challenge.
type OptionChooser interface {
	ChooseOptions() (options []string, correct string)
}

// CorrectEmoji is the option a new member must pick: the lizard.
const CorrectEmoji = "🦎"

// decoyEmojis is the pool the wrong options are drawn from.
var decoyEmojis = []string{"🐶", "🐱", "🐵", "🦄", "🐔", "🦉", "🐢", "🦀", "🐟"}

// EmojiChooser is the default OptionChooser: a fixed number of random
// decoys plus the lizard at a random position.
type EmojiChooser struct {
	// DecoyCount is the number of wrong options per challenge.
	DecoyCount int
}

// DefaultDecoyCount is the number of decoys when EmojiChooser.DecoyCount
// is zero.
const DefaultDecoyCount = 4

// ChooseOptions returns DecoyCount random decoys with the lizard
// inserted at a random position.
func (c EmojiChooser) ChooseOptions() ([]string, string) {
	count := c.DecoyCount
	if count <= 0 {
		count = DefaultDecoyCount
	}
	if count > len(decoyEmojis) {
		count = len(decoyEmojis)
	}

	perm := rand.Perm(len(decoyEmojis))
	options := make([]string, 0, count+1)
	for _, i := range perm[:count] {
		options = append(options, decoyEmojis[i])
	}

	pos := rand.Intn(len(options) + 1)
	options = append(options[:pos], append([]string{CorrectEmoji}, options[pos:]...)...)

	return options, CorrectEmoji
}
